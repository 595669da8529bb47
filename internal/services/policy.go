package services

import (
	"context"
	"net/url"
	"strings"
	"unicode/utf8"

	"clubhub/internal/errno"
	"clubhub/internal/models"
)

// SendMode 发信方式
type SendMode string

const (
	SendIndividual    SendMode = "individual"
	SendClubBroadcast SendMode = "club-broadcast"
	SendReport        SendMode = "report"
)

// MaxMessageLength is the longest accepted message body, in runes.
const MaxMessageLength = 5000

// SendRequest 新通知请求
type SendRequest struct {
	Mode      SendMode                `json:"mode"`
	Recipient string                  `json:"recipient,omitempty"`
	ClubName  string                  `json:"club_name,omitempty"`
	Type      models.NotificationType `json:"type,omitempty"`
	Message   string                  `json:"message"`
	Link      string                  `json:"link,omitempty"`
}

// Resolution 授权通过后的投递目标
type Resolution struct {
	Type       models.NotificationType
	Recipient  string   // individual only
	ClubName   string   // club-broadcast only
	Recipients []string // one stored row per entry
}

// Authorize 判断 viewer 能否按 req 的方式发信，并解析出全部接收人。
// 拒绝时不产生任何副作用。
func Authorize(ctx context.Context, viewer *models.Viewer, req SendRequest, dir Directory) (*Resolution, error) {
	if viewer == nil {
		return nil, errno.ErrUnauthenticated
	}
	if _, err := validateMessage(req.Message); err != nil {
		return nil, err
	}

	switch req.Mode {
	case SendReport:
		return authorizeReport(ctx, viewer, req, dir)
	case SendClubBroadcast:
		return authorizeBroadcast(ctx, viewer, req, dir)
	case SendIndividual, "":
		return authorizeIndividual(ctx, viewer, req, dir)
	}
	return nil, errno.Validation("unknown send mode %q", req.Mode)
}

func authorizeReport(ctx context.Context, viewer *models.Viewer, req SendRequest, dir Directory) (*Resolution, error) {
	if viewer.IsAdmin {
		return nil, errno.Forbidden("administrators cannot file reports")
	}
	if req.Type != "" && req.Type != models.NotificationTypeReport {
		return nil, errno.Validation("reports must have type %q", models.NotificationTypeReport)
	}

	admins, err := dir.AdminUsernames(ctx)
	if err != nil {
		return nil, err
	}
	if len(admins) == 0 {
		return nil, errno.NotFound("no administrator is available to receive the report")
	}
	return &Resolution{Type: models.NotificationTypeReport, Recipients: admins}, nil
}

func authorizeBroadcast(ctx context.Context, viewer *models.Viewer, req SendRequest, dir Directory) (*Resolution, error) {
	typ, err := messageType(req.Type)
	if err != nil {
		return nil, err
	}

	club := strings.TrimSpace(req.ClubName)
	if club == "" {
		club, err = implicitClub(viewer)
		if err != nil {
			return nil, err
		}
	}

	if !viewer.IsAdmin && !viewer.Leads(club) {
		return nil, errno.Forbidden("only the club leader or vice-president of %s can message all members", club)
	}

	exists, err := dir.ClubExists(ctx, club)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, errno.NotFound("club %s does not exist", club)
	}

	members, err := dir.ClubMembers(ctx, club)
	if err != nil {
		return nil, err
	}
	recipients := make([]string, 0, len(members))
	for _, m := range members {
		if m != viewer.Username {
			recipients = append(recipients, m)
		}
	}
	if len(recipients) == 0 {
		return nil, errno.Validation("club %s has no other members", club)
	}
	return &Resolution{Type: typ, ClubName: club, Recipients: recipients}, nil
}

// implicitClub 未指定社团时，仅当发送者恰好领导一个社团才可推断
func implicitClub(viewer *models.Viewer) (string, error) {
	if viewer.IsAdmin {
		return "", errno.Validation("a target club is required")
	}
	clubs := viewer.LeadClubs()
	switch len(clubs) {
	case 0:
		return "", errno.Forbidden("only club leaders and vice-presidents can message a club")
	case 1:
		return clubs[0], nil
	}
	return "", errno.Validation("a target club is required")
}

func authorizeIndividual(ctx context.Context, viewer *models.Viewer, req SendRequest, dir Directory) (*Resolution, error) {
	typ, err := messageType(req.Type)
	if err != nil {
		return nil, err
	}

	recipient := strings.TrimSpace(req.Recipient)
	if recipient == "" {
		return nil, errno.Validation("a recipient is required")
	}
	if recipient == viewer.Username {
		return nil, errno.Validation("cannot send a message to yourself")
	}

	exists, err := dir.UserExists(ctx, recipient)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, errno.NotFound("user %s does not exist", recipient)
	}
	return &Resolution{Type: typ, Recipient: recipient, Recipients: []string{recipient}}, nil
}

func messageType(t models.NotificationType) (models.NotificationType, error) {
	if t == "" {
		return models.NotificationTypeEmail, nil
	}
	if t == models.NotificationTypeReport {
		return "", errno.Validation("use report mode to file a report")
	}
	if !t.Valid() {
		return "", errno.Validation("unknown notification type %q", t)
	}
	return t, nil
}

func validateMessage(message string) (string, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return "", errno.Validation("message must not be empty")
	}
	if utf8.RuneCountInString(message) > MaxMessageLength {
		return "", errno.Validation("message exceeds %d characters", MaxMessageLength)
	}
	return message, nil
}

func validateLink(link string) (string, error) {
	link = strings.TrimSpace(link)
	if link == "" {
		return "", nil
	}
	u, err := url.Parse(link)
	if err != nil {
		return "", errno.Validation("invalid link")
	}
	if u.IsAbs() && u.Scheme != "http" && u.Scheme != "https" {
		return "", errno.Validation("link must use http or https")
	}
	return link, nil
}
