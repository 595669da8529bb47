package services

import (
	"context"
	"sort"
	"strings"

	"clubhub/internal/errno"
	"clubhub/internal/models"

	"gorm.io/gorm"
)

// Mailbox names.
const (
	MailboxInbox        = "inbox"
	MailboxSent         = "sent"
	MailboxClub         = "club"
	MailboxReport       = "report"
	MailboxConversation = "conversation"
	MailboxAll          = "all"
)

// Sort keys.
const (
	GroupByCreated = "created"
	GroupByType    = "type"
	GroupByRead    = "read"
)

// MailboxFilter 信箱查询参数
type MailboxFilter struct {
	Search  string `form:"search" json:"search"`
	GroupBy string `form:"groupBy" json:"groupBy"`
	Order   string `form:"order" json:"order"`
	Page    int    `form:"page" json:"page"`
	Limit   int    `form:"limit" json:"limit"`
	Unread  *bool  `form:"unread" json:"unread,omitempty"`
	Mailbox string `form:"mailbox" json:"mailbox"`
}

// Normalize 填充默认值并校验取值范围
func (f *MailboxFilter) Normalize(defaultLimit, maxLimit int) error {
	f.Search = strings.TrimSpace(f.Search)

	switch f.GroupBy {
	case "":
		f.GroupBy = GroupByCreated
	case GroupByCreated, GroupByType, GroupByRead:
	default:
		return errno.Validation("groupBy must be one of created, type, read")
	}

	switch f.Order {
	case "":
		f.Order = "desc"
	case "asc", "desc":
	default:
		return errno.Validation("order must be asc or desc")
	}

	switch f.Mailbox {
	case "":
		f.Mailbox = MailboxAll
	case MailboxInbox, MailboxSent, MailboxClub, MailboxReport, MailboxConversation, MailboxAll:
	default:
		return errno.Validation("unknown mailbox %q", f.Mailbox)
	}

	if f.Page < 0 {
		return errno.Validation("page must be at least 1")
	}
	if f.Page == 0 {
		f.Page = 1
	}
	if f.Limit < 0 || f.Limit > maxLimit {
		return errno.Validation("limit must be between 1 and %d", maxLimit)
	}
	if f.Limit == 0 {
		f.Limit = defaultLimit
	}
	return nil
}

// MailboxPage 分页结果，Total 与 Pages 在过滤之后、切片之前计算
type MailboxPage struct {
	Items []ThreadView `json:"items"`
	Page  int          `json:"page"`
	Pages int          `json:"pages"`
	Total int          `json:"total"`
}

// thread 是一次查询内部使用的线程快照
type thread struct {
	copies  []models.Notification
	replies []models.Notification
	view    ThreadView
}

func (t *thread) root() *models.Notification {
	return &t.copies[0]
}

func (t *thread) deliveredTo(username string) bool {
	for i := range t.copies {
		if t.copies[i].DeliveredTo == username {
			return true
		}
	}
	return false
}

func (t *thread) matches(search string) bool {
	if search == "" {
		return true
	}
	needle := strings.ToLower(search)
	if strings.Contains(strings.ToLower(t.root().Message), needle) {
		return true
	}
	for i := range t.replies {
		if strings.Contains(strings.ToLower(t.replies[i].Message), needle) {
			return true
		}
	}
	return false
}

// Query 计算 viewer 的某个信箱分区，过滤、排序并分页。
// 每次调用都从数据库重新聚合，不做缓存。
func (s *NotificationService) Query(ctx context.Context, viewer *models.Viewer, filter MailboxFilter) (*MailboxPage, error) {
	if viewer == nil {
		return nil, errno.ErrUnauthenticated
	}
	if err := filter.Normalize(s.defaultLimit, s.maxLimit); err != nil {
		return nil, err
	}
	if filter.Mailbox == MailboxReport && !viewer.IsAdmin {
		return nil, errno.Forbidden("only administrators can view reports")
	}

	var threads []*thread
	err := s.withReadRetry(ctx, func(tx *gorm.DB) error {
		var err error
		threads, err = loadThreads(tx, viewer)
		return err
	})
	if err != nil {
		return nil, err
	}

	selected := make([]*thread, 0, len(threads))
	for _, t := range threads {
		if !inMailbox(viewer, filter.Mailbox, t) || !t.matches(filter.Search) {
			continue
		}
		t.view = ResolveThread(viewer.Username, t.copies, t.replies)
		if filter.Unread != nil && t.view.Unread != *filter.Unread {
			continue
		}
		selected = append(selected, t)
	}

	sortThreads(selected, filter.GroupBy, filter.Order)

	total := len(selected)
	page := &MailboxPage{
		Items: make([]ThreadView, 0, filter.Limit),
		Page:  filter.Page,
		Pages: (total + filter.Limit - 1) / filter.Limit,
		Total: total,
	}
	start := (filter.Page - 1) * filter.Limit
	if start >= total {
		return page, nil
	}
	end := start + filter.Limit
	if end > total {
		end = total
	}
	for _, t := range selected[start:end] {
		page.Items = append(page.Items, t.view)
	}
	return page, nil
}

// inMailbox 判断线程是否属于 viewer 的某个信箱分区
func inMailbox(viewer *models.Viewer, mailbox string, t *thread) bool {
	root := t.root()
	inbox := root.Type != models.NotificationTypeReport &&
		root.SenderUsername != viewer.Username &&
		t.deliveredTo(viewer.Username)
	sent := root.SenderUsername == viewer.Username
	club := root.ClubName != "" && (viewer.IsAdmin || viewer.Leads(root.ClubName))
	report := viewer.IsAdmin && root.Type == models.NotificationTypeReport
	conversation := len(t.replies) > 0 &&
		(root.SenderUsername == viewer.Username || root.RecipientUsername == viewer.Username)

	switch mailbox {
	case MailboxInbox:
		return inbox
	case MailboxSent:
		return sent
	case MailboxClub:
		return club
	case MailboxReport:
		return report
	case MailboxConversation:
		return conversation
	}
	return inbox || sent || club || report || conversation
}

// sortThreads 主排序键由 groupBy 决定，相同时按创建时间倒序，再按 ID 倒序
func sortThreads(threads []*thread, groupBy, order string) {
	desc := order == "desc"
	sort.SliceStable(threads, func(i, j int) bool {
		a, b := threads[i], threads[j]
		ra, rb := a.root(), b.root()

		var cmp int
		switch groupBy {
		case GroupByType:
			cmp = strings.Compare(string(ra.Type), string(rb.Type))
		case GroupByRead:
			cmp = boolRank(a.view.Unread) - boolRank(b.view.Unread)
		default:
			cmp = ra.CreatedAt.Compare(rb.CreatedAt)
		}
		if cmp != 0 {
			if desc {
				return cmp > 0
			}
			return cmp < 0
		}

		if !ra.CreatedAt.Equal(rb.CreatedAt) {
			return ra.CreatedAt.After(rb.CreatedAt)
		}
		return ra.ID > rb.ID
	})
}

func boolRank(b bool) int {
	if b {
		return 1
	}
	return 0
}

// loadThreads 取出 viewer 可能看到的全部根通知（含扇出的各份拷贝）及其回复，
// 按 BroadcastID 聚合成线程。
func loadThreads(tx *gorm.DB, viewer *models.Viewer) ([]*thread, error) {
	visible := tx.Where("sender_username = ? OR delivered_to = ?", viewer.Username, viewer.Username)
	if viewer.IsAdmin {
		visible = visible.Or("club_name <> ''").Or("type = ?", models.NotificationTypeReport)
	} else if clubs := viewer.LeadClubs(); len(clubs) > 0 {
		visible = visible.Or("club_name IN ?", clubs)
	}

	var broadcastIDs []string
	err := tx.Model(&models.Notification{}).
		Where("reply_to_id IS NULL").
		Where(visible).
		Distinct().
		Pluck("broadcast_id", &broadcastIDs).Error
	if err != nil {
		return nil, errno.Store(err)
	}
	if len(broadcastIDs) == 0 {
		return nil, nil
	}

	var roots []models.Notification
	err = tx.Where("reply_to_id IS NULL AND broadcast_id IN ?", broadcastIDs).
		Order("id ASC").
		Find(&roots).Error
	if err != nil {
		return nil, errno.Store(err)
	}

	byBroadcast := make(map[string]*thread, len(broadcastIDs))
	byRootID := make(map[uint]*thread)
	threads := make([]*thread, 0, len(broadcastIDs))
	var p2pIDs []uint
	for _, n := range roots {
		t, ok := byBroadcast[n.BroadcastID]
		if !ok {
			t = &thread{}
			byBroadcast[n.BroadcastID] = t
			threads = append(threads, t)
		}
		t.copies = append(t.copies, n)
		byRootID[n.ID] = t
		if n.RecipientUsername != "" {
			p2pIDs = append(p2pIDs, n.ID)
		}
	}

	if len(p2pIDs) > 0 {
		var replies []models.Notification
		if err := tx.Where("reply_to_id IN ?", p2pIDs).Find(&replies).Error; err != nil {
			return nil, errno.Store(err)
		}
		for _, r := range replies {
			if t, ok := byRootID[*r.ReplyToID]; ok {
				t.replies = append(t.replies, r)
			}
		}
	}
	return threads, nil
}
