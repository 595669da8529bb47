package services

import (
	"sort"
	"time"

	"clubhub/internal/models"
	"clubhub/internal/utils"
)

const previewLength = 140

// MessageView 单条消息对某个查看者呈现的样子
type MessageView struct {
	ID          uint                    `json:"id"`
	Sender      string                  `json:"sender"`
	Recipient   string                  `json:"recipient,omitempty"`
	ClubName    string                  `json:"club_name,omitempty"`
	Type        models.NotificationType `json:"type"`
	Message     string                  `json:"message"`
	MessageHTML string                  `json:"message_html"`
	Link        string                  `json:"link,omitempty"`
	ReplyTo     *uint                   `json:"reply_to,omitempty"`
	CreatedAt   time.Time               `json:"created_at"`
	Read        bool                    `json:"read"`
}

// ThreadView 根通知及其回复，所有布尔状态均针对某个查看者计算
type ThreadView struct {
	Root                MessageView   `json:"root"`
	Replies             []MessageView `json:"replies"`
	Preview             string        `json:"preview"`
	RecipientCount      int           `json:"recipient_count"`
	IsSent              bool          `json:"is_sent"`
	IsPersonToPerson    bool          `json:"is_person_to_person"`
	IsClubWide          bool          `json:"is_club_wide"`
	HasReplies          bool          `json:"has_replies"`
	IsConversation      bool          `json:"is_conversation"`
	Unread              bool          `json:"unread"`
	HasReceivedMessages bool          `json:"has_received_messages"`
}

// ResolveThread builds the view of one thread for viewer. copies holds every
// stored row of the root (one per recipient for fan-out sends) and replies the
// rows whose ReplyToID points at the root; neither needs to be sorted.
// copies must not be empty.
func ResolveThread(viewer string, copies []models.Notification, replies []models.Notification) ThreadView {
	root := viewerCopy(viewer, copies)

	ordered := make([]models.Notification, len(replies))
	copy(ordered, replies)
	sort.SliceStable(ordered, func(i, j int) bool {
		if !ordered[i].CreatedAt.Equal(ordered[j].CreatedAt) {
			return ordered[i].CreatedAt.Before(ordered[j].CreatedAt)
		}
		return ordered[i].ID < ordered[j].ID
	})

	rootView := messageView(viewer, root)
	tv := ThreadView{
		Root:             rootView,
		Replies:          make([]MessageView, 0, len(ordered)),
		Preview:          utils.Excerpt(rootView.MessageHTML, previewLength),
		RecipientCount:   len(copies),
		IsSent:           root.SenderUsername == viewer,
		IsPersonToPerson: root.IsPersonToPerson(),
		IsClubWide:       root.RecipientUsername == "" && root.SenderUsername != "",
		HasReplies:       len(ordered) > 0,
	}
	tv.IsConversation = tv.HasReplies || !root.IsRoot()

	receivedReply := false
	for i := range ordered {
		tv.Replies = append(tv.Replies, messageView(viewer, &ordered[i]))
		if ordered[i].DeliveredTo == viewer {
			receivedReply = true
		}
	}
	tv.HasReceivedMessages = root.SenderUsername != viewer || receivedReply
	tv.Unread = unreadForViewer(viewer, tv.IsConversation, copies, ordered)
	return tv
}

// unreadForViewer 会话中任一发给 viewer 的消息未读即为未读；
// 非会话消息只看 viewer 自己那一份，发送者本人永远视为已读。
func unreadForViewer(viewer string, conversation bool, copies, replies []models.Notification) bool {
	if conversation {
		for _, group := range [][]models.Notification{copies, replies} {
			for i := range group {
				if group[i].DeliveredTo == viewer && !group[i].IsRead {
					return true
				}
			}
		}
		return false
	}

	for i := range copies {
		n := &copies[i]
		if n.DeliveredTo == viewer && n.SenderUsername != viewer && !n.IsRead {
			return true
		}
	}
	return false
}

// viewerCopy picks the row delivered to viewer, falling back to the lowest id.
func viewerCopy(viewer string, copies []models.Notification) *models.Notification {
	var first *models.Notification
	for i := range copies {
		if copies[i].DeliveredTo == viewer {
			return &copies[i]
		}
		if first == nil || copies[i].ID < first.ID {
			first = &copies[i]
		}
	}
	return first
}

func messageView(viewer string, n *models.Notification) MessageView {
	read := true
	if n.DeliveredTo == viewer && n.SenderUsername != viewer {
		read = n.IsRead
	}
	return MessageView{
		ID:          n.ID,
		Sender:      n.SenderUsername,
		Recipient:   n.RecipientUsername,
		ClubName:    n.ClubName,
		Type:        n.Type,
		Message:     n.Message,
		MessageHTML: utils.RenderMessage(n.Message),
		Link:        n.Link,
		ReplyTo:     n.ReplyToID,
		CreatedAt:   n.CreatedAt,
		Read:        read,
	}
}
