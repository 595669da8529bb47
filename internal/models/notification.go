package models

import (
	"time"
)

type NotificationType string

const (
	NotificationTypeEmail      NotificationType = "email"
	NotificationTypeEvent      NotificationType = "event"
	NotificationTypeMembership NotificationType = "membership"
	NotificationTypeReport     NotificationType = "report" // 举报，发给所有管理员
)

// Valid reports whether t is a known notification type.
func (t NotificationType) Valid() bool {
	switch t {
	case NotificationTypeEmail, NotificationTypeEvent, NotificationTypeMembership, NotificationTypeReport:
		return true
	}
	return false
}

// Notification 一行代表一份投递。群发与举报按接收人扇出为多行，
// 同一次发送的各行共享 BroadcastID，每行的 IsRead 只属于 DeliveredTo。
type Notification struct {
	ID                uint             `gorm:"primaryKey" json:"id"`
	BroadcastID       string           `gorm:"size:36;not null;index" json:"broadcast_id"`
	SenderUsername    string           `gorm:"size:64;not null;index" json:"sender_username"`
	RecipientUsername string           `gorm:"size:64;index" json:"recipient_username,omitempty"` // 单发/回复
	ClubName          string           `gorm:"size:100;index" json:"club_name,omitempty"`         // 社团群发
	Type              NotificationType `gorm:"type:varchar(20);not null" json:"type"`
	Message           string           `gorm:"type:text;not null" json:"message"`
	Link              string           `gorm:"size:500" json:"link,omitempty"`
	ReplyToID         *uint            `gorm:"index" json:"reply_to,omitempty"`
	DeliveredTo       string           `gorm:"size:64;not null;index" json:"-"`
	IsRead            bool             `gorm:"default:false;index" json:"-"`
	CreatedAt         time.Time        `gorm:"index" json:"created_at"`
}

// IsRoot reports whether n starts a thread.
func (n *Notification) IsRoot() bool {
	return n.ReplyToID == nil
}

// IsPersonToPerson reports whether n is a 1:1 email between two users.
func (n *Notification) IsPersonToPerson() bool {
	return n.RecipientUsername != "" && n.SenderUsername != "" && n.Type == NotificationTypeEmail
}

// Counterparty returns the other user of a 1:1 notification as seen by username.
func (n *Notification) Counterparty(username string) string {
	if n.SenderUsername == username {
		return n.RecipientUsername
	}
	return n.SenderUsername
}
