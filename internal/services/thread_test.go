package services

import (
	"strings"
	"testing"
	"time"

	"clubhub/internal/models"
)

func note(id uint, bid, from, to, club, deliveredTo string, read bool, at int) models.Notification {
	return models.Notification{
		ID:                id,
		BroadcastID:       bid,
		SenderUsername:    from,
		RecipientUsername: to,
		ClubName:          club,
		Type:              models.NotificationTypeEmail,
		Message:           "message " + bid,
		DeliveredTo:       deliveredTo,
		IsRead:            read,
		CreatedAt:         time.Date(2024, 3, 1, 9, 0, at, 0, time.UTC),
	}
}

func replyTo(n models.Notification, root uint) models.Notification {
	n.ReplyToID = &root
	return n
}

func TestResolveThreadPersonToPerson(t *testing.T) {
	root := note(1, "a", "carol", "dave", "", "dave", false, 0)

	tv := ResolveThread("carol", []models.Notification{root}, nil)
	if !tv.IsSent || !tv.IsPersonToPerson || tv.IsClubWide || tv.IsConversation {
		t.Errorf("Unexpected flags for sender: %+v", tv)
	}
	if tv.Unread || !tv.Root.Read {
		t.Error("A sent message is always read for its sender")
	}
	if tv.HasReceivedMessages {
		t.Error("Sender has not received anything yet")
	}

	tv = ResolveThread("dave", []models.Notification{root}, nil)
	if tv.IsSent || !tv.Unread || tv.Root.Read || !tv.HasReceivedMessages {
		t.Errorf("Unexpected flags for recipient: %+v", tv)
	}
}

func TestResolveThreadConversation(t *testing.T) {
	root := note(1, "a", "carol", "dave", "", "dave", true, 0)
	// 乱序传入，结果应按时间排列
	replies := []models.Notification{
		replyTo(note(3, "c", "carol", "dave", "", "dave", true, 2), 1),
		replyTo(note(2, "b", "dave", "carol", "", "carol", false, 1), 1),
	}

	tv := ResolveThread("carol", []models.Notification{root}, replies)
	if !tv.HasReplies || !tv.IsConversation {
		t.Fatalf("Expected a conversation: %+v", tv)
	}
	if len(tv.Replies) != 2 || tv.Replies[0].ID != 2 || tv.Replies[1].ID != 3 {
		t.Errorf("Replies must be in chronological order: %+v", tv.Replies)
	}
	if !tv.Unread {
		t.Error("Unread reply to carol should make the thread unread for her")
	}
	if !tv.HasReceivedMessages {
		t.Error("carol received a reply")
	}
	if tv.Replies[0].Read || !tv.Replies[1].Read {
		t.Errorf("Per-message read state wrong: %+v", tv.Replies)
	}

	if ResolveThread("dave", []models.Notification{root}, replies).Unread {
		t.Error("Everything delivered to dave is read")
	}
}

func TestResolveThreadClubWide(t *testing.T) {
	copies := []models.Notification{
		note(12, "x", "bob", "", "Chess Club", "m2", true, 0),
		note(11, "x", "bob", "", "Chess Club", "m1", false, 0),
		note(13, "x", "bob", "", "Chess Club", "m3", false, 0),
	}

	tv := ResolveThread("m2", copies, nil)
	if !tv.IsClubWide || tv.IsPersonToPerson || tv.RecipientCount != 3 {
		t.Errorf("Unexpected club thread: %+v", tv)
	}
	if tv.Root.ID != 12 || tv.Unread {
		t.Errorf("m2 should see their own read copy, got root %d unread=%v", tv.Root.ID, tv.Unread)
	}

	if !ResolveThread("m1", copies, nil).Unread {
		t.Error("m1's copy is unread")
	}

	tv = ResolveThread("root", copies, nil)
	if tv.Root.ID != 11 || tv.Unread || !tv.Root.Read {
		t.Errorf("Outsiders see the lowest copy as read, got %+v", tv.Root)
	}
}

func TestResolveThreadPreview(t *testing.T) {
	root := note(1, "a", "carol", "dave", "", "dave", false, 0)
	root.Message = "**Hello** " + strings.Repeat("x", 300)

	tv := ResolveThread("dave", []models.Notification{root}, nil)
	if strings.Contains(tv.Preview, "<") || strings.Contains(tv.Preview, "**") {
		t.Errorf("Preview should be plain text, got %q", tv.Preview)
	}
	if !strings.HasPrefix(tv.Preview, "Hello") {
		t.Errorf("Unexpected preview start %q", tv.Preview)
	}
	if n := len([]rune(tv.Preview)); n > previewLength+1 {
		t.Errorf("Preview too long: %d runes", n)
	}
	if !strings.Contains(tv.Root.MessageHTML, "<strong>Hello</strong>") {
		t.Errorf("Expected rendered markdown, got %q", tv.Root.MessageHTML)
	}
}

func TestResolveThreadReport(t *testing.T) {
	copies := []models.Notification{
		note(21, "r", "alice", "", "", "root", false, 0),
		note(22, "r", "alice", "", "", "ops", false, 0),
	}
	for i := range copies {
		copies[i].Type = models.NotificationTypeReport
	}

	tv := ResolveThread("root", copies, nil)
	if !tv.IsClubWide || tv.IsPersonToPerson {
		t.Errorf("A report has no individual recipient and should be flagged club-wide: %+v", tv)
	}
	if tv.Root.ID != 21 || !tv.Unread || tv.RecipientCount != 2 {
		t.Errorf("Unexpected report view for root: %+v", tv)
	}

	tv = ResolveThread("alice", copies, nil)
	if !tv.IsSent || tv.Unread || !tv.IsClubWide {
		t.Errorf("Unexpected report view for reporter: %+v", tv)
	}
}
