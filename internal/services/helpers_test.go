package services

import (
	"context"
	"testing"
	"time"

	"clubhub/internal/models"
	"clubhub/internal/testutil"

	"gorm.io/gorm"
)

func newTestService(t *testing.T) (*NotificationService, *gorm.DB) {
	t.Helper()
	conn := testutil.NewTestDB(t)
	svc := NewNotificationService(conn, Options{
		DefaultLimit: 10,
		MaxLimit:     100,
		Now:          testutil.Clock(time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)),
	})
	return svc, conn
}

func mustSend(t *testing.T, svc *NotificationService, viewer *models.Viewer, req SendRequest) uint {
	t.Helper()
	id, err := svc.Send(context.Background(), viewer, req)
	if err != nil {
		t.Fatalf("Send by %s failed: %v", viewer.Username, err)
	}
	return id
}

func mustQuery(t *testing.T, svc *NotificationService, viewer *models.Viewer, filter MailboxFilter) *MailboxPage {
	t.Helper()
	page, err := svc.Query(context.Background(), viewer, filter)
	if err != nil {
		t.Fatalf("Query %s for %s failed: %v", filter.Mailbox, viewer.Username, err)
	}
	return page
}

func countRows(t *testing.T, conn *gorm.DB, query string, args ...interface{}) int64 {
	t.Helper()
	var n int64
	if err := conn.Model(&models.Notification{}).Where(query, args...).Count(&n).Error; err != nil {
		t.Fatalf("counting rows: %v", err)
	}
	return n
}

func boolPtr(b bool) *bool {
	return &b
}
