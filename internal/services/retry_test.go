package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"clubhub/internal/errno"
	"clubhub/internal/testutil"

	"gorm.io/gorm"
)

// failQueries makes the next n query statements fail and returns a counter of
// how many were rejected.
func failQueries(t *testing.T, conn *gorm.DB, n int) *int {
	t.Helper()
	rejected := 0
	err := conn.Callback().Query().Before("gorm:query").Register("test:fail_queries", func(tx *gorm.DB) {
		if rejected < n {
			rejected++
			tx.AddError(fmt.Errorf("connection reset"))
		}
	})
	if err != nil {
		t.Fatal(err)
	}
	return &rejected
}

func newRetryingService(conn *gorm.DB, retries int) *NotificationService {
	return NewNotificationService(conn, Options{
		ReadRetries:  retries,
		DefaultLimit: 10,
		MaxLimit:     100,
		Now:          testutil.Clock(time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)),
	})
}

func TestQueryRetriesWithinBudget(t *testing.T) {
	svc, conn := newTestService(t)
	testutil.CreateUser(t, conn, "carol", false)
	testutil.CreateUser(t, conn, "dave", false)
	mustSend(t, svc, testutil.Viewer(t, conn, "carol"), SendRequest{Recipient: "dave", Message: "hello"})
	dave := testutil.Viewer(t, conn, "dave")

	rejected := failQueries(t, conn, 2)
	page, err := newRetryingService(conn, 2).Query(context.Background(), dave, MailboxFilter{})
	if err != nil {
		t.Fatalf("Expected the read to succeed after retries, got %v", err)
	}
	if page.Total != 1 {
		t.Errorf("Expected 1 thread, got %d", page.Total)
	}
	if *rejected != 2 {
		t.Errorf("Expected 2 failed attempts, got %d", *rejected)
	}
}

func TestQueryFailsWhenRetriesExhausted(t *testing.T) {
	_, conn := newTestService(t)
	testutil.CreateUser(t, conn, "dave", false)
	dave := testutil.Viewer(t, conn, "dave")

	rejected := failQueries(t, conn, 3)
	_, err := newRetryingService(conn, 2).Query(context.Background(), dave, MailboxFilter{})
	if !errors.Is(err, errno.ErrStoreUnavailable) {
		t.Fatalf("Expected store_unavailable, got %v", err)
	}
	if *rejected != 3 {
		t.Errorf("Expected one attempt plus 2 retries, got %d", *rejected)
	}
}

func TestQueryRetryStopsOnCancel(t *testing.T) {
	_, conn := newTestService(t)
	testutil.CreateUser(t, conn, "dave", false)
	dave := testutil.Viewer(t, conn, "dave")

	failQueries(t, conn, 10)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newRetryingService(conn, 5).Query(ctx, dave, MailboxFilter{})
	if !errors.Is(err, errno.ErrStoreUnavailable) {
		t.Errorf("Expected store_unavailable after cancel, got %v", err)
	}
}

func TestSendIsNotRetried(t *testing.T) {
	_, conn := newTestService(t)
	testutil.CreateUser(t, conn, "carol", false)
	testutil.CreateUser(t, conn, "dave", false)
	carol := testutil.Viewer(t, conn, "carol")

	rejected := failQueries(t, conn, 1)
	_, err := newRetryingService(conn, 3).Send(context.Background(), carol, SendRequest{Recipient: "dave", Message: "hello"})
	if !errors.Is(err, errno.ErrStoreUnavailable) {
		t.Fatalf("Expected store_unavailable, got %v", err)
	}
	if *rejected != 1 {
		t.Errorf("Writes must not be retried, saw %d attempts", *rejected)
	}
	if n := countRows(t, conn, "1 = 1"); n != 0 {
		t.Errorf("Expected no rows after a failed send, got %d", n)
	}
}
