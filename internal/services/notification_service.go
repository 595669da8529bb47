package services

import (
	"context"
	"errors"
	"time"

	"clubhub/internal/errno"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Options 通知服务参数
type Options struct {
	ReadRetries  int
	DefaultLimit int
	MaxLimit     int
	Now          func() time.Time
}

// NotificationService 通知/信箱引擎。不持有跨请求的可变状态，
// 每次操作都直接读写数据库。
type NotificationService struct {
	db           *gorm.DB
	readRetries  int
	defaultLimit int
	maxLimit     int
	now          func() time.Time
}

func NewNotificationService(db *gorm.DB, opts Options) *NotificationService {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.DefaultLimit <= 0 {
		opts.DefaultLimit = 10
	}
	if opts.MaxLimit < opts.DefaultLimit {
		opts.MaxLimit = opts.DefaultLimit
	}
	return &NotificationService{
		db:           db,
		readRetries:  opts.ReadRetries,
		defaultLimit: opts.DefaultLimit,
		maxLimit:     opts.MaxLimit,
		now:          opts.Now,
	}
}

// withReadRetry runs an idempotent read, retrying transient store failures.
// Writes must never go through here.
func (s *NotificationService) withReadRetry(ctx context.Context, fn func(tx *gorm.DB) error) error {
	var err error
	for attempt := 0; attempt <= s.readRetries; attempt++ {
		if attempt > 0 {
			logrus.WithError(err).WithField("attempt", attempt).Warn("Retrying mailbox read")
			select {
			case <-ctx.Done():
				return errno.Store(ctx.Err())
			case <-time.After(time.Duration(attempt) * 50 * time.Millisecond):
			}
		}
		err = fn(s.db.WithContext(ctx))
		if err == nil || !errno.IsRetryable(err) {
			return err
		}
	}
	return err
}

// storeErr maps gorm errors onto the service taxonomy.
func storeErr(err error, what string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errno.NotFound("%s not found", what)
	}
	var e *errno.Errno
	if errors.As(err, &e) {
		return e
	}
	return errno.Store(err)
}
