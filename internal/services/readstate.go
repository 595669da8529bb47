package services

import (
	"context"

	"clubhub/internal/errno"
	"clubhub/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// SetReadState 设置 viewer 在某个线程中的已读状态。id 可以是线程内任意一行，
// 只会修改投递给 viewer 的那些行，其他人的状态不受影响。
func (s *NotificationService) SetReadState(ctx context.Context, viewer *models.Viewer, id uint, read bool) error {
	if viewer == nil {
		return errno.ErrUnauthenticated
	}

	db := s.db.WithContext(ctx)
	var row models.Notification
	if err := db.First(&row, id).Error; err != nil {
		return storeErr(err, "notification")
	}
	root := row
	if row.ReplyToID != nil {
		var parent models.Notification
		if err := db.First(&parent, *row.ReplyToID).Error; err != nil {
			return storeErr(err, "notification")
		}
		root = parent
	}

	scope := func(tx *gorm.DB) *gorm.DB {
		return tx.Model(&models.Notification{}).
			Where("delivered_to = ?", viewer.Username).
			Where("((broadcast_id = ? AND reply_to_id IS NULL) OR reply_to_id = ?)", root.BroadcastID, root.ID)
	}

	var owned int64
	if err := scope(db).Count(&owned).Error; err != nil {
		return errno.Store(err)
	}
	if owned == 0 {
		return errno.NotFound("notification not found")
	}

	if err := scope(db).Update("is_read", read).Error; err != nil {
		return errno.Store(err)
	}
	logrus.WithFields(logrus.Fields{
		"viewer": viewer.Username,
		"root":   root.ID,
		"read":   read,
	}).Debug("Read state updated")
	return nil
}

// MarkAllRead 将投递给 viewer 的全部通知标记为已读，返回修改的行数
func (s *NotificationService) MarkAllRead(ctx context.Context, viewer *models.Viewer) (int64, error) {
	if viewer == nil {
		return 0, errno.ErrUnauthenticated
	}
	res := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("delivered_to = ? AND is_read = ?", viewer.Username, false).
		Update("is_read", true)
	if res.Error != nil {
		return 0, errno.Store(res.Error)
	}
	return res.RowsAffected, nil
}

// UnreadCount 返回 viewer 全部信箱中未读线程的数量
func (s *NotificationService) UnreadCount(ctx context.Context, viewer *models.Viewer) (int, error) {
	unread := true
	page, err := s.Query(ctx, viewer, MailboxFilter{Mailbox: MailboxAll, Unread: &unread, Limit: 1})
	if err != nil {
		return 0, err
	}
	return page.Total, nil
}
