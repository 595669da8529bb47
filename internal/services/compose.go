package services

import (
	"context"

	"clubhub/internal/errno"
	"clubhub/internal/models"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Send 新建一条通知。群发和举报按接收人扇出为多行，
// 成员查询与全部写入在同一事务内，失败则整体回滚。
// 返回首行 ID，发送者用它引用这条通知。
func (s *NotificationService) Send(ctx context.Context, viewer *models.Viewer, req SendRequest) (uint, error) {
	if viewer == nil {
		return 0, errno.ErrUnauthenticated
	}
	message, err := validateMessage(req.Message)
	if err != nil {
		return 0, err
	}
	link, err := validateLink(req.Link)
	if err != nil {
		return 0, err
	}

	var rows []models.Notification
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res, err := Authorize(ctx, viewer, req, NewDirectory(tx))
		if err != nil {
			return err
		}

		broadcastID := uuid.NewString()
		createdAt := s.now()
		rows = make([]models.Notification, 0, len(res.Recipients))
		for _, recipient := range res.Recipients {
			rows = append(rows, models.Notification{
				BroadcastID:       broadcastID,
				SenderUsername:    viewer.Username,
				RecipientUsername: res.Recipient,
				ClubName:          res.ClubName,
				Type:              res.Type,
				Message:           message,
				Link:              link,
				DeliveredTo:       recipient,
				IsRead:            false,
				CreatedAt:         createdAt,
			})
		}
		if err := tx.Create(&rows).Error; err != nil {
			return errno.Store(err)
		}
		return nil
	})
	if err != nil {
		return 0, storeErr(err, "notification")
	}

	logrus.WithFields(logrus.Fields{
		"sender":     viewer.Username,
		"mode":       req.Mode,
		"recipients": len(rows),
		"id":         rows[0].ID,
	}).Info("Notification sent")
	return rows[0].ID, nil
}

// Reply 回复一条一对一通知。回复永远发给原会话的另一方，
// 并直接挂在根通知下。
func (s *NotificationService) Reply(ctx context.Context, viewer *models.Viewer, replyTo uint, message string) (uint, error) {
	if viewer == nil {
		return 0, errno.ErrUnauthenticated
	}
	message, err := validateMessage(message)
	if err != nil {
		return 0, err
	}

	var reply models.Notification
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var root models.Notification
		if err := tx.First(&root, replyTo).Error; err != nil {
			return storeErr(err, "notification")
		}
		if err := checkReplyable(viewer, &root); err != nil {
			return err
		}

		recipient := root.Counterparty(viewer.Username)
		rootID := root.ID
		reply = models.Notification{
			BroadcastID:       uuid.NewString(),
			SenderUsername:    viewer.Username,
			RecipientUsername: recipient,
			Type:              models.NotificationTypeEmail,
			Message:           message,
			ReplyToID:         &rootID,
			DeliveredTo:       recipient,
			CreatedAt:         s.now(),
		}
		if err := tx.Create(&reply).Error; err != nil {
			return errno.Store(err)
		}
		return nil
	})
	if err != nil {
		return 0, storeErr(err, "notification")
	}

	logrus.WithFields(logrus.Fields{
		"sender":   viewer.Username,
		"reply_to": replyTo,
		"id":       reply.ID,
	}).Info("Reply sent")
	return reply.ID, nil
}

// checkReplyable 只有一对一的根通知可以回复，且回复者必须是原发送者或原接收者
func checkReplyable(viewer *models.Viewer, root *models.Notification) error {
	if !root.IsRoot() {
		return errno.Forbidden("replies must target the first message of a thread")
	}
	if root.ClubName != "" || root.RecipientUsername == "" {
		return errno.Forbidden("club and report notifications cannot be replied to")
	}
	if viewer.Username != root.SenderUsername && viewer.Username != root.RecipientUsername {
		return errno.Forbidden("you are not part of this conversation")
	}
	return nil
}
