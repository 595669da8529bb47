package handlers

import (
	"net/http"

	"clubhub/internal/errno"
	"clubhub/internal/middleware"
	"clubhub/internal/services"
	"clubhub/internal/utils"

	"github.com/gin-gonic/gin"
)

type NotificationHandler struct {
	service *services.NotificationService
}

func NewNotificationHandler(service *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{service: service}
}

// List 查询信箱
func (h *NotificationHandler) List(c *gin.Context) {
	var filter services.MailboxFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		RespondError(c, errno.Validation("invalid query: %v", err))
		return
	}

	page, err := h.service.Query(c.Request.Context(), middleware.CurrentViewer(c), filter)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// Send 发送单发、群发或举报
func (h *NotificationHandler) Send(c *gin.Context) {
	var req services.SendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, errno.Validation("invalid request body"))
		return
	}

	id, err := h.service.Send(c.Request.Context(), middleware.CurrentViewer(c), req)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": id})
}

type replyRequest struct {
	Message string `json:"message"`
}

// Reply 回复一对一通知
func (h *NotificationHandler) Reply(c *gin.Context) {
	id, ok := utils.ParseID(c.Param("id"))
	if !ok {
		RespondError(c, errno.Validation("invalid notification id"))
		return
	}
	var req replyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, errno.Validation("invalid request body"))
		return
	}

	replyID, err := h.service.Reply(c.Request.Context(), middleware.CurrentViewer(c), id, req.Message)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": replyID})
}

// Read 标记线程为已读
func (h *NotificationHandler) Read(c *gin.Context) {
	h.setReadState(c, true)
}

// Unread 标记线程为未读
func (h *NotificationHandler) Unread(c *gin.Context) {
	h.setReadState(c, false)
}

func (h *NotificationHandler) setReadState(c *gin.Context, read bool) {
	id, ok := utils.ParseID(c.Param("id"))
	if !ok {
		RespondError(c, errno.Validation("invalid notification id"))
		return
	}
	if err := h.service.SetReadState(c.Request.Context(), middleware.CurrentViewer(c), id, read); err != nil {
		RespondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ReadAll 全部通知标记为已读
func (h *NotificationHandler) ReadAll(c *gin.Context) {
	updated, err := h.service.MarkAllRead(c.Request.Context(), middleware.CurrentViewer(c))
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": updated})
}

// UnreadCount 未读线程数，用于导航栏角标
func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	count, err := h.service.UnreadCount(c.Request.Context(), middleware.CurrentViewer(c))
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"unread": count})
}
