package handlers

import (
	"clubhub/internal/errno"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// RespondError writes err as {"error": kind, "message": text}.
func RespondError(c *gin.Context, err error) {
	e := errno.From(err)
	if e.Kind == errno.KindStoreUnavailable {
		logrus.WithError(err).WithField("path", c.Request.URL.Path).Error("Store failure")
	}
	c.AbortWithStatusJSON(e.Status(), gin.H{
		"error":   e.Kind,
		"message": e.Message,
	})
}
