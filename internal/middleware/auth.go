package middleware

import (
	"errors"
	"net/http"
	"strings"

	"clubhub/internal/errno"
	"clubhub/internal/models"
	"clubhub/internal/utils"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const ViewerKey = "viewer"
const SessionUserKey = "user_id"

// AuthRequired rejects requests without a resolved viewer.
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentViewer(c) == nil {
			e := errno.ErrUnauthenticated
			c.AbortWithStatusJSON(e.Status(), gin.H{"error": e.Kind, "message": e.Message})
			return
		}
		c.Next()
	}
}

// LoadViewer 从 session 或 Bearer 令牌解析当前用户及其社团身份，写入上下文。
// 用户不存在时按匿名处理，由 AuthRequired 决定是否拒绝；数据库故障直接返回 503。
func LoadViewer(db *gorm.DB, tokens *utils.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		var user models.User
		var found bool

		if tokens != nil {
			if header := c.GetHeader("Authorization"); strings.HasPrefix(header, "Bearer ") {
				claims, err := tokens.Validate(strings.TrimPrefix(header, "Bearer "))
				if err != nil {
					c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errno.KindUnauthenticated, "message": "invalid token"})
					return
				}
				found, err = lookupUser(db.WithContext(c.Request.Context()).Where("username = ?", claims.Username), &user)
				if err != nil {
					abortStore(c, err)
					return
				}
			}
		}

		if !found {
			session := sessions.Default(c)
			if userID := session.Get(SessionUserKey); userID != nil {
				var err error
				found, err = lookupUser(db.WithContext(c.Request.Context()).Where("id = ?", userID), &user)
				if err != nil {
					abortStore(c, err)
					return
				}
			}
		}

		if found {
			var memberships []models.Membership
			if err := db.WithContext(c.Request.Context()).Where("username = ?", user.Username).Find(&memberships).Error; err != nil {
				abortStore(c, err)
				return
			}
			c.Set(ViewerKey, &models.Viewer{
				Username:    user.Username,
				IsAdmin:     user.IsAdmin,
				Memberships: memberships,
			})
		}
		c.Next()
	}
}

// lookupUser 找不到用户视为匿名，其他数据库错误向上返回
func lookupUser(query *gorm.DB, user *models.User) (bool, error) {
	err := query.First(user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func abortStore(c *gin.Context, err error) {
	logrus.WithError(err).WithField("path", c.Request.URL.Path).Error("Failed to resolve viewer")
	e := errno.Store(err)
	c.AbortWithStatusJSON(e.Status(), gin.H{"error": e.Kind, "message": e.Message})
}

// CurrentViewer returns the authenticated viewer or nil.
func CurrentViewer(c *gin.Context) *models.Viewer {
	v, exists := c.Get(ViewerKey)
	if !exists {
		return nil
	}
	viewer, _ := v.(*models.Viewer)
	return viewer
}
