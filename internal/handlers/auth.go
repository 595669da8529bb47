package handlers

import (
	"net/http"
	"strings"

	"clubhub/internal/errno"
	"clubhub/internal/middleware"
	"clubhub/internal/models"
	"clubhub/internal/utils"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// AuthHandler 只负责签发 session 与访问令牌，账号管理不在此处
type AuthHandler struct {
	db     *gorm.DB
	tokens *utils.JWTManager
}

func NewAuthHandler(db *gorm.DB, tokens *utils.JWTManager) *AuthHandler {
	return &AuthHandler{db: db, tokens: tokens}
}

type credentials struct {
	Login    string `json:"login" form:"login"` // username or email
	Password string `json:"password" form:"password"`
}

func (h *AuthHandler) authenticate(c *gin.Context) (*models.User, bool) {
	var req credentials
	if err := c.ShouldBind(&req); err != nil || strings.TrimSpace(req.Login) == "" {
		RespondError(c, errno.Validation("login and password are required"))
		return nil, false
	}

	var user models.User
	login := strings.TrimSpace(req.Login)
	if err := h.db.WithContext(c.Request.Context()).
		Where("username = ? OR email = ?", login, login).
		First(&user).Error; err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errno.KindUnauthenticated, "message": "invalid login or password"})
		return nil, false
	}
	if !utils.CheckPasswordHash(req.Password, user.Password) {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errno.KindUnauthenticated, "message": "invalid login or password"})
		return nil, false
	}
	return &user, true
}

func (h *AuthHandler) Login(c *gin.Context) {
	user, ok := h.authenticate(c)
	if !ok {
		return
	}

	session := sessions.Default(c)
	session.Set(middleware.SessionUserKey, user.ID)
	if err := session.Save(); err != nil {
		logrus.WithError(err).Error("Failed to save session")
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "session", "message": "could not start session"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"username": user.Username, "is_admin": user.IsAdmin})
}

func (h *AuthHandler) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	if err := session.Save(); err != nil {
		logrus.WithError(err).Error("Failed to clear session")
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "session", "message": "could not end session"})
		return
	}
	c.Status(http.StatusNoContent)
}

// Token 为 API 客户端签发 Bearer 令牌
func (h *AuthHandler) Token(c *gin.Context) {
	if h.tokens == nil {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": errno.KindNotFound, "message": "token authentication is disabled"})
		return
	}
	user, ok := h.authenticate(c)
	if !ok {
		return
	}

	token, expires, err := h.tokens.Generate(user.Username)
	if err != nil {
		logrus.WithError(err).Error("Failed to sign token")
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "token", "message": "could not issue token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token, "expires_at": expires})
}
