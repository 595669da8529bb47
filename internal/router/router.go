package router

import (
	"net/http"

	"clubhub/internal/config"
	"clubhub/internal/handlers"
	"clubhub/internal/middleware"
	"clubhub/internal/services"
	"clubhub/internal/utils"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// New 组装 gin 引擎与全部路由
func New(cfg *config.Config, db *gorm.DB) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	store := cookie.NewStore([]byte(cfg.Server.SessionSecret))
	r.Use(sessions.Sessions(cfg.Server.SessionName, store))

	tokens := utils.NewJWTManager(cfg.JWT.Secret, cfg.JWT.TTL)
	r.Use(middleware.LoadViewer(db, tokens))
	r.Use(middleware.RequestLogger())

	notificationService := services.NewNotificationService(db, services.Options{
		ReadRetries:  cfg.Database.ReadRetries,
		DefaultLimit: cfg.Mailbox.DefaultLimit,
		MaxLimit:     cfg.Mailbox.MaxLimit,
	})

	authHandler := handlers.NewAuthHandler(db, tokens)
	notificationHandler := handlers.NewNotificationHandler(notificationService)

	// 公共路由 (Public Routes)
	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.POST("/login", authHandler.Login)          // 登录，写入 session
	r.POST("/logout", authHandler.Logout)        // 退出登录
	r.POST("/api/auth/token", authHandler.Token) // 签发 Bearer 令牌

	// 通知路由 (Notification Routes)
	composeLimit := middleware.ComposeRateLimit(cfg.RateLimit.ComposePerMinute)
	api := r.Group("/api/notifications")
	api.Use(middleware.AuthRequired())
	{
		api.GET("", notificationHandler.List)                           // 查询信箱
		api.POST("", composeLimit, notificationHandler.Send)            // 发送通知
		api.GET("/unread-count", notificationHandler.UnreadCount)       // 未读数量
		api.POST("/read-all", notificationHandler.ReadAll)              // 全部标记为已读
		api.POST("/:id/reply", composeLimit, notificationHandler.Reply) // 回复
		api.POST("/:id/read", notificationHandler.Read)                 // 标记线程已读
		api.POST("/:id/unread", notificationHandler.Unread)             // 标记线程未读
	}
	return r
}
