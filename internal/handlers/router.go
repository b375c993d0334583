package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/Soumabha100/X-clone-backend/internal/middleware"
	"github.com/Soumabha100/X-clone-backend/internal/services"
	"github.com/Soumabha100/X-clone-backend/pkg/cache"
	"github.com/Soumabha100/X-clone-backend/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Options HTTP 层配置
type Options struct {
	JWTSecret      string
	TokenExpire    time.Duration
	RequestTimeout time.Duration
	MaxUploadSize  int64
	SecureCookie   bool
	// UploadDir 非空时以 /uploads 提供本地存储的图片
	UploadDir string
}

type Services struct {
	Users         *services.UserService
	Graph         *services.GraphService
	Engagement    *services.EngagementService
	Notifications *services.NotificationService
	Feed          *services.FeedService
	Posts         *services.PostService
	Accounts      *services.AccountService
}

// HealthCheck 返回 nil 表示依赖可用
type HealthCheck func(ctx context.Context) error

func NewRouter(svc *Services, sessions *cache.SessionStore, opts *Options, checks map[string]HealthCheck, log *logger.Logger) (*gin.Engine, error) {
	if err := RegisterValidators(); err != nil {
		return nil, err
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS())
	router.Use(middleware.RequestLogger(log))

	router.GET("/health", healthHandler(checks))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	if opts.UploadDir != "" {
		router.Static("/uploads", opts.UploadDir)
	}

	userHandler := NewUserHandler(svc.Users, svc.Graph, svc.Accounts, svc.Feed, opts, log)
	postHandler := NewPostHandler(svc.Posts, svc.Engagement, svc.Feed, opts, log)
	feedHandler := NewFeedHandler(svc.Feed, log)
	notificationHandler := NewNotificationHandler(svc.Notifications, log)

	api := router.Group("/api/v1")
	api.Use(middleware.RequestTimeout(opts.RequestTimeout))
	{
		users := api.Group("/users")
		{
			users.POST("/register", userHandler.Register)
			users.POST("/login", userHandler.Login)
			users.GET("/logout", userHandler.Logout)
		}

		protected := api.Group("")
		protected.Use(middleware.NewJWTAuth(&middleware.JWTConfig{Secret: opts.JWTSecret, Sessions: sessions}))
		{
			// 当前用户
			protected.GET("/me", userHandler.GetMe)
			protected.PUT("/me/profile", userHandler.EditProfile)
			protected.GET("/me/bookmarks", userHandler.GetBookmarks)

			// 用户与关注关系
			protected.GET("/users/suggestions", userHandler.Suggestions)
			protected.GET("/users/:id", userHandler.GetProfile)
			protected.GET("/users/:id/posts", userHandler.GetUserPosts)
			protected.POST("/users/:id/follow", userHandler.Follow)
			protected.DELETE("/users/:id/follow", userHandler.Unfollow)
			protected.DELETE("/users/:id", userHandler.DeleteAccount)

			// 帖子与互动
			protected.POST("/posts", postHandler.CreatePost)
			protected.GET("/posts/:id", postHandler.GetPost)
			protected.PUT("/posts/:id", postHandler.EditPost)
			protected.DELETE("/posts/:id", postHandler.DeletePost)
			protected.PUT("/posts/:id/like", postHandler.ToggleLike)
			protected.PUT("/posts/:id/retweet", postHandler.ToggleRetweet)
			protected.PUT("/posts/:id/bookmark", postHandler.ToggleBookmark)
			protected.POST("/posts/:id/comments", postHandler.AddComment)

			// Feed
			protected.GET("/feed", feedHandler.GetFeed)
			protected.GET("/feed/following", feedHandler.GetFollowingFeed)
			protected.GET("/feed/public", feedHandler.GetPublicFeed)

			// 通知
			protected.GET("/notifications", notificationHandler.List)
			protected.GET("/notifications/unread-count", notificationHandler.UnreadCount)
			protected.DELETE("/notifications", notificationHandler.Clear)
		}
	}

	return router, nil
}

func healthHandler(checks map[string]HealthCheck) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		components := make(gin.H, len(checks))
		for name, check := range checks {
			if err := check(ctx); err != nil {
				components[name] = err.Error()
				status = http.StatusServiceUnavailable
				continue
			}
			components[name] = "ok"
		}

		state := "healthy"
		if status != http.StatusOK {
			state = "unhealthy"
		}
		c.JSON(status, gin.H{
			"status":     state,
			"components": components,
			"time":       time.Now().Unix(),
		})
	}
}
