package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Soumabha100/X-clone-backend/internal/config"
	"github.com/Soumabha100/X-clone-backend/internal/handlers"
	"github.com/Soumabha100/X-clone-backend/internal/repository"
	"github.com/Soumabha100/X-clone-backend/internal/services"
	"github.com/Soumabha100/X-clone-backend/pkg/cache"
	"github.com/Soumabha100/X-clone-backend/pkg/logger"
	"github.com/Soumabha100/X-clone-backend/pkg/queue"
	"github.com/Soumabha100/X-clone-backend/pkg/storage"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// .env 不存在时忽略
	_ = godotenv.Load()

	// 加载配置
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 初始化日志
	logger := logger.NewLogger(cfg.Log.Level)
	logger.Info("Starting X-clone API server...")

	// 初始化数据库
	db, err := repository.NewDatabase(&cfg.Database)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

	// 自动迁移数据库表
	if err := db.AutoMigrate(); err != nil {
		logger.WithError(err).Fatal("Failed to migrate database")
	}

	// 初始化Redis缓存
	redisClient := cache.NewRedisClient(
		cfg.Redis.Addr(),
		cfg.Redis.Password,
		cfg.Redis.DB,
		cfg.Redis.PoolSize,
		cfg.Redis.MinIdleConns,
	)
	defer redisClient.Close()

	// 检查Redis连接
	ctx := context.Background()
	if err := redisClient.Ping(ctx); err != nil {
		logger.WithError(err).Fatal("Failed to connect to Redis")
	}

	// 初始化Kafka生产者
	userEventsProducer := queue.NewKafkaProducer(cfg.Kafka.Brokers, cfg.Kafka.Topics.UserEvents)
	defer userEventsProducer.Close()

	socialEventsProducer := queue.NewKafkaProducer(cfg.Kafka.Brokers, cfg.Kafka.Topics.SocialEvents)
	defer socialEventsProducer.Close()

	// 初始化图片存储
	store, uploadDir, closeStore, err := newObjectStore(ctx, &cfg.Storage)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize object storage")
	}
	defer closeStore()

	// 初始化仓库
	userRepo := repository.NewUserRepository(db.DB)
	followRepo := repository.NewFollowRepository(db.DB)
	bookmarkRepo := repository.NewBookmarkRepository(db.DB)
	postRepo := repository.NewPostRepository(db.DB)
	engagementRepo := repository.NewEngagementRepository(db.DB)
	commentRepo := repository.NewCommentRepository(db.DB)
	notificationRepo := repository.NewNotificationRepository(db.DB)
	cascadeRepo := repository.NewCascadeRepository(db)

	sessions := cache.NewSessionStore(redisClient, cfg.JWT.ExpireTime)
	statuses := cache.NewCascadeStatusStore(redisClient)

	// 初始化服务
	projector := services.NewProjector(userRepo, followRepo, bookmarkRepo, engagementRepo, commentRepo)
	notificationService := services.NewNotificationService(db, notificationRepo, projector, logger)
	svc := &handlers.Services{
		Users:         services.NewUserService(userRepo, store, userEventsProducer, projector, logger),
		Graph:         services.NewGraphService(db, userRepo, followRepo, notificationService, socialEventsProducer, projector, logger, cfg.Graph.OperationTimeout),
		Engagement:    services.NewEngagementService(db, postRepo, userRepo, engagementRepo, bookmarkRepo, commentRepo, notificationService, socialEventsProducer, projector, logger),
		Notifications: notificationService,
		Feed:          services.NewFeedService(postRepo, userRepo, bookmarkRepo, projector, logger),
		Posts:         services.NewPostService(postRepo, userRepo, cascadeRepo, store, socialEventsProducer, projector, logger),
		Accounts:      services.NewAccountService(userRepo, cascadeRepo, sessions, statuses, socialEventsProducer, logger, cfg.Graph.OperationTimeout),
	}

	// 设置Gin模式
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// 创建路由
	router, err := handlers.NewRouter(svc, sessions, &handlers.Options{
		JWTSecret:      cfg.JWT.Secret,
		TokenExpire:    cfg.JWT.ExpireTime,
		RequestTimeout: cfg.Server.RequestTimeout,
		MaxUploadSize:  cfg.Server.MaxUploadSize,
		SecureCookie:   cfg.Server.Mode == "release",
		UploadDir:      uploadDir,
	}, map[string]handlers.HealthCheck{
		"database": db.Ping,
		"redis":    redisClient.Ping,
	}, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to create router")
	}

	// 创建HTTP服务器
	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// 启动服务器
	go func() {
		logger.WithField("port", cfg.Server.Port).Info("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("Failed to start HTTP server")
		}
	}()

	// 等待中断信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// 优雅关闭
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
	}

	logger.Info("Server exited")
}

// newObjectStore 按配置选择本地磁盘或 GCS，本地存储时返回需要静态托管的目录
func newObjectStore(ctx context.Context, cfg *config.StorageConfig) (storage.ObjectStore, string, func(), error) {
	switch cfg.Driver {
	case "gcs":
		store, err := storage.NewGCSStore(ctx, cfg.GCSBucket, cfg.CredentialsFile)
		if err != nil {
			return nil, "", nil, err
		}
		return store, "", func() { _ = store.Close() }, nil
	default:
		store, err := storage.NewLocalStore(cfg.LocalDir, cfg.PublicBaseURL)
		if err != nil {
			return nil, "", nil, err
		}
		return store, cfg.LocalDir, func() {}, nil
	}
}

func init() {
	// 创建必要的目录
	dirs := []string{"logs", "uploads", "configs"}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Printf("Failed to create directory %s: %v", dir, err)
		}
	}

	// 创建默认配置文件（如果不存在）
	configPath := "configs/config.yaml"
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := config.WriteDefault(configPath); err != nil {
			log.Printf("Failed to create default config: %v", err)
		}
	}
}
