package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Soumabha100/X-clone-backend/internal/config"
	"github.com/Soumabha100/X-clone-backend/internal/repository"
	"github.com/Soumabha100/X-clone-backend/internal/services"
	"github.com/Soumabha100/X-clone-backend/internal/workers"
	"github.com/Soumabha100/X-clone-backend/pkg/cache"
	"github.com/Soumabha100/X-clone-backend/pkg/logger"
	"github.com/Soumabha100/X-clone-backend/pkg/queue"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	// 加载配置
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 初始化日志
	logger := logger.NewLogger(cfg.Log.Level)
	logger.Info("Starting X-clone reconcile worker...")

	// 初始化数据库
	db, err := repository.NewDatabase(&cfg.Database)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

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
	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	if err := redisClient.Ping(ctx); err != nil {
		logger.WithError(err).Fatal("Failed to connect to Redis")
	}

	// 初始化Kafka消费者
	consumer := queue.NewKafkaConsumer(cfg.Kafka.Brokers, cfg.Kafka.Topics.SocialEvents, cfg.Kafka.GroupID, logger.Logger)

	// 初始化仓库和服务
	userRepo := repository.NewUserRepository(db.DB)
	recoveryService := services.NewRecoveryService(
		userRepo,
		repository.NewCascadeRepository(db),
		cache.NewSessionStore(redisClient, cfg.JWT.ExpireTime),
		cache.NewCascadeStatusStore(redisClient),
		logger,
		cfg.Reconcile.StaleAfter,
	)

	// 启动时先执行一次修复
	if stats, err := recoveryService.RunOnce(ctx); err != nil {
		logger.WithError(err).Error("Initial recovery failed")
	} else {
		logger.WithField("stats", stats).Info("Initial recovery completed")
	}

	reconcileWorker := workers.NewReconcileWorker(recoveryService, userRepo, consumer, logger, cfg.Reconcile.Interval)

	// 启动工作处理器
	go func() {
		if err := reconcileWorker.Start(ctx); err != nil && ctx.Err() == nil {
			logger.WithError(err).Error("Reconcile worker stopped with error")
		}
	}()

	// 等待中断信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down worker...")
	stop()

	if err := reconcileWorker.Stop(); err != nil {
		logger.WithError(err).Error("Failed to stop reconcile worker")
	}

	logger.Info("Worker exited")
}
