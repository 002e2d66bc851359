package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/reviewhub/reviewhub/internal/config"
	"github.com/reviewhub/reviewhub/internal/repository"
	"github.com/reviewhub/reviewhub/internal/services"
	"github.com/reviewhub/reviewhub/internal/workers"
	"github.com/reviewhub/reviewhub/pkg/cache"
	"github.com/reviewhub/reviewhub/pkg/logger"
	"github.com/reviewhub/reviewhub/pkg/queue"
)

func main() {
	// 加载配置
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 初始化日志
	logger := logger.NewLogger()
	logger.Info("Starting ReviewHub Worker...")

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

	ctx := context.Background()
	if err := redisClient.Ping(ctx); err != nil {
		logger.WithError(err).Fatal("Failed to connect to Redis")
	}

	// 初始化Kafka消费者，两个 topic 同一个消费组
	reviewEventsConsumer := queue.NewKafkaConsumer(cfg.Kafka.Brokers, cfg.Kafka.Topics.ReviewEvents, "counter-worker-group")
	defer reviewEventsConsumer.Close()

	userEventsConsumer := queue.NewKafkaConsumer(cfg.Kafka.Brokers, cfg.Kafka.Topics.UserEvents, "counter-worker-group")
	defer userEventsConsumer.Close()

	// 初始化仓库
	userRepo := repository.NewUserRepository(db.DB)
	followRepo := repository.NewFollowRepository(db.DB)
	reviewRepo := repository.NewReviewRepository(db.DB)
	voteRepo := repository.NewVoteRepository(db.DB)
	commentRepo := repository.NewCommentRepository(db.DB)

	// 初始化服务
	statsService := services.NewStatsService(reviewRepo, redisClient, &cfg.Catalog, logger)

	// 初始化工作处理器
	counterWorker := workers.NewCounterWorker(
		reviewRepo,
		voteRepo,
		commentRepo,
		userRepo,
		followRepo,
		statsService,
		redisClient,
		[]*queue.KafkaConsumer{reviewEventsConsumer, userEventsConsumer},
		logger,
	)

	// 启动工作处理器
	logger.Info("Starting counter worker...")
	go func() {
		if err := counterWorker.Start(ctx); err != nil {
			logger.WithError(err).Error("Counter worker stopped with error")
		}
	}()

	// 等待中断信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down worker...")

	if err := counterWorker.Stop(); err != nil {
		logger.WithError(err).Error("Failed to stop counter worker")
	}

	logger.Info("Worker exited")
}
