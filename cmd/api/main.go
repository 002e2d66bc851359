package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/reviewhub/reviewhub/internal/config"
	"github.com/reviewhub/reviewhub/internal/handlers"
	"github.com/reviewhub/reviewhub/internal/middleware"
	"github.com/reviewhub/reviewhub/internal/repository"
	"github.com/reviewhub/reviewhub/internal/services"
	"github.com/reviewhub/reviewhub/internal/workers"
	"github.com/reviewhub/reviewhub/pkg/cache"
	"github.com/reviewhub/reviewhub/pkg/logger"
	"github.com/reviewhub/reviewhub/pkg/queue"
	"github.com/reviewhub/reviewhub/pkg/storage"
)

func main() {
	// 加载配置
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 初始化日志
	logger := logger.NewLogger()
	logger.Info("Starting ReviewHub API server...")

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

	ctx := context.Background()
	if err := redisClient.Ping(ctx); err != nil {
		logger.WithError(err).Fatal("Failed to connect to Redis")
	}

	// 初始化本地对象存储
	store, err := storage.NewLocalStorage(cfg.Storage.LocalDir, cfg.Storage.PublicBaseURL)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize storage")
	}

	// 初始化Kafka生产者
	reviewEventsProducer := queue.NewKafkaProducer(cfg.Kafka.Brokers, cfg.Kafka.Topics.ReviewEvents)
	defer reviewEventsProducer.Close()

	userEventsProducer := queue.NewKafkaProducer(cfg.Kafka.Brokers, cfg.Kafka.Topics.UserEvents)
	defer userEventsProducer.Close()

	// 初始化Kafka消费者
	reviewEventsConsumer := queue.NewKafkaConsumer(cfg.Kafka.Brokers, cfg.Kafka.Topics.ReviewEvents, "counter-worker-group")
	defer reviewEventsConsumer.Close()

	userEventsConsumer := queue.NewKafkaConsumer(cfg.Kafka.Brokers, cfg.Kafka.Topics.UserEvents, "counter-worker-group")
	defer userEventsConsumer.Close()

	// 初始化仓库
	userRepo := repository.NewUserRepository(db.DB)
	followRepo := repository.NewFollowRepository(db.DB)
	productRepo := repository.NewProductRepository(db.DB)
	reviewRepo := repository.NewReviewRepository(db.DB)
	voteRepo := repository.NewVoteRepository(db.DB)
	commentRepo := repository.NewCommentRepository(db.DB)

	// 初始化服务
	mediaService := services.NewMediaService(store, &cfg.Storage, logger)
	statsService := services.NewStatsService(reviewRepo, redisClient, &cfg.Catalog, logger)
	userService := services.NewUserService(userRepo, followRepo, redisClient, userEventsProducer, &cfg.Guard, logger)
	reviewService := services.NewReviewService(reviewRepo, productRepo, mediaService, statsService, reviewEventsProducer, &cfg.Catalog, logger)
	voteService := services.NewVoteService(voteRepo, reviewRepo, reviewEventsProducer, logger)
	commentService := services.NewCommentService(commentRepo, reviewRepo, userRepo, reviewEventsProducer, logger)
	searchService := services.NewSearchService(productRepo, reviewRepo, statsService, &cfg.Catalog, logger)

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
	go func() {
		if err := counterWorker.Start(ctx); err != nil {
			logger.WithError(err).Error("Counter worker stopped with error")
		}
	}()

	// 初始化处理器
	jwtExpireSeconds := int64(cfg.JWT.ExpireTime.Seconds())
	userHandler := handlers.NewUserHandler(userService, mediaService, cfg.JWT.Secret, jwtExpireSeconds)
	reviewHandler := handlers.NewReviewHandler(reviewService, voteService, commentService)
	searchHandler := handlers.NewSearchHandler(searchService)

	// 设置Gin模式
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// 创建路由
	router := gin.New()
	router.Use(gin.Recovery())

	// 添加CORS中间件
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	// 健康检查
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "healthy",
			"time":   time.Now().Unix(),
		})
	})

	// 上传的图片通过本地目录直接对外
	router.Static("/uploads", store.Dir())

	jwtAuth := middleware.NewJWTAuth(&middleware.JWTConfig{Secret: cfg.JWT.Secret})
	optionalAuth := middleware.NewOptionalJWTAuth(&middleware.JWTConfig{Secret: cfg.JWT.Secret})
	profileGate := middleware.NewProfileGate(userService, &cfg.Guard, logger)

	// API路由
	api := router.Group("/api/v1")
	{
		// 公开路由
		api.POST("/auth/register", userHandler.Register)
		api.POST("/auth/login", userHandler.Login)

		api.GET("/search", searchHandler.Search)
		api.GET("/search/suggest", searchHandler.Suggest)

		api.GET("/reviews", reviewHandler.Explore)
		api.GET("/reviews/:id", reviewHandler.GetReview)
		api.GET("/reviews/:id/comments", reviewHandler.ListComments)

		api.GET("/products/trending", reviewHandler.TrendingProducts)
		api.GET("/products/:id", reviewHandler.GetProduct)
		api.GET("/products/:id/reviews", reviewHandler.ProductReviews)

		api.GET("/users/:id/reviews", reviewHandler.UserReviews)
		api.GET("/users/:id/followers", userHandler.GetFollowers)
		api.GET("/users/:id/following", userHandler.GetFollowing)
		api.GET("/profiles/:username", optionalAuth, userHandler.GetProfile)

		// 登录即可，资料未补全也放行
		authed := api.Group("")
		authed.Use(jwtAuth)
		{
			authed.GET("/me", userHandler.GetMe)
			authed.POST("/me/complete-profile", userHandler.CompleteProfile)
			authed.PUT("/me/profile", userHandler.UpdateProfile)
			authed.POST("/me/avatar", userHandler.UploadAvatar)
		}

		// 写操作要求资料已补全
		gated := api.Group("")
		gated.Use(jwtAuth, profileGate)
		{
			gated.POST("/reviews", reviewHandler.CreateReview)
			gated.DELETE("/reviews/:id", reviewHandler.DeleteReview)
			gated.POST("/reviews/:id/vote", reviewHandler.Vote)
			gated.GET("/reviews/:id/vote", reviewHandler.GetUserVote)
			gated.POST("/reviews/:id/comments", reviewHandler.AddComment)
			gated.DELETE("/comments/:id", reviewHandler.DeleteComment)
			gated.POST("/users/:id/follow", userHandler.Follow)
			gated.DELETE("/users/:id/follow", userHandler.Unfollow)
		}
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

	if err := counterWorker.Stop(); err != nil {
		logger.WithError(err).Error("Failed to stop counter worker")
	}

	logger.Info("Server exited")
}
