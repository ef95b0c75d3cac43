package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/2am33m/kinect/internal/config"
	"github.com/2am33m/kinect/internal/handlers"
	"github.com/2am33m/kinect/internal/middleware"
	"github.com/2am33m/kinect/internal/repository"
	"github.com/2am33m/kinect/internal/services"
	"github.com/2am33m/kinect/pkg/cache"
	"github.com/2am33m/kinect/pkg/logger"
	"github.com/2am33m/kinect/pkg/queue"
	"github.com/2am33m/kinect/pkg/tracing"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/hashicorp/go-multierror"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

func main() {
	// 加载配置
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := logger.NewLogger(cfg.Log.Level)
	logger.Info("Starting Kinect API server...")

	ctx := context.Background()

	shutdownTracing, err := tracing.Init(ctx, &cfg.Tracing)
	if err != nil {
		logger.WithError(err).Fatal("Failed to init tracing")
	}

	db, err := repository.NewDatabase(&cfg.Database)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to database")
	}

	if err := db.AutoMigrate(); err != nil {
		logger.WithError(err).Fatal("Failed to migrate database")
	}

	redisClient := cache.NewRedisClient(
		cfg.Redis.Addr(),
		cfg.Redis.Password,
		cfg.Redis.DB,
		cfg.Redis.PoolSize,
		cfg.Redis.MinIdleConns,
		logger.Logger,
	)

	// Redis 不可用时主页计数直接查库
	if err := redisClient.Ping(ctx); err != nil {
		logger.WithError(err).Warn("Redis unavailable, profile stats cache degraded")
	}

	producer := queue.NewKafkaProducer(cfg.Kafka.Brokers, cfg.Kafka.Topics.Events, cfg.Kafka.PublishTimeout)

	// 初始化仓库
	userRepo := repository.NewUserRepository(db.DB)
	photoRepo := repository.NewPhotoRepository(db.DB)
	followRepo := repository.NewFollowRepository(db.DB)
	notificationRepo := repository.NewNotificationRepository(db.DB)

	// 初始化服务
	stats := services.NewStatsCache(redisClient, cfg.Redis.ProfileTTL, logger)
	userService := services.NewUserService(userRepo, producer, logger)
	photoService := services.NewPhotoService(photoRepo, userRepo, producer, logger)
	followService := services.NewFollowService(followRepo, userRepo, stats, producer, logger)
	feedService := services.NewFeedService(photoService, followService, userRepo, logger)
	profileService := services.NewProfileService(userService, photoService, followService, stats, logger)
	notificationService := services.NewNotificationService(notificationRepo, followRepo, logger)

	h := &handlers.Handlers{
		User:         handlers.NewUserHandler(userService, followService, profileService, cfg.JWT.Secret, cfg.JWT.ExpireTime),
		Photo:        handlers.NewPhotoHandler(photoService),
		Feed:         handlers.NewFeedHandler(feedService),
		Notification: handlers.NewNotificationHandler(notificationService),
	}

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(cfg.Tracing.ServiceName))
	router.Use(gzip.Gzip(gzip.DefaultCompression))
	router.Use(middleware.RequestLogger(logger))
	router.Use(middleware.NewIPRateLimiter(cfg.Server.RateLimit.RPS, cfg.Server.RateLimit.Burst).Middleware())

	// CORS
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "healthy",
			"time":   time.Now().Unix(),
		})
	})

	h.RegisterRoutes(router.Group("/api/v1"), &middleware.JWTConfig{Secret: cfg.JWT.Secret})

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

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

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var result *multierror.Error
	if err := srv.Shutdown(shutdownCtx); err != nil {
		result = multierror.Append(result, err)
	}
	if err := producer.Close(); err != nil {
		result = multierror.Append(result, err)
	}
	if err := redisClient.Close(); err != nil {
		result = multierror.Append(result, err)
	}
	if err := db.Close(); err != nil {
		result = multierror.Append(result, err)
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		result = multierror.Append(result, err)
	}
	if err := result.ErrorOrNil(); err != nil {
		logger.WithError(err).Error("Server shutdown with errors")
	}

	logger.Info("Server exited")
}

func init() {
	if err := os.MkdirAll("configs", 0755); err != nil {
		log.Printf("Failed to create configs directory: %v", err)
	}

	// 创建默认配置文件（如果不存在）
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := os.WriteFile(configPath, []byte(defaultConfig), 0644); err != nil {
			log.Printf("Failed to create default config: %v", err)
		}
	}
}

const defaultConfig = `server:
  port: ":8080"
  mode: "debug"
  read_timeout: 30s
  write_timeout: 30s
  rate_limit:
    rps: 20
    burst: 50

database:
  host: "localhost"
  port: 5432
  user: "kinect"
  password: "kinect"
  dbname: "kinect"
  sslmode: "disable"
  max_open_conns: 50
  max_idle_conns: 10
  log_level: "warn"

redis:
  host: "localhost"
  port: 6379
  password: ""
  db: 0
  pool_size: 50
  min_idle_conns: 5
  profile_ttl: 5m

kafka:
  brokers:
    - "localhost:9092"
  topics:
    events: "kinect-events"
  group_id: "kinect-notification-worker"
  publish_timeout: 2s

jwt:
  secret: "change-me-in-production"
  expire_time: 24h

log:
  level: "info"

tracing:
  enabled: false
  endpoint: "localhost:4318"
  service_name: "kinect-api"
  sample_ratio: 1.0
`
