package main

import (
	"context"
	"errors"
	"log"
	"os/signal"
	"syscall"

	"github.com/2am33m/kinect/internal/config"
	"github.com/2am33m/kinect/internal/repository"
	"github.com/2am33m/kinect/internal/services"
	"github.com/2am33m/kinect/internal/workers"
	"github.com/2am33m/kinect/pkg/logger"
	"github.com/2am33m/kinect/pkg/queue"
	"github.com/hashicorp/go-multierror"
)

func main() {
	// 加载配置
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := logger.NewLogger(cfg.Log.Level)
	logger.Info("Starting Kinect notification worker...")

	db, err := repository.NewDatabase(&cfg.Database)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to database")
	}

	consumer := queue.NewKafkaConsumer(cfg.Kafka.Brokers, cfg.Kafka.Topics.Events, cfg.Kafka.GroupID, logger.Logger)

	notificationService := services.NewNotificationService(
		repository.NewNotificationRepository(db.DB),
		repository.NewFollowRepository(db.DB),
		logger,
	)
	worker := workers.NewNotificationWorker(notificationService, consumer, logger)

	// 收到信号后取消 ctx，Subscribe 随之返回
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := worker.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.WithError(err).Error("Notification worker stopped with error")
	}

	logger.Info("Shutting down worker...")

	var result *multierror.Error
	if err := worker.Stop(); err != nil {
		result = multierror.Append(result, err)
	}
	if err := db.Close(); err != nil {
		result = multierror.Append(result, err)
	}
	if err := result.ErrorOrNil(); err != nil {
		logger.WithError(err).Error("Worker shutdown with errors")
	}

	logger.Info("Worker exited")
}
