package app

import (
	"context"
	"fmt"

	"go-leavedesk/internal/config"
	"go-leavedesk/internal/messaging/kafka"
	"go-leavedesk/internal/messaging/kafka/producer"
	"go-leavedesk/internal/shared/connection"

	"go.uber.org/zap"
)

// RunWorker relays outbox rows to kafka until ctx is cancelled.
func RunWorker(ctx context.Context, cfg config.Config) error {
	logger := zap.L().Named("app.worker")

	db, err := OpenDatabase(cfg)
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	if err := Migrate(db); err != nil {
		return err
	}

	if cfg.Kafka.Broker == "" {
		return fmt.Errorf("KAFKA_BROKER is required")
	}

	kafkaWriter, err := connection.ConnectKafkaWithRetry(cfg.Kafka.Broker, cfg.DB.MaxRetries)
	if err != nil {
		return err
	}
	defer kafkaWriter.Close()

	producer.ProcessOutboxEvents(
		ctx,
		kafka.NewOutboxRepository(db),
		kafkaWriter,
		logger,
		cfg.Kafka.OutboxPollInterval,
	)

	logger.Info("worker shutting down")
	return nil
}
