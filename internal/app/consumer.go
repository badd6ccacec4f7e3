package app

import (
	"context"
	"fmt"

	"go-leavedesk/internal/balance"
	"go-leavedesk/internal/config"
	"go-leavedesk/internal/events"
	"go-leavedesk/internal/messaging/kafka/consumer"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// RunConsumer provisions and resizes balance ledgers from directory events
// until ctx is cancelled.
func RunConsumer(ctx context.Context, cfg config.Config) error {
	logger := zap.L().Named("app.consumer")

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

	rdb, err := OpenRedis(cfg, logger)
	if err != nil {
		return err
	}
	if rdb != nil {
		defer rdb.Close()
	}

	keeper := balance.NewKeeper(balance.NewRepository(db), balance.DefaultPolicyTable(), logger)
	profileSync := balance.NewProfileSync(
		newRunner(db, cfg, logger),
		keeper,
		balance.NewCache(rdb, balanceCacheTTL, logger),
		logger,
	)

	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:        []string{cfg.Kafka.Broker},
		Topic:          events.EmployeeLifecycleTopic,
		GroupID:        cfg.Kafka.ConsumerGroupID,
		CommitInterval: 0,
		StartOffset:    kafkago.FirstOffset,
	})
	defer reader.Close()

	consumer.ConsumeEmployeeLifecycle(ctx, reader, profileSync, logger)

	logger.Info("consumer shutting down")
	return nil
}
