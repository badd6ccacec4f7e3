package consumer

import (
	"context"
	"encoding/json"
	"errors"

	"go-leavedesk/internal/events"
	"go-leavedesk/internal/shared/apperror"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type MessageReader interface {
	FetchMessage(ctx context.Context) (kafkago.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafkago.Message) error
}

type EmployeeLifecycleHandler interface {
	HandleEmployeeLifecycle(ctx context.Context, evt events.EmployeeLifecycleEvent) error
}

// ConsumeEmployeeLifecycle applies directory events to balance ledgers until
// ctx is cancelled. Messages are committed once handled; infrastructure
// failures leave the message uncommitted so it is redelivered.
func ConsumeEmployeeLifecycle(
	ctx context.Context,
	reader MessageReader,
	handler EmployeeLifecycleHandler,
	logger *zap.Logger,
) {
	log := logger.Named("kafka.consumer.employee_lifecycle")
	log.Info("employee lifecycle consumer started")

	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Info("employee lifecycle consumer stopped")
				return
			}
			log.Error("fetch employee lifecycle message failed", zap.Error(err))
			continue
		}

		var event events.EmployeeLifecycleEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			log.Error("decode employee lifecycle event failed", zap.Int64("offset", msg.Offset), zap.Error(err))
			_ = reader.CommitMessages(ctx, msg)
			continue
		}

		if err := handler.HandleEmployeeLifecycle(ctx, event); err != nil {
			var appErr *apperror.AppError
			if !errors.As(err, &appErr) || appErr.HTTPStatus >= 500 {
				log.Error("apply employee lifecycle event failed",
					zap.String("event_type", event.EventType),
					zap.String("employee_id", event.EmployeeID),
					zap.Error(err),
				)
				continue
			}
			log.Warn("employee lifecycle event rejected, skipping",
				zap.String("event_type", event.EventType),
				zap.String("employee_id", event.EmployeeID),
				zap.Error(err),
			)
		}

		if err := reader.CommitMessages(ctx, msg); err != nil {
			log.Error("commit employee lifecycle message failed", zap.Error(err))
			continue
		}

		log.Info("employee lifecycle event handled",
			zap.String("event_type", event.EventType),
			zap.String("employee_id", event.EmployeeID),
		)
	}
}
