package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"

	"todo-api/internal/models"
	"todo-api/pkg/logger"
)

// Invalidator drops cached list pages for an owner.
type Invalidator interface {
	Invalidate(ctx context.Context, ownerID string)
}

// Run consumes todo events and invalidates the owner's cached pages a second
// time. The request path already invalidated on commit; this later pass
// removes a page that a concurrent reader cached from pre-commit rows.
// One consumer per process; replicas share partitions through the group.
func Run(ctx context.Context, brokers []string, topic string, inv Invalidator) {
	if len(brokers) == 0 {
		logger.Info(ctx, "Worker disabled (no Kafka brokers)")
		return
	}
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  "todo-cache-invalidators",
		MinBytes: 1,
		MaxBytes: 10e6,
	})
	defer reader.Close()

	logger.Info(ctx, "Kafka consumer started", "topic", topic)
	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Error(ctx, "Worker fetch failed", "error", err)
			continue
		}
		if err := handleMessage(ctx, msg.Value, inv); err != nil {
			// Commit anyway so a poison message cannot block the partition.
			logger.Error(ctx, "Worker handle failed", "error", err, "payload", string(msg.Value))
		}
		if err := reader.CommitMessages(ctx, msg); err != nil {
			logger.Error(ctx, "Worker commit failed", "error", err)
		}
	}
}

func handleMessage(ctx context.Context, payload []byte, inv Invalidator) error {
	var evt models.TodoEvent
	if err := json.Unmarshal(payload, &evt); err != nil {
		return fmt.Errorf("worker: decode event: %w", err)
	}
	switch evt.Type {
	case models.EventTodoCreated, models.EventTodoUpdated, models.EventTodoToggled, models.EventTodoDeleted:
	default:
		return nil
	}
	if evt.OwnerID == "" {
		return fmt.Errorf("worker: event %s without owner", evt.Type)
	}
	inv.Invalidate(ctx, evt.OwnerID)
	logger.Debug(ctx, "Todo event applied", "type", evt.Type, "todo_id", evt.TodoID, "owner_id", evt.OwnerID)
	return nil
}
