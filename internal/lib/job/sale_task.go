package job

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

// TaskSaleChanged is the task type of a committed sale write.
const TaskSaleChanged = "sale:changed"

// Sale change actions.
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

// SaleChangedPayload is the JSON payload of a TaskSaleChanged task.
// Manufacturer, Model and Price are empty for deletions.
type SaleChangedPayload struct {
	Action       string    `json:"action"`
	SaleID       int64     `json:"sale_id"`
	Manufacturer string    `json:"manufacturer,omitempty"`
	Model        string    `json:"model,omitempty"`
	Price        string    `json:"price,omitempty"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// NewSaleChangedTask builds the task for p. Notifications are retried three
// times on the low priority queue.
func NewSaleChangedTask(p SaleChangedPayload) (*asynq.Task, error) {
	payload, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(
		TaskSaleChanged,
		payload,
		asynq.MaxRetry(3),
		asynq.Queue("low"),
		asynq.Timeout(30*time.Second),
	), nil
}

// NotifySaleChanged enqueues a TaskSaleChanged task.
func (j *JobService) NotifySaleChanged(ctx context.Context, p SaleChangedPayload) error {
	task, err := NewSaleChangedTask(p)
	if err != nil {
		return fmt.Errorf("failed to build sale changed task: %w", err)
	}

	info, err := j.Client.EnqueueContext(ctx, task)
	if err != nil {
		return fmt.Errorf("failed to enqueue sale changed task: %w", err)
	}

	j.logger.Debug().
		Str("task_id", info.ID).
		Str("queue", info.Queue).
		Int64("sale_id", p.SaleID).
		Msg("sale changed task enqueued")
	return nil
}
