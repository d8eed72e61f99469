package job

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/deppfellow/carsales/internal/config"
	"github.com/deppfellow/carsales/internal/lib/email"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
)

type saleMailer interface {
	SendSaleChangedEmail(ctx context.Context, to string, data email.SaleChangedData) error
}

// InitHandlers wires the dependencies of the task handlers. It must run
// before Start.
func (j *JobService) InitHandlers(cfg *config.Config, logger *zerolog.Logger) {
	j.mailer = email.NewClient(cfg, logger)
	j.recipient = cfg.Notifications.EmailTo
}

func (j *JobService) handleSaleChangedTask(ctx context.Context, t *asynq.Task) error {
	var p SaleChangedPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("failed to unmarshal sale changed payload: %w: %w", err, asynq.SkipRetry)
	}

	log := j.logger.With().
		Str("type", TaskSaleChanged).
		Str("action", p.Action).
		Int64("sale_id", p.SaleID).
		Logger()

	if j.mailer == nil || j.recipient == "" {
		log.Warn().Msg("sale changed task dropped, notifications are not configured")
		return nil
	}

	err := j.mailer.SendSaleChangedEmail(ctx, j.recipient, email.SaleChangedData{
		Action:       p.Action,
		SaleID:       p.SaleID,
		Manufacturer: p.Manufacturer,
		Model:        p.Model,
		Price:        p.Price,
		OccurredAt:   p.OccurredAt.UTC().Format(time.RFC3339),
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to send sale changed email")
		return err
	}

	log.Info().Msg("sent sale changed email")
	return nil
}
