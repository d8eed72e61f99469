package service

import (
	"context"
	"fmt"
	"time"

	"github.com/deppfellow/carsales/internal/lib/job"
	"github.com/deppfellow/carsales/internal/model"
	"github.com/deppfellow/carsales/internal/validation"
	"github.com/rs/zerolog"
)

const notifyTimeout = 3 * time.Second

// SaleStore is the persistence the sale service needs. It is implemented
// by *repository.SaleRepository.
type SaleStore interface {
	ListSales(ctx context.Context, f model.SalesFilter) (model.PagedResult[model.SaleView], error)
	GetSale(ctx context.Context, id int64) (*model.SaleView, error)
	CreateSale(ctx context.Context, in model.SaleInput) (int64, error)
	UpdateSale(ctx context.Context, id int64, in model.SaleInput) (bool, error)
	DeleteSale(ctx context.Context, id int64) (bool, error)
}

// Notifier publishes committed sale changes.
type Notifier interface {
	NotifySaleChanged(ctx context.Context, p job.SaleChangedPayload) error
}

// NopNotifier drops every notification.
type NopNotifier struct{}

func (NopNotifier) NotifySaleChanged(context.Context, job.SaleChangedPayload) error { return nil }

type SaleService struct {
	store    SaleStore
	notifier Notifier
	logger   *zerolog.Logger
	now      func() time.Time
}

func NewSaleService(store SaleStore, notifier Notifier, logger *zerolog.Logger) *SaleService {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &SaleService{
		store:    store,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *SaleService) ListSales(ctx context.Context, f model.SalesFilter) (model.PagedResult[model.SaleView], error) {
	return s.store.ListSales(ctx, f)
}

// GetSale returns nil without an error when the sale does not exist.
func (s *SaleService) GetSale(ctx context.Context, id int64) (*model.SaleView, error) {
	return s.store.GetSale(ctx, id)
}

// CreateSale validates in, stores it and returns the stored view.
func (s *SaleService) CreateSale(ctx context.Context, in model.SaleInput) (*model.SaleView, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	id, err := s.store.CreateSale(ctx, in)
	if err != nil {
		return nil, err
	}

	s.notify(ctx, job.ActionCreated, id, &in)

	sale, err := s.store.GetSale(ctx, id)
	if err != nil {
		return nil, err
	}
	if sale == nil {
		return nil, fmt.Errorf("sale %d vanished after create", id)
	}
	return sale, nil
}

// UpdateSale validates in and replaces the sale. It reports false when the
// sale does not exist.
func (s *SaleService) UpdateSale(ctx context.Context, id int64, in model.SaleInput) (bool, error) {
	if err := validation.Struct(in); err != nil {
		return false, err
	}

	updated, err := s.store.UpdateSale(ctx, id, in)
	if err != nil || !updated {
		return false, err
	}

	s.notify(ctx, job.ActionUpdated, id, &in)
	return true, nil
}

// DeleteSale reports whether a sale was removed.
func (s *SaleService) DeleteSale(ctx context.Context, id int64) (bool, error) {
	removed, err := s.store.DeleteSale(ctx, id)
	if err != nil || !removed {
		return false, err
	}

	s.notify(ctx, job.ActionDeleted, id, nil)
	return true, nil
}

// notify runs after commit. A failure is logged and never fails the write.
func (s *SaleService) notify(ctx context.Context, action string, id int64, in *model.SaleInput) {
	p := job.SaleChangedPayload{
		Action:     action,
		SaleID:     id,
		OccurredAt: s.now().UTC(),
	}
	if in != nil {
		p.Manufacturer = in.Manufacturer
		p.Model = in.Model
		p.Price = in.Price.StringFixed(2)
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()

	if err := s.notifier.NotifySaleChanged(ctx, p); err != nil {
		log := zerolog.Ctx(ctx)
		if log.GetLevel() == zerolog.Disabled {
			log = s.logger
		}
		log.Error().
			Err(err).
			Str("action", action).
			Int64("sale_id", id).
			Msg("failed to publish sale change")
	}
}
