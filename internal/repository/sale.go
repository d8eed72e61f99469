package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/deppfellow/carsales/internal/database"
	"github.com/deppfellow/carsales/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// DB is the subset of *pgxpool.Pool the sale repository uses.
type DB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// errSaleNotFound aborts an update transaction whose target row is gone.
// It never leaves the repository.
var errSaleNotFound = errors.New("sale not found")

const (
	getSaleSQL = saleColumns + salesFrom + "\nWHERE l.listing_id = $1"

	lockSaleSQL = `SELECT 1 FROM listings WHERE listing_id = $1 FOR UPDATE`

	insertSaleSQL = `
INSERT INTO listings (model_id, fuel_type_id, engine_size, year, mileage, price)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING listing_id`

	updateSaleSQL = `
UPDATE listings
SET model_id = $2, fuel_type_id = $3, engine_size = $4, year = $5, mileage = $6, price = $7
WHERE listing_id = $1`

	deleteSaleSQL = `DELETE FROM listings WHERE listing_id = $1`
)

// SaleRepository reads and writes car sale listings.
//
// Reads run directly on the pool. Every write runs in one transaction that
// covers reference resolution and the listing mutation.
type SaleRepository struct {
	db            DB
	log           *zerolog.Logger
	slowThreshold time.Duration
}

// NewSaleRepository creates a SaleRepository. A zero slowThreshold turns
// off slow list query warnings.
func NewSaleRepository(db DB, log *zerolog.Logger, slowThreshold time.Duration) *SaleRepository {
	if log == nil {
		nop := zerolog.Nop()
		log = &nop
	}
	return &SaleRepository{db: db, log: log, slowThreshold: slowThreshold}
}

// loggerFrom prefers the request logger stored on ctx.
func loggerFrom(ctx context.Context, fallback *zerolog.Logger) *zerolog.Logger {
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		return l
	}
	if fallback != nil {
		return fallback
	}
	nop := zerolog.Nop()
	return &nop
}

func scanSale(row pgx.Row) (model.SaleView, error) {
	var s model.SaleView
	err := row.Scan(
		&s.ID,
		&s.Manufacturer,
		&s.Model,
		&s.EngineSize,
		&s.FuelType,
		&s.Year,
		&s.Mileage,
		&s.Price,
	)
	return s, err
}

// ListSales returns one page of sales matching f with the total match count.
// Out of range paging and unknown sort keys are normalised, never rejected.
//
// The count and the page are separate statements, so concurrent writes may
// make them disagree.
func (r *SaleRepository) ListSales(ctx context.Context, f model.SalesFilter) (model.PagedResult[model.SaleView], error) {
	q := buildSalesQuery(f)
	log := loggerFrom(ctx, r.log)
	start := time.Now()

	var total int
	if err := r.db.QueryRow(ctx, q.countSQL, q.countArgs...).Scan(&total); err != nil {
		return model.PagedResult[model.SaleView]{}, fmt.Errorf("count sales: %w", err)
	}

	rows, err := r.db.Query(ctx, q.dataSQL, q.dataArgs...)
	if err != nil {
		return model.PagedResult[model.SaleView]{}, fmt.Errorf("list sales: %w", err)
	}
	defer rows.Close()

	sales := make([]model.SaleView, 0, q.pageSize)
	for rows.Next() {
		s, err := scanSale(rows)
		if err != nil {
			return model.PagedResult[model.SaleView]{}, fmt.Errorf("scan sale: %w", err)
		}
		sales = append(sales, s)
	}
	if err := rows.Err(); err != nil {
		return model.PagedResult[model.SaleView]{}, fmt.Errorf("iterate sales: %w", err)
	}

	elapsed := time.Since(start)
	event := log.Debug()
	if r.slowThreshold > 0 && elapsed > r.slowThreshold {
		event = log.Warn()
	}
	event.
		Str("sort_column", q.sortBy).
		Str("sort_dir", q.sortDir).
		Int("page", q.page).
		Int("page_size", q.pageSize).
		Int("total", total).
		Dur("elapsed", elapsed).
		Msg("listed sales")

	return model.NewPagedResult(sales, q.page, q.pageSize, total), nil
}

// GetSale returns the sale with the given id, or nil when it does not exist.
func (r *SaleRepository) GetSale(ctx context.Context, id int64) (*model.SaleView, error) {
	s, err := scanSale(r.db.QueryRow(ctx, getSaleSQL, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get sale %d: %w", id, err)
	}
	return &s, nil
}

// CreateSale resolves the reference names and inserts the listing in one
// transaction, returning the new listing id.
func (r *SaleRepository) CreateSale(ctx context.Context, in model.SaleInput) (int64, error) {
	var id int64

	err := database.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		refs, err := resolveReferences(ctx, tx, in)
		if err != nil {
			return err
		}

		err = tx.QueryRow(ctx, insertSaleSQL,
			refs.modelID,
			refs.fuelTypeID,
			in.EngineSize,
			in.Year,
			in.Mileage,
			in.Price,
		).Scan(&id)
		if err != nil {
			return fmt.Errorf("insert sale: %w", err)
		}
		return nil
	})
	if err != nil {
		loggerFrom(ctx, r.log).Warn().Err(err).Msg("create sale rolled back")
		return 0, err
	}

	loggerFrom(ctx, r.log).Info().Int64("sale_id", id).Msg("sale created")
	return id, nil
}

// UpdateSale replaces every mutable column of the listing. It reports false
// without touching reference data when the listing does not exist.
func (r *SaleRepository) UpdateSale(ctx context.Context, id int64, in model.SaleInput) (bool, error) {
	var updated bool

	err := database.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		var one int
		if err := tx.QueryRow(ctx, lockSaleSQL, id).Scan(&one); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return errSaleNotFound
			}
			return fmt.Errorf("lock sale %d: %w", id, err)
		}

		refs, err := resolveReferences(ctx, tx, in)
		if err != nil {
			return err
		}

		tag, err := tx.Exec(ctx, updateSaleSQL,
			id,
			refs.modelID,
			refs.fuelTypeID,
			in.EngineSize,
			in.Year,
			in.Mileage,
			in.Price,
		)
		if err != nil {
			return fmt.Errorf("update sale %d: %w", id, err)
		}
		updated = tag.RowsAffected() > 0
		return nil
	})

	switch {
	case errors.Is(err, errSaleNotFound):
		return false, nil
	case err != nil:
		loggerFrom(ctx, r.log).Warn().Err(err).Int64("sale_id", id).Msg("update sale rolled back")
		return false, err
	}

	loggerFrom(ctx, r.log).Info().Int64("sale_id", id).Bool("updated", updated).Msg("sale updated")
	return updated, nil
}

// DeleteSale removes the listing and reports whether it existed. Reference
// rows are left in place.
func (r *SaleRepository) DeleteSale(ctx context.Context, id int64) (bool, error) {
	var removed bool

	err := database.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, deleteSaleSQL, id)
		if err != nil {
			return fmt.Errorf("delete sale %d: %w", id, err)
		}
		removed = tag.RowsAffected() > 0
		return nil
	})
	if err != nil {
		loggerFrom(ctx, r.log).Warn().Err(err).Int64("sale_id", id).Msg("delete sale rolled back")
		return false, err
	}

	loggerFrom(ctx, r.log).Info().Int64("sale_id", id).Bool("removed", removed).Msg("sale deleted")
	return removed, nil
}
