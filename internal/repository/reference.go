package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/deppfellow/carsales/internal/model"
	"github.com/jackc/pgx/v5"
)

// referenceTable describes one get-or-create reference lookup.
type referenceTable struct {
	name      string
	selectSQL string
	insertSQL string
}

var (
	manufacturerRef = referenceTable{
		name:      "manufacturer",
		selectSQL: `SELECT manufacturer_id FROM manufacturers WHERE name = $1`,
		insertSQL: `INSERT INTO manufacturers (name) VALUES ($1) RETURNING manufacturer_id`,
	}
	modelRef = referenceTable{
		name:      "model",
		selectSQL: `SELECT model_id FROM models WHERE manufacturer_id = $1 AND name = $2`,
		insertSQL: `INSERT INTO models (manufacturer_id, name) VALUES ($1, $2) RETURNING model_id`,
	}
	fuelTypeRef = referenceTable{
		name:      "fuel type",
		selectSQL: `SELECT fuel_type_id FROM fuel_types WHERE name = $1`,
		insertSQL: `INSERT INTO fuel_types (name) VALUES ($1) RETURNING fuel_type_id`,
	}
)

// references holds the ids a listing row points at.
type references struct {
	manufacturerID int64
	modelID        int64
	fuelTypeID     int64
}

// getOrCreate returns the id matching args in ref, inserting a row when
// none exists. Both statements run on tx so the new row commits or rolls
// back together with the listing write.
func getOrCreate(ctx context.Context, tx pgx.Tx, ref referenceTable, args ...any) (int64, error) {
	var id int64

	err := tx.QueryRow(ctx, ref.selectSQL, args...).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("lookup %s: %w", ref.name, err)
	}

	if err := tx.QueryRow(ctx, ref.insertSQL, args...).Scan(&id); err != nil {
		return 0, fmt.Errorf("insert %s: %w", ref.name, err)
	}
	return id, nil
}

// resolveReferences resolves manufacturer, then model under that
// manufacturer, then fuel type.
func resolveReferences(ctx context.Context, tx pgx.Tx, in model.SaleInput) (references, error) {
	var refs references
	var err error

	if refs.manufacturerID, err = getOrCreate(ctx, tx, manufacturerRef, in.Manufacturer); err != nil {
		return references{}, err
	}
	if refs.modelID, err = getOrCreate(ctx, tx, modelRef, refs.manufacturerID, in.Model); err != nil {
		return references{}, err
	}
	if refs.fuelTypeID, err = getOrCreate(ctx, tx, fuelTypeRef, in.FuelType); err != nil {
		return references{}, err
	}

	loggerFrom(ctx, nil).Debug().
		Int64("manufacturer_id", refs.manufacturerID).
		Int64("model_id", refs.modelID).
		Int64("fuel_type_id", refs.fuelTypeID).
		Msg("resolved sale references")

	return refs, nil
}
