package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/deppfellow/carsales/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepo(db *fakeDB) *SaleRepository {
	return NewSaleRepository(db, nil, 0)
}

func TestCreateSale_CreatesReferencesOnce(t *testing.T) {
	db := newFakeDB()
	repo := newTestRepo(db)
	ctx := context.Background()

	firstID, err := repo.CreateSale(ctx, sampleInput())
	require.NoError(t, err)
	assert.Equal(t, 3, db.state.referenceRows())
	require.Contains(t, db.state.listings, firstID)

	secondID, err := repo.CreateSale(ctx, sampleInput())
	require.NoError(t, err)
	assert.NotEqual(t, firstID, secondID)
	assert.Equal(t, 3, db.state.referenceRows())
	assert.Len(t, db.state.listings, 2)

	first, second := db.state.listings[firstID], db.state.listings[secondID]
	assert.Equal(t, first.modelID, second.modelID)
	assert.Equal(t, first.fuelTypeID, second.fuelTypeID)
	assert.Equal(t, 2, db.commits)
}

func TestCreateSale_ModelScopedByManufacturer(t *testing.T) {
	db := newFakeDB()
	repo := newTestRepo(db)
	ctx := context.Background()

	in := sampleInput()
	_, err := repo.CreateSale(ctx, in)
	require.NoError(t, err)

	in.Manufacturer = "Toyota Europe"
	_, err = repo.CreateSale(ctx, in)
	require.NoError(t, err)

	assert.Len(t, db.state.manufacturers, 2)
	assert.Len(t, db.state.models, 2)
	assert.Len(t, db.state.fuelTypes, 1)
}

func TestCreateSale_ResolvesInOrder(t *testing.T) {
	db := newFakeDB()
	_, err := newTestRepo(db).CreateSale(context.Background(), sampleInput())
	require.NoError(t, err)

	var sqls []string
	for _, q := range db.queries {
		sqls = append(sqls, q.sql)
	}
	assert.Equal(t, []string{
		manufacturerRef.selectSQL,
		manufacturerRef.insertSQL,
		modelRef.selectSQL,
		modelRef.insertSQL,
		fuelTypeRef.selectSQL,
		fuelTypeRef.insertSQL,
		insertSaleSQL,
	}, sqls)
}

func TestCreateSale_FailureRollsBackReferences(t *testing.T) {
	db := newFakeDB()
	storeErr := errors.New("connection reset")
	db.failSQL = insertSaleSQL
	db.failErr = storeErr

	id, err := newTestRepo(db).CreateSale(context.Background(), sampleInput())

	require.ErrorIs(t, err, storeErr)
	assert.Zero(t, id)
	assert.Zero(t, db.state.referenceRows())
	assert.Empty(t, db.state.listings)
	assert.Equal(t, 1, db.rollbacks)
	assert.Zero(t, db.commits)
}

func TestCreateSale_ResolverLookupError(t *testing.T) {
	db := newFakeDB()
	storeErr := errors.New("lookup broke")
	db.failSQL = fuelTypeRef.selectSQL
	db.failErr = storeErr

	_, err := newTestRepo(db).CreateSale(context.Background(), sampleInput())

	require.ErrorIs(t, err, storeErr)
	assert.Contains(t, err.Error(), "lookup fuel type")
	assert.Zero(t, db.state.referenceRows())
}

func TestCreateSale_BeginError(t *testing.T) {
	db := newFakeDB()
	db.beginErr = errors.New("pool exhausted")

	_, err := newTestRepo(db).CreateSale(context.Background(), sampleInput())

	require.ErrorIs(t, err, db.beginErr)
	assert.Empty(t, db.queries)
}

func TestUpdateSale_MissingCreatesNoReferences(t *testing.T) {
	db := newFakeDB()

	updated, err := newTestRepo(db).UpdateSale(context.Background(), 42, sampleInput())

	require.NoError(t, err)
	assert.False(t, updated)
	assert.Zero(t, db.state.referenceRows())
	require.Len(t, db.queries, 1)
	assert.Equal(t, lockSaleSQL, db.queries[0].sql)
	assert.Equal(t, 1, db.rollbacks)
}

func TestUpdateSale_ReplacesColumns(t *testing.T) {
	db := newFakeDB()
	repo := newTestRepo(db)
	ctx := context.Background()

	id, err := repo.CreateSale(ctx, sampleInput())
	require.NoError(t, err)

	in := sampleInput()
	in.Model = "Yaris"
	in.FuelType = "Hybrid"
	in.Year = 2022
	in.Mileage = nil
	in.Price = decimal.RequireFromString("18500.50")

	updated, err := repo.UpdateSale(ctx, id, in)
	require.NoError(t, err)
	assert.True(t, updated)

	row := db.state.listings[id]
	assert.Equal(t, db.state.models[modelKey{db.state.manufacturers["Toyota"], "Yaris"}], row.modelID)
	assert.Equal(t, db.state.fuelTypes["Hybrid"], row.fuelTypeID)
	assert.Equal(t, 2022, row.year)
	assert.Nil(t, row.mileage)
	assert.True(t, row.price.Equal(decimal.RequireFromString("18500.5")))
	assert.Len(t, db.state.manufacturers, 1)
}

func TestUpdateSale_StoreErrorPropagates(t *testing.T) {
	db := newFakeDB()
	repo := newTestRepo(db)
	ctx := context.Background()

	id, err := repo.CreateSale(ctx, sampleInput())
	require.NoError(t, err)

	storeErr := errors.New("deadlock detected")
	db.failSQL = updateSaleSQL
	db.failErr = storeErr

	in := sampleInput()
	in.FuelType = "Electric"
	updated, err := repo.UpdateSale(ctx, id, in)

	require.ErrorIs(t, err, storeErr)
	assert.False(t, updated)
	assert.NotContains(t, db.state.fuelTypes, "Electric")
}

func TestDeleteSale_Twice(t *testing.T) {
	db := newFakeDB()
	repo := newTestRepo(db)
	ctx := context.Background()

	id, err := repo.CreateSale(ctx, sampleInput())
	require.NoError(t, err)

	removed, err := repo.DeleteSale(ctx, id)
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = repo.DeleteSale(ctx, id)
	require.NoError(t, err)
	assert.False(t, removed)

	assert.Equal(t, 3, db.state.referenceRows())
}

func TestDeleteSale_StoreError(t *testing.T) {
	db := newFakeDB()
	db.failSQL = deleteSaleSQL
	db.failErr = errors.New("read only transaction")

	removed, err := newTestRepo(db).DeleteSale(context.Background(), 1)

	require.ErrorIs(t, err, db.failErr)
	assert.False(t, removed)
	assert.Equal(t, 1, db.rollbacks)
}

func TestDeleteSale_CommitError(t *testing.T) {
	db := newFakeDB()
	db.commitErr = errors.New("serialization failure")

	_, err := newTestRepo(db).DeleteSale(context.Background(), 1)

	require.ErrorIs(t, err, db.commitErr)
	assert.Contains(t, err.Error(), "commit transaction")
}

func TestGetSale(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		db := newFakeDB()
		db.getRow = []any{
			int64(7), "Toyota", "Corolla", decimal.RequireFromString("2.00"),
			"Petrol", 2020, 50000, decimal.RequireFromString("15000.00"),
		}

		sale, err := newTestRepo(db).GetSale(context.Background(), 7)

		require.NoError(t, err)
		require.NotNil(t, sale)
		assert.Equal(t, int64(7), sale.ID)
		assert.Equal(t, "Corolla", sale.Model)
		require.NotNil(t, sale.Mileage)
		assert.Equal(t, 50000, *sale.Mileage)
		assert.Equal(t, "15000.00", sale.Price.StringFixed(2))
		assert.Equal(t, []any{int64(7)}, db.queries[0].args)
	})

	t.Run("missing", func(t *testing.T) {
		db := newFakeDB()
		db.getErr = pgx.ErrNoRows

		sale, err := newTestRepo(db).GetSale(context.Background(), 7)

		require.NoError(t, err)
		assert.Nil(t, sale)
	})

	t.Run("store error", func(t *testing.T) {
		db := newFakeDB()
		db.getErr = errors.New("timeout")

		sale, err := newTestRepo(db).GetSale(context.Background(), 7)

		require.ErrorIs(t, err, db.getErr)
		assert.Nil(t, sale)
	})
}

func TestListSales(t *testing.T) {
	db := newFakeDB()
	db.countResult = 51
	db.listRows = [][]any{
		{int64(26), "Ford", "Focus", decimal.RequireFromString("1.60"), "Diesel", 2018, nil, decimal.RequireFromString("9000.00")},
		{int64(27), "Ford", "Fiesta", decimal.RequireFromString("1.00"), "Petrol", 2021, 12000, decimal.RequireFromString("13250.00")},
	}

	f := model.NewSalesFilter()
	f.Page = 2
	f.PageSize = 25
	f.Manufacturer = "ford"

	res, err := newTestRepo(db).ListSales(context.Background(), f)

	require.NoError(t, err)
	assert.Equal(t, 2, res.Page)
	assert.Equal(t, 25, res.PageSize)
	assert.Equal(t, 51, res.TotalCount)
	assert.Equal(t, 3, res.TotalPages)
	require.Len(t, res.Items, 2)
	assert.Nil(t, res.Items[0].Mileage)
	assert.Equal(t, "Fiesta", res.Items[1].Model)
	assert.True(t, db.lastRows.closed)

	require.Len(t, db.queries, 2)
	assert.Equal(t, []any{"%ford%"}, db.queries[0].args)
	assert.Equal(t, []any{"%ford%", 25, 25}, db.queries[1].args)
}

func TestListSales_ClampsPaging(t *testing.T) {
	db := newFakeDB()

	f := model.NewSalesFilter()
	f.Page = 0
	f.PageSize = 5000
	f.SortBy = "nonsense"

	res, err := newTestRepo(db).ListSales(context.Background(), f)

	require.NoError(t, err)
	assert.Equal(t, 1, res.Page)
	assert.Equal(t, 200, res.PageSize)
	assert.NotNil(t, res.Items)
	assert.Contains(t, db.queries[1].sql, "ORDER BY l.listing_id ASC")
}

func TestListSales_Errors(t *testing.T) {
	t.Run("count", func(t *testing.T) {
		db := newFakeDB()
		db.countErr = errors.New("boom")

		_, err := newTestRepo(db).ListSales(context.Background(), model.NewSalesFilter())
		require.ErrorIs(t, err, db.countErr)
	})

	t.Run("query", func(t *testing.T) {
		db := newFakeDB()
		db.listErr = errors.New("boom")

		_, err := newTestRepo(db).ListSales(context.Background(), model.NewSalesFilter())
		require.ErrorIs(t, err, db.listErr)
	})
}
