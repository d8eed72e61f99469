package repository

import (
	"context"
	"fmt"
	"maps"

	"github.com/deppfellow/carsales/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

// memStore is an in-memory copy of the sales schema used by fakeTx.
type memStore struct {
	nextID        int64
	manufacturers map[string]int64
	models        map[modelKey]int64
	fuelTypes     map[string]int64
	listings      map[int64]listingRow
}

type modelKey struct {
	manufacturerID int64
	name           string
}

type listingRow struct {
	modelID    int64
	fuelTypeID int64
	engineSize decimal.Decimal
	year       int
	mileage    *int
	price      decimal.Decimal
}

func newMemStore() *memStore {
	return &memStore{
		manufacturers: map[string]int64{},
		models:        map[modelKey]int64{},
		fuelTypes:     map[string]int64{},
		listings:      map[int64]listingRow{},
	}
}

func (m *memStore) clone() *memStore {
	return &memStore{
		nextID:        m.nextID,
		manufacturers: maps.Clone(m.manufacturers),
		models:        maps.Clone(m.models),
		fuelTypes:     maps.Clone(m.fuelTypes),
		listings:      maps.Clone(m.listings),
	}
}

func (m *memStore) newID() int64 {
	m.nextID++
	return m.nextID
}

func (m *memStore) referenceRows() int {
	return len(m.manufacturers) + len(m.models) + len(m.fuelTypes)
}

// fakeRow returns vals from Scan, or err.
type fakeRow struct {
	vals []any
	err  error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	if len(dest) != len(r.vals) {
		return fmt.Errorf("scan: %d targets for %d values", len(dest), len(r.vals))
	}
	for i := range dest {
		if err := assign(dest[i], r.vals[i]); err != nil {
			return err
		}
	}
	return nil
}

func assign(dest, val any) error {
	switch d := dest.(type) {
	case *int64:
		*d = val.(int64)
	case *int:
		*d = val.(int)
	case *string:
		*d = val.(string)
	case *decimal.Decimal:
		*d = val.(decimal.Decimal)
	case **int:
		if val == nil {
			*d = nil
			return nil
		}
		v := val.(int)
		*d = &v
	default:
		return fmt.Errorf("unsupported scan target %T", dest)
	}
	return nil
}

// fakeRows iterates over canned rows.
type fakeRows struct {
	pgx.Rows
	rows   [][]any
	pos    int
	err    error
	closed bool
}

func (r *fakeRows) Next() bool {
	if r.pos >= len(r.rows) {
		return false
	}
	r.pos++
	return true
}

func (r *fakeRows) Scan(dest ...any) error {
	return fakeRow{vals: r.rows[r.pos-1]}.Scan(dest...)
}

func (r *fakeRows) Err() error { return r.err }
func (r *fakeRows) Close()     { r.closed = true }

// fakeDB serves reads from canned results and hands out fakeTx values that
// work on a copy of state until they commit.
type fakeDB struct {
	state *memStore

	beginErr  error
	commitErr error
	failSQL   string
	failErr   error

	countResult int
	countErr    error
	listRows    [][]any
	listErr     error
	getRow      []any
	getErr      error

	queries   []recordedQuery
	commits   int
	rollbacks int
	lastRows  *fakeRows
}

type recordedQuery struct {
	sql  string
	args []any
}

func newFakeDB() *fakeDB {
	return &fakeDB{state: newMemStore()}
}

func (db *fakeDB) record(sql string, args []any) {
	db.queries = append(db.queries, recordedQuery{sql: sql, args: args})
}

func (db *fakeDB) Begin(context.Context) (pgx.Tx, error) {
	if db.beginErr != nil {
		return nil, db.beginErr
	}
	return &fakeTx{db: db, state: db.state.clone()}, nil
}

func (db *fakeDB) Query(_ context.Context, sql string, args ...any) (pgx.Rows, error) {
	db.record(sql, args)
	if db.listErr != nil {
		return nil, db.listErr
	}
	db.lastRows = &fakeRows{rows: db.listRows}
	return db.lastRows, nil
}

func (db *fakeDB) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	db.record(sql, args)
	if sql == getSaleSQL {
		if db.getErr != nil {
			return fakeRow{err: db.getErr}
		}
		return fakeRow{vals: db.getRow}
	}
	if db.countErr != nil {
		return fakeRow{err: db.countErr}
	}
	return fakeRow{vals: []any{db.countResult}}
}

// fakeTx interprets the repository's statements against its own memStore.
type fakeTx struct {
	pgx.Tx
	db    *fakeDB
	state *memStore
	done  bool
}

func (t *fakeTx) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	t.db.record(sql, args)
	if sql == t.db.failSQL {
		return fakeRow{err: t.db.failErr}
	}

	s := t.state
	lookup := func(id int64, ok bool) pgx.Row {
		if !ok {
			return fakeRow{err: pgx.ErrNoRows}
		}
		return fakeRow{vals: []any{id}}
	}

	switch sql {
	case manufacturerRef.selectSQL:
		id, ok := s.manufacturers[args[0].(string)]
		return lookup(id, ok)
	case manufacturerRef.insertSQL:
		id := s.newID()
		s.manufacturers[args[0].(string)] = id
		return fakeRow{vals: []any{id}}
	case modelRef.selectSQL:
		id, ok := s.models[modelKey{args[0].(int64), args[1].(string)}]
		return lookup(id, ok)
	case modelRef.insertSQL:
		id := s.newID()
		s.models[modelKey{args[0].(int64), args[1].(string)}] = id
		return fakeRow{vals: []any{id}}
	case fuelTypeRef.selectSQL:
		id, ok := s.fuelTypes[args[0].(string)]
		return lookup(id, ok)
	case fuelTypeRef.insertSQL:
		id := s.newID()
		s.fuelTypes[args[0].(string)] = id
		return fakeRow{vals: []any{id}}
	case lockSaleSQL:
		if _, ok := s.listings[args[0].(int64)]; !ok {
			return fakeRow{err: pgx.ErrNoRows}
		}
		return fakeRow{vals: []any{1}}
	case insertSaleSQL:
		id := s.newID()
		s.listings[id] = listingFromArgs(args)
		return fakeRow{vals: []any{id}}
	}
	return fakeRow{err: fmt.Errorf("fakeTx: unexpected query %q", sql)}
}

func (t *fakeTx) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	t.db.record(sql, args)
	if sql == t.db.failSQL {
		return pgconn.CommandTag{}, t.db.failErr
	}

	switch sql {
	case updateSaleSQL:
		id := args[0].(int64)
		if _, ok := t.state.listings[id]; !ok {
			return pgconn.NewCommandTag("UPDATE 0"), nil
		}
		t.state.listings[id] = listingFromArgs(args[1:])
		return pgconn.NewCommandTag("UPDATE 1"), nil
	case deleteSaleSQL:
		id := args[0].(int64)
		if _, ok := t.state.listings[id]; !ok {
			return pgconn.NewCommandTag("DELETE 0"), nil
		}
		delete(t.state.listings, id)
		return pgconn.NewCommandTag("DELETE 1"), nil
	}
	return pgconn.CommandTag{}, fmt.Errorf("fakeTx: unexpected exec %q", sql)
}

func (t *fakeTx) Commit(context.Context) error {
	if t.done {
		return pgx.ErrTxClosed
	}
	t.done = true
	if t.db.commitErr != nil {
		return t.db.commitErr
	}
	t.db.state = t.state
	t.db.commits++
	return nil
}

func (t *fakeTx) Rollback(context.Context) error {
	if t.done {
		return pgx.ErrTxClosed
	}
	t.done = true
	t.db.rollbacks++
	return nil
}

func listingFromArgs(args []any) listingRow {
	return listingRow{
		modelID:    args[0].(int64),
		fuelTypeID: args[1].(int64),
		engineSize: args[2].(decimal.Decimal),
		year:       args[3].(int),
		mileage:    args[4].(*int),
		price:      args[5].(decimal.Decimal),
	}
}

func sampleInput() model.SaleInput {
	return model.SaleInput{
		Manufacturer: "Toyota",
		Model:        "Corolla",
		EngineSize:   decimal.RequireFromString("2.0"),
		FuelType:     "Petrol",
		Year:         2020,
		Mileage:      intPtr(50000),
		Price:        decimal.RequireFromString("15000.00"),
	}
}
