package database

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubTx struct {
	pgx.Tx
	committed   bool
	rolledBack  bool
	commitErr   error
	rollbackErr error
}

func (s *stubTx) Commit(context.Context) error {
	s.committed = true
	return s.commitErr
}

func (s *stubTx) Rollback(context.Context) error {
	s.rolledBack = true
	return s.rollbackErr
}

type stubBeginner struct {
	tx  *stubTx
	err error
}

func (b *stubBeginner) Begin(context.Context) (pgx.Tx, error) {
	if b.err != nil {
		return nil, b.err
	}
	return b.tx, nil
}

func TestWithTx_CommitsOnSuccess(t *testing.T) {
	tx := &stubTx{}

	err := WithTx(context.Background(), &stubBeginner{tx: tx}, func(pgx.Tx) error { return nil })

	require.NoError(t, err)
	assert.True(t, tx.committed)
	assert.False(t, tx.rolledBack)
}

func TestWithTx_RollsBackAndReturnsErrorUnchanged(t *testing.T) {
	tx := &stubTx{rollbackErr: errors.New("conn closed")}
	boom := errors.New("boom")

	err := WithTx(context.Background(), &stubBeginner{tx: tx}, func(pgx.Tx) error { return boom })

	assert.Same(t, boom, err)
	assert.True(t, tx.rolledBack)
	assert.False(t, tx.committed)
}

func TestWithTx_BeginFailure(t *testing.T) {
	called := false

	err := WithTx(context.Background(), &stubBeginner{err: errors.New("no conn")}, func(pgx.Tx) error {
		called = true
		return nil
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "begin transaction")
	assert.False(t, called)
}

func TestWithTx_CommitFailureIsWrapped(t *testing.T) {
	commitErr := errors.New("serialization failure")
	tx := &stubTx{commitErr: commitErr}

	err := WithTx(context.Background(), &stubBeginner{tx: tx}, func(pgx.Tx) error { return nil })

	assert.ErrorIs(t, err, commitErr)
}

func TestWithTx_PanicRollsBack(t *testing.T) {
	tx := &stubTx{}

	assert.Panics(t, func() {
		_ = WithTx(context.Background(), &stubBeginner{tx: tx}, func(pgx.Tx) error { panic("kaboom") })
	})
	assert.True(t, tx.rolledBack)
}
