package ygggo_db

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdate_ReturnsAffectedCount(t *testing.T) {
	_, db, mock := openMock(t, FlavorGeneric)

	mock.ExpectExec("update t set name = ? where id = ?").
		WithArgs("x", int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 2))

	n, err := db.Update("update t set name = :name where id = ?").
		Name("name", "x").
		Arg(3).
		Update(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateExact_MismatchNamesStatementKind(t *testing.T) {
	_, db, mock := openMock(t, FlavorGeneric)

	mock.ExpectExec("update t set a = ?").
		WithArgs(int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := db.Update("update t set a = ?").Arg(1).
		UpdateExact(context.Background(), 1)
	require.Error(t, err)
	var e *Error
	require.True(t, errors.As(err, &e))
	assert.Equal(t, ErrKindRowCount, e.Kind)
	assert.Contains(t, err.Error(), "update affected 0 rows, expected 1")
}

func TestDelete_SharesUpdateSemantics(t *testing.T) {
	_, db, mock := openMock(t, FlavorGeneric)

	mock.ExpectExec("delete from t where id = ?").
		WithArgs(int64(9)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := db.Delete("delete from t where id = ?").Arg(9).
		UpdateExact(context.Background(), 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "delete affected 0 rows, expected 1")
}

func TestUpdate_NowPerAppBindsTruncatedClock(t *testing.T) {
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 123_456_789, time.UTC)
	b, mock := newMockBuilder(t, FlavorGeneric, Options{Clock: func() time.Time { return fixed }})
	mock.ExpectBegin()
	db, err := b.Provider().Get(context.Background())
	require.NoError(t, err)

	mock.ExpectExec("update t set changed = ? where id = ?").
		WithArgs(fixed.Truncate(time.Millisecond), int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	n, err := db.Update("update t set changed = :when where id = ?").
		NameNowPerApp("when").
		Arg(1).
		Update(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdate_NowPerDBSplicesExpression(t *testing.T) {
	_, db, mock := openMock(t, FlavorMySQL)

	mock.ExpectExec("update t set changed = now(3) where id = ?").
		WithArgs(int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	n, err := db.Update("update t set changed = :when where id = ?").
		NameNowPerDB("when").
		Arg(1).
		Update(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdate_ExecutionErrorWrapped(t *testing.T) {
	_, db, mock := openMock(t, FlavorGeneric)

	boom := errors.New("lock wait timeout")
	mock.ExpectExec("update t set a = ?").WithArgs(int64(1)).WillReturnError(boom)

	_, err := db.Update("update t set a = ?").Arg(1).Update(context.Background())
	require.Error(t, err)
	var e *Error
	require.True(t, errors.As(err, &e))
	assert.Equal(t, ErrKindExecution, e.Kind)
	assert.True(t, errors.Is(err, boom))
}
