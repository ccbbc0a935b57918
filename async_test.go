package ygggo_db

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAsyncRunner_DeliversResult(t *testing.T) {
	b, mock := newMockBuilder(t, FlavorGeneric, Options{})
	mock.ExpectBegin()
	mock.ExpectExec("update t set a = ?").
		WithArgs(int64(1)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	r := NewAsyncRunner(b, 2)
	defer r.Close()

	errc := r.TransactAsync(context.Background(), func(db *Database) error {
		_, err := db.Update("update t set a = ?").Arg(1).Update(context.Background())
		return err
	})
	require.NoError(t, <-errc)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAsyncRunner_GeneratesJobIDWhenAbsent(t *testing.T) {
	b, mock := newMockBuilder(t, FlavorGeneric, Options{})
	mock.ExpectBegin()
	mock.ExpectCommit()

	r := NewAsyncRunner(b, 1)
	defer r.Close()

	var seen string
	errc := r.TransactAsync(context.Background(), func(db *Database) error {
		return nil
	})
	require.NoError(t, <-errc)

	mock.ExpectBegin()
	mock.ExpectCommit()
	ctx := WithJobID(context.Background(), "fixed-id")
	errc = r.TransactAsync(ctx, func(db *Database) error {
		seen = JobIDFromContext(ctx)
		return nil
	})
	require.NoError(t, <-errc)
	assert.Equal(t, "fixed-id", seen)
}

func TestAsyncRunner_RefusesAfterClose(t *testing.T) {
	b, _ := newMockBuilder(t, FlavorGeneric, Options{})

	r := NewAsyncRunner(b, 1)
	r.Close()

	err := <-r.TransactAsync(context.Background(), func(db *Database) error { return nil })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already closed")
}

func TestAsyncRunner_LimitsConcurrentWorkers(t *testing.T) {
	b, mock := newMockBuilder(t, FlavorGeneric, Options{})
	mock.MatchExpectationsInOrder(false)
	for i := 0; i < 4; i++ {
		mock.ExpectBegin()
		mock.ExpectCommit()
	}

	r := NewAsyncRunner(b, 1)
	defer r.Close()

	var inFlight, peak int32
	var chans []<-chan error
	for i := 0; i < 4; i++ {
		chans = append(chans, r.TransactAsync(context.Background(), func(db *Database) error {
			n := atomic.AddInt32(&inFlight, 1)
			if n > atomic.LoadInt32(&peak) {
				atomic.StoreInt32(&peak, n)
			}
			atomic.AddInt32(&inFlight, -1)
			return nil
		}))
	}
	for _, c := range chans {
		require.NoError(t, <-c)
	}
	assert.LessOrEqual(t, peak, int32(1))
}

func TestJobID_RoundTripsThroughContext(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, "", JobIDFromContext(ctx))
	ctx = WithJobID(ctx, "240601.120000-42")
	assert.Equal(t, "240601.120000-42", JobIDFromContext(ctx))
}
