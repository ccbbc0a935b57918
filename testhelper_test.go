package ygggo_db

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

// newMockBuilder wires a builder to sqlmock with exact query matching, so
// tests assert the rewritten SQL byte for byte.
func newMockBuilder(t *testing.T, flavor Flavor, opts Options) (*Builder, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	opts.Flavor = flavor
	if opts.Clock == nil {
		opts.Clock = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }
	}
	b, err := NewBuilderFromDB(db, opts)
	require.NoError(t, err)
	return b, mock
}

// openMock starts a provider's unit of work against sqlmock, expecting the
// initial begin.
func openMock(t *testing.T, flavor Flavor) (*Provider, *Database, sqlmock.Sqlmock) {
	t.Helper()
	b, mock := newMockBuilder(t, flavor, Options{})
	mock.ExpectBegin()
	p := b.Provider()
	db, err := p.Get(context.Background())
	require.NoError(t, err)
	return p, db, mock
}
