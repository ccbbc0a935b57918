package ygggo_db

import "context"

// Transactor runs one unit of work with automatic commit/rollback. Both
// Builder and Provider satisfy it; code that only needs to run transactions
// can accept either.
type Transactor interface {
	Transact(ctx context.Context, fn func(*Database) error) error
	TransactControlled(ctx context.Context, fn func(*Database, *Transaction) error) error
}

// Compile-time interface checks.
var (
	_ Transactor = (*Builder)(nil)
	_ Transactor = (*Provider)(nil)

	_ argSink = (*statement)(nil)
)
