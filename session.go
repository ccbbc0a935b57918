package ygggo_db

import (
	"context"
	"database/sql"
	"time"
)

// session is one connection used as a single transaction. Owned exclusively
// by the provider that created it; never shared across threads.
type session struct {
	b      *Builder
	conn   *sql.Conn
	tx     *sql.Tx
	flavor Flavor
	opts   Options
	closed bool
}

// newSession acquires a connection and disables autocommit by starting a
// transaction, unless the flavor forbids disabling it.
func newSession(ctx context.Context, b *Builder) (*session, error) {
	conn, err := b.db.Conn(ctx)
	if err != nil {
		return nil, err
	}
	s := &session{b: b, conn: conn, flavor: b.flavor, opts: b.opts}
	if !b.flavor.AutoCommitOnly() {
		tx, err := conn.BeginTx(ctx, nil)
		if err != nil {
			_ = conn.Close()
			return nil, err
		}
		s.tx = tx
	}
	return s, nil
}

func (s *session) clock() func() time.Time {
	if s.opts.Clock != nil {
		return s.opts.Clock
	}
	return time.Now
}

// exec runs a statement on the open transaction (or directly on the
// connection for autocommit-only flavors).
func (s *session) exec(ctx context.Context, sqlText string, args []any) (sql.Result, error) {
	if s.tx != nil {
		return s.tx.ExecContext(ctx, sqlText, args...)
	}
	return s.conn.ExecContext(ctx, sqlText, args...)
}

func (s *session) query(ctx context.Context, sqlText string, args []any) (*sql.Rows, error) {
	if s.tx != nil {
		return s.tx.QueryContext(ctx, sqlText, args...)
	}
	return s.conn.QueryContext(ctx, sqlText, args...)
}

func (s *session) prepare(ctx context.Context, sqlText string) (*sql.Stmt, error) {
	if s.tx != nil {
		return s.tx.PrepareContext(ctx, sqlText)
	}
	return s.conn.PrepareContext(ctx, sqlText)
}

func (s *session) commit() error {
	if s.tx == nil {
		return nil
	}
	err := s.tx.Commit()
	s.tx = nil
	return err
}

func (s *session) rollback() error {
	if s.tx == nil {
		return nil
	}
	err := s.tx.Rollback()
	s.tx = nil
	return err
}

// commitAndBegin commits the current transaction and opens a fresh one on
// the same connection. DDL uses this so schema changes take effect
// immediately; they rarely roll back cleanly across dialects.
func (s *session) commitAndBegin(ctx context.Context) error {
	if s.tx == nil {
		return nil
	}
	if err := s.tx.Commit(); err != nil {
		s.tx = nil
		return err
	}
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		s.tx = nil
		return err
	}
	s.tx = tx
	return nil
}

func (s *session) rollbackAndBegin(ctx context.Context) error {
	if s.tx == nil {
		return nil
	}
	if err := s.tx.Rollback(); err != nil {
		s.tx = nil
		return err
	}
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		s.tx = nil
		return err
	}
	s.tx = tx
	return nil
}

// close releases the connection. Idempotent after the first call.
func (s *session) close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	if s.tx != nil {
		_ = s.tx.Rollback()
		s.tx = nil
	}
	return s.conn.Close()
}
