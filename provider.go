package ygggo_db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Options holds per-builder behavior flags. The zero value is usable as
// long as Flavor can be derived from the connection string.
type Options struct {
	// Flavor overrides connection-string prefix detection.
	Flavor Flavor
	// LogParameters includes bound parameter values in success log lines.
	LogParameters bool
	// DetailedExceptions attaches SQL text and parameter values to errors.
	// Off by default since parameters can carry sensitive data.
	DetailedExceptions bool
	// UseTimePerAppOnly makes per-db "now" arguments use the app clock for
	// every statement kind. Single per-session policy.
	UseTimePerAppOnly bool
	// MaxRows caps select results when the statement sets no cap of its
	// own. 0 means unlimited.
	MaxRows int
	// Logger receives statement logs. Defaults to a JSON slog logger.
	Logger *slog.Logger
	// Clock overrides time.Now, mainly for tests.
	Clock func() time.Time
}

// Builder owns the *sql.DB and hands out one Provider per unit of work.
// Independent units of work get independent providers, each with its own
// connection.
type Builder struct {
	db     *sql.DB
	opts   Options
	flavor Flavor
	ownsDB bool

	loggingEnabled   bool
	telemetryEnabled bool
	metricsEnabled   bool
	logger           *slog.Logger
	instruments      *instruments
}

// NewBuilder opens a database handle for the given driver and connection
// string. The flavor is derived from the connection string prefix unless
// Options.Flavor is set; an unknown prefix with no override is a hard
// failure.
func NewBuilder(driver, connString string, opts Options) (*Builder, error) {
	flavor := opts.Flavor
	if flavor == FlavorUnknown {
		f, err := FlavorFromURL(connString)
		if err != nil {
			return nil, err
		}
		flavor = f
	}
	db, err := sql.Open(driver, connString)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	b := newBuilder(db, flavor, opts)
	b.ownsDB = true
	return b, nil
}

// NewBuilderFromDB wraps an existing handle. Options.Flavor is required
// since there is no connection string to derive it from.
func NewBuilderFromDB(db *sql.DB, opts Options) (*Builder, error) {
	if opts.Flavor == FlavorUnknown {
		return nil, errors.New("Options.Flavor is required with an existing *sql.DB")
	}
	return newBuilder(db, opts.Flavor, opts), nil
}

func newBuilder(db *sql.DB, flavor Flavor, opts Options) *Builder {
	b := &Builder{db: db, opts: opts, flavor: flavor}
	if opts.Logger != nil {
		b.logger = opts.Logger
	}
	return b
}

// Flavor returns the builder's database flavor.
func (b *Builder) Flavor() Flavor { return b.flavor }

// Close releases the underlying handle if this builder opened it.
func (b *Builder) Close() error {
	if b == nil || b.db == nil || !b.ownsDB {
		return nil
	}
	return b.db.Close()
}

// Ping verifies connectivity by running the flavor's constant select.
func (b *Builder) Ping(ctx context.Context) error {
	var one int
	return b.db.QueryRowContext(ctx, "select 1"+b.flavor.FromAny()).Scan(&one)
}

// Provider starts a new unit of work. The connection is acquired lazily on
// first access.
func (b *Builder) Provider() *Provider {
	return &Provider{b: b}
}

// Transact runs fn in a fresh unit of work: commit-and-close on normal
// completion, rollback-and-close on error or panic.
func (b *Builder) Transact(ctx context.Context, fn func(*Database) error) error {
	return b.Provider().Transact(ctx, fn)
}

// TransactControlled is Transact with an explicit Transaction intent the
// block may adjust before the provider decides commit vs rollback.
func (b *Builder) TransactControlled(ctx context.Context, fn func(*Database, *Transaction) error) error {
	return b.Provider().TransactControlled(ctx, fn)
}

// Transaction carries the caller's commit/rollback intent for one unit of
// work. It is consulted exactly once, after the block finishes;
// rollbackOnly takes precedence over rollbackOnError.
type Transaction struct {
	rollbackOnly    bool
	rollbackOnError bool
}

// SetRollbackOnly forces a rollback regardless of how the block ends.
func (t *Transaction) SetRollbackOnly(v bool) { t.rollbackOnly = v }

// IsRollbackOnly reports the current rollback-only intent.
func (t *Transaction) IsRollbackOnly() bool { return t.rollbackOnly }

// SetRollbackOnError rolls back only if the block does not complete
// normally. This is the default for Transact.
func (t *Transaction) SetRollbackOnError(v bool) { t.rollbackOnError = v }

// IsRollbackOnError reports the current rollback-on-error intent.
func (t *Transaction) IsRollbackOnError() bool { return t.rollbackOnError }

func (t *Transaction) shouldRollback(completed bool) bool {
	if t.rollbackOnly {
		return true
	}
	return t.rollbackOnError && !completed
}

type providerState int

const (
	stateUnopened providerState = iota
	stateOpen
	stateClosed
)

// Provider owns one connection used as a single transaction: lazy
// acquisition, commit/rollback, guaranteed close. It must not be shared
// across concurrent callers; use one provider per unit of work.
type Provider struct {
	b *Builder

	mu     sync.Mutex
	state  providerState
	sess   *session
	facade *Database
}

// Get returns the statement factory, opening the connection on first call.
// Repeated calls within one unit of work return the same facade. Calling
// Get after Close is a programming error and fails fast.
func (p *Provider) Get(ctx context.Context) (*Database, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	switch p.state {
	case stateOpen:
		return p.facade, nil
	case stateClosed:
		return nil, errors.New("provider already closed")
	}
	s, err := newSession(ctx, p.b)
	if err != nil {
		return nil, err
	}
	p.sess = s
	p.facade = &Database{s: s}
	p.state = stateOpen
	return p.facade, nil
}

// Commit commits the open transaction and opens a new one on the same
// connection. No-op if the connection was never acquired.
func (p *Provider) Commit(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != stateOpen {
		return nil
	}
	return p.sess.commitAndBegin(ctx)
}

// Rollback rolls back the open transaction and opens a new one on the same
// connection. No-op if the connection was never acquired.
func (p *Provider) Rollback(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != stateOpen {
		return nil
	}
	return p.sess.rollbackAndBegin(ctx)
}

// CommitAndClose commits the unit of work and releases the connection.
func (p *Provider) CommitAndClose(ctx context.Context) error {
	return p.finish(ctx, false)
}

// RollbackAndClose rolls back the unit of work and releases the connection.
func (p *Provider) RollbackAndClose(ctx context.Context) error {
	return p.finish(ctx, true)
}

// Close releases the connection, rolling back any open transaction.
// Idempotent: further calls are no-ops, not errors.
func (p *Provider) Close() error {
	return p.finish(context.Background(), true)
}

func (p *Provider) finish(ctx context.Context, rollback bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state == stateClosed {
		return nil
	}
	defer func() {
		p.state = stateClosed
		p.sess = nil
		p.facade = nil
	}()
	if p.state == stateUnopened || p.sess == nil {
		return nil
	}
	var err error
	if rollback {
		err = p.sess.rollback()
	} else {
		err = p.sess.commit()
	}
	if cerr := p.sess.close(); cerr != nil && err == nil {
		err = cerr
	}
	p.b.logTransaction(ctx, finishEvent(rollback), err)
	return err
}

func finishEvent(rollback bool) string {
	if rollback {
		return "rollback"
	}
	return "commit"
}

// Transact runs fn against this provider's unit of work with the default
// intent (rollback on error) and guarantees the connection is released.
func (p *Provider) Transact(ctx context.Context, fn func(*Database) error) error {
	return p.TransactControlled(ctx, func(db *Database, _ *Transaction) error {
		return fn(db)
	})
}

// TransactControlled runs fn with an explicit Transaction intent. On panic
// the unit of work is rolled back and the panic re-raised. No error is ever
// retried; failures propagate to the caller.
func (p *Provider) TransactControlled(ctx context.Context, fn func(*Database, *Transaction) error) (err error) {
	db, err := p.Get(ctx)
	if err != nil {
		return err
	}
	intent := &Transaction{rollbackOnError: true}
	completed := false
	defer func() {
		if !completed && err == nil {
			// panicking: make sure nothing half-done commits
			_ = p.RollbackAndClose(ctx)
			return
		}
		var ferr error
		if intent.shouldRollback(completed) {
			ferr = p.RollbackAndClose(ctx)
		} else {
			ferr = p.CommitAndClose(ctx)
		}
		if err == nil {
			err = ferr
		}
	}()
	err = fn(db, intent)
	completed = err == nil
	return err
}
