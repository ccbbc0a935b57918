package ygggo_db

import (
	"context"
	"sync"
	"time"
)

// RowHandler consumes the single-pass row cursor of a query. It is called
// once; iterate with rows.Next inside it. The cursor is not restartable.
type RowHandler func(rows *Rows) error

// Select executes a query and streams rows to a caller-supplied handler.
type Select struct {
	stmt    statement
	timeout time.Duration
	maxRows int

	// guards the in-flight cancel function so another goroutine may cancel
	// this specific execution; cleared when the statement completes so a
	// stale cancel cannot touch a later statement.
	mu     sync.Mutex
	cancel context.CancelFunc
}

// Arg supplies the next positional (?) value.
func (q *Select) Arg(v any) *Select { q.stmt.addPositional(v); return q }

// Name supplies a named (:identifier) value; the leading ':' is optional.
func (q *Select) Name(name string, v any) *Select { q.stmt.addNamed(name, v); return q }

// ArgNowPerApp supplies the app clock, truncated to milliseconds.
func (q *Select) ArgNowPerApp() *Select { q.stmt.addPositional(timeNowPerApp{}); return q }

// NameNowPerApp supplies the app clock under a name.
func (q *Select) NameNowPerApp(name string) *Select {
	q.stmt.addNamed(name, timeNowPerApp{})
	return q
}

// ArgNowPerDB splices the database's current-time expression.
func (q *Select) ArgNowPerDB() *Select { q.stmt.addPositional(timeNowPerDB{}); return q }

// NameNowPerDB splices the database's current-time expression under a name.
func (q *Select) NameNowPerDB(name string) *Select {
	q.stmt.addNamed(name, timeNowPerDB{})
	return q
}

// Apply replays a buffered argument set against this statement.
func (q *Select) Apply(args *SqlArgs) *Select { args.applyTo(&q.stmt); return q }

// Timeout sets a statement-scoped timeout, applied before execution.
func (q *Select) Timeout(d time.Duration) *Select { q.timeout = d; return q }

// MaxRows caps the number of rows handed to the row handler.
func (q *Select) MaxRows(n int) *Select { q.maxRows = n; return q }

// Cancel requests cancellation of the in-flight execution, if any. Safe to
// call from another goroutine; a no-op once the statement has completed.
func (q *Select) Cancel() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.cancel != nil {
		q.cancel()
	}
}

// Query runs the pipeline: rewrite, bind, execute, stream rows to handler,
// classify the outcome, log once.
func (q *Select) Query(ctx context.Context, handler RowHandler) error {
	s := q.stmt.s
	code := newErrorCode(s.clock())
	m := NewMetric(s.clock())

	ps, bound, err := q.stmt.rewriteAndBind(code)
	if err != nil {
		return err
	}
	q.stmt.executed = true
	m.Checkpoint("prep")

	execCtx, cancel := withTimeout(ctx, q.timeout)
	q.mu.Lock()
	q.cancel = cancel
	q.mu.Unlock()
	defer func() {
		q.mu.Lock()
		q.cancel = nil
		q.mu.Unlock()
		cancel()
	}()

	rs, err := s.query(execCtx, ps.SQL, bound)
	m.Checkpoint("exec")
	if err != nil {
		e := q.stmt.classify(code, ps, bound, err, "query failed")
		q.stmt.log(ctx, code, ps, bound, m, e)
		return e
	}
	defer rs.Close()

	rowCap := q.maxRows
	if rowCap == 0 {
		rowCap = s.opts.MaxRows
	}
	rows, err := newRows(rs, rowCap)
	if err == nil {
		err = handler(rows)
		if err == nil {
			err = rows.Err()
		}
	}
	m.Done("fetch")
	if err != nil {
		e := q.stmt.classify(code, ps, bound, err, "reading query results failed")
		q.stmt.log(ctx, code, ps, bound, m, e)
		return e
	}
	q.stmt.log(ctx, code, ps, bound, m, nil)
	return nil
}

// QueryFirstOrNull runs the query and hands only the first row to fn;
// returns false if the result was empty.
func (q *Select) QueryFirstOrNull(ctx context.Context, fn func(rows *Rows) error) (bool, error) {
	found := false
	err := q.MaxRows(1).Query(ctx, func(rows *Rows) error {
		if rows.Next() {
			found = true
			return fn(rows)
		}
		return nil
	})
	return found, err
}

// QueryInt64OrNull returns the first column of the first row as *int64.
func (q *Select) QueryInt64OrNull(ctx context.Context) (*int64, error) {
	var out *int64
	_, err := q.QueryFirstOrNull(ctx, func(rows *Rows) error {
		out = rows.Int64OrNull(0)
		return nil
	})
	return out, err
}

// QueryInt64OrZero returns the first column of the first row, 0 when the
// result is empty or NULL.
func (q *Select) QueryInt64OrZero(ctx context.Context) (int64, error) {
	v, err := q.QueryInt64OrNull(ctx)
	if err != nil || v == nil {
		return 0, err
	}
	return *v, nil
}

// QueryStringOrNull returns the first column of the first row as *string.
func (q *Select) QueryStringOrNull(ctx context.Context) (*string, error) {
	var out *string
	_, err := q.QueryFirstOrNull(ctx, func(rows *Rows) error {
		out = rows.StringOrNull(0)
		return nil
	})
	return out, err
}

// QueryStringOrEmpty returns the first column of the first row, "" when the
// result is empty or NULL.
func (q *Select) QueryStringOrEmpty(ctx context.Context) (string, error) {
	v, err := q.QueryStringOrNull(ctx)
	if err != nil || v == nil {
		return "", err
	}
	return *v, nil
}

// QueryBoolOrNull returns the first column of the first row decoded with
// the "Y"/"N" convention.
func (q *Select) QueryBoolOrNull(ctx context.Context) (*bool, error) {
	var out *bool
	_, err := q.QueryFirstOrNull(ctx, func(rows *Rows) error {
		out = rows.BoolOrNull(0)
		return nil
	})
	return out, err
}

// queryScalarInt64 requires exactly one non-null int64 result.
func (q *Select) queryScalarInt64(ctx context.Context, out *int64) error {
	v, err := q.QueryInt64OrNull(ctx)
	if err != nil {
		return err
	}
	if v == nil {
		return &Error{Kind: ErrKindExecution, Code: newErrorCode(q.stmt.s.clock()),
			msg: "expected a single value but the query returned none"}
	}
	*out = *v
	return nil
}
