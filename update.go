package ygggo_db

import (
	"context"
	"fmt"
)

// Update executes an update or delete statement and reports the affected-row
// count. Same base/expected-count duality as Insert, no generated-key
// concept.
type Update struct {
	stmt statement
}

// Arg supplies the next positional (?) value.
func (u *Update) Arg(v any) *Update { u.stmt.addPositional(v); return u }

// Name supplies a named (:identifier) value; the leading ':' is optional.
func (u *Update) Name(name string, v any) *Update { u.stmt.addNamed(name, v); return u }

// ArgNowPerApp supplies the app clock, truncated to milliseconds.
func (u *Update) ArgNowPerApp() *Update { u.stmt.addPositional(timeNowPerApp{}); return u }

// NameNowPerApp supplies the app clock under a name.
func (u *Update) NameNowPerApp(name string) *Update {
	u.stmt.addNamed(name, timeNowPerApp{})
	return u
}

// ArgNowPerDB splices the database's current-time expression.
func (u *Update) ArgNowPerDB() *Update { u.stmt.addPositional(timeNowPerDB{}); return u }

// NameNowPerDB splices the database's current-time expression under a name.
func (u *Update) NameNowPerDB(name string) *Update {
	u.stmt.addNamed(name, timeNowPerDB{})
	return u
}

// Apply replays a buffered argument set against this statement.
func (u *Update) Apply(args *SqlArgs) *Update { args.applyTo(&u.stmt); return u }

// Update executes the statement and returns the affected-row count.
func (u *Update) Update(ctx context.Context) (int64, error) {
	s := u.stmt.s
	code := newErrorCode(s.clock())
	m := NewMetric(s.clock())

	ps, bound, err := u.stmt.rewriteAndBind(code)
	if err != nil {
		return 0, err
	}
	u.stmt.executed = true
	m.Checkpoint("prep")

	res, err := s.exec(ctx, ps.SQL, bound)
	m.Done("exec")
	if err != nil {
		e := u.stmt.classify(code, ps, bound, err, u.stmt.kind+" failed")
		u.stmt.log(ctx, code, ps, bound, m, e)
		return 0, e
	}
	n, err := res.RowsAffected()
	if err != nil {
		n = NoInfo
	}
	u.stmt.log(ctx, code, ps, bound, m, nil)
	return n, nil
}

// UpdateExact executes the statement and fails with a row-count-mismatch
// error unless exactly expected rows were affected.
func (u *Update) UpdateExact(ctx context.Context, expected int64) error {
	n, err := u.Update(ctx)
	if err != nil {
		return err
	}
	if n != expected {
		return &Error{Kind: ErrKindRowCount, Code: newErrorCode(u.stmt.s.clock()),
			msg: fmt.Sprintf("%s affected %d rows, expected %d", u.stmt.kind, n, expected)}
	}
	return nil
}
