package ygggo_db

import "context"

// DDL executes a schema statement. Successful DDL commits immediately;
// schema changes rarely roll back cleanly across dialects.
type DDL struct {
	stmt statement
}

// Execute runs the statement and commits the transaction on success.
func (d *DDL) Execute(ctx context.Context) error {
	return d.execute(ctx, false)
}

// ExecuteQuietly runs the statement and swallows any failure. Used for
// idempotent drop-if-exists emulation on flavors lacking native
// "drop ... if exists". This is the only path allowed to discard errors.
func (d *DDL) ExecuteQuietly(ctx context.Context) {
	_ = d.execute(ctx, true)
}

func (d *DDL) execute(ctx context.Context, quiet bool) error {
	s := d.stmt.s
	code := newErrorCode(s.clock())
	m := NewMetric(s.clock())

	ps, bound, err := d.stmt.rewriteAndBind(code)
	if err != nil {
		return err
	}
	d.stmt.executed = true
	m.Checkpoint("prep")

	_, err = s.exec(ctx, ps.SQL, bound)
	if err != nil {
		m.Done("exec")
		if quiet {
			s.b.logQuiet(ctx, code, ps.SQL, m, err)
			return nil
		}
		e := d.stmt.classify(code, ps, bound, err, "ddl failed")
		d.stmt.log(ctx, code, ps, bound, m, e)
		return e
	}
	m.Checkpoint("exec")
	err = s.commitAndBegin(ctx)
	m.Done("commit")
	if err != nil {
		e := d.stmt.classify(code, ps, bound, err, "ddl commit failed")
		d.stmt.log(ctx, code, ps, bound, m, e)
		return e
	}
	d.stmt.log(ctx, code, ps, bound, m, nil)
	return nil
}
