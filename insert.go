package ygggo_db

import (
	"context"
	"database/sql"
	"fmt"
)

// NoInfo is the per-row affected count reported when the driver cannot say
// how many rows a batched statement touched (older driver limitation).
const NoInfo int64 = -1

// Insert executes an insert statement: plain affected count, expected-count
// check, generated-key retrieval (native or simulated), and batch mode.
type Insert struct {
	stmt statement

	pkName string // named parameter carrying the primary key
	pkSeq  string // sequence feeding it

	rows []argSnapshot // batch mode: one snapshot per buffered row
}

type argSnapshot struct {
	positional []any
	named      map[string]any
}

// Arg supplies the next positional (?) value.
func (ins *Insert) Arg(v any) *Insert { ins.stmt.addPositional(v); return ins }

// Name supplies a named (:identifier) value; the leading ':' is optional.
func (ins *Insert) Name(name string, v any) *Insert { ins.stmt.addNamed(name, v); return ins }

// ArgNowPerApp supplies the app clock, truncated to milliseconds.
func (ins *Insert) ArgNowPerApp() *Insert { ins.stmt.addPositional(timeNowPerApp{}); return ins }

// NameNowPerApp supplies the app clock under a name.
func (ins *Insert) NameNowPerApp(name string) *Insert {
	ins.stmt.addNamed(name, timeNowPerApp{})
	return ins
}

// ArgNowPerDB splices the database's current-time expression.
func (ins *Insert) ArgNowPerDB() *Insert { ins.stmt.addPositional(timeNowPerDB{}); return ins }

// NameNowPerDB splices the database's current-time expression under a name.
func (ins *Insert) NameNowPerDB(name string) *Insert {
	ins.stmt.addNamed(name, timeNowPerDB{})
	return ins
}

// Apply replays a buffered argument set against this statement.
func (ins *Insert) Apply(args *SqlArgs) *Insert { args.applyTo(&ins.stmt); return ins }

// NamePkSeq declares the named parameter that carries the generated primary
// key and the sequence that feeds it. Used with InsertReturningPkSeq.
func (ins *Insert) NamePkSeq(name, sequence string) *Insert {
	ins.pkName = cleanArgName(name)
	ins.pkSeq = sequence
	return ins
}

// Insert executes the statement and returns the affected-row count.
func (ins *Insert) Insert(ctx context.Context) (int64, error) {
	return ins.run(ctx)
}

// InsertExact executes the statement and fails with a row-count-mismatch
// error unless exactly expected rows were affected.
func (ins *Insert) InsertExact(ctx context.Context, expected int64) error {
	n, err := ins.run(ctx)
	if err != nil {
		return err
	}
	if n != expected {
		return &Error{Kind: ErrKindRowCount, Code: newErrorCode(ins.stmt.s.clock()),
			msg: fmt.Sprintf("insert affected %d rows, expected %d", n, expected)}
	}
	return nil
}

func (ins *Insert) run(ctx context.Context) (int64, error) {
	s := ins.stmt.s
	code := newErrorCode(s.clock())
	m := NewMetric(s.clock())

	ps, bound, err := ins.stmt.rewriteAndBind(code)
	if err != nil {
		return 0, err
	}
	ins.stmt.executed = true
	m.Checkpoint("prep")

	res, err := s.exec(ctx, ps.SQL, bound)
	m.Done("exec")
	if err != nil {
		e := ins.stmt.classify(code, ps, bound, err, "insert failed")
		ins.stmt.log(ctx, code, ps, bound, m, e)
		return 0, e
	}
	n, err := res.RowsAffected()
	if err != nil {
		n = NoInfo
	}
	ins.stmt.log(ctx, code, ps, bound, m, nil)
	return n, nil
}

// InsertReturningPkSeq inserts one row and returns the generated primary
// key declared with NamePkSeq.
//
// On flavors with native insert-returning support exactly one statement is
// executed. Otherwise the key is simulated: read the sequence's next value,
// substitute it as the primary-key argument, perform the ordinary insert,
// and return the value read first. Both statements run in the same unit of
// work, so the substitution is atomic from the caller's point of view.
func (ins *Insert) InsertReturningPkSeq(ctx context.Context, pkColumn string) (int64, error) {
	s := ins.stmt.s
	if ins.pkName == "" || ins.pkSeq == "" {
		return 0, rewriteError(newErrorCode(s.clock()),
			"InsertReturningPkSeq requires NamePkSeq(name, sequence)")
	}
	if s.flavor.SupportsInsertReturning() {
		return ins.insertReturningNative(ctx, pkColumn)
	}
	return ins.insertReturningSimulated(ctx)
}

func (ins *Insert) insertReturningNative(ctx context.Context, pkColumn string) (int64, error) {
	s := ins.stmt.s
	code := newErrorCode(s.clock())
	m := NewMetric(s.clock())

	useReturning := s.flavor.SupportsSequences()
	if useReturning {
		// sequence expression spliced directly into the insert
		ins.stmt.addNamed(ins.pkName, RewriteArg(s.flavor.SequenceNextVal(ins.pkSeq)))
	} else {
		// auto-increment flavors: the column is absent from the statement
		// and the driver reports the generated key
		ins.stmt.addNamed(ins.pkName, RewriteArg("null"))
	}

	ps, bound, err := ins.stmt.rewriteAndBind(code)
	if err != nil {
		return 0, err
	}
	ins.stmt.executed = true
	m.Checkpoint("prep")

	var id int64
	if useReturning {
		row := ps.SQL + " returning " + pkColumn
		var rs *sql.Rows
		rs, err = s.query(ctx, row, bound)
		if err == nil {
			if rs.Next() {
				err = rs.Scan(&id)
			} else {
				err = rs.Err()
				if err == nil {
					err = fmt.Errorf("insert returned no generated key")
				}
			}
			_ = rs.Close()
		}
		ps.SQL = row
	} else {
		var res sql.Result
		res, err = s.exec(ctx, ps.SQL, bound)
		if err == nil {
			id, err = res.LastInsertId()
		}
	}
	m.Done("exec")
	if err != nil {
		e := ins.stmt.classify(code, ps, bound, err, "insert returning pk failed")
		ins.stmt.log(ctx, code, ps, bound, m, e)
		return 0, e
	}
	ins.stmt.log(ctx, code, ps, bound, m, nil)
	return id, nil
}

func (ins *Insert) insertReturningSimulated(ctx context.Context) (int64, error) {
	s := ins.stmt.s
	db := &Database{s: s}
	id, err := db.NextSequenceValue(ctx, ins.pkSeq)
	if err != nil {
		return 0, err
	}
	ins.stmt.addNamed(ins.pkName, id)
	n, err := ins.run(ctx)
	if err != nil {
		return 0, err
	}
	if n != 1 && n != NoInfo {
		return 0, &Error{Kind: ErrKindRowCount, Code: newErrorCode(s.clock()),
			msg: fmt.Sprintf("insert affected %d rows, expected 1", n)}
	}
	return id, nil
}

// Batch snapshots the currently buffered arguments as one row and clears
// them for the next row. All rows must produce identical rewritten SQL.
func (ins *Insert) Batch() *Insert {
	if ins.stmt.err == nil {
		snap := argSnapshot{positional: ins.stmt.positional, named: ins.stmt.named}
		ins.rows = append(ins.rows, snap)
		ins.stmt.positional = nil
		ins.stmt.named = nil
	}
	return ins
}

// InsertBatch executes every buffered row and requires each to succeed.
// A driver "no information available" per-row count is accepted, not
// treated as failure.
func (ins *Insert) InsertBatch(ctx context.Context) error {
	counts, err := ins.InsertBatchUnchecked(ctx)
	if err != nil {
		return err
	}
	for i, n := range counts {
		if n != 1 && n != NoInfo {
			return &Error{Kind: ErrKindRowCount, Code: newErrorCode(ins.stmt.s.clock()),
				msg: fmt.Sprintf("batch row %d affected %d rows, expected 1", i, n)}
		}
	}
	return nil
}

// InsertBatchUnchecked executes every buffered row sharing one rewritten
// SQL shape and returns one affected count per row (NoInfo when the driver
// cannot report one).
func (ins *Insert) InsertBatchUnchecked(ctx context.Context) ([]int64, error) {
	s := ins.stmt.s
	code := newErrorCode(s.clock())
	m := NewMetric(s.clock())

	if len(ins.rows) == 0 {
		return nil, rewriteError(code, "batch insert has no rows; call Batch() after each row's arguments")
	}
	if len(ins.stmt.positional) > 0 || len(ins.stmt.named) > 0 {
		// trailing row without a Batch() call
		ins.Batch()
	}
	if ins.stmt.err != nil {
		return nil, rewriteError(code, "%s", ins.stmt.err.Error())
	}

	var shape string
	batch := make([][]any, 0, len(ins.rows))
	for i, row := range ins.rows {
		ins.stmt.positional = row.positional
		ins.stmt.named = row.named
		ps, bound, err := ins.stmt.rewriteAndBind(code)
		if err != nil {
			return nil, err
		}
		if i == 0 {
			shape = ps.SQL
		} else if ps.SQL != shape {
			return nil, rewriteError(code,
				"batch row %d rewrites to different SQL than row 0; all rows must share one shape", i)
		}
		batch = append(batch, bound)
	}
	ins.stmt.positional = nil
	ins.stmt.named = nil
	ins.stmt.executed = true
	m.Checkpoint("prep")

	ps := ParsedStatement{SQL: shape}
	stmt, err := s.prepare(ctx, shape)
	if err != nil {
		e := ins.stmt.classify(code, ps, nil, err, "batch prepare failed")
		ins.stmt.log(ctx, code, ps, nil, m, e)
		return nil, e
	}
	defer stmt.Close()

	counts := make([]int64, 0, len(batch))
	for i, bound := range batch {
		res, err := stmt.ExecContext(ctx, bound...)
		if err != nil {
			e := ins.stmt.classify(code, ps, bound, err, fmt.Sprintf("batch row %d failed", i))
			m.Done("exec")
			ins.stmt.log(ctx, code, ps, bound, m, e)
			return nil, e
		}
		n, err := res.RowsAffected()
		if err != nil {
			n = NoInfo
		}
		counts = append(counts, n)
	}
	m.Done("exec")
	ins.stmt.log(ctx, code, ps, nil, m, nil)
	return counts, nil
}
