package ygggo_db

import (
	"context"
	"time"
)

// Database is the statement factory for one unit of work. Obtained from
// Provider.Get (or inside Transact); statements built from it run on the
// provider's single connection and transaction.
type Database struct {
	s *session
}

// Select builds a query statement from raw SQL with :name and/or ?
// placeholders.
func (d *Database) Select(sqlText string) *Select {
	return &Select{stmt: newStatement(d.s, "select", sqlText)}
}

// Insert builds an insert statement.
func (d *Database) Insert(sqlText string) *Insert {
	return &Insert{stmt: newStatement(d.s, "insert", sqlText)}
}

// Update builds an update statement.
func (d *Database) Update(sqlText string) *Update {
	return &Update{stmt: newStatement(d.s, "update", sqlText)}
}

// Delete builds a delete statement. Deletes share update semantics: an
// affected-row count and an expected-count variant.
func (d *Database) Delete(sqlText string) *Update {
	return &Update{stmt: newStatement(d.s, "delete", sqlText)}
}

// DDL builds a schema statement. DDL commits immediately on success.
func (d *Database) DDL(sqlText string) *DDL {
	return &DDL{stmt: newStatement(d.s, "ddl", sqlText)}
}

// Flavor returns the session's database flavor.
func (d *Database) Flavor() Flavor { return d.s.flavor }

// Now returns the app clock truncated to whole milliseconds, the same value
// an ArgNowPerApp argument would bind.
func (d *Database) Now() time.Time { return appNow(d.s.clock()) }

// NextSequenceValue reads the next value from a database sequence.
func (d *Database) NextSequenceValue(ctx context.Context, sequence string) (int64, error) {
	stmtSQL := d.s.flavor.SequenceSelectNextVal(sequence)
	if stmtSQL == "" {
		return 0, rewriteError(newErrorCode(d.s.clock()),
			"flavor %s has no sequence support", d.s.flavor)
	}
	var id int64
	err := d.Select(stmtSQL).queryScalarInt64(ctx, &id)
	return id, err
}

// DropTableQuietly drops a table, swallowing any failure. Best-effort
// emulation of "drop table if exists" on flavors that lack it.
func (d *Database) DropTableQuietly(ctx context.Context, table string) {
	d.DDL("drop table " + table).ExecuteQuietly(ctx)
}

// DropSequenceQuietly drops a sequence, swallowing any failure.
func (d *Database) DropSequenceQuietly(ctx context.Context, sequence string) {
	stmtSQL := d.s.flavor.SequenceDrop(sequence)
	if stmtSQL == "" {
		return
	}
	d.DDL(stmtSQL).ExecuteQuietly(ctx)
}
