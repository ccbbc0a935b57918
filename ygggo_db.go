// Package ygggo_db is a SQL execution layer over database/sql: typed
// argument binding, mixed positional and named parameters in one statement,
// typed null-aware result decoding, per-database dialect smoothing, and a
// transactional connection-lifecycle manager.
//
// # Overview
//
// ygggo_db sits between application code and a database/sql driver. It does
// not plan queries, store data, or speak a wire protocol; it makes raw SQL
// safe and uniform to execute across database flavors.
//
// # Key Features
//
// ## Parameters
//   - Mixed :name and ? placeholders in one statement
//   - "??" and "::" escapes for literal ? and :
//   - Verbatim SQL splicing (RewriteArg) for server-side expressions
//   - Replayable argument buffers for incremental dynamic SQL
//
// ## Typed values
//   - Null-safe binding for every supported kind
//   - "Y"/"N" one-character boolean convention
//   - Decimal scale normalization on decode
//   - Millisecond-truncated timestamps, in and out
//
// ## Dialects
//   - generic, derby, oracle, postgresql, sqlserver, hsqldb, mysql, sqlite
//   - Sequence syntax, server-side now(), constant-select suffixes
//   - Native insert-returning where supported, simulated elsewhere
//
// ## Lifecycle
//   - One provider per unit of work, lazy connection acquisition
//   - Automatic commit/rollback with explicit-intent override
//   - Idempotent close
//
// ## Observability
//   - Structured slog logging with one line per statement
//   - Per-statement latency breakdown (prep/exec/fetch)
//   - Correlation codes linking errors to log lines
//   - OpenTelemetry tracing and metrics
//
// # Quick Start
//
//	import ggdb "github.com/yggai/ygggo_db"
//
//	builder, err := ggdb.NewBuilder("sqlite", "file:app.db", ggdb.Options{})
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer builder.Close()
//
//	err = builder.Transact(ctx, func(db *ggdb.Database) error {
//		_, err := db.Insert("insert into users (name, active) values (:name, :active)").
//			Name("name", "Alice").
//			Name("active", true).
//			Insert(ctx)
//		return err
//	})
//
// For runnable examples, see the examples/ directory in the repository.
package ygggo_db

// Version returns the current library version.
func Version() string { return "v0.0.0-dev" }
