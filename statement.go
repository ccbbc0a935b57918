package ygggo_db

import (
	"context"
	"time"
)

// statement is the shared buffered state behind every statement kind: raw
// SQL, positional and named values, and the first builder error to surface
// at the terminal call (fluent chains cannot return errors).
type statement struct {
	s          *session
	kind       string
	sqlText    string
	positional []any
	named      map[string]any
	err        error
	executed   bool
}

func newStatement(s *session, kind, sqlText string) statement {
	return statement{s: s, kind: kind, sqlText: sqlText}
}

func (st *statement) addPositional(v any) {
	if st.guard() {
		return
	}
	if _, err := kindOf(v); err != nil {
		st.err = err
		return
	}
	st.positional = append(st.positional, v)
}

func (st *statement) addNamed(name string, v any) {
	if st.guard() {
		return
	}
	if _, err := kindOf(v); err != nil {
		st.err = err
		return
	}
	if st.named == nil {
		st.named = make(map[string]any)
	}
	st.named[cleanArgName(name)] = v
}

func (st *statement) fail(err error) {
	if st.err == nil {
		st.err = err
	}
}

// guard catches arg calls made after the terminal execute call.
func (st *statement) guard() bool {
	if st.err != nil {
		return true
	}
	if st.executed {
		st.err = rewriteError(newErrorCode(st.s.clock()),
			"argument supplied after the statement was executed")
		return true
	}
	return false
}

// rewriteAndBind resolves "now" sentinels, rewrites the SQL, and adapts the
// arguments to driver-bindable values. All failures here are rewrite
// errors, raised before any I/O.
func (st *statement) rewriteAndBind(code string) (ParsedStatement, []any, error) {
	if st.err != nil {
		if e, ok := st.err.(*Error); ok {
			return ParsedStatement{}, nil, e
		}
		return ParsedStatement{}, nil, rewriteError(code, "%s", st.err.Error())
	}
	clock := st.s.clock()
	flavor := st.s.flavor
	perAppOnly := st.s.opts.UseTimePerAppOnly

	positional := make([]any, len(st.positional))
	for i, v := range st.positional {
		positional[i] = resolveNowArgs(flavor, clock, perAppOnly, v)
	}
	var named map[string]any
	if len(st.named) > 0 {
		named = make(map[string]any, len(st.named))
		for n, v := range st.named {
			named[n] = resolveNowArgs(flavor, clock, perAppOnly, v)
		}
	}

	ps, err := rewriteSQL(st.sqlText, positional, named, code)
	if err != nil {
		return ParsedStatement{}, nil, err
	}
	bound, err := bindArgs(flavor, clock, ps.Args)
	if err != nil {
		return ParsedStatement{}, nil, rewriteError(code, "%s", err.Error())
	}
	return ps, bound, nil
}

// classify wraps a driver failure, distinguishing the ambiguous
// timeout/cancel condition from plain execution errors.
func (st *statement) classify(code string, ps ParsedStatement, bound []any, cause error, msg string) *Error {
	kind := ErrKindExecution
	if isTimeoutOrCancel(cause) {
		kind = ErrKindTimeout
	}
	e := &Error{Kind: kind, Code: code, cause: cause, msg: msg}
	if st.s.opts.DetailedExceptions {
		e.SQL = ps.SQL
		e.Params = bound
	}
	return e
}

// log emits exactly one line for a finished pipeline: success, warning for
// timeout/cancel, or error with the correlation code.
func (st *statement) log(ctx context.Context, code string, ps ParsedStatement, bound []any, m *Metric, err error) {
	st.s.b.logStatement(ctx, st.kind, code, ps.SQL, bound, m, err)
	st.s.b.recordStatement(ctx, st.kind, m.Elapsed(), err)
}

// withTimeout applies a statement-scoped timeout.
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d > 0 {
		return context.WithTimeout(ctx, d)
	}
	return context.WithCancel(ctx)
}
