package ygggo_db

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	mysql "github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
)

// ErrKind classifies every failure surfaced by this package.
type ErrKind int

const (
	// ErrKindRewrite covers parameter problems detected before any I/O:
	// missing named parameter, unused named parameter, positional count
	// mismatch, unsupported argument type.
	ErrKindRewrite ErrKind = iota
	// ErrKindExecution wraps a driver failure during prepare/execute/fetch.
	ErrKindExecution
	// ErrKindRowCount is raised when an expected affected-row count check
	// fails. It is never folded into ErrKindExecution.
	ErrKindRowCount
	// ErrKindTimeout covers the ambiguous timeout-or-cancel condition some
	// drivers report for both statement timeouts and user cancellation.
	ErrKindTimeout
)

func (k ErrKind) String() string {
	switch k {
	case ErrKindRewrite:
		return "rewrite"
	case ErrKindExecution:
		return "execution"
	case ErrKindRowCount:
		return "rowcount"
	case ErrKindTimeout:
		return "timeout"
	}
	return "unknown"
}

// Error is the single error type surfaced by this package. Code is a short
// correlation code also present in the matching log line.
type Error struct {
	Kind   ErrKind
	Code   string
	SQL    string // only set when detailed exceptions are enabled
	Params []any  // only set when detailed exceptions are enabled
	cause  error
	msg    string
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("error ")
	b.WriteString(e.Code)
	b.WriteString(": ")
	b.WriteString(e.msg)
	if e.cause != nil {
		b.WriteString(": ")
		b.WriteString(e.cause.Error())
	}
	if e.SQL != "" {
		b.WriteString("\n  sql: ")
		b.WriteString(e.SQL)
	}
	if e.Params != nil {
		fmt.Fprintf(&b, "\n  params: %v", e.Params)
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.cause }

// newErrorCode returns a short, speakable correlation code built from a
// compact timestamp and a random integer, e.g. "240826.150412-8231".
func newErrorCode(now func() time.Time) string {
	if now == nil {
		now = time.Now
	}
	return fmt.Sprintf("%s-%d", now().Format("060102.150405"), rand.Intn(10000))
}

func rewriteError(code, format string, args ...any) *Error {
	return &Error{Kind: ErrKindRewrite, Code: code, msg: fmt.Sprintf(format, args...)}
}

// isTimeoutOrCancel reports whether err is the driver-specific ambiguous
// timeout/cancel condition. Context errors always count; otherwise the
// MySQL "query interrupted"/"max execution time" numbers and the
// PostgreSQL query_canceled SQLSTATE are recognized.
func isTimeoutOrCancel(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		switch me.Number {
		case 1317, 3024: // ER_QUERY_INTERRUPTED, ER_QUERY_TIMEOUT
			return true
		}
	}
	var pe *pq.Error
	if errors.As(err, &pe) {
		return pe.Code == "57014" // query_canceled
	}
	return false
}
