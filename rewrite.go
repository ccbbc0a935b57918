package ygggo_db

import (
	"sort"
	"strings"
	"time"
)

// RewriteArg is a bound "argument" spliced verbatim into the statement text
// instead of being driver-bound. Used for server-side expressions such as
// now() or a sequence next-value.
type RewriteArg string

// ParsedStatement is the driver-ready output of the rewriter: SQL with all
// parameters as ?, plus the bound values in left-to-right order.
type ParsedStatement struct {
	SQL  string
	Args []any
}

// rewriteSQL scans raw SQL for :name and ? tokens and produces a
// ParsedStatement. Positional values are consumed in order; named values
// are matched case-sensitively. "??" escapes a literal ?, "::" escapes a
// literal :. RewriteArg values are spliced into the text with no bind site.
//
// Pure function of its inputs; all failures are rewrite errors raised
// before any I/O.
func rewriteSQL(raw string, positional []any, named map[string]any, code string) (ParsedStatement, error) {
	var out strings.Builder
	out.Grow(len(raw))
	var args []any
	posUsed := 0
	namedUsed := make(map[string]bool, len(named))

	i := 0
	for i < len(raw) {
		ch := raw[i]
		if ch != '?' && ch != ':' {
			out.WriteByte(ch)
			i++
			continue
		}
		// trailing : with no room for an identifier: tolerate malformed SQL.
		// A trailing ? needs nothing after it and stays a bind site.
		if ch == ':' && i == len(raw)-1 {
			out.WriteByte(ch)
			break
		}
		if i+1 < len(raw) && raw[i+1] == ch {
			// ?? or :: escape
			out.WriteByte(ch)
			i += 2
			continue
		}
		if ch == '?' {
			if posUsed >= len(positional) {
				return ParsedStatement{}, rewriteError(code,
					"not enough positional parameters: needed more than the %d supplied", len(positional))
			}
			v := positional[posUsed]
			posUsed++
			if ra, ok := v.(RewriteArg); ok {
				out.WriteString(string(ra))
			} else {
				out.WriteByte('?')
				args = append(args, v)
			}
			i++
			continue
		}
		// named parameter: maximal identifier run after ':'
		j := i + 1
		for j < len(raw) && isIdentChar(raw[j]) {
			j++
		}
		if j == i+1 {
			// lone ':' before a non-identifier, keep it
			out.WriteByte(ch)
			i++
			continue
		}
		name := raw[i+1 : j]
		v, ok := named[name]
		if !ok {
			return ParsedStatement{}, rewriteError(code, "missing named parameter %q", name)
		}
		namedUsed[name] = true
		if ra, ok := v.(RewriteArg); ok {
			out.WriteString(string(ra))
		} else {
			out.WriteByte('?')
			args = append(args, v)
		}
		i = j
	}

	if posUsed != len(positional) {
		return ParsedStatement{}, rewriteError(code,
			"wrong number of positional parameters: consumed %d, supplied %d", posUsed, len(positional))
	}
	if len(namedUsed) != len(named) {
		unused := make([]string, 0, len(named)-len(namedUsed))
		for n := range named {
			if !namedUsed[n] {
				unused = append(unused, n)
			}
		}
		sort.Strings(unused)
		return ParsedStatement{}, rewriteError(code,
			"named parameters never referenced by the SQL: %s", strings.Join(unused, ", "))
	}
	return ParsedStatement{SQL: out.String(), Args: args}, nil
}

func isIdentChar(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '_'
}

// timeNowPerApp and timeNowPerDB are sentinel argument values created by
// the ArgNow*/NameNow* builder methods; the adaptor resolves them at bind
// time against the session clock or the flavor's db-side now expression.
type timeNowPerApp struct{}

type timeNowPerDB struct{}

func appNow(clock func() time.Time) time.Time {
	if clock == nil {
		clock = time.Now
	}
	return clock().Truncate(time.Millisecond)
}
