package ygggo_db

import (
	"database/sql"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// Rows decodes driver result values into typed, null-aware getters. It is a
// finite, single-pass cursor: Next advances, getters read the current row
// by 0-based column index.
//
// Getters record the first conversion error and return zero values
// afterwards; the executor surfaces it after the row handler finishes
// (bufio.Scanner style), so handler code stays free of error plumbing.
type Rows struct {
	rows    *sql.Rows
	cols    []string
	vals    []any
	scan    []any
	maxRows int // 0 means unlimited
	seen    int
	err     error
}

func newRows(rs *sql.Rows, maxRows int) (*Rows, error) {
	cols, err := rs.Columns()
	if err != nil {
		return nil, err
	}
	r := &Rows{rows: rs, cols: cols, maxRows: maxRows}
	r.vals = make([]any, len(cols))
	r.scan = make([]any, len(cols))
	for i := range r.vals {
		r.scan[i] = &r.vals[i]
	}
	return r, nil
}

// Next advances to the next row, honoring the max-row cap.
func (r *Rows) Next() bool {
	if r.err != nil {
		return false
	}
	if r.maxRows > 0 && r.seen >= r.maxRows {
		return false
	}
	if !r.rows.Next() {
		return false
	}
	if err := r.rows.Scan(r.scan...); err != nil {
		r.err = err
		return false
	}
	r.seen++
	return true
}

// Err returns the first error recorded by Next or any getter.
func (r *Rows) Err() error {
	if r.err != nil {
		return r.err
	}
	return r.rows.Err()
}

// Columns returns the result column names.
func (r *Rows) Columns() []string { return r.cols }

// ColumnIndex returns the 0-based index of the named column, or -1.
func (r *Rows) ColumnIndex(name string) int {
	for i, c := range r.cols {
		if c == name {
			return i
		}
	}
	return -1
}

func (r *Rows) value(col int) (any, bool) {
	if r.err != nil {
		return nil, false
	}
	if col < 0 || col >= len(r.vals) {
		r.err = fmt.Errorf("column index %d out of range (result has %d columns)", col, len(r.vals))
		return nil, false
	}
	return r.vals[col], true
}

func (r *Rows) setErr(col int, err error) {
	if r.err == nil {
		r.err = fmt.Errorf("column %d: %w", col, err)
	}
}

// StringOrNull returns the column as *string, nil when SQL NULL.
func (r *Rows) StringOrNull(col int) *string {
	v, ok := r.value(col)
	if !ok || v == nil {
		return nil
	}
	s, err := toString(v)
	if err != nil {
		r.setErr(col, err)
		return nil
	}
	return &s
}

// StringOrEmpty returns the column as string, "" when SQL NULL.
func (r *Rows) StringOrEmpty(col int) string {
	if s := r.StringOrNull(col); s != nil {
		return *s
	}
	return ""
}

// BoolOrNull decodes the "Y"/"N" one-character boolean convention; any
// other stored value is an error.
func (r *Rows) BoolOrNull(col int) *bool {
	v, ok := r.value(col)
	if !ok || v == nil {
		return nil
	}
	s, err := toString(v)
	if err != nil {
		r.setErr(col, err)
		return nil
	}
	b, err := ynToBool(s)
	if err != nil {
		r.setErr(col, err)
		return nil
	}
	return &b
}

// BoolOrFalse returns the boolean column, false when NULL.
func (r *Rows) BoolOrFalse(col int) bool {
	if b := r.BoolOrNull(col); b != nil {
		return *b
	}
	return false
}

// BoolOrTrue returns the boolean column, true when NULL.
func (r *Rows) BoolOrTrue(col int) bool {
	if b := r.BoolOrNull(col); b != nil {
		return *b
	}
	return true
}

// Int32OrNull returns the column as *int32, nil when SQL NULL.
func (r *Rows) Int32OrNull(col int) *int32 {
	v, ok := r.value(col)
	if !ok || v == nil {
		return nil
	}
	n, err := toInt64(v)
	if err != nil {
		r.setErr(col, err)
		return nil
	}
	if n < math.MinInt32 || n > math.MaxInt32 {
		r.setErr(col, fmt.Errorf("value %d overflows int32", n))
		return nil
	}
	n32 := int32(n)
	return &n32
}

// Int32OrZero returns the column as int32, 0 when SQL NULL.
func (r *Rows) Int32OrZero(col int) int32 {
	if n := r.Int32OrNull(col); n != nil {
		return *n
	}
	return 0
}

// Int64OrNull returns the column as *int64, nil when SQL NULL.
func (r *Rows) Int64OrNull(col int) *int64 {
	v, ok := r.value(col)
	if !ok || v == nil {
		return nil
	}
	n, err := toInt64(v)
	if err != nil {
		r.setErr(col, err)
		return nil
	}
	return &n
}

// Int64OrZero returns the column as int64, 0 when SQL NULL.
func (r *Rows) Int64OrZero(col int) int64 {
	if n := r.Int64OrNull(col); n != nil {
		return *n
	}
	return 0
}

// Float64OrNull returns the column as *float64, nil when SQL NULL.
func (r *Rows) Float64OrNull(col int) *float64 {
	v, ok := r.value(col)
	if !ok || v == nil {
		return nil
	}
	f, err := toFloat64(v)
	if err != nil {
		r.setErr(col, err)
		return nil
	}
	return &f
}

// Float64OrZero returns the column as float64, 0 when SQL NULL.
func (r *Rows) Float64OrZero(col int) float64 {
	if f := r.Float64OrNull(col); f != nil {
		return *f
	}
	return 0
}

// DecimalOrNull returns the column as a scale-normalized decimal, nil when
// SQL NULL. Trailing zero fractional digits are stripped; the scale never
// goes below zero (some drivers zero-pad decimals to the full declared
// precision, which breaks equality and display).
func (r *Rows) DecimalOrNull(col int) *decimal.Decimal {
	v, ok := r.value(col)
	if !ok || v == nil {
		return nil
	}
	d, err := toDecimal(v)
	if err != nil {
		r.setErr(col, err)
		return nil
	}
	d = normalizeScale(d)
	return &d
}

// DecimalOrZero returns the normalized decimal, zero when SQL NULL.
func (r *Rows) DecimalOrZero(col int) decimal.Decimal {
	if d := r.DecimalOrNull(col); d != nil {
		return *d
	}
	return decimal.Zero
}

// TimeOrNull returns the column truncated to whole milliseconds, nil when
// SQL NULL. Sub-millisecond precision is discarded, never rounded, so
// in-memory times only ever carry millisecond resolution.
func (r *Rows) TimeOrNull(col int) *time.Time {
	v, ok := r.value(col)
	if !ok || v == nil {
		return nil
	}
	t, err := toTime(v)
	if err != nil {
		r.setErr(col, err)
		return nil
	}
	t = t.Truncate(time.Millisecond)
	return &t
}

// BytesOrNull returns the blob column, nil when SQL NULL.
func (r *Rows) BytesOrNull(col int) []byte {
	v, ok := r.value(col)
	if !ok || v == nil {
		return nil
	}
	switch x := v.(type) {
	case []byte:
		out := make([]byte, len(x))
		copy(out, x)
		return out
	case string:
		return []byte(x)
	}
	r.setErr(col, fmt.Errorf("cannot decode %T as bytes", v))
	return nil
}

// normalizeScale strips trailing zero fractional digits; if stripping would
// drive the scale negative it clamps back at zero.
func normalizeScale(d decimal.Decimal) decimal.Decimal {
	for d.Exponent() < 0 {
		t := d.Truncate(-d.Exponent() - 1)
		if !t.Equal(d) {
			break
		}
		d = t
	}
	return d
}

func toString(v any) (string, error) {
	switch x := v.(type) {
	case string:
		return x, nil
	case []byte:
		return string(x), nil
	}
	return "", fmt.Errorf("cannot decode %T as string", v)
}

func toInt64(v any) (int64, error) {
	switch x := v.(type) {
	case int64:
		return x, nil
	case int32:
		return int64(x), nil
	case int:
		return int64(x), nil
	case float64:
		return int64(x), nil
	case []byte:
		return strconv.ParseInt(string(x), 10, 64)
	case string:
		return strconv.ParseInt(x, 10, 64)
	}
	return 0, fmt.Errorf("cannot decode %T as int64", v)
}

func toFloat64(v any) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case []byte:
		return strconv.ParseFloat(string(x), 64)
	case string:
		return strconv.ParseFloat(x, 64)
	}
	return 0, fmt.Errorf("cannot decode %T as float64", v)
}

func toDecimal(v any) (decimal.Decimal, error) {
	switch x := v.(type) {
	case string:
		return decimal.NewFromString(x)
	case []byte:
		return decimal.NewFromString(string(x))
	case int64:
		return decimal.NewFromInt(x), nil
	case float64:
		return decimal.NewFromFloat(x), nil
	}
	return decimal.Zero, fmt.Errorf("cannot decode %T as decimal", v)
}

func toTime(v any) (time.Time, error) {
	switch x := v.(type) {
	case time.Time:
		return x, nil
	case string:
		return parseTime(x)
	case []byte:
		return parseTime(string(x))
	case int64:
		// epoch milliseconds
		return time.UnixMilli(x), nil
	}
	return time.Time{}, fmt.Errorf("cannot decode %T as time", v)
}

var timeLayouts = []string{
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	time.RFC3339Nano,
	"2006-01-02",
}

func parseTime(s string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot decode %q as time", s)
}
