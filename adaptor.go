package ygggo_db

import (
	"fmt"
	"io"
	"time"

	"github.com/shopspring/decimal"
)

// ArgKind is the closed set of typed argument kinds accepted by the
// builders. Anything outside this set is rejected before any I/O.
type ArgKind int

const (
	KindBool ArgKind = iota
	KindInt32
	KindInt64
	KindFloat32
	KindFloat64
	KindDecimal
	KindString
	KindClobString
	KindClobReader
	KindBlobBytes
	KindBlobReader
	KindTime
	KindTimeNowPerApp
	KindTimeNowPerDB
)

// Clob marks a string argument as a character large object, so the
// flavor's clob binding policy applies instead of plain string binding.
type Clob string

// ClobReader supplies clob content from a reader. A nil Reader binds NULL.
type ClobReader struct{ Reader io.Reader }

// Blob marks a byte slice as a binary large object. A nil slice binds NULL.
type Blob []byte

// BlobReader supplies blob content from a reader. A nil Reader binds NULL.
type BlobReader struct{ Reader io.Reader }

// kindOf resolves a caller-supplied value to its argument kind. The type
// switch is the closed sum over supported Go types; pointer forms carry
// nullability.
func kindOf(v any) (ArgKind, error) {
	switch v.(type) {
	case bool, *bool:
		return KindBool, nil
	case int, int32, *int32:
		return KindInt32, nil
	case int64, *int64:
		return KindInt64, nil
	case float32, *float32:
		return KindFloat32, nil
	case float64, *float64:
		return KindFloat64, nil
	case decimal.Decimal, *decimal.Decimal:
		return KindDecimal, nil
	case string, *string:
		return KindString, nil
	case Clob, *Clob:
		return KindClobString, nil
	case ClobReader:
		return KindClobReader, nil
	case Blob, []byte:
		return KindBlobBytes, nil
	case BlobReader:
		return KindBlobReader, nil
	case time.Time, *time.Time:
		return KindTime, nil
	case timeNowPerApp:
		return KindTimeNowPerApp, nil
	case timeNowPerDB:
		return KindTimeNowPerDB, nil
	case RewriteArg:
		// spliced, not bound; kind is irrelevant but legal
		return KindString, nil
	case nil:
		return KindString, nil
	default:
		return 0, fmt.Errorf("unsupported argument type %T", v)
	}
}

// adaptArg converts one typed value to a driver-bindable value. Nulls are
// always legal and bind as nil. Booleans follow the one-character "Y"/"N"
// convention. Clobs bind as string or []byte per the flavor's
// UseStringForClob flag; blobs as []byte or string per UseBytesForBlob.
func adaptArg(f Flavor, clock func() time.Time, v any) (any, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case bool:
		return boolToYN(x), nil
	case *bool:
		if x == nil {
			return nil, nil
		}
		return boolToYN(*x), nil
	case int:
		return int64(x), nil
	case int32:
		return int64(x), nil
	case *int32:
		if x == nil {
			return nil, nil
		}
		return int64(*x), nil
	case int64:
		return x, nil
	case *int64:
		if x == nil {
			return nil, nil
		}
		return *x, nil
	case float32:
		return float64(x), nil
	case *float32:
		if x == nil {
			return nil, nil
		}
		return float64(*x), nil
	case float64:
		return x, nil
	case *float64:
		if x == nil {
			return nil, nil
		}
		return *x, nil
	case decimal.Decimal:
		return x.String(), nil
	case *decimal.Decimal:
		if x == nil {
			return nil, nil
		}
		return x.String(), nil
	case string:
		return x, nil
	case *string:
		if x == nil {
			return nil, nil
		}
		return *x, nil
	case Clob:
		if f.UseStringForClob() {
			return string(x), nil
		}
		return []byte(x), nil
	case *Clob:
		if x == nil {
			return nil, nil
		}
		return adaptArg(f, clock, *x)
	case ClobReader:
		if x.Reader == nil {
			return nil, nil
		}
		b, err := io.ReadAll(x.Reader)
		if err != nil {
			return nil, fmt.Errorf("reading clob argument: %w", err)
		}
		if f.UseStringForClob() {
			return string(b), nil
		}
		return b, nil
	case Blob:
		return adaptBlob(f, []byte(x)), nil
	case []byte:
		return adaptBlob(f, x), nil
	case BlobReader:
		if x.Reader == nil {
			return nil, nil
		}
		b, err := io.ReadAll(x.Reader)
		if err != nil {
			return nil, fmt.Errorf("reading blob argument: %w", err)
		}
		return adaptBlob(f, b), nil
	case time.Time:
		return x.Truncate(time.Millisecond), nil
	case *time.Time:
		if x == nil {
			return nil, nil
		}
		return x.Truncate(time.Millisecond), nil
	default:
		return nil, fmt.Errorf("unsupported argument type %T", v)
	}
}

func adaptBlob(f Flavor, b []byte) any {
	if b == nil {
		return nil
	}
	if f.UseBytesForBlob() {
		return b
	}
	return string(b)
}

func boolToYN(b bool) string {
	if b {
		return "Y"
	}
	return "N"
}

func ynToBool(s string) (bool, error) {
	switch s {
	case "Y":
		return true, nil
	case "N":
		return false, nil
	}
	return false, fmt.Errorf("invalid stored boolean %q: want \"Y\" or \"N\"", s)
}

// resolveNowArgs replaces the per-app/per-db "now" sentinels before the
// rewrite pass. Per-db now splices the flavor's expression as a RewriteArg
// unless the session is configured to use the app clock for everything
// (single per-session policy).
func resolveNowArgs(f Flavor, clock func() time.Time, perAppOnly bool, v any) any {
	switch v.(type) {
	case timeNowPerApp:
		return appNow(clock)
	case timeNowPerDB:
		if perAppOnly {
			return appNow(clock)
		}
		return RewriteArg(f.DBNow())
	}
	return v
}

// bindArgs adapts an argument slice produced by the rewriter into its final
// driver-bindable form.
func bindArgs(f Flavor, clock func() time.Time, args []any) ([]any, error) {
	if len(args) == 0 {
		return nil, nil
	}
	out := make([]any, len(args))
	for i, v := range args {
		a, err := adaptArg(f, clock, v)
		if err != nil {
			return nil, err
		}
		out[i] = a
	}
	return out, nil
}
