package ygggo_db

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdaptArg_NullSafety(t *testing.T) {
	f := FlavorGeneric
	for _, v := range []any{
		nil,
		(*bool)(nil),
		(*int32)(nil),
		(*int64)(nil),
		(*float32)(nil),
		(*float64)(nil),
		(*decimal.Decimal)(nil),
		(*string)(nil),
		(*Clob)(nil),
		(*time.Time)(nil),
		Blob(nil),
		[]byte(nil),
		ClobReader{},
		BlobReader{},
	} {
		got, err := adaptArg(f, nil, v)
		require.NoError(t, err)
		assert.Nil(t, got, "value %T should bind NULL", v)
	}
}

func TestAdaptArg_BooleanYN(t *testing.T) {
	got, err := adaptArg(FlavorGeneric, nil, true)
	require.NoError(t, err)
	assert.Equal(t, "Y", got)

	got, err = adaptArg(FlavorGeneric, nil, false)
	require.NoError(t, err)
	assert.Equal(t, "N", got)

	v := true
	got, err = adaptArg(FlavorGeneric, nil, &v)
	require.NoError(t, err)
	assert.Equal(t, "Y", got)
}

func TestAdaptArg_NumericWidening(t *testing.T) {
	got, err := adaptArg(FlavorGeneric, nil, int(5))
	require.NoError(t, err)
	assert.Equal(t, int64(5), got)

	got, err = adaptArg(FlavorGeneric, nil, int32(6))
	require.NoError(t, err)
	assert.Equal(t, int64(6), got)

	got, err = adaptArg(FlavorGeneric, nil, float32(1.5))
	require.NoError(t, err)
	assert.Equal(t, float64(1.5), got)
}

func TestAdaptArg_ClobPolicy(t *testing.T) {
	// generic binds clobs as strings
	got, err := adaptArg(FlavorGeneric, nil, Clob("long text"))
	require.NoError(t, err)
	assert.Equal(t, "long text", got)

	// oracle does not
	got, err = adaptArg(FlavorOracle, nil, Clob("long text"))
	require.NoError(t, err)
	assert.Equal(t, []byte("long text"), got)

	got, err = adaptArg(FlavorGeneric, nil, ClobReader{Reader: strings.NewReader("streamed")})
	require.NoError(t, err)
	assert.Equal(t, "streamed", got)
}

func TestAdaptArg_BlobPolicy(t *testing.T) {
	got, err := adaptArg(FlavorGeneric, nil, Blob{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, got)

	// oracle binds blobs as strings rather than bytes
	got, err = adaptArg(FlavorOracle, nil, Blob("abc"))
	require.NoError(t, err)
	assert.Equal(t, "abc", got)

	got, err = adaptArg(FlavorGeneric, nil, BlobReader{Reader: strings.NewReader("xyz")})
	require.NoError(t, err)
	assert.Equal(t, []byte("xyz"), got)
}

func TestAdaptArg_TimeTruncatedToMillis(t *testing.T) {
	in := time.Date(2025, 6, 1, 12, 0, 0, 123456789, time.UTC)
	got, err := adaptArg(FlavorGeneric, nil, in)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 6, 1, 12, 0, 0, 123000000, time.UTC), got)
}

func TestAdaptArg_DecimalBindsAsString(t *testing.T) {
	d := decimal.RequireFromString("10.25")
	got, err := adaptArg(FlavorGeneric, nil, d)
	require.NoError(t, err)
	assert.Equal(t, "10.25", got)
}

func TestAdaptArg_UnsupportedType(t *testing.T) {
	_, err := adaptArg(FlavorGeneric, nil, struct{ X int }{1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported argument type")
}

func TestKindOf_ClosedSet(t *testing.T) {
	cases := map[ArgKind]any{
		KindBool:       true,
		KindInt32:      int32(1),
		KindInt64:      int64(1),
		KindFloat32:    float32(1),
		KindFloat64:    float64(1),
		KindDecimal:    decimal.Zero,
		KindString:     "s",
		KindClobString: Clob("c"),
		KindClobReader: ClobReader{},
		KindBlobBytes:  Blob{},
		KindBlobReader: BlobReader{},
		KindTime:       time.Now(),
	}
	for want, v := range cases {
		got, err := kindOf(v)
		require.NoError(t, err)
		assert.Equal(t, want, got, "%T", v)
	}
	_, err := kindOf(map[string]int{})
	require.Error(t, err)
}

func TestResolveNowArgs(t *testing.T) {
	clock := func() time.Time { return time.Date(2025, 6, 1, 8, 0, 0, 999999999, time.UTC) }

	v := resolveNowArgs(FlavorPostgreSQL, clock, false, timeNowPerApp{})
	assert.Equal(t, time.Date(2025, 6, 1, 8, 0, 0, 999000000, time.UTC), v)

	v = resolveNowArgs(FlavorPostgreSQL, clock, false, timeNowPerDB{})
	assert.Equal(t, RewriteArg("now()"), v)

	// the single per-session policy forces the app clock everywhere
	v = resolveNowArgs(FlavorPostgreSQL, clock, true, timeNowPerDB{})
	assert.Equal(t, time.Date(2025, 6, 1, 8, 0, 0, 999000000, time.UTC), v)

	// non-sentinel values pass through untouched
	assert.Equal(t, 42, resolveNowArgs(FlavorPostgreSQL, clock, false, 42))
}

func TestYNRoundTrip(t *testing.T) {
	b, err := ynToBool("Y")
	require.NoError(t, err)
	assert.True(t, b)
	b, err = ynToBool("N")
	require.NoError(t, err)
	assert.False(t, b)
	_, err = ynToBool("1")
	require.Error(t, err)
}
