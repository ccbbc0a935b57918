package ygggo_db

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRewrite_PositionalInOrder(t *testing.T) {
	ps, err := rewriteSQL("select a from t where b = ? and c = ? and d = ?",
		[]any{1, "two", 3.0}, nil, "test")
	require.NoError(t, err)
	assert.Equal(t, "select a from t where b = ? and c = ? and d = ?", ps.SQL)
	assert.Equal(t, []any{1, "two", 3.0}, ps.Args)
	assert.Equal(t, 3, strings.Count(ps.SQL, "?"))
}

func TestRewrite_NamedByName(t *testing.T) {
	ps, err := rewriteSQL("update t set a = :a where id = :id",
		nil, map[string]any{"a": "x", "id": int64(7)}, "test")
	require.NoError(t, err)
	assert.Equal(t, "update t set a = ? where id = ?", ps.SQL)
	assert.Equal(t, []any{"x", int64(7)}, ps.Args)
}

func TestRewrite_MixedModes(t *testing.T) {
	ps, err := rewriteSQL("select * from t where a = ? and b = :b and c = ?",
		[]any{1, 3}, map[string]any{"b": 2}, "test")
	require.NoError(t, err)
	assert.Equal(t, "select * from t where a = ? and b = ? and c = ?", ps.SQL)
	assert.Equal(t, []any{1, 2, 3}, ps.Args)
}

func TestRewrite_Escapes(t *testing.T) {
	ps, err := rewriteSQL("select 'a??b' from t where c = 'x::y'", nil, nil, "test")
	require.NoError(t, err)
	assert.Equal(t, "select 'a?b' from t where c = 'x:y'", ps.SQL)
	assert.Empty(t, ps.Args)
}

func TestRewrite_EscapeProducesNoBindSite(t *testing.T) {
	ps, err := rewriteSQL("select col::text from t where a = ?", []any{5}, nil, "test")
	require.NoError(t, err)
	assert.Equal(t, "select col:text from t where a = ?", ps.SQL)
	assert.Equal(t, []any{5}, ps.Args)
}

func TestRewrite_RewriteArgSplicesVerbatim(t *testing.T) {
	ps, err := rewriteSQL("insert into t (id, at) values (?, :at)",
		[]any{RewriteArg("seq_t.nextval")}, map[string]any{"at": RewriteArg("sysdate")}, "test")
	require.NoError(t, err)
	assert.Equal(t, "insert into t (id, at) values (seq_t.nextval, sysdate)", ps.SQL)
	assert.Empty(t, ps.Args)
}

func TestRewrite_MissingNamedParameter(t *testing.T) {
	_, err := rewriteSQL("select * from t where a = :missing", nil, map[string]any{"other": 1}, "test")
	require.Error(t, err)
	var e *Error
	require.True(t, errors.As(err, &e))
	assert.Equal(t, ErrKindRewrite, e.Kind)
	assert.Contains(t, err.Error(), `"missing"`)
}

func TestRewrite_UnusedNamedParameter(t *testing.T) {
	_, err := rewriteSQL("select * from t where a = :a",
		nil, map[string]any{"a": 1, "typo": 2, "zz": 3}, "test")
	require.Error(t, err)
	var e *Error
	require.True(t, errors.As(err, &e))
	assert.Equal(t, ErrKindRewrite, e.Kind)
	assert.Contains(t, err.Error(), "typo, zz")
}

func TestRewrite_PositionalCountMismatch(t *testing.T) {
	_, err := rewriteSQL("select * from t where a = ?", []any{1, 2}, nil, "test")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "consumed 1, supplied 2")

	_, err = rewriteSQL("select * from t where a = ? and b = ?", []any{1}, nil, "test")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "positional")
}

func TestRewrite_TrailingTokensTolerated(t *testing.T) {
	// a ? as the very last character is still a bind site
	ps, err := rewriteSQL("select a from t where b = ?", []any{1}, nil, "test")
	require.NoError(t, err)
	assert.Equal(t, "select a from t where b = ?", ps.SQL)
	assert.Equal(t, []any{1}, ps.Args)

	ps, err = rewriteSQL("select 1 ?", []any{9}, nil, "test")
	require.NoError(t, err)
	assert.Equal(t, "select 1 ?", ps.SQL)
	assert.Equal(t, []any{9}, ps.Args)

	// a trailing : has no room for an identifier; end the scan instead of
	// crashing
	ps, err = rewriteSQL("select 1 :", nil, nil, "test")
	require.NoError(t, err)
	assert.Equal(t, "select 1 :", ps.SQL)
	assert.Empty(t, ps.Args)
}

func TestRewrite_LoneColonBeforeNonIdentifier(t *testing.T) {
	ps, err := rewriteSQL("select a : b from t", nil, nil, "test")
	require.NoError(t, err)
	assert.Equal(t, "select a : b from t", ps.SQL)
}

func TestRewrite_NameIsMaximalIdentifierRun(t *testing.T) {
	ps, err := rewriteSQL("select * from t where a = :a_1b)", nil, map[string]any{"a_1b": 5}, "test")
	require.NoError(t, err)
	assert.Equal(t, "select * from t where a = ?)", ps.SQL)
	assert.Equal(t, []any{5}, ps.Args)
}

func TestRewrite_NameComparisonCaseSensitive(t *testing.T) {
	_, err := rewriteSQL("select * from t where a = :Name", nil, map[string]any{"name": 1}, "test")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"Name"`)
}

func TestRewrite_SameNameUsedTwice(t *testing.T) {
	ps, err := rewriteSQL("select * from t where a = :x or b = :x", nil, map[string]any{"x": 7}, "test")
	require.NoError(t, err)
	assert.Equal(t, "select * from t where a = ? or b = ?", ps.SQL)
	assert.Equal(t, []any{7, 7}, ps.Args)
}

func TestRewrite_Deterministic(t *testing.T) {
	for i := 0; i < 3; i++ {
		ps, err := rewriteSQL("select ?, :n", []any{1}, map[string]any{"n": 2}, "test")
		require.NoError(t, err)
		assert.Equal(t, "select ?, ?", ps.SQL)
		assert.Equal(t, []any{1, 2}, ps.Args)
	}
}
