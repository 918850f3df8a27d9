package starscript

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toddmeinershagen/scriptcs/internal/engine"
	"github.com/toddmeinershagen/scriptcs/internal/testutil"
)

func newTestSession(t *testing.T, args ...string) engine.Session {
	t.Helper()
	c := NewCompiler(Options{Logger: testutil.NewTestLogger(t)})
	sess, err := c.NewSession(engine.NewHost(args, nil))
	require.NoError(t, err)
	return sess
}

func TestClassify_Empty(t *testing.T) {
	c := NewCompiler(Options{})
	parsed, err := c.Classify("   \n")
	require.NoError(t, err)
	assert.True(t, parsed.Empty())
}

func TestClassify_Buckets(t *testing.T) {
	c := NewCompiler(Options{})
	src := `limit = 10

def double(n):
    return n * 2

double(limit)`

	parsed, err := c.Classify(src)
	require.NoError(t, err)
	require.Len(t, parsed.Declarations, 1)
	assert.Equal(t, "limit = 10", parsed.Declarations[0])
	require.Len(t, parsed.Bodies, 1)
	assert.Contains(t, parsed.Bodies[0], "def double")
	assert.Empty(t, parsed.Prototypes, "starlark has no signature declarations")
	assert.Equal(t, "double(limit)", parsed.Evaluable)
}

func TestClassify_SyntaxError(t *testing.T) {
	c := NewCompiler(Options{})
	_, err := c.Classify("def broken(:\n")
	require.Error(t, err)
	var ce *engine.ClassifyError
	require.ErrorAs(t, err, &ce)
}

func TestSession_EvaluateExpression(t *testing.T) {
	sess := newTestSession(t)

	v, produced, err := sess.Evaluate("1 + 2")
	require.NoError(t, err)
	require.True(t, produced)
	assert.Equal(t, int64(3), v)
}

func TestSession_GlobalsPersist(t *testing.T) {
	sess := newTestSession(t)

	require.NoError(t, sess.Compile("x = 40"))
	require.NoError(t, sess.Compile("def add2(n):\n    return n + 2\n"))

	v, produced, err := sess.Evaluate("add2(x)")
	require.NoError(t, err)
	require.True(t, produced)
	assert.Equal(t, int64(42), v)
}

func TestSession_LaterChunksShadow(t *testing.T) {
	sess := newTestSession(t)

	require.NoError(t, sess.Compile("x = 1"))
	require.NoError(t, sess.Compile("x = 2"))

	v, _, err := sess.Evaluate("x")
	require.NoError(t, err)
	assert.Equal(t, int64(2), v)
}

func TestSession_NoneProducesNothing(t *testing.T) {
	sess := newTestSession(t)

	_, produced, err := sess.Evaluate("None")
	require.NoError(t, err)
	assert.False(t, produced)
}

func TestSession_StatementFallback(t *testing.T) {
	sess := newTestSession(t)

	// Not a single expression: runs as statements, produces no value.
	_, produced, err := sess.Evaluate("y = 5")
	require.NoError(t, err)
	assert.False(t, produced)

	v, _, err := sess.Evaluate("y")
	require.NoError(t, err)
	assert.Equal(t, int64(5), v)
}

func TestSession_EvalErrorTranslated(t *testing.T) {
	sess := newTestSession(t)

	_, _, err := sess.Evaluate(`fail("kaboom")`)
	require.Error(t, err)
	var we *engine.WrappedError
	require.ErrorAs(t, err, &we)
	assert.Contains(t, we.Cause.Error(), "kaboom")
}

func TestSession_Print(t *testing.T) {
	var lines []string
	c := NewCompiler(Options{Print: func(msg string) { lines = append(lines, msg) }})
	sess, err := c.NewSession(engine.NewHost(nil, nil))
	require.NoError(t, err)

	require.NoError(t, sess.Compile(`print("hello")`))
	assert.Equal(t, []string{"hello"}, lines)
}

func TestSession_ImportNamespaced(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "util.star")
	src := "def shout(s):\n    return s.upper()\n\n_private = 1\n"
	require.NoError(t, os.WriteFile(path, []byte(src), 0600))

	sess := newTestSession(t)
	require.NoError(t, sess.Import([]string{path}))

	v, produced, err := sess.Evaluate(`util.shout("hi")`)
	require.NoError(t, err)
	require.True(t, produced)
	assert.Equal(t, "HI", v)

	// Underscore names are not exported.
	_, _, err = sess.Evaluate("util._private")
	require.Error(t, err)
}

func TestSession_ReferenceLibrary(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "geo.star")
	require.NoError(t, os.WriteFile(path, []byte("def area(w, h):\n    return w * h\n"), 0600))

	sess := newTestSession(t)
	lib, err := sess.LoadLibrary(path)
	require.NoError(t, err)
	assert.Equal(t, "geo", lib.Name())
	require.NoError(t, sess.Reference(lib))

	v, _, err := sess.Evaluate("geo.area(6, 7)")
	require.NoError(t, err)
	assert.Equal(t, int64(42), v)
}

func TestSession_VariableDump(t *testing.T) {
	sess := newTestSession(t)

	dump, err := sess.VariableDump()
	require.NoError(t, err)
	assert.Empty(t, dump)

	require.NoError(t, sess.Compile("b = 2\na = 1"))
	dump, err = sess.VariableDump()
	require.NoError(t, err)
	assert.Equal(t, "a\nb", dump, "names sorted")
}

func TestSession_HostSurface(t *testing.T) {
	sess := newTestSession(t, "one", "two")

	v, produced, err := sess.Evaluate("scriptcs.args")
	require.NoError(t, err)
	require.True(t, produced)
	assert.Equal(t, []any{"one", "two"}, v)
}

func TestFromStarlark(t *testing.T) {
	sess := newTestSession(t)

	tests := []struct {
		expr string
		want any
	}{
		{"True", true},
		{`"s"`, "s"},
		{"7", int64(7)},
		{"1.5", 1.5},
		{"[1, 2]", []any{int64(1), int64(2)}},
		{"(1, 2)", []any{int64(1), int64(2)}},
		{`{"k": 1}`, map[string]any{"k": int64(1)}},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			v, produced, err := sess.Evaluate(tt.expr)
			require.NoError(t, err)
			require.True(t, produced)
			assert.Equal(t, tt.want, v)
		})
	}
}
