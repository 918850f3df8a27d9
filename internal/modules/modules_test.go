package modules

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toddmeinershagen/scriptcs/internal/engine"
	"github.com/toddmeinershagen/scriptcs/internal/testutil"
)

func TestMetadata_ExtensionList(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"empty", "", nil},
		{"single", "gos", []string{"gos"}},
		{"multiple", "gos,star", []string{"gos", "star"}},
		{"spaces and blanks", " gos , , star ", []string{"gos", "star"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := Metadata{Extensions: tt.in}
			assert.Equal(t, tt.want, m.ExtensionList())
		})
	}
}

func TestMatches(t *testing.T) {
	tests := []struct {
		name      string
		meta      Metadata
		extension string
		reqName   string
		want      bool
	}{
		{"extension token match", Metadata{Name: "m1", Extensions: "gos,star"}, "star", "", true},
		{"extension no match", Metadata{Name: "m1", Extensions: "gos"}, "star", "", false},
		{"name exact match", Metadata{Name: "m2", Extensions: ""}, "", "m2", true},
		{"name mismatch", Metadata{Name: "m2"}, "", "m3", false},
		{"either side matches", Metadata{Name: "m3", Extensions: "gos"}, "gos", "other", true},
		{"empty extensions never match", Metadata{Name: "m4", Extensions: ""}, "gos", "", false},
		{"empty name never matches", Metadata{Extensions: "gos"}, "", "", false},
		{"empty request never matches", Metadata{Name: "m5", Extensions: "gos"}, "", "", false},
		{"substring is not a token", Metadata{Extensions: "gosx"}, "gos", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Matches(tt.meta, tt.extension, tt.reqName))
		})
	}
}

// writePack creates a module pack directory under dir.
func writePack(t *testing.T, dir, name, manifest string) string {
	t.Helper()
	packDir := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(packDir, 0750))
	path := filepath.Join(packDir, ManifestName)
	require.NoError(t, os.WriteFile(path, []byte(manifest), 0600))
	return path
}

func TestGlobResolver(t *testing.T) {
	dir := t.TempDir()
	p1 := writePack(t, dir, "alpha", "name: alpha\n")
	p2 := writePack(t, dir, "beta", "name: beta\n")
	// A subdirectory without a manifest is skipped.
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "empty"), 0750))

	paths, err := GlobResolver{}.Paths(dir)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{p1, p2}, paths)
}

func TestGlobResolver_MissingDir(t *testing.T) {
	paths, err := GlobResolver{}.Paths(filepath.Join(t.TempDir(), "nope"))
	require.NoError(t, err)
	assert.Empty(t, paths)
}

// recordingResolver counts invocations and records the directory it
// was asked to resolve.
type recordingResolver struct {
	calls int
	dirs  []string
	paths []string
	err   error
}

func (r *recordingResolver) Paths(dir string) ([]string, error) {
	r.calls++
	r.dirs = append(r.dirs, dir)
	return r.paths, r.err
}

func TestLoader_ResolverContract(t *testing.T) {
	dir := t.TempDir()
	p1 := writePack(t, dir, "alpha", "name: alpha\nextensions: gos\n")
	p2 := writePack(t, dir, "beta", "name: beta\nextensions: star\n")

	resolver := &recordingResolver{paths: []string{p1, p2}}
	var seen []string
	l := NewLoader(dir,
		WithResolver(resolver),
		WithPathHook(func(path string) { seen = append(seen, path) }),
		WithLogger(testutil.NewTestLogger(t)),
	)

	require.NoError(t, l.Load())

	assert.Equal(t, 1, resolver.calls, "resolver runs exactly once per load")
	assert.Equal(t, []string{dir}, resolver.dirs, "resolver receives the configured directory")
	assert.Equal(t, []string{p1, p2}, seen, "hook fires once per resolved path")
	_, ok := findCandidate(l, "alpha")
	assert.True(t, ok)
	_, ok = findCandidate(l, "beta")
	assert.True(t, ok)
}

// findCandidate looks a candidate up by name, skipping registry
// builtins other tests may have added.
func findCandidate(l *Loader, name string) (Candidate, bool) {
	for _, c := range l.Candidates() {
		if c.Meta.Name == name {
			return c, true
		}
	}
	return Candidate{}, false
}

func TestLoader_ResolverError(t *testing.T) {
	boom := errors.New("scan failed")
	l := NewLoader("whatever", WithResolver(&recordingResolver{err: boom}))
	require.ErrorIs(t, l.Load(), boom)
}

func TestLoader_InvalidManifest(t *testing.T) {
	dir := t.TempDir()
	writePack(t, dir, "broken", "\tname: tab-indented\n")

	l := NewLoader(dir)
	err := l.Load()
	require.Error(t, err)
	var me *ManifestError
	require.ErrorAs(t, err, &me)
}

func TestPack_Initialize(t *testing.T) {
	dir := t.TempDir()
	packDir := filepath.Join(dir, "webpack")
	require.NoError(t, os.MkdirAll(packDir, 0750))
	require.NoError(t, os.WriteFile(filepath.Join(packDir, "setup.gos"), []byte("x := 1"), 0600))
	manifest := `name: webpack
extensions: gos
imports:
  - net/http
references:
  - lib/helpers.go
scripts:
  - setup.gos
`
	require.NoError(t, os.WriteFile(filepath.Join(packDir, ManifestName), []byte(manifest), 0600))

	l := NewLoader(dir)
	require.NoError(t, l.Load())

	cand, ok := findCandidate(l, "webpack")
	require.True(t, ok)
	assert.Equal(t, []string{"gos"}, cand.Meta.ExtensionList())

	b := engine.NewBuilder()
	require.NoError(t, cand.Module.Initialize(b, false, false))

	// The builder output is observable through the executor config it
	// produces; a fake compiler keeps this a pure wiring check.
	fc := &countingCompiler{}
	exec, err := b.WithCompiler(fc).Build()
	require.NoError(t, err)

	sc := engine.NewScriptContext()
	res, err := exec.Execute("", nil, engine.References{}, nil, sc)
	require.NoError(t, err)
	require.False(t, res.IsError(), "res: %v", res)

	sess := fc.sessions[0]
	assert.Equal(t, []string{filepath.Join(packDir, "lib/helpers.go")}, sess.loaded)
	require.Len(t, sess.imports, 1)
	assert.Equal(t, []string{"net/http"}, sess.imports[0])
	assert.Equal(t, []string{"x := 1"}, sess.compiled, "preload script contents are compiled in")
}

func TestPack_InitializeMissingScript(t *testing.T) {
	dir := t.TempDir()
	writePack(t, dir, "ghost", "name: ghost\nscripts:\n  - missing.gos\n")

	l := NewLoader(dir)
	require.NoError(t, l.Load())
	cand, ok := findCandidate(l, "ghost")
	require.True(t, ok)

	b := engine.NewBuilder()
	err := cand.Module.Initialize(b, false, false)
	require.Error(t, err)
	var me *ManifestError
	require.ErrorAs(t, err, &me)
}

// trackingModule counts Initialize calls.
type trackingModule struct {
	meta  Metadata
	inits int
	debug bool
	repl  bool
}

func (m *trackingModule) Metadata() Metadata { return m.meta }

func (m *trackingModule) Initialize(_ *engine.Builder, debug, repl bool) error {
	m.inits++
	m.debug = debug
	m.repl = repl
	return nil
}

func TestLoader_ActivateOncePerMatch(t *testing.T) {
	m1 := &trackingModule{meta: Metadata{Name: "m1", Extensions: "gos"}}
	m2 := &trackingModule{meta: Metadata{Name: "m2", Extensions: "star"}}
	m3 := &trackingModule{meta: Metadata{Name: "m3"}}

	l := NewLoader(t.TempDir())
	require.NoError(t, l.Load())
	l.candidates = []Candidate{
		{Module: m1, Meta: m1.meta},
		{Module: m2, Meta: m2.meta},
		{Module: m3, Meta: m3.meta},
	}

	activated, err := l.Activate(engine.NewBuilder(), "gos", "m3", true, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"m1", "m3"}, activated)

	assert.Equal(t, 1, m1.inits, "matched by extension, initialized once")
	assert.Equal(t, 0, m2.inits, "unmatched module is not initialized")
	assert.Equal(t, 1, m3.inits, "matched by name, initialized once")
	assert.True(t, m1.debug)
	assert.False(t, m1.repl)
}

func TestRegistry_Builtins(t *testing.T) {
	before := len(Builtins())
	mod := &trackingModule{meta: Metadata{Name: "builtin-test"}}
	Register(mod)

	builtins := Builtins()
	require.Len(t, builtins, before+1)
	assert.Equal(t, "builtin-test", builtins[len(builtins)-1].Meta.Name)
}

// countingCompiler is a minimal in-memory capability for wiring
// checks.
type countingCompiler struct {
	sessions []*countingSession
}

func (c *countingCompiler) Name() string { return "counting" }

func (c *countingCompiler) Classify(src string) (*engine.ParsedCode, error) {
	return &engine.ParsedCode{}, nil
}

func (c *countingCompiler) NewSession(_ *engine.Host) (engine.Session, error) {
	s := &countingSession{}
	c.sessions = append(c.sessions, s)
	return s, nil
}

type countingSession struct {
	compiled []string
	loaded   []string
	imports  [][]string
}

type countingLibrary struct{ name string }

func (l countingLibrary) Name() string { return l.name }

func (s *countingSession) Compile(unit string) error {
	s.compiled = append(s.compiled, unit)
	return nil
}

func (s *countingSession) Evaluate(string) (any, bool, error) { return nil, false, nil }

func (s *countingSession) LoadLibrary(path string) (engine.Library, error) {
	s.loaded = append(s.loaded, path)
	return countingLibrary{name: path}, nil
}

func (s *countingSession) Reference(engine.Library) error { return nil }

func (s *countingSession) Import(paths []string) error {
	s.imports = append(s.imports, append([]string(nil), paths...))
	return nil
}

func (s *countingSession) VariableDump() (string, error) { return "", nil }
