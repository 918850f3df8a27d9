package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_ArgsAfterDashReachTheHost(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	script := filepath.Join(dir, "greet.go")
	src := `"got:" + scriptcs.Args()[0] + "," + scriptcs.Args()[1]`
	require.NoError(t, os.WriteFile(script, []byte(src), 0o600))

	var out, errOut bytes.Buffer
	root := NewRootCmd()
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs([]string{"run", script, "--", "alpha", "beta"})

	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "got:alpha,beta")
}

func TestRun_RequiresFileBeforeDash(t *testing.T) {
	t.Chdir(t.TempDir())

	root := NewRootCmd()
	root.SetOut(new(bytes.Buffer))
	root.SetErr(new(bytes.Buffer))
	root.SetArgs([]string{"run", "--", "alpha"})

	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "script file")
}
