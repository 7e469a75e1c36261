package commands

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/telnet2/go-practice/modsh/internal/config"
)

func runRoot(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})
	require.NoError(t, rootCmd.Execute())
	return out.String()
}

func TestDebugConfig(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "xdg"))
	for _, k := range []string{"MODSH_CONFIG", "MODSH_ENTRY", "MODSH_GOPATH", "MODSH_LOG_LEVEL",
		"MODSH_VERBOSE", "MODSH_NO_COLOR", "MODSH_PRINT_LOGS", "MODSH_PORT", "MODSH_CORS_ORIGINS"} {
		t.Setenv(k, "")
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".modsh.jsonc"), []byte(`{
		// project settings
		"entry": "strings",
		"server": {"port": 9090},
	}`), 0o644))
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	out := runRoot(t, "debug", "config", "--gopath", "/tmp/gp")

	var cfg config.Config
	require.NoError(t, json.Unmarshal([]byte(out), &cfg))
	assert.Equal(t, "strings", cfg.Entry)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "/tmp/gp", cfg.GoPath)
}

func TestDebugPaths(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	out := runRoot(t, "debug", "paths")
	assert.Contains(t, out, filepath.Join(dir, "modsh"))
	assert.Contains(t, out, filepath.Join(dir, "modsh", "modsh.jsonc"))
}
