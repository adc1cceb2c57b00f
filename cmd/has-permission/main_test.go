package main

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// resetFlags restores every flag in the command tree to its default so that
// runs do not leak state into each other.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, child := range cmd.Commands() {
		resetFlags(child)
	}
}

type cliResult struct {
	code   int
	stdout string
	stderr string
}

func executeCommand(t *testing.T, stdin string, args ...string) cliResult {
	t.Helper()
	resetFlags(rootCmd)

	var stdout, stderr bytes.Buffer
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	t.Cleanup(func() {
		rootCmd.SetIn(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	})

	code := run(args)
	return cliResult{code: code, stdout: stdout.String(), stderr: stderr.String()}
}

// testEnv creates a config directory and returns the flags pointing at it.
func testEnv(t *testing.T, config string) (dir string, flags []string) {
	t.Helper()
	dir = t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte(config), 0o600))
	return dir, []string{
		"--config", configPath,
		"--grants", filepath.Join(dir, "grants.yaml"),
	}
}

func TestCheck_DisabledGrantsEverything(t *testing.T) {
	_, flags := testEnv(t, "")

	res := executeCommand(t, "", append([]string{"check", "fs.write", "/etc/passwd"}, flags...)...)
	assert.Equal(t, 0, res.code)
	assert.Equal(t, "granted\n", res.stdout)
}

func TestCheck_EnabledFromConfig(t *testing.T) {
	_, flags := testEnv(t, `
permission:
  enabled: true
grants:
  - scope: fs.read
    pattern: /srv/**
`)

	res := executeCommand(t, "", append([]string{"check", "fs.read", "/srv/app.yaml"}, flags...)...)
	assert.Equal(t, 0, res.code)
	assert.Equal(t, "granted\n", res.stdout)

	res = executeCommand(t, "", append([]string{"check", "fs.read", "/etc/passwd"}, flags...)...)
	assert.Equal(t, 1, res.code)
	assert.Equal(t, "denied\n", res.stdout)

	res = executeCommand(t, "", append([]string{"check", "fs.read"}, flags...)...)
	assert.Equal(t, 1, res.code)
}

func TestCheck_EnabledFromEnvironment(t *testing.T) {
	_, flags := testEnv(t, "")
	t.Setenv("HAS_PERMISSION_ENABLED", "true")

	res := executeCommand(t, "", append([]string{"check", "child"}, flags...)...)
	assert.Equal(t, 1, res.code)
	assert.Equal(t, "denied\n", res.stdout)

	res = executeCommand(t, "", append([]string{"check", "child", "--enabled=false"}, flags...)...)
	assert.Equal(t, 0, res.code)
}

func TestCheck_WrongArgCount(t *testing.T) {
	_, flags := testEnv(t, "")

	res := executeCommand(t, "", append([]string{"check"}, flags...)...)
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, "arg(s)")
}

func TestAssert(t *testing.T) {
	_, flags := testEnv(t, `
permission:
  enabled: true
grants:
  - scope: fs.write
    pattern: /tmp
`)

	res := executeCommand(t, "", append([]string{"assert", "fs.write", "/tmp/out"}, flags...)...)
	assert.Equal(t, 0, res.code)
	assert.Empty(t, res.stdout)
	assert.Empty(t, res.stderr)

	res = executeCommand(t, "", append([]string{"assert", "fs.write", "/etc"}, flags...)...)
	assert.Equal(t, 1, res.code)
	assert.Equal(t, "Permission denied: fs.write for '/etc'\n", res.stderr)

	res = executeCommand(t, "", append([]string{"assert", "worker"}, flags...)...)
	assert.Equal(t, 1, res.code)
	assert.Equal(t, "Permission denied: worker\n", res.stderr)
}

func TestGrant_AddListRemove(t *testing.T) {
	dir, flags := testEnv(t, "permission:\n  enabled: true\n")
	flags = append(flags, "--security-level", "permissive")

	res := executeCommand(t, "", append([]string{"grant", "list"}, flags...)...)
	require.Equal(t, 0, res.code, res.stderr)
	assert.Equal(t, "No grants found.\n", res.stdout)

	res = executeCommand(t, "", append([]string{"grant", "add", "fs.read:/srv/**", "child"}, flags...)...)
	require.Equal(t, 0, res.code, res.stderr)
	assert.Equal(t, "granted fs.read:/srv/**\ngranted child\n", res.stdout)

	content, err := os.ReadFile(filepath.Join(dir, "grants.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(content), "scope: child")

	res = executeCommand(t, "", append([]string{"grant", "list"}, flags...)...)
	require.Equal(t, 0, res.code, res.stderr)
	assert.Contains(t, res.stdout, "SCOPE")
	assert.Contains(t, res.stdout, "/srv/**")
	assert.Contains(t, res.stdout, "high")

	res = executeCommand(t, "", append([]string{"check", "fs.read", "/srv/x"}, flags...)...)
	assert.Equal(t, 0, res.code)

	res = executeCommand(t, "", append([]string{"grant", "remove", "fs.read:/srv/**"}, flags...)...)
	require.Equal(t, 0, res.code, res.stderr)
	assert.Equal(t, "removed 1 grant(s)\n", res.stdout)

	res = executeCommand(t, "", append([]string{"check", "fs.read", "/srv/x"}, flags...)...)
	assert.Equal(t, 1, res.code)
}

func TestGrant_StrictRejectsBroad(t *testing.T) {
	_, flags := testEnv(t, "security:\n  level: strict\n")

	res := executeCommand(t, "", append([]string{"grant", "add", "fs.write:/**"}, flags...)...)
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, "grant refused: fs.write:/**")
}

func TestGrant_AddWithCondition(t *testing.T) {
	_, flags := testEnv(t, "permission:\n  enabled: true\n")

	res := executeCommand(t, "", append([]string{"grant", "add", "worker", "--when", `env["HAS_PERMISSION_TEST_FLAG"] == "on"`}, flags...)...)
	require.Equal(t, 0, res.code, res.stderr)

	res = executeCommand(t, "", append([]string{"check", "worker"}, flags...)...)
	assert.Equal(t, 1, res.code)

	t.Setenv("HAS_PERMISSION_TEST_FLAG", "on")
	res = executeCommand(t, "", append([]string{"check", "worker"}, flags...)...)
	assert.Equal(t, 0, res.code)

	res = executeCommand(t, "", append([]string{"grant", "add", "worker", "--when", "env["}, flags...)...)
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, "validation failed: when")
}

func TestGrant_RemoveConditional(t *testing.T) {
	dir, flags := testEnv(t, "permission:\n  enabled: true\n")
	flags = append(flags, "--security-level", "permissive")

	res := executeCommand(t, "", append([]string{"grant", "add", "net:*.example.com", "--when", `os == "linux"`}, flags...)...)
	require.Equal(t, 0, res.code, res.stderr)
	res = executeCommand(t, "", append([]string{"grant", "add", "net:*.example.com", "--when", `env["CI"] == "true"`}, flags...)...)
	require.Equal(t, 0, res.code, res.stderr)

	res = executeCommand(t, "", append([]string{"grant", "remove", "net:*.example.com", "--when", `os == "linux"`}, flags...)...)
	require.Equal(t, 0, res.code, res.stderr)
	assert.Equal(t, "removed 1 grant(s)\n", res.stdout)

	res = executeCommand(t, "", append([]string{"grant", "remove", "net:*.example.com"}, flags...)...)
	require.Equal(t, 0, res.code, res.stderr)
	assert.Equal(t, "removed 1 grant(s)\n", res.stdout)

	content, err := os.ReadFile(filepath.Join(dir, "grants.yaml"))
	require.NoError(t, err)
	assert.NotContains(t, string(content), "example.com")
}

func TestRun(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("relies on a POSIX true(1)")
	}
	if _, err := exec.LookPath("true"); err != nil {
		t.Skip("true(1) not available")
	}

	_, flags := testEnv(t, "")

	res := executeCommand(t, "", append(flags, "run", "--", "true")...)
	assert.Equal(t, 0, res.code, res.stderr)

	res = executeCommand(t, "", append(flags, "--enabled", "run", "--", "true")...)
	assert.Equal(t, 126, res.code)
	assert.Contains(t, res.stderr, "Permission denied: child for '")

	res = executeCommand(t, "", append(flags, "--enabled", "--security-level", "permissive", "run", "--allow", "child", "--", "true")...)
	assert.Equal(t, 0, res.code, res.stderr)
}

func TestVersion(t *testing.T) {
	res := executeCommand(t, "", "version")
	assert.Equal(t, 0, res.code)
	assert.Equal(t, "has-permission version dev\n", res.stdout)

	res = executeCommand(t, "", "version", "--verbose")
	assert.Equal(t, 0, res.code)
	assert.Contains(t, res.stdout, "platform:")
}
