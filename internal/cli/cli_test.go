package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/charliek/objstore/internal/constants"
	"github.com/charliek/objstore/internal/demo"
	"github.com/charliek/objstore/internal/domain"
)

func resetFlags() {
	cfgFile, verbose, jsonOut, nonInteractive = "", false, false, false
	deleteYes = false
	listPrefix, listLong = "", false
	demoSample, demoOut, demoMode, demoCreateSample = constants.DemoSamplePath, constants.DemoDownloadPath, string(demo.ModeBoth), false
	encodeCopy = false
	cfg, output = nil, nil
}

// run executes the CLI with args and returns what it wrote to stdout
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	stdout, stderr = &out, &errOut
	t.Cleanup(func() {
		stdout, stderr = os.Stdout, os.Stderr
		resetFlags()
	})
	resetFlags()

	rootCmd.SetArgs(args)
	err := Execute()
	return out.String(), err
}

func writeLocalConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := "backend: local\nlocal:\n  root: " + filepath.Join(dir, "bucket") + "\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestCLI_ObjectLifecycle(t *testing.T) {
	configPath := writeLocalConfig(t)
	dir := t.TempDir()
	src := filepath.Join(dir, "hello.txt")
	require.NoError(t, os.WriteFile(src, []byte("hello"), 0644))

	out, err := run(t, "--config", configPath, "upload", src, "foo/hello2.txt")
	require.NoError(t, err)
	require.Contains(t, out, "Uploaded")

	out, err = run(t, "--config", configPath, "exists", "foo/hello2.txt")
	require.NoError(t, err)
	require.Equal(t, "true\n", out)

	out, err = run(t, "--config", configPath, "list", "--prefix", "foo/")
	require.NoError(t, err)
	require.Equal(t, "foo/hello2.txt\n", out)

	out, err = run(t, "--config", configPath, "--json", "list")
	require.NoError(t, err)
	var objects []domain.ObjectMetadata
	require.NoError(t, json.Unmarshal([]byte(out), &objects))
	require.Len(t, objects, 1)
	require.Equal(t, int64(5), objects[0].Size)

	dst := filepath.Join(dir, "out", "copy.txt")
	_, err = run(t, "--config", configPath, "download", "foo/hello2.txt", dst)
	require.NoError(t, err)
	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	require.Equal(t, "hello", string(data))

	_, err = run(t, "--config", configPath, "rm", "--yes", "foo/hello2.txt")
	require.NoError(t, err)

	// Deleting again is not an error
	_, err = run(t, "--config", configPath, "delete", "--yes", "foo/hello2.txt")
	require.NoError(t, err)

	out, err = run(t, "--config", configPath, "--json", "exists", "foo/hello2.txt")
	require.NoError(t, err)
	require.JSONEq(t, `{"path": "foo/hello2.txt", "exists": false}`, out)
}

func TestCLI_ExitCodes(t *testing.T) {
	configPath := writeLocalConfig(t)

	_, err := run(t, "--config", configPath, "download", "missing.txt", filepath.Join(t.TempDir(), "out"))
	require.ErrorIs(t, err, domain.ErrNotFound)
	require.Equal(t, constants.ExitNotFound, domain.GetExitCode(err))

	_, err = run(t, "--config", configPath, "exists", "/absolute")
	require.ErrorIs(t, err, domain.ErrInvalidArgs)
	require.Equal(t, constants.ExitInvalidArgs, domain.GetExitCode(err))

	_, err = run(t, "--config", filepath.Join(t.TempDir(), "missing.yaml"), "list")
	require.ErrorIs(t, err, domain.ErrNotConfigured)
	require.Equal(t, constants.ExitNotConfigured, domain.GetExitCode(err))
}

func TestCLI_DeleteRequiresConfirmation(t *testing.T) {
	configPath := writeLocalConfig(t)

	_, err := run(t, "--config", configPath, "--non-interactive", "delete", "hello1.txt")
	require.ErrorIs(t, err, domain.ErrInvalidArgs)
	require.ErrorContains(t, err, "--yes")
}

func TestCLI_Demo(t *testing.T) {
	configPath := writeLocalConfig(t)
	dir := t.TempDir()

	out, err := run(t, "--config", configPath, "--json", "demo",
		"--sample", filepath.Join(dir, ".data", "hello.txt"),
		"--out", filepath.Join(dir, ".data", "_hello1.txt"),
		"--create-sample",
	)
	require.NoError(t, err)

	var report demo.Report
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	require.Len(t, report.Runs, 2)
	for _, r := range report.Runs {
		require.Len(t, r.Steps, 8)
		require.Empty(t, r.Error)
	}
}

func TestCLI_DemoBadMode(t *testing.T) {
	configPath := writeLocalConfig(t)

	_, err := run(t, "--config", configPath, "demo", "--mode", "async")
	require.ErrorIs(t, err, domain.ErrInvalidArgs)
}

func TestCLI_Version(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(out, "objstore "))
}

func TestCLI_Encode(t *testing.T) {
	dir := t.TempDir()
	keyFile := filepath.Join(dir, "keyFile.json")
	require.NoError(t, os.WriteFile(keyFile, []byte(`{"type":"service_account"}`), 0600))

	out, err := run(t, "encode", keyFile)
	require.NoError(t, err)
	require.Equal(t, "eyJ0eXBlIjoic2VydmljZV9hY2NvdW50In0=\n", out)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"project_id":"x"}`), 0600))
	_, err = run(t, "encode", bad)
	require.ErrorIs(t, err, domain.ErrInvalidConfig)
}

func TestCLI_Doctor(t *testing.T) {
	configPath := writeLocalConfig(t)

	out, err := run(t, "--config", configPath, "doctor")
	require.NoError(t, err)
	require.Contains(t, out, "Bucket access: OK")
	require.Contains(t, out, "All checks passed!")

	_, err = run(t, "--config", filepath.Join(t.TempDir(), "missing.yaml"), "doctor")
	require.ErrorIs(t, err, domain.ErrCheckFailed)
}
