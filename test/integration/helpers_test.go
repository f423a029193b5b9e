//go:build integration

package integration

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/charliek/objstore/internal/demo"
	"github.com/charliek/objstore/internal/objstore"
	"github.com/charliek/objstore/internal/storage"
	"github.com/charliek/objstore/internal/ui"
)

// requireEnv skips the test unless every named variable is set
func requireEnv(t *testing.T, names ...string) map[string]string {
	t.Helper()
	values := make(map[string]string, len(names))
	for _, name := range names {
		v := os.Getenv(name)
		if v == "" {
			t.Skipf("%s not set", name)
		}
		values[name] = v
	}
	return values
}

// createSample writes the demo sample file into a temporary .data directory
func createSample(t *testing.T) (sample, download string) {
	t.Helper()

	dir := filepath.Join(t.TempDir(), ".data")
	require.NoError(t, os.MkdirAll(dir, 0755))

	sample = filepath.Join(dir, "hello.txt")
	require.NoError(t, os.WriteFile(sample, []byte("hello from the integration test\n"), 0644))

	return sample, filepath.Join(dir, "_hello1.txt")
}

// runScenario runs the demo in both modes against backend
func runScenario(t *testing.T, backend storage.Backend) {
	t.Helper()
	defer backend.Close()

	sample, download := createSample(t)
	runner := demo.NewRunner(objstore.New(backend, nil), ui.NewOutput(true, false), nil, demo.Options{
		SamplePath:   sample,
		DownloadPath: download,
		Mode:         demo.ModeBoth,
	})

	report, err := runner.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Runs, 2)
}

func optionalEnv(name string) string {
	return os.Getenv(name)
}
