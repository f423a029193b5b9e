package objstore

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/charliek/objstore/internal/domain"
	"github.com/charliek/objstore/internal/storage"
)

// countingBackend records which primitives the facade called
type countingBackend struct {
	storage.Backend

	mu    sync.Mutex
	calls []string
}

func (c *countingBackend) record(op string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, op)
}

func (c *countingBackend) Put(ctx context.Context, path string, r io.Reader, size int64) (domain.ObjectMetadata, error) {
	c.record("put")
	return c.Backend.Put(ctx, path, r, size)
}

func (c *countingBackend) Get(ctx context.Context, path string) (io.ReadCloser, error) {
	c.record("get")
	return c.Backend.Get(ctx, path)
}

func (c *countingBackend) Delete(ctx context.Context, path string) error {
	c.record("delete")
	return c.Backend.Delete(ctx, path)
}

func (c *countingBackend) Exists(ctx context.Context, path string) (bool, error) {
	c.record("exists")
	return c.Backend.Exists(ctx, path)
}

func (c *countingBackend) List(ctx context.Context, prefix string) ([]domain.ObjectMetadata, error) {
	c.record("list")
	return c.Backend.List(ctx, prefix)
}

// brokenReadBackend hands out readers that fail part way through
type brokenReadBackend struct {
	storage.Backend
}

func (b brokenReadBackend) Get(context.Context, string) (io.ReadCloser, error) {
	return io.NopCloser(io.MultiReader(strings.NewReader("par"), errReader{})), nil
}

type errReader struct{}

func (errReader) Read([]byte) (int, error) {
	return 0, errors.New("connection reset by peer")
}

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, data, 0o644))
	return p
}

func pathsOf(objects []domain.ObjectMetadata) []string {
	out := make([]string, 0, len(objects))
	for _, o := range objects {
		out = append(out, o.Path)
	}
	return out
}

func backends(t *testing.T) map[string]storage.Backend {
	local, err := storage.NewLocalBackend(filepath.Join(t.TempDir(), "bucket"))
	require.NoError(t, err)
	return map[string]storage.Backend{
		"memory": storage.NewMemoryBackend(),
		"local":  local,
	}
}

func TestStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	payload := []byte("hello\x00world\n\xff")

	for name, backend := range backends(t) {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			src := writeFile(t, dir, "hello.txt", payload)
			s := New(backend, nil)

			meta, err := s.Upload(ctx, src, "foo/hello2.txt")
			require.NoError(t, err)
			require.Equal(t, "foo/hello2.txt", meta.Path)
			require.Equal(t, int64(len(payload)), meta.Size)

			dst := filepath.Join(dir, "nested", "out", "_hello2.txt")
			require.NoError(t, s.Download(ctx, "foo/hello2.txt", dst))

			got, err := os.ReadFile(dst)
			require.NoError(t, err)
			require.Equal(t, payload, got)
		})
	}
}

func TestStore_UploadOverwrites(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	backend := storage.NewMemoryBackend()
	s := New(backend, nil)

	_, err := s.Upload(ctx, writeFile(t, dir, "a.txt", []byte("first")), "hello1.txt")
	require.NoError(t, err)
	_, err = s.Upload(ctx, writeFile(t, dir, "b.txt", []byte("second")), "hello1.txt")
	require.NoError(t, err)

	data, ok := backend.GetData("hello1.txt")
	require.True(t, ok)
	require.Equal(t, "second", string(data))
	require.Equal(t, 1, backend.Count())
}

func TestStore_UploadEmptyFile(t *testing.T) {
	ctx := context.Background()
	s := New(storage.NewMemoryBackend(), nil)

	meta, err := s.Upload(ctx, writeFile(t, t.TempDir(), "empty.txt", nil), "empty.txt")
	require.NoError(t, err)
	require.Equal(t, int64(0), meta.Size)
}

func TestStore_UploadMissingLocalFile(t *testing.T) {
	backend := &countingBackend{Backend: storage.NewMemoryBackend()}
	s := New(backend, nil)

	_, err := s.Upload(context.Background(), filepath.Join(t.TempDir(), "missing.txt"), "hello1.txt")
	require.ErrorIs(t, err, domain.ErrNotFound)
	require.Empty(t, backend.calls)
}

func TestStore_UploadDirectory(t *testing.T) {
	s := New(storage.NewMemoryBackend(), nil)

	_, err := s.Upload(context.Background(), t.TempDir(), "hello1.txt")
	require.ErrorIs(t, err, domain.ErrInvalidArgs)
}

func TestStore_InvalidArgsSkipBackend(t *testing.T) {
	ctx := context.Background()
	src := writeFile(t, t.TempDir(), "hello.txt", []byte("hello"))
	backend := &countingBackend{Backend: storage.NewMemoryBackend()}
	s := New(backend, nil)

	for _, remote := range []string{"", "   ", "/abs", "a//b", "../up", "a/./b", "bad\x00name"} {
		t.Run(remote, func(t *testing.T) {
			_, err := s.Upload(ctx, src, remote)
			require.ErrorIs(t, err, domain.ErrInvalidArgs)

			require.ErrorIs(t, s.Download(ctx, remote, filepath.Join(t.TempDir(), "out")), domain.ErrInvalidArgs)
			require.ErrorIs(t, s.Delete(ctx, remote), domain.ErrInvalidArgs)

			_, err = s.Exists(ctx, remote)
			require.ErrorIs(t, err, domain.ErrInvalidArgs)
		})
	}

	_, err := s.Upload(ctx, "", "hello1.txt")
	require.ErrorIs(t, err, domain.ErrInvalidArgs)
	require.ErrorIs(t, s.Download(ctx, "hello1.txt", ""), domain.ErrInvalidArgs)

	_, err = s.ListPrefix(ctx, "/abs")
	require.ErrorIs(t, err, domain.ErrInvalidArgs)

	require.Empty(t, backend.calls)
}

func TestStore_DownloadNotFound(t *testing.T) {
	dir := t.TempDir()
	s := New(storage.NewMemoryBackend(), nil)

	dst := filepath.Join(dir, "sub", "out.txt")
	err := s.Download(context.Background(), "does/not/exist.txt", dst)
	require.ErrorIs(t, err, domain.ErrNotFound)
	require.NotErrorIs(t, err, domain.ErrBackend)

	_, statErr := os.Stat(filepath.Join(dir, "sub"))
	require.True(t, os.IsNotExist(statErr))
}

func TestStore_PathBelowExistingObject(t *testing.T) {
	ctx := context.Background()

	for name, backend := range backends(t) {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			s := New(backend, nil)
			src := writeFile(t, dir, "hello.txt", []byte("hello"))

			_, err := s.Upload(ctx, src, "x")
			require.NoError(t, err)

			exists, err := s.Exists(ctx, "x/y")
			require.NoError(t, err)
			require.False(t, exists)

			require.NoError(t, s.Delete(ctx, "x/y"))

			err = s.Download(ctx, "x/y", filepath.Join(dir, "out.txt"))
			require.ErrorIs(t, err, domain.ErrNotFound)
			require.NotErrorIs(t, err, domain.ErrBackend)

			exists, err = s.Exists(ctx, "x")
			require.NoError(t, err)
			require.True(t, exists)
		})
	}
}

func TestStore_DownloadReplacesExistingFile(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	backend := storage.NewMemoryBackend()
	backend.SetData("hello1.txt", []byte("new"))
	s := New(backend, nil)

	dst := writeFile(t, dir, "out.txt", []byte("old contents that are longer"))
	require.NoError(t, s.Download(ctx, "hello1.txt", dst))

	got, err := os.ReadFile(dst)
	require.NoError(t, err)
	require.Equal(t, "new", string(got))
}

func TestStore_FailedDownloadKeepsExistingFile(t *testing.T) {
	dir := t.TempDir()
	s := New(brokenReadBackend{Backend: storage.NewMemoryBackend()}, nil)

	dst := writeFile(t, dir, "out.txt", []byte("previous"))
	err := s.Download(context.Background(), "hello1.txt", dst)
	require.ErrorIs(t, err, domain.ErrBackend)

	got, readErr := os.ReadFile(dst)
	require.NoError(t, readErr)
	require.Equal(t, "previous", string(got))

	entries, readErr := os.ReadDir(dir)
	require.NoError(t, readErr)
	require.Len(t, entries, 1, "temporary download file should be removed")
}

func TestStore_DeleteIsIdempotent(t *testing.T) {
	ctx := context.Background()

	for name, backend := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s := New(backend, nil)
			src := writeFile(t, t.TempDir(), "hello.txt", []byte("hello"))

			_, err := s.Upload(ctx, src, "foo/hello2.txt")
			require.NoError(t, err)

			require.NoError(t, s.Delete(ctx, "foo/hello2.txt"))
			require.NoError(t, s.Delete(ctx, "foo/hello2.txt"))
			require.NoError(t, s.Delete(ctx, "never/existed.txt"))
		})
	}
}

func TestStore_ExistsConsistency(t *testing.T) {
	ctx := context.Background()

	for name, backend := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s := New(backend, nil)
			src := writeFile(t, t.TempDir(), "hello.txt", []byte("hello"))

			ok, err := s.Exists(ctx, "foo/hello2.txt")
			require.NoError(t, err)
			require.False(t, ok)

			_, err = s.Upload(ctx, src, "foo/hello2.txt")
			require.NoError(t, err)

			ok, err = s.Exists(ctx, "foo/hello2.txt")
			require.NoError(t, err)
			require.True(t, ok)

			// Exact path only, not a prefix match
			ok, err = s.Exists(ctx, "foo")
			require.NoError(t, err)
			require.False(t, ok)

			require.NoError(t, s.Delete(ctx, "foo/hello2.txt"))

			ok, err = s.Exists(ctx, "foo/hello2.txt")
			require.NoError(t, err)
			require.False(t, ok)
		})
	}
}

func TestStore_ListCompleteness(t *testing.T) {
	ctx := context.Background()

	for name, backend := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s := New(backend, nil)
			dir := t.TempDir()
			src := writeFile(t, dir, "hello.txt", []byte("hello"))

			_, err := s.Upload(ctx, src, "existing/object.bin")
			require.NoError(t, err)

			objects, err := s.List(ctx)
			require.NoError(t, err)
			before := len(objects)

			_, err = s.Upload(ctx, src, "hello1.txt")
			require.NoError(t, err)
			_, err = s.Upload(ctx, src, "foo/hello2.txt")
			require.NoError(t, err)

			objects, err = s.List(ctx)
			require.NoError(t, err)
			require.Len(t, objects, before+2)
			require.Subset(t, pathsOf(objects), []string{"hello1.txt", "foo/hello2.txt", "existing/object.bin"})

			objects, err = s.ListPrefix(ctx, "foo/")
			require.NoError(t, err)
			require.Equal(t, []string{"foo/hello2.txt"}, pathsOf(objects))
		})
	}
}

func TestStore_ListEmptyBucket(t *testing.T) {
	objects, err := New(storage.NewMemoryBackend(), nil).List(context.Background())
	require.NoError(t, err)
	require.NotNil(t, objects)
	require.Empty(t, objects)
}

func TestStore_BackendErrors(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("boom")
	src := writeFile(t, t.TempDir(), "hello.txt", []byte("hello"))

	backend := storage.NewMemoryBackend()
	backend.PutError = boom
	backend.GetError = domain.Errorf(domain.ErrBackend, "service unavailable")
	backend.DeleteError = boom
	backend.ExistsError = boom
	backend.ListError = boom
	s := New(backend, nil)

	_, err := s.Upload(ctx, src, "hello1.txt")
	require.ErrorIs(t, err, domain.ErrBackend)
	require.ErrorIs(t, err, boom)

	err = s.Download(ctx, "hello1.txt", filepath.Join(t.TempDir(), "out"))
	require.ErrorIs(t, err, domain.ErrBackend)

	require.ErrorIs(t, s.Delete(ctx, "hello1.txt"), domain.ErrBackend)

	_, err = s.Exists(ctx, "hello1.txt")
	require.ErrorIs(t, err, domain.ErrBackend)

	_, err = s.List(ctx)
	require.ErrorIs(t, err, domain.ErrBackend)
	require.Equal(t, domain.KindBackend, domain.KindOf(err))
}

func TestStore_NotFoundFromBackendIsNotAnError(t *testing.T) {
	ctx := context.Background()
	backend := storage.NewMemoryBackend()
	backend.DeleteError = domain.Errorf(domain.ErrNotFound, "gone")
	backend.ExistsError = domain.Errorf(domain.ErrNotFound, "gone")
	s := New(backend, nil)

	require.NoError(t, s.Delete(ctx, "hello1.txt"))

	ok, err := s.Exists(ctx, "hello1.txt")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestStore_LogsOperations(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	s := New(storage.NewMemoryBackend(), zap.New(core))

	require.NoError(t, s.Delete(context.Background(), "hello1.txt"))
	err := s.Download(context.Background(), "hello1.txt", filepath.Join(t.TempDir(), "out"))
	require.ErrorIs(t, err, domain.ErrNotFound)

	entries := logs.All()
	require.Len(t, entries, 2)
	require.Equal(t, "delete", entries[0].ContextMap()["op"])
	require.Equal(t, "download", entries[1].ContextMap()["op"])
	require.Equal(t, domain.KindNotFound, entries[1].ContextMap()["kind"])
}

func TestStore_Async(t *testing.T) {
	ctx := context.Background()
	src := writeFile(t, t.TempDir(), "hello.txt", []byte("hello"))
	s := New(storage.NewMemoryBackend(), nil)

	meta, err := Go(func() (domain.ObjectMetadata, error) {
		return s.Upload(ctx, src, "hello1.txt")
	}).Wait()
	require.NoError(t, err)
	require.Equal(t, "hello1.txt", meta.Path)

	ok, err := Go(func() (bool, error) {
		return s.Exists(ctx, "hello1.txt")
	}).Wait()
	require.NoError(t, err)
	require.True(t, ok)

	_, err = GoErr(func() error {
		return s.Download(ctx, "missing.txt", filepath.Join(t.TempDir(), "out"))
	}).Wait()
	require.ErrorIs(t, err, domain.ErrNotFound)
}
