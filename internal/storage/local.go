package storage

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"github.com/charliek/objstore/internal/domain"
	"github.com/charliek/objstore/internal/pathutil"
)

// Compile-time assertion that LocalBackend implements Backend
var _ Backend = (*LocalBackend)(nil)

// localTempPrefix marks in-flight uploads so List never reports them
const localTempPrefix = ".objstore-upload-"

// LocalBackend treats a directory on the local filesystem as a bucket
type LocalBackend struct {
	rootDir string
}

// NewLocalBackend creates the root directory if needed and binds to it
func NewLocalBackend(rootDir string) (*LocalBackend, error) {
	if strings.TrimSpace(rootDir) == "" {
		return nil, domain.Errorf(domain.ErrInvalidConfig, "local root directory is required")
	}

	abs, err := filepath.Abs(rootDir)
	if err != nil {
		return nil, domain.Errorf(domain.ErrInvalidConfig, "invalid local root %q: %v", rootDir, err)
	}

	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, domain.Errorf(domain.ErrBackend, "failed to create local root: %v", err)
	}

	// Resolve symlinks so confinement checks compare like with like
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, domain.Errorf(domain.ErrBackend, "failed to resolve local root: %v", err)
	}

	return &LocalBackend{rootDir: resolved}, nil
}

// Root returns the bucket directory
func (c *LocalBackend) Root() string {
	return c.rootDir
}

// Put implements Backend.Put
func (c *LocalBackend) Put(ctx context.Context, path string, r io.Reader, size int64) (meta domain.ObjectMetadata, err error) {
	fullPath, err := c.objectPath(path)
	if err != nil {
		return domain.ObjectMetadata{}, err
	}
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return domain.ObjectMetadata{}, domain.Errorf(domain.ErrBackend, "failed to create directory for %s: %v", path, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(fullPath), localTempPrefix+"*")
	if err != nil {
		return domain.ObjectMetadata{}, domain.Errorf(domain.ErrBackend, "failed to create temp file: %v", err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := io.Copy(tmp, r); err != nil {
		_ = tmp.Close()
		return domain.ObjectMetadata{}, domain.Errorf(domain.ErrBackend, "failed to write %s: %v", path, err)
	}
	if err := tmp.Close(); err != nil {
		return domain.ObjectMetadata{}, domain.Errorf(domain.ErrBackend, "failed to close %s: %v", path, err)
	}
	if err := os.Rename(tmpName, fullPath); err != nil {
		return domain.ObjectMetadata{}, domain.Errorf(domain.ErrBackend, "failed to store %s: %v", path, err)
	}

	info, err := os.Stat(fullPath)
	if err != nil {
		return domain.ObjectMetadata{}, domain.Errorf(domain.ErrBackend, "failed to stat %s: %v", path, err)
	}

	return domain.ObjectMetadata{Path: path, Size: info.Size(), Updated: info.ModTime().UTC()}, nil
}

// Get implements Backend.Get
func (c *LocalBackend) Get(ctx context.Context, path string) (io.ReadCloser, error) {
	fullPath, err := c.objectPath(path)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(fullPath)
	if err != nil {
		if isMissing(err) {
			return nil, domain.Errorf(domain.ErrNotFound, "object not found: %s", path)
		}
		return nil, domain.Errorf(domain.ErrBackend, "failed to stat %s: %v", path, err)
	}
	if info.IsDir() {
		return nil, domain.Errorf(domain.ErrNotFound, "object not found: %s", path)
	}

	f, err := os.Open(fullPath)
	if err != nil {
		return nil, domain.Errorf(domain.ErrBackend, "failed to open %s: %v", path, err)
	}
	return f, nil
}

// Delete implements Backend.Delete
func (c *LocalBackend) Delete(ctx context.Context, path string) error {
	fullPath, err := c.objectPath(path)
	if err != nil {
		return err
	}

	info, err := os.Stat(fullPath)
	if err != nil {
		if isMissing(err) {
			return nil // Already deleted
		}
		return domain.Errorf(domain.ErrBackend, "failed to stat %s: %v", path, err)
	}
	if info.IsDir() {
		return nil
	}

	if err := os.Remove(fullPath); err != nil && !isMissing(err) {
		return domain.Errorf(domain.ErrBackend, "failed to delete %s: %v", path, err)
	}
	return nil
}

// Exists implements Backend.Exists
func (c *LocalBackend) Exists(ctx context.Context, path string) (bool, error) {
	fullPath, err := c.objectPath(path)
	if err != nil {
		return false, err
	}

	info, err := os.Stat(fullPath)
	if isMissing(err) {
		return false, nil
	}
	if err != nil {
		return false, domain.Errorf(domain.ErrBackend, "failed to check %s: %v", path, err)
	}
	return !info.IsDir(), nil
}

// List implements Backend.List
func (c *LocalBackend) List(ctx context.Context, prefix string) ([]domain.ObjectMetadata, error) {
	objects := make([]domain.ObjectMetadata, 0)

	err := filepath.WalkDir(c.rootDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), localTempPrefix) {
			return nil
		}

		rel, err := filepath.Rel(c.rootDir, path)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if !strings.HasPrefix(key, prefix) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		objects = append(objects, domain.ObjectMetadata{
			Path:    key,
			Size:    info.Size(),
			Updated: info.ModTime().UTC(),
		})
		return nil
	})
	if err != nil {
		return nil, domain.Errorf(domain.ErrBackend, "failed to list objects: %v", err)
	}

	sort.Slice(objects, func(i, j int) bool { return objects[i].Path < objects[j].Path })
	return objects, nil
}

// Close implements Backend.Close
func (c *LocalBackend) Close() error {
	return nil
}

// Describe implements Describer
func (c *LocalBackend) Describe() string {
	return "file://" + filepath.ToSlash(c.rootDir)
}

// isMissing reports whether err means nothing is stored at the path. A file
// sitting where a parent directory would be yields ENOTDIR.
func isMissing(err error) bool {
	return errors.Is(err, fs.ErrNotExist) || errors.Is(err, syscall.ENOTDIR)
}

func (c *LocalBackend) objectPath(key string) (string, error) {
	if err := domain.ValidateRemotePath(key); err != nil {
		return "", err
	}
	if strings.HasSuffix(key, "/") {
		return "", domain.Errorf(domain.ErrInvalidArgs, "folder placeholders are not supported by the local backend: %q", key)
	}
	return pathutil.SecureJoin(c.rootDir, filepath.FromSlash(key))
}
