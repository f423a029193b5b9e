// Package objstore is the object-storage facade: upload, download, delete,
// exists and list against one bucket-bound storage backend.
package objstore

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/charliek/objstore/internal/constants"
	"github.com/charliek/objstore/internal/domain"
	"github.com/charliek/objstore/internal/storage"
)

// Store runs object operations against a single backend. It holds no mutable
// state and is safe for concurrent use.
type Store struct {
	backend storage.Backend
	log     *zap.Logger
}

// New creates a Store over backend. A nil logger disables logging.
func New(backend storage.Backend, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{backend: backend, log: log}
}

// Backend returns the underlying storage backend
func (s *Store) Backend() storage.Backend {
	return s.backend
}

// Upload stores the local file at localPath under remotePath, replacing any
// existing object.
func (s *Store) Upload(ctx context.Context, localPath, remotePath string) (domain.ObjectMetadata, error) {
	meta, err := s.upload(ctx, localPath, remotePath)
	s.logResult("upload", remotePath, err, zap.String("local", localPath))
	return meta, err
}

func (s *Store) upload(ctx context.Context, localPath, remotePath string) (domain.ObjectMetadata, error) {
	ref, err := domain.NewObjectRef(remotePath)
	if err != nil {
		return domain.ObjectMetadata{}, err
	}
	if err := domain.ValidateLocalPath(localPath); err != nil {
		return domain.ObjectMetadata{}, err
	}

	f, err := os.Open(localPath)
	if err != nil {
		if os.IsNotExist(err) {
			return domain.ObjectMetadata{}, domain.Errorf(domain.ErrNotFound, "local file not found: %s", localPath)
		}
		return domain.ObjectMetadata{}, domain.Errorf(domain.ErrBackend, "failed to open local file: %v", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return domain.ObjectMetadata{}, domain.Errorf(domain.ErrBackend, "failed to stat local file: %v", err)
	}
	if info.IsDir() {
		return domain.ObjectMetadata{}, domain.Errorf(domain.ErrInvalidArgs, "local path is a directory: %s", localPath)
	}

	meta, err := s.backend.Put(ctx, ref.Path(), f, info.Size())
	if err != nil {
		// A missing object is meaningless for a write; only the local file can be not-found
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ObjectMetadata{}, domain.Errorf(domain.ErrBackend, "upload %s: %v", ref, err)
		}
		return domain.ObjectMetadata{}, normalize("upload", ref, err)
	}

	meta.Path = ref.Path()
	if !meta.HasSize() {
		meta.Size = info.Size()
	}
	return meta, nil
}

// Download writes the object at remotePath to localPath, creating parent
// directories and replacing any existing file. The bytes land in a temporary
// sibling first, so a failed download never leaves a partial localPath.
func (s *Store) Download(ctx context.Context, remotePath, localPath string) error {
	err := s.download(ctx, remotePath, localPath)
	s.logResult("download", remotePath, err, zap.String("local", localPath))
	return err
}

func (s *Store) download(ctx context.Context, remotePath, localPath string) (err error) {
	ref, err := domain.NewObjectRef(remotePath)
	if err != nil {
		return err
	}
	if err := domain.ValidateLocalPath(localPath); err != nil {
		return err
	}

	rc, err := s.backend.Get(ctx, ref.Path())
	if err != nil {
		return normalize("download", ref, err)
	}
	defer rc.Close()

	dir := filepath.Dir(localPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return domain.Errorf(domain.ErrBackend, "failed to create directory %s: %v", dir, err)
	}

	tmp, err := os.CreateTemp(dir, constants.DownloadTempPattern)
	if err != nil {
		return domain.Errorf(domain.ErrBackend, "failed to create temp file: %v", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err = io.Copy(tmp, rc); err != nil {
		return domain.Errorf(domain.ErrBackend, "download %s: %w", ref, err)
	}
	if err = tmp.Close(); err != nil {
		return domain.Errorf(domain.ErrBackend, "failed to close temp file: %v", err)
	}
	if err = os.Rename(tmpPath, localPath); err != nil {
		return domain.Errorf(domain.ErrBackend, "failed to move download into place: %v", err)
	}
	return nil
}

// Delete removes the object at remotePath. A missing object is not an error.
func (s *Store) Delete(ctx context.Context, remotePath string) error {
	err := s.delete(ctx, remotePath)
	s.logResult("delete", remotePath, err)
	return err
}

func (s *Store) delete(ctx context.Context, remotePath string) error {
	ref, err := domain.NewObjectRef(remotePath)
	if err != nil {
		return err
	}
	if err := s.backend.Delete(ctx, ref.Path()); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return normalize("delete", ref, err)
	}
	return nil
}

// Exists reports whether an object exists at exactly remotePath
func (s *Store) Exists(ctx context.Context, remotePath string) (bool, error) {
	ok, err := s.exists(ctx, remotePath)
	s.logResult("exists", remotePath, err, zap.Bool("exists", ok))
	return ok, err
}

func (s *Store) exists(ctx context.Context, remotePath string) (bool, error) {
	ref, err := domain.NewObjectRef(remotePath)
	if err != nil {
		return false, err
	}
	ok, err := s.backend.Exists(ctx, ref.Path())
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return false, nil
		}
		return false, normalize("exists", ref, err)
	}
	return ok, nil
}

// List returns every object in the bucket
func (s *Store) List(ctx context.Context) ([]domain.ObjectMetadata, error) {
	return s.ListPrefix(ctx, "")
}

// ListPrefix returns every object whose path starts with prefix. An empty
// prefix lists the whole bucket.
func (s *Store) ListPrefix(ctx context.Context, prefix string) ([]domain.ObjectMetadata, error) {
	objects, err := s.listPrefix(ctx, prefix)
	s.logResult("list", prefix, err, zap.Int("count", len(objects)))
	return objects, err
}

func (s *Store) listPrefix(ctx context.Context, prefix string) ([]domain.ObjectMetadata, error) {
	if prefix != "" {
		if err := domain.ValidateRemotePath(prefix); err != nil {
			return nil, err
		}
	}

	objects, err := s.backend.List(ctx, prefix)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.Errorf(domain.ErrBackend, "list %q: %v", prefix, err)
		}
		return nil, normalize("list", domain.ObjectRef{}, err)
	}
	if objects == nil {
		objects = []domain.ObjectMetadata{}
	}
	return objects, nil
}

func (s *Store) logResult(op, path string, err error, fields ...zap.Field) {
	fields = append(fields, zap.String("op", op), zap.String("path", path))
	if err != nil {
		fields = append(fields, zap.String("kind", domain.KindOf(err)), zap.Error(err))
		s.log.Debug("object operation failed", fields...)
		return
	}
	s.log.Debug("object operation", fields...)
}

// normalize keeps backend errors inside the facade taxonomy. Errors already
// carrying a kind pass through; anything else becomes ErrBackend.
func normalize(op string, ref domain.ObjectRef, err error) error {
	if domain.KindOf(err) != domain.KindUnknown {
		return err
	}
	if ref.Path() == "" {
		return domain.Errorf(domain.ErrBackend, "%s: %w", op, err)
	}
	return domain.Errorf(domain.ErrBackend, "%s %s: %w", op, ref, err)
}
