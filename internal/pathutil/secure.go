package pathutil

import (
	"path/filepath"
	"strings"

	securejoin "github.com/cyphar/filepath-securejoin"

	"github.com/charliek/objstore/internal/domain"
)

// SecureJoin joins a bucket root with an object key converted to a relative
// filesystem path. It rejects absolute paths and any key that would resolve
// outside baseDir, including through symlinks inside the root.
func SecureJoin(baseDir, relativePath string) (string, error) {
	cleaned := filepath.Clean(relativePath)

	if filepath.IsAbs(cleaned) {
		return "", domain.Errorf(domain.ErrInvalidArgs, "absolute path not allowed: %q", relativePath)
	}

	if cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) {
		return "", domain.Errorf(domain.ErrInvalidArgs, "path traversal not allowed: %q", relativePath)
	}

	safePath, err := securejoin.SecureJoin(baseDir, relativePath)
	if err != nil {
		return "", domain.Errorf(domain.ErrInvalidArgs, "invalid path %q: %v", relativePath, err)
	}

	// Use the separator so /data/bucket does not match /data/bucket2
	if safePath != baseDir && !strings.HasPrefix(safePath, baseDir+string(filepath.Separator)) {
		return "", domain.Errorf(domain.ErrInvalidArgs, "path escapes bucket root: %q", relativePath)
	}

	return safePath, nil
}
