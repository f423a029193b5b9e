package domain

import (
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// UnknownSize is reported when a backend does not return an object size
const UnknownSize int64 = -1

// ObjectRef identifies an object by its path within the bound bucket
type ObjectRef struct {
	path string
}

// NewObjectRef validates path and returns a reference to it
func NewObjectRef(path string) (ObjectRef, error) {
	if err := ValidateRemotePath(path); err != nil {
		return ObjectRef{}, err
	}
	return ObjectRef{path: path}, nil
}

// Path returns the object key
func (r ObjectRef) Path() string {
	return r.path
}

// String returns the object key
func (r ObjectRef) String() string {
	return r.path
}

// ObjectMetadata describes a stored object
type ObjectMetadata struct {
	// Path is the full object key in the bucket
	Path string `json:"path"`
	// Size is the object size in bytes, or UnknownSize
	Size int64 `json:"size"`
	// Updated is the last modification time; zero when the backend did not report it
	Updated time.Time `json:"updated,omitempty"`
}

// HasSize reports whether the backend returned a size
func (m ObjectMetadata) HasSize() bool {
	return m.Size >= 0
}

// ValidateRemotePath rejects keys that are empty or that no backend can address
// unambiguously: leading slash, empty or dot segments, control characters, bad UTF-8.
func ValidateRemotePath(path string) error {
	if strings.TrimSpace(path) == "" {
		return Errorf(ErrInvalidArgs, "remote path is empty")
	}
	if !utf8.ValidString(path) {
		return Errorf(ErrInvalidArgs, "remote path is not valid UTF-8: %q", path)
	}
	for _, r := range path {
		if unicode.IsControl(r) {
			return Errorf(ErrInvalidArgs, "remote path contains a control character: %q", path)
		}
	}
	if strings.HasPrefix(path, "/") {
		return Errorf(ErrInvalidArgs, "remote path must not start with '/': %q", path)
	}
	segments := strings.Split(path, "/")
	for i, seg := range segments {
		switch seg {
		case "":
			// A trailing slash names a folder placeholder object
			if i == len(segments)-1 {
				continue
			}
			return Errorf(ErrInvalidArgs, "remote path has an empty segment: %q", path)
		case ".", "..":
			return Errorf(ErrInvalidArgs, "remote path has a relative segment: %q", path)
		}
	}
	return nil
}

// ValidateLocalPath rejects empty local paths
func ValidateLocalPath(path string) error {
	if strings.TrimSpace(path) == "" {
		return Errorf(ErrInvalidArgs, "local path is empty")
	}
	return nil
}
