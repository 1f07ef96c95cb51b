package path

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Resolver turns user-supplied paths into absolute, slash-separated paths
// anchored at a base directory.
type Resolver struct {
	base string
}

// NewResolver creates a resolver for base, which must already be absolute.
func NewResolver(base string) *Resolver {
	return &Resolver{base: filepath.Clean(base)}
}

// Base returns the base directory.
func (r *Resolver) Base() string {
	return r.base
}

// CanonicaliseRoot makes root absolute and resolves symlinks.
// Returns an error if the path doesn't exist or isn't a directory.
func CanonicaliseRoot(root string) (string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", &RootError{Root: root, Cause: err}
	}

	resolved, err := filepath.EvalSymlinks(absRoot)
	if err != nil {
		return "", &RootError{Root: absRoot, Cause: err}
	}

	info, err := os.Stat(resolved)
	if err != nil {
		return "", &RootError{Root: resolved, Cause: err}
	}
	if !info.IsDir() {
		return "", &RootError{Root: resolved, Cause: fmt.Errorf("%w: %s", ErrNotADirectory, resolved)}
	}
	return resolved, nil
}

// Abs resolves path against the base. Absolute inputs are only cleaned.
// The result always uses forward slashes.
func (r *Resolver) Abs(path string) (string, error) {
	if r.base == "" || r.base == "." {
		return "", ErrBaseNotSet
	}

	var abs string
	if filepath.IsAbs(path) {
		abs = filepath.Clean(path)
	} else {
		abs = filepath.Join(r.base, path)
	}
	return filepath.ToSlash(abs), nil
}

// Within reports whether path is the base or lies below it.
func (r *Resolver) Within(path string) bool {
	_, err := r.Rel(path)
	return err == nil
}

// Rel returns path relative to the base with forward slashes. The base
// itself yields "".
func (r *Resolver) Rel(path string) (string, error) {
	abs, err := r.Abs(path)
	if err != nil {
		return "", err
	}

	base := filepath.ToSlash(r.base)
	switch {
	case abs == base:
		return "", nil
	case strings.HasPrefix(abs, strings.TrimSuffix(base, "/")+"/"):
		return strings.TrimPrefix(abs, strings.TrimSuffix(base, "/")+"/"), nil
	default:
		return "", ErrOutsideBase
	}
}
