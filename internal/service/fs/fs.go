package fs

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/afero"
)

// OSFileSystem provides the filesystem primitives the provider and config
// loader need, over an afero backend.
type OSFileSystem struct {
	backend afero.Fs
}

// NewOSFileSystem creates a filesystem backed by the real OS.
func NewOSFileSystem() *OSFileSystem {
	return New(afero.NewOsFs())
}

// New wraps an arbitrary afero backend, e.g. afero.NewMemMapFs in tests.
func New(backend afero.Fs) *OSFileSystem {
	return &OSFileSystem{backend: backend}
}

// Backend exposes the underlying afero filesystem.
func (fs *OSFileSystem) Backend() afero.Fs {
	return fs.backend
}

// Stat returns file info for a path (follows symlinks).
func (fs *OSFileSystem) Stat(path string) (os.FileInfo, error) {
	return fs.backend.Stat(path)
}

// Lstat returns file info without following symlinks. Backends without
// symlink support fall back to Stat.
func (fs *OSFileSystem) Lstat(path string) (os.FileInfo, error) {
	if l, ok := fs.backend.(afero.Lstater); ok {
		info, _, err := l.LstatIfPossible(path)
		return info, err
	}
	return fs.backend.Stat(path)
}

// Readlink reads the target of a symlink.
func (fs *OSFileSystem) Readlink(path string) (string, error) {
	if r, ok := fs.backend.(afero.LinkReader); ok {
		return r.ReadlinkIfPossible(path)
	}
	return "", &os.PathError{Op: "readlink", Path: path, Err: ErrSymlinksUnsupported}
}

// ListDir lists a directory without following entries that are symlinks.
// Entries are sorted by name.
func (fs *OSFileSystem) ListDir(path string) ([]os.FileInfo, error) {
	f, err := fs.backend.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	names, err := f.Readdirnames(-1)
	if err != nil {
		return nil, &ReadDirError{Path: path, Cause: err}
	}
	sort.Strings(names)

	infos := make([]os.FileInfo, 0, len(names))
	for _, name := range names {
		info, err := fs.Lstat(filepath.Join(path, name))
		if err != nil {
			if os.IsNotExist(err) {
				// removed between listing and stat
				continue
			}
			return nil, err
		}
		infos = append(infos, info)
	}
	return infos, nil
}

// ReadFile reads a whole file.
func (fs *OSFileSystem) ReadFile(path string) ([]byte, error) {
	return afero.ReadFile(fs.backend, path)
}

// UserHomeDir returns the current user's home directory.
func (fs *OSFileSystem) UserHomeDir() (string, error) {
	return os.UserHomeDir()
}
