// Package provider implements vfs.AttributesProvider on top of the local
// filesystem service.
package provider

import (
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/Cyclone1070/lazyvfs/internal/vfs"
)

// Local reads attributes from a fileSystem. Symlinks are reported as
// TypeSymlink with the target's type, length and timestamp when the target
// resolves.
type Local struct {
	fs           fileSystem
	ignore       ignoreMatcher
	ignoreRoot   relativizer
	markDotfiles bool
}

// Option configures a Local provider.
type Option func(*Local)

// WithIgnoreMatcher flags entries matched by m as hidden. Paths are made
// relative with root before matching.
func WithIgnoreMatcher(m ignoreMatcher, root relativizer) Option {
	return func(l *Local) {
		l.ignore = m
		l.ignoreRoot = root
	}
}

// WithDotfilesHidden flags names starting with "." as hidden.
func WithDotfilesHidden(hidden bool) Option {
	return func(l *Local) {
		l.markDotfiles = hidden
	}
}

// NewLocal creates a provider over fs.
func NewLocal(fs fileSystem, opts ...Option) *Local {
	l := &Local{fs: fs}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Stat implements vfs.AttributesProvider. Missing paths yield an error
// matching fs.ErrNotExist.
func (l *Local) Stat(p string) (*vfs.Attributes, error) {
	info, err := l.fs.Lstat(native(p))
	if err != nil {
		return nil, err
	}
	return l.attributes(p, info), nil
}

// List implements vfs.AttributesProvider.
func (l *Local) List(p string) ([]vfs.Entry, error) {
	infos, err := l.fs.ListDir(native(p))
	if err != nil {
		return nil, err
	}

	entries := make([]vfs.Entry, 0, len(infos))
	for _, info := range infos {
		child := joinSlash(p, info.Name())
		entries = append(entries, vfs.Entry{Name: info.Name(), Attributes: *l.attributes(child, info)})
	}
	return entries, nil
}

func (l *Local) attributes(p string, info os.FileInfo) *vfs.Attributes {
	a := &vfs.Attributes{
		Type:    typeOf(info),
		Length:  info.Size(),
		ModTime: info.ModTime(),
	}

	if a.Type == vfs.TypeSymlink {
		if target, err := l.fs.Readlink(native(p)); err == nil {
			a.SymlinkTarget = filepath.ToSlash(target)
		}
		// dangling links keep TargetType unknown
		if ti, err := l.fs.Stat(native(p)); err == nil {
			a.TargetType = typeOf(ti)
			a.Length = ti.Size()
			a.ModTime = ti.ModTime()
		}
	}
	if a.Type == vfs.TypeDirectory {
		a.Length = 0
	}

	a.Hidden = l.hidden(p, a.IsDir())
	return a
}

func (l *Local) hidden(p string, isDir bool) bool {
	name := path.Base(p)
	if l.markDotfiles && strings.HasPrefix(name, ".") && name != "." && name != "/" {
		return true
	}
	if l.ignore == nil || l.ignoreRoot == nil {
		return false
	}
	rel, err := l.ignoreRoot.Rel(p)
	if err != nil || rel == "" {
		return false
	}
	return l.ignore.ShouldIgnore(rel, isDir)
}

func typeOf(info os.FileInfo) vfs.FileType {
	switch {
	case info.Mode()&os.ModeSymlink != 0:
		return vfs.TypeSymlink
	case info.IsDir():
		return vfs.TypeDirectory
	default:
		return vfs.TypeFile
	}
}

// native converts an index path to the host's separator convention.
func native(p string) string {
	return filepath.FromSlash(p)
}

func joinSlash(dir, name string) string {
	if strings.HasSuffix(dir, "/") {
		return dir + name
	}
	return dir + "/" + name
}
