package provider

import "os"

// fileSystem is the slice of the fs service the local provider reads from.
type fileSystem interface {
	Lstat(path string) (os.FileInfo, error)
	Stat(path string) (os.FileInfo, error)
	Readlink(path string) (string, error)
	ListDir(path string) ([]os.FileInfo, error)
}

// ignoreMatcher decides whether a root-relative path is ignored.
type ignoreMatcher interface {
	ShouldIgnore(relativePath string, isDir bool) bool
}

// relativizer maps absolute paths to paths relative to the ignore root.
type relativizer interface {
	Rel(path string) (string, error)
}
