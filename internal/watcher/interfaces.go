package watcher

import (
	"context"
	"os"

	"github.com/Cyclone1070/lazyvfs/internal/vfs"
)

// index is the part of vfs.Index the watcher drives.
type index interface {
	MarkDirty(path string) (bool, error)
	MarkDirtyRecursive(path string) (bool, error)
	RefreshDirty(ctx context.Context) ([]*vfs.RefreshResult, error)
}

// dirLister enumerates directories to watch.
type dirLister interface {
	Stat(path string) (os.FileInfo, error)
	ListDir(path string) ([]os.FileInfo, error)
}

// pathScope limits the watcher to one tree.
type pathScope interface {
	Within(path string) bool
}
