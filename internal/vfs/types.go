package vfs

import (
	"fmt"
	"time"
)

// FileType is the kind of filesystem entry a node represents.
type FileType int

const (
	TypeUnknown FileType = iota
	TypeFile
	TypeDirectory
	TypeSymlink
)

func (t FileType) String() string {
	switch t {
	case TypeFile:
		return "file"
	case TypeDirectory:
		return "directory"
	case TypeSymlink:
		return "symlink"
	default:
		return "unknown"
	}
}

// Attributes is the provider's view of one entry.
// For symlinks, TargetType is the type of the resolved target and is
// TypeUnknown when the link dangles.
type Attributes struct {
	Type          FileType
	Length        int64
	ModTime       time.Time
	SymlinkTarget string
	TargetType    FileType
	Hidden        bool
}

// IsDir reports whether the entry can hold children.
func (a Attributes) IsDir() bool {
	return a.Type == TypeDirectory || (a.Type == TypeSymlink && a.TargetType == TypeDirectory)
}

// differs reports a change visible to listeners. Hidden is excluded.
func (a Attributes) differs(b Attributes) bool {
	return a.Type != b.Type ||
		a.Length != b.Length ||
		!a.ModTime.Equal(b.ModTime) ||
		a.SymlinkTarget != b.SymlinkTarget ||
		a.TargetType != b.TargetType
}

// Entry is one item of a directory listing.
type Entry struct {
	Name       string
	Attributes Attributes
}

// RefreshStatus is the state of a refresh pass.
type RefreshStatus int

const (
	StatusPending RefreshStatus = iota
	StatusRunning
	StatusCompleted
	StatusAborted
)

func (s RefreshStatus) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusRunning:
		return "running"
	case StatusCompleted:
		return "completed"
	case StatusAborted:
		return "aborted"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// EntryFailure records a provider error for a single entry. The entry is
// left dirty.
type EntryFailure struct {
	Path string
	Op   string
	Err  error
}

// RefreshResult summarises one refresh pass.
type RefreshResult struct {
	Root     string
	Status   RefreshStatus
	Events   []Event
	Failures []EntryFailure
	Visited  int
	Duration time.Duration
}
