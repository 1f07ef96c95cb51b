package vfs

// AttributesProvider queries the backing filesystem. Paths use the
// canonical form produced by the index ("/a/b", "C:/a", "//host/share").
// Absence must be reported as an error matching fs.ErrNotExist.
type AttributesProvider interface {
	Stat(path string) (*Attributes, error)
	List(path string) ([]Entry, error)
}

// RootCanonicalizer is implemented by providers that know when two root
// spellings name the same entity. The returned string is used as the
// root's identity key.
type RootCanonicalizer interface {
	CanonicalRoot(root string) string
}

// Listener observes committed refresh batches. BeforeChanges runs before
// the batch is applied to the tree and AfterChanges after it. Listeners
// must not start a refresh of an overlapping subtree from these callbacks.
type Listener interface {
	BeforeChanges(events []Event)
	AfterChanges(events []Event)
}

// ListenerFuncs adapts plain functions to Listener. Nil fields are skipped.
type ListenerFuncs struct {
	Before func(events []Event)
	After  func(events []Event)
}

func (l ListenerFuncs) BeforeChanges(events []Event) {
	if l.Before != nil {
		l.Before(events)
	}
}

func (l ListenerFuncs) AfterChanges(events []Event) {
	if l.After != nil {
		l.After(events)
	}
}

// CancelCondition is consulted before each child visit. Returning true
// aborts the pass.
type CancelCondition func(n *Node) bool
