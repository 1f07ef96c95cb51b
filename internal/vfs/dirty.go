package vfs

// DirtyState tracks whether a node needs reconciliation.
type DirtyState int

const (
	Clean DirtyState = iota
	// Dirty means the node's own attributes and listing need a re-check.
	Dirty
	// DirtyRecursive means the node and its entire subtree need a re-check.
	DirtyRecursive
)

func (s DirtyState) String() string {
	switch s {
	case Clean:
		return "clean"
	case Dirty:
		return "dirty"
	case DirtyRecursive:
		return "dirty_recursive"
	default:
		return "unknown"
	}
}

// MarkDirty flags the node for re-check and makes every clean ancestor
// dirty so a pass started from any ancestor reaches it.
func (n *Node) MarkDirty() error {
	if !n.IsValid() {
		return &StaleNodeError{Path: n.Path()}
	}
	n.mu.Lock()
	if n.dirty == Clean {
		n.dirty = Dirty
	}
	n.mu.Unlock()
	n.markAncestorsDirty()
	return nil
}

// MarkDirtyRecursively flags the node and every in-memory descendant.
// Siblings are untouched.
func (n *Node) MarkDirtyRecursively() error {
	if !n.IsValid() {
		return &StaleNodeError{Path: n.Path()}
	}
	n.markSubtree(DirtyRecursive)
	n.markAncestorsDirty()
	return nil
}

// IsDirty reports whether the node awaits reconciliation.
func (n *Node) IsDirty() bool {
	return n.DirtyState() != Clean
}

// DirtyState returns the node's current state.
func (n *Node) DirtyState() DirtyState {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.dirty
}

func (n *Node) markAncestorsDirty() {
	for p := n.parent; p != nil; p = p.parent {
		p.mu.Lock()
		if p.dirty == Clean {
			p.dirty = Dirty
		}
		p.mu.Unlock()
	}
}

// markSubtree raises the state of n and its valid descendants to at least s.
func (n *Node) markSubtree(s DirtyState) {
	n.mu.Lock()
	if n.dirty < s {
		n.dirty = s
	}
	children := n.childList()
	n.mu.Unlock()

	for _, c := range children {
		if c.IsValid() {
			c.markSubtree(s)
		}
	}
}

// settle marks n clean unless a live child is still dirty. Children in
// skip are about to be removed and do not count.
func (n *Node) settle(skip map[*Node]bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, c := range n.children {
		if skip[c] || !c.IsValid() {
			continue
		}
		if c.DirtyState() != Clean {
			n.dirty = Dirty
			return
		}
	}
	n.dirty = Clean
}
