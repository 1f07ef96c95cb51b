package vfs

import (
	"sort"
	"sync"
	"sync/atomic"
)

// Node is one entry of the virtual tree. A node is created on first lookup
// without touching the provider; its attributes and children are fetched
// lazily. Once invalidated a node is never reused.
type Node struct {
	index  *Index
	parent *Node

	mu               sync.RWMutex
	name             string
	children         map[string]*Node
	attrs            *Attributes
	childrenLoaded   bool
	childrenAccessed bool
	dirty            DirtyState

	valid atomic.Bool
}

func newNode(idx *Index, parent *Node, name string) *Node {
	return &Node{
		index:    idx,
		parent:   parent,
		name:     name,
		children: make(map[string]*Node),
	}
}

// Name returns the node's name as last observed on disk. Roots are named
// by their root spelling ("/", "C:/", "//host").
func (n *Node) Name() string {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.name
}

// Path returns the canonical path, rebuilt from the parent chain.
func (n *Node) Path() string {
	if n.parent == nil {
		return n.Name()
	}
	return joinPath(n.parent.Path(), n.Name())
}

// key is the folded path used for subtree locking and root lookups.
func (n *Node) key() string {
	if n.parent == nil {
		return rootKey(n.Name(), n.index.caseSensitive)
	}
	return joinPath(n.parent.key(), n.index.fold(n.Name()))
}

// Parent returns the containing node, or nil for a root.
func (n *Node) Parent() *Node {
	return n.parent
}

// IsValid is safe to call without holding any lock.
func (n *Node) IsValid() bool {
	return n.valid.Load()
}

// ChildrenLoaded reports whether the children reflect a full listing.
func (n *Node) ChildrenLoaded() bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.childrenLoaded
}

// ChildrenAccessed reports whether children were ever requested, either by
// Children or by resolving a descendant path.
func (n *Node) ChildrenAccessed() bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.childrenAccessed
}

// CachedAttributes returns the attribute cache without calling the
// provider.
func (n *Node) CachedAttributes() (Attributes, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	if n.attrs == nil {
		return Attributes{}, false
	}
	return *n.attrs, true
}

// Attributes returns the cached attributes, fetching them on first use.
func (n *Node) Attributes() (Attributes, error) {
	if !n.IsValid() {
		return Attributes{}, &StaleNodeError{Path: n.Path()}
	}
	if a, ok := n.CachedAttributes(); ok {
		return a, nil
	}

	path := n.Path()
	fresh, err := n.index.provider.Stat(path)
	if err != nil {
		return Attributes{}, &ProviderError{Op: "stat", Path: path, Cause: err}
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	if n.attrs == nil {
		a := *fresh
		n.attrs = &a
	}
	return *n.attrs, nil
}

// IsDirectory fetches attributes if needed.
func (n *Node) IsDirectory() (bool, error) {
	a, err := n.Attributes()
	if err != nil {
		return false, err
	}
	return a.IsDir(), nil
}

// Child returns a cached child by name. It never calls the provider.
func (n *Node) Child(name string) *Node {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.children[n.index.fold(name)]
}

// Children returns the node's children sorted by name. The first call on an
// unloaded node lists the directory, merges the listing into the cached
// children and sets ChildrenLoaded. Cached children missing from the listing
// are invalidated; those that were observed are announced as delete events.
func (n *Node) Children() ([]*Node, error) {
	if !n.IsValid() {
		return nil, &StaleNodeError{Path: n.Path()}
	}

	n.mu.RLock()
	if n.childrenLoaded {
		out := n.childList()
		n.mu.RUnlock()
		return out, nil
	}
	n.mu.RUnlock()

	path := n.Path()
	entries, err := n.index.provider.List(path)
	if err != nil {
		return nil, &ProviderError{Op: "list", Path: path, Cause: err}
	}

	seen := make(map[string]bool, len(entries))
	added := 0
	n.mu.Lock()
	for _, e := range entries {
		key := n.index.fold(e.Name)
		seen[key] = true
		child, ok := n.children[key]
		if !ok {
			child = newNode(n.index, n, e.Name)
			child.valid.Store(true)
			n.children[key] = child
			added++
		}
		child.mu.Lock()
		if child.attrs == nil {
			a := e.Attributes
			child.attrs = &a
		}
		child.mu.Unlock()
	}
	var stale []*Node
	for key, child := range n.children {
		if !seen[key] {
			stale = append(stale, child)
		}
	}
	n.mu.Unlock()
	n.index.nodesAdded(added)

	if len(stale) > 0 {
		sortNodes(stale)
		c := newCollector(n.index)
		for _, child := range stale {
			if child.observed() {
				c.addDelete(child, false)
			} else {
				c.addSilentDelete(child)
			}
		}
		c.Fire()
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	n.childrenLoaded = true
	n.childrenAccessed = true
	return n.childList(), nil
}

// observed reports whether the node was ever seen on disk or holds
// children. Placeholders created by Resolve are not observed.
func (n *Node) observed() bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.attrs != nil || len(n.children) > 0
}

// childList returns the valid children sorted by name. Callers hold n.mu.
func (n *Node) childList() []*Node {
	out := make([]*Node, 0, len(n.children))
	for _, c := range n.children {
		if c.IsValid() {
			out = append(out, c)
		}
	}
	sortNodes(out)
	return out
}

func sortNodes(nodes []*Node) {
	sort.Slice(nodes, func(i, j int) bool {
		return nodes[i].Name() < nodes[j].Name()
	})
}

func (n *Node) String() string {
	return n.Path()
}

// invalidate marks n and its subtree invalid and returns how many nodes
// changed state.
func (n *Node) invalidate() int {
	if !n.valid.CompareAndSwap(true, false) {
		return 0
	}
	n.mu.RLock()
	children := make([]*Node, 0, len(n.children))
	for _, c := range n.children {
		children = append(children, c)
	}
	n.mu.RUnlock()

	count := 1
	for _, c := range children {
		count += c.invalidate()
	}
	return count
}
