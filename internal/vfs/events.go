package vfs

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Cyclone1070/lazyvfs/internal/metrics"
)

// EventKind identifies a change discovered by a refresh.
type EventKind int

const (
	EventCreate EventKind = iota + 1
	EventDelete
	EventContentChange
	// EventRename is a case-only rename seen on a case-insensitive index.
	EventRename
)

func (k EventKind) String() string {
	switch k {
	case EventCreate:
		return "create"
	case EventDelete:
		return "delete"
	case EventContentChange:
		return "content_change"
	case EventRename:
		return "rename"
	default:
		return "unknown"
	}
}

// Event is one change in a batch.
type Event struct {
	Kind       EventKind
	Path       string
	ReCreation bool
	// OldName is set for EventRename.
	OldName string

	node  *Node
	index *Index
}

// File returns the node the event is about. A re-creation is looked up by
// path so it resolves to whichever node currently occupies the path.
func (e Event) File() *Node {
	if e.Kind == EventCreate && e.ReCreation {
		return e.index.lookup(e.Path)
	}
	return e.node
}

func (e Event) String() string {
	switch {
	case e.Kind == EventRename:
		return fmt.Sprintf("%s %s (was %s)", e.Kind, e.Path, e.OldName)
	case e.ReCreation:
		return fmt.Sprintf("%s %s (re-creation)", e.Kind, e.Path)
	default:
		return fmt.Sprintf("%s %s", e.Kind, e.Path)
	}
}

// pendingOp is a tree mutation applied between the two listener phases.
type pendingOp struct {
	kind       EventKind
	node       *Node
	attrs      *Attributes
	name       string
	markParent bool
}

// Collector accumulates the events and tree mutations of one pass and
// delivers them as a single batch.
type Collector struct {
	index  *Index
	events []Event
	ops    []pendingOp
}

func newCollector(idx *Index) *Collector {
	return &Collector{index: idx}
}

// Events returns the events collected so far.
func (c *Collector) Events() []Event {
	return c.events
}

// Len returns the number of collected events.
func (c *Collector) Len() int {
	return len(c.events)
}

// addCreate builds a not-yet-valid node under parent. It becomes valid when
// the batch is applied.
func (c *Collector) addCreate(parent *Node, name string, attrs Attributes, reCreation bool) {
	n := newNode(c.index, parent, name)
	a := attrs
	n.attrs = &a
	c.events = append(c.events, Event{
		Kind:       EventCreate,
		Path:       joinPath(parent.Path(), name),
		ReCreation: reCreation,
		node:       n,
		index:      c.index,
	})
	c.ops = append(c.ops, pendingOp{kind: EventCreate, node: n})
}

// addDelete schedules n and its subtree for invalidation. With markParent a
// loaded parent is flagged dirty once n is detached.
func (c *Collector) addDelete(n *Node, markParent bool) {
	c.events = append(c.events, Event{Kind: EventDelete, Path: n.Path(), node: n, index: c.index})
	c.ops = append(c.ops, pendingOp{kind: EventDelete, node: n, markParent: markParent})
}

// addSilentDelete drops a node whose attributes were never observed.
func (c *Collector) addSilentDelete(n *Node) {
	c.ops = append(c.ops, pendingOp{kind: EventDelete, node: n})
}

func (c *Collector) addContentChange(n *Node, attrs Attributes) {
	a := attrs
	c.events = append(c.events, Event{Kind: EventContentChange, Path: n.Path(), node: n, index: c.index})
	c.ops = append(c.ops, pendingOp{kind: EventContentChange, node: n, attrs: &a})
}

func (c *Collector) addRename(n *Node, newName string) {
	oldName := n.Name()
	path := newName
	if n.parent != nil {
		path = joinPath(n.parent.Path(), newName)
	}
	c.events = append(c.events, Event{Kind: EventRename, Path: path, OldName: oldName, node: n, index: c.index})
	c.ops = append(c.ops, pendingOp{kind: EventRename, node: n, name: newName})
}

// Fire notifies listeners, applies the batch and notifies them again.
// Empty batches are applied without notifying anyone.
func (c *Collector) Fire() {
	if len(c.ops) == 0 {
		return
	}

	listeners := c.index.listenerSnapshot()
	if len(c.events) > 0 {
		c.index.logger.Debug("delivering change batch", zap.Int("events", len(c.events)))
		for _, l := range listeners {
			l.BeforeChanges(c.events)
		}
	}

	for _, op := range c.ops {
		c.apply(op)
	}

	if len(c.events) > 0 {
		for _, l := range listeners {
			l.AfterChanges(c.events)
		}
		for _, e := range c.events {
			metrics.RecordEvent(e.Kind.String())
		}
	}
}

func (c *Collector) apply(op pendingOp) {
	switch op.kind {
	case EventCreate:
		c.attach(op.node)
	case EventDelete:
		c.detach(op.node, op.markParent)
	case EventContentChange:
		op.node.mu.Lock()
		op.node.attrs = op.attrs
		op.node.mu.Unlock()
	case EventRename:
		c.rename(op.node, op.name)
	}
}

func (c *Collector) attach(n *Node) {
	parent := n.parent
	key := c.index.fold(n.name)

	parent.mu.Lock()
	defer parent.mu.Unlock()
	if !parent.IsValid() {
		return
	}
	if existing, ok := parent.children[key]; ok && existing.IsValid() {
		c.index.logger.Debug("create skipped, name already taken", zap.String("name", n.name))
		return
	}
	parent.children[key] = n
	n.valid.Store(true)
	c.index.nodesAdded(1)
}

func (c *Collector) detach(n *Node, markParent bool) {
	name := n.Name()
	c.index.nodesRemoved(n.invalidate())

	parent := n.parent
	if parent == nil {
		c.index.removeRoot(n)
		return
	}

	key := c.index.fold(name)
	parent.mu.Lock()
	if parent.children[key] == n {
		delete(parent.children, key)
	}
	propagate := false
	if markParent && parent.childrenLoaded && parent.IsValid() {
		if parent.dirty == Clean {
			parent.dirty = Dirty
		}
		propagate = true
	}
	parent.mu.Unlock()

	if propagate {
		parent.markAncestorsDirty()
	}
}

func (c *Collector) rename(n *Node, newName string) {
	parent := n.parent
	if parent == nil {
		return
	}

	parent.mu.Lock()
	defer parent.mu.Unlock()
	n.mu.Lock()
	defer n.mu.Unlock()

	oldKey, newKey := c.index.fold(n.name), c.index.fold(newName)
	if oldKey != newKey {
		if parent.children[oldKey] == n {
			delete(parent.children, oldKey)
		}
		parent.children[newKey] = n
	}
	n.name = newName
}
