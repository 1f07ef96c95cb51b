package vfs

import (
	"context"
	"errors"
	"io/fs"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Cyclone1070/lazyvfs/internal/metrics"
)

// Worker reconciles subtrees of the index with the provider.
type Worker struct {
	index *Index
	locks *subtreeLocks

	condMu sync.RWMutex
	cancel CancelCondition
}

func newWorker(idx *Index) *Worker {
	return &Worker{index: idx, locks: newSubtreeLocks()}
}

// SetCancelCondition installs a predicate checked before every child visit.
// Pass nil to clear it. The change applies to passes started afterwards.
func (w *Worker) SetCancelCondition(cond CancelCondition) {
	w.condMu.Lock()
	defer w.condMu.Unlock()
	w.cancel = cond
}

func (w *Worker) cancelCondition() CancelCondition {
	w.condMu.RLock()
	defer w.condMu.RUnlock()
	return w.cancel
}

// Refresh reconciles the subtree rooted at node. A clean node is a no-op.
// A node marked DirtyRecursive is refreshed recursively regardless of the
// flag. Cancellation, through ctx or the cancel condition, yields
// StatusAborted rather than an error.
func (w *Worker) Refresh(ctx context.Context, node *Node, recursive bool) (*RefreshResult, error) {
	return w.run(ctx, node, recursive, false)
}

func (w *Worker) run(ctx context.Context, node *Node, recursive, force bool) (*RefreshResult, error) {
	if node == nil {
		return nil, ErrNilNode
	}
	if !node.IsValid() {
		return nil, &StaleNodeError{Path: node.Path()}
	}

	result := &RefreshResult{Root: node.Path(), Status: StatusPending}

	release, err := w.locks.acquire(ctx, node.key())
	if err != nil {
		return nil, err
	}
	defer release()

	if !node.IsValid() {
		return nil, &StaleNodeError{Path: result.Root}
	}

	state := node.DirtyState()
	if state == Clean && !force {
		result.Status = StatusCompleted
		return result, nil
	}

	start := time.Now()
	result.Status = StatusRunning
	p := &pass{
		worker:        w,
		ctx:           ctx,
		recursive:     recursive || state == DirtyRecursive,
		cancel:        w.cancelCondition(),
		root:          node,
		collector:     newCollector(w.index),
		result:        result,
		pendingDelete: make(map[*Node]bool),
		logger:        w.index.logger,
	}

	p.logger.Debug("refresh started", zap.String("path", result.Root), zap.Bool("recursive", p.recursive))

	if p.visit(node) {
		result.Status = StatusAborted
	} else {
		result.Status = StatusCompleted
	}

	p.collector.Fire()
	result.Events = p.collector.Events()
	result.Duration = time.Since(start)

	metrics.RecordRefresh(result.Status.String(), result.Duration, result.Visited)
	p.logger.Debug("refresh finished",
		zap.String("path", result.Root),
		zap.Stringer("status", result.Status),
		zap.Int("events", len(result.Events)),
		zap.Int("failures", len(result.Failures)),
		zap.Int("visited", result.Visited),
		zap.Duration("duration", result.Duration))

	return result, nil
}

// pass holds the state of one refresh invocation.
type pass struct {
	worker    *Worker
	ctx       context.Context
	recursive bool
	cancel    CancelCondition
	root      *Node
	collector *Collector
	result    *RefreshResult
	logger    *zap.Logger

	// pendingDelete holds nodes whose removal is queued in the collector.
	pendingDelete map[*Node]bool
}

func (p *pass) provider() AttributesProvider {
	return p.worker.index.provider
}

func (p *pass) fail(op, path string, err error) {
	p.result.Failures = append(p.result.Failures, EntryFailure{Path: path, Op: op, Err: &ProviderError{Op: op, Path: path, Cause: err}})
	metrics.RecordProviderFailure(op)
	p.logger.Warn("provider call failed", zap.String("op", op), zap.String("path", path), zap.Error(err))
}

func (p *pass) shouldStop(n *Node) bool {
	if p.ctx.Err() != nil {
		return true
	}
	return p.cancel != nil && p.cancel(n)
}

func (p *pass) remove(n *Node, markParent bool) {
	if n.observed() {
		p.collector.addDelete(n, markParent)
	} else {
		p.collector.addSilentDelete(n)
	}
	p.pendingDelete[n] = true
}

// visit checks one node and, for directories, its listing and dirty
// children. It returns true when the pass must abort. A node is left dirty
// unless it was visited to completion.
func (p *pass) visit(n *Node) bool {
	p.result.Visited++
	path := n.Path()

	fresh, err := p.provider().Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			p.remove(n, n == p.root)
			return false
		}
		p.fail("stat", path, err)
		return false
	}

	cached, hadAttrs := n.CachedAttributes()
	switch {
	case !hadAttrs:
		n.setAttributes(*fresh)
	case cached.IsDir() != fresh.IsDir():
		p.replace(n, *fresh)
		return false
	case cached.differs(*fresh):
		if fresh.IsDir() {
			n.setAttributes(*fresh)
		} else {
			p.collector.addContentChange(n, *fresh)
		}
	case cached != *fresh:
		n.setAttributes(*fresh)
	}

	if fresh.IsDir() {
		if !p.reconcile(n, path) {
			return false
		}
		if p.visitChildren(n) {
			return true
		}
	}

	n.settle(p.pendingDelete)
	return false
}

// replace swaps a node whose directory-ness flipped for a fresh one.
func (p *pass) replace(n *Node, fresh Attributes) {
	p.collector.addDelete(n, false)
	p.pendingDelete[n] = true
	if n.parent != nil {
		p.collector.addCreate(n.parent, n.Name(), fresh, true)
	}
}

// reconcile diffs the directory listing against the cached children. New
// entries are only created when the directory is fully loaded. It returns
// false if the listing failed.
func (p *pass) reconcile(n *Node, path string) bool {
	n.mu.RLock()
	loaded := n.childrenLoaded
	cached := make(map[string]*Node, len(n.children))
	for k, c := range n.children {
		if c.IsValid() {
			cached[k] = c
		}
	}
	n.mu.RUnlock()

	if !loaded && len(cached) == 0 {
		return true
	}

	entries, err := p.provider().List(path)
	if err != nil {
		p.fail("list", path, err)
		return false
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	listed := make(map[string]bool, len(entries))
	idx := p.worker.index
	for _, e := range entries {
		key := idx.fold(e.Name)
		listed[key] = true
		child, ok := cached[key]
		switch {
		case ok && child.Name() != e.Name:
			p.collector.addRename(child, e.Name)
		case !ok && loaded:
			p.collector.addCreate(n, e.Name, e.Attributes, false)
		}
	}

	gone := make([]*Node, 0)
	for key, child := range cached {
		if !listed[key] {
			gone = append(gone, child)
		}
	}
	sortNodes(gone)
	for _, child := range gone {
		p.remove(child, false)
	}
	return true
}

// visitChildren visits dirty cached children in name order. Non-recursive
// passes only descend into children known not to be directories.
func (p *pass) visitChildren(n *Node) bool {
	n.mu.RLock()
	children := n.childList()
	n.mu.RUnlock()

	for _, c := range children {
		if p.pendingDelete[c] || !c.IsDirty() {
			continue
		}
		if !p.recursive {
			a, ok := c.CachedAttributes()
			if !ok || a.IsDir() {
				continue
			}
		}
		if p.shouldStop(c) {
			p.logger.Debug("refresh cancelled", zap.String("at", c.Path()))
			return true
		}
		if p.visit(c) {
			return true
		}
	}
	return false
}

func (n *Node) setAttributes(a Attributes) {
	n.mu.Lock()
	n.attrs = &a
	n.mu.Unlock()
}
