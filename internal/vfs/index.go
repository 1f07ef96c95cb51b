// Package vfs implements a lazily populated virtual file tree with
// incremental, cancellable refresh and two-phase change notification.
package vfs

import (
	"context"
	"errors"
	"sort"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Cyclone1070/lazyvfs/internal/logging"
	"github.com/Cyclone1070/lazyvfs/internal/metrics"
)

const defaultMaxParallelRoots = 4

// Index maps canonical paths to nodes and owns the refresh worker.
type Index struct {
	provider         AttributesProvider
	caseSensitive    bool
	maxParallelRoots int
	logger           *zap.Logger

	mu        sync.RWMutex
	roots     map[string]*Node
	listeners []*listenerEntry

	worker *Worker
	nodes  atomic.Int64
}

type listenerEntry struct {
	l Listener
}

// Option configures an Index.
type Option func(*Index)

// WithCaseSensitive selects exact-match (true) or Unicode case-folded
// (false) name lookups. Stored names keep their on-disk spelling either way.
func WithCaseSensitive(sensitive bool) Option {
	return func(idx *Index) {
		idx.caseSensitive = sensitive
	}
}

// WithLogger sets the logger used by the index and its worker.
func WithLogger(logger *zap.Logger) Option {
	return func(idx *Index) {
		if logger != nil {
			idx.logger = logger
		}
	}
}

// WithMaxParallelRoots bounds how many roots RefreshDirty processes at once.
func WithMaxParallelRoots(n int) Option {
	return func(idx *Index) {
		if n > 0 {
			idx.maxParallelRoots = n
		}
	}
}

// NewIndex creates an empty index over provider. It is case-sensitive
// unless configured otherwise.
func NewIndex(provider AttributesProvider, opts ...Option) *Index {
	idx := &Index{
		provider:         provider,
		caseSensitive:    true,
		maxParallelRoots: defaultMaxParallelRoots,
		logger:           logging.Named("vfs"),
		roots:            make(map[string]*Node),
	}
	for _, opt := range opts {
		opt(idx)
	}
	idx.worker = newWorker(idx)
	return idx
}

// Worker returns the index's refresh worker.
func (idx *Index) Worker() *Worker {
	return idx.worker
}

// CaseSensitive reports the lookup policy.
func (idx *Index) CaseSensitive() bool {
	return idx.caseSensitive
}

// NodeCount returns the number of valid nodes held in memory.
func (idx *Index) NodeCount() int {
	return int(idx.nodes.Load())
}

func (idx *Index) fold(name string) string {
	return foldName(name, idx.caseSensitive)
}

func (idx *Index) nodesAdded(n int) {
	if n == 0 {
		return
	}
	idx.nodes.Add(int64(n))
	metrics.AddLiveNodes(n)
}

func (idx *Index) nodesRemoved(n int) {
	idx.nodesAdded(-n)
}

func (idx *Index) rootKey(root string) string {
	if c, ok := idx.provider.(RootCanonicalizer); ok {
		root = c.CanonicalRoot(root)
	}
	return rootKey(root, idx.caseSensitive)
}

// Roots returns the root nodes sorted by path.
func (idx *Index) Roots() []*Node {
	idx.mu.RLock()
	out := make([]*Node, 0, len(idx.roots))
	for _, r := range idx.roots {
		out = append(out, r)
	}
	idx.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Path() < out[j].Path() })
	return out
}

func (idx *Index) root(display string) (*Node, bool) {
	key := idx.rootKey(display)

	idx.mu.Lock()
	defer idx.mu.Unlock()
	if r, ok := idx.roots[key]; ok {
		return r, false
	}
	r := newNode(idx, nil, display)
	r.valid.Store(true)
	idx.roots[key] = r
	idx.nodesAdded(1)
	return r, true
}

func (idx *Index) removeRoot(n *Node) {
	key := idx.rootKey(n.Name())
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if idx.roots[key] == n {
		delete(idx.roots, key)
	}
}

// Resolve returns the node for path, creating nodes along the way. It does
// not check the provider. Every ancestor is marked children-accessed.
func (idx *Index) Resolve(path string) (*Node, error) {
	pp, err := parsePath(path)
	if err != nil {
		return nil, err
	}
	n, _, err := idx.resolve(pp)
	return n, err
}

// resolve walks pp and returns the target plus the nodes it created,
// outermost first.
func (idx *Index) resolve(pp parsedPath) (*Node, []*Node, error) {
	var created []*Node
	n, isNew := idx.root(pp.root)
	if isNew {
		created = append(created, n)
	}

	for _, name := range pp.parts {
		key := idx.fold(name)
		n.mu.Lock()
		if !n.IsValid() {
			n.mu.Unlock()
			return nil, created, &StaleNodeError{Path: n.Path()}
		}
		n.childrenAccessed = true
		child, ok := n.children[key]
		if !ok {
			child = newNode(idx, n, name)
			child.valid.Store(true)
			n.children[key] = child
			created = append(created, child)
		}
		n.mu.Unlock()
		if !ok {
			idx.nodesAdded(1)
		}
		n = child
	}
	return n, created, nil
}

// lookup returns the cached node for path, or nil. It creates nothing.
func (idx *Index) lookup(path string) *Node {
	pp, err := parsePath(path)
	if err != nil {
		return nil
	}
	idx.mu.RLock()
	n := idx.roots[idx.rootKey(pp.root)]
	idx.mu.RUnlock()

	for _, name := range pp.parts {
		if n == nil {
			return nil
		}
		n = n.Child(name)
	}
	return n
}

// Lookup returns the cached node for path without creating anything.
func (idx *Index) Lookup(path string) (*Node, error) {
	if _, err := parsePath(path); err != nil {
		return nil, err
	}
	return idx.lookup(path), nil
}

// RefreshAndResolve resolves path and checks it against the provider
// before returning. It returns nil, nil when the path does not exist; any
// node previously held for the path is invalidated, and placeholder
// ancestors created by this call are dropped again.
func (idx *Index) RefreshAndResolve(ctx context.Context, path string) (*Node, error) {
	pp, err := parsePath(path)
	if err != nil {
		return nil, err
	}
	node, created, err := idx.resolve(pp)
	if err != nil {
		return nil, err
	}
	canonical := node.Path()

	res, err := idx.worker.run(ctx, node, false, true)
	if err != nil {
		return nil, err
	}
	for _, f := range res.Failures {
		if f.Path == canonical && f.Op == "stat" {
			return nil, f.Err
		}
	}

	if node.IsValid() {
		return node, nil
	}
	// A type flip replaces the node in place.
	if replaced := idx.lookup(canonical); replaced != nil && replaced.IsValid() {
		return replaced, nil
	}
	idx.prune(created)
	return nil, nil
}

// prune drops placeholder nodes that were never observed and hold no
// children, innermost first.
func (idx *Index) prune(created []*Node) {
	for i := len(created) - 1; i >= 0; i-- {
		n := created[i]
		if !n.IsValid() {
			continue
		}
		n.mu.RLock()
		unused := n.attrs == nil && len(n.children) == 0
		n.mu.RUnlock()
		if !unused {
			return
		}
		c := newCollector(idx)
		c.addSilentDelete(n)
		c.Fire()
	}
}

// Refresh is an explicit refresh of path. The node is marked dirty (its
// whole in-memory subtree too when recursive) and reconciled.
func (idx *Index) Refresh(ctx context.Context, path string, recursive bool) (*RefreshResult, error) {
	node, err := idx.Resolve(path)
	if err != nil {
		return nil, err
	}
	if recursive {
		node.markSubtree(DirtyRecursive)
	} else {
		node.mu.Lock()
		if node.dirty == Clean {
			node.dirty = Dirty
		}
		node.mu.Unlock()
	}
	return idx.worker.run(ctx, node, recursive, true)
}

// RefreshDirty reconciles every dirty subtree, starting from the roots.
// Roots are processed in parallel. Results are ordered by root path.
func (idx *Index) RefreshDirty(ctx context.Context) ([]*RefreshResult, error) {
	roots := idx.Roots()
	results := make([]*RefreshResult, len(roots))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(idx.maxParallelRoots)
	for i, r := range roots {
		g.Go(func() error {
			res, err := idx.worker.Refresh(gctx, r, true)
			if err != nil {
				var stale *StaleNodeError
				if errors.As(err, &stale) {
					return nil
				}
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := results[:0]
	for _, r := range results {
		if r != nil {
			out = append(out, r)
		}
	}
	return out, nil
}

// MarkDirty flags the node for path, or its nearest cached ancestor when
// the path itself is not in memory. It reports whether anything was marked.
func (idx *Index) MarkDirty(path string) (bool, error) {
	n, err := idx.nearestCached(path)
	if err != nil || n == nil {
		return false, err
	}
	if err := n.MarkDirty(); err != nil {
		return false, err
	}
	return true, nil
}

// MarkDirtyRecursive is MarkDirty for the whole in-memory subtree, so the
// next RefreshDirty rechecks every cached descendant.
func (idx *Index) MarkDirtyRecursive(path string) (bool, error) {
	n, err := idx.nearestCached(path)
	if err != nil || n == nil {
		return false, err
	}
	if err := n.MarkDirtyRecursively(); err != nil {
		return false, err
	}
	return true, nil
}

// nearestCached returns the deepest valid cached node on path, or nil when
// its root is not in memory.
func (idx *Index) nearestCached(path string) (*Node, error) {
	pp, err := parsePath(path)
	if err != nil {
		return nil, err
	}

	idx.mu.RLock()
	n := idx.roots[idx.rootKey(pp.root)]
	idx.mu.RUnlock()
	if n == nil {
		return nil, nil
	}
	for _, name := range pp.parts {
		child := n.Child(name)
		if child == nil || !child.IsValid() {
			break
		}
		n = child
	}
	return n, nil
}

// AddListener registers l for every subsequent batch. The returned
// function removes it.
func (idx *Index) AddListener(l Listener) func() {
	entry := &listenerEntry{l: l}
	idx.mu.Lock()
	idx.listeners = append(idx.listeners, entry)
	idx.mu.Unlock()

	return func() {
		idx.mu.Lock()
		defer idx.mu.Unlock()
		for i, e := range idx.listeners {
			if e == entry {
				idx.listeners = append(idx.listeners[:i:i], idx.listeners[i+1:]...)
				return
			}
		}
	}
}

func (idx *Index) listenerSnapshot() []Listener {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	out := make([]Listener, len(idx.listeners))
	for i, e := range idx.listeners {
		out[i] = e.l
	}
	return out
}
