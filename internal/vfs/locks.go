package vfs

import (
	"context"
	"strings"
	"sync"
)

// subtreeLocks gives one pass at a time exclusive ownership of a subtree.
// A pass waits while another holds the same path, an ancestor or a
// descendant. Disjoint subtrees proceed in parallel.
type subtreeLocks struct {
	mu     sync.Mutex
	active map[string]chan struct{}
}

func newSubtreeLocks() *subtreeLocks {
	return &subtreeLocks{active: make(map[string]chan struct{})}
}

func (l *subtreeLocks) acquire(ctx context.Context, key string) (func(), error) {
	for {
		l.mu.Lock()
		var wait chan struct{}
		for held, ch := range l.active {
			if overlaps(held, key) {
				wait = ch
				break
			}
		}
		if wait == nil {
			done := make(chan struct{})
			l.active[key] = done
			l.mu.Unlock()
			return func() {
				l.mu.Lock()
				delete(l.active, key)
				l.mu.Unlock()
				close(done)
			}, nil
		}
		l.mu.Unlock()

		select {
		case <-wait:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

func overlaps(a, b string) bool {
	return a == b || isAncestor(a, b) || isAncestor(b, a)
}

// isAncestor reports whether p lies strictly inside dir.
func isAncestor(dir, p string) bool {
	if !strings.HasPrefix(p, dir) || len(p) == len(dir) {
		return false
	}
	// "/" and "//host" are separate roots.
	if dir == "/" && strings.HasPrefix(p, "//") {
		return false
	}
	return strings.HasSuffix(dir, "/") || p[len(dir)] == '/'
}
