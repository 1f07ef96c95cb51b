package vfs

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOverlaps(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{"/a", "/a", true},
		{"/a", "/a/b", true},
		{"/a/b", "/a", true},
		{"/", "/a", true},
		{"C:/", "C:/x", true},
		{"/a", "/ab", false},
		{"/a/b", "/a/c", false},
		{"//host", "//hostname/x", false},
		{"/", "//host", false},
		{"//host/share", "/", false},
		{"//host", "//host/share", true},
	}
	for _, tt := range tests {
		t.Run(tt.a+"|"+tt.b, func(t *testing.T) {
			assert.Equal(t, tt.want, overlaps(tt.a, tt.b))
		})
	}
}

func TestSubtreeLocks_DisjointPathsDoNotBlock(t *testing.T) {
	l := newSubtreeLocks()
	ctx := context.Background()

	releaseA, err := l.acquire(ctx, "/a")
	require.NoError(t, err)
	defer releaseA()

	acquired := make(chan struct{})
	go func() {
		release, err := l.acquire(ctx, "/b")
		if err == nil {
			release()
		}
		close(acquired)
	}()

	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("disjoint subtree lock blocked")
	}
}

func TestSubtreeLocks_NestedPathWaitsForRelease(t *testing.T) {
	l := newSubtreeLocks()
	ctx := context.Background()

	releaseParent, err := l.acquire(ctx, "/a")
	require.NoError(t, err)

	acquired := make(chan struct{})
	go func() {
		release, err := l.acquire(ctx, "/a/b")
		if err == nil {
			release()
		}
		close(acquired)
	}()

	select {
	case <-acquired:
		t.Fatal("nested lock acquired while ancestor held")
	case <-time.After(50 * time.Millisecond):
	}

	releaseParent()

	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("nested lock not acquired after release")
	}
}

func TestSubtreeLocks_WaitHonoursContext(t *testing.T) {
	l := newSubtreeLocks()

	release, err := l.acquire(context.Background(), "/a/b")
	require.NoError(t, err)
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = l.acquire(ctx, "/a")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
