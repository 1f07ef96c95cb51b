package vfs_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Cyclone1070/lazyvfs/internal/testing/mocks"
	"github.com/Cyclone1070/lazyvfs/internal/vfs"
)

func names(nodes []*vfs.Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.Name()
	}
	return out
}

func TestChildren_LoadsOnceAndSorts(t *testing.T) {
	p := mocks.NewMockProvider()
	p.CreateFile("/d/zeta", 1)
	p.CreateFile("/d/alpha", 1)
	p.CreateDir("/d/mid")
	idx := newTestIndex(t, p)

	d, err := idx.Resolve("/d")
	require.NoError(t, err)

	children, err := d.Children()
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "mid", "zeta"}, names(children))
	assert.True(t, d.ChildrenLoaded())
	assert.True(t, d.ChildrenAccessed())

	_, err = d.Children()
	require.NoError(t, err)
	assert.Equal(t, 1, p.ListCalls["/d"])
}

func TestChildren_ReusesResolvedNodes(t *testing.T) {
	p := mocks.NewMockProvider()
	p.CreateFile("/d/a", 1)
	idx := newTestIndex(t, p)

	a, err := idx.Resolve("/d/a")
	require.NoError(t, err)
	d := a.Parent()

	children, err := d.Children()
	require.NoError(t, err)
	require.Len(t, children, 1)
	assert.Same(t, a, children[0])

	attrs, ok := a.CachedAttributes()
	require.True(t, ok, "listing fills in unknown attributes")
	assert.Equal(t, vfs.TypeFile, attrs.Type)
}

func TestChildren_DropsAbsentPlaceholdersSilently(t *testing.T) {
	p := mocks.NewMockProvider()
	p.CreateFile("/d/keep", 1)
	idx := newTestIndex(t, p)
	rec := &recorder{}
	idx.AddListener(rec)

	ghost, err := idx.Resolve("/d/ghost")
	require.NoError(t, err)
	d := ghost.Parent()

	children, err := d.Children()
	require.NoError(t, err)

	assert.Equal(t, []string{"keep"}, names(children))
	assert.False(t, ghost.IsValid())
	assert.Empty(t, rec.all())
}

func TestChildren_AnnouncesAbsentObservedChildren(t *testing.T) {
	p := mocks.NewMockProvider()
	p.CreateFile("/d/keep", 1)
	p.CreateFile("/d/gone", 1)
	idx := newTestIndex(t, p)

	gone, err := idx.RefreshAndResolve(context.Background(), "/d/gone")
	require.NoError(t, err)
	require.NotNil(t, gone)
	d := gone.Parent()

	rec := &recorder{}
	idx.AddListener(rec)
	p.Remove("/d/gone")

	children, err := d.Children()
	require.NoError(t, err)

	assert.Equal(t, []string{"keep"}, names(children))
	assert.False(t, gone.IsValid())
	assert.Equal(t, []string{"delete /d/gone"}, eventStrings(rec.all()))
	require.Len(t, rec.before, 1)
}

func TestChildren_ListFailure(t *testing.T) {
	p := mocks.NewMockProvider()
	p.CreateFile("/file", 1)
	idx := newTestIndex(t, p)

	n, err := idx.Resolve("/file")
	require.NoError(t, err)

	_, err = n.Children()
	var provErr *vfs.ProviderError
	require.True(t, errors.As(err, &provErr))
	assert.Equal(t, "list", provErr.Op)
	assert.ErrorIs(t, err, vfs.ErrNotDirectory)
	assert.False(t, n.ChildrenLoaded())
}

func TestChild_NeverCallsProvider(t *testing.T) {
	p := mocks.NewMockProvider()
	p.CreateFile("/d/a", 1)
	idx := newTestIndex(t, p)

	d, err := idx.Resolve("/d")
	require.NoError(t, err)

	assert.Nil(t, d.Child("a"))
	assert.Equal(t, 0, p.Calls())
}

func TestAttributes_FetchedLazilyOnce(t *testing.T) {
	p := mocks.NewMockProvider()
	p.CreateFile("/f", 7)
	idx := newTestIndex(t, p)

	n, err := idx.Resolve("/f")
	require.NoError(t, err)
	_, cached := n.CachedAttributes()
	assert.False(t, cached)

	a, err := n.Attributes()
	require.NoError(t, err)
	assert.Equal(t, int64(7), a.Length)

	p.Touch("/f", 99)
	a, err = n.Attributes()
	require.NoError(t, err)
	assert.Equal(t, int64(7), a.Length, "cache is only updated by refresh")
	assert.Equal(t, 1, p.StatCalls["/f"])
}

func TestStaleNode_MutationsFail(t *testing.T) {
	p := mocks.NewMockProvider()
	p.CreateDir("/gone/sub")
	ctx := context.Background()
	idx := newTestIndex(t, p)

	sub, err := idx.RefreshAndResolve(ctx, "/gone/sub")
	require.NoError(t, err)
	gone := sub.Parent()

	p.Remove("/gone")
	_, err = idx.Refresh(ctx, "/gone", true)
	require.NoError(t, err)
	require.False(t, gone.IsValid())
	require.False(t, sub.IsValid())

	var stale *vfs.StaleNodeError
	assert.True(t, errors.As(sub.MarkDirty(), &stale))
	assert.True(t, errors.As(sub.MarkDirtyRecursively(), &stale))
	_, err = sub.Children()
	assert.True(t, errors.As(err, &stale))
	_, err = sub.Attributes()
	assert.True(t, errors.As(err, &stale))
	_, err = idx.Worker().Refresh(ctx, sub, false)
	assert.True(t, errors.As(err, &stale))
}

func TestMarkDirty_PropagatesToAncestors(t *testing.T) {
	p := mocks.NewMockProvider()
	p.CreateFile("/a/b/c", 1)
	ctx := context.Background()
	idx := newTestIndex(t, p)

	c, err := idx.RefreshAndResolve(ctx, "/a/b/c")
	require.NoError(t, err)
	_, err = idx.Refresh(ctx, "/", true)
	require.NoError(t, err)
	require.False(t, c.Parent().IsDirty())

	require.NoError(t, c.MarkDirty())

	assert.Equal(t, vfs.Dirty, c.DirtyState())
	for n := c.Parent(); n != nil; n = n.Parent() {
		assert.True(t, n.IsDirty(), n.Path())
	}
}

func TestMarkDirtyRecursively_LeavesSiblingsClean(t *testing.T) {
	p := mocks.NewMockProvider()
	p.CreateFile("/top/left/x", 1)
	p.CreateFile("/top/right/y", 1)
	ctx := context.Background()
	idx := newTestIndex(t, p)

	x, err := idx.RefreshAndResolve(ctx, "/top/left/x")
	require.NoError(t, err)
	y, err := idx.RefreshAndResolve(ctx, "/top/right/y")
	require.NoError(t, err)
	_, err = idx.Refresh(ctx, "/top", true)
	require.NoError(t, err)

	left := x.Parent()
	require.NoError(t, left.MarkDirtyRecursively())

	assert.Equal(t, vfs.DirtyRecursive, left.DirtyState())
	assert.Equal(t, vfs.DirtyRecursive, x.DirtyState())
	assert.Equal(t, vfs.Dirty, left.Parent().DirtyState())
	assert.False(t, y.IsDirty())
	assert.False(t, y.Parent().IsDirty())
}

func TestMarkDirty_DoesNotDowngradeRecursive(t *testing.T) {
	p := mocks.NewMockProvider()
	idx := newTestIndex(t, p)

	n, err := idx.Resolve("/a")
	require.NoError(t, err)
	require.NoError(t, n.MarkDirtyRecursively())
	require.NoError(t, n.MarkDirty())

	assert.Equal(t, vfs.DirtyRecursive, n.DirtyState())
}
