package vfs_test

import (
	"context"
	"errors"
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/Cyclone1070/lazyvfs/internal/testing/mocks"
	"github.com/Cyclone1070/lazyvfs/internal/vfs"
)

func newTestIndex(t *testing.T, p vfs.AttributesProvider, opts ...vfs.Option) *vfs.Index {
	t.Helper()
	opts = append([]vfs.Option{vfs.WithLogger(zaptest.NewLogger(t))}, opts...)
	return vfs.NewIndex(p, opts...)
}

// recorder captures both listener phases.
type recorder struct {
	before [][]vfs.Event
	after  [][]vfs.Event
}

func (r *recorder) BeforeChanges(events []vfs.Event) { r.before = append(r.before, events) }
func (r *recorder) AfterChanges(events []vfs.Event)  { r.after = append(r.after, events) }

func (r *recorder) all() []vfs.Event {
	var out []vfs.Event
	for _, batch := range r.after {
		out = append(out, batch...)
	}
	return out
}

func eventStrings(events []vfs.Event) []string {
	out := make([]string, len(events))
	for i, e := range events {
		out[i] = e.Kind.String() + " " + e.Path
	}
	return out
}

type canonicalHosts struct {
	*mocks.MockProvider
}

func (c canonicalHosts) CanonicalRoot(root string) string {
	return strings.TrimSuffix(strings.ToLower(root), ".corp.example")
}

func TestResolve_EquivalentSpellingsShareNode(t *testing.T) {
	idx := newTestIndex(t, mocks.NewMockProvider())

	tests := []struct {
		name string
		a, b string
	}{
		{"unc host case", `\\unit-133\share`, "//UNIT-133/share"},
		{"drive letter case", `c:\work`, "C:/work"},
		{"redundant segments", "/a/./b//c", "/a/b/x/../c"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := idx.Resolve(tt.a)
			require.NoError(t, err)
			b, err := idx.Resolve(tt.b)
			require.NoError(t, err)
			assert.Same(t, a, b)
		})
	}
}

func TestResolve_ProviderRootIdentity(t *testing.T) {
	idx := newTestIndex(t, canonicalHosts{mocks.NewMockProvider()})

	a, err := idx.Resolve("//unit-133.corp.example/share")
	require.NoError(t, err)
	b, err := idx.Resolve(`\\UNIT-133\share`)
	require.NoError(t, err)

	assert.Same(t, a, b)
	assert.Len(t, idx.Roots(), 1)
}

func TestResolve_CaseInsensitiveKeepsFirstSpelling(t *testing.T) {
	idx := newTestIndex(t, mocks.NewMockProvider(), vfs.WithCaseSensitive(false))

	first, err := idx.Resolve("/Docs/ReadMe.md")
	require.NoError(t, err)
	second, err := idx.Resolve("/docs/README.MD")
	require.NoError(t, err)
	unicode, err := idx.Resolve("/Docs/STRASSE")
	require.NoError(t, err)
	folded, err := idx.Resolve("/docs/straße")
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, "/Docs/ReadMe.md", second.Path())
	assert.Same(t, unicode, folded)
}

func TestResolve_CaseSensitiveDistinguishesNames(t *testing.T) {
	idx := newTestIndex(t, mocks.NewMockProvider())

	a, err := idx.Resolve("/x/File")
	require.NoError(t, err)
	b, err := idx.Resolve("/x/file")
	require.NoError(t, err)

	assert.NotSame(t, a, b)
}

func TestResolve_InvalidPath(t *testing.T) {
	idx := newTestIndex(t, mocks.NewMockProvider())

	for _, p := range []string{"", "relative/path", "/a/\x00", "/tmp/LPT1", "/.."} {
		_, err := idx.Resolve(p)
		var pathErr *vfs.InvalidPathError
		assert.True(t, errors.As(err, &pathErr), "path %q: %v", p, err)
	}
}

func TestResolve_DoesNotTouchProvider(t *testing.T) {
	p := mocks.NewMockProvider()
	idx := newTestIndex(t, p)

	n, err := idx.Resolve("/no/such/file")
	require.NoError(t, err)

	assert.True(t, n.IsValid())
	assert.Equal(t, 0, p.Calls())
}

func TestResolve_MarksAncestorsAccessedNotLoaded(t *testing.T) {
	p := mocks.NewMockProvider()
	p.CreateDir("/top/d")
	ctx := context.Background()
	idx := newTestIndex(t, p)

	d, err := idx.RefreshAndResolve(ctx, "/top/d")
	require.NoError(t, err)
	require.NotNil(t, d)
	assert.False(t, d.ChildrenAccessed())
	assert.False(t, d.ChildrenLoaded())

	p.CreateFile("/top/d/a", 1)
	a, err := idx.Resolve("/top/d/a")
	require.NoError(t, err)

	for n := a.Parent(); n != nil; n = n.Parent() {
		assert.True(t, n.ChildrenAccessed(), n.Path())
		assert.False(t, n.ChildrenLoaded(), n.Path())
	}
	assert.False(t, a.ChildrenAccessed())

	children, err := d.Children()
	require.NoError(t, err)
	assert.True(t, d.ChildrenLoaded())
	require.Len(t, children, 1)
	assert.Same(t, a, children[0])
}

func TestRefreshAndResolve_Existing(t *testing.T) {
	p := mocks.NewMockProvider()
	p.CreateFile("/src/main.go", 42)
	idx := newTestIndex(t, p)

	n, err := idx.RefreshAndResolve(context.Background(), "/src/main.go")
	require.NoError(t, err)
	require.NotNil(t, n)

	attrs, ok := n.CachedAttributes()
	require.True(t, ok)
	assert.Equal(t, vfs.TypeFile, attrs.Type)
	assert.Equal(t, int64(42), attrs.Length)
	assert.False(t, n.IsDirty())
}

func TestRefreshAndResolve_MissingPrunesPlaceholders(t *testing.T) {
	p := mocks.NewMockProvider()
	idx := newTestIndex(t, p)
	rec := &recorder{}
	idx.AddListener(rec)

	n, err := idx.RefreshAndResolve(context.Background(), "/missing/deeper/file.txt")
	require.NoError(t, err)
	assert.Nil(t, n)

	got, err := idx.Lookup("/missing")
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Empty(t, rec.after, "never-observed placeholders vanish silently")
	assert.Equal(t, 0, idx.NodeCount())
}

func TestRefreshAndResolve_InvalidatesPriorNode(t *testing.T) {
	p := mocks.NewMockProvider()
	p.CreateFile("/work/file.txt", 4)
	ctx := context.Background()
	idx := newTestIndex(t, p)

	old, err := idx.RefreshAndResolve(ctx, "/work/file.txt")
	require.NoError(t, err)
	require.NotNil(t, old)

	rec := &recorder{}
	idx.AddListener(rec)
	p.Remove("/work/file.txt")

	n, err := idx.RefreshAndResolve(ctx, "/work/file.txt")
	require.NoError(t, err)
	assert.Nil(t, n)
	assert.False(t, old.IsValid())
	assert.Equal(t, []string{"delete /work/file.txt"}, eventStrings(rec.all()))

	p.CreateFile("/work/file.txt", 8)
	again, err := idx.RefreshAndResolve(ctx, "/work/file.txt")
	require.NoError(t, err)
	require.NotNil(t, again)
	assert.NotSame(t, old, again)
	assert.True(t, again.IsValid())
}

func TestRefreshAndResolve_ProviderFailure(t *testing.T) {
	p := mocks.NewMockProvider()
	p.CreateFile("/locked", 1)
	p.SetError("/locked", fs.ErrPermission)
	idx := newTestIndex(t, p)

	n, err := idx.RefreshAndResolve(context.Background(), "/locked")
	assert.Nil(t, n)

	var provErr *vfs.ProviderError
	require.True(t, errors.As(err, &provErr))
	assert.Equal(t, "stat", provErr.Op)
	assert.ErrorIs(t, err, fs.ErrPermission)
}

func TestMarkDirty_NearestCachedAncestor(t *testing.T) {
	p := mocks.NewMockProvider()
	p.CreateDir("/a/b")
	ctx := context.Background()
	idx := newTestIndex(t, p)

	b, err := idx.RefreshAndResolve(ctx, "/a/b")
	require.NoError(t, err)
	require.False(t, b.IsDirty())

	marked, err := idx.MarkDirty("/a/b/not/cached")
	require.NoError(t, err)
	assert.True(t, marked)
	assert.True(t, b.IsDirty())
	assert.True(t, b.Parent().IsDirty())

	marked, err = idx.MarkDirty("C:/elsewhere")
	require.NoError(t, err)
	assert.False(t, marked)
}

func TestMarkDirtyRecursive_ReachesNestedChanges(t *testing.T) {
	p := mocks.NewMockProvider()
	p.CreateFile("/top/sub/f", 1)
	ctx := context.Background()
	idx := newTestIndex(t, p)

	f, err := idx.RefreshAndResolve(ctx, "/top/sub/f")
	require.NoError(t, err)
	top := f.Parent().Parent()
	_, err = top.Children()
	require.NoError(t, err)
	_, err = f.Parent().Children()
	require.NoError(t, err)
	require.False(t, f.IsDirty())

	p.Touch("/top/sub/f", 5)

	marked, err := idx.MarkDirty("/top")
	require.NoError(t, err)
	require.True(t, marked)
	results, err := idx.RefreshDirty(ctx)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Empty(t, results[0].Events, "a plain mark only rechecks the directory itself")

	marked, err = idx.MarkDirtyRecursive("/top")
	require.NoError(t, err)
	require.True(t, marked)
	assert.Equal(t, vfs.DirtyRecursive, f.DirtyState())

	results, err = idx.RefreshDirty(ctx)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, []string{"content_change /top/sub/f"}, eventStrings(results[0].Events))
	assert.False(t, f.IsDirty())
}

func TestMarkDirtyRecursive_UncachedRoot(t *testing.T) {
	idx := newTestIndex(t, mocks.NewMockProvider())

	marked, err := idx.MarkDirtyRecursive("C:/nothing")
	require.NoError(t, err)
	assert.False(t, marked)

	_, err = idx.MarkDirtyRecursive("relative/path")
	assert.Error(t, err)
}

func TestAddListener_Remove(t *testing.T) {
	p := mocks.NewMockProvider()
	p.CreateFile("/f", 1)
	ctx := context.Background()
	idx := newTestIndex(t, p)

	_, err := idx.RefreshAndResolve(ctx, "/f")
	require.NoError(t, err)

	rec := &recorder{}
	remove := idx.AddListener(rec)
	remove()

	p.Touch("/f", 2)
	_, err = idx.Refresh(ctx, "/f", false)
	require.NoError(t, err)

	assert.Empty(t, rec.before)
	assert.Empty(t, rec.after)
}

func TestRefreshDirty_ProcessesEveryRoot(t *testing.T) {
	p := mocks.NewMockProvider()
	p.CreateFile("/a", 1)
	p.CreateDir("C:/")
	p.CreateFile("C:/b", 1)
	ctx := context.Background()
	idx := newTestIndex(t, p, vfs.WithMaxParallelRoots(2))

	a, err := idx.RefreshAndResolve(ctx, "/a")
	require.NoError(t, err)
	b, err := idx.RefreshAndResolve(ctx, "C:/b")
	require.NoError(t, err)

	p.Touch("/a", 10)
	p.Touch("C:/b", 20)
	require.NoError(t, a.MarkDirty())
	require.NoError(t, b.MarkDirty())

	rec := &recorder{}
	idx.AddListener(rec)

	results, err := idx.RefreshDirty(ctx)
	require.NoError(t, err)
	require.Len(t, results, 2)
	for _, r := range results {
		assert.Equal(t, vfs.StatusCompleted, r.Status)
	}
	assert.ElementsMatch(t, []string{"content_change /a", "content_change C:/b"}, eventStrings(rec.all()))
	for _, root := range idx.Roots() {
		assert.False(t, root.IsDirty(), root.Path())
	}
}
