package git

import (
	"errors"
	"os"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Cyclone1070/lazyvfs/internal/service/fs"
)

type failingReadFS struct {
	*fs.OSFileSystem
}

func (f failingReadFS) ReadFile(string) ([]byte, error) {
	return nil, os.ErrPermission
}

func memFS(t *testing.T, files map[string]string) *fs.OSFileSystem {
	t.Helper()
	mem := afero.NewMemMapFs()
	for name, content := range files {
		require.NoError(t, afero.WriteFile(mem, name, []byte(content), 0o644))
	}
	require.NoError(t, mem.MkdirAll("/workspace", 0o755))
	return fs.New(mem)
}

func TestIgnoreMatcher_LoadsRootGitignore(t *testing.T) {
	fsys := memFS(t, map[string]string{
		"/workspace/.gitignore": "# build output\r\n*.log\nbuild/\n\n!keep.log\n",
	})

	m, err := NewIgnoreMatcher("/workspace", fsys, nil)
	require.NoError(t, err)

	tests := []struct {
		path  string
		isDir bool
		want  bool
	}{
		{"app.log", false, true},
		{"nested/dir/app.log", false, true},
		{"keep.log", false, false},
		{"build", true, true},
		{"build", false, false},
		{"src/main.go", false, false},
		{"", true, false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, m.ShouldIgnore(tt.path, tt.isDir))
		})
	}
}

func TestIgnoreMatcher_ExtraPatterns(t *testing.T) {
	m, err := NewIgnoreMatcher("/workspace", memFS(t, nil), []string{"node_modules/", "*.tmp"})
	require.NoError(t, err)

	assert.True(t, m.ShouldIgnore("web/node_modules", true))
	assert.True(t, m.ShouldIgnore("x.tmp", false))
	assert.False(t, m.ShouldIgnore("x.go", false))
}

func TestIgnoreMatcher_NoPatternsNeverIgnores(t *testing.T) {
	m, err := NewIgnoreMatcher("/workspace", memFS(t, nil), nil)
	require.NoError(t, err)

	assert.False(t, m.ShouldIgnore("anything.log", false))
}

func TestIgnoreMatcher_ReadError(t *testing.T) {
	fsys := memFS(t, map[string]string{"/workspace/.gitignore": "*.log\n"})

	_, err := NewIgnoreMatcher("/workspace", failingReadFS{fsys}, nil)

	var readErr *GitignoreReadError
	require.True(t, errors.As(err, &readErr))
	assert.ErrorIs(t, err, os.ErrPermission)
}

func TestSplitPath(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, splitPath("./a//b/"))
	assert.Nil(t, splitPath(""))
}

func TestSplitLines(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c", ""}, splitLines("a\r\nb\nc\r\n"))
	assert.Equal(t, []string{"*.tmp"}, splitLines("*.tmp"))
	assert.Equal(t, []string{"x\ry"}, splitLines("x\ry"))
}

func TestIgnoreMatcher_CRLFWithoutTrailingNewline(t *testing.T) {
	fsys := memFS(t, map[string]string{
		"/workspace/.gitignore": "dist/\r\n*.tmp",
	})

	m, err := NewIgnoreMatcher("/workspace", fsys, nil)
	require.NoError(t, err)

	assert.True(t, m.ShouldIgnore("dist", true))
	assert.True(t, m.ShouldIgnore("a/b.tmp", false))
	assert.False(t, m.ShouldIgnore("b.tmpx", false))
}

func TestNoOpMatcher(t *testing.T) {
	assert.False(t, (&NoOpMatcher{}).ShouldIgnore("x", false))
}
