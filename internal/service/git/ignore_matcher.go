package git

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
)

// fileSystem is the slice of the fs service the matcher needs.
type fileSystem interface {
	Stat(path string) (os.FileInfo, error)
	ReadFile(path string) ([]byte, error)
}

// IgnoreMatcher implements gitignore pattern matching using go-git's gitignore matcher.
type IgnoreMatcher struct {
	matcher gitignore.Matcher
}

// NewIgnoreMatcher loads .gitignore from root and appends extra patterns.
// A missing .gitignore is not an error.
func NewIgnoreMatcher(root string, fs fileSystem, extra []string) (*IgnoreMatcher, error) {
	if fs == nil {
		panic("fs is required")
	}

	var patterns []gitignore.Pattern
	gitignorePath := filepath.Join(root, ".gitignore")
	if _, err := fs.Stat(gitignorePath); err == nil {
		content, err := fs.ReadFile(gitignorePath)
		if err != nil {
			return nil, &GitignoreReadError{Path: gitignorePath, Cause: err}
		}
		patterns = append(patterns, parsePatterns(splitLines(string(content)))...)
	}
	patterns = append(patterns, parsePatterns(extra)...)

	if len(patterns) == 0 {
		return &IgnoreMatcher{}, nil
	}
	return &IgnoreMatcher{matcher: gitignore.NewMatcher(patterns)}, nil
}

func parsePatterns(lines []string) []gitignore.Pattern {
	var patterns []gitignore.Pattern
	for _, line := range lines {
		line = strings.TrimRight(line, " \t")
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, gitignore.ParsePattern(line, nil))
	}
	return patterns
}

// ShouldIgnore checks a root-relative path. Returns false if no patterns
// were loaded.
func (m *IgnoreMatcher) ShouldIgnore(relativePath string, isDir bool) bool {
	if m.matcher == nil {
		return false
	}
	segments := splitPath(relativePath)
	if len(segments) == 0 {
		return false
	}
	return m.matcher.Match(segments, isDir)
}

// splitPath splits a path into segments for gitignore matching.
// It normalizes path separators and filters out empty and "." segments.
func splitPath(path string) []string {
	normalized := filepath.ToSlash(path)

	var segments []string
	for _, part := range strings.Split(normalized, "/") {
		if part != "" && part != "." {
			segments = append(segments, part)
		}
	}
	return segments
}

// splitLines splits content into lines, handling both \n and \r\n line endings.
func splitLines(content string) []string {
	return strings.Split(strings.ReplaceAll(content, "\r\n", "\n"), "\n")
}

// NoOpMatcher never ignores anything. It is used when gitignore support is
// disabled.
type NoOpMatcher struct{}

func (m *NoOpMatcher) ShouldIgnore(relativePath string, isDir bool) bool {
	return false
}
