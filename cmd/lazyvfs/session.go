package main

import (
	"context"
	"fmt"
	"path"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/Cyclone1070/lazyvfs/internal/logging"
	"github.com/Cyclone1070/lazyvfs/internal/provider"
	"github.com/Cyclone1070/lazyvfs/internal/service/git"
	pathsvc "github.com/Cyclone1070/lazyvfs/internal/service/path"
	"github.com/Cyclone1070/lazyvfs/internal/vfs"
)

type ignoreMatcher interface {
	ShouldIgnore(relativePath string, isDir bool) bool
}

// session wires an index over the local filesystem for one command.
type session struct {
	deps     Dependencies
	base     string
	resolver *pathsvc.Resolver
	ignore   ignoreMatcher
	index    *vfs.Index
	logger   *zap.Logger
}

func newSession(deps Dependencies) (*session, error) {
	wd, err := deps.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}
	return newSessionAt(deps, wd)
}

// newSessionAt builds a session whose relative paths and ignore rules are
// anchored at base.
func newSessionAt(deps Dependencies, base string) (*session, error) {
	canonicalBase, err := pathsvc.CanonicaliseRoot(base)
	if err != nil {
		return nil, fmt.Errorf("failed to canonicalise %s: %w", base, err)
	}

	logger := logging.Named("lazyvfs")
	cfg := deps.Config
	resolver := pathsvc.NewResolver(canonicalBase)

	var matcher ignoreMatcher = &git.NoOpMatcher{}
	if cfg.Refresh.RespectGitignore {
		m, err := git.NewIgnoreMatcher(canonicalBase, deps.FS, cfg.Refresh.IgnorePatterns)
		if err != nil {
			logger.Warn("gitignore unavailable, continuing without it", zap.Error(err))
		} else {
			matcher = m
		}
	}

	prov := provider.NewLocal(deps.FS,
		provider.WithIgnoreMatcher(matcher, resolver),
		provider.WithDotfilesHidden(cfg.Refresh.MarkDotfilesHidden),
	)
	idx := vfs.NewIndex(prov,
		vfs.WithCaseSensitive(cfg.Index.CaseSensitive()),
		vfs.WithMaxParallelRoots(cfg.Refresh.MaxParallelRoots),
		vfs.WithLogger(logging.Named("vfs")),
	)

	return &session{
		deps:     deps,
		base:     canonicalBase,
		resolver: resolver,
		ignore:   matcher,
		index:    idx,
		logger:   logger,
	}, nil
}

// abs turns a command-line path into the index's slash form.
func (s *session) abs(p string) (string, error) {
	return s.resolver.Abs(p)
}

// skipDir reports whether a directory is excluded from loading and
// watching.
func (s *session) skipDir(p string) bool {
	if filepath.Base(p) == ".git" {
		return true
	}
	rel, err := s.resolver.Rel(p)
	if err != nil || rel == "" {
		return false
	}
	return s.ignore.ShouldIgnore(rel, true)
}

// load populates the children of n, descending into subdirectories when
// recursive. Symlinks and skipped directories are not descended into.
func (s *session) load(ctx context.Context, n *vfs.Node, recursive bool) error {
	children, err := n.Children()
	if err != nil {
		return err
	}
	if !recursive {
		return nil
	}
	for _, child := range children {
		if err := ctx.Err(); err != nil {
			return err
		}
		attrs, ok := child.CachedAttributes()
		if !ok || attrs.Type != vfs.TypeDirectory {
			continue
		}
		if s.skipDir(filepath.FromSlash(path.Clean(child.Path()))) {
			continue
		}
		if err := s.load(ctx, child, true); err != nil {
			s.logger.Warn("could not load directory", zap.String("path", child.Path()), zap.Error(err))
		}
	}
	return nil
}
