package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/Cyclone1070/lazyvfs/internal/ui/services"
	"github.com/Cyclone1070/lazyvfs/internal/vfs"
)

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func parseArgs(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return &UsageError{Command: fs.Name(), Reason: err.Error()}
	}
	return nil
}

func singlePath(fs *flag.FlagSet) (string, error) {
	if fs.NArg() != 1 {
		return "", &UsageError{Command: fs.Name(), Reason: "expected exactly one path"}
	}
	return fs.Arg(0), nil
}

// resolveExisting returns the node for a command-line path, checked
// against the filesystem.
func resolveExisting(ctx context.Context, s *session, arg string) (*vfs.Node, error) {
	p, err := s.abs(arg)
	if err != nil {
		return nil, err
	}
	n, err := s.index.RefreshAndResolve(ctx, p)
	if err != nil {
		return nil, err
	}
	if n == nil {
		return nil, &NotFoundError{Path: p}
	}
	return n, nil
}

func runStat(ctx context.Context, args []string, deps Dependencies) error {
	fs := newFlagSet("stat")
	if err := parseArgs(fs, args); err != nil {
		return err
	}
	arg, err := singlePath(fs)
	if err != nil {
		return err
	}

	s, err := newSession(deps)
	if err != nil {
		return err
	}
	n, err := resolveExisting(ctx, s, arg)
	if err != nil {
		return err
	}
	attrs, err := n.Attributes()
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(deps.Stdout, 0, 0, 1, ' ', 0)
	fmt.Fprintf(w, "path:\t%s\n", n.Path())
	fmt.Fprintf(w, "type:\t%s\n", attrs.Type)
	if attrs.Type == vfs.TypeSymlink {
		fmt.Fprintf(w, "target:\t%s (%s)\n", attrs.SymlinkTarget, attrs.TargetType)
	}
	fmt.Fprintf(w, "length:\t%d\n", attrs.Length)
	fmt.Fprintf(w, "modified:\t%s\n", attrs.ModTime.Format(time.RFC3339))
	fmt.Fprintf(w, "hidden:\t%t\n", attrs.Hidden)
	return w.Flush()
}

func runList(ctx context.Context, args []string, deps Dependencies) error {
	fs := newFlagSet("ls")
	all := fs.Bool("a", false, "include hidden entries")
	if err := parseArgs(fs, args); err != nil {
		return err
	}
	arg, err := singlePath(fs)
	if err != nil {
		return err
	}

	s, err := newSession(deps)
	if err != nil {
		return err
	}
	n, err := resolveExisting(ctx, s, arg)
	if err != nil {
		return err
	}
	isDir, err := n.IsDirectory()
	if err != nil {
		return err
	}
	if !isDir {
		return fmt.Errorf("%s: %w", n.Path(), vfs.ErrNotDirectory)
	}

	children, err := n.Children()
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(deps.Stdout, 0, 0, 2, ' ', tabwriter.AlignRight)
	for _, child := range children {
		attrs, ok := child.CachedAttributes()
		if !ok {
			continue
		}
		if attrs.Hidden && !*all {
			continue
		}
		fmt.Fprintf(w, "%s\t%d\t %s\t %s\n",
			typeFlag(attrs), attrs.Length, attrs.ModTime.Format("2006-01-02 15:04"), displayName(child.Name(), attrs))
	}
	return w.Flush()
}

func typeFlag(a vfs.Attributes) string {
	switch a.Type {
	case vfs.TypeDirectory:
		return "d"
	case vfs.TypeSymlink:
		return "l"
	default:
		return "-"
	}
}

func displayName(name string, a vfs.Attributes) string {
	switch {
	case a.Type == vfs.TypeSymlink:
		return name + " -> " + a.SymlinkTarget
	case a.IsDir():
		return name + "/"
	default:
		return name
	}
}

func runRefresh(ctx context.Context, args []string, deps Dependencies) error {
	fs := newFlagSet("refresh")
	recursive := fs.Bool("r", false, "refresh the whole subtree")
	markdown := fs.Bool("markdown", false, "render the summary as markdown")
	wait := fs.Duration("wait", 0, "time to wait between loading and refreshing")
	if err := parseArgs(fs, args); err != nil {
		return err
	}
	arg, err := singlePath(fs)
	if err != nil {
		return err
	}

	s, err := newSession(deps)
	if err != nil {
		return err
	}
	n, err := resolveExisting(ctx, s, arg)
	if err != nil {
		return err
	}
	if isDir, _ := n.IsDirectory(); isDir {
		if err := s.load(ctx, n, *recursive); err != nil {
			return err
		}
	}

	if err := deps.Pause(ctx, *wait); err != nil {
		return err
	}

	result, err := s.index.Refresh(ctx, n.Path(), *recursive)
	if err != nil {
		return err
	}

	for _, ev := range result.Events {
		fmt.Fprintln(deps.Stdout, ev.String())
	}

	results := []*vfs.RefreshResult{result}
	if *markdown {
		out, err := services.RenderMarkdown(services.SummaryMarkdown(results), 80, services.NewGlamourRenderer(""))
		if err != nil {
			return err
		}
		fmt.Fprint(deps.Stdout, out)
		return nil
	}
	fmt.Fprintln(deps.Stdout, plainSummary(result))
	for _, f := range result.Failures {
		fmt.Fprintf(deps.Stdout, "failed: %s %s: %v\n", f.Op, f.Path, f.Err)
	}
	return nil
}

func plainSummary(r *vfs.RefreshResult) string {
	return fmt.Sprintf("%s: %d events, %d failures, %d visited in %s",
		r.Status, len(r.Events), len(r.Failures), r.Visited, r.Duration.Round(time.Microsecond))
}
