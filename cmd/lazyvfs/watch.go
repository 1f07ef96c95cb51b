package main

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/charmbracelet/bubbles/spinner"
	"go.uber.org/zap"

	"github.com/Cyclone1070/lazyvfs/internal/ui"
	"github.com/Cyclone1070/lazyvfs/internal/ui/services"
	"github.com/Cyclone1070/lazyvfs/internal/vfs"
	"github.com/Cyclone1070/lazyvfs/internal/watcher"
)

func runWatch(ctx context.Context, args []string, deps Dependencies) error {
	fs := newFlagSet("watch")
	noTUI := fs.Bool("no-tui", false, "log changes instead of starting the terminal UI")
	if err := parseArgs(fs, args); err != nil {
		return err
	}

	root := "."
	switch fs.NArg() {
	case 0:
	case 1:
		root = fs.Arg(0)
	default:
		return &UsageError{Command: "watch", Reason: "expected at most one root"}
	}

	wd, err := deps.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get working directory: %w", err)
	}
	if !filepath.IsAbs(root) {
		root = filepath.Join(wd, root)
	}
	s, err := newSessionAt(deps, root)
	if err != nil {
		return err
	}

	rootNode, err := resolveExisting(ctx, s, s.base)
	if err != nil {
		return err
	}
	if err := s.load(ctx, rootNode, true); err != nil {
		return err
	}
	s.logger.Info("watching", zap.String("root", rootNode.Path()), zap.Int("nodes", s.index.NodeCount()))

	if *noTUI {
		return watchHeadless(ctx, s)
	}
	return watchInteractive(ctx, s, rootNode)
}

func newWatcher(s *session, onResult func([]*vfs.RefreshResult)) (*watcher.Watcher, error) {
	cfg := s.deps.Config.Watch
	return watcher.New(s.index, s.deps.FS, s.base,
		watcher.WithDebounce(cfg.Debounce),
		watcher.WithPollInterval(cfg.PollInterval),
		watcher.WithScope(s.resolver),
		watcher.WithSkipDir(s.skipDir),
		watcher.WithLogger(s.logger.Named("watcher")),
		watcher.WithResultHandler(onResult),
	)
}

// watchHeadless logs every committed change until ctx is cancelled.
func watchHeadless(ctx context.Context, s *session) error {
	remove := s.index.AddListener(vfs.ListenerFuncs{
		After: func(events []vfs.Event) {
			for _, ev := range events {
				fmt.Fprintln(s.deps.Stdout, ev.String())
			}
		},
	})
	defer remove()

	w, err := newWatcher(s, func(results []*vfs.RefreshResult) {
		for _, r := range results {
			s.logger.Debug("refreshed",
				zap.String("root", r.Root),
				zap.Stringer("status", r.Status),
				zap.Int("events", len(r.Events)),
				zap.Int("failures", len(r.Failures)))
		}
	})
	if err != nil {
		return err
	}
	return w.Run(ctx)
}

// watchInteractive runs the terminal UI on the main goroutine with the
// watcher and command handler alongside it.
func watchInteractive(ctx context.Context, s *session, root *vfs.Node) error {
	cfg := s.deps.Config
	channels := ui.NewUIChannels(cfg)
	spinnerFactory := func() spinner.Model {
		return spinner.New(spinner.WithSpinner(spinner.Dot))
	}
	userInterface := ui.NewUI(channels, cfg.UI, root.Path(), services.NewGlamourRenderer(""), spinnerFactory)

	remove := s.index.AddListener(userInterface.Listener())
	defer remove()

	report := func(results []*vfs.RefreshResult) {
		reportResults(userInterface, results)
	}
	w, err := newWatcher(s, report)
	if err != nil {
		return err
	}

	watchCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup

	// Goroutine #1: filesystem watcher
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := w.Run(watchCtx); err != nil {
			userInterface.WriteStatus("error", err.Error())
		}
	}()

	// Goroutine #2: command handler
	wg.Add(1)
	go func() {
		defer wg.Done()
		<-userInterface.Ready()
		userInterface.WriteStatus("done", fmt.Sprintf("%d nodes loaded", s.index.NodeCount()))

		for {
			select {
			case <-watchCtx.Done():
				userInterface.Quit()
				return
			case cmd := <-userInterface.Commands():
				handleCommand(watchCtx, s, root, userInterface, cmd)
			}
		}
	}()

	// Run UI in main thread (blocks until exit)
	err = userInterface.Start()

	// UI exited, trigger shutdown
	cancel()
	wg.Wait()

	if err != nil {
		return fmt.Errorf("error running UI: %w", err)
	}
	return nil
}

func handleCommand(ctx context.Context, s *session, root *vfs.Node, out ui.WatchInterface, cmd ui.UICommand) {
	var (
		results []*vfs.RefreshResult
		err     error
	)
	switch cmd.Type {
	case ui.CommandRefresh:
		target := cmd.Args["path"]
		if target == "" {
			target = root.Path()
		}
		var r *vfs.RefreshResult
		r, err = s.index.Refresh(ctx, target, false)
		if r != nil {
			results = []*vfs.RefreshResult{r}
		}
	case ui.CommandRefreshAll:
		var r *vfs.RefreshResult
		r, err = s.index.Refresh(ctx, root.Path(), true)
		if r != nil {
			results = []*vfs.RefreshResult{r}
		}
	default:
		return
	}

	if err != nil {
		out.WriteStatus("error", err.Error())
		return
	}
	reportResults(out, results)
}

func reportResults(out ui.WatchInterface, results []*vfs.RefreshResult) {
	events, failures := 0, 0
	for _, r := range results {
		events += len(r.Events)
		failures += len(r.Failures)
	}

	out.WriteSummary(services.SummaryMarkdown(results))
	if failures > 0 {
		out.WriteStatus("error", fmt.Sprintf("%d changes, %d failures", events, failures))
		return
	}
	out.WriteStatus("done", fmt.Sprintf("%d changes", events))
}
