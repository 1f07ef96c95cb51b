// Package main provides the lazyvfs command-line interface: one-shot
// stat/ls/refresh queries against the virtual file index and a live
// watch mode.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/Cyclone1070/lazyvfs/internal/config"
	"github.com/Cyclone1070/lazyvfs/internal/logging"
	"github.com/Cyclone1070/lazyvfs/internal/metrics"
	fssvc "github.com/Cyclone1070/lazyvfs/internal/service/fs"
)

const usage = `usage: lazyvfs <command> [flags] <path>

commands:
  stat     <path>                           show attributes of one entry
  ls       [-a] <dir>                       list a directory
  refresh  [-r] [-markdown] [-wait d] <path> load, wait, refresh and print changes
  watch    [-no-tui] [<root>]               watch a tree and stream changes
`

// Dependencies holds the components required to run a command.
type Dependencies struct {
	Config *config.Config
	FS     *fssvc.OSFileSystem
	Stdout io.Writer
	Stderr io.Writer
	Getwd  func() (string, error)
	// Pause runs between loading and refreshing in the refresh command.
	Pause func(ctx context.Context, d time.Duration) error
}

func defaultDependencies() Dependencies {
	fs := fssvc.NewOSFileSystem()

	// Load configuration (from defaults + ~/.config/lazyvfs/config.json)
	cfg, err := config.NewLoader(fs).Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to load config: %v\n", err)
		fmt.Fprintf(os.Stderr, "Using default configuration.\n")
		cfg = config.DefaultConfig()
	}

	return Dependencies{
		Config: cfg,
		FS:     fs,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		Getwd:  os.Getwd,
		Pause:  sleep,
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], defaultDependencies())
	stop()
	os.Exit(code)
}

// run dispatches a command and returns the process exit code.
func run(ctx context.Context, args []string, deps Dependencies) int {
	if len(args) == 0 {
		fmt.Fprint(deps.Stderr, usage)
		return 2
	}

	if err := logging.Init(logging.Config{
		Level:      deps.Config.Log.Level,
		Format:     deps.Config.Log.Format,
		OutputPath: deps.Config.Log.OutputPath,
	}); err != nil {
		fmt.Fprintf(deps.Stderr, "Warning: failed to initialise logging: %v\n", err)
	}
	defer func() { _ = logging.Sync() }()

	stopMetrics := startMetricsServer(deps.Config.Metrics.ListenAddr, logging.Named("metrics"))
	defer stopMetrics()

	var err error
	switch args[0] {
	case "stat":
		err = runStat(ctx, args[1:], deps)
	case "ls":
		err = runList(ctx, args[1:], deps)
	case "refresh":
		err = runRefresh(ctx, args[1:], deps)
	case "watch":
		err = runWatch(ctx, args[1:], deps)
	case "help", "-h", "--help":
		fmt.Fprint(deps.Stdout, usage)
		return 0
	default:
		fmt.Fprintf(deps.Stderr, "unknown command %q\n\n%s", args[0], usage)
		return 2
	}

	var usageErr *UsageError
	switch {
	case err == nil:
		return 0
	case errors.As(err, &usageErr):
		fmt.Fprintf(deps.Stderr, "%v\n\n%s", err, usage)
		return 2
	default:
		fmt.Fprintf(deps.Stderr, "Error: %v\n", err)
		return 1
	}
}

// startMetricsServer serves /metrics on addr when it is set. The returned
// function shuts the server down.
func startMetricsServer(addr string, logger *zap.Logger) func() {
	if addr == "" {
		return func() {}
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("metrics server stopped", zap.Error(err))
		}
	}()
	logger.Info("serving metrics", zap.String("addr", addr))

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
