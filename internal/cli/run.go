package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"

	"github.com/DavidWenzler/reAM250-sub000/internal/engine"
	"github.com/DavidWenzler/reAM250-sub000/internal/monitor"
	"github.com/DavidWenzler/reAM250-sub000/internal/store"
	"github.com/DavidWenzler/reAM250-sub000/internal/transport"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Listen  string // overrides server.host/server.port
	Archive string // overrides archive.path
	Monitor string // overrides monitor.address

	// ready is called with the bound addresses once the controller accepts
	// connections. The monitor address is empty when the monitor is off.
	ready func(server, monitor string)
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	return newRunCommand(&RunOptions{RootOptions: rootOpts})
}

func newRunCommand(opts *RunOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start the controller",
		Long: `Start the cyclic controller.

The controller ticks on the configured scan cycle, answers requests on the
TCP command port and, when configured, archives journal changes to SQLite
and serves the HTTP monitor.

Example:
  ream run --config ./ream.yaml
  ream run --listen 127.0.0.1:12200 --archive ./ream.db --monitor 127.0.0.1:12280`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runController(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Listen, "listen", "", "command server address (host:port)")
	cmd.Flags().StringVar(&opts.Archive, "archive", "", "path to the SQLite journal archive")
	cmd.Flags().StringVar(&opts.Monitor, "monitor", "", "HTTP monitor address (host:port)")

	return cmd
}

func runController(opts *RunOptions, cmd *cobra.Command) error {
	logLevel := slog.LevelInfo
	if opts.Verbose {
		logLevel = slog.LevelDebug
	}
	handler := slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
		Level: logLevel,
	})
	logger := slog.New(handler)
	slog.SetDefault(logger)

	cfg, err := opts.loadConfig()
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load configuration", err)
	}
	address := cfg.Server.Address()
	if opts.Listen != "" {
		address = opts.Listen
	}
	if opts.Archive != "" {
		cfg.Archive.Path = opts.Archive
	}
	if opts.Monitor != "" {
		cfg.Monitor.Address = opts.Monitor
	}

	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	// The archive is opened first so the engine can record into it from
	// the first cycle on.
	var (
		st       *store.Store
		archiver *store.Archiver
		extra    []engine.Option
	)
	if cfg.Archive.Path != "" {
		slog.Info("opening archive", "path", cfg.Archive.Path)
		st, err = store.Open(cfg.Archive.Path)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open archive", err)
		}
		defer func() {
			if closeErr := st.Close(); closeErr != nil {
				slog.Error("error closing archive", "error", closeErr)
			}
		}()
		archiver = store.NewArchiver(st, engine.UUIDv7Generator{}.Generate(),
			store.WithBuffer(cfg.Archive.Buffer),
			store.WithBatchSize(cfg.Archive.BatchSize),
			store.WithLogger(logger),
		)
		extra = append(extra, engine.WithRecorder(archiver.Record))
	}

	ctl, err := newController(cfg, logger, extra...)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to build controller", err)
	}
	if archiver != nil {
		if err := st.BeginRun(ctx, archiver.RunID(), time.Now().UTC(), ctl.engine.Schema()); err != nil {
			return WrapExitError(ExitCommandError, "failed to start archive run", err)
		}
		slog.Info("archive run started", "run", archiver.RunID())
	}

	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", address)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to listen", err)
	}
	defer ln.Close()
	server := transport.New(ctl.engine,
		transport.WithLogger(logger),
		transport.WithMaxConnections(cfg.Server.MaxConnections),
	)

	var (
		mon   *monitor.Monitor
		monLn net.Listener
	)
	if cfg.Monitor.Address != "" {
		monLn, err = lc.Listen(ctx, "tcp", cfg.Monitor.Address)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to listen for monitor", err)
		}
		defer monLn.Close()
		monOpts := []monitor.Option{monitor.WithLogger(logger), monitor.WithTransport(server)}
		if archiver != nil {
			monOpts = append(monOpts, monitor.WithArchive(archiver))
		}
		mon = monitor.New(ctl.engine, monOpts...)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			slog.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	// The archiver outlives the tick loop so the records of the last cycle
	// are flushed.
	archiveCtx, stopArchive := context.WithCancel(context.WithoutCancel(ctx))
	defer stopArchive()

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	fail := func(name string, err error) {
		if err == nil || errors.Is(err, context.Canceled) {
			return
		}
		slog.Error("component failed", "component", name, "error", err)
		mu.Lock()
		if firstErr == nil {
			firstErr = fmt.Errorf("%s: %w", name, err)
		}
		mu.Unlock()
		cancel()
	}

	wg.Go(func() {
		fail("engine", ctl.engine.Run(ctx))
		cancel()
		stopArchive()
	})
	wg.Go(func() { fail("transport", server.Serve(ctx, ln)) })
	if mon != nil {
		wg.Go(func() { fail("monitor", mon.Serve(ctx, monLn)) })
	}
	if archiver != nil {
		wg.Go(func() { fail("archive", archiver.Run(archiveCtx)) })
	}

	done := make(chan struct{})
	atexit.Register(func() {
		cancel()
		<-done
	})

	monAddr := ""
	if monLn != nil {
		monAddr = monLn.Addr().String()
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Controller listening on %s\n", ln.Addr())
	if monAddr != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "Monitor on http://%s/api/engine\n", monAddr)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Press Ctrl-C to stop.")
	if opts.ready != nil {
		opts.ready(ln.Addr().String(), monAddr)
	}

	wg.Wait()
	close(done)

	attrs := []any{"cycles", ctl.engine.Cycles(), "dropped_requests", ctl.engine.Dropped()}
	if archiver != nil {
		attrs = append(attrs, "run", archiver.RunID(), "archived", archiver.Written(), "archive_dropped", archiver.Dropped())
	}
	slog.Info("controller stopped", attrs...)

	if firstErr != nil {
		return WrapExitError(ExitFailure, "controller error", firstErr)
	}
	return nil
}
