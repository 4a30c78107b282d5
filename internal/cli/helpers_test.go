package cli

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/DavidWenzler/reAM250-sub000/internal/config"
	"github.com/DavidWenzler/reAM250-sub000/internal/transport"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// execute runs cmd with args and returns stdout and stderr.
func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, string, error) {
	t.Helper()
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(testContext(t))
	return out.String(), errOut.String(), err
}

// startController runs a controller with the default configuration and a
// command server on a loopback port. It returns the server address.
func startController(t *testing.T) (*controller, string) {
	t.Helper()
	cfg := config.Default()
	cfg.Engine.CyclePeriod = time.Millisecond
	cfg.Engine.Lists = 8
	cfg.Engine.ListEntries = 64

	ctl, err := newController(cfg, discardLogger())
	require.NoError(t, err)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	server := transport.New(ctl.engine, transport.WithLogger(discardLogger()))

	ctx, cancel := context.WithCancel(context.Background())
	engineDone := make(chan struct{})
	serverDone := make(chan struct{})
	go func() {
		defer close(engineDone)
		_ = ctl.engine.Run(ctx)
	}()
	go func() {
		defer close(serverDone)
		_ = server.Serve(ctx, ln)
	}()
	t.Cleanup(func() {
		cancel()
		<-engineDone
		<-serverDone
	})
	return ctl, ln.Addr().String()
}
