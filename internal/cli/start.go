package cli

import (
	"context"
	"log/slog"

	"github.com/cruciblehq/nova/internal/server"
)

// Represents the 'nova start' command.
type StartCmd struct {
	Reports string `help:"Directory build reports are saved to." placeholder:"DIR"`
}

// Executes the start command.
//
// Starts the daemon on a Unix domain socket and blocks until the context
// is cancelled (e.g. via SIGINT or SIGTERM) or a client asks it to stop.
func (c *StartCmd) Run(ctx context.Context) error {
	d, err := connect()
	if err != nil {
		return err
	}

	if _, err := d.NegotiateVersion(ctx); err != nil {
		slog.Warn("version negotiation failed", "error", err)
	}

	srv, err := server.New(server.Config{
		SocketPath: RootCmd.Socket,
		ReportDir:  c.Reports,
		Docker:     d,
	})
	if err != nil {
		return err
	}

	if err := srv.Start(); err != nil {
		return err
	}

	slog.Info("nova is running", "engine", d.Addr(), "api_version", d.ClientVersion().String())

	stopped := make(chan struct{})
	go func() {
		srv.Wait()
		close(stopped)
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutting down")
		return srv.Stop()
	case <-stopped:
		return nil
	}
}
