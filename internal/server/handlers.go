package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"os"
	"time"

	"github.com/cruciblehq/nova/internal"
	"github.com/cruciblehq/nova/internal/build"
	"github.com/cruciblehq/nova/internal/protocol"
)

// Handles a build command.
//
// Receives a pipeline document from the CLI and runs it to completion on a
// clone of the server's engine handle. A build that finishes as failed is
// still answered with its report; only requests that cannot be run, or
// builds interrupted by the client going away, are answered with an error.
func (s *Server) handleBuild(ctx context.Context, conn net.Conn, payload json.RawMessage) {
	req, err := protocol.DecodePayload[protocol.BuildRequest](payload)
	if err != nil {
		s.respond(conn, protocol.CmdError, &protocol.ErrorResult{Message: err.Error()})
		return
	}

	p, err := req.Pipeline.Pipeline()
	if err != nil {
		s.respond(conn, protocol.CmdError, &protocol.ErrorResult{Message: err.Error()})
		return
	}

	opts := build.RunOptions{}
	if req.Interval != "" {
		interval, err := time.ParseDuration(req.Interval)
		if err != nil {
			s.respond(conn, protocol.CmdError, &protocol.ErrorResult{Message: "invalid interval: " + err.Error()})
			return
		}
		opts.Interval = interval
	}

	gw := s.docker.Clone()
	if req.Timeout != "" {
		timeout, err := time.ParseDuration(req.Timeout)
		if err != nil || timeout <= 0 {
			s.respond(conn, protocol.CmdError, &protocol.ErrorResult{Message: "invalid timeout: " + req.Timeout})
			return
		}
		gw = s.docker.WithTimeout(timeout)
	}
	b := build.New(p)

	slog.Info("build accepted", "build", b.ID(), "pipeline", p.Name, "steps", p.Len())

	runErr := build.Run(ctx, gw, b, opts)

	if req.Remove {
		build.Cleanup(context.Background(), gw, b)
	}

	s.mu.Lock()
	s.builds++
	s.mu.Unlock()

	report := b.Report()
	if path, err := report.Save(s.reportDir); err != nil {
		slog.Warn("failed to save report", "build", b.ID(), "error", err)
	} else {
		slog.Debug("report saved", "build", b.ID(), "path", path)
	}

	if runErr != nil && !b.Done() {
		s.respond(conn, protocol.CmdError, &protocol.ErrorResult{Message: runErr.Error()})
		return
	}

	s.respond(conn, protocol.CmdOK, &protocol.BuildResult{Report: report})
}

// Handles a status command.
func (s *Server) handleStatus(conn net.Conn) {
	s.mu.Lock()
	builds := s.builds
	s.mu.Unlock()

	uptime := time.Since(s.startedAt).Truncate(time.Second)

	s.respond(conn, protocol.CmdOK, &protocol.StatusResult{
		Running:    true,
		Version:    internal.VersionString(),
		Pid:        os.Getpid(),
		Uptime:     uptime.String(),
		Builds:     builds,
		Engine:     s.docker.Addr(),
		APIVersion: s.docker.ClientVersion().String(),
		Timeout:    s.docker.Timeout().String(),
	})
}

// Handles a shutdown command.
func (s *Server) handleShutdown(conn net.Conn) {
	s.respond(conn, protocol.CmdOK, nil)
	slog.Info("shutdown requested")

	go func() {
		s.Stop()
	}()
}
