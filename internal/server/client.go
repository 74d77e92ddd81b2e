package server

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"strings"

	"github.com/cruciblehq/nova/internal/build"
	"github.com/cruciblehq/nova/internal/paths"
	"github.com/cruciblehq/nova/internal/pipeline"
	"github.com/cruciblehq/nova/internal/protocol"
)

// Talks to a running daemon over its Unix socket.
//
// Each call opens its own connection, so a Client is safe for concurrent
// use.
type Client struct {
	socketPath string
	dialer     net.Dialer
}

// Creates a client for the daemon socket at socketPath, or the default
// socket when it is empty.
func NewClient(socketPath string) *Client {
	socketPath = strings.TrimSpace(socketPath)
	if socketPath == "" {
		socketPath = paths.Socket()
	}
	return &Client{socketPath: socketPath}
}

// Submits a pipeline and waits for the build to end.
//
// Returns the build report. A build that finished as failed is not an
// error here; inspect the report.
func (c *Client) Build(ctx context.Context, p *pipeline.Pipeline, req protocol.BuildRequest) (build.Report, error) {
	req.Pipeline = *p.Document()

	var res protocol.BuildResult
	if err := c.send(ctx, protocol.CmdBuild, &req, &res); err != nil {
		return build.Report{}, err
	}
	return res.Report, nil
}

// Returns the daemon's status.
func (c *Client) Status(ctx context.Context) (protocol.StatusResult, error) {
	var res protocol.StatusResult
	err := c.send(ctx, protocol.CmdStatus, nil, &res)
	return res, err
}

// Asks the daemon to stop.
func (c *Client) Shutdown(ctx context.Context) error {
	return c.send(ctx, protocol.CmdShutdown, nil, nil)
}

// Performs one request-response exchange.
//
// Closing the connection early, by cancelling ctx, tells the daemon to
// abandon the command.
func (c *Client) send(ctx context.Context, cmd protocol.Command, payload, result any) error {
	conn, err := c.dialer.DialContext(ctx, "unix", c.socketPath)
	if err != nil {
		return fmt.Errorf("%w: connect to daemon: %w", ErrClient, err)
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	data, err := protocol.Encode(cmd, payload)
	if err != nil {
		return err
	}
	if _, err := conn.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("%w: %w", ErrClient, err)
	}

	line, err := bufio.NewReader(conn).ReadBytes('\n')
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("%w: read response: %w", ErrClient, err)
	}

	env, raw, err := protocol.Decode(line)
	if err != nil {
		return err
	}

	switch env.Command {
	case protocol.CmdOK:
	case protocol.CmdError:
		msg, err := protocol.DecodePayload[protocol.ErrorResult](raw)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrClient, err)
		}
		return fmt.Errorf("%w: %w", protocol.ErrCommand, msg)
	default:
		return fmt.Errorf("%w: unexpected response %q", ErrClient, env.Command)
	}

	if result == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, result); err != nil {
		return fmt.Errorf("%w: decode result: %w", ErrClient, err)
	}
	return nil
}
