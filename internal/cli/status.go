package cli

import (
	"context"
	"fmt"

	"github.com/cruciblehq/nova/internal/server"
)

// Represents the 'nova status' command.
type StatusCmd struct{}

// Executes the status command.
func (c *StatusCmd) Run(ctx context.Context) error {
	status, err := server.NewClient(RootCmd.Socket).Status(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("version:     %s\n", status.Version)
	fmt.Printf("pid:         %d\n", status.Pid)
	fmt.Printf("uptime:      %s\n", status.Uptime)
	fmt.Printf("builds:      %d\n", status.Builds)
	fmt.Printf("engine:      %s\n", status.Engine)
	fmt.Printf("api version: %s\n", status.APIVersion)
	fmt.Printf("timeout:     %s\n", status.Timeout)
	return nil
}

// Represents the 'nova stop' command.
type StopCmd struct{}

// Executes the stop command.
func (c *StopCmd) Run(ctx context.Context) error {
	return server.NewClient(RootCmd.Socket).Shutdown(ctx)
}
