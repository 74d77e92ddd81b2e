package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/cruciblehq/nova/internal/build"
	"github.com/cruciblehq/nova/internal/pipeline"
	"github.com/cruciblehq/nova/internal/protocol"
	"github.com/cruciblehq/nova/internal/server"
)

// Represents the 'nova submit' command.
type SubmitCmd struct {
	File          string `arg:"" type:"existingfile" help:"Pipeline file (.yaml, .yml, .toml or .json)."`
	Interval      string `help:"Pause between build transitions, e.g. 500ms." placeholder:"DURATION"`
	EngineTimeout string `help:"Engine response timeout for this build. Defaults to the daemon's." placeholder:"DURATION"`
	Rm            bool   `help:"Remove step containers when the build ends."`
	JSON          bool   `name:"json" help:"Print the build report as JSON."`
}

// Executes the submit command.
//
// Sends the pipeline to the daemon and waits for the build to end.
// Interrupting the command abandons the build on the daemon side.
func (c *SubmitCmd) Run(ctx context.Context) error {
	p, err := pipeline.Load(c.File)
	if err != nil {
		return err
	}

	report, err := server.NewClient(RootCmd.Socket).Build(ctx, p, protocol.BuildRequest{
		Interval: c.Interval,
		Timeout:  c.EngineTimeout,
		Remove:   c.Rm,
	})
	if err != nil {
		return err
	}

	if c.JSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return err
		}
	} else {
		printReport(report)
	}

	if report.Result == build.Failed.String() {
		return fmt.Errorf("%w: %s", build.ErrBuild, report.Error)
	}
	return nil
}

// Prints a human-readable summary of a report.
func printReport(r build.Report) {
	fmt.Printf("build %s (%s): %s\n", r.ID, r.Pipeline, r.Result)
	for _, s := range r.Steps {
		if s.Result == "failed" {
			fmt.Printf("  %-20s %s (exit %d)\n", s.Name, s.Result, s.ExitCode)
			continue
		}
		fmt.Printf("  %-20s %s\n", s.Name, s.Result)
	}
	if r.Error != "" {
		fmt.Printf("error: %s\n", r.Error)
	}
}
