package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/cruciblehq/nova/internal/build"
	"github.com/cruciblehq/nova/internal/docker"
	"github.com/cruciblehq/nova/internal/paths"
	"github.com/cruciblehq/nova/internal/pipeline"
	"golang.org/x/sync/errgroup"
)

// Represents the 'nova run' command.
type RunCmd struct {
	Files     []string      `arg:"" type:"existingfile" help:"Pipeline files (.yaml, .yml, .toml or .json)."`
	Interval  time.Duration `default:"1s" help:"Pause between build transitions."`
	Rm        bool          `help:"Remove step containers when the build ends."`
	Logs      bool          `help:"Print the output of each step's container."`
	Negotiate bool          `default:"true" negatable:"" help:"Lower the API version to what the Engine supports."`
	Reports   string        `help:"Directory build reports are saved to." placeholder:"DIR"`
}

// Executes the run command.
//
// Each file is built concurrently on its own clone of the Engine handle.
// The command fails if any build finishes as failed. Builds that finish
// with failed or skipped steps are reported as warnings.
func (c *RunCmd) Run(ctx context.Context) error {
	pipelines := make([]*pipeline.Pipeline, 0, len(c.Files))
	for _, file := range c.Files {
		p, err := pipeline.Load(file)
		if err != nil {
			return err
		}
		pipelines = append(pipelines, p)
	}

	d, err := connect()
	if err != nil {
		return err
	}
	defer d.Close()

	if c.Negotiate {
		if v, err := d.NegotiateVersion(ctx); err != nil {
			slog.Warn("version negotiation failed", "error", err)
		} else {
			slog.Debug("engine API version", "version", v.String())
		}
	}

	reports := c.Reports
	if reports == "" {
		reports = paths.Reports()
	}

	var (
		mu     sync.Mutex
		failed []string
	)

	g, ctx := errgroup.WithContext(ctx)
	for _, p := range pipelines {
		gw := d.Clone()
		g.Go(func() error {
			b := build.New(p)
			ok, err := c.runOne(ctx, gw, b, reports)
			if !ok {
				mu.Lock()
				failed = append(failed, p.Name)
				mu.Unlock()
			}
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	if len(failed) > 0 {
		return fmt.Errorf("%w: %s", build.ErrBuild, strings.Join(failed, ", "))
	}
	return nil
}

// Serializes container output of concurrent builds.
var stdoutMu sync.Mutex

// Runs one build and reports on it.
//
// Returns false if the build finished as failed. Only interruptions are
// returned as errors, so one failing pipeline does not cancel the others.
func (c *RunCmd) runOne(ctx context.Context, gw *docker.Docker, b *build.Build, reports string) (bool, error) {
	p := b.Pipeline()
	slog.Info("build started", "build", b.ID(), "pipeline", p.Name, "steps", p.Len())

	runErr := build.Run(ctx, gw, b, build.RunOptions{Interval: c.Interval})

	if c.Logs {
		var buf bytes.Buffer
		printLogs(context.WithoutCancel(ctx), gw, b, &buf)
		stdoutMu.Lock()
		os.Stdout.Write(buf.Bytes())
		stdoutMu.Unlock()
	}
	if c.Rm {
		build.Cleanup(context.WithoutCancel(ctx), gw, b)
	}

	report := b.Report()
	if path, err := report.Save(reports); err != nil {
		slog.Warn("failed to save report", "build", b.ID(), "error", err)
	} else {
		slog.Debug("report saved", "build", b.ID(), "path", path)
	}

	if runErr != nil && !b.Done() {
		return true, runErr
	}

	if s, _ := b.State().(build.Finished); s.Result == build.Failed {
		slog.Error("build failed", "pipeline", p.Name, "error", b.Err())
		return false, nil
	}

	if bad := report.Unsuccessful(); len(bad) > 0 {
		names := make([]string, 0, len(bad))
		for _, s := range bad {
			names = append(names, s.Name+" ("+s.Result+")")
		}
		slog.Warn("build finished with unsuccessful steps", "pipeline", p.Name, "steps", strings.Join(names, ", "))
		return true, nil
	}

	slog.Info("build succeeded", "pipeline", p.Name, "build", b.ID())
	return true, nil
}

// Writes the output of each container the build ran, prefixed with
// "<pipeline>/<step> | ".
func printLogs(ctx context.Context, d *docker.Docker, b *build.Build, w io.Writer) {
	for _, c := range b.Ledger() {
		if c.ContainerID == "" {
			continue
		}
		prefix := fmt.Sprintf("%s/%s | ", b.Pipeline().Name, c.Step)
		if err := writeLogs(w, prefix, d.ContainerLogs(ctx, c.ContainerID, nil)); err != nil {
			slog.Warn("failed to read container output", "step", c.Step, "container", c.ContainerID, "error", err)
		}
	}
}

// Copies log chunks to w, prefixing every line.
func writeLogs(w io.Writer, prefix string, logs iter.Seq2[docker.LogOutput, error]) error {
	atLineStart := true
	for out, err := range logs {
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
		for _, line := range strings.SplitAfter(string(out.Message), "\n") {
			if line == "" {
				continue
			}
			if atLineStart {
				io.WriteString(w, prefix)
			}
			io.WriteString(w, line)
			atLineStart = strings.HasSuffix(line, "\n")
		}
	}
	if !atLineStart {
		io.WriteString(w, "\n")
	}
	return nil
}
