package build

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/cruciblehq/nova/internal/docker"
	"github.com/stretchr/testify/require"
)

func TestRunToCompletion(t *testing.T) {
	gw := newFakeGateway()
	gw.outcomes["B"] = outcome{code: 1}
	b := newTestBuild(t, "A", "B", "C")

	err := Run(context.Background(), gw, b, RunOptions{Interval: time.Millisecond})
	require.NoError(t, err)
	require.Equal(t, Finished{Result: Succeeded}, b.State())
	require.Len(t, b.Ledger(), 3)
}

func TestRunReturnsFatalError(t *testing.T) {
	gw := newFakeGateway()
	gw.createErr["A"] = &docker.ServerError{StatusCode: 409, Message: "conflict"}
	b := newTestBuild(t, "A")

	err := Run(context.Background(), gw, b, RunOptions{Interval: time.Millisecond})
	require.ErrorIs(t, err, ErrBuild)
	require.Equal(t, Finished{Result: Failed}, b.State())
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	gw := newFakeGateway()
	b := newTestBuild(t, "A")

	err := Run(ctx, gw, b, RunOptions{})
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, Ready{}, b.State())
	require.Empty(t, gw.created)
}

func TestReport(t *testing.T) {
	gw := newFakeGateway()
	gw.outcomes["A"] = outcome{code: 4}
	b := newTestBuild(t, "A", "B")
	require.NoError(t, drive(t, b, gw))

	r := b.Report()
	require.Equal(t, b.ID().String(), r.ID)
	require.Equal(t, "ci", r.Pipeline)
	require.Equal(t, "finished(succeeded)", r.State)
	require.Equal(t, "succeeded", r.Result)
	require.Empty(t, r.Error)
	require.Equal(t, []StepReport{
		{Name: "A", Image: "ubuntu:20.04", Result: "failed", ExitCode: 4, Container: "ctr-A"},
		{Name: "B", Image: "ubuntu:20.04", Result: "skipped"},
	}, r.Steps)
	require.Equal(t, r.Steps, r.Unsuccessful())
	require.False(t, r.FinishedAt.Before(r.StartedAt))
}

func TestReportBeforeFinish(t *testing.T) {
	r := newTestBuild(t, "A").Report()
	require.Equal(t, "ready", r.State)
	require.Empty(t, r.Result)
	require.NotNil(t, r.Steps)
}

func TestReportSaveAndLoad(t *testing.T) {
	gw := newFakeGateway()
	gw.createErr["A"] = docker.ErrTimeout
	b := newTestBuild(t, "A")
	require.Error(t, drive(t, b, gw))

	dir := filepath.Join(t.TempDir(), "reports")
	path, err := b.Report().Save(dir)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, b.ID().String()+".json"), path)

	loaded, err := LoadReport(path)
	require.NoError(t, err)
	require.Equal(t, "failed", loaded.Result)
	require.Contains(t, loaded.Error, "request timed out")
}

func TestLoadReportMissing(t *testing.T) {
	_, err := LoadReport(filepath.Join(t.TempDir(), "nope.json"))
	require.ErrorIs(t, err, ErrReport)
}
