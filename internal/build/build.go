package build

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"strings"
	"time"

	"github.com/containerd/platforms"
	"github.com/cruciblehq/nova/internal"
	"github.com/cruciblehq/nova/internal/docker"
	"github.com/cruciblehq/nova/internal/pipeline"
	"github.com/google/uuid"
)

const (

	// Marker label set on every container nova creates.
	LabelMarker = "nova"

	// Label holding the build ID.
	LabelBuild = "nova.build"

	// Label holding the step name.
	LabelStep = "nova.step"

	// Label holding the step digest.
	LabelStepDigest = "nova.step.digest"
)

// Shell every step script is handed to.
var entrypoint = []string{"/bin/sh", "-c"}

// Container runtime operations a build needs.
//
// *docker.Docker implements Gateway. A wait sequence must yield a
// *docker.WaitError for a container that exited with a nonzero code.
type Gateway interface {
	CreateContainer(ctx context.Context, options *docker.CreateContainerOptions, config docker.CreateContainerConfig) (docker.ContainerCreateResponse, error)
	StartContainer(ctx context.Context, id string, options *docker.StartContainerOptions) error
	WaitContainer(ctx context.Context, id string, options *docker.WaitContainerOptions) iter.Seq2[docker.ContainerWaitResponse, error]
}

// One execution of a pipeline.
//
// A Build is mutated only by [Build.Progress] and must not be driven from
// more than one goroutine at a time. The accessors are safe to call
// between transitions.
type Build struct {
	id          uuid.UUID          // Unique build ID, used in container names and labels.
	pipeline    *pipeline.Pipeline // Plan being executed.
	state       State              // Current phase.
	ledger      []Completed        // Steps completed or skipped, in completion order.
	containers  []string           // IDs of every container created, in creation order.
	failThrough bool               // Set once a step fails; never reset.
	err         error              // Error that finished the build, if any.
	started     time.Time          // Time of the first transition.
	finished    time.Time          // Time the build finished.
}

// Creates a build of p in the [Ready] state with an empty ledger.
func New(p *pipeline.Pipeline) *Build {
	return &Build{
		id:       uuid.New(),
		pipeline: p,
		state:    Ready{},
	}
}

// Returns the build ID.
func (b *Build) ID() uuid.UUID {
	return b.id
}

// Returns the pipeline being built.
func (b *Build) Pipeline() *pipeline.Pipeline {
	return b.pipeline
}

// Returns the current state.
func (b *Build) State() State {
	return b.state
}

// Returns a copy of the ledger.
func (b *Build) Ledger() []Completed {
	return append([]Completed(nil), b.ledger...)
}

// Returns true once the build has reached [Finished].
func (b *Build) Done() bool {
	_, ok := b.state.(Finished)
	return ok
}

// Returns the error that finished the build, or nil.
func (b *Build) Err() error {
	return b.err
}

// Performs at most one state transition.
//
// From [Ready], the next step not yet in the ledger is either skipped (if
// an earlier step failed) or its container is created and started. With no
// step left the build finishes as succeeded. From [Running], the
// container is waited on and its exit code recorded. Calling Progress on a
// finished build does nothing.
//
// Runtime failures finish the build as failed and are returned wrapped in
// [ErrBuild]. A step that exits nonzero is not an error.
func (b *Build) Progress(ctx context.Context, gw Gateway) error {
	if b.started.IsZero() {
		b.started = time.Now()
	}

	switch s := b.state.(type) {
	case Ready:
		return b.advance(ctx, gw)
	case Running:
		return b.wait(ctx, gw, s)
	default:
		return nil
	}
}

// Handles the [Ready] state.
func (b *Build) advance(ctx context.Context, gw Gateway) error {
	step, ok := b.nextStep()
	if !ok {
		b.finish(Succeeded)
		slog.Info("build finished", "build", b.id, "result", Succeeded)
		return nil
	}

	if b.failThrough {
		b.record(step.Name, StepSkipped{}, "")
		slog.Info("step skipped", "build", b.id, "step", step.Name)
		return nil
	}

	created, err := gw.CreateContainer(ctx, b.createOptions(step), b.containerConfig(step))
	if err != nil {
		return b.fail(step.Name, err)
	}
	b.containers = append(b.containers, created.ID)
	for _, w := range created.Warnings {
		slog.Warn("runtime warning", "step", step.Name, "container", created.ID, "warning", w)
	}

	if err := gw.StartContainer(ctx, created.ID, nil); err != nil {
		return b.fail(step.Name, err)
	}

	attrs := []any{"build", b.id, "step", step.Name, "container", created.ID, "image", step.Image}
	if p, ok := step.OCIPlatform(); ok {
		attrs = append(attrs, "os", p.OS, "arch", p.Architecture)
	}
	slog.Info("step started", attrs...)

	b.state = Running{Step: step.Name, ContainerID: created.ID}
	return nil
}

// Handles the [Running] state.
//
// Only the first record of the wait stream is consumed.
func (b *Build) wait(ctx context.Context, gw Gateway, s Running) error {
	for res, err := range gw.WaitContainer(ctx, s.ContainerID, nil) {
		var waitErr *docker.WaitError
		switch {
		case errors.As(err, &waitErr):
			b.failThrough = true
			b.record(s.Step, StepFailed{ExitCode: waitErr.Code}, s.ContainerID)
			slog.Warn("step failed", "build", b.id, "step", s.Step, "status", waitErr.Code, "message", waitErr.Message)
		case err != nil:
			return b.fail(s.Step, err)
		default:
			result := ResultFromExitCode(res.StatusCode)
			b.record(s.Step, result, s.ContainerID)
			slog.Info("step exited", "build", b.id, "step", s.Step, "status", res.StatusCode, "result", result)
		}
		b.state = Ready{}
		return nil
	}

	return b.fail(s.Step, ErrNoWaitRecord)
}

// Returns the first step, in pipeline order, not yet in the ledger.
func (b *Build) nextStep() (pipeline.Step, bool) {
	for _, step := range b.pipeline.Steps() {
		if !b.completed(step.Name) {
			return step, true
		}
	}
	return pipeline.Step{}, false
}

func (b *Build) completed(name pipeline.StepName) bool {
	for _, c := range b.ledger {
		if c.Step == name {
			return true
		}
	}
	return false
}

func (b *Build) record(name pipeline.StepName, result StepResult, containerID string) {
	b.ledger = append(b.ledger, Completed{Step: name, Result: result, ContainerID: containerID})
	b.state = Ready{}
}

func (b *Build) finish(result Result) {
	b.state = Finished{Result: result}
	b.finished = time.Now()
}

// Finishes the build as failed and returns the wrapped cause.
func (b *Build) fail(step pipeline.StepName, err error) error {
	b.err = fmt.Errorf("%w: step %q: %w", ErrBuild, step, err)
	b.finish(Failed)
	slog.Error("build failed", "build", b.id, "step", step, "error", err)
	return b.err
}

// Returns the create options for step. The platform is left empty, letting
// the runtime pick its own, unless the step requests one.
func (b *Build) createOptions(step pipeline.Step) *docker.CreateContainerOptions {
	options := &docker.CreateContainerOptions{Name: b.containerName(step.Name)}
	if p, ok := step.OCIPlatform(); ok {
		options.Platform = platforms.Format(p)
	}
	return options
}

func (b *Build) containerConfig(step pipeline.Step) docker.CreateContainerConfig {
	return docker.CreateContainerConfig{
		Image:      string(step.Image),
		Tty:        true,
		Entrypoint: append([]string(nil), entrypoint...),
		Cmd:        []string{step.Script()},
		Labels: map[string]string{
			LabelMarker:     "",
			LabelBuild:      b.id.String(),
			LabelStep:       string(step.Name),
			LabelStepDigest: step.Digest().String(),
		},
	}
}

// Returns "<pipeline>-<short build ID>-<step>", restricted to the
// characters the runtime accepts in container names.
func (b *Build) containerName(step pipeline.StepName) string {
	prefix := b.pipeline.Name
	if prefix == "" {
		prefix = internal.Name
	}
	return sanitizeName(fmt.Sprintf("%s-%s-%s", prefix, b.id.String()[:8], step))
}

// Replaces characters outside [a-zA-Z0-9_.-] with '-'.
func sanitizeName(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '_' || r == '.' || r == '-':
			return r
		default:
			return '-'
		}
	}, name)
}
