package build

import (
	"fmt"

	"github.com/cruciblehq/nova/internal/pipeline"
)

// Phase of a build. One of [Ready], [Running] or [Finished].
type State interface {
	isState()
	String() string
}

// Waiting to start the next step, or to conclude.
type Ready struct{}

// A step's container has been started and not yet waited on.
type Running struct {
	Step        pipeline.StepName // Step the container runs.
	ContainerID string            // ID returned by the runtime on create.
}

// Terminal. The result never changes afterwards.
type Finished struct {
	Result Result
}

func (Ready) isState() {}
func (Running) isState() {}
func (Finished) isState() {}

func (Ready) String() string { return "ready" }
func (s Running) String() string { return fmt.Sprintf("running(%s)", s.Step) }
func (s Finished) String() string { return fmt.Sprintf("finished(%s)", s.Result) }

// Terminal outcome of a build.
type Result int

const (
	Succeeded Result = iota
	Failed
)

func (r Result) String() string {
	switch r {
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("result(%d)", int(r))
	}
}

// Outcome of one step. One of [StepSucceeded], [StepFailed] or
// [StepSkipped].
type StepResult interface {
	isStepResult()
	String() string
}

// The step's container exited with code 0.
type StepSucceeded struct{}

// The step's container exited with a nonzero code.
type StepFailed struct {
	ExitCode int64
}

// The step was not run because an earlier step failed.
type StepSkipped struct{}

func (StepSucceeded) isStepResult() {}
func (StepFailed) isStepResult() {}
func (StepSkipped) isStepResult() {}

func (StepSucceeded) String() string { return "succeeded" }
func (r StepFailed) String() string { return fmt.Sprintf("failed(%d)", r.ExitCode) }
func (StepSkipped) String() string { return "skipped" }

// Returns [StepSucceeded] for exit code 0 and [StepFailed] otherwise.
func ResultFromExitCode(code int64) StepResult {
	if code == 0 {
		return StepSucceeded{}
	}
	return StepFailed{ExitCode: code}
}

// Ledger entry for a step that has completed or been skipped.
type Completed struct {
	Step        pipeline.StepName
	Result      StepResult
	ContainerID string // Empty for skipped steps.
}
