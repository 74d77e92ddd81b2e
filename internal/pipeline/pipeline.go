package pipeline

import (
	"fmt"
	"strings"

	"github.com/containerd/platforms"
	"github.com/opencontainers/go-digest"
	specs "github.com/opencontainers/image-spec/specs-go/v1"
)

// Unique identifier of a step within a pipeline.
type StepName string

// Container image reference, passed to the runtime unchanged.
type Image string

// One unit of work: shell commands run inside a container.
type Step struct {
	Name      StepName   // Unique, non-empty name.
	Commands  []string   // Shell commands, run in order. Never empty.
	Image     Image      // Image the container is created from.
	DependsOn []StepName // Declared dependencies. Recorded, not enforced.
	Platform  string     // Optional OCI platform, normalized by [New] (e.g. "linux/arm64/v8").
}

// Returns the OCI platform of the step, or false if none was requested.
func (s Step) OCIPlatform() (specs.Platform, bool) {
	if s.Platform == "" {
		return specs.Platform{}, false
	}
	p, err := platforms.Parse(s.Platform)
	if err != nil {
		return specs.Platform{}, false
	}
	return p, true
}

// Returns a content digest identifying what the step runs.
//
// Two steps with the same image, platform and commands share a digest
// regardless of their names or dependencies.
func (s Step) Digest() digest.Digest {
	var b strings.Builder
	b.WriteString(string(s.Image))
	b.WriteByte(0)
	b.WriteString(s.Platform)
	b.WriteByte(0)
	b.WriteString(strings.Join(s.Commands, "\n"))
	return digest.FromString(b.String())
}

// Returns the commands joined into a single shell script.
func (s Step) Script() string {
	return strings.Join(s.Commands, "\n")
}

// Ordered, non-empty build plan.
type Pipeline struct {
	Name  string // Optional display name.
	steps []Step // Steps in declaration order.
}

// Creates a validated pipeline.
//
// Fails with [ErrEmptyPipeline] when no steps are given, [ErrInvalidStep]
// when a step has no name, no commands, an empty command or an unparsable
// platform, and [ErrDuplicateStep] when two steps share a name. Platforms
// are normalized.
func New(name string, steps ...Step) (*Pipeline, error) {
	if len(steps) == 0 {
		return nil, ErrEmptyPipeline
	}

	seen := make(map[StepName]struct{}, len(steps))
	normalized := make([]Step, 0, len(steps))

	for i, step := range steps {
		step, err := validateStep(step)
		if err != nil {
			return nil, fmt.Errorf("%w: step %d: %w", ErrInvalidStep, i+1, err)
		}
		if _, ok := seen[step.Name]; ok {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateStep, step.Name)
		}
		seen[step.Name] = struct{}{}
		normalized = append(normalized, step)
	}

	return &Pipeline{Name: name, steps: normalized}, nil
}

// Checks a single step and returns it with copied slices and a
// normalized platform.
func validateStep(step Step) (Step, error) {
	if strings.TrimSpace(string(step.Name)) == "" {
		return step, fmt.Errorf("missing name")
	}
	if len(step.Commands) == 0 {
		return step, fmt.Errorf("%q has no commands", step.Name)
	}
	for j, cmd := range step.Commands {
		if strings.TrimSpace(cmd) == "" {
			return step, fmt.Errorf("%q command %d is empty", step.Name, j+1)
		}
	}

	if step.Platform != "" {
		p, err := platforms.Parse(step.Platform)
		if err != nil {
			return step, fmt.Errorf("%q platform: %w", step.Name, err)
		}
		step.Platform = platforms.Format(p)
	}

	step.Commands = append([]string(nil), step.Commands...)
	step.DependsOn = append([]StepName(nil), step.DependsOn...)

	return step, nil
}

// Returns a copy of the steps in declaration order.
func (p *Pipeline) Steps() []Step {
	return append([]Step(nil), p.steps...)
}

// Returns the number of steps.
func (p *Pipeline) Len() int {
	return len(p.steps)
}

// Returns the step with the given name.
func (p *Pipeline) Step(name StepName) (Step, bool) {
	for _, s := range p.steps {
		if s.Name == name {
			return s, true
		}
	}
	return Step{}, false
}
