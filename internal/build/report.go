package build

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/cruciblehq/nova/internal/paths"
)

// Summary of a build, suitable for printing and persisting.
type Report struct {
	ID         string       `json:"id"`
	Pipeline   string       `json:"pipeline,omitempty"`
	State      string       `json:"state"`
	Result     string       `json:"result,omitempty"` // Empty until the build has finished.
	Error      string       `json:"error,omitempty"`
	Steps      []StepReport `json:"steps"`
	StartedAt  time.Time    `json:"started_at,omitzero"`
	FinishedAt time.Time    `json:"finished_at,omitzero"`
}

// Ledger entry of a report.
type StepReport struct {
	Name      string `json:"name"`
	Image     string `json:"image,omitempty"`
	Result    string `json:"result"` // "succeeded", "failed" or "skipped".
	ExitCode  int64  `json:"exit_code,omitempty"`
	Container string `json:"container,omitempty"`
}

// Returns a report of the build's current state and ledger.
func (b *Build) Report() Report {
	r := Report{
		ID:         b.id.String(),
		Pipeline:   b.pipeline.Name,
		State:      b.state.String(),
		Steps:      make([]StepReport, 0, len(b.ledger)),
		StartedAt:  b.started,
		FinishedAt: b.finished,
	}

	if s, ok := b.state.(Finished); ok {
		r.Result = s.Result.String()
	}
	if b.err != nil {
		r.Error = b.err.Error()
	}

	for _, c := range b.ledger {
		sr := StepReport{Name: string(c.Step), Container: c.ContainerID}
		if s, ok := b.pipeline.Step(c.Step); ok {
			sr.Image = string(s.Image)
		}
		switch res := c.Result.(type) {
		case StepSucceeded:
			sr.Result = "succeeded"
		case StepFailed:
			sr.Result = "failed"
			sr.ExitCode = res.ExitCode
		case StepSkipped:
			sr.Result = "skipped"
		}
		r.Steps = append(r.Steps, sr)
	}

	return r
}

// Returns the steps that did not succeed.
func (r Report) Unsuccessful() []StepReport {
	var out []StepReport
	for _, s := range r.Steps {
		if s.Result != "succeeded" {
			out = append(out, s)
		}
	}
	return out
}

// Writes the report as "<id>.json" in dir and returns the file path.
//
// The directory is created if needed.
func (r Report) Save(dir string) (string, error) {
	if err := os.MkdirAll(dir, paths.DefaultDirMode); err != nil {
		return "", fmt.Errorf("%w: %w", ErrReport, err)
	}

	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrReport, err)
	}

	path := filepath.Join(dir, r.ID+".json")
	if err := os.WriteFile(path, append(data, '\n'), paths.DefaultFileMode); err != nil {
		return "", fmt.Errorf("%w: %w", ErrReport, err)
	}

	return path, nil
}

// Reads a report written by [Report.Save].
func LoadReport(path string) (Report, error) {
	var r Report

	data, err := os.ReadFile(path)
	if err != nil {
		return r, fmt.Errorf("%w: %w", ErrReport, err)
	}
	if err := json.Unmarshal(data, &r); err != nil {
		return r, fmt.Errorf("%w: %s: %w", ErrReport, path, err)
	}
	return r, nil
}
