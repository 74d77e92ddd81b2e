// Package pipeline defines the build plan executed by nova.
//
// A [Pipeline] is a non-empty, ordered list of [Step] values. Each step
// names a container image and the shell commands to run inside it. Step
// names are unique within a pipeline and are used as the key of the build
// ledger. Dependencies can be declared with DependsOn but are recorded
// only; steps always run in declaration order.
//
// Pipelines are built with [New], which validates the plan, or loaded from
// a YAML, TOML or JSON document with [Load] and [Parse].
//
// Example usage:
//
//	pl, err := pipeline.New("example",
//	    pipeline.Step{Name: "build", Image: "golang:1.25", Commands: []string{"go build ./..."}},
//	    pipeline.Step{Name: "test", Image: "golang:1.25", Commands: []string{"go test ./..."}},
//	)
//	if err != nil {
//	    return err
//	}
package pipeline
