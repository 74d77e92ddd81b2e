// Package build drives a pipeline through a container runtime one step at
// a time.
//
// A [Build] is a small state machine over a [pipeline.Pipeline]. It starts
// [Ready]; each call to [Build.Progress] performs at most one transition:
// creating and starting the container of the next unfinished step
// ([Running]), waiting for a running container to exit and recording its
// result in the ledger, or concluding the build ([Finished]). Steps run
// strictly in pipeline order; declared dependencies are not consulted.
//
// Once a step is reported as failed by the runtime, every remaining step
// is recorded as skipped without creating a container. A build that runs
// out of steps finishes as succeeded even when the ledger holds failures;
// callers inspect the ledger, or the [Report], to tell the two apart.
// Runtime failures (timeouts, rejected requests, malformed responses) end
// the build as failed immediately.
//
// The runtime is reached through the [Gateway] interface, which
// *docker.Docker satisfies.
//
// Example usage:
//
//	b := build.New(p)
//	if err := build.Run(ctx, gw, b, build.RunOptions{}); err != nil {
//	    return err
//	}
//
//	for _, c := range b.Ledger() {
//	    fmt.Println(c.Step, c.Result)
//	}
package build
