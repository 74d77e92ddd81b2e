package build

import (
	"context"
	"errors"
	"log/slog"

	"github.com/cruciblehq/nova/internal/docker"
)

// Removes containers from the runtime.
//
// *docker.Docker implements Remover.
type Remover interface {
	RemoveContainer(ctx context.Context, id string, options *docker.RemoveContainerOptions) error
}

// Returns the IDs of the containers the build has created, in creation
// order.
//
// A container is listed as soon as the runtime has created it, so one that
// failed to start or whose wait failed is still included.
func (b *Build) Containers() []string {
	return append([]string(nil), b.containers...)
}

// Force-removes every container the build has created.
//
// All containers are attempted; the failures are joined.
func Cleanup(ctx context.Context, r Remover, b *Build) error {
	var errs []error
	for _, id := range b.Containers() {
		if err := r.RemoveContainer(ctx, id, &docker.RemoveContainerOptions{Force: true}); err != nil {
			slog.Warn("failed to remove container", "build", b.id, "container", id, "error", err)
			errs = append(errs, err)
			continue
		}
		slog.Debug("container removed", "build", b.id, "container", id)
	}
	return errors.Join(errs...)
}
