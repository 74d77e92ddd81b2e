package build

import (
	"context"
	"errors"
	"testing"

	"github.com/cruciblehq/nova/internal/docker"
	"github.com/stretchr/testify/require"
)

type fakeRemover struct {
	removed []string
	fail    map[string]error
}

func (r *fakeRemover) RemoveContainer(_ context.Context, id string, options *docker.RemoveContainerOptions) error {
	if !options.Force {
		return errors.New("not forced")
	}
	if err := r.fail[id]; err != nil {
		return err
	}
	r.removed = append(r.removed, id)
	return nil
}

func TestContainers(t *testing.T) {
	gw := newFakeGateway()
	gw.outcomes["A"] = outcome{code: 1}
	b := newTestBuild(t, "A", "B")
	require.NoError(t, drive(t, b, gw))

	require.Equal(t, []string{"ctr-A"}, b.Containers())
}

func TestContainersIncludesRunning(t *testing.T) {
	gw := newFakeGateway()
	b := newTestBuild(t, "A", "B")

	ctx := context.Background()
	require.NoError(t, b.Progress(ctx, gw))
	require.NoError(t, b.Progress(ctx, gw))
	require.NoError(t, b.Progress(ctx, gw))

	require.Equal(t, []string{"ctr-A", "ctr-B"}, b.Containers())
}

func TestCleanup(t *testing.T) {
	gw := newFakeGateway()
	b := newTestBuild(t, "A", "B", "C")
	require.NoError(t, drive(t, b, gw))

	boom := errors.New("boom")
	r := &fakeRemover{fail: map[string]error{"ctr-B": boom}}

	err := Cleanup(context.Background(), r, b)
	require.ErrorIs(t, err, boom)
	require.Equal(t, []string{"ctr-A", "ctr-C"}, r.removed)
}

func TestContainersAfterStartFailure(t *testing.T) {
	gw := newFakeGateway()
	gw.startErr["A"] = docker.ErrTimeout
	b := newTestBuild(t, "A", "B")

	require.ErrorIs(t, b.Progress(context.Background(), gw), docker.ErrTimeout)
	require.Equal(t, Finished{Result: Failed}, b.State())
	require.Equal(t, []string{"ctr-A"}, b.Containers())

	r := &fakeRemover{}
	require.NoError(t, Cleanup(context.Background(), r, b))
	require.Equal(t, []string{"ctr-A"}, r.removed)
}

func TestContainersAfterWaitFailure(t *testing.T) {
	tests := []struct {
		name    string
		outcome outcome
	}{
		{"timeout", outcome{waitErr: docker.ErrTimeout}},
		{"decode", outcome{waitErr: &docker.DecodeError{Err: errors.New("bad")}}},
		{"no record", outcome{noRecord: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw := newFakeGateway()
			gw.outcomes["B"] = tt.outcome
			b := newTestBuild(t, "A", "B", "C")

			require.Error(t, drive(t, b, gw))
			require.Equal(t, Finished{Result: Failed}, b.State())
			require.Equal(t, []string{"ctr-A", "ctr-B"}, b.Containers())

			r := &fakeRemover{}
			require.NoError(t, Cleanup(context.Background(), r, b))
			require.Equal(t, []string{"ctr-A", "ctr-B"}, r.removed)
		})
	}
}

func TestContainersReturnsCopy(t *testing.T) {
	gw := newFakeGateway()
	b := newTestBuild(t, "A")
	require.NoError(t, drive(t, b, gw))

	ids := b.Containers()
	ids[0] = "other"
	require.Equal(t, []string{"ctr-A"}, b.Containers())
}
