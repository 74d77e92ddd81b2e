package docker

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/containerd/errdefs"
	"github.com/stretchr/testify/require"
)

func TestCreateContainer(t *testing.T) {
	var got CreateContainerConfig
	var query map[string][]string

	d := newTestEngine(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1.42/containers/create", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		query = r.URL.Query()
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
		io.WriteString(w, `{"Id":"c0ffee","Warnings":[]}`)
	}))

	config := CreateContainerConfig{
		Image:      "alpine:3.20",
		Tty:        true,
		Labels:     map[string]string{"nova": ""},
		Entrypoint: []string{"/bin/sh", "-c"},
		Cmd:        []string{"echo hi"},
	}

	res, err := d.CreateContainer(context.Background(), &CreateContainerOptions{Name: "ci-1", Platform: "linux/amd64"}, config)
	require.NoError(t, err)
	require.Equal(t, "c0ffee", res.ID)
	require.Equal(t, config, got)
	require.Equal(t, []string{"ci-1"}, query["name"])
	require.Equal(t, []string{"linux/amd64"}, query["platform"])
}

func TestCreateContainerMissingImage(t *testing.T) {
	d := newTestEngine(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		io.WriteString(w, `{"message":"No such image: nope:latest"}`)
	}))

	_, err := d.CreateContainer(context.Background(), nil, CreateContainerConfig{Image: "nope"})
	require.True(t, errdefs.IsNotFound(err))

	var srvErr *ServerError
	require.ErrorAs(t, err, &srvErr)
	require.Equal(t, "No such image: nope:latest", srvErr.Message)
}

func TestStartContainer(t *testing.T) {
	var path string
	d := newTestEngine(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		w.WriteHeader(http.StatusNoContent)
	}))

	require.NoError(t, d.StartContainer(context.Background(), "c0ffee", nil))
	require.Equal(t, "/v1.42/containers/c0ffee/start", path)
}

func TestWaitContainer(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr *WaitError
	}{
		{"success", "{\"StatusCode\":0}\n", nil},
		{"failure with message", "{\"StatusCode\":2,\"Error\":{\"Message\":\"oops\"}}\n", &WaitError{Code: 2, Message: "oops"}},
		{"failure without message", "{\"StatusCode\":137}\n", &WaitError{Code: 137}},
		{"failure with null error", "{\"StatusCode\":1,\"Error\":null}", &WaitError{Code: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var condition string
			d := newTestEngine(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				condition = r.URL.Query().Get("condition")
				io.WriteString(w, tt.body)
			}))

			var records int
			for res, err := range d.WaitContainer(context.Background(), "c0ffee", nil) {
				records++
				if tt.wantErr == nil {
					require.NoError(t, err)
					require.Zero(t, res.StatusCode)
					continue
				}
				var waitErr *WaitError
				require.ErrorAs(t, err, &waitErr)
				require.Equal(t, tt.wantErr, waitErr)
			}

			require.Equal(t, 1, records)
			require.Equal(t, WaitConditionNotRunning, condition)
		})
	}
}

func TestWaitContainerIsLazy(t *testing.T) {
	var calls int
	d := newTestEngine(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		io.WriteString(w, "{\"StatusCode\":0}\n")
	}))

	seq := d.WaitContainer(context.Background(), "c0ffee", &WaitContainerOptions{Condition: "next-exit"})
	require.Zero(t, calls)

	for range seq {
	}
	require.Equal(t, 1, calls)
}

func TestWaitContainerMalformedRecord(t *testing.T) {
	d := newTestEngine(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "{\"StatusCode\":0}\n{\"StatusCode\":nope}\n")
	}))

	var errs []error
	for _, err := range d.WaitContainer(context.Background(), "c0ffee", nil) {
		errs = append(errs, err)
	}

	require.Len(t, errs, 2)
	require.NoError(t, errs[0])
	require.ErrorIs(t, errs[1], ErrDecode)
}

func TestContainerLogs(t *testing.T) {
	d := newTestEngine(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1.42/containers/c0ffee/logs", r.URL.Path)
		require.Equal(t, "true", r.URL.Query().Get("stdout"))
		require.Equal(t, "true", r.URL.Query().Get("stderr"))
		w.Write(frame(StdOut, "hello\n"))
		w.Write(frame(StdErr, "warn\n"))
	}))

	var got []LogOutput
	for out, err := range d.ContainerLogs(context.Background(), "c0ffee", nil) {
		require.NoError(t, err)
		got = append(got, out)
	}

	require.Equal(t, []LogOutput{
		{Stream: StdOut, Message: []byte("hello\n")},
		{Stream: StdErr, Message: []byte("warn\n")},
	}, got)
}

func TestContainerLogsTTY(t *testing.T) {
	d := newTestEngine(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "step one\nstep two")
	}))

	var got []string
	for out, err := range d.ContainerLogs(context.Background(), "c0ffee", nil) {
		require.NoError(t, err)
		require.Equal(t, Console, out.Stream)
		got = append(got, out.String())
	}

	require.Equal(t, []string{"step one\n", "step two"}, got)
}

func TestRemoveContainer(t *testing.T) {
	var method, path, force string
	d := newTestEngine(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method, path, force = r.Method, r.URL.Path, r.URL.Query().Get("force")
		w.WriteHeader(http.StatusNoContent)
	}))

	require.NoError(t, d.RemoveContainer(context.Background(), "c0ffee", &RemoveContainerOptions{Force: true}))
	require.Equal(t, http.MethodDelete, method)
	require.Equal(t, "/v1.42/containers/c0ffee", path)
	require.Equal(t, "true", force)
}
