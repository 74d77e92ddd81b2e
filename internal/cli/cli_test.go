package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"iter"
	"os"
	"path/filepath"
	"testing"

	"github.com/cruciblehq/nova/internal"
	"github.com/cruciblehq/nova/internal/docker"
	"github.com/stretchr/testify/require"
)

func logSeq(chunks ...string) iter.Seq2[docker.LogOutput, error] {
	return func(yield func(docker.LogOutput, error) bool) {
		for _, c := range chunks {
			if !yield(docker.LogOutput{Stream: docker.Console, Message: []byte(c)}, nil) {
				return
			}
		}
	}
}

func TestWriteLogsPrefixesLines(t *testing.T) {
	var buf bytes.Buffer

	err := writeLogs(&buf, "ci/build | ", logSeq("one\ntw", "o\n", "three"))
	require.NoError(t, err)
	require.Equal(t, "ci/build | one\nci/build | two\nci/build | three\n", buf.String())
}

func TestWriteLogsError(t *testing.T) {
	boom := errors.New("boom")
	seq := func(yield func(docker.LogOutput, error) bool) {
		if !yield(docker.LogOutput{Message: []byte("partial")}, nil) {
			return
		}
		yield(docker.LogOutput{}, boom)
	}

	var buf bytes.Buffer
	require.ErrorIs(t, writeLogs(&buf, "> ", seq), boom)
	require.Equal(t, "> partial", buf.String())
}

func TestNewLoggerJSON(t *testing.T) {
	internal.SetQuiet(false)
	internal.SetDebug(false)

	f, err := os.Create(filepath.Join(t.TempDir(), "log"))
	require.NoError(t, err)
	defer f.Close()

	logger := NewLogger(f, false)
	logger.Debug("hidden")
	logger.Info("shown", "step", "build")

	data, err := os.ReadFile(f.Name())
	require.NoError(t, err)

	var record map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(data), &record))
	require.Equal(t, "shown", record["msg"])
	require.Equal(t, "build", record["step"])
	require.Equal(t, "nova", record["app"])
}
