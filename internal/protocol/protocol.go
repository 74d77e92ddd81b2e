package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/cruciblehq/nova/internal/build"
	"github.com/cruciblehq/nova/internal/pipeline"
)

// Name of a daemon command, or of a response kind.
type Command string

const (
	CmdBuild    Command = "build"    // Run a pipeline to completion.
	CmdStatus   Command = "status"   // Report daemon status.
	CmdShutdown Command = "shutdown" // Stop the daemon.
	CmdOK       Command = "ok"       // Successful response.
	CmdError    Command = "error"    // Failed response; payload is an [ErrorResult].
)

// Framing shared by requests and responses.
type Envelope struct {
	Command Command         `json:"command"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Payload of [CmdBuild].
type BuildRequest struct {
	Pipeline pipeline.Document `json:"pipeline"`
	Remove   bool              `json:"remove,omitempty"`   // Remove step containers once the build ends.
	Interval string            `json:"interval,omitempty"` // Pause between transitions, as a Go duration.
	Timeout  string            `json:"timeout,omitempty"`  // Engine response timeout for this build, as a Go duration.
}

// Result of [CmdBuild].
type BuildResult struct {
	Report build.Report `json:"report"`
}

// Result of [CmdStatus].
type StatusResult struct {
	Running    bool   `json:"running"`
	Version    string `json:"version"`
	Pid        int    `json:"pid"`
	Uptime     string `json:"uptime"`
	Builds     int    `json:"builds"`
	Engine     string `json:"engine"`      // Engine socket the daemon talks to.
	APIVersion string `json:"api_version"` // Engine API version in use.
	Timeout    string `json:"timeout"`     // Default Engine response timeout.
}

// Payload of [CmdError].
type ErrorResult struct {
	Message string `json:"message"`
}

func (e *ErrorResult) Error() string {
	return e.Message
}

// Encodes a command and its payload into an envelope.
//
// A nil payload produces an envelope without one. The result carries no
// trailing newline.
func Encode(cmd Command, payload any) ([]byte, error) {
	env := Envelope{Command: cmd}

	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrEncode, err)
		}
		env.Payload = raw
	}

	data, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEncode, err)
	}
	return data, nil
}

// Decodes an envelope, returning it along with its raw payload.
func Decode(data []byte) (*Envelope, json.RawMessage, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	if env.Command == "" {
		return nil, nil, fmt.Errorf("%w: missing command", ErrDecode)
	}
	return &env, env.Payload, nil
}

// Decodes a payload into a value of type T.
//
// An empty payload fails; commands that take no payload should not call
// DecodePayload.
func DecodePayload[T any](payload json.RawMessage) (*T, error) {
	if len(payload) == 0 {
		return nil, fmt.Errorf("%w: missing payload", ErrDecode)
	}

	var v T
	if err := json.Unmarshal(payload, &v); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return &v, nil
}
