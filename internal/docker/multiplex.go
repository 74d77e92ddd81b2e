package docker

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// Output channel a chunk of container output was written to.
type StreamType uint8

const (
	StdIn  StreamType = 0
	StdOut StreamType = 1
	StdErr StreamType = 2

	// Unframed output, passed through line by line. The Engine omits
	// framing for containers attached to a TTY.
	Console StreamType = 0xff
)

func (s StreamType) String() string {
	switch s {
	case StdIn:
		return "stdin"
	case StdOut:
		return "stdout"
	case StdErr:
		return "stderr"
	case Console:
		return "console"
	default:
		return fmt.Sprintf("stream(%d)", uint8(s))
	}
}

// One chunk of container output.
type LogOutput struct {
	Stream  StreamType
	Message []byte
}

func (l LogOutput) String() string {
	return string(l.Message)
}

// Length of a frame header: stream type, three reserved bytes and a
// big-endian uint32 payload length.
const frameHeaderLen = 8

type muxState int

const (
	awaitingHeader muxState = iota
	awaitingPayload
)

// Demultiplexes the Engine's framed stdout/stderr stream.
//
// Each frame is an 8-byte header followed by its payload:
//
//	[type, 0, 0, 0, len>>24, len>>16, len>>8, len] payload...
//
// where type is 0 (stdin), 1 (stdout) or 2 (stderr). When a header is
// expected and the next byte is not a valid stream type, the stream is
// taken to be unframed and is passed through one line at a time as
// [Console] output.
//
// A MultiplexDecoder remembers a header it has consumed while its payload
// is outstanding, so one decoder must be used for the whole stream.
type MultiplexDecoder struct {
	state  muxState
	stream StreamType
	length int
}

// Decodes the complete frames, or console lines, at the head of buf.
//
// Returns the decoded chunks and the number of bytes consumed. A header may
// be consumed before its payload has arrived; the remaining bytes must be
// passed again, with more data appended, on the next call. Messages are
// copies and do not alias buf.
func (d *MultiplexDecoder) Decode(buf []byte) ([]LogOutput, int, error) {
	var items []LogOutput
	n := 0

	for {
		rest := buf[n:]

		switch d.state {
		case awaitingHeader:
			if len(rest) > 0 && rest[0] > byte(StdErr) {
				i := bytes.IndexByte(rest, '\n')
				if i < 0 {
					return items, n, nil
				}
				items = append(items, LogOutput{Stream: Console, Message: bytes.Clone(rest[:i+1])})
				n += i + 1
				continue
			}

			if len(rest) < frameHeaderLen {
				return items, n, nil
			}

			d.stream = StreamType(rest[0])
			d.length = int(binary.BigEndian.Uint32(rest[4:frameHeaderLen]))
			d.state = awaitingPayload
			n += frameHeaderLen

		case awaitingPayload:
			if len(rest) < d.length {
				return items, n, nil
			}

			items = append(items, LogOutput{Stream: d.stream, Message: bytes.Clone(rest[:d.length])})
			n += d.length
			d.state = awaitingHeader
		}
	}
}

// Decodes whatever is left once the stream has ended.
//
// A final console line without a newline is returned as is. A partial
// frame fails with a [*DecodeError] wrapping [io.ErrUnexpectedEOF].
func (d *MultiplexDecoder) Flush(buf []byte) ([]LogOutput, error) {
	if len(buf) == 0 && d.state == awaitingHeader {
		return nil, nil
	}

	if d.state == awaitingHeader && buf[0] > byte(StdErr) {
		return []LogOutput{{Stream: Console, Message: bytes.Clone(buf)}}, nil
	}

	return nil, &DecodeError{Offset: int64(len(buf)), Raw: string(buf), Err: io.ErrUnexpectedEOF}
}
