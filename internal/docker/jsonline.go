package docker

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
)

// Frames a stream of JSON values separated by newlines.
//
// Values are normally terminated by a newline, but a newline may also occur
// inside a value, either as whitespace between tokens or as a raw control
// character inside a string. A newline that ends an incomplete value is
// treated as part of it and the next newline is tried instead. Raw control
// characters inside strings are escaped before parsing, so a value with a
// literal newline in a string field decodes as one item that keeps the
// newline. Blank lines are skipped.
//
// The decoder holds no state between calls.
type JSONLineDecoder[T any] struct{}

// Decodes the complete values at the head of buf.
//
// Returns the decoded values and the number of bytes they occupied,
// including their terminating newlines. Bytes past n belong to an
// incomplete value and must be passed again, with more data appended, on
// the next call. A value that is malformed, rather than incomplete, fails
// with a [*DecodeError]; values decoded before it are still returned.
func (JSONLineDecoder[T]) Decode(buf []byte) ([]T, int, error) {
	var items []T
	n := 0

	for n < len(buf) {
		item, used, ok, err := decodeLine[T](buf[n:])
		if err != nil {
			return items, n, err
		}
		if used == 0 {
			break
		}
		n += used
		if ok {
			items = append(items, item)
		}
	}

	return items, n, nil
}

// Decodes whatever is left once the stream has ended.
//
// Trailing whitespace is ignored. A complete value without a terminating
// newline is returned; an incomplete one fails with a [*DecodeError]
// wrapping [io.ErrUnexpectedEOF].
func (JSONLineDecoder[T]) Flush(buf []byte) ([]T, error) {
	if isBlank(buf) {
		return nil, nil
	}

	v, complete, err := parseJSONValue[T](buf)
	if err != nil {
		return nil, err
	}
	if !complete {
		return nil, &DecodeError{Offset: int64(len(buf)), Raw: string(buf), Err: io.ErrUnexpectedEOF}
	}
	return []T{v}, nil
}

// Decodes the first value at the head of buf.
//
// Returns the number of bytes consumed and whether a value was produced.
// A blank line is consumed without producing a value. Zero bytes consumed
// means more data is needed.
func decodeLine[T any](buf []byte) (T, int, bool, error) {
	var zero T
	from := 0

	for {
		i := bytes.IndexByte(buf[from:], '\n')
		if i < 0 {
			if isBlank(buf) {
				return zero, 0, false, nil
			}
			v, complete, err := parseJSONValue[T](buf)
			if err != nil || !complete {
				return zero, 0, false, err
			}
			return v, len(buf), true, nil
		}

		end := from + i
		candidate := buf[:end]

		if from == 0 && isBlank(candidate) {
			return zero, end + 1, false, nil
		}

		v, complete, err := parseJSONValue[T](candidate)
		if err != nil {
			return zero, 0, false, err
		}
		if complete {
			return v, end + 1, true, nil
		}

		// The newline sits inside a value that continues past it.
		from = end + 1
	}
}

// Parses data as exactly one JSON value.
//
// Returns complete=false, with no error, if data ends before the value
// does. Syntax errors, type mismatches and trailing content fail with a
// [*DecodeError] whose offset refers to data.
func parseJSONValue[T any](data []byte) (T, bool, error) {
	var v T

	escaped, origin := escapeStringControls(data)

	dec := json.NewDecoder(bytes.NewReader(escaped))
	if err := dec.Decode(&v); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
			return v, false, nil
		}
		return v, false, &DecodeError{
			Offset: originOffset(origin, jsonErrorOffset(err)),
			Raw:    string(data),
			Err:    err,
		}
	}

	rest := escaped[dec.InputOffset():]
	if !isBlank(rest) {
		offset := dec.InputOffset() + int64(len(rest)-len(bytes.TrimLeft(rest, " \t\r\n")))
		return v, false, &DecodeError{
			Offset: originOffset(origin, offset),
			Raw:    string(data),
			Err:    errTrailingData,
		}
	}

	return v, true, nil
}

var errTrailingData = errors.New("trailing data after value")

// Escapes raw control characters that appear inside JSON strings.
//
// Returns data unchanged, and a nil mapping, when nothing needed escaping.
// Otherwise origin[i] is the index in data of the byte that produced
// output byte i.
func escapeStringControls(data []byte) ([]byte, []int) {
	if !hasStringControls(data) {
		return data, nil
	}

	out := make([]byte, 0, len(data)+8)
	origin := make([]int, 0, len(data)+8)
	inString, escaped := false, false

	emit := func(src int, b ...byte) {
		out = append(out, b...)
		for range b {
			origin = append(origin, src)
		}
	}

	for i, c := range data {
		switch {
		case !inString:
			inString = c == '"'
			emit(i, c)
		case escaped:
			escaped = false
			emit(i, c)
		case c == '\\':
			escaped = true
			emit(i, c)
		case c == '"':
			inString = false
			emit(i, c)
		case c < 0x20:
			emit(i, controlEscape(c)...)
		default:
			emit(i, c)
		}
	}

	return out, origin
}

// Reports whether any raw control character occurs inside a string.
func hasStringControls(data []byte) bool {
	inString, escaped := false, false
	for _, c := range data {
		switch {
		case !inString:
			inString = c == '"'
		case escaped:
			escaped = false
		case c == '\\':
			escaped = true
		case c == '"':
			inString = false
		case c < 0x20:
			return true
		}
	}
	return false
}

const hexDigits = "0123456789abcdef"

// Returns the JSON escape sequence for a control character.
func controlEscape(c byte) []byte {
	switch c {
	case '\n':
		return []byte(`\n`)
	case '\r':
		return []byte(`\r`)
	case '\t':
		return []byte(`\t`)
	default:
		return []byte{'\\', 'u', '0', '0', hexDigits[c>>4], hexDigits[c&0xf]}
	}
}

// Maps an offset in escaped output back to the input it was produced from.
func originOffset(origin []int, offset int64) int64 {
	if origin == nil || offset < 0 {
		return offset
	}
	if offset >= int64(len(origin)) {
		return int64(origin[len(origin)-1]) + 1
	}
	return int64(origin[offset])
}

// Reports whether b holds only JSON whitespace.
func isBlank(b []byte) bool {
	return len(bytes.TrimLeft(b, " \t\r\n")) == 0
}
