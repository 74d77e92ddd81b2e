package docker

import (
	"errors"
	"io"
	"iter"
)

// Read size used when pumping a response body into a decoder.
const chunkSize = 32 * 1024

// Incremental decoder over an append-only byte buffer.
//
// Decode consumes zero or more complete items from the head of buf and
// reports how many bytes they used. Flush is called once with the leftover
// bytes when the input has ended.
type streamDecoder[T any] interface {
	Decode(buf []byte) ([]T, int, error)
	Flush(buf []byte) ([]T, error)
}

// Pumps r through dec, yielding items as soon as they are complete.
//
// r is closed when the input ends, on the first error, or when the
// consumer stops iterating. Decoding errors end the sequence; read errors
// are wrapped in [ErrRuntime].
func decodeStream[T any](r io.ReadCloser, dec streamDecoder[T]) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		defer r.Close()

		var zero T
		var buf []byte
		chunk := make([]byte, chunkSize)

		for {
			n, readErr := r.Read(chunk)
			buf = append(buf, chunk[:n]...)

			items, used, err := dec.Decode(buf)
			for _, item := range items {
				if !yield(item, nil) {
					return
				}
			}
			if err != nil {
				yield(zero, err)
				return
			}
			buf = append(buf[:0], buf[used:]...)

			if errors.Is(readErr, io.EOF) {
				items, err := dec.Flush(buf)
				for _, item := range items {
					if !yield(item, nil) {
						return
					}
				}
				if err != nil {
					yield(zero, err)
				}
				return
			}
			if readErr != nil {
				yield(zero, runtimeError(readErr))
				return
			}
		}
	}
}
