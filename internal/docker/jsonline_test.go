package docker

import (
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

type record struct {
	StatusCode int64  `json:"StatusCode"`
	Text       string `json:"Text,omitempty"`
}

func TestJSONLineDecoderCompleteLines(t *testing.T) {
	buf := []byte("{\"StatusCode\":0}\n{\"StatusCode\":1}\n")

	items, n, err := JSONLineDecoder[record]{}.Decode(buf)
	require.NoError(t, err)
	require.Equal(t, len(buf), n)
	require.Equal(t, []record{{StatusCode: 0}, {StatusCode: 1}}, items)
}

func TestJSONLineDecoderPartialTail(t *testing.T) {
	buf := []byte("{\"StatusCode\":3}\n{\"Status")

	items, n, err := JSONLineDecoder[record]{}.Decode(buf)
	require.NoError(t, err)
	require.Equal(t, []record{{StatusCode: 3}}, items)
	require.Equal(t, len("{\"StatusCode\":3}\n"), n)
}

func TestJSONLineDecoderSplitAcrossCalls(t *testing.T) {
	var dec JSONLineDecoder[record]
	stream := "{\"StatusCode\":7}\n{\"StatusCode\":8}\n"

	var got []record
	var buf []byte
	for i := 0; i < len(stream); i++ {
		buf = append(buf, stream[i])
		items, n, err := dec.Decode(buf)
		require.NoError(t, err)
		got = append(got, items...)
		buf = buf[n:]
	}

	require.Empty(t, buf)
	require.Equal(t, []record{{StatusCode: 7}, {StatusCode: 8}}, got)
}

func TestJSONLineDecoderInteriorNewline(t *testing.T) {
	buf := []byte("{\n\"StatusCode\":\n2}\n")

	items, n, err := JSONLineDecoder[record]{}.Decode(buf)
	require.NoError(t, err)
	require.Equal(t, len(buf), n)
	require.Equal(t, []record{{StatusCode: 2}}, items)
}

func TestJSONLineDecoderNewlineInsideString(t *testing.T) {
	buf := []byte("{\"StatusCode\":1,\"Text\":\"line one\nline two\"}\n")

	items, n, err := JSONLineDecoder[record]{}.Decode(buf)
	require.NoError(t, err)
	require.Equal(t, len(buf), n)
	require.Equal(t, []record{{StatusCode: 1, Text: "line one\nline two"}}, items)
}

func TestJSONLineDecoderBlankLines(t *testing.T) {
	buf := []byte("\n  \n{\"StatusCode\":4}\n\n")

	items, n, err := JSONLineDecoder[record]{}.Decode(buf)
	require.NoError(t, err)
	require.Equal(t, len(buf), n)
	require.Equal(t, []record{{StatusCode: 4}}, items)
}

func TestJSONLineDecoderSyntaxError(t *testing.T) {
	buf := []byte("{\"StatusCode\":0}\n{\"StatusCode\":}\n")

	items, n, err := JSONLineDecoder[record]{}.Decode(buf)
	require.Equal(t, []record{{StatusCode: 0}}, items)
	require.Equal(t, len("{\"StatusCode\":0}\n"), n)

	var decErr *DecodeError
	require.ErrorAs(t, err, &decErr)
	require.ErrorIs(t, err, ErrDecode)
	require.Equal(t, "{\"StatusCode\":}", decErr.Raw)
	require.EqualValues(t, 15, decErr.Offset)
}

func TestJSONLineDecoderTrailingData(t *testing.T) {
	_, _, err := JSONLineDecoder[record]{}.Decode([]byte("{\"StatusCode\":0} x\n"))

	var decErr *DecodeError
	require.ErrorAs(t, err, &decErr)
	require.True(t, errors.Is(err, errTrailingData))
	require.EqualValues(t, 17, decErr.Offset)
}

func TestJSONLineDecoderTypeMismatch(t *testing.T) {
	_, _, err := JSONLineDecoder[record]{}.Decode([]byte("{\"StatusCode\":\"zero\"}\n"))
	require.ErrorIs(t, err, ErrDecode)
}

func TestJSONLineDecoderFlush(t *testing.T) {
	var dec JSONLineDecoder[record]

	items, err := dec.Flush([]byte("{\"StatusCode\":9}"))
	require.NoError(t, err)
	require.Equal(t, []record{{StatusCode: 9}}, items)

	items, err = dec.Flush([]byte(" \n"))
	require.NoError(t, err)
	require.Empty(t, items)

	_, err = dec.Flush([]byte("{\"StatusCode\":"))
	require.ErrorIs(t, err, ErrDecode)
	require.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestEscapeStringControls(t *testing.T) {
	in := []byte("{\"a\":\"x\ty\"}\n")

	out, origin := escapeStringControls(in)
	require.Equal(t, "{\"a\":\"x\\ty\"}\n", string(out))
	require.Len(t, origin, len(out))
	require.Equal(t, 7, origin[7])
	require.Equal(t, 7, origin[8])
	require.Equal(t, 8, origin[9])

	out, origin = escapeStringControls([]byte("{\n}"))
	require.Equal(t, "{\n}", string(out))
	require.Nil(t, origin)
}
