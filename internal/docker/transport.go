package docker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"iter"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync/atomic"
	"time"
)

// Creates the HTTP transport shared by a handle and its clones.
//
// Requests with the "unix" scheme are rewritten to plain HTTP and sent over
// a connection to the socket recovered from the URI authority, so one
// transport can serve any number of sockets.
func newUnixTransport() *http.Transport {
	t := &http.Transport{
		DialContext:         dialSocket,
		MaxIdleConnsPerHost: 4,
		IdleConnTimeout:     90 * time.Second,
		DisableCompression:  true,
	}
	t.RegisterProtocol(unixScheme, unixRoundTripper{base: t})
	return t
}

// Dials the Unix socket whose path is hex-encoded in the host part of addr.
func dialSocket(ctx context.Context, _, addr string) (net.Conn, error) {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		host = addr
	}
	socket, err := decodeSocketHost(host)
	if err != nil {
		return nil, err
	}
	return dialer.DialContext(ctx, "unix", socket)
}

// Sends unix-scheme requests through the base transport as plain HTTP.
type unixRoundTripper struct {
	base *http.Transport
}

func (rt unixRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	r := req.Clone(req.Context())
	r.URL.Scheme = "http"
	return rt.base.RoundTrip(r)
}

// Error body sent by the Engine.
type serverErrorMessage struct {
	Message *string `json:"message"`
}

// Composes a request for an Engine endpoint.
//
// The URI is built from the handle's socket and current API version. body
// may be nil for requests without a payload.
func (d *Docker) buildRequest(ctx context.Context, method, path string, q any, body []byte) (*http.Request, error) {
	target, err := uri(d.addr, d.ClientVersion(), path, q)
	if err != nil {
		return nil, err
	}
	return d.newRequest(ctx, method, target, body)
}

// Composes a request for an endpoint outside the versioned API.
func (d *Docker) buildUnversionedRequest(ctx context.Context, method, path string, q any) (*http.Request, error) {
	target, err := unversionedURI(d.addr, path, q)
	if err != nil {
		return nil, err
	}
	return d.newRequest(ctx, method, target, nil)
}

func (d *Docker) newRequest(ctx context.Context, method, target string, body []byte) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, target, bytes.NewReader(body))
	if err != nil {
		return nil, runtimeError(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", d.userAgent)
	return req, nil
}

// Encodes a request payload.
func serializePayload(v any) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, runtimeError(err)
	}
	return b, nil
}

// Sends a request and classifies the response.
//
// The handle's timeout bounds the wait for the response head; once the head
// has arrived the body may be read for as long as the request context
// allows. A 2xx, 304 or 101 response is returned with its body open and
// must be closed by the caller. Any other status is read to the end and
// turned into a [*ServerError].
func (d *Docker) processRequest(req *http.Request) (*http.Response, error) {
	ctx, cancel := context.WithCancel(req.Context())
	head := startHeadTimer(d.timeout, cancel)

	slog.Debug("engine request", "method", req.Method, "path", req.URL.Path)

	resp, err := d.client.Do(req.WithContext(ctx))
	if !head.arrived() {
		if resp != nil {
			resp.Body.Close()
		}
		cancel()
		return nil, ErrTimeout
	}
	if err != nil {
		cancel()
		return nil, runtimeError(err)
	}

	resp.Body = &cancelOnClose{ReadCloser: resp.Body, cancel: cancel}

	if isSuccess(resp.StatusCode) {
		return resp, nil
	}

	defer resp.Body.Close()

	contents, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, runtimeError(err)
	}

	return nil, &ServerError{
		StatusCode: resp.StatusCode,
		Message:    serverMessage(contents),
	}
}

// Reports whether a status is passed through to the caller.
func isSuccess(status int) bool {
	return (status >= 200 && status < 300) ||
		status == http.StatusNotModified ||
		status == http.StatusSwitchingProtocols
}

// Extracts the message of an error body.
//
// Bodies of the form {"message": "..."} yield the message; anything else
// yields the body text.
func serverMessage(contents []byte) string {
	var msg serverErrorMessage
	if err := json.Unmarshal(contents, &msg); err == nil && msg.Message != nil {
		return *msg.Message
	}
	return strings.TrimSpace(string(contents))
}

// Sends a request and decodes the response body as a single JSON value.
func processIntoValue[T any](d *Docker, req *http.Request) (T, error) {
	var v T

	resp, err := d.processRequest(req)
	if err != nil {
		return v, err
	}
	defer resp.Body.Close()

	contents, err := io.ReadAll(resp.Body)
	if err != nil {
		return v, runtimeError(err)
	}

	if err := json.Unmarshal(contents, &v); err != nil {
		return v, &DecodeError{Offset: jsonErrorOffset(err), Raw: string(contents), Err: err}
	}
	return v, nil
}

// Sends a request and discards the response body.
func (d *Docker) processIntoUnit(req *http.Request) error {
	resp, err := d.processRequest(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if _, err := io.Copy(io.Discard, resp.Body); err != nil {
		return runtimeError(err)
	}
	return nil
}

// Sends a request when the sequence is first iterated and yields the
// JSON-lines records of its body.
func processIntoStream[T any](d *Docker, req *http.Request) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		resp, err := d.processRequest(req)
		if err != nil {
			var zero T
			yield(zero, err)
			return
		}
		for v, err := range decodeStream[T](resp.Body, JSONLineDecoder[T]{}) {
			if !yield(v, err) {
				return
			}
		}
	}
}

// Sends a request when the sequence is first iterated and yields the
// demultiplexed container output of its body.
func (d *Docker) processIntoLogs(req *http.Request) iter.Seq2[LogOutput, error] {
	return func(yield func(LogOutput, error) bool) {
		resp, err := d.processRequest(req)
		if err != nil {
			yield(LogOutput{}, err)
			return
		}
		for v, err := range decodeStream[LogOutput](resp.Body, &MultiplexDecoder{}) {
			if !yield(v, err) {
				return
			}
		}
	}
}

// Returns a sequence yielding only err.
func errSeq[T any](err error) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		var zero T
		yield(zero, err)
	}
}

// Returns the byte offset carried by an encoding/json error, or -1.
func jsonErrorOffset(err error) int64 {
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return syntaxErr.Offset
	}
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return typeErr.Offset
	}
	return -1
}

// Releases the request context when the response body is closed.
type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (c *cancelOnClose) Close() error {
	err := c.ReadCloser.Close()
	c.cancel()
	return err
}

const (
	headPending int32 = iota
	headArrived
	headExpired
)

// Bounds the wait for a response head.
//
// Exactly one of arrival and expiry wins. Once the head has arrived the
// timer never cancels the request, so a response that was received is
// never discarded as a timeout.
type headTimer struct {
	timer *time.Timer
	state atomic.Int32
}

// Starts a timer that calls cancel after d unless [headTimer.arrived] is
// called first.
func startHeadTimer(d time.Duration, cancel context.CancelFunc) *headTimer {
	h := &headTimer{}
	h.timer = time.AfterFunc(d, func() {
		if h.state.CompareAndSwap(headPending, headExpired) {
			cancel()
		}
	})
	return h
}

// Records that the request returned. Returns false if the timer expired
// first, in which case the request has been cancelled.
func (h *headTimer) arrived() bool {
	h.timer.Stop()
	return h.state.CompareAndSwap(headPending, headArrived)
}
