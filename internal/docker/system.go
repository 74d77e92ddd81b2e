package docker

import (
	"context"
	"io"
	"log/slog"
	"net/http"
)

// Headers of a ping response.
type PingResponse struct {
	APIVersion string // Highest API version the Engine supports.
	OSType     string // Operating system the Engine runs on.
}

// Checks that the Engine is reachable.
//
// The ping endpoint is outside the versioned API, so it answers even when
// the handle's API version is newer than the Engine supports.
func (d *Docker) Ping(ctx context.Context) (PingResponse, error) {
	req, err := d.buildUnversionedRequest(ctx, http.MethodGet, "/_ping", nil)
	if err != nil {
		return PingResponse{}, err
	}

	resp, err := d.processRequest(req)
	if err != nil {
		return PingResponse{}, err
	}
	defer resp.Body.Close()

	if _, err := io.Copy(io.Discard, resp.Body); err != nil {
		return PingResponse{}, runtimeError(err)
	}

	return PingResponse{
		APIVersion: resp.Header.Get("Api-Version"),
		OSType:     resp.Header.Get("Ostype"),
	}, nil
}

// Lowers the API version to what the Engine supports.
//
// The version is only ever lowered. Since it is shared, the result is seen
// by every clone of the handle. Returns the version in use afterwards.
func (d *Docker) NegotiateVersion(ctx context.Context) (ClientVersion, error) {
	ping, err := d.Ping(ctx)
	if err != nil {
		return d.ClientVersion(), err
	}
	if ping.APIVersion == "" {
		return d.ClientVersion(), nil
	}

	server, err := ParseClientVersion(ping.APIVersion)
	if err != nil {
		return d.ClientVersion(), runtimeError(err)
	}

	for {
		current := d.version.Load()
		if !server.Less(*current) {
			return *current, nil
		}
		if d.version.CompareAndSwap(current, &server) {
			slog.Debug("negotiated engine API version", "from", current.String(), "to", server.String())
			return server, nil
		}
	}
}
