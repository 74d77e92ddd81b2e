package docker

import (
	"encoding/hex"
	"fmt"
	"net/url"

	"github.com/google/go-querystring/query"
)

// Builds the request URI for an Engine endpoint behind a Unix socket.
//
// A Unix socket has no network host, so the socket's filesystem path is
// hex-encoded into the authority, where the transport's dialer recovers it.
// The path is prefixed with "/v<major>.<minor>". query is a struct with
// `url` tags (or nil); its encoded form is appended when non-empty.
//
//	uri("/var/run/docker.sock", ClientVersion{1, 42}, "/containers/create", nil)
//	// unix://2f7661722f72756e2f646f636b65722e736f636b/v1.42/containers/create
func uri(socket string, version ClientVersion, path string, q any) (string, error) {
	return buildURI(socket, fmt.Sprintf("/v%d.%d%s", version.Major, version.Minor, path), q)
}

// Builds a request URI without an API version prefix.
//
// Used for endpoints that must be reachable before the API version is
// known, such as "/_ping".
func unversionedURI(socket string, path string, q any) (string, error) {
	return buildURI(socket, path, q)
}

func buildURI(socket string, path string, q any) (string, error) {
	u := url.URL{
		Scheme: unixScheme,
		Host:   encodeSocketHost(socket),
		Path:   path,
	}

	values, err := query.Values(q)
	if err != nil {
		return "", fmt.Errorf("%w: encode query: %w", ErrRuntime, err)
	}
	if len(values) > 0 {
		u.RawQuery = values.Encode()
	}

	return u.String(), nil
}

// Returns the URI authority standing in for a socket path.
func encodeSocketHost(socket string) string {
	return hex.EncodeToString([]byte(socket))
}

// Recovers the socket path from a URI authority.
func decodeSocketHost(host string) (string, error) {
	b, err := hex.DecodeString(host)
	if err != nil {
		return "", fmt.Errorf("authority %q is not a hex-encoded socket path: %w", host, err)
	}
	return string(b), nil
}
