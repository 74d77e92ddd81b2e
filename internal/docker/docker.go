package docker

import (
	"fmt"
	"net"
	"net/http"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/cruciblehq/nova/internal"
)

const (

	// Default Engine socket address.
	DefaultSocket = "unix:///var/run/docker.sock"

	// Environment variable overriding the socket. Only unix:// values are honored.
	HostEnv = "DOCKER_HOST"

	// Environment variable overriding the default API version.
	APIVersionEnv = "DOCKER_API_VERSION"

	// Default bound on waiting for a response head.
	DefaultTimeout = 120 * time.Second

	// Scheme of request URIs addressed to a Unix socket.
	unixScheme = "unix"
)

// API version requested when none is configured.
var DefaultVersion = ClientVersion{Major: 1, Minor: 42}

// Engine API version, rendered as "<major>.<minor>".
type ClientVersion struct {
	Major uint64
	Minor uint64
}

func (v ClientVersion) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// Returns true if v is an older API version than other.
func (v ClientVersion) Less(other ClientVersion) bool {
	if v.Major != other.Major {
		return v.Major < other.Major
	}
	return v.Minor < other.Minor
}

// Parses an API version such as "1.42" or "v1.42".
func ParseClientVersion(s string) (ClientVersion, error) {
	sv, err := semver.NewVersion(strings.TrimSpace(s))
	if err != nil {
		return ClientVersion{}, fmt.Errorf("invalid API version %q: %w", s, err)
	}
	return ClientVersion{Major: sv.Major(), Minor: sv.Minor()}, nil
}

// Handle to a Docker Engine reached over a Unix socket.
//
// Copies made with [Docker.Clone] share the HTTP client and the API
// version; negotiating a lower version on one is seen by all of them.
type Docker struct {
	client    *http.Client                   // Shared client; dials the socket named by each request URI.
	addr      string                         // Filesystem path of the Engine socket.
	timeout   time.Duration                  // Bound on waiting for a response head.
	version   *atomic.Pointer[ClientVersion] // Shared, negotiated API version.
	userAgent string                         // User-Agent header sent with every request.
}

// Connects to the socket named by DOCKER_HOST, or the default socket.
//
// DOCKER_HOST values that are not unix:// URLs are ignored. The API
// version is taken from DOCKER_API_VERSION when set.
func ConnectWithUnixDefaults() (*Docker, error) {
	path := DefaultSocket
	if host := os.Getenv(HostEnv); strings.HasPrefix(host, unixScheme+"://") {
		path = host
	}

	version := DefaultVersion
	if raw := os.Getenv(APIVersionEnv); raw != "" {
		v, err := ParseClientVersion(raw)
		if err != nil {
			return nil, err
		}
		version = v
	}

	return ConnectWithUnix(path, DefaultTimeout, version)
}

// Creates a handle for the Engine socket at path.
//
// The path may carry a unix:// prefix. No connection is made until the
// first request.
func ConnectWithUnix(path string, timeout time.Duration, version ClientVersion) (*Docker, error) {
	addr := strings.TrimPrefix(path, unixScheme+"://")
	if addr == "" {
		return nil, fmt.Errorf("%w: empty socket path", ErrRuntime)
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	v := new(atomic.Pointer[ClientVersion])
	v.Store(&version)

	return &Docker{
		client:    &http.Client{Transport: newUnixTransport()},
		addr:      addr,
		timeout:   timeout,
		version:   v,
		userAgent: internal.UserAgent(),
	}, nil
}

// Returns a handle sharing this handle's connection pool and API version.
func (d *Docker) Clone() *Docker {
	c := *d
	return &c
}

// Returns a clone whose requests use the given timeout.
func (d *Docker) WithTimeout(timeout time.Duration) *Docker {
	c := d.Clone()
	c.timeout = timeout
	return c
}

// Returns the request timeout.
func (d *Docker) Timeout() time.Duration {
	return d.timeout
}

// Returns the socket path.
func (d *Docker) Addr() string {
	return d.addr
}

// Returns the API version requests are currently sent with.
func (d *Docker) ClientVersion() ClientVersion {
	return *d.version.Load()
}

// Closes idle connections held by the shared client.
//
// The handle, and every clone, stays usable; new connections are dialed on
// demand.
func (d *Docker) Close() {
	d.client.CloseIdleConnections()
}

// Dialer used for Engine connections.
var dialer = &net.Dialer{Timeout: 30 * time.Second, KeepAlive: 30 * time.Second}
