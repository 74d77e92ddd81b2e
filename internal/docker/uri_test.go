package docker

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestURI(t *testing.T) {
	got, err := uri("/var/run/docker.sock", ClientVersion{1, 42}, "/containers/create", nil)
	require.NoError(t, err)
	require.Equal(t, "unix://2f7661722f72756e2f646f636b65722e736f636b/v1.42/containers/create", got)
}

func TestURIQuery(t *testing.T) {
	got, err := uri("/tmp/d.sock", ClientVersion{1, 41}, "/containers/abc/logs", &LogsOptions{Stdout: true, Tail: "10"})
	require.NoError(t, err)

	u, err := url.Parse(got)
	require.NoError(t, err)
	require.Equal(t, unixScheme, u.Scheme)
	require.Equal(t, "/v1.41/containers/abc/logs", u.Path)
	require.Equal(t, "true", u.Query().Get("stdout"))
	require.Equal(t, "10", u.Query().Get("tail"))
	require.False(t, u.Query().Has("stderr"))

	socket, err := decodeSocketHost(u.Host)
	require.NoError(t, err)
	require.Equal(t, "/tmp/d.sock", socket)
}

func TestURIEmptyQueryOmitted(t *testing.T) {
	got, err := uri("/s", DefaultVersion, "/containers/x/wait", &WaitContainerOptions{})
	require.NoError(t, err)
	require.NotContains(t, got, "?")
}

func TestUnversionedURI(t *testing.T) {
	got, err := unversionedURI("/s", "/_ping", nil)
	require.NoError(t, err)
	require.Equal(t, "unix://2f73/_ping", got)
}

func TestDecodeSocketHostInvalid(t *testing.T) {
	_, err := decodeSocketHost("not-hex")
	require.Error(t, err)
}

func TestContainerPath(t *testing.T) {
	require.Equal(t, "/containers/abc/start", containerPath("abc", "start"))
	require.Equal(t, "/containers/abc", containerPath("abc", ""))
	require.Equal(t, "/containers/a%2Fb/wait", containerPath("a/b", "wait"))
}

func TestParseClientVersion(t *testing.T) {
	tests := []struct {
		in      string
		want    ClientVersion
		wantErr bool
	}{
		{"1.42", ClientVersion{1, 42}, false},
		{"v1.41", ClientVersion{1, 41}, false},
		{" 1.43 ", ClientVersion{1, 43}, false},
		{"latest", ClientVersion{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseClientVersion(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestClientVersionLess(t *testing.T) {
	require.True(t, ClientVersion{1, 41}.Less(ClientVersion{1, 42}))
	require.False(t, ClientVersion{1, 42}.Less(ClientVersion{1, 42}))
	require.True(t, ClientVersion{1, 99}.Less(ClientVersion{2, 0}))
	require.Equal(t, "1.42", DefaultVersion.String())
}
