package docker

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func pingHandler(version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/_ping" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Api-Version", version)
		w.Header().Set("Ostype", "linux")
		w.Write([]byte("OK"))
	}
}

func TestPing(t *testing.T) {
	d := newTestEngine(t, pingHandler("1.41"))

	res, err := d.Ping(context.Background())
	require.NoError(t, err)
	require.Equal(t, PingResponse{APIVersion: "1.41", OSType: "linux"}, res)
}

func TestNegotiateVersionLowers(t *testing.T) {
	d := newTestEngine(t, pingHandler("1.40"))
	clone := d.Clone()

	v, err := d.NegotiateVersion(context.Background())
	require.NoError(t, err)
	require.Equal(t, ClientVersion{1, 40}, v)
	require.Equal(t, ClientVersion{1, 40}, clone.ClientVersion())
}

func TestNegotiateVersionNeverRaises(t *testing.T) {
	d := newTestEngine(t, pingHandler("1.45"))

	v, err := d.NegotiateVersion(context.Background())
	require.NoError(t, err)
	require.Equal(t, DefaultVersion, v)
	require.Equal(t, DefaultVersion, d.ClientVersion())
}

func TestNegotiateVersionWithoutHeader(t *testing.T) {
	d := newTestEngine(t, pingHandler(""))

	v, err := d.NegotiateVersion(context.Background())
	require.NoError(t, err)
	require.Equal(t, DefaultVersion, v)
}
