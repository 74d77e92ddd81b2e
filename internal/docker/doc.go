// Package docker is a client for the Docker Engine API over a Unix socket.
//
// A [Docker] handle owns an HTTP client whose dialer connects to the Unix
// socket named by each request URI. Request URIs use the "unix" scheme and
// carry the hex-encoded socket path in the authority, followed by the API
// version prefix ("/v1.42/containers/create"). The handle is safe for
// concurrent use; [Docker.Clone] returns a handle sharing the same
// connection pool and negotiated API version.
//
// Every request is bounded by the handle's timeout until the response head
// arrives. Responses outside 2xx, 304 and 101 become a [*ServerError]
// carrying the status code and the daemon's message. Streaming endpoints
// are exposed as lazy sequences: wait records are framed by
// [JSONLineDecoder] and container output by [MultiplexDecoder]. Both
// decoders are pure functions over a byte buffer and can be used on their
// own.
//
// Example usage:
//
//	d, err := docker.ConnectWithUnixDefaults()
//	if err != nil {
//	    return err
//	}
//
//	created, err := d.CreateContainer(ctx, nil, docker.CreateContainerConfig{
//	    Image:      "alpine",
//	    Entrypoint: []string{"/bin/sh", "-c"},
//	    Cmd:        []string{"echo hello"},
//	})
//	if err != nil {
//	    return err
//	}
//
//	if err := d.StartContainer(ctx, created.ID, nil); err != nil {
//	    return err
//	}
//
//	for res, err := range d.WaitContainer(ctx, created.ID, nil) {
//	    if err != nil {
//	        return err
//	    }
//	    fmt.Println("exit code", res.StatusCode)
//	}
package docker
