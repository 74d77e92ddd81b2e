// Package server implements the nova daemon and its client.
//
// The daemon listens on a Unix domain socket for JSON-encoded commands
// from the nova CLI. Each connection carries a single request-response
// exchange: the client sends a newline-delimited JSON envelope, the
// server dispatches the command, and writes the result back before
// closing the connection.
//
// Supported commands are building a pipeline, querying daemon status, and
// initiating shutdown. Builds are delegated to the build package and run
// on a clone of the daemon's Docker Engine handle, one goroutine per
// connection. Closing the connection abandons the build.
//
// Example usage:
//
//	d, err := docker.ConnectWithUnixDefaults()
//	if err != nil {
//	    return err
//	}
//
//	srv, err := server.New(server.Config{Docker: d})
//	if err != nil {
//	    return err
//	}
//
//	if err := srv.Start(); err != nil {
//	    return err
//	}
//	defer srv.Stop()
//
//	srv.Wait()
package server
