// Package protocol defines the messages exchanged between the nova CLI and
// the nova daemon.
//
// Each connection carries one exchange. The client writes a single
// [Envelope] encoded as JSON and terminated by a newline; the daemon
// answers with one envelope of its own, either [CmdOK] with a result
// payload or [CmdError] with an [ErrorResult], and closes the connection.
//
// Example usage:
//
//	data, err := protocol.Encode(protocol.CmdBuild, &protocol.BuildRequest{
//	    Pipeline: *p.Document(),
//	})
//	if err != nil {
//	    return err
//	}
//	conn.Write(append(data, '\n'))
package protocol
