// File: session/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Package session implements the connection object a Socket is handed to
// once it is established. A Session owns its connection exclusively, runs
// every handler on the execution context its socket was bound to, and does
// not read from the peer until StartRecv is called.
package session
