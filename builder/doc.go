// File: builder/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Package builder offers fluent, single-use builders that turn established
// sockets into sessions.
//
// A ConnectorBuilder drives one outbound connect; an AcceptorBuilder wires an
// acceptor so every inbound connection becomes a session. In both cases every
// establish handler runs, in registration order, on the socket's execution
// context before the session starts receiving.
//
//	err := builder.NewConnectorBuilder().
//		WithConnector(tcp.NewTCPConnector(pool)).
//		WithEndpoint("127.0.0.1:9001").
//		WithTimeout(time.Second).
//		WithFailedHandler(func(err error) { log.Println(err) }).
//		AddEstablishHandler(func(s *session.Session) { _ = s.Send(hello) }).
//		WithDataHandler(onData).
//		AsyncConnect()
package builder
