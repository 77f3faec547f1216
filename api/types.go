// File: api/types.go
// Author: momentics <momentics@gmail.com>
//
// Shared API-level type declarations and constants.

package api

// SessionStatus enumerates the state of a session.
type SessionStatus int32

const (
	SessionUnknown SessionStatus = iota
	SessionEstablishing
	SessionActive
	SessionClosed
)

func (s SessionStatus) String() string {
	switch s {
	case SessionEstablishing:
		return "establishing"
	case SessionActive:
		return "active"
	case SessionClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// AcceptorState enumerates the lifecycle of an acceptor.
type AcceptorState int32

const (
	AcceptorOpen AcceptorState = iota
	AcceptorAccepting
	AcceptorClosed
)

func (s AcceptorState) String() string {
	switch s {
	case AcceptorOpen:
		return "open"
	case AcceptorAccepting:
		return "accepting"
	default:
		return "closed"
	}
}
