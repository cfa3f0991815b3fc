// Package channel defines the duplex, named-event connection a translation
// session runs over.
//
// A [Channel] delivers inbound frames to a single [Handler] in arrival order,
// one at a time. Besides the frames received from the backend, adapters
// produce lifecycle frames of their own:
//
//   - connect: the transport (re)connected.
//   - disconnect: the transport dropped; payload {"reason": "..."}.
//   - connect_error: a (re)connection attempt failed; payload
//     {"message": "...", "attempt": n, "willRetry": bool}.
//
// Reconnection is owned by the adapter.
package channel

import (
	"context"
	"encoding/json"
	"errors"
)

// Lifecycle frames generated by adapters.
const (
	EventConnect      = "connect"
	EventDisconnect   = "disconnect"
	EventConnectError = "connect_error"
)

// Disconnect reasons reported by adapters.
const (
	ReasonClientDisconnect = "io client disconnect"
	ReasonTransportClose   = "transport close"
	ReasonTransportError   = "transport error"
	ReasonReconnectFailed  = "reconnect failed"
)

// Disconnect is the payload of a disconnect frame.
type Disconnect struct {
	Reason string `json:"reason"`
}

// ConnectError is the payload of a connect_error frame.
type ConnectError struct {
	Message   string `json:"message"`
	Attempt   int    `json:"attempt"`
	WillRetry bool   `json:"willRetry"`

	// Unauthorized is set when the server rejected the credentials.
	Unauthorized bool `json:"unauthorized,omitempty"`
}

// Frame is a single named event with its raw JSON payload.
type Frame struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"data,omitempty"`
}

// Handler receives inbound frames. Handlers are never invoked concurrently
// for the same channel.
type Handler func(Frame)

// Channel is an open duplex connection.
type Channel interface {
	// Emit sends a named event. The payload is encoded as JSON.
	Emit(ctx context.Context, event string, payload any) error
	// Close closes the connection and stops reconnection. It is safe to call
	// from inside the Handler and repeated calls are ignored.
	Close() error
}

// Dialer opens channels to a namespaced endpoint.
type Dialer interface {
	Dial(ctx context.Context, namespace string, handler Handler) (Channel, error)
}

// DialerFunc adapts a function to [Dialer].
type DialerFunc func(ctx context.Context, namespace string, handler Handler) (Channel, error)

func (f DialerFunc) Dial(ctx context.Context, namespace string, handler Handler) (Channel, error) {
	return f(ctx, namespace, handler)
}

// NewFrame builds a frame by encoding payload. A nil payload produces an
// empty payload.
func NewFrame(event string, payload any) (Frame, error) {
	if payload == nil {
		return Frame{Event: event}, nil
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return Frame{}, err
	}
	return Frame{Event: event, Payload: data}, nil
}

// ErrUnauthorized is wrapped by adapters when the endpoint rejects the
// channel's credentials.
var ErrUnauthorized = errors.New("channel: unauthorized")

// ErrClosed is returned when emitting on a closed channel.
var ErrClosed = errors.New("channel: closed")
