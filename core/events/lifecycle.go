package events

import "github.com/koscakluka/ema-translate/core/channel"

const (
	KindTransportConnected Kind = channel.EventConnect
	KindDisconnected       Kind = channel.EventDisconnect
	KindConnectError       Kind = channel.EventConnectError
)

type TransportConnected struct{ Base }

func NewTransportConnected() TransportConnected {
	return TransportConnected{Base: NewBase(KindTransportConnected)}
}

type Disconnected struct {
	Base
	Reason string
}

func NewDisconnected(reason string) Disconnected {
	return Disconnected{Base: NewBase(KindDisconnected), Reason: reason}
}

// ConnectError reports a failed (re)connection attempt. WillRetry is false
// on the last attempt and whenever the credentials were rejected.
type ConnectError struct {
	Base
	Message      string
	Attempt      int
	WillRetry    bool
	Unauthorized bool
}

func NewConnectError(message string, attempt int, willRetry bool) ConnectError {
	return ConnectError{
		Base:      NewBase(KindConnectError),
		Message:   message,
		Attempt:   attempt,
		WillRetry: willRetry,
	}
}
