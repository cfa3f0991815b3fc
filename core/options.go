package translation

import (
	"time"

	"github.com/koscakluka/ema-translate/core/channel"
	"github.com/koscakluka/ema-translate/core/entitlement"
)

type Option func(*Session)

// WithMode selects the session shape. Defaults to [ModeConversation].
func WithMode(mode Mode) Option {
	return func(s *Session) {
		s.mode = mode
		s.state.Mode = mode
	}
}

func WithDialer(dialer channel.Dialer) Option {
	return func(s *Session) {
		s.dialer = dialer
	}
}

func WithObserver(observer Observer) Option {
	return func(s *Session) {
		if observer != nil {
			s.observer = observer
		}
	}
}

// WithEntitlement sets the premium check consulted by Connect before any
// channel is dialed. Without it every caller is entitled.
func WithEntitlement(checker entitlement.Checker) Option {
	return func(s *Session) {
		if checker != nil {
			s.entitlement = checker
		}
	}
}

// WithClock replaces time.Now for message timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		if now != nil {
			s.now = now
		}
	}
}
