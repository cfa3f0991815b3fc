// Package translation is the client side of a real-time speech translation
// session.
//
// A [Session] owns one channel to the translation backend together with the
// session state built from the events received on it. Commands validate
// their preconditions against that state before anything is sent; inbound
// events are decoded once at the channel boundary and applied one at a time.
// Callers read the state through [Session.Snapshot] and are notified of new
// messages, audio and turn changes through an [Observer].
package translation

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/koscakluka/ema-translate/core/channel"
	"github.com/koscakluka/ema-translate/core/entitlement"
	"github.com/koscakluka/ema-translate/core/events"
	"github.com/koscakluka/ema-translate/core/protocol"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type Session struct {
	mode        Mode
	dialer      channel.Dialer
	entitlement entitlement.Checker
	observer    Observer
	now         func() time.Time

	mu sync.Mutex
	// generation identifies the current channel. It is bumped whenever the
	// channel is torn down locally so frames still in flight from the old
	// one are ignored.
	generation uint64
	channel    channel.Channel
	state      State

	// requested remembers the last selection sent to the backend, used when
	// the confirmation carries no language metadata.
	requested LanguageSelection
	// partial is the index of the in-flight live transcription, -1 if none.
	partial int
}

func New(opts ...Option) *Session {
	s := &Session{
		mode:        ModeConversation,
		entitlement: entitlement.Static(true),
		observer:    NopObserver{},
		now:         time.Now,
		partial:     -1,
	}
	s.state = State{Mode: s.mode, CurrentSpeaker: SpeakerA}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

func (s *Session) Mode() Mode { return s.mode }

// Snapshot returns a deep copy of the current session state.
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

// Connect checks the caller's entitlement and opens the channel. It is a
// no-op while a connection is open or being opened. A channel that is still
// retrying after a dropped connection is replaced.
//
// Failures are recorded in the session state, reported to the observer and
// returned as an [*Error].
func (s *Session) Connect(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "connect")
	defer span.End()
	span.SetAttributes(attribute.String("mode", string(s.mode)))

	s.mu.Lock()
	if s.state.ConnectionPhase != Disconnected {
		s.mu.Unlock()
		return nil
	}
	if s.dialer == nil {
		s.mu.Unlock()
		err := errors.New("session has no dialer")
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	superseded := s.channel
	s.channel = nil
	s.generation++
	generation := s.generation
	s.state.ConnectionPhase = Connecting
	s.mu.Unlock()

	if superseded != nil {
		if err := superseded.Close(); err != nil {
			logger.Warn("failed to close superseded channel", "error", err)
		}
	}

	premium, err := s.entitlement.HasPremium(ctx)
	switch {
	case errors.Is(err, entitlement.ErrUnauthorized):
		return s.failConnect(span, generation, newError(CodeAuthRequired, err.Error(), err))
	case err != nil:
		return s.failConnect(span, generation, newError(CodeConnectionError, "entitlement check failed: "+err.Error(), err))
	case !premium:
		return s.failConnect(span, generation, newError(CodePremiumRequired, ErrPremiumRequired.Message, nil))
	}

	ch, err := s.dialer.Dial(ctx, s.mode.namespace(), s.handler(generation))
	switch {
	case errors.Is(err, channel.ErrUnauthorized):
		return s.failConnect(span, generation, newError(CodeAuthRequired, err.Error(), err))
	case err != nil:
		return s.failConnect(span, generation, newError(CodeConnectionError, err.Error(), err))
	}

	s.mu.Lock()
	if s.generation != generation {
		// Disconnected, or torn down by a fatal error, while dialing.
		var fatal *Error
		if recorded := s.state.Error; recorded != nil && recorded.IsFatal() {
			copied := *recorded
			fatal = &copied
		}
		s.mu.Unlock()
		_ = ch.Close()
		if fatal != nil {
			span.RecordError(fatal)
			span.SetStatus(codes.Error, fatal.Error())
			return fatal
		}
		return nil
	}
	s.channel = ch
	s.mu.Unlock()

	return nil
}

func (s *Session) failConnect(span trace.Span, generation uint64, e *Error) error {
	span.RecordError(e)
	span.SetStatus(codes.Error, e.Error())
	logger.Error("failed to connect translation session", "code", e.Code, "error", e.Message)

	s.mu.Lock()
	if s.generation != generation {
		s.mu.Unlock()
		return e
	}
	var notify notifications
	if e.IsFatal() {
		s.resetLocked()
	} else {
		s.state.ConnectionPhase = Disconnected
		s.state.Authenticated = false
	}
	s.recordLocked(e, &notify)
	s.mu.Unlock()

	notify.deliver()
	return e
}

// Disconnect asks the backend to stop the session, closes the channel and
// resets the whole session state, whatever the backend answers.
func (s *Session) Disconnect(ctx context.Context) {
	ctx, span := tracer.Start(ctx, "disconnect")
	defer span.End()

	s.mu.Lock()
	ch := s.channel
	s.channel = nil
	s.generation++
	s.resetLocked()
	s.state.Error = nil
	s.mu.Unlock()

	if ch == nil {
		return
	}

	if err := ch.Emit(ctx, protocol.EventStopSession, protocol.StopSession{}); err != nil {
		logger.Debug("failed to send stop_session before disconnect", "error", err)
	}
	if err := ch.Close(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.Warn("failed to close channel", "error", err)
	}
}

// resetLocked drops everything the session learned from the backend. The
// error record is left to the caller.
func (s *Session) resetLocked() {
	s.state = State{
		Mode:           s.mode,
		CurrentSpeaker: SpeakerA,
		Error:          s.state.Error,
	}
	s.requested = LanguageSelection{}
	s.partial = -1
}

func (s *Session) recordLocked(e *Error, notify *notifications) {
	s.state.Error = e
	observer := s.observer
	recorded := *e
	notify.add(func() { observer.OnError(&recorded) })
}

func (s *Session) handler(generation uint64) channel.Handler {
	return func(frame channel.Frame) {
		event, err := events.Decode(frame)
		if err != nil {
			logger.Warn("dropped inbound frame", "event", frame.Event, "error", err)
			return
		}
		s.dispatch(generation, event)
	}
}
