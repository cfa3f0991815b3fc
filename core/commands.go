package translation

import (
	"context"
	"encoding/base64"

	"github.com/jinzhu/copier"
	"github.com/koscakluka/ema-translate/core/channel"
	"github.com/koscakluka/ema-translate/core/protocol"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Commands never fail loudly. A command whose preconditions do not hold
// sends nothing; when the session is not connected it also records
// NOT_CONNECTED and reports it to the observer.

// StartSession asks the backend to open a session. The session becomes
// active once the backend confirms with session_started.
func (s *Session) StartSession(ctx context.Context, selection LanguageSelection) {
	ctx, span := tracer.Start(ctx, "start session")
	defer span.End()

	s.mu.Lock()
	ch, generation, ok := s.connectedLocked(span)
	if !ok {
		return
	}
	s.requested = selection
	payload := protocol.StartSession{LanguageFields: s.wireLanguages(selection)}
	s.mu.Unlock()

	s.emit(ctx, span, ch, generation, protocol.EventStartSession, payload, false)
}

// StopSession asks the backend to end the session and marks it idle
// without waiting for the confirmation. It is sent in any session phase.
func (s *Session) StopSession(ctx context.Context) {
	ctx, span := tracer.Start(ctx, "stop session")
	defer span.End()

	s.mu.Lock()
	s.state.SessionPhase = Idle
	s.state.IsProcessing = false
	s.partial = -1
	ch, generation := s.channel, s.generation
	s.mu.Unlock()

	if ch == nil {
		logger.Debug("stop_session without channel, nothing sent")
		return
	}
	s.emit(ctx, span, ch, generation, protocol.EventStopSession, protocol.StopSession{}, false)
}

// SendAudio submits a complete utterance. In conversation mode only one
// utterance may be in flight: while processing, the call does nothing.
// speaker may be empty to use the current speaker.
func (s *Session) SendAudio(ctx context.Context, audio []byte, speaker Speaker) {
	ctx, span := tracer.Start(ctx, "send audio")
	defer span.End()
	span.SetAttributes(attribute.Int("audio.bytes", len(audio)))

	s.mu.Lock()
	ch, generation, speaker, ok := s.beginSendLocked(span, speaker)
	if !ok {
		return
	}

	payload := protocol.AudioChunk{Audio: base64.StdEncoding.EncodeToString(audio), IsFinal: true}
	if s.mode.isTurnBased() {
		payload.Speaker = speaker
	}
	s.mu.Unlock()

	s.emit(ctx, span, ch, generation, protocol.EventAudioChunk, payload, true)
}

// SendText submits typed text, with the same rules as [Session.SendAudio].
func (s *Session) SendText(ctx context.Context, text string, speaker Speaker) {
	ctx, span := tracer.Start(ctx, "send text")
	defer span.End()

	s.mu.Lock()
	ch, generation, speaker, ok := s.beginSendLocked(span, speaker)
	if !ok {
		return
	}

	payload := protocol.TextInput{Text: text}
	if s.mode.isTurnBased() {
		payload.Speaker = speaker
	}
	s.mu.Unlock()

	s.emit(ctx, span, ch, generation, protocol.EventTextInput, payload, true)
}

// StreamAudio sends one chunk of continuous audio in the streaming modes.
// The final chunk of an utterance marks the session as processing.
func (s *Session) StreamAudio(ctx context.Context, chunk []byte, isFinal bool) {
	ctx, span := tracer.Start(ctx, "stream audio")
	defer span.End()

	if s.mode.isTurnBased() {
		logger.Warn("stream audio is not supported in conversation mode, use SendAudio")
		return
	}

	s.mu.Lock()
	ch, generation, ok := s.connectedLocked(span)
	if !ok {
		return
	}
	if s.state.SessionPhase != Active {
		s.mu.Unlock()
		logger.Debug("ignored audio chunk, no active session")
		return
	}
	if isFinal {
		s.state.IsProcessing = true
	}
	s.mu.Unlock()

	payload := protocol.AudioChunk{Audio: base64.StdEncoding.EncodeToString(chunk), IsFinal: isFinal}
	s.emit(ctx, span, ch, generation, protocol.EventAudioChunk, payload, isFinal)
}

// SwapLanguages asks the backend to swap the language pair. The local
// configuration changes on confirmation only.
func (s *Session) SwapLanguages(ctx context.Context) {
	ctx, span := tracer.Start(ctx, "swap languages")
	defer span.End()

	s.mu.Lock()
	ch, generation, ok := s.connectedLocked(span)
	if !ok {
		return
	}
	s.mu.Unlock()

	s.emit(ctx, span, ch, generation, protocol.EventSwapLanguages, protocol.SwapLanguages{}, false)
}

// ChangeLanguages asks the backend for a new language configuration. The
// local configuration changes on confirmation only.
func (s *Session) ChangeLanguages(ctx context.Context, selection LanguageSelection) {
	ctx, span := tracer.Start(ctx, "change languages")
	defer span.End()

	s.mu.Lock()
	ch, generation, ok := s.connectedLocked(span)
	if !ok {
		return
	}
	s.requested = selection
	payload := protocol.ChangeLanguages{LanguageFields: s.wireLanguages(selection)}
	s.mu.Unlock()

	s.emit(ctx, span, ch, generation, protocol.EventChangeLanguages, payload, false)
}

// ClearMessages empties the message history and resets turn tracking. The
// connection and the session phase are left alone.
func (s *Session) ClearMessages() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.Messages = nil
	s.state.TurnCount = 0
	s.state.CurrentSpeaker = SpeakerA
	s.partial = -1
}

// connectedLocked returns the channel if the session is connected and
// authenticated. Otherwise it records NOT_CONNECTED, releases the lock and
// delivers the error.
func (s *Session) connectedLocked(span trace.Span) (channel.Channel, uint64, bool) {
	if s.state.IsConnected() && s.channel != nil {
		return s.channel, s.generation, true
	}

	var notify notifications
	err := newError(CodeNotConnected, ErrNotConnected.Message, nil)
	s.recordLocked(err, &notify)
	phase := s.state.ConnectionPhase
	s.mu.Unlock()

	span.SetStatus(codes.Error, err.Error())
	logger.Debug("command issued while not connected", "phase", phase.String())
	notify.deliver()
	return nil, 0, false
}

// beginSendLocked validates a send and applies the optimistic processing
// state. On failure the lock is released.
func (s *Session) beginSendLocked(span trace.Span, speaker Speaker) (channel.Channel, uint64, Speaker, bool) {
	ch, generation, ok := s.connectedLocked(span)
	if !ok {
		return nil, 0, "", false
	}
	if s.state.SessionPhase != Active {
		s.mu.Unlock()
		logger.Debug("ignored input, no active session")
		return nil, 0, "", false
	}

	speaker = s.speakerOrDefault(speaker)
	if s.mode.isTurnBased() {
		if s.state.IsProcessing {
			s.mu.Unlock()
			logger.Debug("ignored input, a turn is already in flight", "speaker", speaker)
			return nil, 0, "", false
		}
		s.state.CurrentSpeaker = speaker
	}
	s.state.IsProcessing = true
	span.SetAttributes(attribute.String("speaker", string(speaker)))

	return ch, generation, speaker, true
}

// emit sends a command outside the lock. A failed write is recorded as a
// connection error and, for sends, rolls back the optimistic processing
// state.
func (s *Session) emit(ctx context.Context, span trace.Span, ch channel.Channel, generation uint64, event string, payload any, rollback bool) {
	err := ch.Emit(ctx, event, payload)
	if err == nil {
		return
	}

	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	logger.Warn("failed to send command", "event", event, "error", err)

	s.mu.Lock()
	if s.generation != generation {
		s.mu.Unlock()
		return
	}
	var notify notifications
	if rollback {
		s.state.IsProcessing = false
	}
	s.recordLocked(newError(CodeConnectionError, err.Error(), err), &notify)
	s.mu.Unlock()

	notify.deliver()
}

// wireLanguages fills in the language fields the session mode needs. Either
// naming may be used by callers.
func (s *Session) wireLanguages(selection LanguageSelection) protocol.LanguageFields {
	var fields protocol.LanguageFields
	if err := copier.Copy(&fields, &selection); err != nil {
		logger.Warn("failed to copy language selection", "error", err)
	}

	if s.mode.isTurnBased() {
		fields.LangA = firstNonEmpty(fields.LangA, fields.SourceLang)
		fields.LangB = firstNonEmpty(fields.LangB, fields.TargetLang)
		fields.SourceLang, fields.TargetLang = "", ""
	} else {
		fields.SourceLang = firstNonEmpty(fields.SourceLang, fields.LangA)
		fields.TargetLang = firstNonEmpty(fields.TargetLang, fields.LangB)
		fields.LangA, fields.LangB = "", ""
	}
	return fields
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
