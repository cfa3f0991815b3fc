package translation

import (
	"bytes"
	"context"

	"github.com/koscakluka/ema-translate/core/audio"
	"github.com/koscakluka/ema-translate/core/channel"
	"github.com/koscakluka/ema-translate/core/events"
	"github.com/koscakluka/ema-translate/core/languages"
	"github.com/koscakluka/ema-translate/core/protocol"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

func (s *Session) dispatch(generation uint64, event events.Event) {
	s.mu.Lock()
	if generation != s.generation {
		s.mu.Unlock()
		logger.Debug("ignored event from superseded channel", "kind", event.Kind())
		return
	}

	var notify notifications
	closing := s.applyLocked(event, &notify)
	s.mu.Unlock()

	eventsDispatched.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String("kind", string(event.Kind()))))

	if closing != nil {
		if err := closing.Close(); err != nil {
			logger.Warn("failed to close channel", "error", err)
		}
	}
	notify.deliver()
}

// applyLocked performs the state transition for a single event. A returned
// channel must be closed once the lock is released.
func (s *Session) applyLocked(event events.Event, notify *notifications) channel.Channel {
	switch e := event.(type) {
	case events.TransportConnected:
		s.state.ConnectionPhase = Connected
		s.state.Authenticated = false
		s.state.SessionPhase = Idle
		s.state.IsProcessing = false

	case events.Connected:
		s.state.ConnectionPhase = Connected
		s.state.Authenticated = true
		s.state.Error = nil

	case events.Disconnected:
		logger.Info("translation channel disconnected", "reason", e.Reason)
		s.state.ConnectionPhase = Disconnected
		s.state.Authenticated = false
		s.state.SessionPhase = Idle
		s.state.IsProcessing = false
		s.state.SessionInfo = nil
		s.partial = -1

	case events.ConnectError:
		if e.Unauthorized {
			logger.Error("translation channel credentials rejected", "attempt", e.Attempt, "message", e.Message)
			ch := s.channel
			s.channel = nil
			s.generation++
			s.resetLocked()
			s.recordLocked(newError(CodeAuthRequired, e.Message, nil), notify)
			return ch
		}
		s.recordLocked(newError(CodeConnectionError, e.Message, nil), notify)
		if !e.WillRetry {
			logger.Error("translation channel gave up reconnecting", "attempts", e.Attempt)
			ch := s.channel
			s.channel = nil
			s.generation++
			s.state.ConnectionPhase = Disconnected
			s.state.Authenticated = false
			return ch
		}

	case events.ServerError:
		err := &Error{Code: e.Code, Message: e.Message, Speaker: e.Speaker}
		if err.IsFatal() {
			logger.Error("fatal translation error", "code", e.Code, "message", e.Message)
			ch := s.channel
			s.channel = nil
			s.generation++
			s.resetLocked()
			s.recordLocked(err, notify)
			return ch
		}
		logger.Warn("translation error", "code", e.Code, "message", e.Message, "speaker", e.Speaker)
		s.state.IsProcessing = false
		s.recordLocked(err, notify)

	case events.SessionStarted:
		s.state.SessionPhase = Active
		s.state.TurnCount = 0
		s.state.IsProcessing = false
		s.state.SessionInfo = &SessionInfo{ID: e.SessionID, StartedAt: s.now()}
		s.installLanguagesLocked(e.Languages)

	case events.SessionEnded:
		if s.state.SessionPhase == Active {
			s.state.SessionPhase = Ended
		}
		s.state.IsProcessing = false
		s.partial = -1

	case events.LanguagesUpdated:
		s.installLanguagesLocked(e.Languages)

	case events.LanguagesChanged:
		s.installLanguagesLocked(e.Languages)

	case events.Processing:
		s.state.IsProcessing = true

	case events.PartialTranscription:
		if !s.mode.hasPartials() {
			logger.Debug("ignored partial transcription outside live mode")
			return nil
		}
		message := s.updatePartialLocked(e.Transcript)
		observer := s.observer
		notify.add(func() { observer.OnPartialTranscription(message) })

	case events.Transcription:
		message := s.finalizeTranscriptLocked(e.Transcript)
		observer := s.observer
		notify.add(func() { observer.OnTranscription(message) })

	case events.Translation:
		if !s.mode.isTurnBased() {
			s.state.IsProcessing = false
		}
		message := s.appendTranslationLocked(e)
		observer := s.observer
		notify.add(func() { observer.OnTranslation(message) })

	case events.AudioResponse:
		if len(e.Audio) == 0 {
			logger.Warn("dropped empty audio response", "for_speaker", e.ForSpeaker)
			return nil
		}
		response := AudioResponse{ForSpeaker: e.ForSpeaker, Encoding: audio.ParseEncoding(e.Format), Audio: e.Audio}
		if i, ok := correlate(s.state.Messages); ok {
			s.state.Messages[i].Audio = bytes.Clone(e.Audio)
			s.state.Messages[i].AudioEncoding = response.Encoding
			response.MessageID = s.state.Messages[i].ID
		} else {
			audioDropped.Add(context.Background(), 1)
			logger.Warn("no translation waiting for audio, dropped audio response", "for_speaker", e.ForSpeaker)
		}
		observer := s.observer
		notify.add(func() { observer.OnAudioResponse(response) })

	case events.TurnComplete:
		if !s.mode.isTurnBased() {
			logger.Debug("ignored turn_complete outside conversation mode")
			return nil
		}
		next := e.NextSpeaker
		if !next.IsValid() {
			next = e.CompletedSpeaker.Other()
		}
		s.state.IsProcessing = false
		s.state.CurrentSpeaker = next
		s.state.TurnCount = e.TurnNumber

		turn := TurnComplete{CompletedSpeaker: e.CompletedSpeaker, NextSpeaker: next, TurnNumber: e.TurnNumber}
		observer := s.observer
		notify.add(func() { observer.OnTurnComplete(turn) })

	default:
		logger.Warn("unhandled event", "kind", event.Kind())
	}

	return nil
}

// installLanguagesLocked replaces the language configuration as a whole.
// Metadata without any codes falls back to what was last requested.
func (s *Session) installLanguagesLocked(metadata protocol.LanguageMetadata) {
	config := languageConfig(s.mode, metadata)
	if config.IsZero() {
		config = languageConfig(s.mode, protocol.LanguageMetadata{LanguageFields: s.wireLanguages(s.requested)})
	}
	if config.IsZero() {
		logger.Warn("language update without languages, keeping configuration")
		return
	}
	s.state.Languages = config
}

func languageConfig(mode Mode, m protocol.LanguageMetadata) LanguageConfig {
	pair := LanguageConfig{
		A: languages.Resolve(m.LangA, m.LangAName, m.LangAFlag),
		B: languages.Resolve(m.LangB, m.LangBName, m.LangBFlag),
	}
	direction := LanguageConfig{
		A: languages.Resolve(m.SourceLang, m.SourceLangName, m.SourceFlag),
		B: languages.Resolve(m.TargetLang, m.TargetLangName, m.TargetFlag),
	}

	if mode.isTurnBased() {
		if pair.IsZero() {
			return direction
		}
		return pair
	}
	if direction.IsZero() {
		return pair
	}
	return direction
}
