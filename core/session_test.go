package translation

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"slices"
	"testing"
	"time"

	"github.com/koscakluka/ema-translate/core/audio"
	"github.com/koscakluka/ema-translate/core/channel"
	"github.com/koscakluka/ema-translate/core/channel/channeltest"
	"github.com/koscakluka/ema-translate/core/entitlement"
	"github.com/koscakluka/ema-translate/core/protocol"
)

func TestCommandsWhileDisconnectedDoNotEmit(t *testing.T) {
	s, dialer, observer := newTestSession(t, ModeConversation)
	ctx := context.Background()

	before := s.Snapshot()

	s.SendAudio(ctx, []byte{1, 2, 3}, SpeakerA)
	s.SendText(ctx, "hello", SpeakerB)
	s.StartSession(ctx, LanguageSelection{LangA: "en", LangB: "ja"})

	if dialer.Last() != nil {
		t.Fatalf("expected no channel to be opened")
	}

	after := s.Snapshot()
	if after.Error == nil || !errors.Is(after.Error, ErrNotConnected) {
		t.Fatalf("expected NOT_CONNECTED error, got %v", after.Error)
	}
	after.Error = nil
	if after.ConnectionPhase != before.ConnectionPhase || after.SessionPhase != before.SessionPhase ||
		after.IsProcessing != before.IsProcessing || after.CurrentSpeaker != before.CurrentSpeaker ||
		len(after.Messages) != 0 {
		t.Fatalf("expected state to be unchanged, before %+v after %+v", before, after)
	}

	if got := observer.errorCodes(); !slices.Equal(got, []string{CodeNotConnected, CodeNotConnected, CodeNotConnected}) {
		t.Fatalf("expected three NOT_CONNECTED errors, got %v", got)
	}
}

func TestCommandsBeforeHandshakeDoNotEmit(t *testing.T) {
	s, dialer, _ := newTestSession(t, ModeConversation)
	ctx := context.Background()

	if err := s.Connect(ctx); err != nil {
		t.Fatalf("connect failed: %v", err)
	}
	ch := dialer.Last()
	deliver(t, ch, channel.EventConnect, nil)

	if state := s.Snapshot(); state.ConnectionPhase != Connected || state.IsConnected() {
		t.Fatalf("expected unauthenticated connection, got %+v", state)
	}

	s.StartSession(ctx, LanguageSelection{LangA: "en", LangB: "ja"})
	s.SwapLanguages(ctx)
	s.SendText(ctx, "hello", SpeakerA)

	if got := ch.EmittedEvents(); len(got) != 0 {
		t.Fatalf("expected nothing to be emitted before authentication, got %v", got)
	}
}

func TestSendWithoutActiveSessionIsNoop(t *testing.T) {
	s, dialer, observer := newTestSession(t, ModeConversation)
	ch := connect(t, s, dialer)

	s.SendAudio(context.Background(), []byte{1}, SpeakerA)
	s.SendText(context.Background(), "hello", SpeakerA)

	if got := ch.EmittedEvents(); len(got) != 0 {
		t.Fatalf("expected nothing to be emitted without an active session, got %v", got)
	}
	if state := s.Snapshot(); state.IsProcessing || state.Error != nil {
		t.Fatalf("expected untouched state, got %+v", state)
	}
	if got := observer.errorCodes(); len(got) != 0 {
		t.Fatalf("expected no errors, got %v", got)
	}
}

func TestSecondSendWhileProcessingIsIgnored(t *testing.T) {
	s, dialer, _ := newTestSession(t, ModeConversation)
	ch := startActiveSession(t, s, dialer)
	ctx := context.Background()

	s.SendAudio(ctx, []byte("first"), SpeakerA)
	state := s.Snapshot()
	if !state.IsProcessing || state.CurrentSpeaker != SpeakerA {
		t.Fatalf("expected processing for speaker A, got %+v", state)
	}

	s.SendText(ctx, "second", SpeakerB)
	s.SendAudio(ctx, []byte("third"), SpeakerB)

	state = s.Snapshot()
	if !state.IsProcessing || state.CurrentSpeaker != SpeakerA {
		t.Fatalf("expected in-flight turn to stay with speaker A, got %+v", state)
	}
	if got := ch.EmittedEvents(); !slices.Equal(got, []string{protocol.EventAudioChunk}) {
		t.Fatalf("expected a single audio chunk, got %v", got)
	}
}

func TestTurnCompleteIsAuthoritative(t *testing.T) {
	testCases := []struct {
		name  string
		setup func(s *Session)
	}{
		{name: "idle", setup: func(*Session) {}},
		{name: "processing for A", setup: func(s *Session) { s.SendText(context.Background(), "hi", SpeakerA) }},
		{name: "processing for B", setup: func(s *Session) { s.SendText(context.Background(), "hi", SpeakerB) }},
		{name: "after many turns", setup: func(s *Session) {
			s.mu.Lock()
			s.state.TurnCount = 42
			s.state.CurrentSpeaker = SpeakerB
			s.mu.Unlock()
		}},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			s, dialer, observer := newTestSession(t, ModeConversation)
			ch := startActiveSession(t, s, dialer)
			testCase.setup(s)

			deliver(t, ch, "turn_complete", map[string]any{"completedSpeaker": "A", "nextSpeaker": "B", "turnNumber": 7})

			state := s.Snapshot()
			if state.CurrentSpeaker != SpeakerB || state.TurnCount != 7 || state.IsProcessing {
				t.Fatalf("expected speaker B, turn 7, not processing; got %+v", state)
			}
			if len(observer.turns) != 1 || observer.turns[0].NextSpeaker != SpeakerB {
				t.Fatalf("expected turn complete notification, got %+v", observer.turns)
			}
		})
	}
}

func TestAudioAttachesToLastUnmatchedTranslation(t *testing.T) {
	s, dialer, observer := newTestSession(t, ModeConversation)
	ch := startActiveSession(t, s, dialer)

	deliver(t, ch, "translation", map[string]any{"speaker": "A", "translatedText": "T1"})
	deliver(t, ch, "translation", map[string]any{"speaker": "A", "translatedText": "T2"})

	audio := func(b byte) map[string]any {
		return map[string]any{"audio": base64.StdEncoding.EncodeToString([]byte{b}), "forSpeaker": "B"}
	}

	deliver(t, ch, "audio_response", audio(1))
	messages := s.Snapshot().Messages
	if string(messages[1].Audio) != "\x01" || messages[0].HasAudio() {
		t.Fatalf("expected first audio on T2 only, got %+v", messages)
	}

	deliver(t, ch, "audio_response", audio(2))
	messages = s.Snapshot().Messages
	if string(messages[0].Audio) != "\x02" || string(messages[1].Audio) != "\x01" {
		t.Fatalf("expected second audio on T1, got %+v", messages)
	}

	deliver(t, ch, "audio_response", audio(3))
	state := s.Snapshot()
	if len(state.Messages) != 2 || string(state.Messages[0].Audio) != "\x02" || string(state.Messages[1].Audio) != "\x01" {
		t.Fatalf("expected third audio to be dropped, got %+v", state.Messages)
	}
	if state.Error != nil || len(observer.errors) != 0 {
		t.Fatalf("expected dropped audio not to be an error, got %v", state.Error)
	}

	if len(observer.audio) != 3 {
		t.Fatalf("expected three audio notifications, got %d", len(observer.audio))
	}
	if observer.audio[0].MessageID != messages[1].ID || observer.audio[1].MessageID != messages[0].ID {
		t.Fatalf("expected audio notifications to name their messages, got %+v", observer.audio)
	}
	if observer.audio[2].MessageID != "" {
		t.Fatalf("expected unmatched audio without message id, got %q", observer.audio[2].MessageID)
	}
}

func TestAudioNotificationDoesNotAliasHistory(t *testing.T) {
	s, dialer, observer := newTestSession(t, ModeConversation)
	ch := startActiveSession(t, s, dialer)

	deliver(t, ch, "translation", map[string]any{"speaker": "A", "translatedText": "T1"})
	deliver(t, ch, "audio_response", map[string]any{"audio": base64.StdEncoding.EncodeToString([]byte{1, 2, 3})})

	if len(observer.audio) != 1 {
		t.Fatalf("expected one audio notification, got %d", len(observer.audio))
	}
	observer.audio[0].Audio[0] = 9

	if got := s.Snapshot().Messages[0].Audio; !bytes.Equal(got, []byte{1, 2, 3}) {
		t.Fatalf("expected stored audio to be unaffected by the observer, got %v", got)
	}
}

func TestEmptyAudioResponseIsDropped(t *testing.T) {
	s, dialer, observer := newTestSession(t, ModeConversation)
	ch := startActiveSession(t, s, dialer)

	deliver(t, ch, "translation", map[string]any{"speaker": "A", "translatedText": "T1"})
	deliver(t, ch, "audio_response", map[string]any{"audio": "", "forSpeaker": "B"})
	deliver(t, ch, "audio_response", map[string]any{"audio": "%%%", "forSpeaker": "B"})

	if s.Snapshot().Messages[0].HasAudio() {
		t.Fatalf("expected no audio to be attached")
	}
	if len(observer.audio) != 0 || len(observer.errors) != 0 {
		t.Fatalf("expected no notifications, got audio %d errors %d", len(observer.audio), len(observer.errors))
	}
}

func TestFatalErrorResetsSession(t *testing.T) {
	setups := []struct {
		name  string
		setup func(t *testing.T, s *Session, ch *channeltest.Channel)
	}{
		{name: "unauthenticated", setup: func(t *testing.T, s *Session, ch *channeltest.Channel) {
			deliver(t, ch, channel.EventConnect, nil)
		}},
		{name: "connected", setup: func(t *testing.T, s *Session, ch *channeltest.Channel) {
			if err := ch.Handshake(); err != nil {
				t.Fatalf("handshake failed: %v", err)
			}
		}},
		{name: "active and processing", setup: func(t *testing.T, s *Session, ch *channeltest.Channel) {
			if err := ch.Handshake(); err != nil {
				t.Fatalf("handshake failed: %v", err)
			}
			deliver(t, ch, "session_started", map[string]any{"langA": "en", "langB": "ja"})
			s.SendText(context.Background(), "hello", SpeakerB)
			deliver(t, ch, "transcription", map[string]any{"speaker": "B", "text": "hello"})
		}},
	}

	for _, code := range []string{CodeAuthRequired, CodePremiumRequired} {
		for _, setup := range setups {
			t.Run(fmt.Sprintf("%s/%s", code, setup.name), func(t *testing.T) {
				s, dialer, observer := newTestSession(t, ModeConversation)
				if err := s.Connect(context.Background()); err != nil {
					t.Fatalf("connect failed: %v", err)
				}
				ch := dialer.Last()
				setup.setup(t, s, ch)

				deliver(t, ch, "error", map[string]any{"code": code, "message": "nope"})

				state := s.Snapshot()
				if state.ConnectionPhase != Disconnected || state.SessionPhase != Idle {
					t.Fatalf("expected disconnected and idle, got %s/%s", state.ConnectionPhase, state.SessionPhase)
				}
				if state.IsProcessing || len(state.Messages) != 0 || !state.Languages.IsZero() || state.CurrentSpeaker != SpeakerA {
					t.Fatalf("expected all session state to be cleared, got %+v", state)
				}
				if state.Error == nil || state.Error.Code != code {
					t.Fatalf("expected %s to be recorded, got %v", code, state.Error)
				}
				if !ch.Closed() {
					t.Fatalf("expected channel to be closed")
				}
				if got := observer.errorCodes(); !slices.Equal(got, []string{code}) {
					t.Fatalf("expected %s to be reported, got %v", code, got)
				}
			})
		}
	}
}

func TestNonFatalServerErrorReleasesProcessing(t *testing.T) {
	s, dialer, observer := newTestSession(t, ModeConversation)
	ch := startActiveSession(t, s, dialer)

	s.SendText(context.Background(), "hello", SpeakerA)
	deliver(t, ch, "error", map[string]any{"code": "TRANSLATION_FAILED", "message": "engine busy", "speaker": "A"})

	state := s.Snapshot()
	if state.IsProcessing {
		t.Fatalf("expected processing to be released for retry")
	}
	if !state.IsConnected() || !state.IsSessionActive() {
		t.Fatalf("expected session to survive a non-fatal error, got %+v", state)
	}
	if state.Error == nil || state.Error.Code != "TRANSLATION_FAILED" || state.Error.Speaker != SpeakerA {
		t.Fatalf("expected error to be recorded, got %v", state.Error)
	}
	if ch.Closed() {
		t.Fatalf("expected channel to stay open")
	}
	if got := observer.errorCodes(); !slices.Equal(got, []string{"TRANSLATION_FAILED"}) {
		t.Fatalf("expected error to be reported, got %v", got)
	}

	s.SendText(context.Background(), "hello again", SpeakerA)
	if got := ch.EmittedEvents(); !slices.Equal(got, []string{protocol.EventTextInput, protocol.EventTextInput}) {
		t.Fatalf("expected retry to be sent, got %v", got)
	}
}

func TestClearMessagesKeepsPhases(t *testing.T) {
	s, dialer, _ := newTestSession(t, ModeConversation)
	ch := startActiveSession(t, s, dialer)

	deliver(t, ch, "transcription", map[string]any{"speaker": "A", "text": "Hello"})
	deliver(t, ch, "turn_complete", map[string]any{"completedSpeaker": "A", "nextSpeaker": "B", "turnNumber": 3})

	before := s.Snapshot()
	s.ClearMessages()
	after := s.Snapshot()

	if after.ConnectionPhase != before.ConnectionPhase || after.SessionPhase != before.SessionPhase {
		t.Fatalf("expected phases to be unchanged, before %s/%s after %s/%s",
			before.ConnectionPhase, before.SessionPhase, after.ConnectionPhase, after.SessionPhase)
	}
	if len(after.Messages) != 0 || after.TurnCount != 0 || after.CurrentSpeaker != SpeakerA {
		t.Fatalf("expected cleared history, got %+v", after)
	}

	disconnected, _, _ := newTestSession(t, ModeConversation)
	disconnected.ClearMessages()
	if state := disconnected.Snapshot(); state.ConnectionPhase != Disconnected || state.SessionPhase != Idle {
		t.Fatalf("expected clear on a fresh session to leave it disconnected, got %+v", state)
	}
}

func TestConversationScenario(t *testing.T) {
	s, dialer, observer := newTestSession(t, ModeConversation, WithEntitlement(entitlement.Static(true)))
	ctx := context.Background()

	ch := connect(t, s, dialer)
	if ch.Namespace() != "/conversation" {
		t.Fatalf("expected conversation namespace, got %q", ch.Namespace())
	}

	deliver(t, ch, "session_started", map[string]any{"langA": "en", "langB": "ja"})
	state := s.Snapshot()
	if !state.IsSessionActive() || state.TurnCount != 0 {
		t.Fatalf("expected active session at turn 0, got %+v", state)
	}
	if state.Languages.A.Code != "en" || state.Languages.B.Name != "Japanese" {
		t.Fatalf("expected en/ja languages with catalog names, got %+v", state.Languages)
	}

	s.SendAudio(ctx, []byte("b64"), SpeakerA)
	state = s.Snapshot()
	if !state.IsProcessing || state.CurrentSpeaker != SpeakerA {
		t.Fatalf("expected processing for A, got %+v", state)
	}

	emitted := ch.Emitted()
	if len(emitted) != 1 || emitted[0].Event != protocol.EventAudioChunk {
		t.Fatalf("expected a single audio chunk, got %+v", emitted)
	}
	chunk := decodePayload[protocol.AudioChunk](t, emitted[0].Payload)
	if chunk.Speaker != SpeakerA || !chunk.IsFinal || chunk.Audio != base64.StdEncoding.EncodeToString([]byte("b64")) {
		t.Fatalf("unexpected audio chunk %+v", chunk)
	}

	deliver(t, ch, "transcription", map[string]any{"speaker": "A", "text": "Hello"})
	state = s.Snapshot()
	if len(state.Messages) != 1 || state.Messages[0].Kind != Original || state.Messages[0].Text != "Hello" {
		t.Fatalf("expected original message, got %+v", state.Messages)
	}
	if state.Messages[0].Language != "en" || state.Messages[0].Timestamp != fixedNow {
		t.Fatalf("expected original in speaker A's language, got %+v", state.Messages[0])
	}

	deliver(t, ch, "translation", map[string]any{"speaker": "A", "translatedText": "こんにちは"})
	state = s.Snapshot()
	if len(state.Messages) != 2 || state.Messages[1].Kind != Translated || state.Messages[1].HasAudio() {
		t.Fatalf("expected translated message without audio, got %+v", state.Messages)
	}
	if state.Messages[1].Language != "ja" || state.Messages[1].Text != "こんにちは" {
		t.Fatalf("expected translation in speaker B's language, got %+v", state.Messages[1])
	}

	deliver(t, ch, "audio_response", map[string]any{"audio": "AQID", "forSpeaker": "B", "format": "linear16/24000"})
	state = s.Snapshot()
	if len(state.Messages) != 2 || string(state.Messages[1].Audio) != "\x01\x02\x03" {
		t.Fatalf("expected audio on translated message, got %+v", state.Messages)
	}
	if state.Messages[1].AudioEncoding.Format != audio.FormatLinear16 || observer.audio[0].Encoding.SampleRate != 24000 {
		t.Fatalf("expected audio encoding to be parsed, got %+v", observer.audio[0].Encoding)
	}

	deliver(t, ch, "turn_complete", map[string]any{"completedSpeaker": "A", "nextSpeaker": "B", "turnNumber": 1})
	state = s.Snapshot()
	if state.CurrentSpeaker != SpeakerB || state.TurnCount != 1 || state.IsProcessing {
		t.Fatalf("expected B's turn after turn 1, got %+v", state)
	}

	if len(observer.transcriptions) != 1 || len(observer.translations) != 1 || len(observer.audio) != 1 || len(observer.turns) != 1 {
		t.Fatalf("expected one notification per event, got %+v", observer)
	}
	if state.Messages[0].ID == state.Messages[1].ID {
		t.Fatalf("expected unique message ids")
	}
}

func TestConnectWithoutPremiumFailsBeforeDialing(t *testing.T) {
	s, dialer, observer := newTestSession(t, ModeConversation, WithEntitlement(entitlement.Static(false)))

	err := s.Connect(context.Background())
	if !errors.Is(err, ErrPremiumRequired) {
		t.Fatalf("expected ErrPremiumRequired, got %v", err)
	}
	if dialer.Dials() != 0 {
		t.Fatalf("expected no dial attempt, got %d", dialer.Dials())
	}

	state := s.Snapshot()
	if state.ConnectionPhase != Disconnected || state.Error == nil || state.Error.Code != CodePremiumRequired {
		t.Fatalf("expected disconnected with PREMIUM_REQUIRED, got %+v", state)
	}
	if got := observer.errorCodes(); !slices.Equal(got, []string{CodePremiumRequired}) {
		t.Fatalf("expected PREMIUM_REQUIRED to be reported, got %v", got)
	}
}

type failingChecker struct{ err error }

func (c failingChecker) HasPremium(context.Context) (bool, error) { return false, c.err }

func TestConnectMapsFailures(t *testing.T) {
	testCases := []struct {
		name     string
		checker  entitlement.Checker
		dialErr  error
		expected *Error
	}{
		{name: "dial unauthorized", dialErr: fmt.Errorf("failed to open websocket: %w", channel.ErrUnauthorized), expected: ErrAuthRequired},
		{name: "dial refused", dialErr: errors.New("connection refused"), expected: ErrConnection},
		{name: "entitlement unauthorized", checker: failingChecker{fmt.Errorf("check: %w", entitlement.ErrUnauthorized)}, expected: ErrAuthRequired},
		{name: "entitlement unreachable", checker: failingChecker{errors.New("timeout")}, expected: ErrConnection},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			var opts []Option
			if testCase.checker != nil {
				opts = append(opts, WithEntitlement(testCase.checker))
			}
			s, dialer, _ := newTestSession(t, ModeStreaming, opts...)
			dialer.Err = testCase.dialErr

			err := s.Connect(context.Background())
			if !errors.Is(err, testCase.expected) {
				t.Fatalf("expected %v, got %v", testCase.expected, err)
			}
			if testCase.dialErr != nil && !errors.Is(err, testCase.dialErr) {
				t.Fatalf("expected dial error to be wrapped, got %v", err)
			}

			state := s.Snapshot()
			if state.ConnectionPhase != Disconnected || !errors.Is(state.Error, testCase.expected) {
				t.Fatalf("expected disconnected with %s, got %+v", testCase.expected.Code, state)
			}
		})
	}
}

func TestConnectIsNoopWhileConnected(t *testing.T) {
	s, dialer, _ := newTestSession(t, ModeConversation)
	connect(t, s, dialer)

	if err := s.Connect(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dialer.Dials() != 1 {
		t.Fatalf("expected a single dial, got %d", dialer.Dials())
	}
}

func TestRemoteDisconnectKeepsHistory(t *testing.T) {
	s, dialer, _ := newTestSession(t, ModeConversation)
	ch := startActiveSession(t, s, dialer)

	s.SendText(context.Background(), "hello", SpeakerA)
	deliver(t, ch, "transcription", map[string]any{"speaker": "A", "text": "hello"})
	deliver(t, ch, channel.EventDisconnect, map[string]any{"reason": channel.ReasonTransportClose})

	state := s.Snapshot()
	if state.ConnectionPhase != Disconnected || state.SessionPhase != Idle || state.IsProcessing {
		t.Fatalf("expected disconnected, idle, not processing; got %+v", state)
	}
	if len(state.Messages) != 1 || state.Languages.A.Code != "en" {
		t.Fatalf("expected messages and languages to survive a remote disconnect, got %+v", state)
	}

	// The channel reconnects on its own; the session must be started again.
	if err := ch.Handshake(); err != nil {
		t.Fatalf("handshake failed: %v", err)
	}
	state = s.Snapshot()
	if !state.IsConnected() || state.SessionPhase != Idle {
		t.Fatalf("expected reconnect to land idle, got %+v", state)
	}
}

func TestLocalDisconnectResetsEverything(t *testing.T) {
	s, dialer, _ := newTestSession(t, ModeConversation)
	ch := startActiveSession(t, s, dialer)

	deliver(t, ch, "transcription", map[string]any{"speaker": "A", "text": "hello"})
	deliver(t, ch, "error", map[string]any{"code": "TRANSLATION_FAILED", "message": "busy"})

	s.Disconnect(context.Background())

	if got := ch.EmittedEvents(); !slices.Equal(got, []string{protocol.EventStopSession}) {
		t.Fatalf("expected stop_session before closing, got %v", got)
	}
	if !ch.Closed() {
		t.Fatalf("expected channel to be closed")
	}

	state := s.Snapshot()
	if state.ConnectionPhase != Disconnected || state.SessionPhase != Idle || state.Error != nil {
		t.Fatalf("expected fresh state, got %+v", state)
	}
	if len(state.Messages) != 0 || !state.Languages.IsZero() || state.SessionInfo != nil {
		t.Fatalf("expected history and languages to be cleared, got %+v", state)
	}
}

func TestFramesFromClosedChannelAreIgnored(t *testing.T) {
	s, dialer, observer := newTestSession(t, ModeConversation)
	old := startActiveSession(t, s, dialer)

	s.Disconnect(context.Background())
	deliver(t, old, "transcription", map[string]any{"speaker": "A", "text": "late"})
	deliver(t, old, channel.EventConnect, nil)

	state := s.Snapshot()
	if state.ConnectionPhase != Disconnected || len(state.Messages) != 0 {
		t.Fatalf("expected late frames to be ignored, got %+v", state)
	}
	if len(observer.transcriptions) != 0 {
		t.Fatalf("expected no notifications from the closed channel")
	}

	current := connect(t, s, dialer)
	if current == old {
		t.Fatalf("expected a new channel")
	}
	deliver(t, old, "error", map[string]any{"code": CodeAuthRequired})
	if !s.Snapshot().IsConnected() || current.Closed() {
		t.Fatalf("expected the new channel to be unaffected by the old one")
	}
}

func TestConnectReplacesChannelGivingUp(t *testing.T) {
	s, dialer, observer := newTestSession(t, ModeConversation)
	ch := connect(t, s, dialer)

	deliver(t, ch, channel.EventDisconnect, map[string]any{"reason": channel.ReasonTransportError})
	deliver(t, ch, channel.EventConnectError, map[string]any{"message": "refused", "attempt": 1, "willRetry": true})
	if ch.Closed() {
		t.Fatalf("expected channel to keep retrying")
	}

	deliver(t, ch, channel.EventConnectError, map[string]any{"message": "refused", "attempt": 2, "willRetry": false})
	if !ch.Closed() {
		t.Fatalf("expected exhausted channel to be closed")
	}
	if got := observer.errorCodes(); !slices.Equal(got, []string{CodeConnectionError, CodeConnectionError}) {
		t.Fatalf("expected connection errors to be reported, got %v", got)
	}

	connect(t, s, dialer)
	if dialer.Dials() != 2 {
		t.Fatalf("expected a fresh dial, got %d", dialer.Dials())
	}
}

func TestRejectedReconnectClearsSession(t *testing.T) {
	s, dialer, observer := newTestSession(t, ModeConversation)
	ch := startActiveSession(t, s, dialer)
	deliver(t, ch, "transcription", map[string]any{"speaker": "A", "text": "hello"})

	deliver(t, ch, channel.EventDisconnect, map[string]any{"reason": channel.ReasonTransportError})
	deliver(t, ch, channel.EventConnectError, map[string]any{
		"message": "websocket dial failed (status 401)", "attempt": 1, "willRetry": false, "unauthorized": true,
	})

	state := s.Snapshot()
	if state.ConnectionPhase != Disconnected || state.SessionPhase != Idle {
		t.Fatalf("expected disconnected and idle, got %s/%s", state.ConnectionPhase, state.SessionPhase)
	}
	if len(state.Messages) != 0 || !state.Languages.IsZero() || state.SessionInfo != nil {
		t.Fatalf("expected session state to be cleared, got %+v", state)
	}
	if !errors.Is(state.Error, ErrAuthRequired) {
		t.Fatalf("expected AUTH_REQUIRED, got %v", state.Error)
	}
	if !ch.Closed() {
		t.Fatalf("expected channel to be closed")
	}
	if got := observer.errorCodes(); !slices.Equal(got, []string{CodeAuthRequired}) {
		t.Fatalf("expected AUTH_REQUIRED to be reported, got %v", got)
	}

	connect(t, s, dialer)
	if dialer.Dials() != 2 {
		t.Fatalf("expected a fresh dial, got %d", dialer.Dials())
	}
}

func TestConnectReturnsFatalErrorReceivedWhileDialing(t *testing.T) {
	s, dialer, _ := newTestSession(t, ModeConversation)
	dialer.OnDial = func(ch *channeltest.Channel) {
		deliver(t, ch, channel.EventConnect, nil)
		deliver(t, ch, "error", map[string]any{"code": CodePremiumRequired, "message": "upgrade"})
	}

	err := s.Connect(context.Background())
	if !errors.Is(err, ErrPremiumRequired) {
		t.Fatalf("expected PREMIUM_REQUIRED from connect, got %v", err)
	}

	state := s.Snapshot()
	if state.ConnectionPhase != Disconnected || !errors.Is(state.Error, ErrPremiumRequired) {
		t.Fatalf("expected disconnected with PREMIUM_REQUIRED, got %+v", state)
	}
	if !dialer.Last().Closed() {
		t.Fatalf("expected dialed channel to be closed")
	}
}

func TestConnectReturnsNilWhenDisconnectedWhileDialing(t *testing.T) {
	s, dialer, _ := newTestSession(t, ModeConversation)
	dialer.OnDial = func(*channeltest.Channel) { s.Disconnect(context.Background()) }

	if err := s.Connect(context.Background()); err != nil {
		t.Fatalf("expected no error after local disconnect, got %v", err)
	}
	if state := s.Snapshot(); state.ConnectionPhase != Disconnected || state.Error != nil {
		t.Fatalf("expected clean disconnected state, got %+v", state)
	}
}

func TestEmitFailureRollsBackProcessing(t *testing.T) {
	s, dialer, observer := newTestSession(t, ModeConversation)
	ch := startActiveSession(t, s, dialer)
	ch.EmitErr = errors.New("broken pipe")

	s.SendText(context.Background(), "hello", SpeakerB)

	state := s.Snapshot()
	if state.IsProcessing {
		t.Fatalf("expected processing to be rolled back")
	}
	if state.Error == nil || state.Error.Code != CodeConnectionError {
		t.Fatalf("expected CONNECTION_ERROR, got %v", state.Error)
	}
	if got := observer.errorCodes(); !slices.Equal(got, []string{CodeConnectionError}) {
		t.Fatalf("expected CONNECTION_ERROR to be reported, got %v", got)
	}
}

func TestStopSessionIsOptimistic(t *testing.T) {
	s, dialer, _ := newTestSession(t, ModeConversation)
	ch := startActiveSession(t, s, dialer)
	ctx := context.Background()

	s.SendText(ctx, "hello", SpeakerA)
	s.StopSession(ctx)

	state := s.Snapshot()
	if state.SessionPhase != Idle || state.IsProcessing {
		t.Fatalf("expected idle without processing, got %+v", state)
	}

	s.StopSession(ctx)
	if got := ch.EmittedEvents(); !slices.Equal(got, []string{protocol.EventTextInput, protocol.EventStopSession, protocol.EventStopSession}) {
		t.Fatalf("expected stop_session to be sent in any phase, got %v", got)
	}

	deliver(t, ch, "session_ended", map[string]any{"sessionId": "s_1"})
	if phase := s.Snapshot().SessionPhase; phase != Idle {
		t.Fatalf("expected confirmation to keep the session idle, got %s", phase)
	}
}

func TestSessionEndedFromServer(t *testing.T) {
	s, dialer, _ := newTestSession(t, ModeConversation)
	ch := startActiveSession(t, s, dialer)

	deliver(t, ch, "session_ended", nil)
	if phase := s.Snapshot().SessionPhase; phase != Ended {
		t.Fatalf("expected ended session, got %s", phase)
	}

	s.SendText(context.Background(), "hello", SpeakerA)
	if got := ch.EmittedEvents(); len(got) != 0 {
		t.Fatalf("expected no input to be sent to an ended session, got %v", got)
	}

	s.StartSession(context.Background(), LanguageSelection{LangA: "en", LangB: "ko"})
	if got := ch.EmittedEvents(); !slices.Equal(got, []string{protocol.EventStartSession}) {
		t.Fatalf("expected a new session to be requested, got %v", got)
	}
}

func TestLanguagesChangeOnlyOnConfirmation(t *testing.T) {
	s, dialer, _ := newTestSession(t, ModeConversation)
	ch := startActiveSession(t, s, dialer)
	ctx := context.Background()

	s.ChangeLanguages(ctx, LanguageSelection{LangA: "fr", LangB: "de"})
	s.SwapLanguages(ctx)

	if got := s.Snapshot().Languages; got.A.Code != "en" || got.B.Code != "ja" {
		t.Fatalf("expected languages to stay until confirmed, got %+v", got)
	}

	emitted := ch.Emitted()
	if len(emitted) != 2 || emitted[0].Event != protocol.EventChangeLanguages || emitted[1].Event != protocol.EventSwapLanguages {
		t.Fatalf("unexpected emitted frames %+v", emitted)
	}
	change := decodePayload[protocol.ChangeLanguages](t, emitted[0].Payload)
	if change.LangA != "fr" || change.LangB != "de" || change.SourceLang != "" {
		t.Fatalf("unexpected change_languages payload %+v", change)
	}

	deliver(t, ch, "languages_changed", map[string]any{"langA": "de", "langB": "fr", "langBFlag": "FR"})
	got := s.Snapshot().Languages
	if got.A.Code != "de" || got.A.Name != "German" || got.B.Code != "fr" || got.B.Flag != "FR" {
		t.Fatalf("expected confirmed languages to be installed whole, got %+v", got)
	}
}

func TestObserverMayCallCommandsDuringDispatch(t *testing.T) {
	dialer := channeltest.NewDialer()
	var s *Session
	observer := &callbackObserver{onTurnComplete: func(turn TurnComplete) {
		_ = s.Snapshot()
		s.SendText(context.Background(), "next", turn.NextSpeaker)
	}}
	s = New(WithDialer(dialer), WithObserver(observer))
	ch := startActiveSession(t, s, dialer)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = ch.Deliver("turn_complete", map[string]any{"completedSpeaker": "A", "nextSpeaker": "B", "turnNumber": 1})
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for dispatch, observer deadlocked")
	}

	state := s.Snapshot()
	if !state.IsProcessing || state.CurrentSpeaker != SpeakerB {
		t.Fatalf("expected observer's send to start B's turn, got %+v", state)
	}
	if got := ch.EmittedEvents(); !slices.Equal(got, []string{protocol.EventTextInput}) {
		t.Fatalf("expected observer's text input to be sent, got %v", got)
	}
}

type callbackObserver struct {
	NopObserver
	onTurnComplete func(TurnComplete)
}

func (o *callbackObserver) OnTurnComplete(turn TurnComplete) { o.onTurnComplete(turn) }

func TestSnapshotIsIsolated(t *testing.T) {
	s, dialer, _ := newTestSession(t, ModeConversation)
	ch := startActiveSession(t, s, dialer)

	deliver(t, ch, "translation", map[string]any{"speaker": "A", "translatedText": "hi"})
	deliver(t, ch, "audio_response", map[string]any{"audio": "AQID"})

	snapshot := s.Snapshot()
	snapshot.Messages[0].Text = "changed"
	snapshot.Messages[0].Audio[0] = 9
	snapshot.SessionInfo.ID = "changed"

	state := s.Snapshot()
	if state.Messages[0].Text != "hi" || state.Messages[0].Audio[0] != 1 || state.SessionInfo.ID != "s_1" {
		t.Fatalf("expected snapshot mutation not to leak into the session, got %+v", state)
	}
}
