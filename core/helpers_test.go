package translation

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/koscakluka/ema-translate/core/channel/channeltest"
)

var fixedNow = time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)

type recordingObserver struct {
	mu sync.Mutex

	transcriptions []Message
	partials       []Message
	translations   []Message
	audio          []AudioResponse
	turns          []TurnComplete
	errors         []*Error
}

func (o *recordingObserver) OnTranscription(m Message) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.transcriptions = append(o.transcriptions, m)
}

func (o *recordingObserver) OnPartialTranscription(m Message) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.partials = append(o.partials, m)
}

func (o *recordingObserver) OnTranslation(m Message) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.translations = append(o.translations, m)
}

func (o *recordingObserver) OnAudioResponse(a AudioResponse) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.audio = append(o.audio, a)
}

func (o *recordingObserver) OnTurnComplete(turn TurnComplete) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.turns = append(o.turns, turn)
}

func (o *recordingObserver) OnError(err *Error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.errors = append(o.errors, err)
}

func (o *recordingObserver) errorCodes() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	codes := make([]string, 0, len(o.errors))
	for _, err := range o.errors {
		codes = append(codes, err.Code)
	}
	return codes
}

// newTestSession builds a session over an in-memory dialer. Options are
// applied after the defaults.
func newTestSession(t *testing.T, mode Mode, opts ...Option) (*Session, *channeltest.Dialer, *recordingObserver) {
	t.Helper()

	dialer := channeltest.NewDialer()
	observer := &recordingObserver{}
	defaults := []Option{
		WithMode(mode),
		WithDialer(dialer),
		WithObserver(observer),
		WithClock(func() time.Time { return fixedNow }),
	}
	return New(append(defaults, opts...)...), dialer, observer
}

// connect dials and completes the handshake.
func connect(t *testing.T, s *Session, dialer *channeltest.Dialer) *channeltest.Channel {
	t.Helper()

	if err := s.Connect(context.Background()); err != nil {
		t.Fatalf("connect failed: %v", err)
	}
	ch := dialer.Last()
	if ch == nil {
		t.Fatalf("expected a dialed channel")
	}
	if err := ch.Handshake(); err != nil {
		t.Fatalf("handshake failed: %v", err)
	}
	if !s.Snapshot().IsConnected() {
		t.Fatalf("expected session to be connected after handshake")
	}
	return ch
}

// startActiveSession connects and confirms a session for en/ja.
func startActiveSession(t *testing.T, s *Session, dialer *channeltest.Dialer) *channeltest.Channel {
	t.Helper()

	ch := connect(t, s, dialer)
	deliver(t, ch, "session_started", map[string]any{"sessionId": "s_1", "langA": "en", "langB": "ja"})
	if !s.Snapshot().IsSessionActive() {
		t.Fatalf("expected active session")
	}
	return ch
}

func deliver(t *testing.T, ch *channeltest.Channel, event string, payload any) {
	t.Helper()
	if err := ch.Deliver(event, payload); err != nil {
		t.Fatalf("failed to deliver %s: %v", event, err)
	}
}

func decodePayload[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var payload T
	if err := json.Unmarshal(raw, &payload); err != nil {
		t.Fatalf("failed to decode payload %s: %v", raw, err)
	}
	return payload
}
