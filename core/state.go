package translation

import (
	"bytes"
	"time"

	"github.com/koscakluka/ema-translate/core/audio"
	"github.com/koscakluka/ema-translate/core/languages"
	"github.com/koscakluka/ema-translate/core/protocol"
	"github.com/koscakluka/ema-translate/internal/utils"
)

type Speaker = protocol.Speaker

const (
	SpeakerA = protocol.SpeakerA
	SpeakerB = protocol.SpeakerB
)

type ConnectionPhase int

const (
	Disconnected ConnectionPhase = iota
	Connecting
	Connected
)

func (p ConnectionPhase) String() string {
	switch p {
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	default:
		return "disconnected"
	}
}

type SessionPhase int

const (
	Idle SessionPhase = iota
	Active
	// Ended follows a server confirmed session end. It behaves like Idle.
	Ended
)

func (p SessionPhase) String() string {
	switch p {
	case Active:
		return "active"
	case Ended:
		return "ended"
	default:
		return "idle"
	}
}

// LanguageConfig is the language pair of a session. In conversation mode A
// and B are the speakers' languages, in the streaming modes A is the source
// and B the target.
type LanguageConfig struct {
	A languages.Language
	B languages.Language
}

func (c LanguageConfig) Source() languages.Language { return c.A }
func (c LanguageConfig) Target() languages.Language { return c.B }

func (c LanguageConfig) IsZero() bool { return c.A.IsZero() && c.B.IsZero() }

// For returns the language spoken by speaker.
func (c LanguageConfig) For(speaker Speaker) languages.Language {
	if speaker == SpeakerB {
		return c.B
	}
	return c.A
}

// LanguageSelection is what a caller asks for when starting a session or
// changing languages. LangA/LangB and SourceLang/TargetLang are
// interchangeable, the session fills in whichever its mode needs.
type LanguageSelection struct {
	LangA      string
	LangB      string
	SourceLang string
	TargetLang string
}

type SessionInfo struct {
	ID        string
	StartedAt time.Time
}

type MessageKind int

const (
	Original MessageKind = iota
	Translated
)

func (k MessageKind) String() string {
	if k == Translated {
		return "translated"
	}
	return "original"
}

type Message struct {
	ID           string
	Speaker      Speaker
	Kind         MessageKind
	Text         string
	Language     string
	LanguageName string
	Flag         string
	Timestamp    time.Time
	// Audio is attached after creation, once synthesized audio arrives.
	Audio         []byte
	AudioEncoding audio.Encoding

	// Partial is set while a live transcription may still change.
	Partial     bool
	UtteranceID string
}

func (m Message) HasAudio() bool { return len(m.Audio) > 0 }

// AudioResponse is delivered to observers for every synthesized audio
// payload. MessageID is empty when no translation was waiting for audio.
type AudioResponse struct {
	MessageID  string
	ForSpeaker Speaker
	Encoding   audio.Encoding
	Audio      []byte
}

type TurnComplete struct {
	CompletedSpeaker Speaker
	NextSpeaker      Speaker
	TurnNumber       int
}

// State is a point-in-time copy of a session. Mutating it has no effect on
// the session.
type State struct {
	Mode            Mode
	ConnectionPhase ConnectionPhase
	Authenticated   bool
	SessionPhase    SessionPhase
	Languages       LanguageConfig
	CurrentSpeaker  Speaker
	IsProcessing    bool
	TurnCount       int
	Messages        []Message
	SessionInfo     *SessionInfo
	Error           *Error
}

// IsConnected reports an authenticated, open connection.
func (s State) IsConnected() bool {
	return s.ConnectionPhase == Connected && s.Authenticated
}

func (s State) IsSessionActive() bool { return s.SessionPhase == Active }

func (s State) clone() State {
	snapshot := s
	snapshot.Messages = make([]Message, len(s.Messages))
	for i, message := range s.Messages {
		message.Audio = bytes.Clone(message.Audio)
		snapshot.Messages[i] = message
	}
	if s.SessionInfo != nil {
		snapshot.SessionInfo = utils.Ptr(*s.SessionInfo)
	}
	if s.Error != nil {
		snapshot.Error = utils.Ptr(*s.Error)
	}
	return snapshot
}
