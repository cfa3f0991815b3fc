// Package protocol defines the named events exchanged with the translation
// backend and the JSON payloads they carry.
//
// Outbound (client → server) events are commands:
//
//   - start_session: open a backend session for a language configuration.
//   - stop_session: end the backend session.
//   - audio_chunk: base64 encoded audio, optionally tagged with a speaker.
//   - text_input: typed text, optionally tagged with a speaker.
//   - swap_languages: swap the A/B language assignment.
//   - change_languages: replace the language configuration.
//
// Inbound (server → client) events report progress. The session protocol
// guarantees that, within a turn, the translation text is emitted before the
// synthesized audio for it.
package protocol

// Speaker identifies one of the two participants of a conversation.
type Speaker string

const (
	SpeakerA Speaker = "A"
	SpeakerB Speaker = "B"
)

func (s Speaker) IsValid() bool { return s == SpeakerA || s == SpeakerB }

// Other returns the opposite participant. Unknown speakers map to A.
func (s Speaker) Other() Speaker {
	if s == SpeakerA {
		return SpeakerB
	}
	return SpeakerA
}

// Outbound command names.
const (
	EventStartSession    = "start_session"
	EventStopSession     = "stop_session"
	EventAudioChunk      = "audio_chunk"
	EventTextInput       = "text_input"
	EventSwapLanguages   = "swap_languages"
	EventChangeLanguages = "change_languages"
)

// Inbound event names.
const (
	EventConnected            = "connected"
	EventError                = "error"
	EventSessionStarted       = "session_started"
	EventSessionEnded         = "session_ended"
	EventProcessing           = "processing"
	EventTranscription        = "transcription"
	EventPartialTranscription = "partial_transcription"
	EventTranslation          = "translation"
	EventAudioResponse        = "audio_response"
	EventTurnComplete         = "turn_complete"
	EventLanguagesUpdated     = "languages_updated"
	EventLanguagesChanged     = "languages_changed"
)

// Error codes reported in error events. Any other code is treated as a
// generic, non-fatal server error.
const (
	CodePremiumRequired = "PREMIUM_REQUIRED"
	CodeAuthRequired    = "AUTH_REQUIRED"
	CodeConnectionError = "CONNECTION_ERROR"
	CodeNotConnected    = "NOT_CONNECTED"
)
