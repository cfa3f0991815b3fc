package translation

import "fmt"

// Mode selects which of the session shapes a [Session] runs.
type Mode string

const (
	// ModeStreaming translates a single speaker from a source into a target
	// language. There are no turns.
	ModeStreaming Mode = "streaming"
	// ModeConversation alternates two speakers, A and B. The backend decides
	// whose turn is next.
	ModeConversation Mode = "conversation"
	// ModeLive is streaming with interim transcriptions that are superseded
	// by the final one.
	ModeLive Mode = "live"
)

func ParseMode(s string) (Mode, error) {
	switch mode := Mode(s); mode {
	case ModeStreaming, ModeConversation, ModeLive:
		return mode, nil
	}
	return "", fmt.Errorf("unknown mode %q", s)
}

func (m Mode) namespace() string {
	switch m {
	case ModeConversation:
		return "/conversation"
	case ModeLive:
		return "/live"
	default:
		return "/translate"
	}
}

func (m Mode) isTurnBased() bool { return m == ModeConversation }

func (m Mode) hasPartials() bool { return m == ModeLive }
