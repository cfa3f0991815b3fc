package events

import "github.com/koscakluka/ema-translate/core/protocol"

const (
	KindConnected        Kind = protocol.EventConnected
	KindServerError      Kind = protocol.EventError
	KindSessionStarted   Kind = protocol.EventSessionStarted
	KindSessionEnded     Kind = protocol.EventSessionEnded
	KindLanguagesUpdated Kind = protocol.EventLanguagesUpdated
	KindLanguagesChanged Kind = protocol.EventLanguagesChanged
	KindProcessing       Kind = protocol.EventProcessing
)

// Connected marks the completed authentication handshake.
type Connected struct {
	Base
	UserID string
}

func NewConnected(userID string) Connected {
	return Connected{Base: NewBase(KindConnected), UserID: userID}
}

type ServerError struct {
	Base
	Code    string
	Message string
	Speaker protocol.Speaker
}

func NewServerError(code, message string, speaker protocol.Speaker) ServerError {
	return ServerError{Base: NewBase(KindServerError), Code: code, Message: message, Speaker: speaker}
}

type SessionStarted struct {
	Base
	SessionID string
	Languages protocol.LanguageMetadata
}

func NewSessionStarted(sessionID string, languages protocol.LanguageMetadata) SessionStarted {
	return SessionStarted{Base: NewBase(KindSessionStarted), SessionID: sessionID, Languages: languages}
}

type SessionEnded struct {
	Base
	SessionID string
}

func NewSessionEnded(sessionID string) SessionEnded {
	return SessionEnded{Base: NewBase(KindSessionEnded), SessionID: sessionID}
}

// LanguagesUpdated carries a complete replacement language configuration.
type LanguagesUpdated struct {
	Base
	Languages protocol.LanguageMetadata
}

func NewLanguagesUpdated(languages protocol.LanguageMetadata) LanguagesUpdated {
	return LanguagesUpdated{Base: NewBase(KindLanguagesUpdated), Languages: languages}
}

// LanguagesChanged is sent in reply to change_languages and swap_languages.
type LanguagesChanged struct {
	Base
	Languages protocol.LanguageMetadata
}

func NewLanguagesChanged(languages protocol.LanguageMetadata) LanguagesChanged {
	return LanguagesChanged{Base: NewBase(KindLanguagesChanged), Languages: languages}
}

type Processing struct {
	Base
	Speaker protocol.Speaker
}

func NewProcessing(speaker protocol.Speaker) Processing {
	return Processing{Base: NewBase(KindProcessing), Speaker: speaker}
}
