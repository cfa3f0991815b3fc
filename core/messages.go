package translation

import (
	"github.com/google/uuid"
	"github.com/koscakluka/ema-translate/core/events"
	"github.com/koscakluka/ema-translate/core/languages"
)

// speakerOrDefault resolves the speaker a message or command belongs to.
// Streaming sessions have a single speaker, A.
func (s *Session) speakerOrDefault(speaker Speaker) Speaker {
	if !s.mode.isTurnBased() {
		return SpeakerA
	}
	if speaker.IsValid() {
		return speaker
	}
	return s.state.CurrentSpeaker
}

func (s *Session) newMessageLocked(speaker Speaker, kind MessageKind, text string, language languages.Language) Message {
	return Message{
		ID:           uuid.NewString(),
		Speaker:      speaker,
		Kind:         kind,
		Text:         text,
		Language:     language.Code,
		LanguageName: language.Name,
		Flag:         language.Flag,
		Timestamp:    s.now(),
	}
}

// spokenLanguage describes the transcript's language, defaulting to the
// language configured for its speaker.
func (s *Session) spokenLanguage(t events.Transcript, speaker Speaker) languages.Language {
	if t.Language == "" {
		return s.state.Languages.For(speaker)
	}
	return languages.Resolve(t.Language, t.LanguageName, t.Flag)
}

// updatePartialLocked supersedes the in-flight live transcription in place,
// or starts a new one. A partial for a different utterance finalizes the
// previous one with its last text.
func (s *Session) updatePartialLocked(t events.Transcript) Message {
	speaker := s.speakerOrDefault(t.Speaker)
	language := s.spokenLanguage(t, speaker)

	if i := s.partial; i >= 0 {
		current := &s.state.Messages[i]
		if t.UtteranceID == "" || t.UtteranceID == current.UtteranceID {
			current.Text = t.Text
			current.Language, current.LanguageName, current.Flag = language.Code, language.Name, language.Flag
			current.Timestamp = s.now()
			return *current
		}
		current.Partial = false
	}

	message := s.newMessageLocked(speaker, Original, t.Text, language)
	message.Partial = true
	message.UtteranceID = t.UtteranceID
	s.state.Messages = append(s.state.Messages, message)
	s.partial = len(s.state.Messages) - 1
	return message
}

// finalizeTranscriptLocked records a final transcription. In live mode it
// finalizes the matching partial, keeping its id.
func (s *Session) finalizeTranscriptLocked(t events.Transcript) Message {
	speaker := s.speakerOrDefault(t.Speaker)
	language := s.spokenLanguage(t, speaker)

	if i := s.partial; i >= 0 {
		s.partial = -1
		current := &s.state.Messages[i]
		current.Partial = false
		if t.UtteranceID == "" || t.UtteranceID == current.UtteranceID {
			current.Text = t.Text
			current.Language, current.LanguageName, current.Flag = language.Code, language.Name, language.Flag
			current.Timestamp = s.now()
			return *current
		}
	}

	message := s.newMessageLocked(speaker, Original, t.Text, language)
	message.UtteranceID = t.UtteranceID
	s.state.Messages = append(s.state.Messages, message)
	return message
}

func (s *Session) appendTranslationLocked(t events.Translation) Message {
	speaker := s.speakerOrDefault(t.Speaker)

	var language languages.Language
	switch {
	case t.TargetLang != "":
		language = languages.Resolve(t.TargetLang, t.TargetLangName, t.TargetFlag)
	case s.mode.isTurnBased():
		language = s.state.Languages.For(speaker.Other())
	default:
		language = s.state.Languages.Target()
	}

	message := s.newMessageLocked(speaker, Translated, t.TranslatedText, language)
	message.UtteranceID = t.UtteranceID
	s.state.Messages = append(s.state.Messages, message)
	return message
}
