package events

import "github.com/koscakluka/ema-translate/core/protocol"

const (
	KindPartialTranscription Kind = protocol.EventPartialTranscription
	KindTranscription        Kind = protocol.EventTranscription
	KindTranslation          Kind = protocol.EventTranslation
	KindAudioResponse        Kind = protocol.EventAudioResponse
	KindTurnComplete         Kind = protocol.EventTurnComplete
)

// Transcript is the recognized text of one utterance.
type Transcript struct {
	Speaker      protocol.Speaker
	Text         string
	Language     string
	LanguageName string
	Flag         string
	UtteranceID  string
}

type PartialTranscription struct {
	Base
	Transcript
}

func NewPartialTranscription(transcript Transcript) PartialTranscription {
	return PartialTranscription{Base: NewBase(KindPartialTranscription), Transcript: transcript}
}

type Transcription struct {
	Base
	Transcript
}

func NewTranscription(transcript Transcript) Transcription {
	return Transcription{Base: NewBase(KindTranscription), Transcript: transcript}
}

type Translation struct {
	Base
	Speaker        protocol.Speaker
	OriginalText   string
	TranslatedText string
	SourceLang     string
	TargetLang     string
	TargetLangName string
	TargetFlag     string
	UtteranceID    string
}

func NewTranslation(payload protocol.Translation) Translation {
	return Translation{
		Base:           NewBase(KindTranslation),
		Speaker:        payload.Speaker,
		OriginalText:   payload.OriginalText,
		TranslatedText: payload.TranslatedText,
		SourceLang:     payload.SourceLang,
		TargetLang:     payload.TargetLang,
		TargetLangName: payload.TargetLangName,
		TargetFlag:     payload.TargetFlag,
		UtteranceID:    payload.UtteranceID,
	}
}

// AudioResponse carries synthesized audio. It is not tagged with the message
// it belongs to, only with the speaker it is meant for.
type AudioResponse struct {
	Base
	Audio      []byte
	ForSpeaker protocol.Speaker
	Format     string
}

func NewAudioResponse(audio []byte, forSpeaker protocol.Speaker, format string) AudioResponse {
	return AudioResponse{Base: NewBase(KindAudioResponse), Audio: audio, ForSpeaker: forSpeaker, Format: format}
}

type TurnComplete struct {
	Base
	CompletedSpeaker protocol.Speaker
	NextSpeaker      protocol.Speaker
	TurnNumber       int
}

func NewTurnComplete(completed, next protocol.Speaker, turnNumber int) TurnComplete {
	return TurnComplete{
		Base:             NewBase(KindTurnComplete),
		CompletedSpeaker: completed,
		NextSpeaker:      next,
		TurnNumber:       turnNumber,
	}
}
