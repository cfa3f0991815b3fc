package protocol

// LanguageMetadata is the language description sent by the server when a
// session starts or its languages change. Names and flags are optional.
type LanguageMetadata struct {
	LanguageFields

	LangAName      string `json:"langAName,omitempty"`
	LangAFlag      string `json:"langAFlag,omitempty"`
	LangBName      string `json:"langBName,omitempty"`
	LangBFlag      string `json:"langBFlag,omitempty"`
	SourceLangName string `json:"sourceLangName,omitempty"`
	SourceFlag     string `json:"sourceFlag,omitempty"`
	TargetLangName string `json:"targetLangName,omitempty"`
	TargetFlag     string `json:"targetFlag,omitempty"`
}

type Connected struct {
	UserID string `json:"userId,omitempty"`
}

type Error struct {
	Code    string  `json:"code"`
	Message string  `json:"message"`
	Speaker Speaker `json:"speaker,omitempty"`
}

type SessionStarted struct {
	SessionID string `json:"sessionId,omitempty"`
	LanguageMetadata
}

type SessionEnded struct {
	SessionID string `json:"sessionId,omitempty"`
}

type Processing struct {
	Speaker Speaker `json:"speaker,omitempty"`
}

type Transcription struct {
	Speaker      Speaker `json:"speaker,omitempty"`
	Text         string  `json:"text"`
	Language     string  `json:"language,omitempty"`
	LanguageName string  `json:"languageName,omitempty"`
	Flag         string  `json:"flag,omitempty"`
	UtteranceID  string  `json:"utteranceId,omitempty"`
}

type Translation struct {
	Speaker        Speaker `json:"speaker,omitempty"`
	OriginalText   string  `json:"originalText,omitempty"`
	TranslatedText string  `json:"translatedText"`
	SourceLang     string  `json:"sourceLang,omitempty"`
	TargetLang     string  `json:"targetLang,omitempty"`
	TargetLangName string  `json:"targetLangName,omitempty"`
	TargetFlag     string  `json:"targetFlag,omitempty"`
	UtteranceID    string  `json:"utteranceId,omitempty"`
}

type AudioResponse struct {
	Audio      string  `json:"audio"`
	ForSpeaker Speaker `json:"forSpeaker,omitempty"`
	Format     string  `json:"format,omitempty"`
}

type TurnComplete struct {
	CompletedSpeaker Speaker `json:"completedSpeaker"`
	NextSpeaker      Speaker `json:"nextSpeaker"`
	TurnNumber       int     `json:"turnNumber"`
}
