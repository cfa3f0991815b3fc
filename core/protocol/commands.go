package protocol

// LanguageFields carries a language configuration on the wire. Conversation
// sessions use LangA/LangB, single-direction sessions use SourceLang and
// TargetLang.
type LanguageFields struct {
	LangA      string `json:"langA,omitempty" jsonschema:"description=Language code of speaker A"`
	LangB      string `json:"langB,omitempty" jsonschema:"description=Language code of speaker B"`
	SourceLang string `json:"sourceLang,omitempty" jsonschema:"description=Language code spoken into a streaming session"`
	TargetLang string `json:"targetLang,omitempty" jsonschema:"description=Language code a streaming session translates into"`
}

type StartSession struct {
	LanguageFields
}

type StopSession struct{}

type AudioChunk struct {
	Audio   string  `json:"audio" jsonschema:"description=Base64 encoded audio,required"`
	IsFinal bool    `json:"isFinal"`
	Speaker Speaker `json:"speaker,omitempty" jsonschema:"enum=A,enum=B"`
}

type TextInput struct {
	Text    string  `json:"text" jsonschema:"required"`
	Speaker Speaker `json:"speaker,omitempty" jsonschema:"enum=A,enum=B"`
}

type SwapLanguages struct{}

type ChangeLanguages struct {
	LanguageFields
}
