package protocol

import (
	"maps"
	"slices"

	"github.com/invopop/jsonschema"
)

var commands = map[string]any{
	EventStartSession:    &StartSession{},
	EventStopSession:     &StopSession{},
	EventAudioChunk:      &AudioChunk{},
	EventTextInput:       &TextInput{},
	EventSwapLanguages:   &SwapLanguages{},
	EventChangeLanguages: &ChangeLanguages{},
}

// CommandNames lists the outbound command events in stable order.
func CommandNames() []string {
	return slices.Sorted(maps.Keys(commands))
}

// Schemas reflects the JSON schema of every outbound command payload, keyed
// by event name.
func Schemas() map[string]*jsonschema.Schema {
	reflector := jsonschema.Reflector{DoNotReference: true}

	schemas := make(map[string]*jsonschema.Schema, len(commands))
	for name, payload := range commands {
		schema := reflector.Reflect(payload)
		schema.Title = name
		schemas[name] = schema
	}
	return schemas
}
