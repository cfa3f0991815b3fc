package events

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/koscakluka/ema-translate/core/channel"
	"github.com/koscakluka/ema-translate/core/protocol"
)

// ErrUnknownEvent is returned by [Decode] for frames outside the inbound set.
var ErrUnknownEvent = errors.New("unknown event")

// Decode turns a channel frame into its typed event. An empty payload
// decodes into zero values.
func Decode(frame channel.Frame) (Event, error) {
	switch Kind(frame.Event) {
	case KindTransportConnected:
		return NewTransportConnected(), nil

	case KindDisconnected:
		var payload channel.Disconnect
		if err := unmarshal(frame, &payload); err != nil {
			return nil, err
		}
		return NewDisconnected(payload.Reason), nil

	case KindConnectError:
		var payload channel.ConnectError
		if err := unmarshal(frame, &payload); err != nil {
			return nil, err
		}
		event := NewConnectError(payload.Message, payload.Attempt, payload.WillRetry)
		event.Unauthorized = payload.Unauthorized
		return event, nil

	case KindConnected:
		var payload protocol.Connected
		if err := unmarshal(frame, &payload); err != nil {
			return nil, err
		}
		return NewConnected(payload.UserID), nil

	case KindServerError:
		var payload protocol.Error
		if err := unmarshal(frame, &payload); err != nil {
			return nil, err
		}
		return NewServerError(payload.Code, payload.Message, payload.Speaker), nil

	case KindSessionStarted:
		var payload protocol.SessionStarted
		if err := unmarshal(frame, &payload); err != nil {
			return nil, err
		}
		return NewSessionStarted(payload.SessionID, payload.LanguageMetadata), nil

	case KindSessionEnded:
		var payload protocol.SessionEnded
		if err := unmarshal(frame, &payload); err != nil {
			return nil, err
		}
		return NewSessionEnded(payload.SessionID), nil

	case KindLanguagesUpdated:
		var payload protocol.LanguageMetadata
		if err := unmarshal(frame, &payload); err != nil {
			return nil, err
		}
		return NewLanguagesUpdated(payload), nil

	case KindLanguagesChanged:
		var payload protocol.LanguageMetadata
		if err := unmarshal(frame, &payload); err != nil {
			return nil, err
		}
		return NewLanguagesChanged(payload), nil

	case KindProcessing:
		var payload protocol.Processing
		if err := unmarshal(frame, &payload); err != nil {
			return nil, err
		}
		return NewProcessing(payload.Speaker), nil

	case KindPartialTranscription:
		var payload protocol.Transcription
		if err := unmarshal(frame, &payload); err != nil {
			return nil, err
		}
		return NewPartialTranscription(transcript(payload)), nil

	case KindTranscription:
		var payload protocol.Transcription
		if err := unmarshal(frame, &payload); err != nil {
			return nil, err
		}
		return NewTranscription(transcript(payload)), nil

	case KindTranslation:
		var payload protocol.Translation
		if err := unmarshal(frame, &payload); err != nil {
			return nil, err
		}
		return NewTranslation(payload), nil

	case KindAudioResponse:
		var payload protocol.AudioResponse
		if err := unmarshal(frame, &payload); err != nil {
			return nil, err
		}
		audio, err := base64.StdEncoding.DecodeString(payload.Audio)
		if err != nil {
			return nil, fmt.Errorf("invalid %s audio: %w", frame.Event, err)
		}
		return NewAudioResponse(audio, payload.ForSpeaker, payload.Format), nil

	case KindTurnComplete:
		var payload protocol.TurnComplete
		if err := unmarshal(frame, &payload); err != nil {
			return nil, err
		}
		return NewTurnComplete(payload.CompletedSpeaker, payload.NextSpeaker, payload.TurnNumber), nil
	}

	return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, frame.Event)
}

func unmarshal(frame channel.Frame, payload any) error {
	if len(frame.Payload) == 0 || string(frame.Payload) == "null" {
		return nil
	}
	if err := json.Unmarshal(frame.Payload, payload); err != nil {
		return fmt.Errorf("malformed %s payload: %w", frame.Event, err)
	}
	return nil
}

func transcript(payload protocol.Transcription) Transcript {
	return Transcript{
		Speaker:      payload.Speaker,
		Text:         payload.Text,
		Language:     payload.Language,
		LanguageName: payload.LanguageName,
		Flag:         payload.Flag,
		UtteranceID:  payload.UtteranceID,
	}
}
