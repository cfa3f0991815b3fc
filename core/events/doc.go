// Package events defines the closed set of inbound events a translation
// session reacts to. Frames are decoded once at the channel boundary by
// [Decode]; consumers type-switch on the result.
//
// Lifecycle events are produced by the channel adapter:
//
//   - TransportConnected (connect): the transport (re)connected.
//   - Disconnected (disconnect): the transport dropped.
//   - ConnectError (connect_error): a (re)connection attempt failed.
//
// Session events are sent by the backend:
//
//   - Connected (connected): authenticated handshake completed.
//   - ServerError (error): a coded error, optionally for a speaker.
//   - SessionStarted (session_started): the session is active; carries the
//     language configuration.
//   - SessionEnded (session_ended): the session was closed.
//   - LanguagesUpdated (languages_updated) and LanguagesChanged
//     (languages_changed): the language configuration was replaced.
//   - Processing (processing): the backend started working on input.
//
// Speech events:
//
//   - PartialTranscription (partial_transcription): interim, mutable
//     transcript of the current utterance.
//   - Transcription (transcription): final transcript of an utterance.
//   - Translation (translation): translated text of an utterance.
//   - AudioResponse (audio_response): synthesized audio, decoded from base64.
//   - TurnComplete (turn_complete): the server handed the turn over.
package events
