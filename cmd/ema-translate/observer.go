package main

import (
	tea "github.com/charmbracelet/bubbletea"
	translation "github.com/koscakluka/ema-translate/core"
)

// sessionUpdatedMsg asks the model to re-read the session snapshot.
type sessionUpdatedMsg struct{}

type sessionErrorMsg struct{ err *translation.Error }

// programObserver forwards session notifications into the bubbletea loop.
type programObserver struct {
	program *tea.Program
}

func (o *programObserver) send(msg tea.Msg) {
	if o.program != nil {
		o.program.Send(msg)
	}
}

func (o *programObserver) OnTranscription(translation.Message)        { o.send(sessionUpdatedMsg{}) }
func (o *programObserver) OnPartialTranscription(translation.Message) { o.send(sessionUpdatedMsg{}) }
func (o *programObserver) OnTranslation(translation.Message)          { o.send(sessionUpdatedMsg{}) }
func (o *programObserver) OnAudioResponse(translation.AudioResponse)  { o.send(sessionUpdatedMsg{}) }
func (o *programObserver) OnTurnComplete(translation.TurnComplete)    { o.send(sessionUpdatedMsg{}) }
func (o *programObserver) OnError(err *translation.Error)             { o.send(sessionErrorMsg{err: err}) }
