package translation

// Observer is notified synchronously while an inbound event is dispatched,
// after the session state has been updated. Observers may call back into the
// session. The next event is not dispatched until the observer returns.
type Observer interface {
	OnTranscription(Message)
	// OnPartialTranscription is only called in live mode. The message keeps
	// its ID across updates.
	OnPartialTranscription(Message)
	OnTranslation(Message)
	OnAudioResponse(AudioResponse)
	OnTurnComplete(TurnComplete)
	OnError(*Error)
}

// NopObserver ignores every notification. Embed it to implement a subset of
// [Observer].
type NopObserver struct{}

func (NopObserver) OnTranscription(Message)        {}
func (NopObserver) OnPartialTranscription(Message) {}
func (NopObserver) OnTranslation(Message)          {}
func (NopObserver) OnAudioResponse(AudioResponse)  {}
func (NopObserver) OnTurnComplete(TurnComplete)    {}
func (NopObserver) OnError(*Error)                 {}

var _ Observer = NopObserver{}

// notifications are collected while the session lock is held and delivered
// after it is released.
type notifications []func()

func (n *notifications) add(f func()) { *n = append(*n, f) }

func (n notifications) deliver() {
	for _, f := range n {
		f()
	}
}
