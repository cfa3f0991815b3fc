package translation

import "slices"

// correlate finds the message synthesized audio belongs to. Audio is not
// tagged with a message id; it follows the translation it was synthesized
// from, so the most recent translation still without audio wins.
func correlate(messages []Message) (int, bool) {
	for i, m := range slices.Backward(messages) {
		if m.Kind == Translated && !m.HasAudio() {
			return i, true
		}
	}
	return -1, false
}
