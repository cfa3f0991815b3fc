// Package audio describes the encoding of synthesized audio received from
// the translation backend.
package audio

import (
	"strconv"
	"strings"
	"time"
)

const DefaultSampleRate = 16000

type Format string

const (
	FormatLinear16 Format = "linear16"
	FormatMulaw    Format = "mulaw"
	FormatALaw     Format = "alaw"
	FormatMP3      Format = "mp3"
	FormatWAV      Format = "wav"
	FormatOpus     Format = "opus"
)

// ByteSize is the size of one sample for raw formats, -1 for containers and
// compressed formats.
func (f Format) ByteSize() int {
	switch f {
	case FormatMulaw, FormatALaw:
		return 1
	case FormatLinear16:
		return 2
	}
	return -1
}

type Encoding struct {
	Format     Format
	SampleRate int
}

func (e Encoding) IsZero() bool { return e.Format == "" }

// ParseEncoding reads the backend's format label, "<format>" or
// "<format>/<sample rate>". Raw formats without a rate use
// DefaultSampleRate; aliases like "pcm16" and "ulaw" are accepted.
func ParseEncoding(label string) Encoding {
	name, rate, _ := strings.Cut(strings.ToLower(strings.TrimSpace(label)), "/")

	encoding := Encoding{Format: Format(name)}
	switch name {
	case "pcm", "pcm16", "pcm_s16le", "s16le":
		encoding.Format = FormatLinear16
	case "ulaw", "mu-law":
		encoding.Format = FormatMulaw
	case "a-law":
		encoding.Format = FormatALaw
	}

	if sampleRate, err := strconv.Atoi(rate); err == nil && sampleRate > 0 {
		encoding.SampleRate = sampleRate
	} else if encoding.Format.ByteSize() > 0 {
		encoding.SampleRate = DefaultSampleRate
	}

	return encoding
}

// Duration estimates the playback length of size bytes of mono audio. It is
// zero when the format does not allow an estimate.
func (e Encoding) Duration(size int) time.Duration {
	sampleSize := e.Format.ByteSize()
	if sampleSize <= 0 || e.SampleRate <= 0 {
		return 0
	}
	samples := size / sampleSize
	return time.Duration(samples) * time.Second / time.Duration(e.SampleRate)
}
