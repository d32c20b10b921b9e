package morse

import (
	"time"

	"github.com/DoniLite/morsewire/kob"
)

// Element is a single classified Morse symbol or gap.
type Element uint8

const (
	Dot Element = iota
	Dash
	ElementGap
	CharacterGap
	WordGap
)

func (e Element) String() string {
	switch e {
	case Dot:
		return "dot"
	case Dash:
		return "dash"
	case ElementGap:
		return "element-gap"
	case CharacterGap:
		return "character-gap"
	case WordGap:
		return "word-gap"
	}
	return "unknown"
}

// Unknown is emitted for dot/dash sequences with no table entry.
const Unknown = '#'

// Decoded is one character produced by the decoder with a 0..1 confidence
// derived from how closely the element timings matched the estimate.
type Decoded struct {
	Char       rune
	Confidence float64
}

// DecoderConfig holds the tuning constants of a decoder. Zero values fall
// back to the defaults below; these are product-tuning knobs and should be
// supplied from configuration rather than hard-coded by callers.
type DecoderConfig struct {
	// WPM seeds the unit-length estimate (PARIS convention: unit = 1200ms/WPM).
	WPM float64
	// MinWPM and MaxWPM bound the adaptive estimate against pathological input.
	MinWPM float64
	MaxWPM float64
	// Window is the number of trailing element samples the estimate averages.
	Window int
}

const (
	DefaultWPM    = 20.0
	DefaultMinWPM = 5.0
	DefaultMaxWPM = 60.0
	DefaultWindow = 20
)

// UnitForWPM converts words-per-minute to the duration of one dot.
func UnitForWPM(wpm float64) time.Duration {
	return time.Duration(1200.0/wpm) * time.Millisecond
}

// estimate is the running unit-length estimate. It belongs to exactly one
// decoder; independent sessions never share one.
type estimate struct {
	unit    time.Duration
	min     time.Duration
	max     time.Duration
	samples []time.Duration
	next    int
	filled  bool
}

// Decoder incrementally translates edge streams into characters. Feed one
// edge at a time; it never blocks, so it can live on the key capture path.
type Decoder struct {
	cfg      DecoderConfig
	est      estimate
	last     kob.Edge
	started  bool
	pattern  []byte
	devs     []float64
	wordPend bool
}

// Encoder turns text into sounder edge timing at a fixed configured speed.
type Encoder struct {
	unit time.Duration
}
