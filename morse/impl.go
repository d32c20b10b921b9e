// Copyright 2025 DoniLite. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package morse

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/DoniLite/morsewire/kob"
)

// --- unit-length estimate ---

func (e *estimate) push(sample time.Duration) {
	if len(e.samples) == 0 {
		return
	}
	e.samples[e.next] = sample
	e.next = (e.next + 1) % len(e.samples)
	if e.next == 0 {
		e.filled = true
	}
	n := len(e.samples)
	if !e.filled {
		n = e.next
	}
	var sum time.Duration
	for i := 0; i < n; i++ {
		sum += e.samples[i]
	}
	unit := sum / time.Duration(n)
	if unit < e.min {
		unit = e.min
	}
	if unit > e.max {
		unit = e.max
	}
	e.unit = unit
}

func (e *estimate) reset(unit time.Duration) {
	e.unit = unit
	e.next = 0
	e.filled = false
}

// Unit returns the current unit-length estimate (duration of one dot).
func (d *Decoder) Unit() time.Duration {
	return d.est.unit
}

// --- decoder ---

// Feed consumes one edge and returns any characters completed by it. It is
// incremental and non-blocking so it can run on the live capture path.
// Non-positive durations and repeated same-direction edges are clock or
// contact anomalies: they are logged and discarded, never classified.
func (d *Decoder) Feed(e kob.Edge) []Decoded {
	if !d.started {
		d.started = true
		d.last = e
		return nil
	}
	if e.Dir == d.last.Dir {
		log.Printf("[Codec]: dropping repeated %s edge at t=%dus", e.Dir, e.T)
		return nil
	}
	dur := e.At() - d.last.At()
	if dur <= 0 {
		log.Printf("[Codec]: dropping non-positive duration %v at t=%dus", dur, e.T)
		return nil
	}

	var out []Decoded
	unit := d.est.unit
	if d.last.Dir == kob.KeyDown {
		// Key closure ended: classify the mark.
		if ClassifyMark(dur, unit) == Dot {
			d.pattern = append(d.pattern, '.')
			d.devs = append(d.devs, deviation(dur, unit))
			d.est.push(dur)
		} else {
			d.pattern = append(d.pattern, '-')
			d.devs = append(d.devs, deviation(dur, 3*unit))
			d.est.push(dur / 3)
		}
	} else {
		// Key was open: classify the gap. Gap durations do not feed the
		// estimate; an idle operator must not drag the speed down.
		switch ClassifyGap(dur, unit) {
		case ElementGap:
			// keep accumulating
		case CharacterGap:
			if c, ok := d.take(); ok {
				out = append(out, c)
			}
		case WordGap:
			// Arbitrarily long idle collapses into a single word break.
			if c, ok := d.take(); ok {
				out = append(out, c)
			}
			if !d.wordPend {
				out = append(out, Decoded{Char: ' ', Confidence: 1})
				d.wordPend = true
			}
		}
	}
	d.last = e
	return out
}

// ClassifyMark classifies a key-closure duration against the unit estimate.
// The boundary sits at twice the unit; a duration exactly on it resolves
// toward Dot.
func ClassifyMark(dur, unit time.Duration) Element {
	if dur <= 2*unit {
		return Dot
	}
	return Dash
}

// ClassifyGap classifies a key-open duration against the unit estimate.
func ClassifyGap(dur, unit time.Duration) Element {
	switch {
	case dur < 2*unit:
		return ElementGap
	case dur <= 5*unit:
		return CharacterGap
	default:
		return WordGap
	}
}

// Flush decodes any accumulated pattern, for session end or sender change.
func (d *Decoder) Flush() []Decoded {
	if c, ok := d.take(); ok {
		return []Decoded{c}
	}
	return nil
}

// Reset restores the decoder to its initial state, including the configured
// unit length. It is only called on explicit session restart.
func (d *Decoder) Reset() {
	d.est.reset(UnitForWPM(d.cfg.WPM))
	d.started = false
	d.pattern = d.pattern[:0]
	d.devs = d.devs[:0]
	d.wordPend = false
}

func (d *Decoder) take() (Decoded, bool) {
	if len(d.pattern) == 0 {
		return Decoded{}, false
	}
	pattern := string(d.pattern)
	d.pattern = d.pattern[:0]

	conf := 0.0
	if len(d.devs) > 0 {
		var sum float64
		for _, dev := range d.devs {
			sum += dev
		}
		conf = 1 - sum/float64(len(d.devs))
		if conf < 0 {
			conf = 0
		}
	}
	d.devs = d.devs[:0]

	ch, ok := CharFor(pattern)
	if !ok {
		log.Printf("[Codec]: no character for pattern %q", pattern)
		conf = 0
	}
	d.wordPend = false
	return Decoded{Char: ch, Confidence: conf}, true
}

func deviation(dur, nominal time.Duration) float64 {
	if nominal <= 0 {
		return 1
	}
	dev := float64(dur-nominal) / float64(nominal)
	if dev < 0 {
		dev = -dev
	}
	if dev > 1 {
		dev = 1
	}
	return dev
}

// --- encoder ---

// Unit returns the fixed unit length the encoder emits at.
func (enc *Encoder) Unit() time.Duration {
	return enc.unit
}

// Encode produces the edge timing for text at the configured speed, using
// the standard 1/3/7 unit gap ratios. Unmappable characters are skipped and
// reported in the joined error; the rest of the sequence is still produced.
func (enc *Encoder) Encode(text string) ([]kob.Edge, error) {
	var (
		edges []kob.Edge
		errs  []error
		t     time.Duration
		begun bool
	)
	u := enc.unit
	for _, r := range text {
		if r == ' ' || r == '\n' || r == '\t' {
			if begun {
				t += 4 * u // letter gap already emitted, total 7 units
			}
			continue
		}
		pattern, ok := Pattern(r)
		if !ok {
			errs = append(errs, fmt.Errorf("morse: no code for %q", r))
			continue
		}
		for i, sym := range pattern {
			mark := u
			if sym == '-' {
				mark = 3 * u
			}
			edges = append(edges,
				kob.Edge{Dir: kob.KeyDown, T: kob.Micros(t)},
				kob.Edge{Dir: kob.KeyUp, T: kob.Micros(t + mark)},
			)
			t += mark
			if i < len(pattern)-1 {
				t += u
			}
		}
		t += 3 * u
		begun = true
	}
	return edges, errors.Join(errs...)
}
