package morse

import (
	"math/rand"
	"testing"
	"time"

	"github.com/DoniLite/morsewire/kob"
)

func TestClassifyMarkBoundary(t *testing.T) {
	u := UnitForWPM(20) // 60ms
	if got := ClassifyMark(2*u-time.Millisecond, u); got != Dot {
		t.Fatalf("just under 2u: want dot, got %s", got)
	}
	if got := ClassifyMark(2*u+time.Millisecond, u); got != Dash {
		t.Fatalf("just over 2u: want dash, got %s", got)
	}
	// exact boundary resolves toward dot, deterministically
	if got := ClassifyMark(2*u, u); got != Dot {
		t.Fatalf("tie: want dot, got %s", got)
	}
}

func TestClassifyGapBoundaries(t *testing.T) {
	u := UnitForWPM(20)
	cases := []struct {
		dur  time.Duration
		want Element
	}{
		{u, ElementGap},
		{2*u - time.Millisecond, ElementGap},
		{2 * u, CharacterGap},
		{5 * u, CharacterGap},
		{5*u + time.Millisecond, WordGap},
		{60 * time.Second, WordGap},
	}
	for _, c := range cases {
		if got := ClassifyGap(c.dur, u); got != c.want {
			t.Fatalf("gap %v: want %s, got %s", c.dur, c.want, got)
		}
	}
}

func TestDecoderDropsTimingAnomalies(t *testing.T) {
	d := NewDecoder(DecoderConfig{WPM: 20})
	d.Feed(kob.Edge{Dir: kob.KeyDown, T: 1000})
	// zero duration
	if out := d.Feed(kob.Edge{Dir: kob.KeyUp, T: 1000}); out != nil {
		t.Fatalf("zero duration produced output: %v", out)
	}
	// negative duration (clock anomaly)
	if out := d.Feed(kob.Edge{Dir: kob.KeyUp, T: 500}); out != nil {
		t.Fatalf("negative duration produced output: %v", out)
	}
	// repeated same-direction edge
	if out := d.Feed(kob.Edge{Dir: kob.KeyDown, T: 2000}); out != nil {
		t.Fatalf("repeated edge produced output: %v", out)
	}
	if len(d.pattern) != 0 {
		t.Fatalf("anomalies must not become elements, pattern=%q", d.pattern)
	}
}

func TestEstimateStaysBounded(t *testing.T) {
	d := NewDecoder(DecoderConfig{WPM: 20, MinWPM: 5, MaxWPM: 60})
	lo, hi := UnitForWPM(60), UnitForWPM(5)

	rng := rand.New(rand.NewSource(42))
	var cursor int64
	dir := kob.KeyDown
	for i := 0; i < 5000; i++ {
		d.Feed(kob.Edge{Dir: dir, T: cursor})
		// adversarial durations from 1us to 30s
		cursor += 1 + rng.Int63n(30_000_000)
		if dir == kob.KeyDown {
			dir = kob.KeyUp
		} else {
			dir = kob.KeyDown
		}
		if u := d.Unit(); u < lo || u > hi {
			t.Fatalf("estimate %v escaped bounds [%v, %v]", u, lo, hi)
		}
	}
}

func TestLongIdleCollapsesToSingleWordGap(t *testing.T) {
	d := NewDecoder(DecoderConfig{WPM: 20})
	u := UnitForWPM(20)

	// "E", then ten minutes of silence, then "E" again.
	var chars []rune
	feed := func(e kob.Edge) {
		for _, c := range d.Feed(e) {
			chars = append(chars, c.Char)
		}
	}
	feed(kob.Edge{Dir: kob.KeyDown, T: 0})
	feed(kob.Edge{Dir: kob.KeyUp, T: kob.Micros(u)})
	feed(kob.Edge{Dir: kob.KeyDown, T: kob.Micros(u + 10*time.Minute)})
	feed(kob.Edge{Dir: kob.KeyUp, T: kob.Micros(2*u + 10*time.Minute)})
	for _, c := range d.Flush() {
		chars = append(chars, c.Char)
	}
	if got := string(chars); got != "E E" {
		t.Fatalf("want %q, got %q", "E E", got)
	}
}

func TestDecoderReset(t *testing.T) {
	d := NewDecoder(DecoderConfig{WPM: 20})
	d.Feed(kob.Edge{Dir: kob.KeyDown, T: 0})
	d.Feed(kob.Edge{Dir: kob.KeyUp, T: kob.Micros(UnitForWPM(20))})
	d.Reset()
	if out := d.Flush(); out != nil {
		t.Fatalf("reset must clear pending pattern, got %v", out)
	}
	if d.Unit() != UnitForWPM(20) {
		t.Fatalf("reset must restore the configured unit, got %v", d.Unit())
	}
}
