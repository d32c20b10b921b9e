package relay

import (
	"testing"
	"time"
)

func TestArbiterFirstOfferWins(t *testing.T) {
	now := time.Unix(0, 0)
	a := NewArbiter(time.Second)

	if !a.Offer("KA", now) {
		t.Fatal("idle wire should grant the first offer")
	}
	if a.Offer("KB", now.Add(100*time.Millisecond)) {
		t.Fatal("second station must not seize an active wire")
	}
	if got := a.Holder(now.Add(100 * time.Millisecond)); got != "KA" {
		t.Fatalf("holder = %q, want KA", got)
	}
}

func TestArbiterHolderExtendsDeadline(t *testing.T) {
	now := time.Unix(0, 0)
	a := NewArbiter(time.Second)
	a.Offer("KA", now)

	// Each grant pushes the quiet deadline out.
	for i := 1; i <= 5; i++ {
		at := now.Add(time.Duration(i) * 900 * time.Millisecond)
		if !a.Offer("KA", at) {
			t.Fatalf("holder lost the slot at step %d", i)
		}
	}
	if a.Offer("KB", now.Add(5*900*time.Millisecond+time.Second)) {
		t.Fatal("KB granted before quiet interval elapsed")
	}
}

func TestArbiterQuietExpiry(t *testing.T) {
	now := time.Unix(0, 0)
	a := NewArbiter(time.Second)
	a.Offer("KA", now)

	// Exactly one quiet interval is still held; a moment later it is not.
	if got := a.Holder(now.Add(time.Second)); got != "KA" {
		t.Fatalf("holder at deadline = %q, want KA", got)
	}
	if got := a.Holder(now.Add(time.Second + time.Nanosecond)); got != "" {
		t.Fatalf("holder after deadline = %q, want idle", got)
	}
	if !a.Offer("KB", now.Add(2*time.Second)) {
		t.Fatal("KB should win after the wire went quiet")
	}
}

func TestArbiterRelease(t *testing.T) {
	now := time.Unix(0, 0)
	a := NewArbiter(time.Minute)
	a.Offer("KA", now)
	a.Release()

	if got := a.Holder(now.Add(time.Millisecond)); got != "" {
		t.Fatalf("holder after release = %q, want idle", got)
	}
	if !a.Offer("KB", now.Add(time.Millisecond)) {
		t.Fatal("KB should win immediately after release")
	}
}

func TestArbiterZeroQuietUsesDefault(t *testing.T) {
	a := NewArbiter(0)
	now := time.Unix(0, 0)
	a.Offer("KA", now)
	if got := a.Holder(now.Add(DefaultQuietInterval)); got != "KA" {
		t.Fatalf("holder = %q, want KA within default quiet interval", got)
	}
}
