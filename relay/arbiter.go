// Copyright 2025 DoniLite. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package relay

import "time"

// Arbiter is the half-duplex state machine of one wire:
//
//	Idle -> Active(station) -> Idle (quiet interval elapsed, or released)
//
// It is pure state plus supplied clock readings, so the owning hub can
// drive it deterministically and tests need no real timers. It is not safe
// for concurrent use; the hub goroutine is its single writer.
type Arbiter struct {
	quiet  time.Duration
	holder string
	last   time.Time
}

func NewArbiter(quiet time.Duration) *Arbiter {
	if quiet <= 0 {
		quiet = DefaultQuietInterval
	}
	return &Arbiter{quiet: quiet}
}

// Holder reports the active sender at instant now, or "" when the wire is
// idle. A holder whose quiet interval has elapsed is no longer active.
func (a *Arbiter) Holder(now time.Time) string {
	if a.holder != "" && now.Sub(a.last) > a.quiet {
		a.holder = ""
	}
	return a.holder
}

// Offer asks for the sender slot on behalf of station. The first station to
// transmit after an idle period wins; the current holder keeps the slot and
// has its quiet deadline pushed out. Offer reports whether station may send.
func (a *Arbiter) Offer(station string, now time.Time) bool {
	switch a.Holder(now) {
	case "":
		a.holder = station
		a.last = now
		return true
	case station:
		a.last = now
		return true
	default:
		return false
	}
}

// Release immediately frees the sender slot (explicit leave or disconnect).
func (a *Arbiter) Release() {
	a.holder = ""
}
