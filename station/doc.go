// Copyright 2025 DoniLite. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

/*
# MorseWire Station

The station package is the client side of the software
it provides the main features logic for:

  - Connecting a station identity to a relay wire
  - Sending local key timing (bounded queue, never blocks capture)
  - Receiving remote timing in per-sender sequence order
  - Automatic reconnection with exponential backoff
  - Relay discovery over mDNS

The key capture path only ever touches the bounded send queue; every
network wait lives on the client's own goroutines.
*/
package station
