// Copyright 2025 DoniLite. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

/*
# MorseWire Relay

The relay package is the server side of the software
it provides the main features logic for:

  - Accepting stations on numbered wires
  - Roster and presence tracking
  - Half-duplex arbitration (one active sender per wire)
  - Echo-suppressed rebroadcast of key timing

Each wire is driven by its own hub goroutine, so independent wires make
independent progress and all arbitration state mutations are serialized.
The server keeps no state across restarts.
*/
package relay
