// Copyright 2025 DoniLite. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

/*
# MorseWire Codec

The morse package is the timing codec of the software
it provides the main translation logic for:

  - Decoding timed key edges into characters
  - Adaptive unit-length (speed) estimation
  - Encoding text into timed sounder edges

The wire itself carries raw key timing, never text, so a sender's natural
"hand" survives the network. This codec only runs at the edges of the
system: next to a key for reading, next to a keyboard for sending.
*/
package morse
