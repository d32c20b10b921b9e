// Copyright 2025 DoniLite. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

/*
# MorseWire KOB

The kob package is the hardware boundary of the software
it provides the capability pair used by every other package:

  - Key: a source of timed contact edges
  - Sounder: an actuator that reproduces timed edges

It also provides virtual implementations for tests and code practice,
and a Recorder that captures and plays back timing streams.
*/
package kob
