// Copyright 2025 DoniLite. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

/*
# MorseWire Protocol

This package carries the framed message stream between stations and the
relay server.

It provides the JSON message envelope (presence and timing actions) and the
websocket connection pumps shared by the station client and the relay. The
websocket transport guarantees message boundary delimitation and in-order
delivery per connection; everything above that lives in the relay and
station packages.
*/
package wire
