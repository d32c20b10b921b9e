// Copyright 2025 DoniLite. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package relay

import (
	"errors"
	"sort"
	"time"

	"github.com/DoniLite/morsewire/wire"
)

var ErrDuplicateIdentity = errors.New("relay: station identity already on wire")

type joinResult struct {
	err    error
	roster []wire.StationInfo
}

func newWireHub(no int, cfg Config, done chan struct{}, logf func(level int, format string, args ...any)) *wireHub {
	return &wireHub{
		no:         no,
		cfg:        cfg,
		register:   make(chan joinRequest),
		unregister: make(chan *session),
		timing:     make(chan timingFrame, 256),
		done:       done,
		stations:   make(map[*session]bool),
		byName:     make(map[string]*session),
		arb:        NewArbiter(cfg.QuietInterval),
		logf:       logf,
	}
}

// run owns the wire. Every roster or arbitration mutation happens here.
func (h *wireHub) run() {
	tick := h.cfg.QuietInterval / 2
	if tick < 10*time.Millisecond {
		tick = 10 * time.Millisecond
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	announced := ""
	for {
		select {
		case <-h.done:
			for sess := range h.stations {
				sess.conn.CloseSend()
			}
			return

		case req := <-h.register:
			req.reply <- h.handleJoin(req.sess)

		case sess := <-h.unregister:
			announced = h.handleLeave(sess, announced)

		case f := <-h.timing:
			announced = h.handleTiming(f, announced)

		case <-ticker.C:
			if announced != "" && h.arb.Holder(time.Now()) == "" {
				h.logf(LOG_INFO, "[Wire %d]: sender slot released after quiet interval (<%s>)", h.no, announced)
				announced = ""
				h.announceSender("")
			}
		}
	}
}

func (h *wireHub) handleJoin(sess *session) joinResult {
	if _, taken := h.byName[sess.station]; taken {
		h.logf(LOG_WARNING, "[Wire %d]: join rejected, identity <%s> already taken", h.no, sess.station)
		return joinResult{err: ErrDuplicateIdentity}
	}
	h.stations[sess] = true
	h.byName[sess.station] = sess
	h.logf(LOG_INFO, "[Wire %d]: <%s> joined (%d stations)", h.no, sess.station, len(h.stations))
	h.broadcastRoster(sess)
	return joinResult{roster: h.roster()}
}

func (h *wireHub) handleLeave(sess *session, announced string) string {
	if !h.stations[sess] {
		return announced
	}
	delete(h.stations, sess)
	delete(h.byName, sess.station)
	h.logf(LOG_INFO, "[Wire %d]: <%s> left (%d stations)", h.no, sess.station, len(h.stations))
	if h.arb.Holder(time.Now()) == sess.station {
		// The active sender is gone: release the slot immediately.
		h.arb.Release()
		announced = ""
		h.announceSender("")
	}
	h.broadcastRoster(nil)
	return announced
}

func (h *wireHub) handleTiming(f timingFrame, announced string) string {
	if !h.stations[f.sess] {
		return announced // frame raced a leave; drop it
	}
	now := time.Now()
	if !h.arb.Offer(f.sess.station, now) {
		holder := h.arb.Holder(now)
		h.logf(LOG_WARNING, "[Wire %d]: rejecting timing from <%s>, <%s> holds the wire", h.no, f.sess.station, holder)
		if msg, err := wire.NewMessage(wire.REJECT, wire.RejectPayload{Seq: f.payload.Seq, Holder: holder}); err == nil {
			f.sess.conn.SendMsg(msg)
		}
		return announced
	}
	if announced != f.sess.station {
		announced = f.sess.station
		h.announceSender(announced)
	}

	// Re-stamp the server arrival sequence and relay verbatim to everyone
	// but the origin: a station never hears its own echo.
	f.sess.seq++
	out, err := wire.NewMessage(wire.TIMING, wire.TimingPayload{
		Station: f.sess.station,
		Seq:     f.sess.seq,
		Edges:   f.payload.Edges,
	})
	if err != nil {
		h.logf(LOG_ERROR, "[Wire %d]: encode timing: %v", h.no, err)
		return announced
	}
	h.broadcast(out, f.sess)
	return announced
}

func (h *wireHub) announceSender(station string) {
	if msg, err := wire.NewMessage(wire.SENDER, wire.SenderPayload{Station: station}); err == nil {
		h.broadcast(msg, nil)
	}
}

func (h *wireHub) broadcastRoster(except *session) {
	msg, err := wire.NewMessage(wire.ROSTER, wire.RosterPayload{Wire: h.no, Stations: h.roster()})
	if err != nil {
		return
	}
	h.broadcast(msg, except)
}

// broadcast queues msg on every station except the given one. Queueing
// never blocks, so one slow station cannot affect delivery to the others.
func (h *wireHub) broadcast(msg *wire.Message, except *session) {
	for sess := range h.stations {
		if sess == except {
			continue
		}
		sess.conn.SendMsg(msg)
	}
}

func (h *wireHub) roster() []wire.StationInfo {
	out := make([]wire.StationInfo, 0, len(h.stations))
	for sess := range h.stations {
		out = append(out, wire.StationInfo{ID: sess.id, Station: sess.station})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Station < out[j].Station })
	return out
}
