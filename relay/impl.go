// Copyright 2025 DoniLite. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package relay

import (
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/google/uuid"

	"github.com/DoniLite/morsewire/wire"
)

// clientState tracks one websocket connection from upgrade to close. A
// connection is anonymous until its JOIN is accepted by a hub.
type clientState struct {
	srv  *Server
	conn *wire.Connection
	sess *session
	hub  *wireHub
}

// ServeHTTP upgrades the request and starts the connection pumps.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ServeHTTP: Failed to upgrade connection: %v\n", err)
		return
	}
	conn := wire.NewConnection(ws)
	s.logf(LOG_INFO, "[Relay]: station connected from %s", conn.RemoteAddr())

	cs := &clientState{srv: s, conn: conn}
	go conn.WritePump()
	go conn.ReadPump(cs.handleMessage, cs.handleDisconnect)
}

func (cs *clientState) handleMessage(msg *wire.Message, conn *wire.Connection) error {
	switch msg.Action.Type {
	case wire.JOIN:
		return cs.handleJoin(msg)
	case wire.TIMING:
		return cs.handleTiming(msg)
	case wire.LEAVE:
		cs.leave()
		return nil
	default:
		return fmt.Errorf("unexpected action type %d", msg.Action.Type)
	}
}

func (cs *clientState) handleJoin(msg *wire.Message) error {
	if cs.sess != nil {
		return fmt.Errorf("already joined wire %d", cs.sess.wireNo)
	}
	var p wire.JoinPayload
	if err := msg.DecodePayload(&p); err != nil {
		return err
	}
	if p.Station == "" {
		return fmt.Errorf("empty station identity")
	}

	sess := &session{
		conn:    cs.conn,
		id:      uuid.NewString(),
		station: p.Station,
		wireNo:  p.Wire,
	}
	hub := cs.srv.hub(p.Wire)

	reply := make(chan joinResult, 1)
	select {
	case hub.register <- joinRequest{sess: sess, reply: reply}:
	case <-hub.done:
		return fmt.Errorf("wire %d is shut down", p.Wire)
	}
	res := <-reply
	if errors.Is(res.err, ErrDuplicateIdentity) {
		// Rejected join keeps the connection alive so the caller can retry
		// under a different identity.
		errMsg := wire.NewErrorMessage(wire.CodeDuplicateIdentity,
			fmt.Sprintf("station %q already on wire %d", p.Station, p.Wire))
		errMsg.RequestID = msg.RequestID
		cs.conn.SendMsg(errMsg)
		return nil
	}
	if res.err != nil {
		return res.err
	}

	cs.sess = sess
	cs.hub = hub
	ack, err := wire.NewMessage(wire.ACK, wire.AckPayload{
		ConnectionID: sess.id,
		Wire:         p.Wire,
		Roster:       res.roster,
	})
	if err != nil {
		return err
	}
	ack.RequestID = msg.RequestID
	cs.conn.SendMsg(ack)
	return nil
}

func (cs *clientState) handleTiming(msg *wire.Message) error {
	if cs.sess == nil {
		return fmt.Errorf("timing before join")
	}
	var p wire.TimingPayload
	if err := msg.DecodePayload(&p); err != nil {
		return err
	}
	if len(p.Edges) == 0 {
		return fmt.Errorf("empty timing payload")
	}
	if max := cs.srv.maxEdges(); len(p.Edges) > max {
		return fmt.Errorf("timing payload of %d edges exceeds limit %d", len(p.Edges), max)
	}
	select {
	case cs.hub.timing <- timingFrame{sess: cs.sess, payload: p}:
	default:
		// The hub is saturated; stale key timing is worse than a gap.
		cs.srv.logf(LOG_WARNING, "[Relay]: wire %d hub saturated, dropping frame from <%s>", cs.sess.wireNo, cs.sess.station)
	}
	return nil
}

func (cs *clientState) leave() {
	if cs.sess == nil {
		return
	}
	select {
	case cs.hub.unregister <- cs.sess:
	case <-cs.hub.done:
	}
	cs.sess = nil
	cs.hub = nil
}

func (cs *clientState) handleDisconnect(conn *wire.Connection) {
	cs.srv.logf(LOG_INFO, "[Relay]: station disconnected from %s", conn.RemoteAddr())
	cs.leave()
}

func (s *Server) maxEdges() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg.MaxEdgesPerMessage
}

// hub returns the hub for a wire number, starting it on first use.
func (s *Server) hub(no int) *wireHub {
	s.mu.Lock()
	defer s.mu.Unlock()
	if h, ok := s.wires[no]; ok {
		return h
	}
	h := newWireHub(no, s.cfg, s.done, s.logf)
	s.wires[no] = h
	go h.run()
	s.logf(LOG_INFO, "[Relay]: wire %d opened", no)
	return h
}

// SetConfig swaps the relay settings. Hubs already running keep their
// current settings; wires opened afterwards pick up the new ones.
func (s *Server) SetConfig(cfg Config) {
	if cfg.QuietInterval <= 0 {
		cfg.QuietInterval = DefaultQuietInterval
	}
	if cfg.MaxEdgesPerMessage <= 0 {
		cfg.MaxEdgesPerMessage = DefaultMaxEdgesPerMessage
	}
	s.mu.Lock()
	s.cfg = cfg
	s.mu.Unlock()
	s.logf(LOG_INFO, "[Relay]: configuration updated, applies to newly opened wires")
}

// Close shuts every wire down and unblocks all connection pumps.
func (s *Server) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	select {
	case <-s.done:
		return
	default:
	}
	close(s.done)
}

func (s *Server) logf(level int, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	log.Println(msg)
	if s.Logs == nil {
		return
	}
	// Non-blocking send; drop if channel is full
	select {
	case s.Logs <- Logs{Message: msg, LogType: level}:
	default:
	}
}
