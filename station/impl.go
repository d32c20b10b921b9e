// Copyright 2025 DoniLite. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package station

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/google/uuid"

	"github.com/DoniLite/morsewire/kob"
	"github.com/DoniLite/morsewire/wire"
)

// Connect dials the relay and joins the configured wire. It returns once
// the server acknowledged the join with the current roster, or fails with
// ErrDuplicateIdentity / a transport error.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.isConnected {
		c.mu.Unlock()
		return fmt.Errorf("client already connected")
	}
	c.mu.Unlock()

	log.Printf("Client: Attempting to connect to %s...\n", c.cfg.URL)
	ws, resp, err := c.dialer.DialContext(ctx, c.cfg.URL, nil)
	if err != nil {
		errMsg := fmt.Sprintf("Client: Failed to connect to %s: %v", c.cfg.URL, err)
		if resp != nil {
			errMsg = fmt.Sprintf("%s (Status: %s)", errMsg, resp.Status)
			body, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			if len(body) > 0 {
				errMsg = fmt.Sprintf("%s - Body: %s", errMsg, string(body))
			}
		}
		return fmt.Errorf("an error occurred %s", errMsg)
	}

	conn := wire.NewConnection(ws)
	c.mu.Lock()
	c.conn = conn
	c.isConnected = true
	c.mu.Unlock()

	go conn.WritePump()
	go conn.ReadPump(c.handleIncomingMessage, c.handleDisconnect)

	ack, err := c.sendRequest(ctx, wire.JOIN, wire.JoinPayload{
		Wire:    c.cfg.Wire,
		Station: c.cfg.Station,
	})
	if err != nil {
		conn.CloseSend()
		return err
	}
	var p wire.AckPayload
	if err := ack.DecodePayload(&p); err != nil {
		conn.CloseSend()
		return err
	}

	c.mu.Lock()
	c.connectionID = p.ConnectionID
	c.roster = p.Roster
	c.mu.Unlock()
	c.notifyStations(p.Roster)
	log.Printf("Client: <%s> joined wire %d (%d stations)\n", c.cfg.Station, p.Wire, len(p.Roster))

	// Anything keyed while the transport was down goes out now.
	c.kick()
	return nil
}

// sendRequest sends a message carrying a fresh request id and waits for the
// correlated response.
func (c *Client) sendRequest(ctx context.Context, msgType wire.Action_Type, payload any) (*wire.Message, error) {
	c.mu.Lock()
	conn := c.conn
	isConnected := c.isConnected
	c.mu.Unlock()
	if !isConnected || conn == nil {
		return nil, ErrNotConnected
	}

	msg, err := wire.NewMessage(msgType, payload)
	if err != nil {
		return nil, err
	}
	requestID := uuid.NewString()
	msg.RequestID = requestID

	respChan := make(chan *wire.Message, 1)
	c.pendingMu.Lock()
	c.pendingRequests[requestID] = respChan
	c.pendingMu.Unlock()

	// Cleaning the request before the response (success, error, timeout)
	defer func() {
		c.pendingMu.Lock()
		delete(c.pendingRequests, requestID)
		c.pendingMu.Unlock()
	}()

	conn.SendMsg(msg)

	select {
	case resp, ok := <-respChan:
		if !ok {
			return nil, fmt.Errorf("connection lost while waiting for request %s", requestID)
		}
		if resp.Action.Type == wire.ERROR || resp.Error != "" {
			if resp.Error == wire.CodeDuplicateIdentity {
				return nil, ErrDuplicateIdentity
			}
			var ep wire.ErrorPayload
			details := resp.Error
			if resp.DecodePayload(&ep) == nil && ep.Details != "" {
				details = fmt.Sprintf("%s: %s", details, ep.Details)
			}
			return nil, fmt.Errorf("server error response for request %s: %s", requestID, details)
		}
		return resp, nil

	case <-ctx.Done():
		return nil, fmt.Errorf("request %s timed out or was canceled: %w", requestID, ctx.Err())
	}
}

// Send queues one local key edge for transmission. It fails fast with
// ErrNotSender while another station holds the wire, and silently queues
// while the transport is momentarily unavailable. It never blocks, so it is
// safe to call from the key capture path.
func (c *Client) Send(e kob.Edge) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	sender := c.sender
	c.mu.Unlock()

	if sender != "" && sender != c.cfg.Station {
		return ErrNotSender
	}
	c.sendQ.Push(e)
	c.kick()
	return nil
}

func (c *Client) kick() {
	select {
	case c.sendKick <- struct{}{}:
	default:
	}
}

// sendLoop drains the bounded queue onto the wire, one timing message per
// edge, each with the next local sequence number.
func (c *Client) sendLoop() {
	for {
		select {
		case <-c.done:
			return
		case <-c.sendKick:
			c.flushQueue()
		}
	}
}

func (c *Client) flushQueue() {
	c.mu.Lock()
	conn := c.conn
	isConnected := c.isConnected
	c.mu.Unlock()
	if !isConnected || conn == nil {
		return // edges stay queued until the transport is back
	}
	for _, e := range c.sendQ.Drain() {
		c.seq++
		msg, err := wire.NewMessage(wire.TIMING, wire.TimingPayload{
			Station: c.cfg.Station,
			Seq:     c.seq,
			Edges:   []kob.Edge{e},
		})
		if err != nil {
			log.Printf("Client: encode timing: %v\n", err)
			continue
		}
		conn.SendMsg(msg)
	}
}

// Receive returns the channel of remote edges, delivered in per-sender
// sequence order. The channel is closed when the client shuts down or its
// reconnection budget is exhausted.
func (c *Client) Receive() <-chan Incoming {
	return c.incoming
}

func (c *Client) handleIncomingMessage(msg *wire.Message, conn *wire.Connection) error {
	// Check if it's a pending request
	if msg.RequestID != "" {
		c.pendingMu.Lock()
		if respChan, ok := c.pendingRequests[msg.RequestID]; ok {
			delete(c.pendingRequests, msg.RequestID)
			c.pendingMu.Unlock()
			respChan <- msg
			return nil
		}
		c.pendingMu.Unlock()
	}

	switch msg.Action.Type {
	case wire.TIMING:
		var p wire.TimingPayload
		if err := msg.DecodePayload(&p); err != nil {
			return err
		}
		c.offerTiming(p)

	case wire.ROSTER:
		var p wire.RosterPayload
		if err := msg.DecodePayload(&p); err != nil {
			return err
		}
		c.mu.Lock()
		c.roster = p.Stations
		c.mu.Unlock()
		c.pruneReorder(p.Stations)
		c.notifyStations(p.Stations)

	case wire.SENDER:
		var p wire.SenderPayload
		if err := msg.DecodePayload(&p); err != nil {
			return err
		}
		c.mu.Lock()
		c.sender = p.Station
		c.mu.Unlock()
		c.notifySender(p.Station)

	case wire.REJECT:
		var p wire.RejectPayload
		if err := msg.DecodePayload(&p); err != nil {
			return err
		}
		c.mu.Lock()
		c.sender = p.Holder
		c.mu.Unlock()
		log.Printf("Client: send rejected, <%s> holds the wire\n", p.Holder)

	case wire.ERROR:
		log.Printf("Client: server error: %s\n", msg.Error)

	default:
		log.Printf("Client: ignoring unexpected message type %d\n", msg.Action.Type)
	}
	return nil
}

func (c *Client) offerTiming(p wire.TimingPayload) {
	now := time.Now()
	c.reorderMu.Lock()
	rb, ok := c.reorder[p.Station]
	if !ok {
		rb = newReorderBuffer(c.cfg.ReorderTimeout)
		c.reorder[p.Station] = rb
	}
	ready := rb.Offer(p, now)
	c.reorderMu.Unlock()
	c.deliver(ready)
}

// expireLoop flushes reorder gaps that outlived the timeout, so a lost
// message cannot stall a sender's stream when no further traffic arrives.
func (c *Client) expireLoop() {
	tick := c.cfg.ReorderTimeout / 2
	if tick < 10*time.Millisecond {
		tick = 10 * time.Millisecond
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()
	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			now := time.Now()
			c.reorderMu.Lock()
			var ready []wire.TimingPayload
			for _, rb := range c.reorder {
				ready = append(ready, rb.Expire(now)...)
			}
			c.reorderMu.Unlock()
			c.deliver(ready)
		}
	}
}

func (c *Client) deliver(payloads []wire.TimingPayload) {
	for _, p := range payloads {
		for _, e := range p.Edges {
			select {
			case c.incoming <- Incoming{Station: p.Station, Edge: e}:
			default:
				log.Printf("Warning: Client Incoming channel full. Edge from <%s> dropped.\n", p.Station)
			}
		}
	}
}

// pruneReorder forgets sequence state for stations no longer on the wire;
// a returning station starts a fresh sequence.
func (c *Client) pruneReorder(roster []wire.StationInfo) {
	present := make(map[string]bool, len(roster))
	for _, s := range roster {
		present[s.Station] = true
	}
	c.reorderMu.Lock()
	for name := range c.reorder {
		if !present[name] {
			delete(c.reorder, name)
		}
	}
	c.reorderMu.Unlock()
}

func (c *Client) handleDisconnect(conn *wire.Connection) {
	c.mu.Lock()
	if c.conn != conn {
		c.mu.Unlock()
		return // stale connection
	}
	c.isConnected = false
	c.conn = nil
	closed := c.closed
	budget := c.cfg.ReconnectBudget
	c.mu.Unlock()

	// Unblock anyone waiting on a response over this connection.
	c.pendingMu.Lock()
	for reqID, respChan := range c.pendingRequests {
		close(respChan)
		delete(c.pendingRequests, reqID)
	}
	c.pendingMu.Unlock()

	if closed {
		return
	}
	log.Println("Client: Connection lost.")
	if budget <= 0 {
		c.mu.Lock()
		c.lastErr = fmt.Errorf("station: transport failed and reconnection is disabled")
		c.mu.Unlock()
		c.closeIncoming()
		return
	}
	go c.reconnect(budget)
}

func (c *Client) reconnect(budget time.Duration) {
	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = budget
	op := func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		err := c.Connect(ctx)
		if errors.Is(err, ErrDuplicateIdentity) || errors.Is(err, ErrClosed) {
			return backoff.Permanent(err)
		}
		return err
	}
	if err := backoff.Retry(op, b); err != nil {
		log.Printf("Client: reconnect budget exhausted: %v\n", err)
		c.mu.Lock()
		c.lastErr = fmt.Errorf("station: persistent transport failure: %w", err)
		c.mu.Unlock()
		c.closeIncoming()
		return
	}
	log.Println("Client: reconnected.")
}

// Disconnect leaves the wire and releases the transport. It is idempotent.
func (c *Client) Disconnect() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	conn := c.conn
	isConnected := c.isConnected
	c.conn = nil
	c.isConnected = false
	c.mu.Unlock()

	close(c.done)
	if isConnected && conn != nil {
		if msg, err := wire.NewMessage(wire.LEAVE, nil); err == nil {
			conn.SendMsg(msg)
		}
		conn.CloseSend()
	}
	c.closeIncoming()
}

func (c *Client) closeIncoming() {
	c.closeOnce.Do(func() { close(c.incoming) })
}

// MonitorStations registers a callback fired on every roster change.
func (c *Client) MonitorStations(fn func(roster []wire.StationInfo)) {
	c.monMu.Lock()
	c.stationMon = fn
	c.monMu.Unlock()
}

// MonitorSender registers a callback fired whenever the active sender
// changes; an empty station means the wire went idle.
func (c *Client) MonitorSender(fn func(station string)) {
	c.monMu.Lock()
	c.senderMon = fn
	c.monMu.Unlock()
}

func (c *Client) notifyStations(roster []wire.StationInfo) {
	c.monMu.Lock()
	fn := c.stationMon
	c.monMu.Unlock()
	if fn != nil {
		fn(roster)
	}
}

func (c *Client) notifySender(station string) {
	c.monMu.Lock()
	fn := c.senderMon
	c.monMu.Unlock()
	if fn != nil {
		fn(station)
	}
}

// Roster returns the latest known wire membership.
func (c *Client) Roster() []wire.StationInfo {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]wire.StationInfo, len(c.roster))
	copy(out, c.roster)
	return out
}

// CurrentSender returns the station currently holding the wire, or "".
func (c *Client) CurrentSender() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sender
}

// ConnectionID returns the server-assigned id from the join handshake.
func (c *Client) ConnectionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connectionID
}

// Err reports the terminal failure, if any, after the incoming channel has
// been closed.
func (c *Client) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}
