package wire

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// Deadline for any single write on the socket.
	writeWait = 10 * time.Second
	// The peer must show life (pong or data) within this window.
	pongWait = 60 * time.Second
	// Ping cadence; must stay under pongWait.
	pingPeriod = (pongWait * 9) / 10
	// Max message body. Timing payloads stay small; anything larger is a
	// protocol violation.
	maxMessageSize = 4096
)

// Connection wraps one websocket with the pump pair both sides of the wire
// use. All writes go through WritePump, all reads through ReadPump, so the
// socket never sees concurrent access.
type Connection struct {
	ws   *websocket.Conn
	send chan *Message

	// closeMu serializes SendMsg against CloseSend: the send channel must
	// never be closed while a queueing attempt is in flight.
	closeMu sync.Mutex
	closed  bool
}

func NewConnection(ws *websocket.Conn) *Connection {
	return &Connection{
		ws:   ws,
		send: make(chan *Message, 256),
	}
}

// RemoteAddr reports the peer address for logs.
func (c *Connection) RemoteAddr() string {
	return c.ws.RemoteAddr().String()
}

func (c *Connection) writeFrame(frameType int, body []byte) error {
	c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	return c.ws.WriteMessage(frameType, body)
}

func (c *Connection) writeMessage(msg *Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		// Encoding failure is a bug in the payload type, not a transport
		// failure; skip the message and keep the connection.
		log.Printf("WritePump: cannot marshal message type %d: %v\n", msg.Action.Type, err)
		return nil
	}
	return c.writeFrame(websocket.TextMessage, body)
}

// WritePump drains the send channel to the websocket and keeps the
// connection alive with periodic pings. It owns all writes on the socket.
func (c *Connection) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.ws.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				c.writeFrame(websocket.CloseMessage, nil)
				return
			}
			if err := c.writeMessage(msg); err != nil {
				log.Printf("WritePump: write failed: %v\n", err)
				return
			}

		case <-ticker.C:
			if err := c.writeFrame(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ReadPump delivers every well-formed incoming message to handler. A
// malformed message is a protocol error: it is logged and answered with a
// coded ERROR, and the connection stays alive.
func (c *Connection) ReadPump(handler func(msg *Message, conn *Connection) error, disconnect func(conn *Connection)) {
	defer func() {
		disconnect(c)
		c.ws.Close()
	}()

	c.ws.SetReadLimit(maxMessageSize)
	c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		frameType, body, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				log.Printf("ReadPump: read failed: %v\n", err)
			}
			return
		}
		if frameType != websocket.TextMessage {
			continue
		}

		var msg Message
		if err := json.Unmarshal(body, &msg); err != nil {
			log.Printf("ReadPump: discarding malformed message: %v --- Raw: %s\n", err, string(body))
			c.SendMsg(NewErrorMessage(CodeProtocol, err.Error()))
			continue
		}
		if err := handler(&msg, c); err != nil {
			log.Printf("ReadPump: handler rejected message type %d: %v\n", msg.Action.Type, err)
			c.SendMsg(NewErrorMessage(CodeProtocol, err.Error()))
		}

		c.ws.SetReadDeadline(time.Now().Add(pongWait))
	}
}

// SendMsg queues a message without blocking. The buffer exists so that a
// slow peer never stalls timing capture; when it overflows the message is
// dropped, since stale key timing is worse than a gap. Messages queued
// after CloseSend are dropped silently.
func (c *Connection) SendMsg(msg *Message) {
	c.closeMu.Lock()
	defer c.closeMu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.send <- msg:
	default:
		log.Printf("Warning: Send channel full for connection %p. Message type %d dropped.\n", c.ws, msg.Action.Type)
	}
}

// CloseSend closes the send channel and stops the WritePump, which in turn
// closes the socket and unblocks the ReadPump. It is idempotent and safe
// against concurrent SendMsg calls.
func (c *Connection) CloseSend() {
	c.closeMu.Lock()
	defer c.closeMu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}
