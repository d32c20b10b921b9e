package station

import (
	"github.com/gorilla/websocket"

	"github.com/DoniLite/morsewire/wire"
)

func NewClient(cfg Config) *Client {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultQueueSize
	}
	if cfg.ReorderTimeout <= 0 {
		cfg.ReorderTimeout = DefaultReorderTimeout
	}
	c := &Client{
		cfg:             cfg,
		dialer:          websocket.DefaultDialer,
		pendingRequests: make(map[string]chan *wire.Message),
		sendQ:           newEdgeQueue(cfg.QueueSize),
		sendKick:        make(chan struct{}, 1),
		done:            make(chan struct{}),
		incoming:        make(chan Incoming, 256),
		reorder:         make(map[string]*reorderBuffer),
	}
	go c.sendLoop()
	go c.expireLoop()
	return c
}
