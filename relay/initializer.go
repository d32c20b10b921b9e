package relay

import (
	"net/http"

	"github.com/gorilla/websocket"
)

func NewServer(cfg Config) *Server {
	if cfg.QuietInterval <= 0 {
		cfg.QuietInterval = DefaultQuietInterval
	}
	if cfg.MaxEdgesPerMessage <= 0 {
		cfg.MaxEdgesPerMessage = DefaultMaxEdgesPerMessage
	}
	return &Server{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		cfg:   cfg,
		wires: make(map[int]*wireHub),
		done:  make(chan struct{}),
		Logs:  make(chan Logs, 128),
	}
}
