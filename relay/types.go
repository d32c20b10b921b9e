package relay

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/DoniLite/morsewire/wire"
)

const (
	LOG_INFO = iota
	LOG_WARNING
	LOG_ERROR
)

type Logs struct {
	Message string
	LogType int
}

// Config is consumed from the settings loader; the relay does not read
// files itself.
type Config struct {
	// QuietInterval is how long the active sender may stay silent before
	// the sender slot is released and the next transmitter wins it.
	QuietInterval time.Duration `json:"quiet_interval,omitempty" yaml:"quiet_interval,omitempty"`
	// MaxEdgesPerMessage bounds a single timing payload.
	MaxEdgesPerMessage int `json:"max_edges_per_message,omitempty" yaml:"max_edges_per_message,omitempty"`
	// ReqPerMinute and LimitWindow feed the rate-limit middleware on the
	// HTTP surface.
	ReqPerMinute int           `json:"request_per_minute,omitempty" yaml:"request_per_minute,omitempty"`
	LimitWindow  time.Duration `json:"limit_window,omitempty" yaml:"limit_window,omitempty"`
}

const (
	DefaultQuietInterval      = time.Second
	DefaultMaxEdgesPerMessage = 256
)

// Server accepts station connections and routes them onto wire hubs.
type Server struct {
	upgrader websocket.Upgrader
	cfg      Config

	mu    sync.Mutex
	wires map[int]*wireHub
	done  chan struct{}

	// Logs receives line activity for an observing surface (GUI, logs
	// collector). Sends never block; entries are dropped when full.
	Logs chan Logs
}

// session is one station admitted to a wire. It lives in the hub's tables
// and is touched only by the hub goroutine once registered.
type session struct {
	conn    *wire.Connection
	id      string // server-assigned connection id
	station string // operator-chosen identity
	wireNo  int
	seq     uint64 // server arrival sequence, re-stamped per sender
}

// joinRequest asks a hub to admit a session; the hub answers on reply.
type joinRequest struct {
	sess  *session
	reply chan joinResult
}

// timingFrame is one timing payload on its way through a hub.
type timingFrame struct {
	sess    *session
	payload wire.TimingPayload
}

// wireHub owns every mutation of one wire's roster and arbitration state.
// All of it happens on the run goroutine: single-writer discipline, and
// never locked across wires.
type wireHub struct {
	no  int
	cfg Config

	register   chan joinRequest
	unregister chan *session
	timing     chan timingFrame
	done       chan struct{}

	// run-goroutine state, no locks
	stations map[*session]bool
	byName   map[string]*session
	arb      *Arbiter

	logf func(level int, format string, args ...any)
}
