package station

import (
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/DoniLite/morsewire/kob"
	"github.com/DoniLite/morsewire/wire"
)

var (
	// ErrNotSender is returned by Send while another station holds the wire.
	ErrNotSender = errors.New("station: not the active sender")
	// ErrDuplicateIdentity is returned by Connect when the station name is
	// already taken on the wire; retry with a different identity.
	ErrDuplicateIdentity = errors.New("station: identity already on wire")
	ErrNotConnected      = errors.New("station: not connected")
	ErrClosed            = errors.New("station: client closed")
)

// Config is consumed from the settings loader.
type Config struct {
	// URL of the relay wire endpoint, e.g. ws://relay.example:7007/wire.
	URL string `json:"url" yaml:"url"`
	// Wire number to join.
	Wire int `json:"wire" yaml:"wire"`
	// Station is the operator-chosen identity shown to other stations.
	Station string `json:"station" yaml:"station"`

	// QueueSize bounds the local send queue; overflow drops the oldest
	// edge first.
	QueueSize int `json:"queue_size,omitempty" yaml:"queue_size,omitempty"`
	// ReorderTimeout is how long a gap in a sender's sequence is waited
	// out before being skipped.
	ReorderTimeout time.Duration `json:"reorder_timeout,omitempty" yaml:"reorder_timeout,omitempty"`
	// ReconnectBudget caps the total time spent on reconnection attempts
	// after a transport failure. Zero disables automatic reconnection.
	ReconnectBudget time.Duration `json:"reconnect_budget,omitempty" yaml:"reconnect_budget,omitempty"`
}

const (
	DefaultQueueSize      = 64
	DefaultReorderTimeout = 250 * time.Millisecond
)

// Incoming is one remote edge delivered to the local sounder path.
type Incoming struct {
	Station string
	Edge    kob.Edge
}

// Client is one station's connection to the relay.
type Client struct {
	cfg    Config
	dialer *websocket.Dialer

	mu           sync.Mutex
	conn         *wire.Connection
	isConnected  bool
	closed       bool
	connectionID string
	roster       []wire.StationInfo
	sender       string // current active sender, "" when the wire is idle
	lastErr      error

	pendingMu       sync.Mutex
	pendingRequests map[string]chan *wire.Message

	seq uint64 // local per-sender sequence, monotonically increasing

	sendQ    *edgeQueue
	sendKick chan struct{}
	done     chan struct{}

	incoming  chan Incoming
	closeOnce sync.Once

	reorderMu sync.Mutex
	reorder   map[string]*reorderBuffer

	monMu      sync.Mutex
	stationMon func([]wire.StationInfo)
	senderMon  func(string)
}
