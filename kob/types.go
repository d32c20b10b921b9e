package kob

import (
	"errors"
	"time"
)

// Direction of a contact transition.
type Direction uint8

const (
	KeyUp Direction = iota
	KeyDown
)

func (d Direction) String() string {
	if d == KeyDown {
		return "down"
	}
	return "up"
}

// Edge is a single timed contact transition. T is the timestamp in
// microseconds relative to the origin of the stream the edge belongs to.
// Edges are immutable once created.
type Edge struct {
	Dir Direction `json:"dir" yaml:"dir"`
	T   int64     `json:"t" yaml:"t"`
}

// At returns the edge timestamp as a duration from the stream origin.
func (e Edge) At() time.Duration {
	return time.Duration(e.T) * time.Microsecond
}

// Micros converts a duration to the microsecond scale used by Edge.T.
func Micros(d time.Duration) int64 {
	return int64(d / time.Microsecond)
}

// CodeSource identifies where a timing sequence originated.
type CodeSource string

const (
	SourceLocal CodeSource = "local"
	SourceWire  CodeSource = "wire"
)

var ErrHardware = errors.New("kob: hardware drive failure")

// Key produces contact edges. PollEdge never blocks: it returns the next
// captured edge and true, or a zero Edge and false when none is available.
// The edge capture path behind a Key must never wait on network I/O.
type Key interface {
	PollEdge() (Edge, bool)
}

// Sounder reproduces contact edges. DriveEdge reports ErrHardware (possibly
// wrapped) when the actuator cannot be driven.
type Sounder interface {
	DriveEdge(e Edge) error
}
