package kob

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Recorder appends timing streams to a JSON-lines file and plays them back
// through a Sounder. One line per record:
//
//	{"ts":<ms epoch>,"w":<wire>,"s":"<station>","o":"local|wire","e":[{"dir":1,"t":0},...]}
type Recorder struct {
	TargetPath string
	SourcePath string
	StationID  string
	Wire       int
}

type record struct {
	TS      int64      `json:"ts"`
	Wire    int        `json:"w"`
	Station string     `json:"s"`
	Origin  CodeSource `json:"o"`
	Edges   []Edge     `json:"e"`
}

func NewRecorder(targetPath, sourcePath, stationID string, wire int) *Recorder {
	return &Recorder{
		TargetPath: targetPath,
		SourcePath: sourcePath,
		StationID:  stationID,
		Wire:       wire,
	}
}

// Timestamp returns the current millisecond epoch timestamp used in records.
func Timestamp() int64 {
	return time.Now().UnixMilli()
}

// Record appends one timing sequence with its context information.
func (r *Recorder) Record(edges []Edge, origin CodeSource) error {
	if r.TargetPath == "" {
		return fmt.Errorf("recorder: no target file configured")
	}
	fp, err := os.OpenFile(r.TargetPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer fp.Close()
	data := record{
		TS:      Timestamp(),
		Wire:    r.Wire,
		Station: r.StationID,
		Origin:  origin,
		Edges:   edges,
	}
	line, err := json.Marshal(&data)
	if err != nil {
		return err
	}
	line = append(line, '\n')
	_, err = fp.Write(line)
	return err
}

// PlaybackOptions tune how a recording is replayed.
type PlaybackOptions struct {
	// MaxSilence clamps realtime pauses between records. Zero keeps the
	// recorded pauses as-is.
	MaxSilence time.Duration
	// SpeedFactor scales playback speed in percent; 100 (or 0) is realtime.
	SpeedFactor int
	// StationCallback fires whenever the recorded station ID changes.
	StationCallback func(station string)
	// WireCallback fires whenever the recorded wire number changes.
	WireCallback func(wire int)
}

// Playback replays the source file through the given sounder. Inter-record
// pauses follow the recorded timestamps; edge spacing inside a record
// follows the edge timestamps. Empty records are skipped.
func (r *Recorder) Playback(s Sounder, opts PlaybackOptions) error {
	if r.SourcePath == "" {
		return fmt.Errorf("recorder: no source file configured")
	}
	fp, err := os.Open(r.SourcePath)
	if err != nil {
		return err
	}
	defer fp.Close()

	sf := 1.0
	if opts.SpeedFactor > 0 && opts.SpeedFactor != 100 {
		sf = 100.0 / float64(opts.SpeedFactor)
	}

	var (
		lastTS      int64 = -1
		lastStation string
		lastWire    = -1
	)
	scanner := bufio.NewScanner(fp)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		var rec record
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			return fmt.Errorf("recorder: bad record: %w", err)
		}
		if rec.Wire != lastWire {
			lastWire = rec.Wire
			if opts.WireCallback != nil {
				opts.WireCallback(rec.Wire)
			}
		}
		if rec.Station != lastStation {
			lastStation = rec.Station
			if opts.StationCallback != nil {
				opts.StationCallback(rec.Station)
			}
		}
		if len(rec.Edges) == 0 {
			continue
		}
		if lastTS >= 0 {
			pause := time.Duration(rec.TS-lastTS) * time.Millisecond
			if opts.MaxSilence > 0 && pause > opts.MaxSilence {
				pause = opts.MaxSilence
			}
			if pause > 0 {
				time.Sleep(time.Duration(sf * float64(pause)))
			}
		}
		lastTS = rec.TS

		origin := rec.Edges[0].At()
		start := time.Now()
		for _, e := range rec.Edges {
			due := time.Duration(sf * float64(e.At()-origin))
			if wait := due - time.Since(start); wait > 0 {
				time.Sleep(wait)
			}
			if err := s.DriveEdge(e); err != nil {
				return err
			}
		}
		r.Wire = rec.Wire
		r.StationID = rec.Station
	}
	return scanner.Err()
}
