// Copyright 2025 DoniLite. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package kob

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVirtualKeyPollOrder(t *testing.T) {
	k := NewVirtualKey()
	if _, ok := k.PollEdge(); ok {
		t.Fatal("empty key should have no edge")
	}

	k.Press(Edge{Dir: KeyDown, T: 0}, Edge{Dir: KeyUp, T: 60000})
	e, ok := k.PollEdge()
	require.True(t, ok)
	assert.Equal(t, KeyDown, e.Dir)
	e, ok = k.PollEdge()
	require.True(t, ok)
	assert.Equal(t, KeyUp, e.Dir)
	_, ok = k.PollEdge()
	assert.False(t, ok, "key drained")
}

func TestMemorySounderFailAfter(t *testing.T) {
	s := NewMemorySounder()
	s.FailAfter = 1
	require.NoError(t, s.DriveEdge(Edge{Dir: KeyDown, T: 0}))
	err := s.DriveEdge(Edge{Dir: KeyUp, T: 60000})
	require.ErrorIs(t, err, ErrHardware)
	assert.Len(t, s.Edges(), 1)
}

func TestRecorderRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.jsonl")

	rec := NewRecorder(path, "", "KA", 101)
	first := []Edge{{Dir: KeyDown, T: 0}, {Dir: KeyUp, T: 60000}}
	second := []Edge{{Dir: KeyDown, T: 0}, {Dir: KeyUp, T: 180000}}
	require.NoError(t, rec.Record(first, SourceLocal))
	require.NoError(t, rec.Record(second, SourceWire))

	// One JSON object per line, append-only.
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], `"o":"local"`)
	assert.Contains(t, lines[1], `"o":"wire"`)

	player := NewRecorder("", path, "", 0)
	snd := NewMemorySounder()
	var stations []string
	var wires []int
	err = player.Playback(snd, PlaybackOptions{
		MaxSilence:      time.Millisecond,
		SpeedFactor:     400,
		StationCallback: func(s string) { stations = append(stations, s) },
		WireCallback:    func(w int) { wires = append(wires, w) },
	})
	require.NoError(t, err)

	want := append(append([]Edge{}, first...), second...)
	assert.Equal(t, want, snd.Edges())
	assert.Equal(t, []string{"KA"}, stations, "callback fires once per station change")
	assert.Equal(t, []int{101}, wires)
}

func TestRecorderPlaybackStopsOnSounderFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.jsonl")
	rec := NewRecorder(path, "", "KA", 1)
	require.NoError(t, rec.Record([]Edge{{Dir: KeyDown, T: 0}, {Dir: KeyUp, T: 1000}}, SourceLocal))

	player := NewRecorder("", path, "", 0)
	snd := NewMemorySounder()
	snd.FailAfter = 1
	err := player.Playback(snd, PlaybackOptions{SpeedFactor: 400})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrHardware))
}

func TestRecorderPlaybackRejectsBadRecord(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.jsonl")
	require.NoError(t, os.WriteFile(path, []byte("not json\n"), 0o644))

	player := NewRecorder("", path, "", 0)
	err := player.Playback(NewMemorySounder(), PlaybackOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad record")
}

func TestRecorderRequiresPaths(t *testing.T) {
	r := NewRecorder("", "", "KA", 1)
	require.Error(t, r.Record([]Edge{{Dir: KeyDown}}, SourceLocal))
	require.Error(t, r.Playback(NewMemorySounder(), PlaybackOptions{}))
}

func TestEdgeTimeHelpers(t *testing.T) {
	e := Edge{Dir: KeyDown, T: 1500}
	assert.Equal(t, 1500*time.Microsecond, e.At())
	assert.Equal(t, int64(1500), Micros(1500*time.Microsecond))
	assert.Equal(t, "down", KeyDown.String())
	assert.Equal(t, "up", KeyUp.String())
}
