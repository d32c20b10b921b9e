// Copyright 2025 DoniLite. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package station

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DoniLite/morsewire/kob"
	"github.com/DoniLite/morsewire/relay"
	"github.com/DoniLite/morsewire/wire"
)

func newTestRelay(t *testing.T, cfg relay.Config) string {
	t.Helper()
	srv := relay.NewServer(cfg)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		ts.Close()
		srv.Close()
	})
	return "ws" + strings.TrimPrefix(ts.URL, "http") + "/wire"
}

func connect(t *testing.T, url, name string, wireNo int) *Client {
	t.Helper()
	c := NewClient(Config{URL: url, Wire: wireNo, Station: name})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, c.Connect(ctx))
	t.Cleanup(c.Disconnect)
	return c
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, d time.Duration, cond func() bool, what string) {
	t.Helper()
	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestConnectJoinsWire(t *testing.T) {
	url := newTestRelay(t, relay.Config{})

	a := connect(t, url, "KA", 1)
	require.NotEmpty(t, a.ConnectionID())
	require.Len(t, a.Roster(), 1)
	assert.Equal(t, "KA", a.Roster()[0].Station)

	b := connect(t, url, "KB", 1)
	require.Len(t, b.Roster(), 2)
	waitFor(t, 2*time.Second, func() bool { return len(a.Roster()) == 2 }, "roster broadcast to KA")
}

func TestConnectDuplicateIdentity(t *testing.T) {
	url := newTestRelay(t, relay.Config{})

	connect(t, url, "KA", 1)

	dup := NewClient(Config{URL: url, Wire: 1, Station: "KA"})
	defer dup.Disconnect()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := dup.Connect(ctx)
	require.ErrorIs(t, err, ErrDuplicateIdentity)
}

func TestSendDeliversToPeersInOrder(t *testing.T) {
	url := newTestRelay(t, relay.Config{})

	a := connect(t, url, "KA", 1)
	b := connect(t, url, "KB", 1)

	const n = 20
	for i := 0; i < n; i++ {
		dir := kob.KeyDown
		if i%2 == 1 {
			dir = kob.KeyUp
		}
		require.NoError(t, a.Send(kob.Edge{Dir: dir, T: int64(i) * 1000}))
	}

	for i := 0; i < n; i++ {
		select {
		case in, ok := <-b.Receive():
			require.True(t, ok, "incoming channel closed early")
			assert.Equal(t, "KA", in.Station)
			assert.Equal(t, int64(i)*1000, in.Edge.T, "edges must arrive in key order")
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for edge %d", i)
		}
	}
}

func TestSendFailsFastWhilePeerHoldsWire(t *testing.T) {
	url := newTestRelay(t, relay.Config{QuietInterval: time.Minute})

	a := connect(t, url, "KA", 1)
	b := connect(t, url, "KB", 1)

	require.NoError(t, a.Send(kob.Edge{Dir: kob.KeyDown, T: 0}))
	waitFor(t, 2*time.Second, func() bool { return b.CurrentSender() == "KA" }, "sender announcement at KB")

	err := b.Send(kob.Edge{Dir: kob.KeyDown, T: 0})
	require.ErrorIs(t, err, ErrNotSender)

	// The holder itself may keep sending.
	require.NoError(t, a.Send(kob.Edge{Dir: kob.KeyUp, T: 1000}))
}

func TestStationMonitorSeesRosterChanges(t *testing.T) {
	url := newTestRelay(t, relay.Config{})

	a := connect(t, url, "KA", 1)
	sizes := make(chan int, 8)
	a.MonitorStations(func(r []wire.StationInfo) { sizes <- len(r) })

	connect(t, url, "KB", 1)

	select {
	case n := <-sizes:
		assert.Equal(t, 2, n)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for roster callback")
	}
}

func TestSenderMonitorSeesIdleAfterQuietInterval(t *testing.T) {
	url := newTestRelay(t, relay.Config{QuietInterval: 50 * time.Millisecond})

	a := connect(t, url, "KA", 1)
	b := connect(t, url, "KB", 1)

	senders := make(chan string, 8)
	b.MonitorSender(func(s string) { senders <- s })

	require.NoError(t, a.Send(kob.Edge{Dir: kob.KeyDown, T: 0}))

	expectSender := func(want string) {
		t.Helper()
		for {
			select {
			case got := <-senders:
				if got == want {
					return
				}
			case <-time.After(2 * time.Second):
				t.Fatalf("timed out waiting for sender %q", want)
			}
		}
	}
	expectSender("KA")
	expectSender("") // wire goes idle once KA stays quiet
	waitFor(t, 2*time.Second, func() bool { return b.CurrentSender() == "" }, "idle sender state")
	require.NoError(t, b.Send(kob.Edge{Dir: kob.KeyDown, T: 0}))
}

func TestDisconnectIsIdempotent(t *testing.T) {
	url := newTestRelay(t, relay.Config{})

	a := connect(t, url, "KA", 1)
	b := connect(t, url, "KB", 1)

	a.Disconnect()
	a.Disconnect() // second call is a no-op

	_, ok := <-a.Receive()
	assert.False(t, ok, "incoming channel should be closed after Disconnect")
	assert.ErrorIs(t, a.Send(kob.Edge{Dir: kob.KeyDown, T: 0}), ErrClosed)

	// The peer sees the departure.
	waitFor(t, 2*time.Second, func() bool { return len(b.Roster()) == 1 }, "roster shrink at KB")
}

func TestIncomingClosesWithoutReconnectBudget(t *testing.T) {
	srv := relay.NewServer(relay.Config{})
	ts := httptest.NewServer(srv.Handler())
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/wire"

	a := NewClient(Config{URL: url, Wire: 1, Station: "KA"})
	defer a.Disconnect()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, a.Connect(ctx))

	// Kill the relay out from under the client.
	srv.Close()
	ts.Close()

	select {
	case _, ok := <-a.Receive():
		assert.False(t, ok, "incoming channel should close on terminal failure")
	case <-time.After(5 * time.Second):
		t.Fatal("incoming channel never closed")
	}
	assert.Error(t, a.Err())
}
