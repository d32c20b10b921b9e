// Copyright 2025 DoniLite. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const yamlSample = `
relay:
  listen: ":7007"
  quiet_interval: 2s
  max_edges_per_message: 128
station:
  url: ws://localhost:7007/wire
  wire: 101
  station: "KA, Test Office"
  reorder_timeout: 500ms
morse:
  wpm: 25
`

const jsonSample = `{
  "relay": {"listen": ":7007", "request_per_minute": 30},
  "station": {"wire": 5, "station": "KB"},
  "morse": {"wpm": 18, "window": 30}
}`

func TestParseConfigYAML(t *testing.T) {
	cfg, err := ParseConfig([]byte(yamlSample), "yaml")
	require.NoError(t, err)

	assert.Equal(t, ":7007", cfg.Relay.Listen)
	assert.Equal(t, 2*time.Second, cfg.Relay.QuietInterval)
	assert.Equal(t, 128, cfg.Relay.MaxEdgesPerMessage)
	assert.Equal(t, 101, cfg.Station.Wire)
	assert.Equal(t, "KA, Test Office", cfg.Station.Station)
	assert.Equal(t, 500*time.Millisecond, cfg.Station.ReorderTimeout)
	assert.Equal(t, 25.0, cfg.Morse.WPM)
}

func TestParseConfigJSON(t *testing.T) {
	cfg, err := ParseConfig([]byte(jsonSample), "json")
	require.NoError(t, err)

	assert.Equal(t, 30, cfg.Relay.ReqPerMinute)
	assert.Equal(t, 5, cfg.Station.Wire)
	assert.Equal(t, 18.0, cfg.Morse.WPM)
	assert.Equal(t, 30, cfg.Morse.Window)
}

func TestParseConfigBadContent(t *testing.T) {
	_, err := ParseConfig([]byte("{not valid"), "json")
	require.Error(t, err)
}

func TestDiscoverConfigFormat(t *testing.T) {
	cases := []struct {
		path string
		want string
	}{
		{"settings.yaml", "yaml"},
		{"settings.yml", "yaml"},
		{"settings.json", "json"},
	}
	for _, c := range cases {
		got, err := DiscoverConfigFormat(c.path)
		require.NoError(t, err)
		assert.Equal(t, c.want, got, c.path)
	}

	_, err := DiscoverConfigFormat("no-extension")
	require.Error(t, err)
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yamlSample), 0o644))

	content, err := LoadConfigFile(path)
	require.NoError(t, err)
	assert.Equal(t, yamlSample, string(content))

	_, err = LoadConfigFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestConverters(t *testing.T) {
	cfg, err := ParseConfig([]byte(yamlSample), "yaml")
	require.NoError(t, err)

	rc := cfg.RelayConfig()
	assert.Equal(t, 2*time.Second, rc.QuietInterval)
	assert.Equal(t, 128, rc.MaxEdgesPerMessage)

	sc := cfg.StationConfig()
	assert.Equal(t, "ws://localhost:7007/wire", sc.URL)
	assert.Equal(t, 101, sc.Wire)

	dc := cfg.DecoderConfig()
	assert.Equal(t, 25.0, dc.WPM)
}

func TestWatchConfigReloads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yamlSample), 0o644))

	reloaded := make(chan *Config, 1)
	require.NoError(t, WatchConfig(path, func(c *Config) {
		select {
		case reloaded <- c:
		default:
		}
	}))

	updated := "relay:\n  listen: \":9009\"\n"
	require.NoError(t, os.WriteFile(path, []byte(updated), 0o644))

	select {
	case cfg := <-reloaded:
		assert.Equal(t, ":9009", cfg.Relay.Listen)
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for config reload")
	}
}
