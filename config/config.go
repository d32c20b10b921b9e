// Copyright 2025 DoniLite. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package config loads the settings structure consumed by the morsewire
// binaries. The core packages never read files themselves; they are handed
// plain structs from here.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/DoniLite/morsewire/morse"
	"github.com/DoniLite/morsewire/relay"
	"github.com/DoniLite/morsewire/station"
)

type TLSSettings struct {
	Enabled bool   `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	Addr    string `json:"addr,omitempty" yaml:"addr,omitempty"`
	CertDir string `json:"cert_dir,omitempty" yaml:"cert_dir,omitempty"`
	Email   string `json:"email,omitempty" yaml:"email,omitempty"`
	Env     string `json:"env,omitempty" yaml:"env,omitempty"`
}

type DiscoverySettings struct {
	Enabled  bool   `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	Instance string `json:"instance,omitempty" yaml:"instance,omitempty"`
	Port     int    `json:"port,omitempty" yaml:"port,omitempty"`
}

type RelaySettings struct {
	Listen             string            `json:"listen,omitempty" yaml:"listen,omitempty"`
	QuietInterval      time.Duration     `json:"quiet_interval,omitempty" yaml:"quiet_interval,omitempty"`
	MaxEdgesPerMessage int               `json:"max_edges_per_message,omitempty" yaml:"max_edges_per_message,omitempty"`
	ReqPerMinute       int               `json:"request_per_minute,omitempty" yaml:"request_per_minute,omitempty"`
	LimitWindow        time.Duration     `json:"limit_window,omitempty" yaml:"limit_window,omitempty"`
	TLS                TLSSettings       `json:"tls,omitempty" yaml:"tls,omitempty"`
	Discovery          DiscoverySettings `json:"discovery,omitempty" yaml:"discovery,omitempty"`
}

type StationSettings struct {
	URL             string        `json:"url,omitempty" yaml:"url,omitempty"`
	Wire            int           `json:"wire,omitempty" yaml:"wire,omitempty"`
	Station         string        `json:"station,omitempty" yaml:"station,omitempty"`
	QueueSize       int           `json:"queue_size,omitempty" yaml:"queue_size,omitempty"`
	ReorderTimeout  time.Duration `json:"reorder_timeout,omitempty" yaml:"reorder_timeout,omitempty"`
	ReconnectBudget time.Duration `json:"reconnect_budget,omitempty" yaml:"reconnect_budget,omitempty"`
	// Discover makes the station find the relay over mDNS when URL is empty.
	Discover bool `json:"discover,omitempty" yaml:"discover,omitempty"`
	// RecordTo enables the recorder, appending to the given file.
	RecordTo string `json:"record_to,omitempty" yaml:"record_to,omitempty"`
}

type MorseSettings struct {
	WPM    float64 `json:"wpm,omitempty" yaml:"wpm,omitempty"`
	MinWPM float64 `json:"min_wpm,omitempty" yaml:"min_wpm,omitempty"`
	MaxWPM float64 `json:"max_wpm,omitempty" yaml:"max_wpm,omitempty"`
	Window int     `json:"window,omitempty" yaml:"window,omitempty"`
}

type Config struct {
	Relay   RelaySettings   `json:"relay,omitempty" yaml:"relay,omitempty"`
	Station StationSettings `json:"station,omitempty" yaml:"station,omitempty"`
	Morse   MorseSettings   `json:"morse,omitempty" yaml:"morse,omitempty"`
}

// RelayConfig converts the settings into the relay package's config.
func (c *Config) RelayConfig() relay.Config {
	return relay.Config{
		QuietInterval:      c.Relay.QuietInterval,
		MaxEdgesPerMessage: c.Relay.MaxEdgesPerMessage,
		ReqPerMinute:       c.Relay.ReqPerMinute,
		LimitWindow:        c.Relay.LimitWindow,
	}
}

// StationConfig converts the settings into the station package's config.
func (c *Config) StationConfig() station.Config {
	return station.Config{
		URL:             c.Station.URL,
		Wire:            c.Station.Wire,
		Station:         c.Station.Station,
		QueueSize:       c.Station.QueueSize,
		ReorderTimeout:  c.Station.ReorderTimeout,
		ReconnectBudget: c.Station.ReconnectBudget,
	}
}

// DecoderConfig converts the settings into the codec's config.
func (c *Config) DecoderConfig() morse.DecoderConfig {
	return morse.DecoderConfig{
		WPM:    c.Morse.WPM,
		MinWPM: c.Morse.MinWPM,
		MaxWPM: c.Morse.MaxWPM,
		Window: c.Morse.Window,
	}
}

func LoadConfigFile(configPath string) ([]byte, error) {
	cwd, err := os.Getwd()
	if err != nil {
		cwd = "/"
	}
	defPath := configPath
	if !path.IsAbs(configPath) {
		defPath = path.Join(cwd, configPath)
	}

	content, err := os.ReadFile(defPath)
	if err != nil {
		return nil, fmt.Errorf("error during the config file reading at: %s", defPath)
	}

	return content, nil
}

func DiscoverConfigFormat(configPath string) (string, error) {
	ext := path.Ext(configPath)
	var format string

	if ext == "" {
		return "", fmt.Errorf("invalid path provided")
	}

	if strings.Contains(ext, "json") {
		format = "json"
	} else if strings.Contains(ext, "yml") || strings.Contains(ext, "yaml") {
		format = "yaml"
	}

	return format, nil
}

func ParseConfig(content []byte, format string) (*Config, error) {
	var config Config
	var err error

	if format == "json" {
		err = json.Unmarshal(content, &config)
	} else {
		err = yaml.Unmarshal(content, &config)
	}

	if err != nil {
		return nil, err
	}

	return &config, nil
}
