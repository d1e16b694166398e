/*
 * Copyright 2026 Sipsentry Contributors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package config loads the monitoring engine configuration from environment
// variables.
package config

import (
	"time"

	"github.com/sipsentry/sipsentry/pkg/db"
	"github.com/sipsentry/sipsentry/pkg/logger"
	"github.com/sipsentry/sipsentry/pkg/pbx"
)

// Event sink modes.
const (
	EventsWebSocket = "websocket"
	EventsNATS      = "nats"
	EventsOff       = "off"
)

// MonitorConfig holds the poll-cycle knobs. Units follow the original
// deployment convention: interval and port timeout in milliseconds, ping
// timeout in seconds.
type MonitorConfig struct {
	PollIntervalMS int `json:"poll_interval_ms"`
	PingTimeoutSec int `json:"ping_timeout_sec"`
	SIPPort        int `json:"sip_port"`
	SIPTimeoutMS   int `json:"sip_timeout_ms"`
	Concurrency    int `json:"concurrency"`
}

func (m MonitorConfig) Interval() time.Duration {
	return time.Duration(m.PollIntervalMS) * time.Millisecond
}

func (m MonitorConfig) PingTimeout() time.Duration {
	return time.Duration(m.PingTimeoutSec) * time.Second
}

func (m MonitorConfig) SIPTimeout() time.Duration {
	return time.Duration(m.SIPTimeoutMS) * time.Millisecond
}

// EventsConfig selects and configures the live-update sink.
type EventsConfig struct {
	Mode       string `json:"mode"`
	ListenAddr string `json:"listen_addr"`
	NATSURL    string `json:"nats_url"`
	NATSStream string `json:"nats_stream"`
}

// RetentionConfig controls the history maintenance loop.
type RetentionConfig struct {
	HistoryDays        int `json:"history_days"`
	SweepIntervalHours int `json:"sweep_interval_hours"`
}

// Config is the full engine configuration.
type Config struct {
	Monitor   MonitorConfig   `json:"monitor"`
	PBX       pbx.Config      `json:"pbx_api"`
	Database  db.Config       `json:"database"`
	Events    EventsConfig    `json:"events"`
	Retention RetentionConfig `json:"retention"`
	Logging   *logger.Config  `json:"logging"`
}

// Load reads the configuration from the environment and applies defaults.
func Load() (*Config, error) {
	cfg := &Config{}

	if err := loadFromEnv(cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()

	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Monitor.PollIntervalMS <= 0 {
		c.Monitor.PollIntervalMS = 5000
	}

	if c.Monitor.PingTimeoutSec <= 0 {
		c.Monitor.PingTimeoutSec = 3
	}

	if c.Monitor.SIPPort <= 0 {
		c.Monitor.SIPPort = 5060
	}

	if c.Monitor.SIPTimeoutMS <= 0 {
		c.Monitor.SIPTimeoutMS = 2000
	}

	if c.Monitor.Concurrency <= 0 {
		c.Monitor.Concurrency = 16
	}

	if c.PBX.Username == "" {
		c.PBX.Username = "api"
	}

	if c.Events.Mode == "" {
		c.Events.Mode = EventsWebSocket
	}

	if c.Events.ListenAddr == "" {
		c.Events.ListenAddr = ":8081"
	}

	if c.Events.NATSStream == "" {
		c.Events.NATSStream = "sipsentry-events"
	}

	if c.Retention.HistoryDays <= 0 {
		c.Retention.HistoryDays = 30
	}

	if c.Retention.SweepIntervalHours <= 0 {
		c.Retention.SweepIntervalHours = 12
	}

	if c.Logging == nil {
		c.Logging = logger.DefaultConfig()
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}

	if c.Logging.Output == "" {
		c.Logging.Output = "stdout"
	}
}
