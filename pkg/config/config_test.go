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

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 5000, cfg.Monitor.PollIntervalMS)
	assert.Equal(t, 3, cfg.Monitor.PingTimeoutSec)
	assert.Equal(t, 5060, cfg.Monitor.SIPPort)
	assert.Equal(t, 2000, cfg.Monitor.SIPTimeoutMS)
	assert.Equal(t, 16, cfg.Monitor.Concurrency)
	assert.Equal(t, "api", cfg.PBX.Username)
	assert.Empty(t, cfg.PBX.URL, "adapter must default to disabled")
	assert.Equal(t, EventsWebSocket, cfg.Events.Mode)
	assert.Equal(t, 30, cfg.Retention.HistoryDays)
	require.NotNil(t, cfg.Logging)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("MONITOR_POLL_INTERVAL_MS", "10000")
	t.Setenv("MONITOR_SIP_PORT", "5070")
	t.Setenv("MONITOR_PING_TIMEOUT_SEC", "1")
	t.Setenv("PBX_API_URL", "http://pbx.internal:8088")
	t.Setenv("PBX_API_PASSWORD", "hunter2")
	t.Setenv("DATABASE_HOST", "db.internal")
	t.Setenv("DATABASE_MAX_CONNS", "4")
	t.Setenv("EVENTS_MODE", "nats")
	t.Setenv("EVENTS_NATS_URL", "nats://broker:4222")
	t.Setenv("RETENTION_HISTORY_DAYS", "7")
	t.Setenv("LOGGING_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 10*time.Second, cfg.Monitor.Interval())
	assert.Equal(t, time.Second, cfg.Monitor.PingTimeout())
	assert.Equal(t, 5070, cfg.Monitor.SIPPort)
	assert.Equal(t, "http://pbx.internal:8088", cfg.PBX.URL)
	assert.Equal(t, "hunter2", cfg.PBX.Password)
	assert.Equal(t, "api", cfg.PBX.Username)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, int32(4), cfg.Database.MaxConns)
	assert.Equal(t, EventsNATS, cfg.Events.Mode)
	assert.Equal(t, "nats://broker:4222", cfg.Events.NATSURL)
	assert.Equal(t, 7, cfg.Retention.HistoryDays)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoad_InvalidInteger(t *testing.T) {
	t.Setenv("MONITOR_POLL_INTERVAL_MS", "not-a-number")

	_, err := Load()
	assert.Error(t, err)
}
