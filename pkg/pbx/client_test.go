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

package pbx

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sipsentry/sipsentry/pkg/logger"
	"github.com/sipsentry/sipsentry/pkg/models"
)

type fakeSwitch struct {
	loginCalls atomic.Int32
	listCalls  atomic.Int32
	failLogin  bool
	failList   bool
	entries    []map[string]any
}

func (f *fakeSwitch) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc(loginPath, func(w http.ResponseWriter, r *http.Request) {
		f.loginCalls.Add(1)

		if f.failLogin {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		_ = json.NewEncoder(w).Encode(map[string]string{"token": "tok-" + req.Username})
	})

	mux.HandleFunc(extensionListPath, func(w http.ResponseWriter, r *http.Request) {
		f.listCalls.Add(1)

		if f.failList {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}

		if r.Header.Get("Authorization") != "Bearer tok-api" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		_ = json.NewEncoder(w).Encode(map[string]any{"data": f.entries})
	})

	return mux
}

func newTestClient(t *testing.T, sw *fakeSwitch) *Client {
	t.Helper()

	srv := httptest.NewServer(sw.handler())
	t.Cleanup(srv.Close)

	return NewClient(Config{URL: srv.URL, Username: "api", Password: "secret"}, logger.NewTestLogger())
}

func TestClient_Disabled(t *testing.T) {
	c := NewClient(Config{}, logger.NewTestLogger())

	assert.False(t, c.Enabled())
	assert.Empty(t, c.Roster(context.Background()))

	health := c.HealthCheck(context.Background())
	assert.False(t, health.Enabled)
}

func TestClient_RosterNormalizesStatus(t *testing.T) {
	sw := &fakeSwitch{entries: []map[string]any{
		{"number": "1001", "status": "registered", "ip_addr": "10.0.0.1"},
		{"number": 1002, "status": "Registered", "ip_addr": "10.0.0.2"},
		{"number": "1003", "status": "unavailable", "ip_addr": ""},
	}}

	c := newTestClient(t, sw)

	roster := c.Roster(context.Background())
	require.Len(t, roster, 3)

	assert.Equal(t, models.RegistrationRegistered, roster["1001"])
	assert.Equal(t, models.RegistrationRegistered, roster["1002"])
	assert.Equal(t, models.RegistrationUnregistered, roster["1003"])
}

func TestClient_TokenReusedWithinValidityWindow(t *testing.T) {
	sw := &fakeSwitch{entries: []map[string]any{
		{"number": "1001", "status": "registered"},
	}}

	c := newTestClient(t, sw)

	_ = c.Roster(context.Background())
	_ = c.Roster(context.Background())

	assert.Equal(t, int32(1), sw.loginCalls.Load(), "second roster fetch must reuse the cached token")
	assert.Equal(t, int32(2), sw.listCalls.Load())
}

func TestClient_ExpiredTokenIsRefreshed(t *testing.T) {
	sw := &fakeSwitch{entries: []map[string]any{
		{"number": "1001", "status": "registered"},
	}}

	c := newTestClient(t, sw)

	_ = c.Roster(context.Background())

	// Age the cached token into the safety buffer.
	c.mu.Lock()
	c.tokenExpiry = time.Now().Add(tokenSafetyBuffer / 2)
	c.mu.Unlock()

	_ = c.Roster(context.Background())

	assert.Equal(t, int32(2), sw.loginCalls.Load())
}

func TestClient_AuthFailureDegradesToEmptyRoster(t *testing.T) {
	sw := &fakeSwitch{failLogin: true}
	c := newTestClient(t, sw)

	roster := c.Roster(context.Background())
	assert.Empty(t, roster)

	health := c.HealthCheck(context.Background())
	assert.True(t, health.Enabled)
	assert.False(t, health.Connected)
}

func TestClient_ListFailureDegradesToEmptyRoster(t *testing.T) {
	sw := &fakeSwitch{failList: true}
	c := newTestClient(t, sw)

	assert.Empty(t, c.Roster(context.Background()))
}

func TestClient_RosterPagination(t *testing.T) {
	// Full first page forces a second fetch; the short second page stops it.
	full := make([]map[string]any, rosterPageSize)
	for i := range full {
		full[i] = map[string]any{"number": fmt.Sprintf("2%03d", i), "status": "registered"}
	}

	pages := [][]map[string]any{full, {{"number": "9999", "status": "registered"}}}

	var call atomic.Int32

	mux := http.NewServeMux()
	mux.HandleFunc(loginPath, func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"token": "tok-api"})
	})
	mux.HandleFunc(extensionListPath, func(w http.ResponseWriter, r *http.Request) {
		page := int(call.Add(1))
		if r.URL.Query().Get("page") != fmt.Sprintf("%d", page) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		_ = json.NewEncoder(w).Encode(map[string]any{"data": pages[page-1]})
	})

	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := NewClient(Config{URL: srv.URL, Username: "api", Password: "secret"}, logger.NewTestLogger())

	roster := c.Roster(context.Background())
	assert.Len(t, roster, rosterPageSize+1)
	assert.Contains(t, roster, "9999")
}
