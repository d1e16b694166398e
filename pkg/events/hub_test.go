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

package events

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sipsentry/sipsentry/pkg/logger"
	"github.com/sipsentry/sipsentry/pkg/models"
)

func dialHub(t *testing.T, srv *httptest.Server, query string) *websocket.Conn {
	t.Helper()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?" + query

	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)

	if resp != nil {
		_ = resp.Body.Close()
	}

	t.Cleanup(func() { _ = conn.Close() })

	return conn
}

func waitForSubscribers(t *testing.T, hub *Hub, n int) {
	t.Helper()

	require.Eventually(t, func() bool {
		return hub.SubscriberCount() == n
	}, time.Second, 5*time.Millisecond)
}

func readUpdate(t *testing.T, conn *websocket.Conn) StreamMessage {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))

	var msg StreamMessage
	require.NoError(t, conn.ReadJSON(&msg))

	return msg
}

func sampleUpdate(id int64, dept string) models.StatusUpdate {
	return models.StatusUpdate{
		EndpointID:   id,
		Department:   dept,
		Reachability: models.ReachabilityOnline,
		Registration: models.RegistrationRegistered,
		Source:       models.SourceRoster,
		LastChecked:  time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC),
	}
}

func TestHub_AdminReceivesAllUpdates(t *testing.T) {
	hub := NewHub(logger.NewTestLogger())
	srv := httptest.NewServer(hub)

	defer srv.Close()
	defer hub.Close()

	conn := dialHub(t, srv, "role=admin")
	waitForSubscribers(t, hub, 1)

	hub.BroadcastStatusUpdate(sampleUpdate(1, "support"))

	msg := readUpdate(t, conn)
	assert.Equal(t, StatusUpdateEvent, msg.Event)
	assert.Equal(t, int64(1), msg.Data.EndpointID)
	assert.Equal(t, models.RegistrationRegistered, msg.Data.Registration)
}

func TestHub_DepartmentScoping(t *testing.T) {
	hub := NewHub(logger.NewTestLogger())
	srv := httptest.NewServer(hub)

	defer srv.Close()
	defer hub.Close()

	support := dialHub(t, srv, "department=support")
	sales := dialHub(t, srv, "department=sales")
	waitForSubscribers(t, hub, 2)

	hub.BroadcastStatusUpdate(sampleUpdate(7, "support"))

	msg := readUpdate(t, support)
	assert.Equal(t, int64(7), msg.Data.EndpointID)

	// The other department must not see the event.
	require.NoError(t, sales.SetReadDeadline(time.Now().Add(100*time.Millisecond)))

	var stray StreamMessage
	assert.Error(t, sales.ReadJSON(&stray))
}

func TestHub_BroadcastWithoutSubscribersDoesNotBlock(t *testing.T) {
	hub := NewHub(logger.NewTestLogger())

	done := make(chan struct{})

	go func() {
		defer close(done)

		for i := 0; i < 1000; i++ {
			hub.BroadcastStatusUpdate(sampleUpdate(int64(i), ""))
		}
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("broadcast blocked with no subscribers")
	}
}

func TestHub_SlowSubscriberDropsEvents(t *testing.T) {
	hub := NewHub(logger.NewTestLogger())
	srv := httptest.NewServer(hub)

	defer srv.Close()
	defer hub.Close()

	// Connect but never read, so the buffer fills.
	_ = dialHub(t, srv, "role=admin")
	waitForSubscribers(t, hub, 1)

	done := make(chan struct{})

	go func() {
		defer close(done)

		for i := 0; i < subscriberBufSize*10; i++ {
			hub.BroadcastStatusUpdate(sampleUpdate(int64(i), ""))
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("broadcast blocked on a slow subscriber")
	}
}
