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
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/sipsentry/sipsentry/pkg/logger"
	"github.com/sipsentry/sipsentry/pkg/models"
)

const (
	subscriberBufSize = 32
	writeTimeout      = 10 * time.Second

	roomAdmin      = "admin"
	roomDeptPrefix = "dept:"
)

// StreamMessage is the envelope sent over a subscriber's WebSocket.
type StreamMessage struct {
	Event string              `json:"event"`
	Data  models.StatusUpdate `json:"data"`
}

// subscriber is one WebSocket connection with its room memberships. Events
// are queued on a buffered channel; a full channel drops the event.
type subscriber struct {
	conn  *websocket.Conn
	send  chan models.StatusUpdate
	rooms map[string]struct{}
}

func (s *subscriber) inRoom(rooms ...string) bool {
	for _, room := range rooms {
		if _, ok := s.rooms[room]; ok {
			return true
		}
	}

	return false
}

// Hub is the WebSocket status broadcaster. It owns its subscriber registry;
// privileged subscribers join the admin room and receive every update,
// others only receive updates for their own department.
type Hub struct {
	logger   logger.Logger
	upgrader websocket.Upgrader

	mu          sync.RWMutex
	subscribers map[*subscriber]struct{}
}

func NewHub(log logger.Logger) *Hub {
	return &Hub{
		logger: log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		subscribers: make(map[*subscriber]struct{}),
	}
}

// ServeHTTP upgrades the connection and registers the subscriber. Room
// membership comes from query parameters: role=admin joins the admin room,
// department=<name> joins that department's room.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error().Err(err).Str("remote_addr", r.RemoteAddr).Msg("Failed to upgrade to WebSocket")
		return
	}

	sub := &subscriber{
		conn:  conn,
		send:  make(chan models.StatusUpdate, subscriberBufSize),
		rooms: make(map[string]struct{}),
	}

	if r.URL.Query().Get("role") == "admin" {
		sub.rooms[roomAdmin] = struct{}{}
	}

	if dept := r.URL.Query().Get("department"); dept != "" {
		sub.rooms[roomDeptPrefix+dept] = struct{}{}
	}

	h.register(sub)

	h.logger.Info().
		Str("remote_addr", r.RemoteAddr).
		Int("rooms", len(sub.rooms)).
		Msg("Status subscriber connected")

	go h.writePump(sub)
	go h.readPump(sub, r.RemoteAddr)
}

// BroadcastStatusUpdate queues the update for every subscriber in the admin
// room or the endpoint's department room. Never blocks: subscribers whose
// buffers are full miss the event.
func (h *Hub) BroadcastStatusUpdate(update models.StatusUpdate) {
	rooms := []string{roomAdmin}
	if update.Department != "" {
		rooms = append(rooms, roomDeptPrefix+update.Department)
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for sub := range h.subscribers {
		if !sub.inRoom(rooms...) {
			continue
		}

		select {
		case sub.send <- update:
		default:
			h.logger.Debug().
				Int64("endpoint_id", update.EndpointID).
				Msg("Subscriber buffer full; dropping status event")
		}
	}
}

// SubscriberCount reports the number of connected subscribers.
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.subscribers)
}

// Close disconnects every subscriber.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for sub := range h.subscribers {
		close(sub.send)
		delete(h.subscribers, sub)
	}
}

func (h *Hub) register(sub *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.subscribers[sub] = struct{}{}
}

func (h *Hub) unregister(sub *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.subscribers[sub]; ok {
		close(sub.send)
		delete(h.subscribers, sub)
	}
}

// writePump drains the subscriber's queue onto its connection. A write
// failure unregisters the subscriber.
func (h *Hub) writePump(sub *subscriber) {
	defer func() {
		if err := sub.conn.Close(); err != nil {
			h.logger.Debug().Err(err).Msg("Failed to close subscriber connection")
		}
	}()

	for update := range sub.send {
		if err := sub.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
			h.unregister(sub)
			return
		}

		msg := StreamMessage{Event: StatusUpdateEvent, Data: update}

		if err := sub.conn.WriteJSON(msg); err != nil {
			h.logger.Debug().Err(err).Msg("Subscriber write failed; disconnecting")
			h.unregister(sub)

			return
		}
	}
}

// readPump exists to detect client disconnects.
func (h *Hub) readPump(sub *subscriber, remoteAddr string) {
	for {
		if _, _, err := sub.conn.ReadMessage(); err != nil {
			h.logger.Info().Str("remote_addr", remoteAddr).Msg("Status subscriber disconnected")
			h.unregister(sub)

			return
		}
	}
}
