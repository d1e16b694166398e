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
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/sipsentry/sipsentry/pkg/logger"
	"github.com/sipsentry/sipsentry/pkg/models"
)

const (
	statusSubject  = "events.extension.status"
	publishTimeout = 2 * time.Second
)

// CloudEvent is the envelope published to JetStream.
type CloudEvent struct {
	SpecVersion     string              `json:"specversion"`
	ID              string              `json:"id"`
	Source          string              `json:"source"`
	Type            string              `json:"type"`
	DataContentType string              `json:"datacontenttype"`
	Subject         string              `json:"subject"`
	Time            time.Time           `json:"time"`
	Data            models.StatusUpdate `json:"data"`
}

// NATSPublisher publishes status updates to a JetStream stream for
// deployments where the UI tier runs as a separate process. Publish
// failures are logged and dropped; the broadcaster contract is
// best-effort.
type NATSPublisher struct {
	nc     *nats.Conn
	js     jetstream.JetStream
	logger logger.Logger
}

// NewNATSPublisher connects to NATS and ensures the events stream exists.
func NewNATSPublisher(ctx context.Context, natsURL, streamName string, log logger.Logger) (*NATSPublisher, error) {
	nc, err := nats.Connect(natsURL,
		nats.ErrorHandler(func(_ *nats.Conn, _ *nats.Subscription, err error) {
			log.Error().Err(err).Msg("NATS error")
		}),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Warn().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	if _, err := js.Stream(ctx, streamName); err != nil {
		streamConfig := jetstream.StreamConfig{
			Name:     streamName,
			Subjects: []string{"events.extension.*"},
		}

		if _, err := js.CreateOrUpdateStream(ctx, streamConfig); err != nil {
			nc.Close()
			return nil, fmt.Errorf("failed to create or get stream %s: %w", streamName, err)
		}

		log.Info().Str("stream", streamName).Msg("Created JetStream events stream")
	}

	return &NATSPublisher{
		nc:     nc,
		js:     js,
		logger: log,
	}, nil
}

func (p *NATSPublisher) BroadcastStatusUpdate(update models.StatusUpdate) {
	event := CloudEvent{
		SpecVersion:     "1.0",
		ID:              uuid.New().String(),
		Source:          "sipsentry/monitor",
		Type:            "com.sipsentry.extension.status.update",
		DataContentType: "application/json",
		Subject:         statusSubject,
		Time:            update.LastChecked,
		Data:            update,
	}

	eventBytes, err := json.Marshal(event)
	if err != nil {
		p.logger.Error().Err(err).Msg("Failed to marshal status event")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	if _, err := p.js.Publish(ctx, event.Subject, eventBytes); err != nil {
		p.logger.Warn().
			Err(err).
			Int64("endpoint_id", update.EndpointID).
			Msg("Failed to publish status event; dropping")
	}
}

// Close drains the NATS connection.
func (p *NATSPublisher) Close() {
	p.nc.Close()
}
