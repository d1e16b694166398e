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

// Package monitor runs the extension health-monitoring cycle: probe every
// endpoint, reconcile the signals into one status, persist it and fan the
// change out to subscribers.
package monitor

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sipsentry/sipsentry/pkg/logger"
	"github.com/sipsentry/sipsentry/pkg/models"
	"github.com/sipsentry/sipsentry/pkg/probe"
)

const (
	defaultInterval    = 5 * time.Second
	defaultPingTimeout = 3 * time.Second
	defaultPort        = 5060
	defaultPortTimeout = 2 * time.Second
	defaultConcurrency = 16
)

// Config holds the monitoring cycle settings.
type Config struct {
	Interval    time.Duration
	PingTimeout time.Duration
	Port        int
	PortTimeout time.Duration
	Concurrency int
}

func (c *Config) applyDefaults() {
	if c.Interval <= 0 {
		c.Interval = defaultInterval
	}

	if c.PingTimeout <= 0 {
		c.PingTimeout = defaultPingTimeout
	}

	if c.Port <= 0 {
		c.Port = defaultPort
	}

	if c.PortTimeout <= 0 {
		c.PortTimeout = defaultPortTimeout
	}

	if c.Concurrency <= 0 {
		c.Concurrency = defaultConcurrency
	}
}

// Monitor is the cycle controller. Exactly one cycle runs at a time: a tick
// that arrives while a cycle is in flight is logged and dropped, never
// queued.
type Monitor struct {
	config      Config
	directory   Directory
	roster      RosterProvider
	pinger      probe.Pinger
	ports       probe.PortChecker
	broadcaster Broadcaster
	clock       Clock
	logger      logger.Logger

	inFlight  atomic.Bool
	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// New creates a monitor. A nil clock defaults to the real clock.
func New(config Config, directory Directory, roster RosterProvider, pinger probe.Pinger,
	ports probe.PortChecker, broadcaster Broadcaster, clock Clock, log logger.Logger) *Monitor {
	config.applyDefaults()

	if clock == nil {
		clock = realClock{}
	}

	return &Monitor{
		config:      config,
		directory:   directory,
		roster:      roster,
		pinger:      pinger,
		ports:       ports,
		broadcaster: broadcaster,
		clock:       clock,
		logger:      log,
		done:        make(chan struct{}),
	}
}

// Start runs one cycle immediately, then re-triggers on the configured
// interval until the context is canceled or Stop is called. An in-flight
// cycle is never interrupted.
func (m *Monitor) Start(ctx context.Context) error {
	ticker := m.clock.Ticker(m.config.Interval)
	defer ticker.Stop()

	m.logger.Info().
		Dur("interval", m.config.Interval).
		Int("sip_port", m.config.Port).
		Msg("Starting extension monitoring")

	m.wg.Add(1)
	defer m.wg.Done()

	m.runCycle(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-m.done:
			return nil
		case <-ticker.Chan():
			m.wg.Add(1)

			go func() {
				defer m.wg.Done()

				m.runCycle(ctx)
			}()
		}
	}
}

// Stop cancels future firings and waits for an in-flight cycle to finish.
func (m *Monitor) Stop(_ context.Context) error {
	m.closeOnce.Do(func() {
		close(m.done)
	})

	m.wg.Wait()

	return nil
}

// runCycle enforces the single-cycle guard around one pass. The guard is
// cleared in a defer so a failed cycle cannot wedge the scheduler.
func (m *Monitor) runCycle(ctx context.Context) {
	if !m.inFlight.CompareAndSwap(false, true) {
		m.logger.Info().Msg("Previous check still running; skipping this cycle")
		return
	}

	defer m.inFlight.Store(false)

	if err := m.cycle(ctx); err != nil {
		m.logger.Error().Err(err).Msg("Monitoring cycle aborted")
	}
}

func (m *Monitor) cycle(ctx context.Context) error {
	endpoints, err := m.directory.ListEndpoints(ctx)
	if err != nil {
		return err
	}

	if len(endpoints) == 0 {
		m.logger.Debug().Msg("No endpoints to monitor")
		return nil
	}

	m.logger.Debug().Int("endpoints", len(endpoints)).Msg("Checking endpoints")

	// One roster fetch per cycle; an empty map degrades every endpoint to
	// probe-only inference.
	roster := m.roster.Roster(ctx)

	workCh := make(chan models.Endpoint, len(endpoints))

	var wg sync.WaitGroup

	workers := m.config.Concurrency
	if workers > len(endpoints) {
		workers = len(endpoints)
	}

	for i := 0; i < workers; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for ep := range workCh {
				m.checkEndpoint(ctx, ep, roster)
			}
		}()
	}

	for _, ep := range endpoints {
		workCh <- ep
	}

	close(workCh)
	wg.Wait()

	m.logger.Debug().
		Int("endpoints", len(endpoints)).
		Bool("roster_available", len(roster) > 0).
		Msg("Check complete")

	return nil
}

// checkEndpoint probes, reconciles, persists and broadcasts one endpoint.
// Failures are logged and confined to this endpoint.
func (m *Monitor) checkEndpoint(ctx context.Context, ep models.Endpoint, roster map[string]models.Registration) {
	alive := m.pinger.Ping(ctx, ep.Address, m.config.PingTimeout)

	// An offline host cannot have a meaningfully open service port.
	port := models.PortUnknown
	if alive {
		if m.ports.Check(ctx, ep.Address, m.config.Port, m.config.PortTimeout) {
			port = models.PortOpen
		} else {
			port = models.PortClosed
		}
	}

	entry, inRoster := roster[strings.TrimSpace(ep.RegistrationID)]
	result := Reconcile(alive, port, entry, inRoster)

	now := m.clock.Now()

	update := models.StatusUpdate{
		EndpointID:   ep.ID,
		Department:   ep.Department,
		Reachability: result.Reachability,
		Registration: result.Registration,
		Source:       result.Source,
		PortOpen:     result.Port.Bool(),
		LastChecked:  now,
	}

	outcome := models.PingFailed

	if result.Reachability == models.ReachabilityOnline {
		update.LastSeen = &now
		outcome = models.PingSuccess
	}

	history := models.HistoryRecord{
		EndpointID: ep.ID,
		Timestamp:  now,
		Result:     outcome,
	}

	if err := m.directory.RecordStatus(ctx, update, history); err != nil {
		m.logger.Error().
			Err(err).
			Int64("endpoint_id", ep.ID).
			Str("address", ep.Address).
			Msg("Failed to persist endpoint status")

		return
	}

	m.broadcaster.BroadcastStatusUpdate(update)
}
