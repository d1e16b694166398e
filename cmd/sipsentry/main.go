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

package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/sipsentry/sipsentry/pkg/config"
	"github.com/sipsentry/sipsentry/pkg/db"
	"github.com/sipsentry/sipsentry/pkg/events"
	"github.com/sipsentry/sipsentry/pkg/logger"
	"github.com/sipsentry/sipsentry/pkg/monitor"
	"github.com/sipsentry/sipsentry/pkg/pbx"
	"github.com/sipsentry/sipsentry/pkg/probe"
)

const (
	shutdownTimeout = 10 * time.Second
	wsPath          = "/ws/status"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	mainLogger, err := logger.NewComponentLogger("sipsentry", cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, &cfg.Database, mainLogger)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := db.EnsureSchema(ctx, pool); err != nil {
		return err
	}

	store := db.NewStore(pool, mainLogger)

	pbxLogger, err := logger.NewComponentLogger("pbx", cfg.Logging)
	if err != nil {
		return err
	}

	pbxClient := pbx.NewClient(cfg.PBX, pbxLogger)

	health := pbxClient.HealthCheck(ctx)
	mainLogger.Info().
		Bool("enabled", health.Enabled).
		Bool("connected", health.Connected).
		Str("message", health.Message).
		Msg("Switch adapter status")

	broadcaster, cleanup, err := buildBroadcaster(ctx, cfg, mainLogger)
	if err != nil {
		return err
	}
	defer cleanup()

	monitorLogger, err := logger.NewComponentLogger("monitor", cfg.Logging)
	if err != nil {
		return err
	}

	m := monitor.New(
		monitor.Config{
			Interval:    cfg.Monitor.Interval(),
			PingTimeout: cfg.Monitor.PingTimeout(),
			Port:        cfg.Monitor.SIPPort,
			PortTimeout: cfg.Monitor.SIPTimeout(),
			Concurrency: cfg.Monitor.Concurrency,
		},
		store,
		pbxClient,
		probe.NewICMPPinger(monitorLogger),
		probe.NewTCPPortProber(monitorLogger),
		broadcaster,
		nil,
		monitorLogger,
	)

	go runRetentionLoop(ctx, store, cfg.Retention, mainLogger)

	errCh := make(chan error, 1)

	go func() {
		errCh <- m.Start(ctx)
	}()

	select {
	case <-ctx.Done():
		mainLogger.Info().Msg("Shutting down; waiting for in-flight cycle")

		stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		return m.Stop(stopCtx)
	case err := <-errCh:
		if errors.Is(err, context.Canceled) {
			return nil
		}

		return err
	}
}

// buildBroadcaster wires the configured event sink. The returned cleanup is
// always safe to call.
func buildBroadcaster(ctx context.Context, cfg *config.Config, log logger.Logger) (monitor.Broadcaster, func(), error) {
	switch cfg.Events.Mode {
	case config.EventsWebSocket:
		hubLogger, err := logger.NewComponentLogger("events", cfg.Logging)
		if err != nil {
			return nil, nil, err
		}

		hub := events.NewHub(hubLogger)

		mux := http.NewServeMux()
		mux.Handle(wsPath, hub)

		srv := &http.Server{
			Addr:              cfg.Events.ListenAddr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		}

		go func() {
			log.Info().Str("addr", cfg.Events.ListenAddr).Str("path", wsPath).Msg("Status stream listening")

			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error().Err(err).Msg("Status stream server failed")
			}
		}()

		cleanup := func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()

			_ = srv.Shutdown(shutdownCtx)
			hub.Close()
		}

		return hub, cleanup, nil

	case config.EventsNATS:
		natsLogger, err := logger.NewComponentLogger("events", cfg.Logging)
		if err != nil {
			return nil, nil, err
		}

		publisher, err := events.NewNATSPublisher(ctx, cfg.Events.NATSURL, cfg.Events.NATSStream, natsLogger)
		if err != nil {
			return nil, nil, err
		}

		return publisher, publisher.Close, nil

	default:
		return events.NopBroadcaster{}, func() {}, nil
	}
}

// runRetentionLoop prunes old history rows on a slow cadence. This is the
// maintenance path; the monitoring engine itself never deletes history.
func runRetentionLoop(ctx context.Context, store *db.Store, cfg config.RetentionConfig, log logger.Logger) {
	interval := time.Duration(cfg.SweepIntervalHours) * time.Hour
	retention := time.Duration(cfg.HistoryDays) * 24 * time.Hour

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := store.PruneHistory(ctx, retention)
			if err != nil {
				log.Error().Err(err).Msg("History retention sweep failed")
				continue
			}

			if removed > 0 {
				log.Info().Int64("rows", removed).Msg("Pruned old history records")
			}
		}
	}
}
