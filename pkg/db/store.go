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

package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sipsentry/sipsentry/pkg/logger"
	"github.com/sipsentry/sipsentry/pkg/models"
)

const (
	listEndpointsQuery = `
		SELECT id, ip_address, extension_number, COALESCE(department, '')
		FROM endpoints
		ORDER BY id`

	// last_seen is only ever moved forward: a NULL parameter keeps the
	// previous value, so an offline cycle never clears it.
	updateStatusQuery = `
		UPDATE endpoints SET
			reachability = $1,
			registration = $2,
			registration_source = $3,
			sip_port_open = $4,
			last_seen = COALESCE($5, last_seen),
			last_checked = $6
		WHERE id = $7`

	appendHistoryQuery = `
		INSERT INTO ping_history (endpoint_id, checked_at, result)
		VALUES ($1, $2, $3)`

	pruneHistoryQuery = `
		DELETE FROM ping_history
		WHERE checked_at < $1`
)

// Store is the pgx-backed directory store.
type Store struct {
	pool   *pgxpool.Pool
	logger logger.Logger
}

func NewStore(pool *pgxpool.Pool, log logger.Logger) *Store {
	return &Store{
		pool:   pool,
		logger: log,
	}
}

// ListEndpoints returns every monitored endpoint.
func (s *Store) ListEndpoints(ctx context.Context) ([]models.Endpoint, error) {
	rows, err := s.pool.Query(ctx, listEndpointsQuery)
	if err != nil {
		return nil, fmt.Errorf("db: failed to list endpoints: %w", err)
	}
	defer rows.Close()

	var endpoints []models.Endpoint

	for rows.Next() {
		var ep models.Endpoint

		if err := rows.Scan(&ep.ID, &ep.Address, &ep.RegistrationID, &ep.Department); err != nil {
			return nil, fmt.Errorf("db: failed to scan endpoint: %w", err)
		}

		endpoints = append(endpoints, ep)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db: endpoint iteration failed: %w", err)
	}

	return endpoints, nil
}

// RecordStatus updates the endpoint's current-status fields and appends the
// history row in one transaction. Both writes commit or neither does.
func (s *Store) RecordStatus(ctx context.Context, update models.StatusUpdate, history models.HistoryRecord) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("db: failed to begin transaction: %w", err)
	}

	defer func() {
		if rerr := tx.Rollback(ctx); rerr != nil && !errors.Is(rerr, pgx.ErrTxClosed) {
			s.logger.Error().Err(rerr).Msg("Failed to roll back status transaction")
		}
	}()

	tag, err := tx.Exec(ctx, updateStatusQuery,
		string(update.Reachability),
		string(update.Registration),
		string(update.Source),
		update.PortOpen,
		update.LastSeen,
		update.LastChecked,
		update.EndpointID,
	)
	if err != nil {
		return fmt.Errorf("db: failed to update endpoint %d: %w", update.EndpointID, err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: endpoint %d", ErrEndpointNotFound, update.EndpointID)
	}

	if _, err := tx.Exec(ctx, appendHistoryQuery,
		history.EndpointID,
		history.Timestamp,
		string(history.Result),
	); err != nil {
		return fmt.Errorf("db: failed to append history for endpoint %d: %w", history.EndpointID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("db: failed to commit status for endpoint %d: %w", update.EndpointID, err)
	}

	return nil
}

// PruneHistory deletes history rows older than the retention window and
// returns the number removed. The monitoring engine never calls this; it
// belongs to the maintenance loop.
func (s *Store) PruneHistory(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().Add(-olderThan)

	tag, err := s.pool.Exec(ctx, pruneHistoryQuery, cutoff)
	if err != nil {
		return 0, fmt.Errorf("db: failed to prune history: %w", err)
	}

	return tag.RowsAffected(), nil
}
