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
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// The status columns default to Unknown so a freshly imported endpoint
// reads correctly before its first cycle.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS endpoints (
		id                  BIGSERIAL PRIMARY KEY,
		ip_address          TEXT NOT NULL,
		extension_number    TEXT NOT NULL,
		department          TEXT,
		reachability        TEXT NOT NULL DEFAULT 'Unknown',
		registration        TEXT NOT NULL DEFAULT 'Unknown',
		registration_source TEXT NOT NULL DEFAULT 'none',
		sip_port_open       BOOLEAN,
		last_seen           TIMESTAMPTZ,
		last_checked        TIMESTAMPTZ
	)`,
	`CREATE TABLE IF NOT EXISTS ping_history (
		id          BIGSERIAL PRIMARY KEY,
		endpoint_id BIGINT NOT NULL REFERENCES endpoints (id) ON DELETE CASCADE,
		checked_at  TIMESTAMPTZ NOT NULL,
		result      TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_ping_history_endpoint_time
		ON ping_history (endpoint_id, checked_at)`,
	`CREATE INDEX IF NOT EXISTS idx_ping_history_checked_at
		ON ping_history (checked_at)`,
}

// EnsureSchema creates the monitoring tables when they do not exist yet.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schemaStatements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("db: schema bootstrap failed: %w", err)
		}
	}

	return nil
}
