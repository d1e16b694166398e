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

package monitor

import (
	"context"

	"github.com/sipsentry/sipsentry/pkg/models"
)

// Directory is the endpoint store the engine reads rosters from and writes
// status back to. The engine never touches identity fields.
type Directory interface {
	// ListEndpoints returns every endpoint to check this cycle.
	ListEndpoints(ctx context.Context) ([]models.Endpoint, error)

	// RecordStatus atomically updates the endpoint's current-status fields
	// and appends the history record. Both writes commit or neither does.
	RecordStatus(ctx context.Context, update models.StatusUpdate, history models.HistoryRecord) error
}

// RosterProvider supplies the switch's registration roster, keyed by
// normalized registration identifier. A disabled or failing provider
// returns an empty map; it never blocks a cycle with an error.
type RosterProvider interface {
	Enabled() bool
	Roster(ctx context.Context) map[string]models.Registration
}

// Broadcaster fans a persisted status change out to live subscribers.
// Delivery is best-effort and at-most-once; implementations must not block.
type Broadcaster interface {
	BroadcastStatusUpdate(update models.StatusUpdate)
}
