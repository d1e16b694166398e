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

package models

import "time"

// Endpoint is one monitored handset. Identity fields are owned by the
// directory; the engine only ever writes status fields.
type Endpoint struct {
	ID             int64  `json:"id"`
	Address        string `json:"address"`
	RegistrationID string `json:"registration_id"`
	Department     string `json:"department,omitempty"`
}

// StatusUpdate carries the reconciled status fields written back to the
// directory and fanned out to live subscribers after a successful write.
type StatusUpdate struct {
	EndpointID   int64              `json:"endpoint_id"`
	Department   string             `json:"department,omitempty"`
	Reachability Reachability       `json:"reachability"`
	Registration Registration       `json:"registration"`
	Source       RegistrationSource `json:"registration_source"`
	PortOpen     *bool              `json:"port_open"`
	LastSeen     *time.Time         `json:"last_seen,omitempty"`
	LastChecked  time.Time          `json:"last_checked"`
}

// HistoryRecord is one immutable ping-log row, appended per endpoint per
// completed cycle.
type HistoryRecord struct {
	EndpointID int64       `json:"endpoint_id"`
	Timestamp  time.Time   `json:"timestamp"`
	Result     PingOutcome `json:"result"`
}
