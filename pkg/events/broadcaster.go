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

// Package events fans status changes out to live subscribers. Delivery is
// best-effort and at-most-once: a slow or absent subscriber loses events,
// the monitoring cycle never waits.
package events

import "github.com/sipsentry/sipsentry/pkg/models"

// StatusUpdateEvent is the topic name for extension status changes.
const StatusUpdateEvent = "extension:statusUpdate"

// NopBroadcaster discards all events. Used when no event sink is configured.
type NopBroadcaster struct{}

func (NopBroadcaster) BroadcastStatusUpdate(models.StatusUpdate) {}
