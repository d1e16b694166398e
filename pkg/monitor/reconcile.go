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

import "github.com/sipsentry/sipsentry/pkg/models"

// Reconcile merges the probe results and the roster lookup for one endpoint
// into its final status. Precedence:
//
//  1. A roster entry is authoritative, even when the endpoint is
//     unreachable. The Source field preserves where the answer came from so
//     a roster/probe conflict stays visible to operators.
//  2. Without a roster entry, an unreachable endpoint has no registration
//     signal at all (the port probe is skipped for offline hosts).
//  3. A definite port probe result is used as local inference.
//  4. Otherwise the registration state is unknown.
func Reconcile(alive bool, port models.PortState, rosterEntry models.Registration, inRoster bool) models.StatusResult {
	result := models.StatusResult{
		Reachability: models.ReachabilityOffline,
		Registration: models.RegistrationUnknown,
		Source:       models.SourceNone,
		Port:         port,
	}

	if alive {
		result.Reachability = models.ReachabilityOnline
	}

	switch {
	case inRoster:
		result.Registration = rosterEntry
		result.Source = models.SourceRoster
	case !alive:
		// No signal: the port probe was never attempted.
	case port == models.PortOpen:
		result.Registration = models.RegistrationRegistered
		result.Source = models.SourceInferred
	case port == models.PortClosed:
		result.Registration = models.RegistrationUnregistered
		result.Source = models.SourceInferred
	}

	return result
}
