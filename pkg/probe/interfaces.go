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

// Package probe implements the bounded-timeout network probes used by the
// monitoring cycle: an ICMP echo liveness check and a TCP service-port check.
package probe

import (
	"context"
	"time"
)

// Pinger reports whether an address answers a network-liveness probe within
// the timeout. Any failure, including a malformed address, reports false.
type Pinger interface {
	Ping(ctx context.Context, addr string, timeout time.Duration) bool
}

// PortChecker reports whether a TCP port accepts connections within the
// timeout. Timeout and refusal both report false.
type PortChecker interface {
	Check(ctx context.Context, addr string, port int, timeout time.Duration) bool
}
