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

package probe

import (
	"context"
	"net"
	"strconv"
	"time"

	"github.com/sipsentry/sipsentry/pkg/logger"
)

const defaultPortTO = 2 * time.Second

// TCPPortProber checks service-port availability with a plain TCP connect.
type TCPPortProber struct {
	logger logger.Logger
}

var _ PortChecker = (*TCPPortProber)(nil)

func NewTCPPortProber(log logger.Logger) *TCPPortProber {
	return &TCPPortProber{logger: log}
}

// Check dials addr:port and reports whether the connection was accepted.
// The connection is closed on every path.
func (p *TCPPortProber) Check(ctx context.Context, addr string, port int, timeout time.Duration) bool {
	if timeout <= 0 {
		timeout = defaultPortTO
	}

	probeCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var dialer net.Dialer

	conn, err := dialer.DialContext(probeCtx, "tcp", net.JoinHostPort(addr, strconv.Itoa(port)))
	if err != nil {
		return false
	}

	defer func(conn net.Conn) {
		if cerr := conn.Close(); cerr != nil {
			p.logger.Error().Err(cerr).Msg("Failed to close probe connection")
		}
	}(conn)

	return true
}
