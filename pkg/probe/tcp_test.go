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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sipsentry/sipsentry/pkg/logger"
)

func TestTCPPortProber_OpenPort(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	defer ln.Close()

	go func() {
		for {
			conn, aerr := ln.Accept()
			if aerr != nil {
				return
			}

			_ = conn.Close()
		}
	}()

	addr := ln.Addr().(*net.TCPAddr)

	p := NewTCPPortProber(logger.NewTestLogger())
	assert.True(t, p.Check(context.Background(), "127.0.0.1", addr.Port, time.Second))
}

func TestTCPPortProber_ClosedPort(t *testing.T) {
	// Grab a free port and close the listener so the connect is refused.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())

	p := NewTCPPortProber(logger.NewTestLogger())
	assert.False(t, p.Check(context.Background(), "127.0.0.1", port, time.Second))
}

func TestTCPPortProber_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := NewTCPPortProber(logger.NewTestLogger())
	assert.False(t, p.Check(ctx, "127.0.0.1", 9, time.Second))
}
