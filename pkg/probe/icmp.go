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
	"os"
	"sync/atomic"
	"time"

	"golang.org/x/net/icmp"
	"golang.org/x/net/ipv4"
	"golang.org/x/net/ipv6"

	"github.com/sipsentry/sipsentry/pkg/logger"
)

const (
	echoPayload   = "sipsentry"
	replyBufSize  = 1500
	defaultPingTO = 3 * time.Second
)

// ICMPPinger sends ICMP echo requests over raw sockets. A reply matching the
// request id and sequence within the timeout counts as alive; everything
// else, including resolution failures, counts as not alive.
type ICMPPinger struct {
	id     int
	seq    atomic.Uint32
	logger logger.Logger
}

var _ Pinger = (*ICMPPinger)(nil)

// NewICMPPinger initializes a pinger with a process-scoped echo identifier.
func NewICMPPinger(log logger.Logger) *ICMPPinger {
	return &ICMPPinger{
		id:     os.Getpid() & 0xffff,
		logger: log,
	}
}

func (p *ICMPPinger) Ping(ctx context.Context, addr string, timeout time.Duration) bool {
	if timeout <= 0 {
		timeout = defaultPingTO
	}

	if ctx.Err() != nil {
		return false
	}

	ip, err := net.ResolveIPAddr("ip", addr)
	if err != nil || ip.IP == nil {
		p.logger.Debug().Str("address", addr).Err(err).Msg("Ping target did not resolve")
		return false
	}

	network, proto, reqType, replyType := icmpSettings(ip.IP)

	conn, err := icmp.ListenPacket(network, "")
	if err != nil {
		p.logger.Error().Err(err).Msg("Failed to open ICMP socket")
		return false
	}

	defer func() {
		if cerr := conn.Close(); cerr != nil {
			p.logger.Error().Err(cerr).Msg("Failed to close ICMP socket")
		}
	}()

	seq := int(p.seq.Add(1) & 0xffff)
	msg := icmp.Message{
		Type: reqType,
		Code: 0,
		Body: &icmp.Echo{
			ID:   p.id,
			Seq:  seq,
			Data: []byte(echoPayload),
		},
	}

	payload, err := msg.Marshal(nil)
	if err != nil {
		return false
	}

	if err := conn.SetDeadline(effectiveDeadline(ctx, timeout)); err != nil {
		return false
	}

	if _, err := conn.WriteTo(payload, ip); err != nil {
		p.logger.Debug().Str("address", addr).Err(err).Msg("Failed to send echo request")
		return false
	}

	buf := make([]byte, replyBufSize)

	for {
		if ctx.Err() != nil {
			return false
		}

		n, peer, err := conn.ReadFrom(buf)
		if err != nil {
			return false
		}

		if peer == nil {
			continue
		}

		reply, err := icmp.ParseMessage(proto, buf[:n])
		if err != nil || reply.Type != replyType {
			continue
		}

		body, ok := reply.Body.(*icmp.Echo)
		if !ok || body.ID != p.id || body.Seq != seq {
			continue
		}

		return true
	}
}

func icmpSettings(ip net.IP) (network string, proto int, reqType, replyType icmp.Type) {
	if ip.To4() != nil {
		return "ip4:icmp", ipv4.ICMPTypeEcho.Protocol(), ipv4.ICMPTypeEcho, ipv4.ICMPTypeEchoReply
	}

	return "ip6:ipv6-icmp", ipv6.ICMPTypeEchoRequest.Protocol(), ipv6.ICMPTypeEchoRequest, ipv6.ICMPTypeEchoReply
}

// effectiveDeadline bounds the probe by the timeout, or the context deadline
// if that comes first.
func effectiveDeadline(ctx context.Context, timeout time.Duration) time.Time {
	deadline := time.Now().Add(timeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		return ctxDeadline
	}

	return deadline
}
