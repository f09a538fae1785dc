// Package proxy implements the split-horizon DNS proxy core: the
// single-threaded event loop that multiplexes client queries across
// ephemeral upstream sockets, inspects routed responses for addresses, and
// drives route installation through internal/route, per spec.md §4.6.
package proxy

import (
	"net"
	"time"

	"github.com/dnsscience/splitdns/internal/hostname"
	"github.com/dnsscience/splitdns/internal/netutil"
)

// Config holds everything the proxy core needs at startup; it carries no
// mutable state of its own once Run begins.
type Config struct {
	// ListenAddr is where client queries are accepted.
	ListenAddr *net.UDPAddr
	// UpstreamAddr is the recursive resolver queries are forwarded to.
	UpstreamAddr *net.UDPAddr

	// GatewayV4 is the policy next-hop for learned IPv4 subnets.
	GatewayV4 netutil.Uint128
	// GatewayV6 is the policy next-hop for learned IPv6 subnets; routing
	// of AAAA answers is disabled when nil.
	GatewayV6 *netutil.Uint128

	// Timeout bounds how long a pending query may wait for an upstream
	// reply before its socket is reclaimed.
	Timeout time.Duration

	// BufferSize is the maximum accepted client datagram size.
	BufferSize int

	// Allowlist decides which queries are "routed" (spec.md §4.4).
	Allowlist *hostname.Set
}

// DefaultBufferSize matches spec.md §4.6's default datagram buffer size.
const DefaultBufferSize = 1024

// DefaultTimeout matches the CLI surface's default --timeout of 5 seconds
// (spec.md §6).
const DefaultTimeout = 5 * time.Second
