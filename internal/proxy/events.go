package proxy

import (
	"net"

	"github.com/dnsscience/splitdns/internal/route"
)

// clientDatagram is one inbound query read off the listen socket.
type clientDatagram struct {
	data []byte
	addr *net.UDPAddr
}

// upstreamResult is posted by a per-socket reader goroutine once its one
// read of an upstream response completes (successfully or not). The core
// loop is the only consumer and is the sole owner of the pools, so a
// result for a socket no longer present in either pool (already expired
// and closed by the timeout sweep) is simply dropped.
type upstreamResult struct {
	conn *net.UDPConn
	data []byte
	err  error
}

// routeEventsResult is posted by the route client's reader goroutine.
type routeEventsResult struct {
	events []route.Event
	err    error
}
