// Package route drives the kernel's netlink route-management facility: it
// builds add/delete/dump requests and decodes the asynchronous route-change
// notifications the kernel multicasts, per spec.md §4.5. The wire format is
// built and parsed by hand with golang.org/x/sys/unix's raw socket and
// constant surface, one level below the abstraction a wrapping library like
// vishvananda/netlink offers, matching the attribute/flag vocabulary
// spec.md describes directly.
package route

import "github.com/dnsscience/splitdns/internal/netutil"

// EventType distinguishes the three netlink message kinds the proxy core
// cares about (spec.md §4.5); any other message type is ignored by the
// reader rather than surfaced.
type EventType int

const (
	EventUnknown EventType = iota
	EventNewRoute
	EventDelRoute
	EventGetRoute
)

func (t EventType) String() string {
	switch t {
	case EventNewRoute:
		return "NEW_ROUTE"
	case EventDelRoute:
		return "DEL_ROUTE"
	case EventGetRoute:
		return "GET_ROUTE"
	default:
		return "UNKNOWN"
	}
}

// Event is a decoded route message: either a reply to a Dump (GetRoute) or
// an asynchronous change notification (NewRoute/DelRoute) the kernel
// multicasts when any route in the main table changes.
type Event struct {
	Type       EventType
	Family     netutil.Family
	Dst        netutil.Uint128
	DstLen     int
	Gateway    netutil.Uint128
	HasGateway bool
	Table      uint8
}
