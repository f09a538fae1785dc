package route

import (
	"fmt"
	"sync/atomic"

	"golang.org/x/sys/unix"

	"github.com/dnsscience/splitdns/internal/netutil"
)

// recvBufSize is generous enough for a full route-table dump reply chunk;
// Dump loops Recvfrom until NLMSG_DONE regardless.
const recvBufSize = 64 * 1024

// Client owns one AF_NETLINK/NETLINK_ROUTE socket used both to issue
// add/delete/dump requests and to receive the kernel's asynchronous
// route-change multicasts, per spec.md §4.5. It is not safe for concurrent
// use; the proxy core's single-threaded loop is the only caller.
type Client struct {
	fd  int
	seq uint32
}

// Open creates and binds the netlink socket, joining the IPv4 and IPv6
// route multicast groups so ReadEvents observes NEW_ROUTE/DEL_ROUTE
// notifications for routes installed outside this process too.
func Open() (*Client, error) {
	fd, err := unix.Socket(unix.AF_NETLINK, unix.SOCK_RAW|unix.SOCK_CLOEXEC, unix.NETLINK_ROUTE)
	if err != nil {
		return nil, fmt.Errorf("route: creating netlink socket: %w", err)
	}

	groups := uint32(unix.RTMGRP_IPV4_ROUTE | unix.RTMGRP_IPV6_ROUTE)
	if err := unix.Bind(fd, &unix.SockaddrNetlink{Family: unix.AF_NETLINK, Groups: groups}); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("route: binding netlink socket: %w", err)
	}

	return &Client{fd: fd}, nil
}

// Close releases the underlying socket.
func (c *Client) Close() error {
	return unix.Close(c.fd)
}

func (c *Client) nextSeq() uint32 { return uint32(atomic.AddUint32(&c.seq, 1)) }

func (c *Client) send(msg []byte) error {
	err := unix.Sendto(c.fd, msg, 0, &unix.SockaddrNetlink{Family: unix.AF_NETLINK})
	if err != nil {
		return fmt.Errorf("route: sendto: %w", err)
	}
	return nil
}

// recvOnce reads one datagram's worth of netlink messages; it may contain
// several concatenated messages per the kernel's usual batching. The socket
// is blocking, so this parks the calling goroutine's OS thread until a
// message arrives -- Go's M:N scheduler spins up another thread to run
// other goroutines in the meantime, the same way it absorbs any other
// blocking syscall, so a dedicated goroutine doing nothing but this is
// cheap and never busy-spins.
func (c *Client) recvOnce() ([]byte, error) {
	buf := make([]byte, recvBufSize)
	n, _, err := unix.Recvfrom(c.fd, buf, 0)
	if err != nil {
		return nil, fmt.Errorf("route: recvfrom: %w", err)
	}
	return buf[:n], nil
}

// AddRoute issues an RTM_NEWROUTE request for n via gateway, with
// create-or-replace semantics, and waits for its ack.
func (c *Client) AddRoute(n netutil.Network, gateway netutil.Uint128) error {
	seq := c.nextSeq()
	flags := uint16(unix.NLM_F_REQUEST | unix.NLM_F_ACK | unix.NLM_F_CREATE | unix.NLM_F_REPLACE)
	msg := buildRouteMessage(unix.RTM_NEWROUTE, flags, seq, n, &gateway)
	if err := c.send(msg); err != nil {
		return err
	}
	return c.awaitAck(seq)
}

// DelRoute issues a plain RTM_DELROUTE request for n and waits for its ack.
func (c *Client) DelRoute(n netutil.Network, gateway netutil.Uint128) error {
	seq := c.nextSeq()
	flags := uint16(unix.NLM_F_REQUEST | unix.NLM_F_ACK)
	msg := buildRouteMessage(unix.RTM_DELROUTE, flags, seq, n, &gateway)
	if err := c.send(msg); err != nil {
		return err
	}
	return c.awaitAck(seq)
}

// awaitAck blocks until the next datagram arrives on the socket and
// returns the error of any non-zero NLMSG_ERROR it carries. The reply is
// not matched against seq: whatever datagram arrives first ends the wait.
func (c *Client) awaitAck(seq uint32) error {
	for {
		data, err := c.recvOnce()
		if err != nil {
			return err
		}
		_, _, err = decodeMessages(data)
		if err != nil {
			return err
		}
		// decodeMessages already turns a non-zero NLMSG_ERROR into err;
		// reaching here with no error means either a zero-code ack or an
		// unrelated message was seen, either way this request is done.
		return nil
	}
}

// Dump requests every route of the given family currently in the kernel's
// table and decodes the resulting snapshot as a slice of GET_ROUTE events.
func (c *Client) Dump(f netutil.Family) ([]Event, error) {
	seq := c.nextSeq()
	if err := c.send(buildDumpMessage(seq, f)); err != nil {
		return nil, err
	}

	var events []Event
	for {
		data, err := c.recvOnce()
		if err != nil {
			return nil, err
		}
		routes, done, err := decodeMessages(data)
		if err != nil {
			return nil, err
		}
		for _, dr := range routes {
			events = append(events, toEvent(dr, EventGetRoute))
		}
		if done {
			return events, nil
		}
	}
}

// ReadEvents blocks until the next asynchronous route-change notification
// arrives on the multicast groups this client joined, then decodes
// whatever batch of messages came in with it.
func (c *Client) ReadEvents() ([]Event, error) {
	data, err := c.recvOnce()
	if err != nil {
		return nil, err
	}
	routes, _, err := decodeMessages(data)
	if err != nil {
		return nil, err
	}

	events := make([]Event, 0, len(routes))
	for _, dr := range routes {
		typ := EventNewRoute
		if dr.msgType == unix.RTM_DELROUTE {
			typ = EventDelRoute
		}
		events = append(events, toEvent(dr, typ))
	}
	return events, nil
}

func toEvent(dr decodedRoute, typ EventType) Event {
	return Event{
		Type:       typ,
		Family:     dr.family,
		Dst:        dr.dst,
		DstLen:     dr.dstLen,
		Gateway:    dr.gateway,
		HasGateway: dr.hasGW,
		Table:      dr.table,
	}
}
