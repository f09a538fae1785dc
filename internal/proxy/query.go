package proxy

import (
	"encoding/base64"
	"net"
	"time"

	"github.com/dnsscience/splitdns/internal/dnswire"
)

// admitQueued routes up to the current fd budget's worth of queued client
// datagrams to upstream sockets, per spec.md §4.6 step 4.
func (p *Proxy) admitQueued() {
	budget := p.fdBudget()
	n := len(p.queue)
	if n > budget {
		n = budget
	}
	for i := 0; i < n; i++ {
		d := p.queue[0]
		p.queue = p.queue[1:]
		p.routeQuery(d)
	}
}

// routeQuery parses one client datagram, acquires an upstream socket
// (reused or fresh), forwards the bytes verbatim, and files the socket
// into the routed or regular pool per spec.md §4.6's query routing detail.
func (p *Proxy) routeQuery(d clientDatagram) {
	msg, err := dnswire.Parse(d.data)
	if err != nil {
		p.log.Warningf("dropping unparseable query from %s (base64=%s): %v",
			d.addr, base64.StdEncoding.EncodeToString(d.data), err)
		return
	}

	conn, reused := p.free.take()
	if !reused {
		var derr error
		conn, derr = net.DialUDP("udp", nil, p.cfg.UpstreamAddr)
		if derr != nil {
			p.log.Errorf("dialing upstream resolver: %v", derr)
			return
		}
	}

	if _, err := conn.Write(d.data); err != nil {
		p.log.Errorf("forwarding query to upstream: %v", err)
		conn.Close()
		return
	}

	routed := false
	for _, q := range msg.Questions {
		if p.cfg.Allowlist.Matches(q.Name) {
			routed = true
			break
		}
	}

	entry := pendingQuery{clientAddr: d.addr, issueTime: time.Now()}
	if routed {
		p.routed.put(conn, entry)
	} else {
		p.regular.put(conn, entry)
	}

	go p.readUpstream(conn)
}

// sweepExpired closes and forgets every pending entry issued before
// now - timeout, per spec.md §4.6 step 3. Closing (rather than the
// synchronous original's release-to-free-pool) forces that socket's
// outstanding reader goroutine to return promptly; the core drops its
// result since the pool entry is already gone by then.
func (p *Proxy) sweepExpired() {
	cutoff := time.Now().Add(-p.cfg.Timeout)

	count := 0
	for _, conn := range p.regular.expired(cutoff) {
		conn.Close()
		count++
	}
	for _, conn := range p.routed.expired(cutoff) {
		conn.Close()
		count++
	}
	if count > 0 {
		p.log.Infof("expired %d pending quer(ies)", count)
	}
}
