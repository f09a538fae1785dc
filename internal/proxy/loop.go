package proxy

import (
	"context"
	"time"

	"github.com/dnsscience/splitdns/internal/dnswire"
	"github.com/dnsscience/splitdns/internal/netutil"
)

// Run is the single-threaded core loop described in spec.md §4.6. Every
// field on Proxy is owned exclusively by this goroutine; the reader
// goroutines (started by New, and per upstream socket by routeQuery) only
// ever hand data back over clientCh/upstreamCh/routeCh.
func (p *Proxy) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.cfg.Timeout)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d := <-p.clientCh:
			p.drainClient(d)
		case r := <-p.upstreamCh:
			p.drainUpstream(r)
		case r := <-p.routeCh:
			p.drainRoute(r)
		case <-ticker.C:
		}

		// Having reacted to whatever woke us, drain every other channel
		// that is already ready so one iteration processes a full batch
		// of pending events, per spec.md §4.6 step 2.
		p.drainReady()

		p.sweepExpired()
		p.admitQueued()
		p.free.drain()
	}
}

// drainReady consumes every channel that has data queued right now without
// blocking, so a burst of arrivals is folded into a single iteration.
func (p *Proxy) drainReady() {
	for {
		select {
		case d := <-p.clientCh:
			p.drainClient(d)
			continue
		case r := <-p.upstreamCh:
			p.drainUpstream(r)
			continue
		case r := <-p.routeCh:
			p.drainRoute(r)
			continue
		default:
			return
		}
	}
}

func (p *Proxy) drainClient(d clientDatagram) {
	p.queue = append(p.queue, d)
}

func (p *Proxy) drainRoute(r routeEventsResult) {
	if r.err != nil {
		p.log.Errorf("reading route events: %v", r.err)
		return
	}
	p.applyRouteEvents(r.events)
}

// drainUpstream resolves one upstream read against whichever pool holds its
// socket, forwards regular-pool responses immediately, and handles
// routed-pool responses on the spot as well: parse, forward, then address
// extraction and reconciliation.
func (p *Proxy) drainUpstream(r upstreamResult) {
	if q, ok := p.regular.take(r.conn); ok {
		p.finishUpstream(r, q, false)
		return
	}
	if q, ok := p.routed.take(r.conn); ok {
		p.finishUpstream(r, q, true)
		return
	}
	// Socket already reclaimed by sweepExpired before this read landed.
	p.log.Debugf("%v", ErrUnknownReadySocket)
}

func (p *Proxy) finishUpstream(r upstreamResult, q pendingQuery, routed bool) {
	if r.err != nil {
		r.conn.Close()
		return
	}
	p.free.push(r.conn)

	if !routed {
		if _, err := p.listenConn.WriteToUDP(r.data, q.clientAddr); err != nil {
			p.log.Errorf("forwarding response to %s: %v", q.clientAddr, err)
		}
		return
	}

	msg, err := dnswire.Parse(r.data)
	if err != nil {
		p.log.Warningf("dropping unparseable routed response for %s: %v", q.clientAddr, err)
		return
	}

	if _, err := p.listenConn.WriteToUDP(r.data, q.clientAddr); err != nil {
		p.log.Errorf("forwarding routed response to %s: %v", q.clientAddr, err)
	}

	v4, v6 := p.extractCandidates(msg)
	p.reconcile(netutil.IPv4, v4)
	p.reconcile(netutil.IPv6, v6)
}
