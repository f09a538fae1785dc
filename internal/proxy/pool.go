package proxy

import (
	"net"
	"time"
)

// pendingQuery is what a pool entry remembers about an in-flight upstream
// query: who to reply to and when it was sent, per spec.md §3 PendingQuery.
type pendingQuery struct {
	clientAddr *net.UDPAddr
	issueTime  time.Time
}

// pool tracks upstream sockets currently awaiting a response, keyed by the
// socket itself, per spec.md §4.6 regular_pool/routed_pool.
type pool struct {
	entries map[*net.UDPConn]pendingQuery
}

func newPool() *pool {
	return &pool{entries: make(map[*net.UDPConn]pendingQuery)}
}

func (p *pool) put(conn *net.UDPConn, q pendingQuery) {
	p.entries[conn] = q
}

func (p *pool) take(conn *net.UDPConn) (pendingQuery, bool) {
	q, ok := p.entries[conn]
	if ok {
		delete(p.entries, conn)
	}
	return q, ok
}

func (p *pool) len() int { return len(p.entries) }

// expired removes and returns every entry whose issue_time is older than
// the cutoff, per spec.md §4.6 step 3.
func (p *pool) expired(cutoff time.Time) []*net.UDPConn {
	var out []*net.UDPConn
	for conn, q := range p.entries {
		if q.issueTime.Before(cutoff) {
			out = append(out, conn)
			delete(p.entries, conn)
		}
	}
	return out
}

// freePool is the idle-socket reuse pool; it closes everything it holds
// each cycle after admissions, per spec.md §4.6 step 5's reference
// behavior (bounded fd pressure over a small warm set).
type freePool struct {
	conns []*net.UDPConn
}

func (f *freePool) push(conn *net.UDPConn) {
	f.conns = append(f.conns, conn)
}

// take pops one idle socket for reuse, or reports none available.
func (f *freePool) take() (*net.UDPConn, bool) {
	if len(f.conns) == 0 {
		return nil, false
	}
	conn := f.conns[len(f.conns)-1]
	f.conns = f.conns[:len(f.conns)-1]
	return conn, true
}

// drain closes every remaining idle socket and empties the pool.
func (f *freePool) drain() int {
	n := len(f.conns)
	for _, conn := range f.conns {
		conn.Close()
	}
	f.conns = nil
	return n
}
