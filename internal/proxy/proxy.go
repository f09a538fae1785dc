package proxy

import (
	"fmt"
	"net"

	"golang.org/x/sys/unix"

	"github.com/dnsscience/splitdns/internal/logging"
	"github.com/dnsscience/splitdns/internal/netutil"
	"github.com/dnsscience/splitdns/internal/pool"
	"github.com/dnsscience/splitdns/internal/route"
)

// reservedFDs approximates the descriptors always held open outside the
// ephemeral upstream-socket pool: stdio, the listen socket, and the route
// transport, used by the fd-budget admission control of spec.md §4.6 /
// §9 ("soft_rlimit_nofile − count(open fds)").
const reservedFDs = 8

// Proxy is the split-horizon DNS proxy core described in spec.md §4.6. Its
// event loop is single-threaded: Run owns every mutable field below, and
// reader goroutines only ever communicate back over channels, never touch
// shared state directly.
type Proxy struct {
	cfg Config
	log *logging.Logger

	listenConn  *net.UDPConn
	routeClient *route.Client

	free    freePool
	regular *pool
	routed  *pool

	queue []clientDatagram

	subnetsV4 []netutil.Network
	subnetsV6 []netutil.Network

	coveredV4 *coveredCache
	coveredV6 *coveredCache

	clientCh chan clientDatagram
	upstreamCh chan upstreamResult
	routeCh  chan routeEventsResult

	done chan struct{}
}

// New opens the listen socket and route transport, seeds the subnet sets
// from the kernel's current routing table, and starts the background
// readers. Callers must eventually call Close.
func New(cfg Config, log *logging.Logger) (*Proxy, error) {
	listenConn, err := net.ListenUDP("udp", cfg.ListenAddr)
	if err != nil {
		return nil, fmt.Errorf("proxy: listening on %s: %w", cfg.ListenAddr, err)
	}

	routeClient, err := route.Open()
	if err != nil {
		listenConn.Close()
		return nil, fmt.Errorf("proxy: opening route transport: %w", err)
	}

	p := &Proxy{
		cfg:         cfg,
		log:         log,
		listenConn:  listenConn,
		routeClient: routeClient,
		regular:     newPool(),
		routed:      newPool(),
		coveredV4:   newCoveredCache(),
		coveredV6:   newCoveredCache(),
		clientCh:    make(chan clientDatagram, 64),
		upstreamCh:  make(chan upstreamResult, 64),
		routeCh:     make(chan routeEventsResult, 8),
		done:        make(chan struct{}),
	}

	if err := p.seedSubnets(); err != nil {
		log.Warningf("seeding subnets from kernel route table: %v", err)
	}

	go p.readListen()
	go p.readRouteEvents()

	return p, nil
}

// Close stops the background readers and releases all sockets.
func (p *Proxy) Close() error {
	close(p.done)
	p.listenConn.Close()
	p.routeClient.Close()
	for _, conn := range p.free.conns {
		conn.Close()
	}
	for conn := range p.regular.entries {
		conn.Close()
	}
	for conn := range p.routed.entries {
		conn.Close()
	}
	return nil
}

func (p *Proxy) seedSubnets() error {
	v4, err := p.routeClient.Dump(netutil.IPv4)
	if err != nil {
		return fmt.Errorf("dumping IPv4 routes: %w", err)
	}
	p.applyRouteEvents(v4)

	if p.cfg.GatewayV6 != nil {
		v6, err := p.routeClient.Dump(netutil.IPv6)
		if err != nil {
			return fmt.Errorf("dumping IPv6 routes: %w", err)
		}
		p.applyRouteEvents(v6)
	}
	return nil
}

// fdBudget approximates spec.md §4.6 step 4's
// soft_rlimit_nofile − count(open fds): the soft RLIMIT_NOFILE minus a
// fixed reservation for always-present descriptors minus the ephemeral
// sockets currently outstanding, per the §9 design note's counter
// fallback (cheaply counting actual open fds is not portable).
func (p *Proxy) fdBudget() int {
	var rlim unix.Rlimit
	if err := unix.Getrlimit(unix.RLIMIT_NOFILE, &rlim); err != nil {
		p.log.Warningf("Getrlimit(RLIMIT_NOFILE): %v", err)
		return 0
	}
	outstanding := p.regular.len() + p.routed.len() + len(p.free.conns)
	budget := int(rlim.Cur) - reservedFDs - outstanding
	if budget < 0 {
		return 0
	}
	return budget
}

func (p *Proxy) readListen() {
	buf := make([]byte, p.cfg.BufferSize)
	for {
		n, addr, err := p.listenConn.ReadFromUDP(buf)
		if err != nil {
			select {
			case <-p.done:
				return
			default:
				p.log.Errorf("listen socket read: %v", err)
				return
			}
		}
		data := make([]byte, n)
		copy(data, buf[:n])
		select {
		case p.clientCh <- clientDatagram{data: data, addr: addr}:
		case <-p.done:
			return
		}
	}
}

func (p *Proxy) readRouteEvents() {
	for {
		events, err := p.routeClient.ReadEvents()
		select {
		case p.routeCh <- routeEventsResult{events: events, err: err}:
		case <-p.done:
			return
		}
		if err != nil {
			// The route socket is blocking, so a read error here means the
			// socket itself broke (e.g. Close was called), not a transient
			// EAGAIN; drainRoute logs it from the posted result, and this
			// goroutine has nothing more to read.
			return
		}
	}
}

func (p *Proxy) readUpstream(conn *net.UDPConn) {
	buf := pool.GetLargeBuffer()
	defer pool.PutLargeBuffer(buf)

	n, err := conn.Read(buf)
	var data []byte
	if err == nil {
		data = make([]byte, n)
		copy(data, buf[:n])
	}
	select {
	case p.upstreamCh <- upstreamResult{conn: conn, data: data, err: err}:
	case <-p.done:
	}
}
