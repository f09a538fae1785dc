package proxy

import (
	"github.com/dnsscience/splitdns/internal/dnswire"
	"github.com/dnsscience/splitdns/internal/netutil"
	"github.com/dnsscience/splitdns/internal/route"
	"github.com/dnsscience/splitdns/internal/subnet"
)

// extractCandidates walks a parsed message's answers and returns the
// /32 or /128 networks for any A/AAAA address not already in the family's
// covered cache, marking each returned address in that cache, per spec.md
// §4.6 Address extraction. AAAA extraction is skipped entirely when no IPv6
// gateway is configured.
func (p *Proxy) extractCandidates(msg *dnswire.Message) (v4, v6 []netutil.Network) {
	for _, rr := range msg.Answers {
		switch {
		case rr.Type == dnswire.TypeA && len(rr.RData) == 4:
			addr, err := netutil.IPv4.BytesToInt(rr.RData)
			if err != nil {
				continue
			}
			if p.coveredV4.Contains(addr) {
				continue
			}
			p.coveredV4.Mark(addr)
			v4 = append(v4, netutil.HostNetwork(netutil.IPv4, addr))

		case rr.Type == dnswire.TypeAAAA && len(rr.RData) == 16 && p.cfg.GatewayV6 != nil:
			addr, err := netutil.IPv6.BytesToInt(rr.RData)
			if err != nil {
				continue
			}
			if p.coveredV6.Contains(addr) {
				continue
			}
			p.coveredV6.Mark(addr)
			v6 = append(v6, netutil.HostNetwork(netutil.IPv6, addr))
		}
	}
	return v4, v6
}

// diffNetworks computes the symmetric difference `current △ new`, split
// into additions (present in new, absent from current) and removals
// (present in current, absent from new), per spec.md §4.6 Reconciliation.
func diffNetworks(current, next []netutil.Network) (toAdd, toDel []netutil.Network) {
	currentSet := make(map[string]bool, len(current))
	for _, n := range current {
		currentSet[n.String()] = true
	}
	nextSet := make(map[string]bool, len(next))
	for _, n := range next {
		nextSet[n.String()] = true
	}

	for _, n := range next {
		if !currentSet[n.String()] {
			toAdd = append(toAdd, n)
		}
	}
	for _, n := range current {
		if !nextSet[n.String()] {
			toDel = append(toDel, n)
		}
	}
	return toAdd, toDel
}

// reconcile folds candidates into the current subnet set via the reducer,
// diffs against what's installed, and issues add/delete commands for the
// difference. It never mutates p.subnetsV4/p.subnetsV6 itself -- that
// state is authoritatively driven by applyRouteEvents (spec.md §4.6
// Reconciliation). A command the kernel silently drops is not retried
// when the same address is seen again while it is still in the covered
// cache; the address becomes a candidate again only after the cache is
// cleared by the next change to the family's subnet set.
func (p *Proxy) reconcile(family netutil.Family, candidates []netutil.Network) {
	if len(candidates) == 0 {
		return
	}

	var current []netutil.Network
	var gateway netutil.Uint128
	if family == netutil.IPv4 {
		current = p.subnetsV4
		gateway = p.cfg.GatewayV4
	} else {
		if p.cfg.GatewayV6 == nil {
			return
		}
		current = p.subnetsV6
		gateway = *p.cfg.GatewayV6
	}

	union := make([]netutil.Network, 0, len(current)+len(candidates))
	union = append(union, current...)
	union = append(union, candidates...)

	next := subnet.Reduce(union)
	toAdd, toDel := diffNetworks(current, next)

	for _, n := range toAdd {
		if err := p.routeClient.AddRoute(n, gateway); err != nil {
			p.log.Errorf("adding route %s via %s: %v", n, family.IntToText(gateway), err)
		}
	}
	for _, n := range toDel {
		if err := p.routeClient.DelRoute(n, gateway); err != nil {
			p.log.Errorf("deleting route %s via %s: %v", n, family.IntToText(gateway), err)
		}
	}
}

// applyRouteEvents folds a batch of decoded route events (from an initial
// Dump or an async notification) into the authoritative subnet sets,
// ignoring events for gateways this proxy doesn't manage, per spec.md
// §4.6 Route event handling.
func (p *Proxy) applyRouteEvents(events []route.Event) {
	for _, e := range events {
		if e.Type != route.EventNewRoute && e.Type != route.EventDelRoute && e.Type != route.EventGetRoute {
			continue
		}
		if !p.isManagedGateway(e) {
			continue
		}

		n := netutil.Network{Family: e.Family, Address: e.Dst, Mask: e.Family.PrefixLenToMask(e.DstLen)}

		switch e.Type {
		case route.EventNewRoute, route.EventGetRoute:
			p.addSubnet(e.Family, n)
		case route.EventDelRoute:
			if !p.removeSubnet(e.Family, n) {
				p.log.Warningf("%v: DEL_ROUTE for untracked subnet %s", ErrRouteMissing, n)
			}
		}
	}
}

func (p *Proxy) isManagedGateway(e route.Event) bool {
	if !e.HasGateway {
		return false
	}
	switch e.Family {
	case netutil.IPv4:
		return e.Gateway.Equal(p.cfg.GatewayV4)
	case netutil.IPv6:
		return p.cfg.GatewayV6 != nil && e.Gateway.Equal(*p.cfg.GatewayV6)
	default:
		return false
	}
}

func (p *Proxy) addSubnet(family netutil.Family, n netutil.Network) {
	list := &p.subnetsV4
	cache := p.coveredV4
	if family == netutil.IPv6 {
		list = &p.subnetsV6
		cache = p.coveredV6
	}
	for _, existing := range *list {
		if existing.Address.Equal(n.Address) && existing.Mask.Equal(n.Mask) {
			return
		}
	}
	*list = append(*list, n)
	cache.Clear()
}

func (p *Proxy) removeSubnet(family netutil.Family, n netutil.Network) bool {
	list := &p.subnetsV4
	cache := p.coveredV4
	if family == netutil.IPv6 {
		list = &p.subnetsV6
		cache = p.coveredV6
	}
	for i, existing := range *list {
		if existing.Address.Equal(n.Address) && existing.Mask.Equal(n.Mask) {
			*list = append((*list)[:i], (*list)[i+1:]...)
			cache.Clear()
			return true
		}
	}
	return false
}
