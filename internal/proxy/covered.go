package proxy

import (
	"container/list"

	"github.com/dnsscience/splitdns/internal/netutil"
)

// coveredCacheCapacity is the LRU capacity for the "already covered" test,
// per spec.md §4.6.
const coveredCacheCapacity = 4094

// coveredCache is a per-family LRU of addresses already handed to
// reconcile as candidates, so repeated answers for the same address skip
// re-deriving candidate networks. An entry is recorded when the address is
// first extracted, before any route for it is confirmed; the installed
// subnets are not consulted. It is cleared outright whenever the subnet
// set changes (a subnet added or removed by a route event) instead of
// chasing per-entry invalidation.
type coveredCache struct {
	capacity int
	ll       *list.List
	index    map[netutil.Uint128]*list.Element
}

func newCoveredCache() *coveredCache {
	return &coveredCache{
		capacity: coveredCacheCapacity,
		ll:       list.New(),
		index:    make(map[netutil.Uint128]*list.Element),
	}
}

// Contains reports whether addr was previously marked covered, refreshing
// its recency on a hit.
func (c *coveredCache) Contains(addr netutil.Uint128) bool {
	el, ok := c.index[addr]
	if !ok {
		return false
	}
	c.ll.MoveToFront(el)
	return true
}

// Mark records addr as covered, evicting the least-recently-used entry if
// the cache is at capacity.
func (c *coveredCache) Mark(addr netutil.Uint128) {
	if el, ok := c.index[addr]; ok {
		c.ll.MoveToFront(el)
		return
	}
	el := c.ll.PushFront(addr)
	c.index[addr] = el
	if c.ll.Len() > c.capacity {
		oldest := c.ll.Back()
		if oldest != nil {
			c.ll.Remove(oldest)
			delete(c.index, oldest.Value.(netutil.Uint128))
		}
	}
}

// Clear empties the cache, used whenever a subnet is added to or removed
// from the family's subnet set (spec.md §9).
func (c *coveredCache) Clear() {
	c.ll.Init()
	c.index = make(map[netutil.Uint128]*list.Element)
}
