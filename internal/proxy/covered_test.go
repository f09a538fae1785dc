package proxy

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dnsscience/splitdns/internal/netutil"
)

func TestCoveredCacheMarkAndContains(t *testing.T) {
	c := newCoveredCache()
	addr, _ := netutil.IPv4.TextToInt("93.184.216.34")

	assert.False(t, c.Contains(addr))
	c.Mark(addr)
	assert.True(t, c.Contains(addr))
}

func TestCoveredCacheClear(t *testing.T) {
	c := newCoveredCache()
	addr, _ := netutil.IPv4.TextToInt("93.184.216.34")
	c.Mark(addr)
	c.Clear()
	assert.False(t, c.Contains(addr))
}

func TestCoveredCacheEvictsLeastRecentlyUsed(t *testing.T) {
	c := newCoveredCache()
	c.capacity = 2

	a, _ := netutil.IPv4.TextToInt("10.0.0.1")
	b, _ := netutil.IPv4.TextToInt("10.0.0.2")
	d, _ := netutil.IPv4.TextToInt("10.0.0.3")

	c.Mark(a)
	c.Mark(b)
	c.Mark(d) // evicts a, the least recently touched

	assert.False(t, c.Contains(a))
	assert.True(t, c.Contains(b))
	assert.True(t, c.Contains(d))
}

func TestCoveredCacheContainsRefreshesRecency(t *testing.T) {
	c := newCoveredCache()
	c.capacity = 2

	a, _ := netutil.IPv4.TextToInt("10.0.0.1")
	b, _ := netutil.IPv4.TextToInt("10.0.0.2")
	d, _ := netutil.IPv4.TextToInt("10.0.0.3")

	c.Mark(a)
	c.Mark(b)
	c.Contains(a) // touches a, making b the least recently used
	c.Mark(d)      // evicts b instead of a

	assert.True(t, c.Contains(a))
	assert.False(t, c.Contains(b))
	assert.True(t, c.Contains(d))
}
