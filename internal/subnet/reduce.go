// Package subnet merges a set of host/network tuples into the smallest set
// of covering subnets, bounded by a family-specific minimum mask floor, per
// spec.md §4.2.
package subnet

import (
	"sort"

	"github.com/dnsscience/splitdns/internal/netutil"
)

// Reduce sorts the input ascending by (address, mask) and sweeps
// left-to-right, greedily widening the accumulator by dropping one octet of
// mask at a time as long as the next address still falls inside the
// widened prefix. On failure to cover, it emits the accumulator and
// restarts from the next item. No output network exceeds the family's
// MinMask (the widening floor).
//
// All networks in the input must share the same family; behavior for mixed
// families is undefined and callers (internal/proxy) never mix them.
func Reduce(networks []netutil.Network) []netutil.Network {
	if len(networks) == 0 {
		return nil
	}

	family := networks[0].Family
	minMask := family.MinMask()

	sorted := make([]netutil.Network, len(networks))
	copy(sorted, networks)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Less(sorted[j]) })

	var out []netutil.Network
	idx := 0
	n := len(sorted)

	for idx < n {
		netAddr := sorted[idx].Address
		netMask := sorted[idx].Mask
		candAddr := netAddr
		candMask := netMask
		idx++

		for idx < n {
			address := sorted[idx].Address
			covered := false

			for !candMask.Equal(minMask) {
				if address.And(candMask).Equal(candAddr) {
					netAddr, netMask = candAddr, candMask
					covered = true
					break
				}
				candMask = candMask.And(candMask.Shl(8))
				candAddr = candAddr.And(candMask)
			}

			if !covered {
				break
			}

			candAddr, candMask = netAddr, netMask
			idx++
		}

		out = append(out, netutil.Network{Family: family, Address: netAddr, Mask: netMask})
	}

	return out
}
