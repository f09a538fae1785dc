package netutil

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
)

// ErrBadNetwork is returned when a textual network literal is neither a
// bare address nor an "address/prefix" pair, per spec.md §4.1 parse_network.
var ErrBadNetwork = errors.New("not a valid network literal")

// Family distinguishes IPv4 from IPv6. The two families differ only in
// width, all-ones mask and text formatter; no other behavior is exposed.
type Family uint8

const (
	IPv4 Family = 4
	IPv6 Family = 6
)

// Width returns the address width in bits for the family.
func (f Family) Width() int {
	switch f {
	case IPv4:
		return 32
	case IPv6:
		return 128
	default:
		panic("netutil: unknown family")
	}
}

// byteWidth returns the address width in octets.
func (f Family) byteWidth() int {
	return f.Width() / 8
}

// AllOnes returns the all-ones mask for the family (the host mask).
func (f Family) AllOnes() Uint128 {
	return Uint128{}.Not().Shr(uint(128 - f.Width()))
}

// MinMask is the reducer's floor: the broadest prefix a subnet may widen to
// (IPv4: /8, IPv6: /32), per spec.md §4.2.
func (f Family) MinMask() Uint128 {
	switch f {
	case IPv4:
		return f.PrefixLenToMask(8)
	case IPv6:
		return f.PrefixLenToMask(32)
	default:
		panic("netutil: unknown family")
	}
}

// PrefixLenToMask computes mask = ALL_ONES ^ (ALL_ONES >> prefix_len).
func (f Family) PrefixLenToMask(prefixLen int) Uint128 {
	allOnes := f.AllOnes()
	return allOnes.Xor(allOnes.Shr(uint(prefixLen)))
}

// MaskToPrefixLen computes prefix_len = WIDTH - bit_length(ALL_ONES ^ mask).
func (f Family) MaskToPrefixLen(mask Uint128) int {
	return f.Width() - f.AllOnes().Xor(mask).BitLen()
}

// BytesToInt interprets a big-endian address in network-order binary form as
// an integer.
func (f Family) BytesToInt(b []byte) (Uint128, error) {
	if len(b) != f.byteWidth() {
		return Uint128{}, fmt.Errorf("netutil: expected %d bytes, got %d", f.byteWidth(), len(b))
	}
	return FromBytesBigEndian(b), nil
}

// IntToBytes is the inverse of BytesToInt.
func (f Family) IntToBytes(v Uint128) []byte {
	return v.BytesBigEndian(f.byteWidth())
}

// TextToBytes parses dotted-quad (IPv4) or colon-hex (IPv6) text into
// network-order binary form.
func (f Family) TextToBytes(text string) ([]byte, error) {
	ip := net.ParseIP(text)
	if ip == nil {
		return nil, fmt.Errorf("netutil: invalid address %q", text)
	}
	switch f {
	case IPv4:
		v4 := ip.To4()
		if v4 == nil {
			return nil, fmt.Errorf("netutil: %q is not an IPv4 address", text)
		}
		return []byte(v4), nil
	case IPv6:
		v6 := ip.To16()
		if v6 == nil || ip.To4() != nil {
			return nil, fmt.Errorf("netutil: %q is not an IPv6 address", text)
		}
		return []byte(v6), nil
	default:
		panic("netutil: unknown family")
	}
}

// BytesToText is the inverse of TextToBytes.
func (f Family) BytesToText(b []byte) string {
	return net.IP(b).String()
}

// TextToInt composes TextToBytes and BytesToInt.
func (f Family) TextToInt(text string) (Uint128, error) {
	b, err := f.TextToBytes(text)
	if err != nil {
		return Uint128{}, err
	}
	return f.BytesToInt(b)
}

// IntToText composes IntToBytes and BytesToText.
func (f Family) IntToText(v Uint128) string {
	return f.BytesToText(f.IntToBytes(v))
}

// Network is a (family, address, mask) tuple satisfying address&mask==address.
// It is comparable and sortable by (address, mask), per spec.md §3.
type Network struct {
	Family  Family
	Address Uint128
	Mask    Uint128
}

// Less orders networks by (address, mask) ascending, as required by the
// reducer's initial sort (spec.md §4.2 step 1).
func (n Network) Less(o Network) bool {
	if !n.Address.Equal(o.Address) {
		return n.Address.Less(o.Address)
	}
	return n.Mask.Less(o.Mask)
}

// PrefixLen returns the CIDR prefix length of the network's mask.
func (n Network) PrefixLen() int {
	return n.Family.MaskToPrefixLen(n.Mask)
}

// String renders "address/prefix", e.g. "192.168.0.0/16".
func (n Network) String() string {
	return fmt.Sprintf("%s/%d", n.Family.IntToText(n.Address), n.PrefixLen())
}

// ParseNetwork accepts "A" (host mask) or "A/N" and fails with ErrBadNetwork
// for anything else, per spec.md §4.1.
func ParseNetwork(f Family, text string) (Network, error) {
	parts := strings.SplitN(text, "/", 2)

	switch len(parts) {
	case 1:
		addr, err := f.TextToInt(parts[0])
		if err != nil {
			return Network{}, fmt.Errorf("%w: %v", ErrBadNetwork, err)
		}
		return Network{Family: f, Address: addr, Mask: f.AllOnes()}, nil

	case 2:
		addr, err := f.TextToInt(parts[0])
		if err != nil {
			return Network{}, fmt.Errorf("%w: %v", ErrBadNetwork, err)
		}
		prefixLen, err := strconv.Atoi(parts[1])
		if err != nil || prefixLen < 0 || prefixLen > f.Width() {
			return Network{}, fmt.Errorf("%w: invalid prefix length %q", ErrBadNetwork, parts[1])
		}
		mask := f.PrefixLenToMask(prefixLen)
		return Network{Family: f, Address: addr.And(mask), Mask: mask}, nil

	default:
		return Network{}, fmt.Errorf("%w: %q", ErrBadNetwork, text)
	}
}

// HostNetwork builds a single-address Network at the family's full mask
// (i.e. /32 for IPv4, /128 for IPv6).
func HostNetwork(f Family, addr Uint128) Network {
	return Network{Family: f, Address: addr, Mask: f.AllOnes()}
}
