package route

import (
	"encoding/binary"

	"golang.org/x/sys/unix"

	"github.com/dnsscience/splitdns/internal/netutil"
)

const (
	nlmsgHdrLen = 16 // sizeof(struct nlmsghdr)
	rtmsgLen    = 12 // sizeof(struct rtmsg)
	rtaHdrLen   = 4  // sizeof(struct rtattr)
)

// nlmAlign rounds n up to the 4-byte boundary netlink attributes are padded
// to (NLMSG_ALIGNTO).
func nlmAlign(n int) int { return (n + 3) &^ 3 }

func familyToUnix(f netutil.Family) uint8 {
	if f == netutil.IPv6 {
		return unix.AF_INET6
	}
	return unix.AF_INET
}

// rtAttr appends one netlink attribute (type + value, length-prefixed and
// padded to a 4-byte boundary) to buf.
func rtAttr(buf []byte, attrType uint16, value []byte) []byte {
	start := len(buf)
	length := rtaHdrLen + len(value)
	buf = append(buf, make([]byte, nlmAlign(length))...)
	binary.LittleEndian.PutUint16(buf[start:start+2], uint16(length))
	binary.LittleEndian.PutUint16(buf[start+2:start+4], attrType)
	copy(buf[start+rtaHdrLen:], value)
	return buf
}

// buildRouteMessage constructs an RTM_NEWROUTE/RTM_DELROUTE/RTM_GETROUTE
// message: table = main, protocol = static, type = unicast, carrying the
// destination network and, for add/delete, a gateway (spec.md §4.5).
func buildRouteMessage(msgType uint16, flags uint16, seq uint32, n netutil.Network, gateway *netutil.Uint128) []byte {
	fam := familyToUnix(n.Family)

	var buf []byte
	// placeholder nlmsghdr, fixed up once total length is known.
	buf = append(buf, make([]byte, nlmsgHdrLen)...)

	rtmOff := len(buf)
	buf = append(buf, make([]byte, rtmsgLen)...)
	buf[rtmOff+0] = fam                      // rtm_family
	buf[rtmOff+1] = byte(n.PrefixLen())      // rtm_dst_len
	buf[rtmOff+2] = 0                        // rtm_src_len
	buf[rtmOff+3] = 0                        // rtm_tos
	buf[rtmOff+4] = unix.RT_TABLE_MAIN       // rtm_table
	buf[rtmOff+5] = unix.RTPROT_STATIC       // rtm_protocol
	buf[rtmOff+6] = unix.RT_SCOPE_UNIVERSE   // rtm_scope
	buf[rtmOff+7] = unix.RTN_UNICAST         // rtm_type
	binary.LittleEndian.PutUint32(buf[rtmOff+8:rtmOff+12], 0) // rtm_flags

	tableVal := make([]byte, 4)
	binary.LittleEndian.PutUint32(tableVal, uint32(unix.RT_TABLE_MAIN))
	buf = rtAttr(buf, unix.RTA_TABLE, tableVal)

	dst := n.Family.IntToBytes(n.Address)
	buf = rtAttr(buf, unix.RTA_DST, dst)

	if gateway != nil {
		gw := n.Family.IntToBytes(*gateway)
		buf = rtAttr(buf, unix.RTA_GATEWAY, gw)
	}

	binary.LittleEndian.PutUint32(buf[0:4], uint32(len(buf)))
	binary.LittleEndian.PutUint16(buf[4:6], msgType)
	binary.LittleEndian.PutUint16(buf[6:8], flags)
	binary.LittleEndian.PutUint32(buf[8:12], seq)
	binary.LittleEndian.PutUint32(buf[12:16], 0)

	return buf
}

// buildDumpMessage constructs an RTM_GETROUTE request for every route of
// the given family.
func buildDumpMessage(seq uint32, f netutil.Family) []byte {
	var buf []byte
	buf = append(buf, make([]byte, nlmsgHdrLen)...)

	rtmOff := len(buf)
	buf = append(buf, make([]byte, rtmsgLen)...)
	buf[rtmOff+0] = familyToUnix(f)

	binary.LittleEndian.PutUint32(buf[0:4], uint32(len(buf)))
	binary.LittleEndian.PutUint16(buf[4:6], unix.RTM_GETROUTE)
	binary.LittleEndian.PutUint16(buf[6:8], unix.NLM_F_REQUEST|unix.NLM_F_DUMP)
	binary.LittleEndian.PutUint32(buf[8:12], seq)
	binary.LittleEndian.PutUint32(buf[12:16], 0)

	return buf
}
