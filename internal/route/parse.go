package route

import (
	"encoding/binary"
	"fmt"

	"golang.org/x/sys/unix"

	"github.com/dnsscience/splitdns/internal/netutil"
)

// decodedRoute is the raw rtmsg plus attributes for one RTM_*ROUTE message,
// before it is tagged with an Event's contextual Type.
type decodedRoute struct {
	msgType uint16
	family  netutil.Family
	dstLen  int
	dst     netutil.Uint128
	gateway netutil.Uint128
	hasGW   bool
	table   uint8
}

// decodeMessages walks a buffer of one or more concatenated netlink
// messages (as returned by a single Recvfrom), returning the decoded route
// messages found and reporting whether NLMSG_DONE was seen (end of a dump).
// NLMSG_ERROR with a non-zero code is returned as an error; a zero-code
// ACK is silently skipped.
func decodeMessages(buf []byte) (routes []decodedRoute, done bool, err error) {
	off := 0
	for off+nlmsgHdrLen <= len(buf) {
		msgLen := int(binary.LittleEndian.Uint32(buf[off : off+4]))
		if msgLen < nlmsgHdrLen || off+msgLen > len(buf) {
			return routes, done, fmt.Errorf("route: malformed netlink message length %d at offset %d", msgLen, off)
		}
		msgType := binary.LittleEndian.Uint16(buf[off+4 : off+6])

		switch msgType {
		case unix.NLMSG_DONE:
			done = true

		case unix.NLMSG_ERROR:
			if off+nlmsgHdrLen+4 > len(buf) {
				return routes, done, fmt.Errorf("route: truncated NLMSG_ERROR")
			}
			errno := int32(binary.LittleEndian.Uint32(buf[off+nlmsgHdrLen : off+nlmsgHdrLen+4]))
			if errno != 0 {
				return routes, done, fmt.Errorf("route: netlink error: %w", unix.Errno(-errno))
			}

		case unix.RTM_NEWROUTE, unix.RTM_DELROUTE:
			dr, derr := decodeRouteMsg(msgType, buf[off+nlmsgHdrLen:off+msgLen])
			if derr != nil {
				return routes, done, derr
			}
			routes = append(routes, dr)
		}

		off += nlmAlign(msgLen)
	}
	return routes, done, nil
}

func decodeRouteMsg(msgType uint16, rtm []byte) (decodedRoute, error) {
	if len(rtm) < rtmsgLen {
		return decodedRoute{}, fmt.Errorf("route: truncated rtmsg")
	}

	family := netutil.IPv4
	if rtm[0] == unix.AF_INET6 {
		family = netutil.IPv6
	}
	dr := decodedRoute{
		msgType: msgType,
		family:  family,
		dstLen:  int(rtm[1]),
		table:   rtm[4],
	}

	attrs := rtm[rtmsgLen:]
	off := 0
	for off+rtaHdrLen <= len(attrs) {
		attrLen := int(binary.LittleEndian.Uint16(attrs[off : off+2]))
		attrType := binary.LittleEndian.Uint16(attrs[off+2 : off+4])
		if attrLen < rtaHdrLen || off+attrLen > len(attrs) {
			return decodedRoute{}, fmt.Errorf("route: malformed rtattr length %d", attrLen)
		}
		value := attrs[off+rtaHdrLen : off+attrLen]

		switch attrType {
		case unix.RTA_DST:
			v, err := family.BytesToInt(value)
			if err != nil {
				return decodedRoute{}, fmt.Errorf("route: RTA_DST: %w", err)
			}
			dr.dst = v
		case unix.RTA_GATEWAY:
			v, err := family.BytesToInt(value)
			if err != nil {
				return decodedRoute{}, fmt.Errorf("route: RTA_GATEWAY: %w", err)
			}
			dr.gateway = v
			dr.hasGW = true
		case unix.RTA_TABLE:
			if len(value) >= 4 {
				dr.table = uint8(binary.LittleEndian.Uint32(value))
			}
		}

		off += nlmAlign(attrLen)
	}

	return dr, nil
}
