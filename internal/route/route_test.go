package route

import (
	"encoding/binary"
	"testing"

	"golang.org/x/sys/unix"

	"github.com/dnsscience/splitdns/internal/netutil"
)

func TestBuildAndDecodeRouteMessageRoundTrip(t *testing.T) {
	n, err := netutil.ParseNetwork(netutil.IPv4, "93.184.216.34/32")
	if err != nil {
		t.Fatal(err)
	}
	gw, err := netutil.IPv4.TextToInt("10.0.0.1")
	if err != nil {
		t.Fatal(err)
	}

	msg := buildRouteMessage(unix.RTM_NEWROUTE, unix.NLM_F_REQUEST|unix.NLM_F_ACK|unix.NLM_F_CREATE|unix.NLM_F_REPLACE, 7, n, &gw)

	gotType := binary.LittleEndian.Uint16(msg[4:6])
	if gotType != unix.RTM_NEWROUTE {
		t.Errorf("nlmsg_type = %d, want RTM_NEWROUTE", gotType)
	}
	gotSeq := binary.LittleEndian.Uint32(msg[8:12])
	if gotSeq != 7 {
		t.Errorf("nlmsg_seq = %d, want 7", gotSeq)
	}

	routes, done, err := decodeMessages(msg)
	if err != nil {
		t.Fatalf("decodeMessages: %v", err)
	}
	if done {
		t.Errorf("a non-NLMSG_DONE message decoded as done")
	}
	if len(routes) != 1 {
		t.Fatalf("decoded %d route messages, want 1", len(routes))
	}

	dr := routes[0]
	if dr.family != netutil.IPv4 {
		t.Errorf("family = %v, want IPv4", dr.family)
	}
	if dr.dstLen != 32 {
		t.Errorf("dstLen = %d, want 32", dr.dstLen)
	}
	if dr.table != unix.RT_TABLE_MAIN {
		t.Errorf("table = %d, want RT_TABLE_MAIN", dr.table)
	}
	if !dr.hasGW {
		t.Fatal("expected a gateway attribute")
	}
	if got := netutil.IPv4.IntToText(dr.dst); got != "93.184.216.34" {
		t.Errorf("dst = %s, want 93.184.216.34", got)
	}
	if got := netutil.IPv4.IntToText(dr.gateway); got != "10.0.0.1" {
		t.Errorf("gateway = %s, want 10.0.0.1", got)
	}
}

func TestBuildDumpMessageFlags(t *testing.T) {
	msg := buildDumpMessage(3, netutil.IPv6)

	gotType := binary.LittleEndian.Uint16(msg[4:6])
	if gotType != unix.RTM_GETROUTE {
		t.Errorf("nlmsg_type = %d, want RTM_GETROUTE", gotType)
	}
	gotFlags := binary.LittleEndian.Uint16(msg[6:8])
	want := uint16(unix.NLM_F_REQUEST | unix.NLM_F_DUMP)
	if gotFlags != want {
		t.Errorf("nlmsg_flags = %#x, want %#x", gotFlags, want)
	}
	if msg[nlmsgHdrLen] != unix.AF_INET6 {
		t.Errorf("rtm_family = %d, want AF_INET6", msg[nlmsgHdrLen])
	}
}

func TestDecodeMessagesNlmsgError(t *testing.T) {
	buf := make([]byte, nlmsgHdrLen+4)
	binary.LittleEndian.PutUint32(buf[0:4], uint32(len(buf)))
	binary.LittleEndian.PutUint16(buf[4:6], unix.NLMSG_ERROR)
	errno := -int32(unix.EEXIST)
	binary.LittleEndian.PutUint32(buf[nlmsgHdrLen:nlmsgHdrLen+4], uint32(errno))

	_, _, err := decodeMessages(buf)
	if err == nil {
		t.Fatal("expected an error for a non-zero NLMSG_ERROR code")
	}
}

func TestDecodeMessagesAckIsNotError(t *testing.T) {
	buf := make([]byte, nlmsgHdrLen+4)
	binary.LittleEndian.PutUint32(buf[0:4], uint32(len(buf)))
	binary.LittleEndian.PutUint16(buf[4:6], unix.NLMSG_ERROR)
	binary.LittleEndian.PutUint32(buf[nlmsgHdrLen:nlmsgHdrLen+4], 0)

	_, _, err := decodeMessages(buf)
	if err != nil {
		t.Fatalf("zero-code ack should not be an error, got %v", err)
	}
}

func TestDecodeMessagesMalformedLength(t *testing.T) {
	buf := make([]byte, nlmsgHdrLen)
	binary.LittleEndian.PutUint32(buf[0:4], 3) // shorter than nlmsgHdrLen

	_, _, err := decodeMessages(buf)
	if err == nil {
		t.Fatal("expected an error for an undersized nlmsg_len")
	}
}

func TestEventTypeString(t *testing.T) {
	cases := map[EventType]string{
		EventNewRoute: "NEW_ROUTE",
		EventDelRoute: "DEL_ROUTE",
		EventGetRoute: "GET_ROUTE",
		EventUnknown:  "UNKNOWN",
	}
	for typ, want := range cases {
		if got := typ.String(); got != want {
			t.Errorf("%v.String() = %q, want %q", typ, got, want)
		}
	}
}
