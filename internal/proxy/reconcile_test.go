package proxy

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dnsscience/splitdns/internal/dnswire"
	"github.com/dnsscience/splitdns/internal/logging"
	"github.com/dnsscience/splitdns/internal/netutil"
	"github.com/dnsscience/splitdns/internal/route"
)

func testLogger() *logging.Logger {
	return logging.New(io.Discard, "TEST", logging.Debug)
}

func mustNetwork(t *testing.T, f netutil.Family, text string) netutil.Network {
	t.Helper()
	n, err := netutil.ParseNetwork(f, text)
	require.NoError(t, err)
	return n
}

func TestDiffNetworksAddAndRemove(t *testing.T) {
	current := []netutil.Network{
		mustNetwork(t, netutil.IPv4, "93.184.216.34/32"),
		mustNetwork(t, netutil.IPv4, "10.0.0.0/24"),
	}
	next := []netutil.Network{
		mustNetwork(t, netutil.IPv4, "93.184.216.34/32"),
		mustNetwork(t, netutil.IPv4, "192.168.1.1/32"),
	}

	toAdd, toDel := diffNetworks(current, next)

	require.Len(t, toAdd, 1)
	assert.Equal(t, "192.168.1.1/32", toAdd[0].String())

	require.Len(t, toDel, 1)
	assert.Equal(t, "10.0.0.0/24", toDel[0].String())
}

func TestDiffNetworksNoChange(t *testing.T) {
	current := []netutil.Network{mustNetwork(t, netutil.IPv4, "93.184.216.34/32")}
	next := []netutil.Network{mustNetwork(t, netutil.IPv4, "93.184.216.34/32")}

	toAdd, toDel := diffNetworks(current, next)
	assert.Empty(t, toAdd)
	assert.Empty(t, toDel)
}

func TestExtractCandidatesSkipsCoveredAndWrongLength(t *testing.T) {
	gwV6, err := netutil.IPv6.TextToInt("fd00::1")
	require.NoError(t, err)

	p := &Proxy{
		cfg:       Config{GatewayV6: &gwV6},
		coveredV4: newCoveredCache(),
		coveredV6: newCoveredCache(),
	}

	msg := &dnswire.Message{
		Answers: []dnswire.ResourceRecord{
			{Type: dnswire.TypeA, RData: []byte{93, 184, 216, 34}},
			{Type: dnswire.TypeA, RData: []byte{1, 2, 3}}, // malformed length, skipped
			{Type: dnswire.TypeCNAME},                     // not an address record
			{Type: dnswire.TypeAAAA, RData: make([]byte, 16)},
		},
	}

	v4, v6 := p.extractCandidates(msg)
	require.Len(t, v4, 1)
	assert.Equal(t, "93.184.216.34/32", v4[0].String())
	require.Len(t, v6, 1)

	// A second pass over the same answers should yield nothing new: both
	// addresses are now marked covered.
	v4again, v6again := p.extractCandidates(msg)
	assert.Empty(t, v4again)
	assert.Empty(t, v6again)
}

func TestExtractCandidatesSkipsAAAAWithoutV6Gateway(t *testing.T) {
	p := &Proxy{
		cfg:       Config{GatewayV6: nil},
		coveredV4: newCoveredCache(),
		coveredV6: newCoveredCache(),
	}
	msg := &dnswire.Message{
		Answers: []dnswire.ResourceRecord{
			{Type: dnswire.TypeAAAA, RData: make([]byte, 16)},
		},
	}
	_, v6 := p.extractCandidates(msg)
	assert.Empty(t, v6)
}

func TestApplyRouteEventsAddAndRemove(t *testing.T) {
	gwV4, err := netutil.IPv4.TextToInt("10.8.0.1")
	require.NoError(t, err)

	p := &Proxy{
		cfg:       Config{GatewayV4: gwV4},
		coveredV4: newCoveredCache(),
		coveredV6: newCoveredCache(),
		log:       testLogger(),
	}

	dst, err := netutil.IPv4.TextToInt("93.184.216.34")
	require.NoError(t, err)

	newEvt := route.Event{
		Type: route.EventNewRoute, Family: netutil.IPv4,
		Dst: dst, DstLen: 32, Gateway: gwV4, HasGateway: true, Table: 254,
	}
	p.applyRouteEvents([]route.Event{newEvt})
	require.Len(t, p.subnetsV4, 1)
	assert.Equal(t, "93.184.216.34/32", p.subnetsV4[0].String())

	delEvt := newEvt
	delEvt.Type = route.EventDelRoute
	p.applyRouteEvents([]route.Event{delEvt})
	assert.Empty(t, p.subnetsV4)
}

func TestApplyRouteEventsIgnoresUnmanagedGateway(t *testing.T) {
	gwV4, err := netutil.IPv4.TextToInt("10.8.0.1")
	require.NoError(t, err)
	other, err := netutil.IPv4.TextToInt("10.9.0.1")
	require.NoError(t, err)

	p := &Proxy{
		cfg:       Config{GatewayV4: gwV4},
		coveredV4: newCoveredCache(),
		coveredV6: newCoveredCache(),
		log:       testLogger(),
	}

	dst, err := netutil.IPv4.TextToInt("93.184.216.34")
	require.NoError(t, err)

	p.applyRouteEvents([]route.Event{{
		Type: route.EventNewRoute, Family: netutil.IPv4,
		Dst: dst, DstLen: 32, Gateway: other, HasGateway: true, Table: 254,
	}})
	assert.Empty(t, p.subnetsV4)
}
