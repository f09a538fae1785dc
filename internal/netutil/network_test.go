package netutil

import "testing"

func TestPrefixMaskBijection(t *testing.T) {
	for _, f := range []Family{IPv4, IPv6} {
		for prefixLen := 0; prefixLen <= f.Width(); prefixLen++ {
			mask := f.PrefixLenToMask(prefixLen)
			got := f.MaskToPrefixLen(mask)
			if got != prefixLen {
				t.Errorf("family %v: prefix %d -> mask -> prefix = %d", f, prefixLen, got)
			}
		}
	}
}

func TestIPv4TextBijection(t *testing.T) {
	cases := []string{"0.0.0.0", "255.255.255.255", "192.168.1.1", "93.184.216.34", "1.1.1.1"}
	for _, text := range cases {
		v, err := IPv4.TextToInt(text)
		if err != nil {
			t.Fatalf("TextToInt(%q): %v", text, err)
		}
		got := IPv4.IntToText(v)
		if got != text {
			t.Errorf("IPv4 round-trip %q -> %q", text, got)
		}
	}
}

func TestIPv6TextBijection(t *testing.T) {
	cases := []string{"::", "::1", "2a00:1450:4005:800::200e", "2a00:1450:4005:80b::200e"}
	for _, text := range cases {
		v, err := IPv6.TextToInt(text)
		if err != nil {
			t.Fatalf("TextToInt(%q): %v", text, err)
		}
		got := IPv6.IntToText(v)
		if got != text {
			t.Errorf("IPv6 round-trip %q -> %q", text, got)
		}
	}
}

func TestBytesIntBijection(t *testing.T) {
	for _, f := range []Family{IPv4, IPv6} {
		b := make([]byte, f.byteWidth())
		for i := range b {
			b[i] = byte(i + 1)
		}
		v, err := f.BytesToInt(b)
		if err != nil {
			t.Fatalf("BytesToInt: %v", err)
		}
		got := f.IntToBytes(v)
		if len(got) != len(b) {
			t.Fatalf("length mismatch")
		}
		for i := range b {
			if got[i] != b[i] {
				t.Fatalf("byte %d: got %x want %x", i, got[i], b[i])
			}
		}
	}
}

func TestParseNetwork(t *testing.T) {
	tests := []struct {
		text       string
		wantAddr   string
		wantPrefix int
	}{
		{"192.168.1.1", "192.168.1.1", 32},
		{"192.168.0.0/16", "192.168.0.0", 16},
		{"10.0.0.5/24", "10.0.0.0", 24},
	}
	for _, tt := range tests {
		n, err := ParseNetwork(IPv4, tt.text)
		if err != nil {
			t.Fatalf("ParseNetwork(%q): %v", tt.text, err)
		}
		if got := IPv4.IntToText(n.Address); got != tt.wantAddr {
			t.Errorf("%q: address = %s, want %s", tt.text, got, tt.wantAddr)
		}
		if n.PrefixLen() != tt.wantPrefix {
			t.Errorf("%q: prefix = %d, want %d", tt.text, n.PrefixLen(), tt.wantPrefix)
		}
	}
}

func TestParseNetworkBadInput(t *testing.T) {
	bad := []string{"not-an-ip", "1.2.3.4/5/6", "1.2.3.4/999", ""}
	for _, text := range bad {
		if _, err := ParseNetwork(IPv4, text); err == nil {
			t.Errorf("ParseNetwork(%q): expected error", text)
		}
	}
}

func TestNetworkString(t *testing.T) {
	n, err := ParseNetwork(IPv4, "192.168.0.0/16")
	if err != nil {
		t.Fatal(err)
	}
	if got := n.String(); got != "192.168.0.0/16" {
		t.Errorf("String() = %q, want 192.168.0.0/16", got)
	}
}

func TestNetworkLess(t *testing.T) {
	a, _ := ParseNetwork(IPv4, "10.0.0.0/24")
	b, _ := ParseNetwork(IPv4, "10.0.0.0/16")
	c, _ := ParseNetwork(IPv4, "10.0.1.0/24")

	if !b.Less(a) {
		t.Errorf("expected /16 to sort before /24 at same address")
	}
	if !a.Less(c) {
		t.Errorf("expected lower address to sort first")
	}
}
