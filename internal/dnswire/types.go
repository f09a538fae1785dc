// Package dnswire implements RFC 1035 DNS message parsing and
// serialization: name compression with pointer-loop protection on the way
// in, and uncompressed wire output on the way out, per spec.md §4.3.
package dnswire

import "strings"

// Resource record types the proxy cares about; all others pass through
// opaquely.
const (
	TypeA     uint16 = 1
	TypeCNAME uint16 = 5
	TypeAAAA  uint16 = 28

	ClassIN uint16 = 1
)

// Header flag bit masks, MSB first: QR(1) OPCODE(4) AA(1) TC(1) RD(1) RA(1) Z(3) RCODE(4).
const (
	flagQR     uint16 = 0x8000
	flagOpcode uint16 = 0x7800
	flagAA     uint16 = 0x0400
	flagTC     uint16 = 0x0200
	flagRD     uint16 = 0x0100
	flagRA     uint16 = 0x0080
	flagZ      uint16 = 0x0070
	flagRcode  uint16 = 0x000F
)

// Header is the fixed 12-byte DNS message header.
type Header struct {
	ID      uint16
	Flags   uint16
	QDCount uint16
	ANCount uint16
	NSCount uint16
	ARCount uint16
}

// QR reports the Query/Response bit.
func (h Header) QR() bool { return h.Flags&flagQR != 0 }

// AA reports the Authoritative Answer bit.
func (h Header) AA() bool { return h.Flags&flagAA != 0 }

// TC reports the Truncated bit.
func (h Header) TC() bool { return h.Flags&flagTC != 0 }

// RD reports the Recursion Desired bit.
func (h Header) RD() bool { return h.Flags&flagRD != 0 }

// RA reports the Recursion Available bit.
func (h Header) RA() bool { return h.Flags&flagRA != 0 }

// Opcode returns the 4-bit opcode field.
func (h Header) Opcode() uint8 { return uint8((h.Flags & flagOpcode) >> 11) }

// Rcode returns the 4-bit response code field.
func (h Header) Rcode() uint8 { return uint8(h.Flags & flagRcode) }

// QName is an ordered sequence of label byte-strings, preserved verbatim
// (including case). An empty sequence denotes the root name.
type QName [][]byte

// Key returns a canonical, collision-free string representation of the
// QName suitable for use as a map key: each label is prefixed by its own
// length byte, exactly as it appears on the wire, which makes two distinct
// label sequences impossible to collide on (the same property that makes
// the wire format itself unambiguous).
func (q QName) Key() string {
	var b strings.Builder
	for _, label := range q {
		b.WriteByte(byte(len(label)))
		b.Write(label)
	}
	return b.String()
}

// String renders the name as dot-joined text, e.g. "www.example.com".
func (q QName) String() string {
	parts := make([]string, len(q))
	for i, label := range q {
		parts[i] = string(label)
	}
	return strings.Join(parts, ".")
}

// Suffixes yields, from most specific to least, every non-empty suffix of
// the name: for [a b c] that is [a b c], [b c], [c].
func (q QName) Suffixes() []QName {
	out := make([]QName, 0, len(q))
	for i := 0; i < len(q); i++ {
		out = append(out, q[i:])
	}
	return out
}

// Equal reports structural equality between two QNames.
func (q QName) Equal(o QName) bool {
	if len(q) != len(o) {
		return false
	}
	for i := range q {
		if string(q[i]) != string(o[i]) {
			return false
		}
	}
	return true
}

// Question is a single entry of the question section.
type Question struct {
	Name  QName
	Type  uint16
	Class uint16
}

// ResourceRecord is a single answer/authority/additional entry. For CNAME
// records (Type == TypeCNAME), RData is parsed into CNAME (a QName) and the
// raw RData field is left empty; RDLength retains the size of the
// wire-encoded rdata as it was originally read, even though the parsed
// CNAME may re-encode to a different length on output (spec.md §4.3, §9).
type ResourceRecord struct {
	Name     QName
	Type     uint16
	Class    uint16
	TTL      uint32
	RDLength uint16
	RData    []byte
	CNAME    QName
}

// IsCNAME reports whether this record's rdata was decoded as a QName.
func (rr ResourceRecord) IsCNAME() bool { return rr.Type == TypeCNAME }

// Message is a complete DNS message: a header plus its four sections, with
// section lengths matching the header's counts.
type Message struct {
	Header     Header
	Questions  []Question
	Answers    []ResourceRecord
	Authority  []ResourceRecord
	Additional []ResourceRecord
}
