package dnswire

import (
	"bytes"
	"encoding/binary"
)

// Serialize encodes a Message to wire format. Names are always written
// uncompressed -- the serializer never emits a pointer, even for a message
// that was parsed with compressed names -- per spec.md §4.3.
//
// For CNAME records the rdata comes from one of two places: if RData is
// non-empty (the caller supplied raw, possibly still-compressed bytes) it
// is written verbatim; otherwise CNAME (a parsed QName) is re-encoded
// uncompressed. Either way the record's original RDLength is written as
// stored, even when it no longer matches the length of a QName
// re-encoding (spec.md §9, the CNAME rdlength/rdata asymmetry: parsing
// always populates CNAME and never RData, so round-tripping a parsed
// message re-expands the name, while a hand-built record carrying raw
// RData is passed through unchanged).
func Serialize(msg *Message) []byte {
	var buf bytes.Buffer

	writeHeader(&buf, msg.Header)

	for _, q := range msg.Questions {
		writeName(&buf, q.Name)
		writeUint16(&buf, q.Type)
		writeUint16(&buf, q.Class)
	}
	for _, rr := range msg.Answers {
		writeRR(&buf, rr)
	}
	for _, rr := range msg.Authority {
		writeRR(&buf, rr)
	}
	for _, rr := range msg.Additional {
		writeRR(&buf, rr)
	}

	return buf.Bytes()
}

func writeHeader(buf *bytes.Buffer, h Header) {
	writeUint16(buf, h.ID)
	writeUint16(buf, h.Flags)
	writeUint16(buf, h.QDCount)
	writeUint16(buf, h.ANCount)
	writeUint16(buf, h.NSCount)
	writeUint16(buf, h.ARCount)
}

func writeRR(buf *bytes.Buffer, rr ResourceRecord) {
	writeName(buf, rr.Name)
	writeUint16(buf, rr.Type)
	writeUint16(buf, rr.Class)
	writeUint32(buf, rr.TTL)
	writeUint16(buf, rr.RDLength)

	if rr.Type == TypeCNAME && len(rr.RData) == 0 {
		writeName(buf, rr.CNAME)
		return
	}
	buf.Write(rr.RData)
}

func writeName(buf *bytes.Buffer, name QName) {
	for _, label := range name {
		buf.WriteByte(byte(len(label)))
		buf.Write(label)
	}
	buf.WriteByte(0)
}

func writeUint16(buf *bytes.Buffer, v uint16) {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	buf.Write(b[:])
}

func writeUint32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}
