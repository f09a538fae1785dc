package dnswire

import (
	"encoding/binary"
	"fmt"
)

// MaxPointers bounds name-compression recursion: (255+1)/2 - 2, per
// spec.md §4.3. A name that would need to follow more pointers than this to
// resolve fails with KindPointerRecursion rather than looping or blowing
// the stack.
const MaxPointers = (255+1)/2 - 2

const headerSize = 12

// parser walks a DNS message with a single forward-and-jump byte cursor,
// mirroring the teacher's packet.Parser shape (internal/packet/parser.go)
// but threading an explicit pointer-hop counter instead of a visited-offset
// set, matching the compression semantics spec.md §4.3 prescribes.
type parser struct {
	data   []byte
	offset int
}

// Parse decodes a complete DNS message from its wire-format bytes.
func Parse(data []byte) (*Message, error) {
	p := &parser{data: data}

	header, err := p.parseHeader()
	if err != nil {
		return nil, err
	}

	msg := &Message{Header: header}

	msg.Questions = make([]Question, 0, header.QDCount)
	for i := uint16(0); i < header.QDCount; i++ {
		q, err := p.parseQuestion()
		if err != nil {
			return nil, err
		}
		msg.Questions = append(msg.Questions, q)
	}

	msg.Answers, err = p.parseRRs(header.ANCount)
	if err != nil {
		return nil, err
	}
	msg.Authority, err = p.parseRRs(header.NSCount)
	if err != nil {
		return nil, err
	}
	msg.Additional, err = p.parseRRs(header.ARCount)
	if err != nil {
		return nil, err
	}

	return msg, nil
}

func (p *parser) parseHeader() (Header, error) {
	if len(p.data) < headerSize {
		return Header{}, unpackErrorf("message too short for header: %d bytes", len(p.data))
	}
	h := Header{
		ID:      binary.BigEndian.Uint16(p.data[0:2]),
		Flags:   binary.BigEndian.Uint16(p.data[2:4]),
		QDCount: binary.BigEndian.Uint16(p.data[4:6]),
		ANCount: binary.BigEndian.Uint16(p.data[6:8]),
		NSCount: binary.BigEndian.Uint16(p.data[8:10]),
		ARCount: binary.BigEndian.Uint16(p.data[10:12]),
	}
	p.offset = headerSize
	return h, nil
}

func (p *parser) parseQuestion() (Question, error) {
	name, err := p.parseName()
	if err != nil {
		return Question{}, err
	}
	if p.offset+4 > len(p.data) {
		return Question{}, unpackErrorf("truncated question after name %q", name)
	}
	q := Question{
		Name:  name,
		Type:  binary.BigEndian.Uint16(p.data[p.offset : p.offset+2]),
		Class: binary.BigEndian.Uint16(p.data[p.offset+2 : p.offset+4]),
	}
	p.offset += 4
	return q, nil
}

func (p *parser) parseRRs(count uint16) ([]ResourceRecord, error) {
	rrs := make([]ResourceRecord, 0, count)
	for i := uint16(0); i < count; i++ {
		rr, err := p.parseRR()
		if err != nil {
			return nil, err
		}
		rrs = append(rrs, rr)
	}
	return rrs, nil
}

func (p *parser) parseRR() (ResourceRecord, error) {
	name, err := p.parseName()
	if err != nil {
		return ResourceRecord{}, err
	}
	if p.offset+10 > len(p.data) {
		return ResourceRecord{}, unpackErrorf("truncated resource record after name %q", name)
	}
	rr := ResourceRecord{
		Name:     name,
		Type:     binary.BigEndian.Uint16(p.data[p.offset : p.offset+2]),
		Class:    binary.BigEndian.Uint16(p.data[p.offset+2 : p.offset+4]),
		TTL:      binary.BigEndian.Uint32(p.data[p.offset+4 : p.offset+8]),
		RDLength: binary.BigEndian.Uint16(p.data[p.offset+8 : p.offset+10]),
	}
	p.offset += 10

	if p.offset+int(rr.RDLength) > len(p.data) {
		return ResourceRecord{}, unpackErrorf("rdlength %d exceeds remaining message for %q", rr.RDLength, name)
	}
	rdataEnd := p.offset + int(rr.RDLength)

	if rr.Type == TypeCNAME {
		// rr_data is parsed as a QName; the cursor may wander past
		// rdataEnd (via compression) or stop short, so it is reset to
		// rdataEnd afterward rather than trusted.
		cname, err := p.parseName()
		if err != nil {
			return ResourceRecord{}, err
		}
		rr.CNAME = cname
		p.offset = rdataEnd
	} else {
		rr.RData = make([]byte, rr.RDLength)
		copy(rr.RData, p.data[p.offset:rdataEnd])
		p.offset = rdataEnd
	}

	return rr, nil
}

// parseName decodes a (possibly compressed) name starting at the current
// cursor, advancing the cursor past the name as it appears at its original
// position -- i.e. past the first pointer encountered, not past whatever it
// points to.
func (p *parser) parseName() (QName, error) {
	var labels [][]byte
	offset := p.offset
	jumped := false
	hops := 0

	for {
		if offset >= len(p.data) {
			return nil, unpackErrorf("name offset %d out of bounds", offset)
		}
		length := int(p.data[offset])

		switch {
		case length == 0:
			if !jumped {
				p.offset = offset + 1
			}
			return QName(labels), nil

		case length&0xC0 == 0xC0:
			if offset+1 >= len(p.data) {
				return nil, unpackErrorf("truncated pointer at offset %d", offset)
			}
			hops++
			if hops > MaxPointers {
				return nil, &ParseError{
					Kind: KindPointerRecursion,
					Msg:  "exceeded maximum compression pointer hops",
				}
			}
			ptr := int(binary.BigEndian.Uint16(p.data[offset:offset+2]) & 0x3FFF)
			if !jumped {
				p.offset = offset + 2
				jumped = true
			}
			offset = ptr

		case length&0xC0 == 0x00:
			offset++
			if offset+length > len(p.data) {
				return nil, unpackErrorf("truncated label at offset %d", offset)
			}
			label := make([]byte, length)
			copy(label, p.data[offset:offset+length])
			labels = append(labels, label)
			offset += length

		default:
			return nil, &ParseError{
				Kind: KindInvalidLabelLength,
				Msg:  fmt.Sprintf("Invalid label length %d", length),
			}
		}
	}
}
