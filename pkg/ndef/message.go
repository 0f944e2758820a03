// Package ndef implements the NDEF record/message model used for connection
// handover: immutable records, binary message encoding, factory helpers and
// handover request detection.
package ndef

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Record header flag bits.
const (
	flagMB  = 0x80 // message begin
	flagME  = 0x40 // message end
	flagCF  = 0x20 // chunk flag (unsupported)
	flagSR  = 0x10 // short record
	flagIL  = 0x08 // id length present
	tnfMask = 0x07
)

var (
	ErrEmptyMessage = errors.New("ndef: message has no records")
	errChunked      = errors.New("ndef: chunked records not supported")
)

// Message is an ordered, non-empty sequence of records. Record order is
// semantically significant for handover processing.
type Message struct {
	records []Record
}

// NewMessage builds a message from one or more records.
func NewMessage(records ...Record) (*Message, error) {
	if len(records) == 0 {
		return nil, ErrEmptyMessage
	}
	return &Message{records: append([]Record(nil), records...)}, nil
}

// MustMessage is NewMessage for statically known record sets.
func MustMessage(records ...Record) *Message {
	m, err := NewMessage(records...)
	if err != nil {
		panic(err)
	}
	return m
}

// Records returns the message records in order.
func (m *Message) Records() []Record { return m.records }

// Equal compares messages record by record.
func (m *Message) Equal(o *Message) bool {
	if o == nil || len(m.records) != len(o.records) {
		return false
	}
	for i := range m.records {
		if !m.records[i].Equal(o.records[i]) {
			return false
		}
	}
	return true
}

// Bytes encodes the message in NDEF binary form: per record a flag byte
// (MB/ME/SR/IL + TNF), a type length, a 1- or 4-byte payload length, an
// optional id length, then type, id and payload bytes.
func (m *Message) Bytes() ([]byte, error) {
	var out []byte
	for i, r := range m.records {
		if len(r.typ) > 0xff {
			return nil, fmt.Errorf("ndef: record %d type too long: %d", i, len(r.typ))
		}
		if len(r.id) > 0xff {
			return nil, fmt.Errorf("ndef: record %d id too long: %d", i, len(r.id))
		}
		flags := byte(r.tnf) & tnfMask
		if i == 0 {
			flags |= flagMB
		}
		if i == len(m.records)-1 {
			flags |= flagME
		}
		short := len(r.payload) < 256
		if short {
			flags |= flagSR
		}
		if len(r.id) > 0 {
			flags |= flagIL
		}
		out = append(out, flags, byte(len(r.typ)))
		if short {
			out = append(out, byte(len(r.payload)))
		} else {
			out = binary.BigEndian.AppendUint32(out, uint32(len(r.payload)))
		}
		if len(r.id) > 0 {
			out = append(out, byte(len(r.id)))
		}
		out = append(out, r.typ...)
		out = append(out, r.id...)
		out = append(out, r.payload...)
	}
	return out, nil
}

// Parse decodes an NDEF binary message. The first record must carry the
// message-begin flag and the last the message-end flag; chunked records are
// rejected.
func Parse(data []byte) (*Message, error) {
	var records []Record
	off := 0
	for {
		if off+3 > len(data) {
			return nil, fmt.Errorf("ndef: truncated record header at offset %d", off)
		}
		flags := data[off]
		if flags&flagCF != 0 {
			return nil, errChunked
		}
		if len(records) == 0 && flags&flagMB == 0 {
			return nil, errors.New("ndef: first record missing message-begin flag")
		}
		if len(records) > 0 && flags&flagMB != 0 {
			return nil, errors.New("ndef: unexpected message-begin flag")
		}
		typeLen := int(data[off+1])
		off += 2

		var payloadLen int
		if flags&flagSR != 0 {
			payloadLen = int(data[off])
			off++
		} else {
			if off+4 > len(data) {
				return nil, errors.New("ndef: truncated payload length")
			}
			n := binary.BigEndian.Uint32(data[off : off+4])
			if n > 1<<31-1 {
				return nil, fmt.Errorf("ndef: payload too large: %d", n)
			}
			payloadLen = int(n)
			off += 4
		}
		idLen := 0
		if flags&flagIL != 0 {
			if off >= len(data) {
				return nil, errors.New("ndef: truncated id length")
			}
			idLen = int(data[off])
			off++
		}
		if off+typeLen+idLen+payloadLen > len(data) {
			return nil, errors.New("ndef: truncated record body")
		}
		typ := data[off : off+typeLen]
		off += typeLen
		id := data[off : off+idLen]
		off += idLen
		payload := data[off : off+payloadLen]
		off += payloadLen

		records = append(records, NewRecord(TNF(flags&tnfMask), typ, id, payload))
		if flags&flagME != 0 {
			break
		}
		if off >= len(data) {
			return nil, errors.New("ndef: last record missing message-end flag")
		}
	}
	if off != len(data) {
		return nil, fmt.Errorf("ndef: %d trailing bytes after message end", len(data)-off)
	}
	return NewMessage(records...)
}
