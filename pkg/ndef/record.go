package ndef

import "bytes"

// TNF is the type-name-format of a record. The value selects how the Type
// field is interpreted.
type TNF uint8

const (
	TNFEmpty       TNF = 0x00
	TNFWellKnown   TNF = 0x01
	TNFMimeMedia   TNF = 0x02
	TNFAbsoluteURI TNF = 0x03
	TNFExternal    TNF = 0x04
	TNFUnknown     TNF = 0x05
	TNFUnchanged   TNF = 0x06
)

func (t TNF) String() string {
	switch t {
	case TNFEmpty:
		return "empty"
	case TNFWellKnown:
		return "well-known"
	case TNFMimeMedia:
		return "mime"
	case TNFAbsoluteURI:
		return "absolute-uri"
	case TNFExternal:
		return "external"
	case TNFUnknown:
		return "unknown"
	case TNFUnchanged:
		return "unchanged"
	default:
		return "invalid"
	}
}

// Well-known record types.
var (
	RTDURI                 = []byte("U")
	RTDText                = []byte("T")
	RTDHandoverRequest     = []byte("Hr")
	RTDHandoverSelect      = []byte("Hs")
	RTDCollisionResolution = []byte{0x63, 0x72} // "cr"
)

// Record is a single tagged unit of data within a Message. Records are
// immutable: the constructor copies its inputs and accessors return the
// internal slices, which callers must not modify.
type Record struct {
	tnf     TNF
	typ     []byte
	id      []byte
	payload []byte
}

// NewRecord builds a record, copying all byte slices.
func NewRecord(tnf TNF, typ, id, payload []byte) Record {
	return Record{
		tnf:     tnf,
		typ:     append([]byte(nil), typ...),
		id:      append([]byte(nil), id...),
		payload: append([]byte(nil), payload...),
	}
}

func (r Record) TNF() TNF        { return r.tnf }
func (r Record) Type() []byte    { return r.typ }
func (r Record) ID() []byte      { return r.id }
func (r Record) Payload() []byte { return r.payload }

// IsWellKnown reports whether the record carries the given well-known type.
func (r Record) IsWellKnown(rtd []byte) bool {
	return r.tnf == TNFWellKnown && bytes.Equal(r.typ, rtd)
}

// Equal compares all four semantic fields.
func (r Record) Equal(o Record) bool {
	return r.tnf == o.tnf &&
		bytes.Equal(r.typ, o.typ) &&
		bytes.Equal(r.id, o.id) &&
		bytes.Equal(r.payload, o.payload)
}
