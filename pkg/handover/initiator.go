// Package handover implements connection handover negotiation: a manager
// that matches candidate transport records against registered initiators,
// per-transport initiators for tcp, quic and short-range radio, and the
// symmetric collision-resolution pairing flow.
package handover

import (
	"easynfc/pkg/exchange"
	"easynfc/pkg/ndef"
)

// Initiator executes handover over one specific transport.
type Initiator interface {
	// Supports reports whether this initiator understands the candidate
	// record's addressing scheme.
	Supports(rec ndef.Record) bool
	// Attempt establishes the transport described by the candidate record at
	// msg.Records()[pos] and drives the exchange through contract. A returned
	// error is a transport-level failure: the manager logs it and falls
	// through to the next initiator or candidate.
	Attempt(contract exchange.Contract, msg *ndef.Message, pos int) error
}
