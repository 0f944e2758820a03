package handover

import (
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"easynfc/pkg/dispatch"
	"easynfc/pkg/exchange"
	"easynfc/pkg/ndef"
)

// candidateStart is the record index where transport candidates begin in a
// handover request: record 0 carries the request framing and record 1 the
// collision-resolution nonce.
const candidateStart = 2

// Manager is the negotiation core. It walks the candidate records of a
// handover request in order and asks each registered initiator, in
// registration order, to establish the described transport. The first
// success consumes the message; transport failures fall through to the next
// initiator/candidate pair and are never retried within the same call.
type Manager struct {
	log     *zap.Logger
	deliver func(*ndef.Message)
	enabled atomic.Bool

	mu         sync.Mutex
	initiators []Initiator
	foreground *ndef.Message
}

// NewManager builds an enabled manager with no initiators. deliver receives
// messages read back over an established exchange; it may be nil.
func NewManager(deliver func(*ndef.Message)) *Manager {
	m := &Manager{log: zap.L().Named("handover"), deliver: deliver}
	m.enabled.Store(true)
	return m
}

// AddInitiator appends an initiator; registration order is attempt order.
func (m *Manager) AddInitiator(in Initiator) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.initiators = append(m.initiators, in)
}

// RemoveInitiator removes a previously added initiator.
func (m *Manager) RemoveInitiator(in Initiator) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.initiators {
		if m.initiators[i] == in {
			m.initiators = append(m.initiators[:i], m.initiators[i+1:]...)
			return true
		}
	}
	return false
}

// ClearInitiators removes every registered initiator.
func (m *Manager) ClearInitiators() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.initiators = nil
}

// SetEnabled gates future handover processing; an in-flight negotiation is
// unaffected.
func (m *Manager) SetEnabled(enabled bool) { m.enabled.Store(enabled) }

// Enabled reports whether handover processing is active.
func (m *Manager) Enabled() bool { return m.enabled.Load() }

// SetForegroundMessage sets the outbound payload initiators transmit during
// an exchange. A nil message sends an empty frame.
func (m *Manager) SetForegroundMessage(msg *ndef.Message) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.foreground = msg
}

// ForegroundMessage returns the current outbound payload.
func (m *Manager) ForegroundMessage() *ndef.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.foreground
}

// Priority places the manager early in the dispatch chain.
func (m *Manager) Priority() int { return dispatch.HandoverPriority }

// HandleMessage implements dispatch.Handler using the foreground message as
// the outbound payload.
func (m *Manager) HandleMessage(msg *ndef.Message) dispatch.Outcome {
	return m.AttemptHandover(msg, m.ForegroundMessage())
}

// AttemptHandover runs the negotiation against msg with an explicit outbound
// payload. It returns Consumed on the first successful attempt and
// Propagated when msg is not a handover request or every candidate/initiator
// pair failed.
func (m *Manager) AttemptHandover(msg *ndef.Message, outbound *ndef.Message) dispatch.Outcome {
	if !m.enabled.Load() {
		return dispatch.Propagated
	}

	idx, userspace, ok := ndef.FindHandoverRequest(msg)
	if !ok {
		return dispatch.Propagated
	}

	working := msg
	start := candidateStart
	if userspace {
		// The unwrapped message is scanned whole: its framing records match
		// no transport scheme and fall through harmlessly.
		start = 0
		uri, err := ndef.ParseURI(msg.Records()[idx])
		if err != nil {
			m.log.Error("bad userspace handover record", zap.Error(err))
			return dispatch.Propagated
		}
		working, err = ndef.FromHandoverURI(uri)
		if err != nil {
			m.log.Error("bad userspace handover envelope", zap.Error(err))
			return dispatch.Propagated
		}
	}

	m.mu.Lock()
	initiators := append([]Initiator(nil), m.initiators...)
	m.mu.Unlock()

	contract := &managerContract{deliver: m.deliver, outbound: outbound}
	records := working.Records()
	for i := start; i < len(records); i++ {
		for _, in := range initiators {
			if !in.Supports(records[i]) {
				continue
			}
			m.log.Debug("attempting handover", zap.Int("candidate", i))
			if err := in.Attempt(contract, working, i); err != nil {
				m.log.Warn("handover attempt failed", zap.Int("candidate", i), zap.Error(err))
				continue
			}
			return dispatch.Consumed
		}
	}

	m.log.Warn("handover request found but no candidate handled")
	return dispatch.Propagated
}

type managerContract struct {
	deliver  func(*ndef.Message)
	outbound *ndef.Message
}

func (c *managerContract) HandleInbound(msg *ndef.Message) {
	if c.deliver != nil {
		c.deliver(msg)
	}
}

func (c *managerContract) OutboundMessage() *ndef.Message { return c.outbound }

var _ exchange.Contract = (*managerContract)(nil)
