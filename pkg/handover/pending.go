package handover

import (
	"easynfc/pkg/dispatch"
	"easynfc/pkg/ndef"
)

// Pending is a captured handover request ready to be executed later, for
// example once the application has produced the payload to push.
type Pending struct {
	request *ndef.Message
	mgr     *Manager
}

// NewPending captures a handover request against a manager.
func NewPending(request *ndef.Message, mgr *Manager) *Pending {
	return &Pending{request: request, mgr: mgr}
}

// Exchange runs the captured negotiation with the given outbound payload.
func (p *Pending) Exchange(outbound *ndef.Message) dispatch.Outcome {
	return p.mgr.AttemptHandover(p.request, outbound)
}
