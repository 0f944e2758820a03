package handover

import (
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"easynfc/pkg/comm"
	"easynfc/pkg/exchange"
	"easynfc/pkg/ndef"
)

// SchemeRadio addresses a peer listening on a short-range radio service:
// `ndef+bluetooth://<peer-address>/<service-uuid>`.
const SchemeRadio = "ndef+bluetooth"

// RadioInitiator connects to a peer's advertised radio service and runs the
// exchange protocol over the link.
type RadioInitiator struct {
	adapter comm.RadioAdapter
	log     *zap.Logger
}

func NewRadioInitiator(adapter comm.RadioAdapter) *RadioInitiator {
	return &RadioInitiator{adapter: adapter, log: zap.L().Named("handover.radio")}
}

func (r *RadioInitiator) Supports(rec ndef.Record) bool {
	_, ok := recordURI(rec, SchemeRadio)
	return ok
}

func (r *RadioInitiator) Attempt(contract exchange.Contract, msg *ndef.Message, pos int) error {
	uri, ok := recordURI(msg.Records()[pos], SchemeRadio)
	if !ok {
		return fmt.Errorf("handover: malformed %s candidate", SchemeRadio)
	}
	service, err := uuid.Parse(uri.servicePath())
	if err != nil {
		return fmt.Errorf("handover: bad service uuid: %w", err)
	}
	sock := comm.NewRadioSocket(r.adapter, uri.authority, service)
	eng, err := exchange.New(sock, contract)
	if err != nil {
		_ = sock.Close()
		return err
	}
	r.log.Debug("radio handover established",
		zap.String("peer", uri.authority), zap.String("service", service.String()))
	eng.Start()
	return nil
}
