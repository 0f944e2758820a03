package handover

import (
	"fmt"
	"net"
	"strconv"

	"go.uber.org/zap"

	"easynfc/pkg/comm"
	"easynfc/pkg/exchange"
	"easynfc/pkg/ndef"
)

const (
	// SchemeQUIC addresses a peer listening for an exchange over QUIC.
	SchemeQUIC = "ndef+quic"
	// DefaultQUICPort applies when a candidate omits the port.
	DefaultQUICPort = 7925
)

// QUICInitiator connects to a peer advertising `ndef+quic://host[:port]` and
// runs the exchange protocol over a bidirectional QUIC stream.
type QUICInitiator struct {
	log *zap.Logger
}

func NewQUICInitiator() *QUICInitiator {
	return &QUICInitiator{log: zap.L().Named("handover.quic")}
}

func (q *QUICInitiator) Supports(rec ndef.Record) bool {
	_, ok := recordURI(rec, SchemeQUIC)
	return ok
}

func (q *QUICInitiator) Attempt(contract exchange.Contract, msg *ndef.Message, pos int) error {
	uri, ok := recordURI(msg.Records()[pos], SchemeQUIC)
	if !ok {
		return fmt.Errorf("handover: malformed %s candidate", SchemeQUIC)
	}
	host, port, err := uri.hostPort(DefaultQUICPort)
	if err != nil {
		return err
	}
	sock := comm.DialQUIC(net.JoinHostPort(host, strconv.Itoa(port)))
	eng, err := exchange.New(sock, contract)
	if err != nil {
		_ = sock.Close()
		return err
	}
	q.log.Debug("quic handover established", zap.String("host", host), zap.Int("port", port))
	eng.Start()
	return nil
}
