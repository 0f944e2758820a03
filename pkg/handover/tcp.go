package handover

import (
	"fmt"

	"go.uber.org/zap"

	"easynfc/pkg/comm"
	"easynfc/pkg/exchange"
	"easynfc/pkg/ndef"
)

const (
	// SchemeTCP addresses a peer listening for an exchange on a TCP socket.
	SchemeTCP = "ndef+tcp"
	// DefaultTCPPort applies when a candidate omits the port.
	DefaultTCPPort = 7924
)

// TCPInitiator connects to a peer advertising `ndef+tcp://host[:port]` and
// runs the exchange protocol over the connection.
type TCPInitiator struct {
	log *zap.Logger
}

func NewTCPInitiator() *TCPInitiator {
	return &TCPInitiator{log: zap.L().Named("handover.tcp")}
}

func (t *TCPInitiator) Supports(rec ndef.Record) bool {
	_, ok := recordURI(rec, SchemeTCP)
	return ok
}

func (t *TCPInitiator) Attempt(contract exchange.Contract, msg *ndef.Message, pos int) error {
	uri, ok := recordURI(msg.Records()[pos], SchemeTCP)
	if !ok {
		return fmt.Errorf("handover: malformed %s candidate", SchemeTCP)
	}
	if contract.OutboundMessage() == nil {
		// Nothing to push; the request is still considered handled.
		return nil
	}
	host, port, err := uri.hostPort(DefaultTCPPort)
	if err != nil {
		return err
	}
	sock, err := comm.DialTCP(host, port)
	if err != nil {
		return err
	}
	eng, err := exchange.New(sock, contract)
	if err != nil {
		_ = sock.Close()
		return err
	}
	t.log.Debug("tcp handover established", zap.String("host", host), zap.Int("port", port))
	eng.Start()
	return nil
}
