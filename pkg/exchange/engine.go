// Package exchange implements the length-framed bidirectional message
// exchange that runs over an established duplex socket after a successful
// handover. The two directions are independent: the write side pushes the
// locally held outbound message (or an empty frame) while the read side
// collects exactly one inbound frame.
package exchange

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"sync"

	"go.uber.org/zap"

	"easynfc/pkg/comm"
	"easynfc/pkg/ndef"
)

// Version is the protocol version byte leading every frame.
const Version byte = 0x19

// maxPayload bounds a single inbound frame.
const maxPayload = 1 << 24

// Contract connects an exchange session to its surroundings: inbound
// messages are delivered to HandleInbound, while OutboundMessage supplies the
// payload to transmit (nil for none).
type Contract interface {
	HandleInbound(msg *ndef.Message)
	OutboundMessage() *ndef.Message
}

// Engine runs one exchange session over a duplex socket. Each direction runs
// on its own worker; the socket is closed exactly once, by whichever
// direction finishes second.
type Engine struct {
	sock     comm.DuplexSocket
	contract Contract
	log      *zap.Logger

	mu        sync.Mutex
	readDone  bool
	writeDone bool
}

// New connects the socket and prepares a session. A connect failure is
// returned so the caller can fall through to another transport candidate.
func New(sock comm.DuplexSocket, contract Contract) (*Engine, error) {
	if err := sock.Connect(); err != nil {
		return nil, fmt.Errorf("exchange: connect: %w", err)
	}
	return &Engine{sock: sock, contract: contract, log: zap.L().Named("exchange")}, nil
}

// Start runs the session on background workers.
func (e *Engine) Start() { go func() { _ = e.Run() }() }

// Run executes the session: the write direction is spawned on a second
// worker while the read direction runs on the calling one. Run returns the
// read direction's error, after read completion but not necessarily write
// completion.
func (e *Engine) Run() error {
	go e.writeOutbound()
	return e.readInbound()
}

func (e *Engine) readInbound() error {
	defer e.finish(&e.readDone)
	err := e.readFrame()
	if err != nil {
		e.log.Error("inbound exchange failed", zap.Error(err))
	}
	return err
}

func (e *Engine) readFrame() error {
	br := bufio.NewReader(e.sock)
	var header [5]byte
	if _, err := io.ReadFull(br, header[:1]); err != nil {
		return fmt.Errorf("read version: %w", err)
	}
	if header[0] != Version {
		return fmt.Errorf("bad handover protocol version 0x%02x", header[0])
	}
	if _, err := io.ReadFull(br, header[1:]); err != nil {
		return fmt.Errorf("read length: %w", err)
	}
	length := int32(binary.BigEndian.Uint32(header[1:]))
	if length < 0 || length > maxPayload {
		return fmt.Errorf("invalid frame length %d", length)
	}
	if length == 0 {
		return nil
	}
	payload := make([]byte, length)
	if _, err := io.ReadFull(br, payload); err != nil {
		return fmt.Errorf("read payload: %w", err)
	}
	msg, err := ndef.Parse(payload)
	if err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}
	e.contract.HandleInbound(msg)
	return nil
}

func (e *Engine) writeOutbound() {
	defer e.finish(&e.writeDone)

	var payload []byte
	if outbound := e.contract.OutboundMessage(); outbound != nil {
		b, err := outbound.Bytes()
		if err != nil {
			e.log.Error("encode outbound message", zap.Error(err))
		} else {
			payload = b
		}
	}

	bw := bufio.NewWriter(e.sock)
	_ = bw.WriteByte(Version)
	var lenbuf [4]byte
	binary.BigEndian.PutUint32(lenbuf[:], uint32(len(payload)))
	_, _ = bw.Write(lenbuf[:])
	_, _ = bw.Write(payload)
	if err := bw.Flush(); err != nil {
		e.log.Error("outbound exchange failed", zap.Error(err))
	}
}

// finish marks one direction complete; the second to finish closes the
// socket, which also unblocks the other direction's pending I/O on failure
// paths.
func (e *Engine) finish(flag *bool) {
	e.mu.Lock()
	*flag = true
	both := e.readDone && e.writeDone
	e.mu.Unlock()
	if both {
		_ = e.sock.Close()
	}
}
