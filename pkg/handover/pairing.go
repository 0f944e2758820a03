package handover

import (
	"bytes"
	"crypto/rand"
	"fmt"
	"net"
	"strconv"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"easynfc/pkg/comm"
	"easynfc/pkg/exchange"
	"easynfc/pkg/ndef"
)

// SchemeBTSocket is the symmetric pairing scheme:
// `btsocket://<peer-address>/<service-uuid>[?channel=<n>]`.
const SchemeBTSocket = "btsocket"

// handoverVersion is the connection handover protocol version published in
// the request record (major 1, minor 2).
const handoverVersion = byte(0x1<<4 | 0x2)

// Role is the outcome of collision resolution for the local side.
type Role int

const (
	// RoleDraw means both nonces were equal; neither side proceeds and both
	// must republish with fresh nonces.
	RoleDraw Role = iota
	// RoleServer keeps its listening socket and accepts one connection.
	RoleServer
	// RoleClient dials the peer's published address.
	RoleClient
)

func (r Role) String() string {
	switch r {
	case RoleServer:
		return "server"
	case RoleClient:
		return "client"
	default:
		return "draw"
	}
}

// ResolveRole assigns the local side's role from the two published 2-byte
// nonces, compared most-significant byte first: the smaller nonce becomes
// server, the larger client, equal nonces are a draw.
func ResolveRole(local, remote [2]byte) Role {
	switch bytes.Compare(local[:], remote[:]) {
	case -1:
		return RoleServer
	case 1:
		return RoleClient
	default:
		return RoleDraw
	}
}

// ConnectionListener receives pairing lifecycle callbacks.
type ConnectionListener interface {
	// BeforeConnect fires exactly once per negotiation, before the data
	// channel is handed off, with the resolved local role.
	BeforeConnect(role Role)
	// OnConnected delivers the established connection. Role is RoleServer
	// when the local listening socket accepted the peer.
	OnConnected(conn net.Conn, role Role)
}

// Pairing negotiates which of two symmetric peers opens the data channel. It
// opens a speculative listening socket up front and publishes its address and
// a random nonce; Attempt resolves roles against the peer's nonce. Only one
// socket survives the negotiation. A Pairing is single-use: after a draw,
// build and publish a fresh one.
type Pairing struct {
	adapter      comm.RadioAdapter
	service      uuid.UUID
	nonce        [2]byte
	listener     comm.RadioListener
	channel      int
	alwaysClient bool
	events       ConnectionListener
	log          *zap.Logger

	mu      sync.Mutex
	started bool
}

// NewPairing opens the speculative listening socket and returns a pairing
// ready to publish its handover request.
func NewPairing(adapter comm.RadioAdapter, events ConnectionListener) (*Pairing, error) {
	return newPairing(adapter, events, false)
}

// NewJoiner returns a pairing that always takes the client role, for a
// device acting on a received handover request without having published its
// own.
func NewJoiner(adapter comm.RadioAdapter, events ConnectionListener) (*Pairing, error) {
	return newPairing(adapter, events, true)
}

func newPairing(adapter comm.RadioAdapter, events ConnectionListener, alwaysClient bool) (*Pairing, error) {
	p := &Pairing{
		adapter:      adapter,
		service:      uuid.New(),
		alwaysClient: alwaysClient,
		events:       events,
		log:          zap.L().Named("handover.pairing"),
	}
	if _, err := rand.Read(p.nonce[:]); err != nil {
		return nil, fmt.Errorf("handover: collision nonce: %w", err)
	}
	l, err := adapter.Listen(p.service)
	if err != nil {
		return nil, fmt.Errorf("handover: open pairing listener: %w", err)
	}
	p.listener = l
	p.channel = l.Channel()
	go p.acceptOne()
	return p, nil
}

// HandoverRequestMessage builds the request to publish: handover framing,
// the collision nonce, and the local listening address as the candidate
// record. extra records (application references) are appended at the end.
func (p *Pairing) HandoverRequestMessage(extra ...ndef.Record) *ndef.Message {
	uri := fmt.Sprintf("%s://%s/%s", SchemeBTSocket, p.adapter.Address(), p.service)
	if p.channel > 0 {
		uri += "?channel=" + strconv.Itoa(p.channel)
	}
	records := []ndef.Record{
		ndef.NewRecord(ndef.TNFWellKnown, ndef.RTDHandoverRequest, nil, []byte{handoverVersion}),
		ndef.NewRecord(ndef.TNFWellKnown, ndef.RTDCollisionResolution, nil, p.nonce[:]),
		ndef.NewRecord(ndef.TNFAbsoluteURI, ndef.RTDURI, nil, []byte(uri)),
	}
	records = append(records, extra...)
	return ndef.MustMessage(records...)
}

// Close cancels the speculative listener if the negotiation never completed.
func (p *Pairing) Close() error {
	if p.listener != nil {
		return p.listener.Close()
	}
	return nil
}

func (p *Pairing) Supports(rec ndef.Record) bool {
	_, ok := recordURI(rec, SchemeBTSocket)
	return ok
}

// Attempt resolves roles against the peer's published nonce. On a draw it
// returns without action; the caller must republish a fresh pairing. As
// client it closes the local listener and dials the peer's address; as
// server the accept path already in flight completes the negotiation.
func (p *Pairing) Attempt(_ exchange.Contract, msg *ndef.Message, pos int) error {
	records := msg.Records()
	if len(records) < 2 {
		return fmt.Errorf("handover: pairing request lacks collision record")
	}
	remote := records[1].Payload()
	if len(remote) != 2 {
		return fmt.Errorf("handover: collision nonce must be 2 bytes, got %d", len(remote))
	}

	role := ResolveRole(p.nonce, [2]byte{remote[0], remote[1]})
	if role == RoleDraw {
		p.log.Info("collision resolution draw, republish with fresh nonces")
		return nil
	}
	if p.alwaysClient {
		role = RoleClient
	}
	p.fireBeforeConnect(role)

	if role == RoleClient {
		_ = p.listener.Close()
		uri, ok := recordURI(records[pos], SchemeBTSocket)
		if !ok {
			return fmt.Errorf("handover: malformed %s candidate", SchemeBTSocket)
		}
		service, err := uuid.Parse(uri.servicePath())
		if err != nil {
			return fmt.Errorf("handover: bad service uuid: %w", err)
		}
		channel := -1
		if s := uri.queryParam("channel"); s != "" {
			if n, err := strconv.Atoi(s); err == nil {
				channel = n
			}
		}
		go p.connect(uri.authority, service, channel)
	}
	return nil
}

func (p *Pairing) connect(peer string, service uuid.UUID, channel int) {
	conn, err := p.adapter.Dial(peer, service, channel)
	if err != nil {
		p.log.Error("pairing connect failed", zap.String("peer", peer), zap.Error(err))
		return
	}
	p.events.OnConnected(conn, RoleClient)
}

func (p *Pairing) acceptOne() {
	conn, err := p.listener.Accept()
	if err != nil {
		return
	}
	p.fireBeforeConnect(RoleServer)
	_ = p.listener.Close()
	p.events.OnConnected(conn, RoleServer)
}

// fireBeforeConnect notifies the application exactly once, whether the
// accept path or the connect path completes first.
func (p *Pairing) fireBeforeConnect(role Role) {
	p.mu.Lock()
	fire := !p.started
	p.started = true
	p.mu.Unlock()
	if fire {
		p.events.BeforeConnect(role)
	}
}
