package handover

import (
	"net"
	"sync/atomic"
	"testing"
	"time"

	"easynfc/pkg/comm"
)

func TestResolveRole(t *testing.T) {
	cases := []struct {
		local, remote [2]byte
		want          Role
	}{
		{[2]byte{0x00, 0x01}, [2]byte{0x00, 0x02}, RoleServer},
		{[2]byte{0x00, 0x02}, [2]byte{0x00, 0x01}, RoleClient},
		{[2]byte{0x01, 0x00}, [2]byte{0x00, 0xff}, RoleClient},
		{[2]byte{0x00, 0xff}, [2]byte{0x01, 0x00}, RoleServer},
		{[2]byte{0xab, 0xcd}, [2]byte{0xab, 0xcd}, RoleDraw},
	}
	for _, c := range cases {
		if got := ResolveRole(c.local, c.remote); got != c.want {
			t.Fatalf("ResolveRole(%v, %v) = %v, want %v", c.local, c.remote, got, c.want)
		}
	}
}

func TestResolveRoleSymmetry(t *testing.T) {
	// Distinct nonces always produce one server and one client.
	a, b := [2]byte{0x10, 0x20}, [2]byte{0x10, 0x21}
	ra, rb := ResolveRole(a, b), ResolveRole(b, a)
	if ra == rb {
		t.Fatalf("both sides resolved to %v", ra)
	}
	if ra == RoleDraw || rb == RoleDraw {
		t.Fatalf("distinct nonces resolved to a draw")
	}
}

type recordingListener struct {
	before  int32
	roleCh  chan Role
	connCh  chan net.Conn
}

func newRecordingListener() *recordingListener {
	return &recordingListener{roleCh: make(chan Role, 1), connCh: make(chan net.Conn, 1)}
}

func (l *recordingListener) BeforeConnect(role Role) {
	atomic.AddInt32(&l.before, 1)
	l.roleCh <- role
}

func (l *recordingListener) OnConnected(conn net.Conn, role Role) {
	l.connCh <- conn
}

func TestPairingNegotiation(t *testing.T) {
	network := comm.NewLoopbackNetwork()
	eventsA, eventsB := newRecordingListener(), newRecordingListener()

	pa, err := NewPairing(network.Adapter("peer-a"), eventsA)
	if err != nil {
		t.Fatalf("pairing a: %v", err)
	}
	defer pa.Close()
	pb, err := NewPairing(network.Adapter("peer-b"), eventsB)
	if err != nil {
		t.Fatalf("pairing b: %v", err)
	}
	defer pb.Close()

	// Exchange the published requests; each side processes the peer's.
	msgA, msgB := pa.HandoverRequestMessage(), pb.HandoverRequestMessage()
	if err := pa.Attempt(nil, msgB, 2); err != nil {
		t.Fatalf("attempt a: %v", err)
	}
	if err := pb.Attempt(nil, msgA, 2); err != nil {
		t.Fatalf("attempt b: %v", err)
	}

	var roleA, roleB Role
	select {
	case roleA = <-eventsA.roleCh:
	case <-time.After(2 * time.Second):
		t.Fatalf("peer a never saw BeforeConnect")
	}
	select {
	case roleB = <-eventsB.roleCh:
	case <-time.After(2 * time.Second):
		t.Fatalf("peer b never saw BeforeConnect")
	}
	if roleA == roleB {
		t.Fatalf("both peers resolved to %v", roleA)
	}

	var connA, connB net.Conn
	select {
	case connA = <-eventsA.connCh:
	case <-time.After(2 * time.Second):
		t.Fatalf("peer a never connected")
	}
	select {
	case connB = <-eventsB.connCh:
	case <-time.After(2 * time.Second):
		t.Fatalf("peer b never connected")
	}

	// One data channel survives; verify it carries bytes both ways.
	go func() { _, _ = connA.Write([]byte("ping")) }()
	buf := make([]byte, 4)
	if _, err := connB.Read(buf); err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(buf) != "ping" {
		t.Fatalf("read %q", buf)
	}
	_ = connA.Close()
	_ = connB.Close()

	if n := atomic.LoadInt32(&eventsA.before); n != 1 {
		t.Fatalf("peer a BeforeConnect fired %d times", n)
	}
	if n := atomic.LoadInt32(&eventsB.before); n != 1 {
		t.Fatalf("peer b BeforeConnect fired %d times", n)
	}
}

func TestPairingDraw(t *testing.T) {
	network := comm.NewLoopbackNetwork()
	events := newRecordingListener()
	p, err := NewPairing(network.Adapter("peer-a"), events)
	if err != nil {
		t.Fatalf("pairing: %v", err)
	}
	defer p.Close()

	// A request carrying our own nonce resolves to a draw: no callbacks, no
	// connection, the pairing stays armed.
	if err := p.Attempt(nil, p.HandoverRequestMessage(), 2); err != nil {
		t.Fatalf("attempt: %v", err)
	}
	select {
	case role := <-events.roleCh:
		t.Fatalf("BeforeConnect(%v) fired on a draw", role)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestPairingRequestMessage(t *testing.T) {
	network := comm.NewLoopbackNetwork()
	p, err := NewPairing(network.Adapter("peer-a"), newRecordingListener())
	if err != nil {
		t.Fatalf("pairing: %v", err)
	}
	defer p.Close()

	msg := p.HandoverRequestMessage()
	records := msg.Records()
	if len(records) != 3 {
		t.Fatalf("request has %d records", len(records))
	}
	if !records[0].IsWellKnown([]byte("Hr")) || records[0].Payload()[0] != 0x12 {
		t.Fatalf("record 0 is not handover framing")
	}
	if !records[1].IsWellKnown([]byte{0x63, 0x72}) || len(records[1].Payload()) != 2 {
		t.Fatalf("record 1 is not a 2-byte collision nonce")
	}
	if !p.Supports(records[2]) {
		t.Fatalf("pairing does not support its own candidate record")
	}
}

func TestJoinerAlwaysClient(t *testing.T) {
	network := comm.NewLoopbackNetwork()
	hostEvents, joinEvents := newRecordingListener(), newRecordingListener()

	host, err := NewPairing(network.Adapter("host"), hostEvents)
	if err != nil {
		t.Fatalf("host pairing: %v", err)
	}
	defer host.Close()
	joiner, err := NewJoiner(network.Adapter("joiner"), joinEvents)
	if err != nil {
		t.Fatalf("joiner pairing: %v", err)
	}
	defer joiner.Close()

	if err := joiner.Attempt(nil, host.HandoverRequestMessage(), 2); err != nil {
		t.Fatalf("attempt: %v", err)
	}

	select {
	case role := <-joinEvents.roleCh:
		if role != RoleClient {
			t.Fatalf("joiner role = %v, want client", role)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("joiner never saw BeforeConnect")
	}
	select {
	case <-hostEvents.connCh:
	case <-time.After(2 * time.Second):
		t.Fatalf("host never accepted the joiner")
	}
}
