package comm

import (
	"errors"
	"net"
	"sync"

	"github.com/google/uuid"
)

// RadioAdapter abstracts the short-range radio primitives this subsystem
// hands off to. Real radio drivers live outside the library and plug in
// through this interface; LoopbackNetwork provides an in-process
// implementation.
type RadioAdapter interface {
	// Address is the adapter's own peer address as published in candidate
	// records.
	Address() string
	// Dial connects to a service on a remote peer. A channel > 0 bypasses
	// service discovery and dials that channel directly.
	Dial(peer string, service uuid.UUID, channel int) (net.Conn, error)
	// Listen opens a listening socket for the given service.
	Listen(service uuid.UUID) (RadioListener, error)
}

// RadioListener accepts inbound radio connections for one service.
type RadioListener interface {
	Accept() (net.Conn, error)
	// Channel is the listening channel number, or -1 if unknown.
	Channel() int
	Close() error
}

var errRadioNotConnected = errors.New("comm: radio socket not connected")

// RadioSocket is a duplex socket over a short-range radio link to a peer
// service. The link is established by Connect.
type RadioSocket struct {
	adapter   RadioAdapter
	peer      string
	service   uuid.UUID
	channel   int
	conn      net.Conn
	closeOnce sync.Once
	closeErr  error
}

// NewRadioSocket prepares a radio socket to the given peer and service.
func NewRadioSocket(adapter RadioAdapter, peer string, service uuid.UUID) *RadioSocket {
	return &RadioSocket{adapter: adapter, peer: peer, service: service, channel: -1}
}

// SetChannel requests a direct dial to the given channel, skipping service
// discovery.
func (s *RadioSocket) SetChannel(channel int) { s.channel = channel }

func (s *RadioSocket) Connect() error {
	if s.conn != nil {
		return nil
	}
	conn, err := s.adapter.Dial(s.peer, s.service, s.channel)
	if err != nil {
		return err
	}
	s.conn = conn
	return nil
}

func (s *RadioSocket) Read(p []byte) (int, error) {
	if s.conn == nil {
		return 0, errRadioNotConnected
	}
	return s.conn.Read(p)
}

func (s *RadioSocket) Write(p []byte) (int, error) {
	if s.conn == nil {
		return 0, errRadioNotConnected
	}
	return s.conn.Write(p)
}

func (s *RadioSocket) Close() error {
	s.closeOnce.Do(func() {
		if s.conn != nil {
			s.closeErr = s.conn.Close()
		}
	})
	return s.closeErr
}

// ---- In-process loopback radio ----

type loopKey struct {
	addr    string
	service uuid.UUID
}

// LoopbackNetwork is an in-process radio medium built on net.Pipe. Adapters
// created from the same network can reach each other; useful for tests and
// single-host demos.
type LoopbackNetwork struct {
	mu          sync.Mutex
	nextChannel int
	byService   map[loopKey]*loopbackListener
	byChannel   map[int]*loopbackListener
}

func NewLoopbackNetwork() *LoopbackNetwork {
	return &LoopbackNetwork{
		nextChannel: 1,
		byService:   make(map[loopKey]*loopbackListener),
		byChannel:   make(map[int]*loopbackListener),
	}
}

// Adapter returns a radio adapter with the given address on this network.
func (n *LoopbackNetwork) Adapter(addr string) *LoopbackRadio {
	return &LoopbackRadio{network: n, addr: addr}
}

// LoopbackRadio implements RadioAdapter over a LoopbackNetwork.
type LoopbackRadio struct {
	network *LoopbackNetwork
	addr    string
}

func (r *LoopbackRadio) Address() string { return r.addr }

func (r *LoopbackRadio) Listen(service uuid.UUID) (RadioListener, error) {
	n := r.network
	n.mu.Lock()
	defer n.mu.Unlock()
	key := loopKey{addr: r.addr, service: service}
	if _, ok := n.byService[key]; ok {
		return nil, errors.New("comm: loopback listener already exists for service")
	}
	l := &loopbackListener{
		network: n,
		key:     key,
		channel: n.nextChannel,
		newCh:   make(chan net.Conn, 1),
		closeCh: make(chan struct{}),
	}
	n.nextChannel++
	n.byService[key] = l
	n.byChannel[l.channel] = l
	return l, nil
}

func (r *LoopbackRadio) Dial(peer string, service uuid.UUID, channel int) (net.Conn, error) {
	n := r.network
	n.mu.Lock()
	var l *loopbackListener
	if channel > 0 {
		l = n.byChannel[channel]
	} else {
		l = n.byService[loopKey{addr: peer, service: service}]
	}
	n.mu.Unlock()
	if l == nil {
		return nil, errors.New("comm: loopback peer not listening")
	}
	c1, c2 := net.Pipe()
	select {
	case l.newCh <- c1:
		return c2, nil
	case <-l.closeCh:
		_ = c1.Close()
		_ = c2.Close()
		return nil, errors.New("comm: loopback listener closed")
	}
}

type loopbackListener struct {
	network   *LoopbackNetwork
	key       loopKey
	channel   int
	newCh     chan net.Conn
	closeCh   chan struct{}
	closeOnce sync.Once
}

func (l *loopbackListener) Accept() (net.Conn, error) {
	select {
	case <-l.closeCh:
		return nil, errors.New("comm: loopback listener closed")
	case c := <-l.newCh:
		return c, nil
	}
}

func (l *loopbackListener) Channel() int { return l.channel }

func (l *loopbackListener) Close() error {
	l.closeOnce.Do(func() {
		close(l.closeCh)
		n := l.network
		n.mu.Lock()
		delete(n.byService, l.key)
		delete(n.byChannel, l.channel)
		n.mu.Unlock()
	})
	return nil
}

// WrapRadioConn adapts an accepted radio connection into a duplex socket.
func WrapRadioConn(conn net.Conn) *RadioSocket {
	return &RadioSocket{conn: conn, channel: -1}
}
