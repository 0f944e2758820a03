package comm

import (
	"net"
	"strconv"
	"sync"
)

// TCPSocket is a duplex socket over an established TCP connection.
type TCPSocket struct {
	conn      net.Conn
	closeOnce sync.Once
	closeErr  error
}

// DialTCP opens a TCP connection to host:port.
func DialTCP(host string, port int) (*TCPSocket, error) {
	conn, err := net.Dial("tcp", net.JoinHostPort(host, strconv.Itoa(port)))
	if err != nil {
		return nil, err
	}
	return &TCPSocket{conn: conn}, nil
}

// WrapConn adapts an already established connection (an accepted TCP
// connection, a net.Pipe end) into a duplex socket.
func WrapConn(conn net.Conn) *TCPSocket { return &TCPSocket{conn: conn} }

// Connect is a no-op: the connection was established by DialTCP or Accept.
func (s *TCPSocket) Connect() error { return nil }

func (s *TCPSocket) Read(p []byte) (int, error)  { return s.conn.Read(p) }
func (s *TCPSocket) Write(p []byte) (int, error) { return s.conn.Write(p) }

func (s *TCPSocket) Close() error {
	s.closeOnce.Do(func() { s.closeErr = s.conn.Close() })
	return s.closeErr
}

// LocalAddr exposes the local endpoint, used by listeners bound to port 0.
func (s *TCPSocket) LocalAddr() net.Addr { return s.conn.LocalAddr() }

type tcpListener struct {
	l net.Listener
}

// ListenTCP starts accepting inbound exchange connections on address.
func ListenTCP(address string) (Listener, error) {
	l, err := net.Listen("tcp", address)
	if err != nil {
		return nil, err
	}
	return &tcpListener{l: l}, nil
}

func (l *tcpListener) Accept() (DuplexSocket, error) {
	conn, err := l.l.Accept()
	if err != nil {
		return nil, err
	}
	return WrapConn(conn), nil
}

func (l *tcpListener) Addr() net.Addr { return l.l.Addr() }
func (l *tcpListener) Close() error   { return l.l.Close() }
