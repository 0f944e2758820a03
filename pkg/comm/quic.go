package comm

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"math/big"
	"net"
	"sync"
	"time"

	quicgo "github.com/quic-go/quic-go"
)

const alpnProtocol = "easynfc"

// QUICSocket is a duplex socket over a single bidirectional QUIC stream.
type QUICSocket struct {
	addr      string
	conn      *quicgo.Conn
	stream    *quicgo.Stream
	closeOnce sync.Once
	closeErr  error
}

// DialQUIC prepares a QUIC duplex socket to addr. The connection is opened by
// Connect. Peer certificates are not verified: handover targets are addressed
// by proximity exchange, not by name.
func DialQUIC(addr string) *QUICSocket { return &QUICSocket{addr: addr} }

func (s *QUICSocket) Connect() error {
	if s.stream != nil {
		return nil
	}
	tlsConf := &tls.Config{
		InsecureSkipVerify: true,
		NextProtos:         []string{alpnProtocol},
		MinVersion:         tls.VersionTLS13,
	}
	conn, err := quicgo.DialAddr(context.Background(), s.addr, tlsConf, &quicgo.Config{})
	if err != nil {
		return err
	}
	stream, err := conn.OpenStreamSync(context.Background())
	if err != nil {
		_ = conn.CloseWithError(0, "open stream failed")
		return err
	}
	s.conn = conn
	s.stream = stream
	return nil
}

func (s *QUICSocket) Read(p []byte) (int, error)  { return s.stream.Read(p) }
func (s *QUICSocket) Write(p []byte) (int, error) { return s.stream.Write(p) }

func (s *QUICSocket) Close() error {
	s.closeOnce.Do(func() {
		if s.stream != nil {
			s.stream.CancelRead(0)
			_ = s.stream.Close()
		}
		if s.conn != nil {
			s.closeErr = s.conn.CloseWithError(0, "")
		}
	})
	return s.closeErr
}

type quicListener struct {
	l *quicgo.Listener
}

// ListenQUIC starts a QUIC listener on address with an ephemeral self-signed
// certificate. Each accepted socket wraps the connection's first
// bidirectional stream.
func ListenQUIC(address string) (Listener, error) {
	cert, err := selfSignedCert()
	if err != nil {
		return nil, err
	}
	tlsConf := &tls.Config{
		Certificates: []tls.Certificate{cert},
		NextProtos:   []string{alpnProtocol},
		MinVersion:   tls.VersionTLS13,
	}
	l, err := quicgo.ListenAddr(address, tlsConf, &quicgo.Config{})
	if err != nil {
		return nil, err
	}
	return &quicListener{l: l}, nil
}

func (l *quicListener) Accept() (DuplexSocket, error) {
	conn, err := l.l.Accept(context.Background())
	if err != nil {
		return nil, err
	}
	stream, err := conn.AcceptStream(context.Background())
	if err != nil {
		_ = conn.CloseWithError(0, "accept stream failed")
		return nil, err
	}
	return &QUICSocket{conn: conn, stream: stream}, nil
}

func (l *quicListener) Addr() net.Addr { return l.l.Addr() }
func (l *quicListener) Close() error   { return l.l.Close() }

func selfSignedCert() (tls.Certificate, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return tls.Certificate{}, err
	}
	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(time.Now().UnixNano()),
		Subject:      pkix.Name{CommonName: alpnProtocol},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(24 * time.Hour),
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, pub, priv)
	if err != nil {
		return tls.Certificate{}, err
	}
	return tls.Certificate{Certificate: [][]byte{der}, PrivateKey: priv}, nil
}
