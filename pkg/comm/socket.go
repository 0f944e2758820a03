// Package comm provides the duplex socket abstraction the exchange protocol
// runs over, with one implementation per secondary transport (tcp, quic,
// short-range radio).
package comm

import (
	"io"
	"net"
)

// DuplexSocket is a transport-agnostic bidirectional byte stream with an
// explicit connect/close lifecycle. Connect must be called before the first
// Read or Write; Close is idempotent and safe to call from any goroutine,
// including while a Read or Write is blocked (the blocked call fails with an
// I/O error).
type DuplexSocket interface {
	Connect() error
	io.ReadWriteCloser
}

// Listener accepts inbound duplex sockets for the responder side of an
// exchange. Accepted sockets are already connected.
type Listener interface {
	Accept() (DuplexSocket, error)
	Addr() net.Addr
	Close() error
}
