package comm

import (
	"io"
	"testing"
)

func TestQUICEcho(t *testing.T) {
	l, err := ListenQUIC("127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer l.Close()

	serverErr := make(chan error, 1)
	go func() {
		sock, err := l.Accept()
		if err != nil {
			serverErr <- err
			return
		}
		defer sock.Close()
		buf := make([]byte, 4)
		if _, err := io.ReadFull(sock, buf); err != nil {
			serverErr <- err
			return
		}
		_, err = sock.Write(buf)
		serverErr <- err
	}()

	sock := DialQUIC(l.Addr().String())
	if err := sock.Connect(); err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer sock.Close()

	if _, err := sock.Write([]byte("ping")); err != nil {
		t.Fatalf("write: %v", err)
	}
	buf := make([]byte, 4)
	if _, err := io.ReadFull(sock, buf); err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(buf) != "ping" {
		t.Fatalf("echo = %q", buf)
	}
	if err := <-serverErr; err != nil {
		t.Fatalf("server: %v", err)
	}
}

func TestQUICConnectRefused(t *testing.T) {
	// Nothing listens on this port; Connect must fail rather than hang
	// forever (quic-go applies its own handshake timeout).
	sock := DialQUIC("127.0.0.1:1")
	if err := sock.Connect(); err == nil {
		t.Fatalf("connect succeeded against a dead port")
	}
}
