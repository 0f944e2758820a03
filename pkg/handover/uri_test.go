package handover

import (
	"testing"

	"easynfc/pkg/ndef"
)

func TestParseCandidateURI(t *testing.T) {
	c, err := parseCandidateURI("btsocket://aa:bb:cc:dd:ee:ff/01234567-89ab-cdef-0123-456789abcdef?channel=3")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if c.scheme != "btsocket" {
		t.Fatalf("scheme = %q", c.scheme)
	}
	if c.authority != "aa:bb:cc:dd:ee:ff" {
		t.Fatalf("authority = %q", c.authority)
	}
	if c.servicePath() != "01234567-89ab-cdef-0123-456789abcdef" {
		t.Fatalf("service path = %q", c.servicePath())
	}
	if c.queryParam("channel") != "3" {
		t.Fatalf("channel = %q", c.queryParam("channel"))
	}
	if c.queryParam("missing") != "" {
		t.Fatalf("missing param = %q", c.queryParam("missing"))
	}
}

func TestParseCandidateURIRejects(t *testing.T) {
	for _, s := range []string{"no-scheme", "://host", "plain text"} {
		if _, err := parseCandidateURI(s); err == nil {
			t.Fatalf("parse accepted %q", s)
		}
	}
}

func TestHostPort(t *testing.T) {
	c, err := parseCandidateURI("ndef+tcp://10.0.0.5:8000")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	host, port, err := c.hostPort(DefaultTCPPort)
	if err != nil || host != "10.0.0.5" || port != 8000 {
		t.Fatalf("hostPort = %q, %d, %v", host, port, err)
	}

	c, err = parseCandidateURI("ndef+tcp://10.0.0.5")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	host, port, err = c.hostPort(DefaultTCPPort)
	if err != nil || host != "10.0.0.5" || port != DefaultTCPPort {
		t.Fatalf("hostPort default = %q, %d, %v", host, port, err)
	}

	c, err = parseCandidateURI("ndef+tcp://10.0.0.5:notaport")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if _, _, err = c.hostPort(DefaultTCPPort); err == nil {
		t.Fatalf("hostPort accepted a non-numeric port")
	}
}

func TestRecordURISchemeFilter(t *testing.T) {
	rec := ndef.NewRecord(ndef.TNFAbsoluteURI, ndef.RTDURI, nil, []byte("ndef+tcp://10.0.0.5"))
	if _, ok := recordURI(rec, SchemeTCP); !ok {
		t.Fatalf("tcp record not recognized by tcp scheme")
	}
	if _, ok := recordURI(rec, SchemeRadio); ok {
		t.Fatalf("tcp record matched the radio scheme")
	}
	mime := ndef.NewRecord(ndef.TNFMimeMedia, []byte("text/plain"), nil, []byte("x"))
	if _, ok := recordURI(mime, SchemeTCP); ok {
		t.Fatalf("mime record matched a transport scheme")
	}
}

func TestInitiatorSupports(t *testing.T) {
	tcpRec := ndef.NewRecord(ndef.TNFAbsoluteURI, ndef.RTDURI, nil, []byte("ndef+tcp://10.0.0.5:7924"))
	quicRec := ndef.NewRecord(ndef.TNFAbsoluteURI, ndef.RTDURI, nil, []byte("ndef+quic://10.0.0.5"))
	radioRec := ndef.NewRecord(ndef.TNFAbsoluteURI, ndef.RTDURI, nil,
		[]byte("ndef+bluetooth://aa:bb:cc:dd:ee:ff/01234567-89ab-cdef-0123-456789abcdef"))

	if !NewTCPInitiator().Supports(tcpRec) || NewTCPInitiator().Supports(quicRec) {
		t.Fatalf("tcp initiator scheme filter wrong")
	}
	if !NewQUICInitiator().Supports(quicRec) || NewQUICInitiator().Supports(radioRec) {
		t.Fatalf("quic initiator scheme filter wrong")
	}
	radio := NewRadioInitiator(nil)
	if !radio.Supports(radioRec) || radio.Supports(tcpRec) {
		t.Fatalf("radio initiator scheme filter wrong")
	}
}
