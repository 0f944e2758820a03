package ndef

import "testing"

func handoverRequest() *Message {
	return MustMessage(
		NewRecord(TNFWellKnown, RTDHandoverRequest, nil, []byte{0x12}),
		NewRecord(TNFWellKnown, RTDCollisionResolution, nil, []byte{0x01, 0x02}),
		NewRecord(TNFAbsoluteURI, RTDURI, nil, []byte("ndef+tcp://10.0.0.5:7924")),
	)
}

func TestFindHandoverRequestWellKnown(t *testing.T) {
	idx, userspace, ok := FindHandoverRequest(handoverRequest())
	if !ok || userspace || idx != 0 {
		t.Fatalf("got idx=%d userspace=%v ok=%v", idx, userspace, ok)
	}
	if !IsHandoverRequest(handoverRequest()) {
		t.Fatalf("IsHandoverRequest = false")
	}
}

func TestFindHandoverRequestUserspace(t *testing.T) {
	uri, err := ToHandoverURI(handoverRequest())
	if err != nil {
		t.Fatalf("ToHandoverURI: %v", err)
	}
	msg := MustMessage(
		NewRecord(TNFMimeMedia, []byte("text/plain"), nil, []byte("cover")),
		FromURI(uri).Records()[0],
	)
	idx, userspace, ok := FindHandoverRequest(msg)
	if !ok || !userspace || idx != 1 {
		t.Fatalf("got idx=%d userspace=%v ok=%v", idx, userspace, ok)
	}
}

func TestFindHandoverRequestOrdinaryContent(t *testing.T) {
	msg := MustMessage(
		FromURI("https://example.com").Records()[0],
		NewRecord(TNFMimeMedia, []byte("text/plain"), nil, []byte("x")),
	)
	if _, _, ok := FindHandoverRequest(msg); ok {
		t.Fatalf("ordinary content reported as handover request")
	}
	if IsHandoverRequest(msg) {
		t.Fatalf("IsHandoverRequest = true for ordinary content")
	}
}

func TestFindHandoverRequestPrefersWellKnown(t *testing.T) {
	uri, err := ToHandoverURI(handoverRequest())
	if err != nil {
		t.Fatalf("ToHandoverURI: %v", err)
	}
	msg := MustMessage(
		FromURI(uri).Records()[0],
		NewRecord(TNFWellKnown, RTDHandoverRequest, nil, []byte{0x12}),
	)
	idx, userspace, ok := FindHandoverRequest(msg)
	if !ok || userspace || idx != 1 {
		t.Fatalf("got idx=%d userspace=%v ok=%v, want well-known at 1", idx, userspace, ok)
	}
}
