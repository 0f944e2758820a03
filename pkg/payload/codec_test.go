package payload

import (
	"bytes"
	"testing"
)

type card struct {
	Name string `json:"name" cbor:"1,keyasint"`
	URL  string `json:"url" cbor:"2,keyasint"`
}

func TestRegistryLookup(t *testing.T) {
	r, err := NewRegistry()
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	for _, ct := range []string{"application/json", "application/cbor"} {
		c, err := r.Get(ct)
		if err != nil {
			t.Fatalf("get %q: %v", ct, err)
		}
		if c.ContentType() != ct {
			t.Fatalf("content type = %q, want %q", c.ContentType(), ct)
		}
	}
	if _, err := r.Get("application/xml"); err == nil {
		t.Fatalf("lookup succeeded for unregistered type")
	}
}

func TestJSONRoundtrip(t *testing.T) {
	in := card{Name: "alice", URL: "https://example.com/alice"}
	b, err := JSON().Marshal(in)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var out card
	if err := JSON().Unmarshal(b, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out != in {
		t.Fatalf("roundtrip = %+v, want %+v", out, in)
	}
}

func TestCBORRoundtripDeterministic(t *testing.T) {
	c, err := CBOR()
	if err != nil {
		t.Fatalf("codec: %v", err)
	}
	in := card{Name: "bob", URL: "https://example.com/bob"}
	b1, err := c.Marshal(in)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	b2, err := c.Marshal(in)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !bytes.Equal(b1, b2) {
		t.Fatalf("canonical encoding not deterministic")
	}
	var out card
	if err := c.Unmarshal(b1, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out != in {
		t.Fatalf("roundtrip = %+v, want %+v", out, in)
	}
}

func TestRegisterOverride(t *testing.T) {
	r, err := NewRegistry()
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	r.Register(JSON())
	c, err := r.Get("application/json")
	if err != nil || c.ContentType() != "application/json" {
		t.Fatalf("override lookup: %v", err)
	}
}
