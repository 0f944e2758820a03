package ndef

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

// uriPrefixes is the well-known URI record prefix table: payload byte 0 of a
// well-known "U" record selects one of these, compacting common schemes into
// a single byte. Index 0 means no prefix.
var uriPrefixes = []string{
	"",
	"http://www.",
	"https://www.",
	"http://",
	"https://",
	"tel:",
	"mailto:",
	"ftp://anonymous:anonymous@",
	"ftp://ftp.",
	"ftps://",
	"sftp://",
	"smb://",
	"nfs://",
	"ftp://",
	"dav://",
	"news:",
	"telnet://",
	"imap:",
	"rtsp://",
	"urn:",
	"pop:",
	"sip:",
	"sips:",
	"tftp:",
	"btspp://",
	"btl2cap://",
	"btgoep://",
	"tcpobex://",
	"irdaobex://",
	"file://",
	"urn:epc:id:",
	"urn:epc:tag:",
	"urn:epc:pat:",
	"urn:epc:raw:",
	"urn:epc:",
	"urn:nfc:",
}

// ErrNotURI reports that a record does not carry a URI in any recognized form.
var ErrNotURI = errors.New("ndef: record is not a uri")

// FromURI builds a single-record message holding uri as a well-known URI
// record, using the prefix table to compress the scheme.
func FromURI(uri string) *Message {
	prefix := 0
	for i := 1; i < len(uriPrefixes); i++ {
		if strings.HasPrefix(uri, uriPrefixes[i]) {
			prefix = i
			break
		}
	}
	rest := uri[len(uriPrefixes[prefix]):]
	payload := make([]byte, 0, len(rest)+1)
	payload = append(payload, byte(prefix))
	payload = append(payload, rest...)
	return MustMessage(NewRecord(TNFWellKnown, RTDURI, nil, payload))
}

// FromMime builds a single-record message with a MIME-typed payload.
func FromMime(mimeType string, data []byte) *Message {
	return MustMessage(NewRecord(TNFMimeMedia, []byte(mimeType), nil, data))
}

// FromText builds a single-record text message with the given language code,
// encoded as UTF-8.
func FromText(text, languageCode string) *Message {
	payload := make([]byte, 0, len(text)+len(languageCode)+1)
	payload = append(payload, byte(0x3f&len(languageCode)))
	payload = append(payload, languageCode...)
	payload = append(payload, text...)
	return MustMessage(NewRecord(TNFWellKnown, RTDText, nil, payload))
}

// Empty returns the empty sentinel message: a single well-known record with
// zero-length type, id and payload.
func Empty() *Message {
	return MustMessage(NewRecord(TNFWellKnown, nil, nil, nil))
}

// IsEmpty reports whether msg is the empty sentinel.
func IsEmpty(msg *Message) bool {
	return msg == nil || msg.Equal(Empty())
}

// ParseURI extracts a URI from a record. Absolute-URI records carry the text
// in the payload (or, following the platform convention, in the type field
// when the payload is empty); well-known "U" records use the prefix table.
func ParseURI(r Record) (string, error) {
	switch {
	case r.TNF() == TNFAbsoluteURI:
		if len(r.payload) > 0 {
			return string(r.payload), nil
		}
		if len(r.typ) > 0 {
			return string(r.typ), nil
		}
		return "", ErrNotURI
	case r.IsWellKnown(RTDURI):
		if len(r.payload) == 0 {
			return "", errors.New("ndef: empty uri record payload")
		}
		prefix := int(r.payload[0])
		if prefix >= len(uriPrefixes) {
			return "", fmt.Errorf("ndef: unknown uri prefix code %d", prefix)
		}
		return uriPrefixes[prefix] + string(r.payload[1:]), nil
	}
	return "", ErrNotURI
}

// UserHandoverPrefix marks a URI-encoded "userspace" handover request: the
// path component after the prefix is the URL-safe base64 encoding of a full
// NDEF message.
const UserHandoverPrefix = "ndef://wkt:hr/"

// ToHandoverURI encodes msg into the userspace handover envelope.
func ToHandoverURI(msg *Message) (string, error) {
	b, err := msg.Bytes()
	if err != nil {
		return "", err
	}
	return UserHandoverPrefix + base64.URLEncoding.EncodeToString(b), nil
}

// FromHandoverURI unwraps a userspace handover envelope back into the
// embedded message.
func FromHandoverURI(uri string) (*Message, error) {
	if !strings.HasPrefix(uri, UserHandoverPrefix) {
		return nil, fmt.Errorf("ndef: not a userspace handover uri: %q", uri)
	}
	raw, err := base64.URLEncoding.DecodeString(uri[len(UserHandoverPrefix):])
	if err != nil {
		return nil, fmt.Errorf("ndef: decode handover uri: %w", err)
	}
	return Parse(raw)
}
