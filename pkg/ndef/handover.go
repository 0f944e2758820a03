package ndef

import "strings"

// FindHandoverRequest locates a handover request within msg. It returns the
// index of the first well-known handover-request record. If none exists it
// scans for a userspace envelope record instead and reports userspace=true
// with the index of the envelope record. ok is false when the message carries
// neither framing and must be treated as ordinary content.
func FindHandoverRequest(msg *Message) (index int, userspace bool, ok bool) {
	for i, r := range msg.Records() {
		if r.IsWellKnown(RTDHandoverRequest) {
			return i, false, true
		}
	}
	return findUserspaceHandover(msg)
}

// IsHandoverRequest reports whether record 0 carries well-known handover
// request framing.
func IsHandoverRequest(msg *Message) bool {
	return msg.Records()[0].IsWellKnown(RTDHandoverRequest)
}

func findUserspaceHandover(msg *Message) (int, bool, bool) {
	for i, r := range msg.Records() {
		uri, err := ParseURI(r)
		if err != nil {
			continue
		}
		if strings.HasPrefix(uri, UserHandoverPrefix) {
			return i, true, true
		}
	}
	return -1, false, false
}
