package handover

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"

	"easynfc/pkg/ndef"
)

// candidateURI is a parsed transport address from a candidate record.
// Authorities are not restricted to hostnames: the short-range radio schemes
// put colon-separated peer addresses there, which net/url rejects, so parsing
// is done by hand.
type candidateURI struct {
	scheme    string
	authority string
	path      string
	rawQuery  string
}

func parseCandidateURI(uri string) (*candidateURI, error) {
	i := strings.Index(uri, "://")
	if i <= 0 {
		return nil, fmt.Errorf("handover: not a transport uri: %q", uri)
	}
	c := &candidateURI{scheme: strings.ToLower(uri[:i])}
	rest := uri[i+3:]
	if j := strings.IndexByte(rest, '?'); j >= 0 {
		c.rawQuery = rest[j+1:]
		rest = rest[:j]
	}
	if j := strings.IndexByte(rest, '/'); j >= 0 {
		c.authority = rest[:j]
		c.path = rest[j:]
	} else {
		c.authority = rest
	}
	return c, nil
}

// recordURI parses a candidate record's URI when it matches scheme.
func recordURI(rec ndef.Record, scheme string) (*candidateURI, bool) {
	uri, err := ndef.ParseURI(rec)
	if err != nil {
		return nil, false
	}
	c, err := parseCandidateURI(uri)
	if err != nil || c.scheme != scheme {
		return nil, false
	}
	return c, true
}

// hostPort splits the authority into host and port, applying defaultPort
// when none is present.
func (c *candidateURI) hostPort(defaultPort int) (string, int, error) {
	host, portStr, err := net.SplitHostPort(c.authority)
	if err != nil {
		return c.authority, defaultPort, nil
	}
	port, err := strconv.Atoi(portStr)
	if err != nil || port <= 0 || port > 0xffff {
		return "", 0, fmt.Errorf("handover: bad port %q", portStr)
	}
	return host, port, nil
}

// queryParam returns the named query parameter, or "" when absent.
func (c *candidateURI) queryParam(key string) string {
	values, err := url.ParseQuery(c.rawQuery)
	if err != nil {
		return ""
	}
	return values.Get(key)
}

// servicePath extracts the service UUID string from the path component.
func (c *candidateURI) servicePath() string {
	return strings.TrimPrefix(c.path, "/")
}
