package clientip

import (
	"net"
	"net/http"
	"strings"
)

// Resolver extracts the client address from a request. Forwarding headers are only
// consulted when listed explicitly, since any client can set them.
type Resolver struct {
	headers []string
}

// NewResolver returns a resolver trusting the given headers in order, e.g.
// "CF-Connecting-IP", "X-Forwarded-For", "X-Real-IP". With none, only RemoteAddr is used.
func NewResolver(trustedHeaders ...string) *Resolver {
	headers := make([]string, 0, len(trustedHeaders))
	for _, h := range trustedHeaders {
		if h = strings.TrimSpace(h); h != "" {
			headers = append(headers, http.CanonicalHeaderKey(h))
		}
	}
	return &Resolver{headers: headers}
}

// IP returns the normalised client IP or "" when nothing valid is found.
func (res *Resolver) IP(r *http.Request) string {
	for _, h := range res.headers {
		value := r.Header.Get(h)
		if value == "" {
			continue
		}
		// X-Forwarded-For style lists: the first valid entry is the client
		for part := range strings.SplitSeq(value, ",") {
			if ip := parseIP(part); ip != "" {
				return ip
			}
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return parseIP(r.RemoteAddr)
	}
	return parseIP(host)
}

func parseIP(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	ip := net.ParseIP(s)
	if ip == nil {
		return ""
	}
	return ip.String()
}
