package http

import (
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// Forwarding headers are only honored when the direct peer sits inside one
// of these networks. Anything else could spoof X-Forwarded-For.
var trustedProxyNets = func() []netip.Prefix {
	cidrs := []string{"127.0.0.0/8", "10.0.0.0/8", "172.16.0.0/12", "192.168.0.0/16"}
	nets := make([]netip.Prefix, len(cidrs))
	for i, c := range cidrs {
		nets[i] = netip.MustParsePrefix(c)
	}
	return nets
}()

func fromTrustedProxy(addr netip.Addr) bool {
	for _, p := range trustedProxyNets {
		if p.Contains(addr.Unmap()) {
			return true
		}
	}
	return false
}

// extractClientIP resolves the originating client address for rate limiting
// and request logs. Falls back to the raw peer address when headers are
// absent or unparseable.
func extractClientIP(r *http.Request) string {
	peer := r.RemoteAddr
	if host, _, err := net.SplitHostPort(peer); err == nil {
		peer = host
	}

	addr, err := netip.ParseAddr(peer)
	if err != nil || !fromTrustedProxy(addr) {
		return peer
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		first = strings.TrimSpace(first)
		if _, err := netip.ParseAddr(first); err == nil {
			return first
		}
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		if _, err := netip.ParseAddr(xri); err == nil {
			return xri
		}
	}
	return peer
}
