package middleware

import (
	"net"
	"net/http"
	"strings"
)

// ClientIPExtractor resolves the client address for a request. With no
// trusted proxies configured it returns only the peer address, so
// X-Forwarded-For cannot be spoofed by direct callers.
type ClientIPExtractor struct {
	trustedCIDRs []*net.IPNet
}

// NewClientIPExtractor builds an extractor from proxy IPs or CIDRs.
// Entries that parse as neither are skipped.
func NewClientIPExtractor(trustedProxies []string) *ClientIPExtractor {
	cidrs := make([]*net.IPNet, 0, len(trustedProxies))
	for _, proxy := range trustedProxies {
		_, cidr, err := net.ParseCIDR(proxy)
		if err != nil {
			ip := net.ParseIP(proxy)
			if ip == nil {
				continue
			}
			cidr = singleIPToCIDR(ip)
		}
		cidrs = append(cidrs, cidr)
	}
	return &ClientIPExtractor{trustedCIDRs: cidrs}
}

func singleIPToCIDR(ip net.IP) *net.IPNet {
	bits := 32
	if ip.To4() == nil {
		bits = 128
	}
	return &net.IPNet{
		IP:   ip,
		Mask: net.CIDRMask(bits, bits),
	}
}

// Extract returns the client IP for the request. When the peer is a
// trusted proxy, X-Forwarded-For is walked right to left and the first
// untrusted hop wins; otherwise the peer address is returned as-is.
func (e *ClientIPExtractor) Extract(r *http.Request) string {
	remoteIP := stripPort(r.RemoteAddr)

	if len(e.trustedCIDRs) == 0 {
		return remoteIP
	}
	if !e.isTrusted(remoteIP) {
		return remoteIP
	}
	return e.extractFromForwarded(r, remoteIP)
}

func (e *ClientIPExtractor) extractFromForwarded(r *http.Request, fallback string) string {
	forwarded := r.Header.Get(HeaderXForwardedFor)
	if forwarded == "" {
		return fallback
	}

	hops := strings.Split(forwarded, ",")
	for i := len(hops) - 1; i >= 0; i-- {
		hop := strings.TrimSpace(hops[i])
		if hop == "" {
			continue
		}
		if !e.isTrusted(hop) {
			return hop
		}
	}
	return fallback
}

func (e *ClientIPExtractor) isTrusted(ipStr string) bool {
	ip := net.ParseIP(ipStr)
	if ip == nil {
		return false
	}
	for _, cidr := range e.trustedCIDRs {
		if cidr.Contains(ip) {
			return true
		}
	}
	return false
}

func stripPort(addr string) string {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	return host
}

// globalExtractor backs getClientIP. The default trusts nothing beyond
// the peer address.
var globalExtractor = NewClientIPExtractor(nil)

// SetGlobalIPExtractor replaces the package-level extractor. Call once
// at startup, before serving requests.
func SetGlobalIPExtractor(e *ClientIPExtractor) {
	if e != nil {
		globalExtractor = e
	}
}

func getClientIP(r *http.Request) string {
	return globalExtractor.Extract(r)
}
