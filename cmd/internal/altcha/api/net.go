package api

import (
	"net"
	"net/http"
	"net/netip"
	"strings"
)

const unknownClient = "unknown"

// clientIP returns the canonical client address used for session binding.
//
// With trustProxy, the first X-Forwarded-For entry wins, then X-Real-IP.
// Values that do not parse as an IP are ignored. Without a usable source the
// sentinel "unknown" is returned so all such clients share one binding.
func clientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if ip, ok := parseForwardedIP(r.Header.Get("X-Forwarded-For")); ok {
			return ip
		}
		if ip, ok := parseIP(r.Header.Get("X-Real-IP")); ok {
			return ip
		}
		return unknownClient
	}

	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err != nil {
		host = r.RemoteAddr
	}
	if ip, ok := parseIP(host); ok {
		return ip
	}
	return unknownClient
}

func parseForwardedIP(raw string) (string, bool) {
	if raw == "" {
		return "", false
	}
	first, _, _ := strings.Cut(raw, ",")
	return parseIP(first)
}

func parseIP(raw string) (string, bool) {
	addr, err := netip.ParseAddr(strings.TrimSpace(raw))
	if err != nil {
		return "", false
	}
	return addr.WithZone("").String(), true
}

// hostDomain returns the request host without port, lowercased.
// An absent Host yields "localhost".
func hostDomain(r *http.Request) string {
	host := strings.TrimSpace(r.Host)
	if host == "" {
		return "localhost"
	}

	if strings.HasPrefix(host, "[") {
		if end := strings.IndexByte(host, ']'); end > 0 {
			host = host[1:end]
		}
	} else if strings.Count(host, ":") == 1 {
		if h, _, err := net.SplitHostPort(host); err == nil {
			host = h
		}
	}

	host = strings.ToLower(strings.TrimSuffix(host, "."))
	if host == "" {
		return "localhost"
	}
	return host
}
