package server

import (
	"net"
	"net/http"
	"strconv"
	"strings"
)

// httpRedirectHandler sends every request to the same host and path over
// HTTPS. Hosts and URIs that could inject headers are rejected with 400.
func httpRedirectHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		uri := r.URL.RequestURI()
		if !isValidHost(r.Host) || hasControlChars(uri, true) {
			http.Error(w, "Bad Request", http.StatusBadRequest)
			return
		}
		http.Redirect(w, r, "https://"+r.Host+uri, http.StatusMovedPermanently)
	})
}

func hasControlChars(s string, allowTab bool) bool {
	for _, c := range s {
		if c == '\t' && allowTab {
			continue
		}
		if c < 0x20 || c == 0x7f {
			return true
		}
	}
	return false
}

// isValidHost accepts host, host:port, and bracketed IPv6 with an optional
// zone and port.
func isValidHost(host string) bool {
	if host == "" || strings.Contains(host, "://") || strings.HasPrefix(host, "/") {
		return false
	}

	hostPart := host
	if h, port, err := net.SplitHostPort(host); err == nil {
		hostPart = h
		if n, err := strconv.Atoi(port); err != nil || n <= 0 || n > 65535 {
			return false
		}
		if strings.Contains(hostPart, ":") {
			hostPart = "[" + hostPart + "]"
		}
	}
	if hostPart == "" {
		return false
	}

	if strings.HasPrefix(hostPart, "[") && strings.HasSuffix(hostPart, "]") {
		ip := hostPart[1 : len(hostPart)-1]
		if i := strings.Index(ip, "%"); i != -1 {
			ip = ip[:i]
		}
		if net.ParseIP(ip) == nil {
			return false
		}
	}

	return !hasControlChars(hostPart, false)
}
