package api

import (
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// CORSAllowlist admits the hosted editor origins and local development
// servers. The agent binds to loopback, so CORS is the main line between
// the editor and arbitrary pages running in the same browser.
func CORSAllowlist() func(http.Handler) http.Handler {
	const (
		allowMethods  = "GET, POST, PUT, DELETE, HEAD, OPTIONS"
		allowHeaders  = "Authorization, Content-Type, Range, X-StoryReel-Request-Id, X-StoryReel-Device-Id"
		exposeHeaders = "Content-Length, Content-Type, Content-Range, Accept-Ranges, X-Request-ID"
	)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin == "" {
				next.ServeHTTP(w, r)
				return
			}

			if !isAllowedOrigin(origin) {
				if r.Method == http.MethodOptions {
					w.WriteHeader(http.StatusForbidden)
					return
				}
				// Non-preflight requests are served without CORS headers;
				// the browser enforces the denial.
				next.ServeHTTP(w, r)
				return
			}

			h := w.Header()
			h.Add("Vary", "Origin")
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Expose-Headers", exposeHeaders)

			if r.Method == http.MethodOptions {
				h.Set("Access-Control-Allow-Methods", allowMethods)
				h.Set("Access-Control-Allow-Headers", allowHeaders)
				h.Set("Access-Control-Max-Age", "600")
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// isAllowedOrigin accepts localhost on any port plus the per-workspace
// editor subdomains (<workspace>.app.storyreel.io and the .local variant
// used in development).
func isAllowedOrigin(origin string) bool {
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	if u.Path != "" || u.RawQuery != "" || u.Fragment != "" || u.User != nil {
		return false
	}

	host := u.Host
	if strings.Contains(host, ":") {
		h, port, err := net.SplitHostPort(host)
		if err != nil {
			return false
		}
		n, err := strconv.Atoi(port)
		if err != nil || n < 1 || n > 65535 {
			return false
		}
		host = h
	}

	if host == "localhost" || host == "127.0.0.1" {
		return true
	}

	for _, domain := range []string{".app.storyreel.io", ".app.storyreel.local"} {
		if strings.HasSuffix(host, domain) {
			if isValidWorkspaceLabel(strings.TrimSuffix(host, domain)) {
				return true
			}
		}
	}
	return false
}

func isValidWorkspaceLabel(label string) bool {
	if label == "" || strings.HasPrefix(label, "-") || strings.HasSuffix(label, "-") {
		return false
	}
	for _, r := range label {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= '0' && r <= '9':
		case r == '-':
		default:
			return false
		}
	}
	return true
}

// LoopbackGuard refuses requests that did not originate on this machine.
// Media bytes are only ever served to the local browser.
func LoopbackGuard() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !isLoopbackRemoteAddr(r.RemoteAddr) {
				WriteError(w, http.StatusForbidden, "media is served to local clients only", "FORBIDDEN")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func isLoopbackRemoteAddr(addr string) bool {
	host := addr
	if h, _, err := net.SplitHostPort(addr); err == nil {
		host = h
	}
	host = strings.TrimPrefix(host, "[")
	host = strings.TrimSuffix(host, "]")
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
