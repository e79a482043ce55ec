package server

import (
	"net/http"
	"strings"
)

// securityHeaders is the header set the web bundle is served with. The
// Content-Security-Policy is completed per server with the backend origin
// the bundle talks to.
var securityHeaders = map[string]string{
	"Cross-Origin-Opener-Policy":        "same-origin",
	"Cross-Origin-Resource-Policy":      "same-origin",
	"Origin-Agent-Cluster":              "?1",
	"Referrer-Policy":                   "no-referrer",
	"Strict-Transport-Security":         "max-age=31536000; includeSubDomains",
	"X-Content-Type-Options":            "nosniff",
	"X-DNS-Prefetch-Control":            "off",
	"X-Download-Options":                "noopen",
	"X-Frame-Options":                   "SAMEORIGIN",
	"X-Permitted-Cross-Domain-Policies": "none",
	"X-XSS-Protection":                  "0",
}

func contentSecurityPolicy(connectSrc []string) string {
	connect := append([]string{"'self'"}, connectSrc...)
	directives := []string{
		"default-src 'self'",
		"base-uri 'self'",
		"connect-src " + strings.Join(connect, " "),
		"font-src 'self' https: data:",
		"form-action 'self'",
		"frame-ancestors 'self'",
		"img-src 'self' data:",
		"object-src 'none'",
		"script-src 'self'",
		"script-src-attr 'none'",
		"style-src 'self' https: 'unsafe-inline'",
		"upgrade-insecure-requests",
	}
	return strings.Join(directives, ";")
}

func withSecurityHeaders(csp string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		for k, v := range securityHeaders {
			h.Set(k, v)
		}
		h.Set("Content-Security-Policy", csp)
		h.Del("X-Powered-By")
		next.ServeHTTP(w, r)
	})
}
