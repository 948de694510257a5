package middleware

import (
	"net/http"
	"strings"
)

// corsHeaders are sent with every response to an allowed origin.
var corsHeaders = [][2]string{
	{"Access-Control-Allow-Headers", "Content-Type, X-Request-ID"},
	{"Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS"},
	{"Access-Control-Expose-Headers", "X-Request-ID"},
	{"Access-Control-Max-Age", "600"},
}

// OriginPolicy is the set of browser origins the console front end is served
// from. Origins compare case-insensitively, ignoring a trailing slash.
type OriginPolicy struct {
	wildcard bool
	origins  map[string]struct{}
}

// NewOriginPolicy builds a policy from configured origins. "*" admits any
// origin; blank entries are skipped.
func NewOriginPolicy(origins []string) *OriginPolicy {
	p := &OriginPolicy{origins: make(map[string]struct{}, len(origins))}
	for _, o := range origins {
		o = normalizeOrigin(o)
		switch o {
		case "":
		case "*":
			p.wildcard = true
		default:
			p.origins[o] = struct{}{}
		}
	}
	return p
}

// Open reports whether the policy admits every origin, either through "*" or
// because nothing was configured.
func (p *OriginPolicy) Open() bool {
	return p.wildcard || len(p.origins) == 0
}

// Allows reports whether origin was configured explicitly or through "*".
// A missing origin is never allowed.
func (p *OriginPolicy) Allows(origin string) bool {
	origin = normalizeOrigin(origin)
	if origin == "" {
		return false
	}
	if p.wildcard {
		return true
	}
	_, ok := p.origins[origin]
	return ok
}

// Middleware answers CORS for the console API. Allowed origins are echoed
// back; preflights from them end here with 204.
func (p *OriginPolicy) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := strings.TrimSpace(r.Header.Get("Origin"))
		if !p.Allows(origin) {
			next.ServeHTTP(w, r)
			return
		}
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", origin)
		h.Add("Vary", "Origin")
		for _, kv := range corsHeaders {
			h.Set(kv[0], kv[1])
		}
		if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// CORS is NewOriginPolicy(allowedOrigins).Middleware.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	return NewOriginPolicy(allowedOrigins).Middleware
}

func normalizeOrigin(origin string) string {
	return strings.ToLower(strings.TrimRight(strings.TrimSpace(origin), "/"))
}
