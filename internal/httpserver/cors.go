package httpserver

import (
	"net/http"
	"slices"
	"strings"

	"github.com/fdg312/meal-planner/internal/config"
)

// Методы и заголовки, которые использует meal plan API.
var (
	corsMethods = []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete}
	// Content-Type: шаблоны принимают JSON и YAML
	corsRequestHeaders = []string{"Authorization", "Content-Type"}
	// Content-Disposition нужен для скачивания экспортов, Retry-After для 429
	corsExposedHeaders = []string{"Content-Disposition", "Retry-After"}
)

type corsPolicy struct {
	origins     map[string]bool
	credentials bool
}

func newCORSPolicy(cfg *config.Config) corsPolicy {
	p := corsPolicy{
		origins:     make(map[string]bool, len(cfg.CORSAllowedOrigins)),
		credentials: cfg.CORSAllowCredentials,
	}
	for _, o := range cfg.CORSAllowedOrigins {
		if o = strings.TrimSpace(o); o != "" {
			p.origins[o] = true
		}
	}
	return p
}

func (p corsPolicy) allowOrigin(h http.Header, origin string) {
	h.Set("Access-Control-Allow-Origin", origin)
	h.Add("Vary", "Origin")
	if p.credentials {
		h.Set("Access-Control-Allow-Credentials", "true")
	}
}

// preflight answers an OPTIONS request. Unknown origins and methods get a bare
// 204 so the browser blocks the real request.
func (p corsPolicy) preflight(w http.ResponseWriter, r *http.Request, origin string) {
	method := r.Header.Get("Access-Control-Request-Method")
	if p.origins[origin] && (method == "" || slices.Contains(corsMethods, method)) {
		h := w.Header()
		p.allowOrigin(h, origin)
		h.Set("Access-Control-Allow-Methods", strings.Join(append(corsMethods, http.MethodOptions), ","))
		h.Set("Access-Control-Allow-Headers", strings.Join(corsRequestHeaders, ","))
		h.Set("Access-Control-Max-Age", "600")
	}
	w.WriteHeader(http.StatusNoContent)
}

// CORSMiddleware adds CORS headers for the configured origins and answers preflight requests.
func CORSMiddleware(cfg *config.Config, next http.Handler) http.Handler {
	policy := newCORSPolicy(cfg)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin == "" {
			next.ServeHTTP(w, r)
			return
		}

		if r.Method == http.MethodOptions {
			policy.preflight(w, r, origin)
			return
		}

		if policy.origins[origin] {
			policy.allowOrigin(w.Header(), origin)
			w.Header().Set("Access-Control-Expose-Headers", strings.Join(corsExposedHeaders, ","))
		}
		next.ServeHTTP(w, r)
	})
}
