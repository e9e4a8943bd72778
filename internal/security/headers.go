package security

import (
	"fmt"
	"net/http"

	"github.com/vyrodovalexey/avcmsgw/internal/config"
)

// headerSet is the precomputed name/value list applied to each response.
type headerSet struct {
	static [][2]string
	hsts   string
}

func buildHeaderSet(cfg *config.SecurityConfig) *headerSet {
	hs := &headerSet{}

	if cfg.XFrameOptions != "" {
		hs.static = append(hs.static, [2]string{"X-Frame-Options", cfg.XFrameOptions})
	}
	if cfg.XContentTypeOptions != "" {
		hs.static = append(hs.static, [2]string{"X-Content-Type-Options", cfg.XContentTypeOptions})
	}
	if cfg.ReferrerPolicy != "" {
		hs.static = append(hs.static, [2]string{"Referrer-Policy", cfg.ReferrerPolicy})
	}
	if cfg.CSPPolicy != "" {
		hs.static = append(hs.static, [2]string{"Content-Security-Policy", cfg.CSPPolicy})
	}

	if cfg.HSTS.Enabled {
		maxAge := cfg.HSTS.MaxAgeSeconds
		if maxAge <= 0 {
			maxAge = 31536000
		}
		hs.hsts = fmt.Sprintf("max-age=%d", maxAge)
		if cfg.HSTS.IncludeSubDomains {
			hs.hsts += "; includeSubDomains"
		}
	}

	return hs
}

func (hs *headerSet) apply(w http.ResponseWriter, r *http.Request) {
	h := w.Header()
	for _, kv := range hs.static {
		h.Set(kv[0], kv[1])
	}
	// HSTS is only meaningful on TLS responses.
	if hs.hsts != "" && isSecureRequest(r) {
		h.Set("Strict-Transport-Security", hs.hsts)
	}
}

// Headers returns middleware that adds the configured security headers
// to every response. A nil or disabled config yields a pass-through.
func Headers(cfg *config.SecurityConfig) func(http.Handler) http.Handler {
	if cfg == nil || !cfg.Enabled {
		return func(next http.Handler) http.Handler {
			return next
		}
	}

	hs := buildHeaderSet(cfg)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hs.apply(w, r)
			next.ServeHTTP(w, r)
		})
	}
}

// isSecureRequest reports whether the request arrived over HTTPS,
// either directly or via a terminating proxy.
func isSecureRequest(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	if r.Header.Get("X-Forwarded-Proto") == "https" {
		return true
	}
	return r.URL.Scheme == "https"
}
