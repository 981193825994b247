package httpmiddleware

import (
	"net/http"
	"strconv"
	"strings"
)

// CORSConfig configures cross-origin resource sharing.
type CORSConfig struct {
	// AllowOrigins lists origins permitted to make cross-origin requests.
	// Empty, or containing "*", permits every origin.
	AllowOrigins []string

	// AllowMethods lists methods permitted in actual requests. Empty
	// defaults to the methods the API uses.
	AllowMethods []string

	// AllowHeaders lists request headers clients may send. When empty
	// the preflight echoes Access-Control-Request-Headers back.
	AllowHeaders []string

	// ExposeHeaders lists response headers scripts may read.
	ExposeHeaders []string

	// AllowCredentials permits cookies and authorization headers on
	// cross-origin requests. Incompatible with the wildcard origin, so
	// setting it forces origin echo-back.
	AllowCredentials bool

	// MaxAge is the preflight cache lifetime in seconds. Zero omits the
	// header, negative disables caching.
	MaxAge int
}

// policy is a CORSConfig with its header values precomputed.
type policy struct {
	wildcard      bool
	origins       []string
	methods       string
	headers       string
	exposeHeaders string
	credentials   bool
	maxAge        string
}

func compile(cfg CORSConfig) *policy {
	p := &policy{
		wildcard:      len(cfg.AllowOrigins) == 0,
		origins:       cfg.AllowOrigins,
		methods:       strings.Join(cfg.AllowMethods, ", "),
		headers:       strings.Join(cfg.AllowHeaders, ", "),
		exposeHeaders: strings.Join(cfg.ExposeHeaders, ", "),
		credentials:   cfg.AllowCredentials,
	}
	for _, o := range cfg.AllowOrigins {
		if o == "*" {
			p.wildcard = true
		}
	}
	// The wildcard origin is invalid with credentials. Echo the request
	// origin instead, matching it against the configured list if any.
	if p.credentials {
		p.wildcard = false
	}
	if p.methods == "" {
		p.methods = "GET, POST, PUT, PATCH, DELETE, OPTIONS"
	}
	switch {
	case cfg.MaxAge > 0:
		p.maxAge = strconv.Itoa(cfg.MaxAge)
	case cfg.MaxAge < 0:
		p.maxAge = "0"
	}
	return p
}

// allowOrigin resolves the Access-Control-Allow-Origin value for a
// request origin, or "" when the origin is rejected.
func (p *policy) allowOrigin(origin string) string {
	if p.wildcard {
		return "*"
	}
	if len(p.origins) == 0 {
		// Credentials forced wildcard off without an explicit list.
		return origin
	}
	for _, o := range p.origins {
		if strings.EqualFold(o, origin) {
			return o
		}
	}
	return ""
}

func (p *policy) preflight(w http.ResponseWriter, r *http.Request) {
	h := w.Header()
	h.Add("Vary", "Origin")
	h.Add("Vary", "Access-Control-Request-Method")
	h.Add("Vary", "Access-Control-Request-Headers")

	origin := p.allowOrigin(r.Header.Get("Origin"))
	if origin == "" {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	h.Set("Access-Control-Allow-Origin", origin)
	h.Set("Access-Control-Allow-Methods", p.methods)
	if p.headers != "" {
		h.Set("Access-Control-Allow-Headers", p.headers)
	} else if req := r.Header.Get("Access-Control-Request-Headers"); req != "" {
		h.Set("Access-Control-Allow-Headers", req)
	}
	if p.credentials {
		h.Set("Access-Control-Allow-Credentials", "true")
	}
	if p.maxAge != "" {
		h.Set("Access-Control-Max-Age", p.maxAge)
	}
	w.WriteHeader(http.StatusNoContent)
}

func (p *policy) actual(w http.ResponseWriter, r *http.Request) {
	h := w.Header()
	if !p.wildcard {
		h.Add("Vary", "Origin")
	}
	origin := p.allowOrigin(r.Header.Get("Origin"))
	if origin == "" {
		return
	}
	h.Set("Access-Control-Allow-Origin", origin)
	if p.credentials {
		h.Set("Access-Control-Allow-Credentials", "true")
	}
	if p.exposeHeaders != "" {
		h.Set("Access-Control-Expose-Headers", p.exposeHeaders)
	}
}

// CORS returns a middleware implementing cross-origin resource sharing.
// Preflight requests are answered with 204 and never reach the next
// handler. Vary headers are set so shared caches keep per-origin copies.
func CORS(cfg CORSConfig) Middleware {
	p := compile(cfg)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Origin") == "" {
				if !p.wildcard {
					w.Header().Add("Vary", "Origin")
				}
				next.ServeHTTP(w, r)
				return
			}
			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				p.preflight(w, r)
				return
			}
			p.actual(w, r)
			next.ServeHTTP(w, r)
		})
	}
}
