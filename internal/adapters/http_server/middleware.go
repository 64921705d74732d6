package httpserver

import (
	"fmt"
	"net"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"hotel_booking/internal/adapters/auth"
	"hotel_booking/internal/adapters/observability"
)

func Timeout(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler { return http.TimeoutHandler(next, d, "timeout") }
}

// ---- status-recording ResponseWriter ----

type srw struct {
	http.ResponseWriter
	status int
	wrote  bool
}

func (w *srw) WriteHeader(code int) {
	if !w.wrote {
		w.status = code
		w.wrote = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *srw) Write(b []byte) (int, error) {
	if !w.wrote {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(b)
}

func (w *srw) Status() int {
	if w.status == 0 {
		return http.StatusOK
	}
	return w.status
}

func routeOf(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if route := rc.RoutePattern(); route != "" {
			return route
		}
	}
	return r.URL.Path
}

// ---- Metrics middleware ----

func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &srw{ResponseWriter: w}
		next.ServeHTTP(sw, r)
		observability.ObserveHTTP(routeOf(r), r.Method, sw.Status(), time.Since(start))
	})
}

// ---- Structured logging middleware ----

func Logger(l zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &srw{ResponseWriter: w}
			next.ServeHTTP(sw, r)
			l.Info().
				Str("route", routeOf(r)).
				Str("method", r.Method).
				Int("status", sw.Status()).
				Dur("duration", time.Since(start)).
				Str("remote", clientAddr(r)).
				Str("ua", r.UserAgent()).
				Msg("http_request")
		})
	}
}

// ---- Per-client rate limiting ----

// limiterIdle is how long a client's limiter survives without requests.
const limiterIdle = 3 * time.Minute

type ipLimiter struct {
	mu  sync.Mutex
	ips *cache.Cache
	r   rate.Limit
	b   int
}

func (i *ipLimiter) get(ip string) *rate.Limiter {
	i.mu.Lock()
	defer i.mu.Unlock()
	var l *rate.Limiter
	if v, ok := i.ips.Get(ip); ok {
		l = v.(*rate.Limiter)
	} else {
		l = rate.NewLimiter(i.r, i.b)
	}
	// every request pushes the expiry back
	i.ips.SetDefault(ip, l)
	return l
}

func (i *ipLimiter) size() int { return i.ips.ItemCount() }

// clientAddr is the host part of RemoteAddr, which RealIP has already
// rewritten when proxy headers are trusted.
func clientAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil || host == "" {
		return r.RemoteAddr
	}
	return host
}

func newIPLimiter(r rate.Limit, b int) *ipLimiter {
	if b < 1 {
		b = 1
	}
	return &ipLimiter{ips: cache.New(limiterIdle, limiterIdle), r: r, b: b}
}

// RateLimit rejects clients exceeding r requests per second (burst b) with 429.
func RateLimit(r rate.Limit, b int) func(http.Handler) http.Handler {
	return rateLimit(newIPLimiter(r, b))
}

func rateLimit(lim *ipLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if !lim.get(clientAddr(req)).Allow() {
				observability.RateLimited.Inc()
				fail(w, http.StatusTooManyRequests, "Too many requests, please try again later")
				return
			}
			next.ServeHTTP(w, req)
		})
	}
}

// ---- Acting identity ----

// Protect requires a valid bearer token and attaches its identity to the
// request context.
func Protect(v *auth.Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, err := auth.BearerToken(r.Header.Get("Authorization"))
			if err != nil {
				fail(w, http.StatusUnauthorized, "Not authorize to access this route")
				return
			}
			who, err := v.Verify(raw)
			if err != nil {
				fail(w, http.StatusUnauthorized, "Not authorize to access this route")
				return
			}
			next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), who)))
		})
	}
}

// Authorize admits only identities holding one of roles. It runs after Protect.
func Authorize(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			who, ok := auth.FromContext(r.Context())
			if !ok {
				fail(w, http.StatusUnauthorized, "Not authorize to access this route")
				return
			}
			if !slices.Contains(roles, who.Role) {
				fail(w, http.StatusForbidden, fmt.Sprintf("User role %s is not authorized to access this route", who.Role))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
