package http

import (
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"ecodefill-backend/internal/config"
	"ecodefill-backend/internal/logger"
	"ecodefill-backend/internal/security"
)

var (
	errBadRequest      = errors.New("malformed request body")
	errUnauthenticated = errors.New("sign in required")
	errForbidden       = errors.New("you do not have access to this page")
	errRateLimited     = errors.New("too many attempts, please wait a moment")
)

// statusRecorder keeps the response code for logging and metrics. Flush is
// passed through so the member stream still works behind it.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func routeName(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if name := route.GetName(); name != "" {
			return name
		}
	}
	return "unknown"
}

// observe logs every request and records it in the HTTP metrics.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := routeName(r)
		elapsed := time.Since(start)
		s.metrics.HTTPRequestsTotal.WithLabelValues(route, r.Method, strconv.Itoa(rec.status)).Inc()
		s.metrics.HTTPRequestDuration.WithLabelValues(route, r.Method).Observe(elapsed.Seconds())
		logger.Debug("HTTP request", "route", route, "method", r.Method, "status", rec.status, "duration_ms", elapsed.Milliseconds())
	})
}

// authenticate enforces the security level configured for the matched route
// and puts the caller's session into the request context.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		level := config.GetSecurityLevel(routeName(r))
		if level == config.SecurityPublic {
			next.ServeHTTP(w, r)
			return
		}

		token := extractToken(r)
		if token == "" {
			writeError(w, errUnauthenticated)
			return
		}
		session, err := s.sessions.Validate(token)
		if err != nil {
			writeError(w, err)
			return
		}
		if err := checkSecurityLevel(level, session); err != nil {
			writeError(w, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(security.WithSession(r.Context(), session)))
	})
}

func extractToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if len(header) > 7 && strings.EqualFold(header[:7], "Bearer ") {
		return header[7:]
	}
	// EventSource cannot set headers
	if routeName(r) == config.RouteStreamMembers {
		return r.URL.Query().Get("access_token")
	}
	return ""
}

func checkSecurityLevel(level config.SecurityLevel, session *security.Session) error {
	switch level {
	case config.SecurityStudent:
		if session.IsAdmin() {
			return errForbidden
		}
	case config.SecurityAdmin:
		if !session.IsAdmin() {
			return errForbidden
		}
	}
	return nil
}

// limiterIdleTTL drops a client's bucket after it has been quiet this long.
const limiterIdleTTL = 10 * time.Minute

// ipLimiter hands out one token bucket per client address. Buckets of idle
// clients expire from the cache.
type ipLimiter struct {
	mu       sync.Mutex
	limiters *cache.Cache
	limit    rate.Limit
	burst    int
}

func newIPLimiter(perSecond float64, burst int, idle time.Duration) *ipLimiter {
	return &ipLimiter{
		limiters: cache.New(idle, idle),
		limit:    rate.Limit(perSecond),
		burst:    burst,
	}
}

func (l *ipLimiter) get(ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	if v, exists := l.limiters.Get(ip); exists {
		limiter := v.(*rate.Limiter)
		l.limiters.SetDefault(ip, limiter)
		return limiter
	}
	limiter := rate.NewLimiter(l.limit, l.burst)
	l.limiters.SetDefault(ip, limiter)
	return limiter
}

func (l *ipLimiter) wrap(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			ip = r.RemoteAddr
		}
		if !l.get(ip).Allow() {
			logger.Warn("Rate limit hit", "route", routeName(r), "ip", ip)
			writeError(w, errRateLimited)
			return
		}
		next(w, r)
	}
}
