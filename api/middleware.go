package api

import (
	"bytes"
	"context"
	"crypto/subtle"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"github.com/nurapulse/pulse/api/respond"
	"github.com/nurapulse/pulse/core/logger"
	"github.com/nurapulse/pulse/core/model"
	coremon "github.com/nurapulse/pulse/core/monitoring"
	coretelemetry "github.com/nurapulse/pulse/core/telemetry"
)

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = "X-Request-ID"

type ctxKey struct{}

// RequestID returns the id assigned to the request by the middleware.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, id)))
	})
}

// statusWriter records the status code written by the handler.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	return w.ResponseWriter.Write(b)
}

func accessLog(log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w}
			next.ServeHTTP(sw, r)
			log.Infow("http request", map[string]any{
				"method":      r.Method,
				"path":        r.URL.Path,
				"status":      sw.status,
				"duration_ms": time.Since(start).Milliseconds(),
				"request_id":  RequestID(r.Context()),
			})
		})
	}
}

// recoverPanic answers a panicking handler with a generic 500. Handlers render
// their body before writing, so nothing partial has been sent at that point.
func recoverPanic(log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}
					err := coremon.CapturePanic(rec, map[string]string{
						"module":     "api",
						"path":       r.URL.Path,
						"request_id": RequestID(r.Context()),
					})
					log.Errorf("panic serving %s: %v", r.URL.Path, err)
					respond.Error(w, http.StatusInternalServerError, respond.ComputationFailed)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

func timeout(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), d)
			defer cancel()
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerAuth(token string) func(http.Handler) http.Handler {
	want := []byte("Bearer " + token)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := []byte(r.Header.Get("Authorization"))
			if subtle.ConstantTimeCompare(got, want) != 1 {
				w.Header().Set("WWW-Authenticate", `Bearer realm="pulse"`)
				respond.Error(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// IPRateLimiter stores a rate limiter for each client IP address.
type IPRateLimiter struct {
	ips map[string]*rate.Limiter
	mu  sync.RWMutex
	r   rate.Limit
	b   int
}

// NewIPRateLimiter creates a new IPRateLimiter.
func NewIPRateLimiter(r rate.Limit, b int) *IPRateLimiter {
	return &IPRateLimiter{ips: make(map[string]*rate.Limiter), r: r, b: b}
}

// Limiter returns the limiter of ip, creating it on first use.
func (i *IPRateLimiter) Limiter(ip string) *rate.Limiter {
	i.mu.RLock()
	l, ok := i.ips[ip]
	i.mu.RUnlock()
	if ok {
		return l
	}
	i.mu.Lock()
	defer i.mu.Unlock()
	if l, ok = i.ips[ip]; !ok {
		l = rate.NewLimiter(i.r, i.b)
		i.ips[ip] = l
	}
	return l
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return strings.TrimSpace(r.RemoteAddr)
	}
	return host
}

func rateLimit(l *IPRateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !l.Limiter(clientIP(r)).Allow() {
				w.Header().Set("Retry-After", "1")
				respond.Error(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

type cachedResponse struct {
	status  int
	headers http.Header
	body    []byte
}

// bodyCacheWriter tees the response body into a buffer.
type bodyCacheWriter struct {
	statusWriter
	body bytes.Buffer
}

func (w *bodyCacheWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.statusWriter.Write(b)
}

// reportCache is the response cache plus a generation bumped on every flush.
// A response computed across a flush is not stored.
type reportCache struct {
	*cache.Cache
	mu  sync.Mutex
	gen uint64
}

func newReportCache(ttl time.Duration) *reportCache {
	return &reportCache{Cache: cache.New(ttl, 2*ttl)}
}

func (c *reportCache) generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen
}

// setIfCurrent stores v unless the cache was flushed since gen was read.
func (c *reportCache) setIfCurrent(gen uint64, key string, v cachedResponse) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen != gen {
		return false
	}
	c.Set(key, v, cache.DefaultExpiration)
	return true
}

func (c *reportCache) invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	c.Flush()
}

// responseCache replays successful GET responses for which cacheable holds,
// keyed by the full request URI.
func responseCache(store *reportCache, cacheable func(*http.Request) bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet || !cacheable(r) {
				next.ServeHTTP(w, r)
				return
			}
			key := r.URL.RequestURI()
			if v, found := store.Get(key); found {
				cached := v.(cachedResponse)
				for k, vals := range cached.headers {
					w.Header()[k] = vals
				}
				w.Header().Set("X-Cache", "HIT")
				w.WriteHeader(cached.status)
				_, _ = w.Write(cached.body)
				return
			}
			gen := store.generation()
			bw := &bodyCacheWriter{statusWriter: statusWriter{ResponseWriter: w}}
			next.ServeHTTP(bw, r)
			if bw.status >= 200 && bw.status < 300 {
				headers := bw.Header().Clone()
				headers.Del(RequestIDHeader)
				store.setIfCurrent(gen, key, cachedResponse{status: bw.status, headers: headers, body: bw.body.Bytes()})
			}
		})
	}
}

// flushOnLateTelemetry empties the report cache when samples older than the
// current day are written. Only past days are cached, so writes for today
// never invalidate anything.
func flushOnLateTelemetry(events <-chan coretelemetry.Appended, store *reportCache, loc *time.Location, now func() time.Time, log logger.Logger) {
	for ev := range events {
		if ev.Earliest.Before(model.Day(now().In(loc))) {
			log.Debugf("late telemetry for %v, flushing %d cached reports", ev.Vehicles, store.ItemCount())
			store.invalidate()
		}
	}
}
