// Package api assembles the HTTP surface of the reporting service: the
// battery report endpoints, telemetry ingestion, hotspot placement and the
// middleware chain in front of them.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"golang.org/x/time/rate"

	"github.com/nurapulse/pulse/api/battery"
	"github.com/nurapulse/pulse/api/hotspots"
	"github.com/nurapulse/pulse/api/telemetry"
	"github.com/nurapulse/pulse/core/hotspot"
	"github.com/nurapulse/pulse/core/logger"
	"github.com/nurapulse/pulse/core/report"
	coretelemetry "github.com/nurapulse/pulse/core/telemetry"
)

// RouterOption customises NewRouter.
type RouterOption func(*routerOptions)

type routerOptions struct {
	invalidate <-chan coretelemetry.Appended
}

// WithCacheInvalidation empties the report cache whenever telemetry for a
// past day arrives on events. The watcher stops when events is closed.
func WithCacheInvalidation(events <-chan coretelemetry.Appended) RouterOption {
	return func(o *routerOptions) { o.invalidate = events }
}

// NewRouter builds the handler tree. The middleware order is: proxy headers,
// CORS, request id, access log, panic recovery, then on /api rate limiting,
// auth, request timeout and the report cache.
func NewRouter(cfg Config, svc *report.Service, spots hotspot.Options, log logger.Logger, opts ...RouterOption) http.Handler {
	cfg.SetDefaults()
	var o routerOptions
	for _, opt := range opts {
		opt(&o)
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	r := mux.NewRouter()
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	}).Methods(http.MethodGet)

	apiRouter := r.PathPrefix("/api").Subrouter()
	if cfg.RateLimitRPS > 0 {
		apiRouter.Use(rateLimit(NewIPRateLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst)))
	}
	if cfg.AuthToken != "" {
		apiRouter.Use(bearerAuth(cfg.AuthToken))
	}
	apiRouter.Use(timeout(cfg.timeout()))

	bh := battery.NewHandler(svc, log)
	if cfg.CacheTTLSeconds > 0 {
		reports := newReportCache(cfg.cacheTTL())
		apiRouter.Use(responseCache(reports, bh.Cacheable))
		if o.invalidate != nil {
			go flushOnLateTelemetry(o.invalidate, reports, svc.Engine().Location(), time.Now, log)
		}
	}
	bh.Register(apiRouter)
	telemetry.NewHandler(svc, cfg.MaxBodyBytes).Register(apiRouter)
	hotspots.NewHandler(spots).Register(apiRouter)

	var h http.Handler = r
	h = recoverPanic(log)(h)
	h = accessLog(log)(h)
	h = requestID(h)
	if len(cfg.CORSOrigins) > 0 {
		h = handlers.CORS(
			handlers.AllowedOrigins(cfg.CORSOrigins),
			handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
			handlers.AllowedHeaders([]string{"Authorization", "Content-Type", RequestIDHeader}),
		)(h)
	}
	return handlers.ProxyHeaders(h)
}

// Serve runs the HTTP server on cfg.Address until ctx is canceled.
func Serve(ctx context.Context, cfg Config, h http.Handler, log logger.Logger) error {
	cfg.SetDefaults()
	srv := &http.Server{
		Addr:              cfg.Address,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Errorf("http server shutdown: %v", err)
		}
	}()
	log.Infof("http server listening on %s", cfg.Address)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
