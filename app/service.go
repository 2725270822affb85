package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nurapulse/pulse/api"
	"github.com/nurapulse/pulse/config"
	coremetrics "github.com/nurapulse/pulse/core/metrics"
	"github.com/nurapulse/pulse/core/milestone"
	coremon "github.com/nurapulse/pulse/core/monitoring"
	"github.com/nurapulse/pulse/core/report"
	"github.com/nurapulse/pulse/core/telemetry"
	"github.com/nurapulse/pulse/infra/logger"
	"github.com/nurapulse/pulse/infra/metrics"
	"github.com/nurapulse/pulse/infra/monitoring"
	"github.com/nurapulse/pulse/infra/mqtt"
	_ "github.com/nurapulse/pulse/infra/store"
)

// Service owns the store, the report service and the network front ends.
type Service struct {
	cfg     *config.Config
	Store   telemetry.Store
	Reports *report.Service
	Handler http.Handler
	sink    coremetrics.Sink
	sub     *mqtt.Subscriber
	log     logger.Logger
}

// New configures logging and monitoring, opens the store and builds the report
// service and HTTP handler. Nothing listens until Run.
func New(cfg *config.Config) (*Service, error) {
	if err := logger.Configure(cfg.Logging.Options()); err != nil {
		return nil, fmt.Errorf("logging: %w", err)
	}
	logg := logger.New("service")

	mon, err := monitoring.NewSentryMonitor(cfg.Sentry)
	if err != nil {
		return nil, fmt.Errorf("sentry: %w", err)
	}
	coremon.Init(mon)

	var sink coremetrics.Sink = coremetrics.NopSink{}
	if cfg.Metrics.Enabled {
		sink, err = coremetrics.NewSink(cfg.Metrics.Sinks)
		if err != nil {
			return nil, fmt.Errorf("metrics sink: %w", err)
		}
	}

	engine, err := milestone.NewEngine(cfg.Engine, logger.New("engine"))
	if err != nil {
		return nil, err
	}
	opened, err := telemetry.Open(cfg.Store)
	if err != nil {
		return nil, err
	}
	st := telemetry.WithNotifications(opened)
	reports := report.NewService(engine, st, sink, logger.New("report"))

	return &Service{
		cfg:     cfg,
		Store:   st,
		Reports: reports,
		Handler: api.NewRouter(cfg.HTTP, reports, cfg.Hotspot, logger.New("http"),
			api.WithCacheInvalidation(st.Subscribe())),
		sink:    sink,
		log:     logg,
	}, nil
}

// Run starts MQTT ingestion (when enabled), the metrics endpoint and the HTTP
// API, and blocks until ctx is canceled or one of them fails.
func (s *Service) Run(ctx context.Context) error {
	if s.cfg.Ingest.Enabled {
		sub, err := mqtt.NewSubscriber(s.cfg.Ingest, s.Store, s.sink)
		if err != nil {
			return fmt.Errorf("mqtt ingest: %w", err)
		}
		s.sub = sub
	}
	g, ctx := errgroup.WithContext(ctx)
	if s.cfg.Metrics.Enabled && s.promConfigured() {
		g.Go(func() error {
			return metrics.StartPromServer(ctx, s.cfg.Metrics.PrometheusPort, nil)
		})
	}
	g.Go(func() error {
		return api.Serve(ctx, s.cfg.HTTP, s.Handler, s.log)
	})
	return g.Wait()
}

func (s *Service) promConfigured() bool {
	for _, c := range s.cfg.Metrics.Sinks {
		if c.Type == "prometheus" {
			return true
		}
	}
	return false
}

// Close releases the subscriber and the store and flushes pending reports.
func (s *Service) Close() error {
	if s.sub != nil {
		s.sub.Close()
	}
	if c, ok := s.sink.(interface{ Close() }); ok {
		c.Close()
	}
	err := s.Store.Close()
	coremon.Flush(2 * time.Second)
	if lerr := logger.Close(); err == nil {
		err = lerr
	}
	return err
}
