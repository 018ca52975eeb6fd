package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/sync/errgroup"

	"ordnance/catalog"
	"ordnance/internal/arena"
	servernet "ordnance/internal/net"
	"ordnance/internal/net/ws"
	"ordnance/internal/observability"
	"ordnance/internal/telemetry"
	"ordnance/internal/weapon"
	"ordnance/logging"
)

const (
	instrumentationName = "ordnance/armory"
	shutdownTimeout     = 5 * time.Second
)

// Run loads the weapon catalog and scenario, then steps the skirmish to
// completion. With a listen address it also serves diagnostics and the
// websocket event feed until the skirmish ends, or until ctx is canceled when
// Linger is set.
func Run(ctx context.Context, cfg Config) error {
	logger := telemetry.WrapLogger(log.Default())
	metrics := &logging.Metrics{}

	tracer, shutdownTracing := setupTracing(ctx, cfg.Tracing, logger)
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			logger.Printf("failed to shut down tracing: %v", err)
		}
	}()

	var feed *ws.Feed
	if cfg.ListenAddr != "" {
		feed = ws.NewFeed(ws.FeedConfig{Logger: logger})
	}

	logConfig := logging.DefaultConfig()
	logConfig.EnabledSinks = cfg.LogSinks
	severity, err := logging.ParseSeverity(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("ARMORY_LOG_LEVEL: %w", err)
	}
	logConfig.MinimumSeverity = severity

	namedSinks, closeFiles, err := buildSinks(cfg, logConfig, feed, os.Stdout)
	if err != nil {
		return err
	}
	router, err := logging.NewRouter(nil, logConfig, namedSinks)
	if err != nil {
		closeFiles()
		return fmt.Errorf("failed to construct logging router: %w", err)
	}
	defer func() {
		closeRouter(router, logger)
		if err := closeFiles(); err != nil {
			logger.Printf("failed to close log files: %v", err)
		}
	}()

	appMetrics := telemetry.Tee(
		telemetry.WrapMetrics(metrics),
		telemetry.NewOTelMetrics(otel.Meter(instrumentationName)),
	)

	resolver, err := catalog.Load(cfg.CatalogPaths...)
	if err != nil {
		logger.Printf("weapon catalog loaded with errors: %v", err)
	}
	if len(resolver.Templates()) == 0 {
		return fmt.Errorf("no weapons loaded from %s", strings.Join(cfg.CatalogPaths, ", "))
	}

	scenario, err := arena.LoadScenario(cfg.ScenarioPath)
	if err != nil {
		return err
	}
	arenaCfg := scenario.Config(arena.Config{
		GlobalBonus: resolver.GlobalBonus(),
		AutoEngage:  true,
		Publisher:   router,
		Logger:      logger,
		Metrics:     appMetrics,
	})
	if cfg.Seed != 0 {
		arenaCfg.Seed = cfg.Seed
	}
	world := arena.New(arenaCfg)
	if err := resolver.Apply(world.Store()); err != nil {
		logger.Printf("some weapons failed to register: %v", err)
	}
	if err := world.Populate(scenario); err != nil {
		logger.Printf("scenario %s: %v", scenario.Name, err)
	}
	if len(world.Units()) == 0 {
		return fmt.Errorf("scenario %s spawned no units", scenario.Name)
	}
	weapons := cloneTemplates(world.Store().Templates())

	frames := scenario.Frames
	if cfg.Frames > 0 {
		frames = cfg.Frames
	}
	skirmish := NewSkirmish(world, SkirmishOptions{
		Scenario:     scenario.Name,
		FrameLimit:   frames,
		TickRate:     cfg.TickRate,
		SummaryEvery: cfg.SummaryEvery,
		Tracer:       tracer,
		Publisher:    router,
		Logger:       logger,
	})

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	group, groupCtx := errgroup.WithContext(runCtx)

	group.Go(func() error {
		if !cfg.Linger || cfg.ListenAddr == "" {
			defer cancel()
		}
		status := skirmish.Run(groupCtx)
		if status.Winner != "" {
			logger.Printf("scenario %s finished at frame %d: team %s wins", status.Scenario, status.Frame, status.Winner)
		} else {
			logger.Printf("scenario %s finished at frame %d: %s", status.Scenario, status.Frame, status.Reason)
		}
		return nil
	})

	if cfg.ListenAddr != "" {
		srv := &http.Server{
			Addr: cfg.ListenAddr,
			Handler: servernet.NewHTTPHandler(servernet.HTTPHandlerConfig{
				Logger:   logger,
				Feed:     feed,
				Metrics:  metrics,
				TickRate: cfg.TickRate,
				Status:   func() any { return skirmish.Status() },
				Weapons:  func() []*weapon.Template { return cloneTemplates(weapons) },
				Events:   router.Stats,
				Observability: observability.Config{
					EnablePprof: cfg.Pprof,
				},
			}),
		}
		group.Go(func() error {
			logger.Printf("observer feed listening on %s", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server failed: %w", err)
			}
			return nil
		})
		group.Go(func() error {
			<-groupCtx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	return group.Wait()
}

// setupTracing returns a tracer for per-frame spans. Spans are only recorded
// when tracing is enabled; their trace ids are stamped on frame summaries.
func setupTracing(ctx context.Context, enabled bool, logger telemetry.Logger) (trace.Tracer, func(context.Context) error) {
	noopShutdown := func(context.Context) error { return nil }
	if !enabled {
		return noop.NewTracerProvider().Tracer(instrumentationName), noopShutdown
	}

	res, err := resource.New(ctx, resource.WithAttributes(semconv.ServiceName("armory")))
	if err != nil {
		logger.Printf("tracing resource incomplete: %v", err)
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)
	otel.SetTracerProvider(tp)
	return tp.Tracer(instrumentationName), tp.Shutdown
}

func cloneTemplates(templates []*weapon.Template) []*weapon.Template {
	out := make([]*weapon.Template, len(templates))
	for i, t := range templates {
		out[i] = t.Clone()
	}
	return out
}
