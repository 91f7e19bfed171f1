package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	apiemissions "github.com/kilianp07/fleetco2/api/emissions"
	"github.com/kilianp07/fleetco2/api/health"
	"github.com/kilianp07/fleetco2/api/mcptools"
	"github.com/kilianp07/fleetco2/api/middleware"
	"github.com/kilianp07/fleetco2/config"
	"github.com/kilianp07/fleetco2/core/emissions"
	coremetrics "github.com/kilianp07/fleetco2/core/metrics"
	coremon "github.com/kilianp07/fleetco2/core/monitoring"
	"github.com/kilianp07/fleetco2/infra/logger"
	"github.com/kilianp07/fleetco2/infra/metrics"
	"github.com/kilianp07/fleetco2/infra/monitoring"
	"github.com/kilianp07/fleetco2/infra/tracing"
	"github.com/kilianp07/fleetco2/internal/eventbus"
)

const shutdownTimeout = 10 * time.Second

// Version is reported in traces. Set with -ldflags "-X".
var Version = "dev"

// Service wires the calculator, HTTP API and observability sinks.
type Service struct {
	cfg     *config.Config
	log     logger.Logger
	mon     coremon.Monitor
	calc    *emissions.Calculator
	bus     *eventbus.TypedBus[coremetrics.CalculationEvent]
	sink    coremetrics.Sink
	tp      trace.TracerProvider
	stopTP  tracing.ShutdownFunc
	handler http.Handler
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := logger.SetLevel(cfg.Logging.Level); err != nil {
		return nil, err
	}
	logg := logger.New("service")

	mon, err := monitoring.NewSentryMonitor(cfg.Sentry)
	if err != nil {
		return nil, fmt.Errorf("sentry: %w", err)
	}

	sink, err := coremetrics.NewSink(cfg.Metrics.Sinks)
	if err != nil {
		return nil, fmt.Errorf("metrics sinks: %w", err)
	}

	tp, stopTP, err := tracing.Init(context.Background(), cfg.Tracing, Version)
	if err != nil {
		if c, ok := sink.(io.Closer); ok {
			_ = c.Close()
		}
		return nil, fmt.Errorf("tracing: %w", err)
	}

	svc := &Service{
		cfg:    cfg,
		log:    logg,
		mon:    mon,
		calc:   emissions.NewCalculator(emissions.DefaultFactors()),
		bus:    eventbus.NewTypedWithBuffer[coremetrics.CalculationEvent](64),
		sink:   sink,
		tp:     tp,
		stopTP: stopTP,
	}
	svc.handler = svc.routes()
	return svc, nil
}

func (s *Service) routes() http.Handler {
	mux := http.NewServeMux()
	h := apiemissions.NewHandler(s.calc, s.bus, logger.New("api"), s.cfg.Server.MaxBodyBytes)
	apiemissions.Register(mux, h)
	mux.Handle("/healthz", health.Handler())

	mws := []middleware.Middleware{
		middleware.RequestID,
		middleware.AccessLog(logger.New("http")),
		middleware.Tracing(s.tp),
		middleware.Recover(s.log, s.mon),
		middleware.CORS(s.cfg.CORS),
	}
	if rl := s.cfg.Server.RateLimit; rl.RequestsPerSecond > 0 {
		mws = append(mws, middleware.NewRateLimiter(rl.RequestsPerSecond, rl.Burst).Middleware)
	}
	return middleware.Chain(mux, mws...)
}

// Handler returns the HTTP handler with the full middleware chain.
func (s *Service) Handler() http.Handler { return s.handler }

// Run listens on the configured address and blocks until ctx is canceled.
func (s *Service) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Server.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.cfg.Server.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve runs the API on ln together with the event collector and, when
// configured, the Prometheus endpoint. It returns after a graceful shutdown
// once ctx is canceled or one of the servers fails.
func (s *Service) Serve(ctx context.Context, ln net.Listener) error {
	// The collector stops when the bus closes so queued events are drained.
	collectorDone := metrics.StartEventCollector(context.WithoutCancel(ctx), s.bus, s.sink, logger.New("metrics"), s.mon)

	g, gctx := errgroup.WithContext(ctx)
	if addr := s.cfg.Metrics.PrometheusAddr; addr != "" {
		g.Go(func() error {
			if err := metrics.StartPromServer(gctx, addr, nil); err != nil {
				return fmt.Errorf("prom server: %w", err)
			}
			return nil
		})
	}

	srv := &http.Server{
		Handler:           s.handler,
		ReadTimeout:       s.cfg.Server.ReadTimeout,
		ReadHeaderTimeout: s.cfg.Server.ReadTimeout,
		WriteTimeout:      s.cfg.Server.WriteTimeout,
	}
	g.Go(func() error {
		s.log.Infof("listening on %s", ln.Addr())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, stop := context.WithTimeout(context.Background(), shutdownTimeout)
		defer stop()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})

	err := g.Wait()
	s.bus.Close()
	<-collectorDone
	s.log.Infof("server stopped")
	return err
}

// MCPServer returns an MCP server whose tool calls publish to the service's
// event bus.
func (s *Service) MCPServer() *server.MCPServer {
	return mcptools.NewServer(mcptools.New(s.calc, s.bus, logger.New("mcp")), Version)
}

// ServeMCP serves the MCP tools over the given streams until in is exhausted
// or ctx is canceled.
func (s *Service) ServeMCP(ctx context.Context, in io.Reader, out io.Writer) error {
	collectorDone := metrics.StartEventCollector(context.WithoutCancel(ctx), s.bus, s.sink, logger.New("metrics"), s.mon)
	err := server.NewStdioServer(s.MCPServer()).Listen(ctx, in, out)
	s.bus.Close()
	<-collectorDone
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	s.bus.Close()
	var errs []error
	if c, ok := s.sink.(io.Closer); ok {
		errs = append(errs, c.Close())
	}
	errs = append(errs, s.stopTP(context.Background()))
	s.mon.Flush(2 * time.Second)
	return errors.Join(errs...)
}
