package server

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"TechMart/pkg/config"
	xhttp "TechMart/pkg/http"
	pkgkafka "TechMart/pkg/kafka"
	applogger "TechMart/pkg/logger"
)

// Service is a background component started and stopped with the app.
type Service interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// Sweeper drops idle per-client state, e.g. rate limiter buckets.
type Sweeper interface {
	Sweep(idle time.Duration) int
}

type closer struct {
	name string
	c    io.Closer
}

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	log        *applogger.Logger
	httpServer *xhttp.Server

	consumer *pkgkafka.Consumer
	handlers []pkgkafka.MessageHandler
	services []namedService
	closers  []closer
	sweeper  Sweeper

	cancel context.CancelFunc
}

type namedService struct {
	name string
	svc  Service
}

// Option configures App.
type Option func(*App)

// WithConsumer runs c with the given topic handlers. A nil consumer is ignored.
func WithConsumer(c *pkgkafka.Consumer, handlers ...pkgkafka.MessageHandler) Option {
	return func(a *App) {
		if c == nil {
			return
		}
		a.consumer = c
		a.handlers = append(a.handlers, handlers...)
	}
}

// WithService adds a background service. Services start in order and stop in reverse.
func WithService(name string, svc Service) Option {
	return func(a *App) {
		if svc != nil {
			a.services = append(a.services, namedService{name: name, svc: svc})
		}
	}
}

// WithCloser registers a resource closed last on shutdown, in reverse order.
func WithCloser(name string, c io.Closer) Option {
	return func(a *App) {
		if c != nil {
			a.closers = append(a.closers, closer{name: name, c: c})
		}
	}
}

// WithSweeper periodically evicts idle client state from s.
func WithSweeper(s Sweeper) Option {
	return func(a *App) { a.sweeper = s }
}

// New creates a new App instance with all dependencies.
func New(cfg *config.Config, l *applogger.Logger, httpServer *xhttp.Server, opts ...Option) *App {
	if l == nil {
		l = applogger.Nop()
	}
	a := &App{cfg: cfg, log: l, httpServer: httpServer}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.Start(ctx); err != nil {
		_ = a.Shutdown(context.Background())
		return err
	}

	<-ctx.Done()
	a.log.Info("shutdown signal received")
	return a.Shutdown(context.Background())
}

// Start launches background services, the Kafka consumer and the HTTP server.
func (a *App) Start(ctx context.Context) error {
	ctx, a.cancel = context.WithCancel(ctx)

	for _, s := range a.services {
		if err := s.svc.Start(ctx); err != nil {
			a.log.Error("service start error", applogger.String("service", s.name), applogger.Error(err))
			return err
		}
		a.log.Info("service started", applogger.String("service", s.name))
	}

	if a.consumer != nil && len(a.handlers) > 0 {
		topics := make([]string, 0, len(a.handlers))
		for _, h := range a.handlers {
			a.consumer.RegisterHandler(h)
			topics = append(topics, h.Topic())
		}
		if err := a.consumer.Start(); err != nil {
			a.log.Error("kafka consumer error", applogger.Error(err))
			return err
		}
		a.log.Info("kafka consumer started", applogger.Strings("topics", topics))
	}

	if a.sweeper != nil {
		go a.sweep(ctx)
	}

	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start error", applogger.Error(err))
		return err
	}
	a.log.Info("app started",
		applogger.String("env", a.cfg.Environment),
		applogger.Int("port", a.cfg.Server.Port))
	return nil
}

func (a *App) sweep(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := a.sweeper.Sweep(10 * time.Minute); n > 0 {
				a.log.Debug("rate limiter buckets evicted", applogger.Int("count", n))
			}
		}
	}
}

// Shutdown gracefully stops all services.
func (a *App) Shutdown(ctx context.Context) error {
	a.log.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()

	// stop taking requests before the work behind them goes away
	if a.httpServer != nil {
		if err := a.httpServer.Stop(shutdownCtx); err != nil {
			a.log.Error("http shutdown error", applogger.Error(err))
		}
	}

	if a.consumer != nil {
		if err := a.consumer.Stop(shutdownCtx); err != nil {
			a.log.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}

	for i := len(a.services) - 1; i >= 0; i-- {
		s := a.services[i]
		if err := s.svc.Stop(shutdownCtx); err != nil {
			a.log.Warn("service stop error", applogger.String("service", s.name), applogger.Error(err))
		}
	}

	if a.cancel != nil {
		a.cancel()
	}

	for i := len(a.closers) - 1; i >= 0; i-- {
		c := a.closers[i]
		if err := c.c.Close(); err != nil {
			a.log.Warn("close error", applogger.String("resource", c.name), applogger.Error(err))
		}
	}

	a.log.Info("shutdown complete")
	return nil
}
