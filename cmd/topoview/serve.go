package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"topoview/internal/adapter"
	"topoview/internal/domain"
	"topoview/internal/handler"
	"topoview/internal/hub"
	"topoview/internal/service"
	"topoview/internal/watcher"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Run the HTTP API with server-sent events on /events and Prometheus
metrics on /metrics.

When watch.dir is configured, view documents written there are imported and
saved. When discovery.interval is configured, discovery.targets are scanned
with nmap on that interval.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "HTTP listen address (overrides config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()
	if serveAddr != "" {
		a.cfg.Server.Addr = serveAddr
	}
	logger := a.logger

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sseHub := hub.New(logger.Named("hub"))
	go sseHub.Run(ctx)

	eventChan := make(chan service.Event, 100)
	a.bus.Subscribe(eventChan)
	defer a.bus.Unsubscribe(eventChan)
	go hub.Relay[service.Event](ctx, sseHub, eventChan)

	scanner := adapter.NewNmapAdapter(
		adapter.WithPortRange(a.cfg.Discovery.Ports),
		adapter.WithTimeout(a.cfg.Discovery.Timeout.Or(10*time.Minute)),
		adapter.WithLogger(logger.Named("nmap")),
		adapter.WithProgress(func(target string, found int, err error) {
			a.bus.Publish(service.Event{Type: service.EventObjectsDiscovered, Payload: map[string]any{
				"target": target,
				"found":  found,
				"failed": err != nil,
			}})
		}),
	)

	h := handler.NewViewHandler(a.svc, logger.Named("http"))
	h.SetScanner(scanner, a.cfg.Discovery.Targets)

	if a.cfg.Discovery.Interval != nil && len(a.cfg.Discovery.Targets) > 0 {
		sched := adapter.NewScheduler(func(ctx context.Context, targets []string) ([]domain.ObjectRef, error) {
			return a.svc.Discover(ctx, scanner, targets)
		}, a.cfg.Discovery.Targets, a.cfg.Discovery.Interval.Duration(), logger.Named("discovery"))
		if scanner.Available(ctx) {
			if err := sched.Start(ctx); err != nil {
				return err
			}
			defer sched.Stop()
		} else {
			logger.Warn("nmap not found, scheduled discovery disabled")
		}
	}

	if a.cfg.Watch.Dir != "" {
		w, err := watcher.New(a.cfg.Watch.Dir, a.cfg.Watch.Pattern, a.importFile)
		if err != nil {
			return err
		}
		w.WithLogger(logger.Named("watcher")).WithDebounce(a.cfg.Watch.Debounce.Or(500 * time.Millisecond))
		if n, err := w.ImportExisting(ctx); err != nil {
			logger.Warn("initial import failed", zap.Error(err))
		} else if n > 0 {
			logger.Info("imported existing views", zap.Int("count", n))
		}
		go func() {
			if err := w.Watch(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("watcher stopped", zap.Error(err))
			}
		}()
	}

	server := &http.Server{
		Addr: a.cfg.Server.Addr,
		Handler: handler.NewRouter(h, handler.RouterConfig{
			Events:  sseHub,
			Metrics: a.metrics,
			Logger:  logger.Named("http"),
		}),
		ReadTimeout:  a.cfg.Server.ReadTimeout.Or(10 * time.Second),
		WriteTimeout: a.cfg.Server.WriteTimeout.Or(0),
		IdleTimeout:  60 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("server listening", zap.String("addr", server.Addr), zap.String("db", a.cfg.Database.Path))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout.Or(10*time.Second))
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("server shutdown error", zap.Error(err))
	}
	logger.Info("server stopped")
	return nil
}
