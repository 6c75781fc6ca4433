// Package main provides the topoview CLI and server.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"topoview/internal/config"
	"topoview/internal/icons"
	"topoview/internal/metrics"
	"topoview/internal/render"
	"topoview/internal/repository/sqlite"
	"topoview/internal/service"
)

// Version is the current topoview version
var Version = "0.3.0"

var (
	configPath string
	dbPath     string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:           "topoview",
	Short:         "topoview - network topology views",
	Long:          `topoview edits, stores and renders topology views: inventory objects, clouds, frames and labels placed on a canvas and joined by edges.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default: search $TOPOVIEW_CONFIG, ./topoview.yaml, XDG, /etc)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "SQLite database path (overrides config)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error (overrides config)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// loadConfig reads the config file and applies flag overrides
func loadConfig() (*config.Config, string, error) {
	var (
		cfg  *config.Config
		path string
		err  error
	)
	if configPath != "" {
		cfg, path, err = config.LoadFromPath(configPath)
	} else {
		cfg, path, err = config.Load()
	}
	if err != nil {
		return nil, path, err
	}

	if dbPath != "" {
		cfg.Database.Path = dbPath
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	return cfg, path, cfg.Validate()
}

// app holds what every command needs
type app struct {
	cfg     *config.Config
	logger  *zap.Logger
	repo    *sqlite.Repository
	bus     *service.EventBus
	metrics *metrics.Collector
	svc     *service.ViewService
}

func newApp() (*app, error) {
	cfg, path, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger, err := cfg.NewLogger()
	if err != nil {
		return nil, err
	}
	if path != "" {
		logger.Debug("config loaded", zap.String("path", path))
	}

	repo, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		_ = logger.Sync()
		return nil, fmt.Errorf("open database: %w", err)
	}

	a := &app{
		cfg:    cfg,
		logger: logger,
		repo:   repo,
		bus:    service.NewEventBus(),
	}
	if cfg.Metrics.Enabled {
		a.metrics = metrics.NewCollector(cfg.Metrics.Namespace)
	}

	ro := render.DefaultOptions()
	ro.Padding = cfg.Render.Padding
	ro.FontSize = cfg.Render.FontSize

	opts := []service.Option{
		service.WithLogger(logger),
		service.WithMetrics(a.metrics),
		service.WithRenderOptions(ro),
	}
	if cfg.Icons.Dir != "" {
		opts = append(opts, service.WithIconProvider(icons.NewFileProvider(cfg.Icons.Dir, logger.Named("icons"))))
	}
	a.svc = service.NewViewService(repo, a.bus, opts...)
	return a, nil
}

func (a *app) Close() error {
	a.svc.Shutdown()
	err := a.repo.Close()
	_ = a.logger.Sync()
	return err
}
