// Package bootstrap wires configuration into a running application
package bootstrap

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"hype_trader/internal/alert"
	"hype_trader/internal/broker"
	"hype_trader/internal/config"
	"hype_trader/internal/core"
	"hype_trader/internal/engine"
	"hype_trader/internal/journal"
	"hype_trader/internal/ledger"
	"hype_trader/internal/logging"
	"hype_trader/internal/safety"
	"hype_trader/internal/sentiment"
	"hype_trader/pkg/telemetry"
)

// App is the assembled application
type App struct {
	cfg     *config.Config
	logger  *logging.Logger
	broker  *broker.Alpaca
	checker *safety.Checker
	engine  *engine.Engine
	journal core.IJournal
	metrics *telemetry.MetricsServer
}

// New builds the full dependency graph from configuration
func New(cfg *config.Config) (*App, error) {
	logger, err := logging.NewLoggerFromString(cfg.System.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	httpTimeout := time.Duration(cfg.Timing.HTTPTimeoutSeconds) * time.Second
	alpaca := broker.NewAlpaca(cfg.Broker, httpTimeout, logger)

	var sources []core.ISentimentSource
	if cfg.Sources.ApeWisdomEnabled {
		sources = append(sources, sentiment.NewApeWisdomSource(cfg.Sources.ApeWisdomURL, httpTimeout, logger))
	}
	if cfg.Sources.StocktwitsEnabled {
		sources = append(sources, sentiment.NewStocktwitsSource(cfg.Sources.StocktwitsURL, httpTimeout, logger))
	}

	store, err := ledger.NewEntryTimeStore(cfg.Trading.EntryTimePath)
	if err != nil {
		return nil, fmt.Errorf("open entry time store: %w", err)
	}
	led := ledger.NewLedger(alpaca, store, logger)

	var jnl core.IJournal = journal.Noop{}
	if cfg.Trading.JournalPath != "" {
		jnl, err = journal.Open(cfg.Trading.JournalPath)
		if err != nil {
			return nil, fmt.Errorf("open decision journal: %w", err)
		}
	}

	alerts := alert.NewManager(logger)
	if cfg.Alerts.SlackWebhookURL != "" {
		alerts.AddChannel(alert.NewSlackChannel(cfg.Alerts.SlackWebhookURL.Value()))
	}
	if cfg.Alerts.TelegramBotToken != "" {
		alerts.AddChannel(alert.NewTelegramChannel(cfg.Alerts.TelegramBotToken.Value(), cfg.Alerts.TelegramChatID))
	}

	app := &App{
		cfg:     cfg,
		logger:  logger,
		broker:  alpaca,
		checker: safety.NewChecker(logger),
		journal: jnl,
		engine:  engine.New(cfg, alpaca, alpaca, sources, led, jnl, alerts, logger),
	}
	if cfg.Telemetry.EnableMetrics {
		app.metrics = telemetry.NewMetricsServer(cfg.Telemetry.MetricsAddr)
	}
	return app, nil
}

// Run executes the trading loop until a termination signal arrives
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	defer a.shutdown()

	if err := a.checker.CheckAccount(ctx, a.broker); err != nil {
		return fmt.Errorf("pre-flight check failed: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return a.engine.Run(gctx)
	})
	if a.metrics != nil {
		a.logger.Info("metrics server listening", "addr", a.cfg.Telemetry.MetricsAddr)
		g.Go(func() error {
			return a.metrics.Run(gctx)
		})
	}
	return g.Wait()
}

// RunOnce executes a single decision cycle and exits
func (a *App) RunOnce(ctx context.Context) error {
	defer a.shutdown()
	return a.engine.RunCycle(ctx)
}

func (a *App) shutdown() {
	if err := a.journal.Close(); err != nil {
		a.logger.Warn("journal close failed", "error", err)
	}
	_ = a.logger.Sync()
}
