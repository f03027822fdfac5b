// Package main is the entry point of the cycle arbitrage engine.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"github.com/fd1az/cycle-arbitrage/business/arbitrage"
	"github.com/fd1az/cycle-arbitrage/business/blockchain"
	blockchainDI "github.com/fd1az/cycle-arbitrage/business/blockchain/di"
	bdomain "github.com/fd1az/cycle-arbitrage/business/blockchain/domain"
	"github.com/fd1az/cycle-arbitrage/business/exchange"
	"github.com/fd1az/cycle-arbitrage/business/feed"
	feedDI "github.com/fd1az/cycle-arbitrage/business/feed/di"
	"github.com/fd1az/cycle-arbitrage/business/market"
	"github.com/fd1az/cycle-arbitrage/internal/apm"
	"github.com/fd1az/cycle-arbitrage/internal/apperror"
	"github.com/fd1az/cycle-arbitrage/internal/config"
	"github.com/fd1az/cycle-arbitrage/internal/di"
	"github.com/fd1az/cycle-arbitrage/internal/health"
	"github.com/fd1az/cycle-arbitrage/internal/logger"
	"github.com/fd1az/cycle-arbitrage/internal/metrics"
	"github.com/fd1az/cycle-arbitrage/internal/monolith"
	"github.com/fd1az/cycle-arbitrage/pkg/ui"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	// Load .env file if present (ignore error if not found)
	_ = godotenv.Load()

	configPath := flag.String("config", "", "Path to configuration file")
	cliMode := flag.Bool("cli", false, "Run in CLI mode with logs (no TUI)")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		fmt.Printf("cycle-arbitrage %s (commit: %s, built: %s)\n", version, commit, buildDate)
		os.Exit(0)
	}

	// TUI is the default, CLI is for debugging
	tuiMode := !*cliMode

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		if !tuiMode {
			fmt.Fprintf(os.Stderr, "received shutdown signal: %v\n", sig)
		}
		cancel()
	}()

	if err := run(ctx, cancel, *configPath, tuiMode); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cancel context.CancelFunc, configPath string, tuiMode bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	cfg.Arbitrage.TUIMode = tuiMode

	// In TUI mode logs would corrupt the screen
	var out io.Writer = os.Stderr
	if tuiMode {
		out = io.Discard
	}
	log := logger.New(out, logger.ParseLevel(cfg.App.LogLevel), cfg.App.Name, nil)
	log.Info(ctx, "starting cycle arbitrage engine",
		"version", version,
		"environment", cfg.App.Environment,
		"exchange_env", string(cfg.Exchange.Env()),
	)

	if cfg.Telemetry.Enabled {
		stop, err := startTelemetry(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer stop()
	}

	healthServer := health.NewServer(cfg.Server.HealthPort, version, log)
	healthServer.Start()
	defer func() {
		shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
		defer done()
		_ = healthServer.Stop(shutdownCtx)
	}()

	mono, err := monolith.New(cfg, log, healthServer)
	if err != nil {
		return fmt.Errorf("failed to create monolith: %w", err)
	}
	defer mono.Close()

	// Dependency order: market stores and the quoter come before the
	// arbitrage and feed modules that consume them.
	modules := []monolith.Module{
		&blockchain.Module{},
		&market.Module{},
		&exchange.Module{},
		&arbitrage.Module{},
		&feed.Module{},
	}

	if err := mono.RegisterModules(modules...); err != nil {
		return fmt.Errorf("failed to register modules: %w", err)
	}

	if tuiMode {
		start := func() error {
			ui.Send(ui.StartupMsg{Step: "config", Status: "done"})
			ui.Send(ui.StartupMsg{Step: "ethereum", Status: "connecting"})
			ui.Send(ui.StartupMsg{Step: "modules", Status: "connecting"})
			if err := mono.StartModules(ctx, modules...); err != nil {
				return fmt.Errorf("failed to start modules: %w", err)
			}
			ui.Send(ui.StartupMsg{Step: "modules", Status: "done"})
			ui.Send(ui.StartupMsg{Step: "server", Status: "connected"})
			return nil
		}
		return runTUI(ctx, cancel, start, mono.Services())
	}

	if err := mono.StartModules(ctx, modules...); err != nil {
		return fmt.Errorf("failed to start modules: %w", err)
	}
	return runCLI(ctx, log)
}

func startTelemetry(ctx context.Context, cfg *config.Config, log logger.LoggerInterface) (func(), error) {
	tp, err := apm.NewTraceProvider(ctx, log, apm.Options{
		ServiceName: cfg.Telemetry.ServiceName,
		Exporter:    apm.Exporter(cfg.Telemetry.Exporter),
		Endpoint:    cfg.Telemetry.OTLPEndpoint,
		Headers:     cfg.Telemetry.OTLPHeaders,
	})
	if err != nil {
		return nil, apperror.New(apperror.CodeConfigurationError, apperror.WithCause(err))
	}

	opts := []metrics.OptionFn{
		metrics.WithServiceName(cfg.Telemetry.ServiceName),
		metrics.WithPrometheus(),
	}
	if cfg.Telemetry.Exporter == string(apm.OTLPGRPCExporter) && cfg.Telemetry.OTLPEndpoint != "" {
		opts = append(opts, metrics.WithOTLP(cfg.Telemetry.OTLPEndpoint, apm.ParseHeaders(cfg.Telemetry.OTLPHeaders), true))
	}
	mp, err := metrics.NewMetricProvider(ctx, opts...)
	if err != nil {
		_ = tp.Stop()
		return nil, apperror.New(apperror.CodeConfigurationError, apperror.WithCause(err))
	}

	metricsServer := metrics.NewServer(cfg.Telemetry.PrometheusPort)
	errCh := metricsServer.Start()
	go func() {
		if err := <-errCh; err != nil {
			log.Error(ctx, "metrics server stopped", "error", err)
		}
	}()
	log.Info(ctx, "prometheus metrics server started", "port", cfg.Telemetry.PrometheusPort)

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Stop(shutdownCtx)
		_ = mp.Shutdown(shutdownCtx)
		_ = tp.Stop()
	}, nil
}

func runCLI(ctx context.Context, log logger.LoggerInterface) error {
	log.Info(ctx, "all modules started, waiting for sessions")
	<-ctx.Done()
	log.Info(ctx, "shutting down")
	return nil
}

func runTUI(ctx context.Context, cancel context.CancelFunc, start func() error, sr di.ServiceRegistry) error {
	p := tea.NewProgram(ui.New(), tea.WithAltScreen())
	ui.Program = p

	errCh := make(chan error, 1)
	go func() {
		if err := start(); err != nil {
			ui.Send(ui.StartupMsg{Step: "modules", Status: "failed", Message: err.Error()})
			errCh <- err
			return
		}
		pollStatus(ctx, sr)
		errCh <- nil
	}()

	_, err := p.Run()
	// The program returns on quit; stop the modules with it.
	cancel()
	if err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}

	select {
	case err := <-errCh:
		return err
	case <-time.After(time.Second):
		return nil
	}
}

// pollStatus feeds the dashboard with subscriber state and session counts
// until ctx is done.
func pollStatus(ctx context.Context, sr di.ServiceRegistry) {
	chain := blockchainDI.GetBlockchainService(sr)
	hub := feedDI.GetHub(sr)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		st := chain.Status()
		connected := st.State == bdomain.StateConnected
		ui.Send(ui.ConnectionStatusMsg{Name: "Chain", State: string(st.State), Connected: connected})
		if connected {
			ui.Send(ui.StartupMsg{Step: "ethereum", Status: "connected"})
		}
		if st.LastBlock > 0 {
			ui.Send(ui.BlockMsg{Number: st.LastBlock, Timestamp: time.Now()})
		}
		ui.Send(ui.SessionsMsg{Open: hub.Count()})

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
