package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/imrtlfarm/Reliquary/config"
	"github.com/imrtlfarm/Reliquary/core/events"
	"github.com/imrtlfarm/Reliquary/core/state"
	"github.com/imrtlfarm/Reliquary/native/positions"
	"github.com/imrtlfarm/Reliquary/native/rewarder"
	"github.com/imrtlfarm/Reliquary/observability/logging"
	"github.com/imrtlfarm/Reliquary/observability/metrics"
	"github.com/imrtlfarm/Reliquary/observability/otel"
	"github.com/imrtlfarm/Reliquary/rpc"
	"github.com/imrtlfarm/Reliquary/storage"
)

const envVar = "RLQ_ENV"

func main() {
	configFile := flag.String("config", "./config.toml", "Path to the configuration file")
	flag.Parse()

	env := strings.TrimSpace(os.Getenv(envVar))
	logger := logging.Setup("reliquaryd", env)

	cfg, err := config.Load(*configFile)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("Invalid configuration", slog.Any("error", err))
		os.Exit(1)
	}

	db, err := storage.NewLevelDB(cfg.DataDir)
	if err != nil {
		panic(fmt.Sprintf("Failed to open database: %v", err))
	}
	defer db.Close()

	manager := state.NewManager(db)
	if err := ensureToken(manager, cfg.StakeSymbol, "Reliquary Stake"); err != nil {
		logger.Error("Failed to register stake token", slog.Any("error", err))
		os.Exit(1)
	}
	if err := ensureToken(manager, cfg.RewardSymbol, "Reliquary Reward"); err != nil {
		logger.Error("Failed to register reward token", slog.Any("error", err))
		os.Exit(1)
	}

	rewarderCfg, err := cfg.RewarderConfig()
	if err != nil {
		logger.Error("Failed to build rewarder config", slog.Any("error", err))
		os.Exit(1)
	}
	engine, err := rewarder.NewEngine(rewarderCfg, manager)
	if err != nil {
		logger.Error("Failed to construct rewarder", slog.Any("error", err))
		os.Exit(1)
	}
	ledgerAddr, err := cfg.LedgerAddressBytes()
	if err != nil {
		logger.Error("Failed to decode ledger address", slog.Any("error", err))
		os.Exit(1)
	}
	ledger, err := positions.NewLedger(cfg.StakeSymbol, ledgerAddr, manager)
	if err != nil {
		logger.Error("Failed to construct ledger", slog.Any("error", err))
		os.Exit(1)
	}
	ledger.SetRewarder(engine)
	engine.SetOwnership(ledger)

	bus := events.NewBus()
	engine.SetEmitter(bus)
	ledger.SetEmitter(bus)

	metrics.Rewarder().SetCadence(rewarderCfg.Cadence)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Telemetry.Endpoint != "" {
		shutdown, err := otel.Init(ctx, otel.Config{
			ServiceName: "reliquaryd",
			Environment: cfg.Telemetry.Environment,
			Endpoint:    cfg.Telemetry.Endpoint,
			Insecure:    cfg.Telemetry.Insecure,
			Metrics:     cfg.Telemetry.Metrics,
			Traces:      cfg.Telemetry.Traces,
		})
		if err != nil {
			logger.Error("Failed to initialise telemetry", slog.Any("error", err))
			os.Exit(1)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(shutdownCtx); err != nil {
				logger.Warn("Telemetry shutdown failed", slog.Any("error", err))
			}
		}()
	}

	opsRouter := chi.NewRouter()
	opsRouter.Use(chimw.Recoverer)
	opsRouter.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	opsRouter.Handle("/metrics", promhttp.Handler())

	opsServer := &http.Server{
		Addr:              cfg.OpsAddress,
		Handler:           opsRouter,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("starting ops server", "addr", cfg.OpsAddress)
		if err := opsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Ops server failed", slog.Any("error", err))
		}
	}()

	server := rpc.NewServer(engine, ledger, manager, bus, logger)
	go func() {
		if err := server.Start(cfg.RPCAddress); err != nil && err != http.ErrServerClosed {
			logger.Error("RPC server failed", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := opsServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("Ops server shutdown failed", slog.Any("error", err))
	}
}

func ensureToken(manager *state.Manager, symbol, name string) error {
	existing, err := manager.Token(symbol)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}
	return manager.RegisterToken(symbol, name, 18)
}
