package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/nats-io/nats.go"

	"github.com/jensholdgaard/fanta-auction/internal/auction"
	"github.com/jensholdgaard/fanta-auction/internal/bot"
	"github.com/jensholdgaard/fanta-auction/internal/clock"
	"github.com/jensholdgaard/fanta-auction/internal/config"
	"github.com/jensholdgaard/fanta-auction/internal/event"
	"github.com/jensholdgaard/fanta-auction/internal/health"
	"github.com/jensholdgaard/fanta-auction/internal/leader"
	"github.com/jensholdgaard/fanta-auction/internal/notify"
	"github.com/jensholdgaard/fanta-auction/internal/orchestrator"
	"github.com/jensholdgaard/fanta-auction/internal/roster"
	"github.com/jensholdgaard/fanta-auction/internal/store"
	"github.com/jensholdgaard/fanta-auction/internal/telemetry"
	"github.com/jensholdgaard/fanta-auction/internal/timer"

	// Register store drivers so they are available via store.Open.
	_ "github.com/jensholdgaard/fanta-auction/internal/store/entstore"
	_ "github.com/jensholdgaard/fanta-auction/internal/store/postgres"
)

var version = "dev"

func main() {
	configPath := flag.String("config", "config.yaml", "path to configuration file")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	if err := run(*configPath); err != nil {
		slog.Error("fatal error", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(configPath string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Load configuration.
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Setup telemetry.
	tp, err := telemetry.Setup(ctx, cfg.Telemetry)
	if err != nil {
		slog.Warn("telemetry setup failed, continuing without OTEL export", slog.Any("error", err))
		tp = telemetry.NewNopProvider()
	}
	defer func() {
		if shutdownErr := tp.Shutdown(context.Background()); shutdownErr != nil {
			slog.Error("telemetry shutdown error", slog.Any("error", shutdownErr))
		}
	}()

	logger := tp.Logger
	clk := clock.Real()

	// Open store using the configured driver (sqlx or ent).
	repos, err := store.Open(ctx, cfg.Database, clk)
	if err != nil {
		return fmt.Errorf("opening store (driver=%s): %w", cfg.Database.Driver, err)
	}
	defer repos.Closer.Close()

	logger.InfoContext(ctx, "connected to database", slog.String("driver", cfg.Database.Driver))

	// The Discord session is shared between the bot and the notifier.
	discordSession, err := discordgo.New("Bot " + cfg.Discord.Token)
	if err != nil {
		return fmt.Errorf("creating discord session: %w", err)
	}

	sinks := []notify.Notifier{
		notify.NewLog(logger),
		notify.NewDiscord(discordSession, cfg.Discord.ChannelID, logger),
	}
	if cfg.NATS.URL != "" {
		nc, natsErr := nats.Connect(cfg.NATS.URL)
		if natsErr != nil {
			return fmt.Errorf("connecting to nats: %w", natsErr)
		}
		defer nc.Close()
		sinks = append(sinks, notify.NewNATS(nc, logger))
		logger.InfoContext(ctx, "nats fan-out enabled", slog.String("url", cfg.NATS.URL))
	}
	notifier := notify.NewMulti(sinks...)

	// Wire the auction engine, timers and the event choreography.
	bus := event.NewBus(logger)
	auctionMgr := auction.NewManager(
		repos.Teams, repos.Sessions, repos.Events,
		bus, notifier, roster.NewOps(), cfg.Auction, logger, clk,
	)
	timerMgr := timer.NewManager(repos.Timers, bus, notifier, clk, logger)
	orch := orchestrator.New(auctionMgr, timerMgr, cfg.Auction, clk, logger)
	orch.Register(bus)

	// Setup health checks. The gauges surface the engine state on /readyz so
	// an operator can verify a failover recovered the live auction.
	healthHandler := health.NewHandler(clk,
		health.Checker{
			Name:  "database",
			Check: repos.Ping,
		},
	)
	healthHandler.AddGauge(health.Gauge{Name: "live_sessions", Value: auctionMgr.LiveSessionCount})
	healthHandler.AddGauge(health.Gauge{Name: "active_timers", Value: timerMgr.ActiveCount})

	// Start HTTP server for health checks (runs on all replicas).
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", healthHandler.LivenessHandler())
	mux.HandleFunc("/readyz", healthHandler.ReadinessHandler())

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.InfoContext(ctx, "starting health server", slog.Int("port", cfg.Server.Port))
		if listenErr := httpServer.ListenAndServe(); listenErr != nil && listenErr != http.ErrServerClosed {
			logger.ErrorContext(ctx, "health server error", slog.Any("error", listenErr))
		}
	}()

	// startAuctioneer is the core work that only the leader should run.
	startAuctioneer := func(ctx context.Context) {
		// Recover in-flight sessions and countdowns so a live auction
		// survives restarts and leader failover.
		if n, recoverErr := auctionMgr.RecoverRunningSessions(ctx); recoverErr != nil {
			logger.ErrorContext(ctx, "session recovery failed", slog.Any("error", recoverErr))
		} else if n > 0 {
			logger.InfoContext(ctx, "recovered auction sessions", slog.Int("count", n))
		}
		if n, recoverErr := timerMgr.RecoverActiveTimers(ctx); recoverErr != nil {
			logger.ErrorContext(ctx, "timer recovery failed", slog.Any("error", recoverErr))
		} else if n > 0 {
			logger.InfoContext(ctx, "recovered bidding timers", slog.Int("count", n))
		}

		discordBot := bot.New(discordSession, *cfg, auctionMgr, repos.Teams, logger, tp.TracerProvider)

		if botErr := discordBot.Start(ctx); botErr != nil {
			logger.ErrorContext(ctx, "starting bot failed", slog.Any("error", botErr))
			return
		}

		healthHandler.SetReady(true)
		logger.InfoContext(ctx, "auctioneer is running (leader)", slog.String("version", version))

		// Block until leadership is lost or process is shutting down.
		<-ctx.Done()

		healthHandler.SetReady(false)
		timerMgr.Shutdown()
		if stopErr := discordBot.Stop(); stopErr != nil {
			logger.Error("bot shutdown error", slog.Any("error", stopErr))
		}
	}

	if cfg.LeaderElection.Enabled {
		logger.InfoContext(ctx, "leader election enabled, waiting for leadership...")

		if leaderErr := leader.Run(ctx, cfg.LeaderElection, logger, startAuctioneer, func() {
			logger.Info("lost leadership, shutting down...")
			cancel()
		}); leaderErr != nil {
			return fmt.Errorf("leader election: %w", leaderErr)
		}
	} else {
		// No leader election, run directly.
		startAuctioneer(ctx)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", slog.Any("error", err))
	}

	logger.Info("shutdown complete")
	return nil
}
