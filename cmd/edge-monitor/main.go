package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Vodeneev/oddsedge/internal/feed"
	"github.com/Vodeneev/oddsedge/internal/feed/provider"
	"github.com/Vodeneev/oddsedge/internal/monitor"
	"github.com/Vodeneev/oddsedge/internal/pkg/config"
	"github.com/Vodeneev/oddsedge/internal/pkg/logging"
	"github.com/Vodeneev/oddsedge/internal/pkg/notify"
	"github.com/Vodeneev/oddsedge/internal/pkg/ratelimit"
	"github.com/Vodeneev/oddsedge/internal/pkg/storage"
)

const serviceName = "edge-monitor"

func main() {
	var configPath string
	var checkOnly bool

	flag.StringVar(&configPath, "config", os.Getenv("CONFIG_PATH"), "Path to YAML config file (optional, can be set via CONFIG_PATH env var)")
	flag.BoolVar(&checkOnly, "check", false, "Validate configuration, probe the feed and exit")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	_, logCloser, err := logging.SetupLogger(cfg.Logging, serviceName)
	if err != nil {
		log.Fatalf("Failed to setup logging: %v", err)
	}
	defer logCloser.Close()

	for _, w := range cfg.Warnings() {
		slog.Warn("Config warning", "warning", w)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	limiter := ratelimit.NewWindow(cfg.Feed.RateLimitRequests, cfg.RateLimitWindow())
	src, err := provider.New(cfg, limiter)
	if err != nil {
		log.Fatalf("Failed to create odds provider: %v", err)
	}
	slog.Info("Odds provider ready", "provider", src.Name(), "leagues", cfg.Feed.Leagues, "market_types", cfg.Feed.MarketTypes)

	if checkOnly {
		os.Exit(runCheck(ctx, cfg, src))
	}
	if cfg.Feed.CheckLeagues {
		feed.CheckLeagues(src.FetchLeagues(ctx), cfg.Feed.Leagues)
	}

	var redisClient *redis.Client
	if cfg.Redis.URL != "" {
		redisClient, err = notify.NewRedisClient(cfg.Redis.URL)
		if err != nil {
			log.Fatalf("Failed to configure Redis: %v", err)
		}
		defer redisClient.Close()
		pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			slog.Warn("Redis not reachable at startup, publishing will be retried per event", "error", err)
		}
		pingCancel()
	}

	sinks, stopSinks := buildSinks(cfg, redisClient)
	defer stopSinks()

	journal, closeJournal := buildJournal(cfg, redisClient)
	defer closeJournal()

	detector := monitor.NewDetector(cfg.Monitor.EdgeThreshold,
		monitor.LeagueHeuristic{ByLeague: cfg.Model.WinProbability, Default: cfg.Model.DefaultWinProbability},
		monitor.LeagueMeans{ByLeague: cfg.Model.KillMeans, Default: cfg.Model.DefaultKillMean},
	)

	opts := monitor.Options{
		OpeningInterval:   cfg.OpeningInterval(),
		LiveInterval:      cfg.LiveInterval(),
		OpeningDedup:      cfg.Monitor.OpeningDedup,
		DedupCapacity:     cfg.Monitor.DedupCapacity,
		DedupRetain:       cfg.Monitor.DedupRetain,
		SilenceWarnCycles: cfg.Monitor.SilenceWarnCycles,
	}
	if journal != nil {
		opts.Journal = journal
	}

	scheduler := monitor.NewScheduler(src, detector, sinks, opts)
	scheduler.Run(ctx)
	scheduler.Tracker().PrintSummary()
	slog.Info("Edge monitor shut down")
}

// buildSinks wires every configured sink. Without Telegram or Redis the
// monitor runs in simulation mode and only logs alerts.
func buildSinks(cfg *config.Config, redisClient *redis.Client) (notify.Fanout, func()) {
	var sinks notify.Fanout
	stop := func() {}

	if cfg.Telegram.BotToken != "" {
		tg, err := notify.NewTelegramSink(cfg.Telegram.BotToken, cfg.Telegram.ChatID)
		if err != nil {
			slog.Error("Telegram disabled", "error", err)
		} else {
			sinks = append(sinks, tg)
			stop = tg.Stop
		}
	}
	if redisClient != nil {
		sinks = append(sinks, notify.NewRedisStreamSink(redisClient, cfg.Redis.StreamPrefix, cfg.Redis.MaxLen))
		slog.Info("Redis stream sink enabled", "prefix", cfg.Redis.StreamPrefix)
	}
	if len(sinks) == 0 {
		slog.Warn("No notification sink available, running in simulation mode")
		sinks = append(sinks, notify.LogSink{})
	}
	return sinks, stop
}

// buildJournal prefers PostgreSQL and falls back to Redis.
func buildJournal(cfg *config.Config, redisClient *redis.Client) (storage.AlertJournal, func()) {
	if cfg.Postgres.DSN != "" {
		j, err := storage.NewPostgresAlertJournal(cfg.Postgres)
		if err != nil {
			slog.Error("Alert journal disabled", "error", err)
			return nil, func() {}
		}
		return j, func() {
			if err := j.Close(); err != nil {
				slog.Error("Error closing alert journal", "error", err)
			}
		}
	}
	if redisClient != nil {
		return storage.NewRedisAlertJournal(redisClient, int64(cfg.Monitor.DedupCapacity)), func() {}
	}
	return nil, func() {}
}

// runCheck prints the effective setup and probes the feed once.
func runCheck(ctx context.Context, cfg *config.Config, src feed.Provider) int {
	fmt.Printf("Provider:          %s\n", src.Name())
	fmt.Printf("Leagues:           %v\n", cfg.Feed.Leagues)
	fmt.Printf("Market types:      %v\n", cfg.Feed.MarketTypes)
	fmt.Printf("Edge threshold:    %.1f%%\n", cfg.Monitor.EdgeThreshold*100)
	fmt.Printf("Opening interval:  %s\n", cfg.OpeningInterval())
	fmt.Printf("Live interval:     %s\n", cfg.LiveInterval())
	fmt.Printf("Telegram:          %v\n", cfg.Telegram.BotToken != "")
	fmt.Printf("Redis:             %v\n", cfg.Redis.URL != "")
	fmt.Printf("Postgres journal:  %v\n", cfg.Postgres.DSN != "")

	leagues := src.FetchLeagues(ctx)
	if len(leagues) == 0 {
		fmt.Println("Feed check FAILED: no leagues returned")
		return 1
	}
	missing := feed.CheckLeagues(leagues, cfg.Feed.Leagues)
	fmt.Printf("Feed offers %d leagues, %d configured leagues missing %v\n", len(leagues), len(missing), missing)
	return 0
}
