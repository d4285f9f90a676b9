package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"CandleKeeper/internal/checkpoint"
	"CandleKeeper/internal/collector"
	"CandleKeeper/internal/config"
	"CandleKeeper/internal/metrics"
	"CandleKeeper/internal/notifier"
	"CandleKeeper/internal/recorder"
	"CandleKeeper/internal/scheduler"
	"CandleKeeper/internal/server"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("[INFO] CandleKeeper starting...")

	if err := config.LoadEnvFile(".env"); err != nil {
		log.Printf("[WARN] %v", err)
	}

	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("[FATAL] load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[FATAL] config validation: %v", err)
	}

	symbols := cfg.DataSource.Symbols
	if cfg.DataSource.SymbolsFile != "" {
		fromFile, err := collector.LoadSymbols(cfg.DataSource.SymbolsFile)
		if err != nil {
			log.Fatalf("[FATAL] load symbols: %v", err)
		}
		symbols = collector.MergeSymbols(symbols, fromFile)
	}
	if len(symbols) == 0 {
		log.Fatal("[FATAL] no symbols configured")
	}

	// Init fetcher
	var fetcher collector.Fetcher
	switch cfg.DataSource.Provider {
	case "polygon":
		fetcher = collector.NewPolygonFetcher(cfg.DataSource.BaseURL, cfg.DataSource.APIKey, cfg.Proxy)
	default:
		fetcher = collector.NewYahooFetcher(cfg.DataSource.BaseURL, cfg.Proxy)
	}
	log.Printf("[INFO] data source: %s, %d symbols", fetcher.Name(), len(symbols))

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Init recorder
	var rec recorder.Recorder
	switch cfg.Database.Driver {
	case "sqlite":
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			log.Printf("[WARN] init sqlite recorder failed, using noop: %v", err)
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
		}
	case "postgres":
		pr, err := recorder.NewPostgresRecorder(ctx, cfg.Database.PostgresURL)
		if err != nil {
			log.Printf("[WARN] init postgres recorder failed, using noop: %v", err)
			rec = recorder.NewNoopRecorder()
		} else {
			rec = pr
		}
	default:
		rec = recorder.NewNoopRecorder()
	}
	defer rec.Close()

	if os.Getenv("RESET_TABLE") == "true" {
		log.Println("[WARN] RESET_TABLE enabled, clearing stored candlesticks")
		if err := rec.ResetTable(ctx); err != nil {
			log.Fatalf("[FATAL] reset table: %v", err)
		}
	}

	// Metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	// Checkpoint state
	cp, err := checkpoint.NewManager(cfg.Schedule.StateFile)
	if err != nil {
		log.Fatalf("[FATAL] load ingest state: %v", err)
	}

	// Init notifier
	var n notifier.Notifier = notifier.NoopNotifier{}
	var tn *notifier.TelegramNotifier
	if cfg.TelegramEnabled() {
		tn = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
		n = tn
	}

	// Init scheduler
	sched := scheduler.NewScheduler(ctx, collector.NewCollector(fetcher), rec, n, scheduler.Options{
		Symbols:        symbols,
		Range:          cfg.DataSource.Range,
		Interval:       cfg.DataSource.Interval,
		DropInProgress: cfg.DataSource.DropInProgress,
	})
	sched.Metrics = m
	sched.Checkpoint = cp
	if err := sched.Register(cfg.Schedule.IngestCron); err != nil {
		log.Fatalf("[FATAL] register cron tasks: %v", err)
	}
	sched.Start()
	defer sched.Stop()

	// Start Telegram polling
	if tn != nil {
		go tn.StartPolling(ctx, sched.HandleCommand)
		log.Println("[INFO] Telegram polling started")
	}

	// Admin server
	admin := server.NewServer(cfg.Server.Addr, server.Deps{
		Candles:  rec,
		Gatherer: reg,
		Status:   sched.LastReport,
	})
	admin.Start()

	// Optional: run immediately on start
	if os.Getenv("RUN_ON_START") == "true" {
		log.Println("[INFO] RUN_ON_START enabled, executing ingest now")
		go sched.RunNow()
	}

	log.Println("[INFO] CandleKeeper is running. Press Ctrl+C to stop.")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[INFO] shutdown signal received, stopping...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := admin.Stop(shutdownCtx); err != nil {
		log.Printf("[WARN] admin server shutdown: %v", err)
	}
	log.Println("[INFO] CandleKeeper stopped")
}
