package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bullsignals/config"
	"bullsignals/internal/api"
	"bullsignals/internal/engine"
	"bullsignals/internal/features"
	"bullsignals/internal/logger"
	"bullsignals/internal/marketdata"
	"bullsignals/internal/marketdata/kucoin"
	"bullsignals/internal/marketdata/pricefeed"
	"bullsignals/internal/metrics"
	"bullsignals/internal/model"
	"bullsignals/internal/notification"
	"bullsignals/internal/oracle"
	"bullsignals/internal/store/redis"
	"bullsignals/internal/store/sqlite"
	"bullsignals/internal/supervisor"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	cfg := config.Load()
	slogger := logger.Init("signalengine", logger.ParseLevel(cfg.LogLevel))
	slogger.Info("starting signal engine",
		"symbol", cfg.Symbol, "market_symbol", cfg.MarketSymbol,
		"timeframe", cfg.Timeframe, "threshold", cfg.Threshold)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		slogger.Info("shutdown signal received")
		cancel()
	}()

	// Stores.
	store, err := redis.New(redis.Config{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	if err != nil {
		log.Fatalf("[signalengine] redis init failed: %v", err)
	}
	defer store.Close()

	journal, err := sqlite.New(sqlite.Config{DBPath: cfg.SQLitePath})
	if err != nil {
		log.Fatalf("[signalengine] sqlite init failed: %v", err)
	}
	defer journal.Close()

	// Market data: REST client plus an optional live feed fallback.
	rest := kucoin.New("")
	var source model.MarketDataSource = rest
	if cfg.PriceFeedEnabled {
		feed := pricefeed.New(cfg.MarketSymbol, "")
		go feed.Run(ctx)
		source = marketdata.WithFallback(rest, feed, slogger)
	}

	// Notifications fan out to every configured backend.
	notifiers := notification.Multi{notification.NewLogNotifier()}
	if cfg.TelegramToken != "" && cfg.TelegramChatID != "" {
		notifiers = append(notifiers, notification.NewTelegramNotifier(cfg.TelegramToken, cfg.TelegramChatID))
		slogger.Info("telegram notifications enabled")
	}
	if cfg.WebhookURL != "" {
		notifiers = append(notifiers, notification.NewWebhookNotifier(cfg.WebhookURL))
		slogger.Info("webhook notifications enabled")
	}

	// Observability.
	prom := metrics.NewMetrics()
	health := metrics.NewHealthStatus()
	health.CheckRedis(ctx, store.Client())
	health.CheckSQLite(ctx, journal.DB())
	health.StartLivenessChecker(ctx, store.Client(), journal.DB(), 15*time.Second)
	metricsSrv := metrics.NewServer(cfg.MetricsAddr, health)
	metricsSrv.Start()

	// Request path.
	featureCfg := features.DefaultConfig()
	featureCfg.CandleLimit = cfg.CandleLimit
	builder := features.NewBuilder(source, featureCfg)
	orc := oracle.New(cfg.OracleBaseURL)

	eng := engine.New(engine.Config{
		Symbol:       cfg.Symbol,
		MarketSymbol: cfg.MarketSymbol,
		Timeframe:    cfg.Timeframe,
		Interval:     kucoin.IntervalFromTimeframe(cfg.Timeframe),
		Threshold:    cfg.Threshold,
		TPPct:        cfg.TPPct,
		SLPct:        cfg.SLPct,
		OracleURL:    cfg.OracleBaseURL,
		AskCooldown:  cfg.AskCooldown,
	}, builder, source, orc, store, notifiers, prom, slogger)

	// Close loop.
	sup := supervisor.New(supervisor.Config{
		Symbol:       cfg.Symbol,
		MarketSymbol: cfg.MarketSymbol,
		Interval:     cfg.SupervisorInterval,
	}, source, store, journal, notifiers, prom, slogger)
	sup.AfterTick(func() { health.SetLastTickAt(time.Now()) })
	go sup.Run(ctx)

	// Public API.
	handler := api.NewHandler(eng, store, cfg.Symbol, slogger)
	apiSrv := &http.Server{
		Addr:         cfg.APIAddr,
		Handler:      handler.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
	}
	go func() {
		slogger.Info("api server listening", "addr", cfg.APIAddr)
		if err := apiSrv.ListenAndServe(); err != http.ErrServerClosed {
			slogger.Error("api server error", "error", err)
			cancel()
		}
	}()

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := apiSrv.Shutdown(shutdownCtx); err != nil {
		slogger.Error("api shutdown failed", "error", err)
	}
	metricsSrv.Stop(shutdownCtx)
	slogger.Info("signal engine stopped")
}
