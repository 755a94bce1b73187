// Command watcher alerts a Telegram chat about SPL tokens received by one
// Solana address.
//
// Configuration comes from the environment (and an optional .env file):
//
//	HELIUS_API_KEY        Helius API key (required)
//	WATCH_SOLANA_ADDRESS  address to watch (required)
//	TELEGRAM_BOT_TOKEN    bot token (required)
//	TELEGRAM_CHAT_ID      target chat; discovered from getUpdates when unset
//
// See internal/config for the optional settings.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"spl-transfer-watch/internal/alert"
	"spl-transfer-watch/internal/config"
	"spl-transfer-watch/internal/observability"
	"spl-transfer-watch/internal/solana"
	"spl-transfer-watch/internal/telegram"
	"spl-transfer-watch/internal/watcher"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger, err := config.NewLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	done := make(chan struct{})

	go func() {
		select {
		case sig := <-sigCh:
			logger.Info("received signal, shutting down", zap.Stringer("signal", sig))
			cancel()
		case <-done:
			return
		}

		// Wait for second signal for immediate shutdown
		select {
		case sig := <-sigCh:
			logger.Warn("received second signal, forcing exit", zap.Stringer("signal", sig))
			os.Exit(1)
		case <-time.After(shutdownTimeout):
			logger.Warn("graceful shutdown timed out, forcing exit", zap.Duration("timeout", shutdownTimeout))
			os.Exit(1)
		case <-done:
		}
	}()

	err = run(ctx, cfg, logger)
	close(done)

	if err != nil {
		logger.Fatal("watcher failed", zap.Error(err))
	}
	logger.Info("shutdown complete")
}

func run(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	logger.Info("starting watcher", zap.String("config", cfg.Redacted()))
	if !cfg.WatchedAddress.IsOnCurve() {
		logger.Warn("watched address is off-curve (program-derived)",
			zap.Stringer("address", cfg.WatchedAddress))
	}

	tg, err := telegram.NewClient(cfg.TelegramBotToken,
		telegram.WithAPIURL(cfg.TelegramAPIURL),
		telegram.WithHTTPClient(&http.Client{Timeout: cfg.HTTPTimeout}),
	)
	if err != nil {
		return fmt.Errorf("telegram bot: %w", err)
	}
	logger.Info("telegram bot authorized", zap.String("username", tg.Username()))

	chatID := cfg.TelegramChatID
	if chatID == "" {
		chatID, err = tg.ResolveChatID(ctx)
		if err != nil {
			return fmt.Errorf("resolve telegram chat: %w", err)
		}
		logger.Info("telegram chat discovered", zap.String("chat_id", chatID))
	}

	rpc := solana.NewHTTPClient(cfg.RPCURL, solana.WithTimeout(cfg.HTTPTimeout))
	enhanced := solana.NewEnhancedClient(cfg.TxAPIURL, solana.WithTimeout(cfg.HTTPTimeout))

	notifier := alert.NewNotifier(alert.NotifierOptions{
		Sender:      tg,
		ChatID:      chatID,
		Threshold:   &cfg.Threshold,
		ExplorerURL: cfg.ExplorerURL,
		Logger:      logger,
	})

	resolver := watcher.NewResolver(watcher.ResolverOptions{
		Transactions:   enhanced,
		Balances:       watcher.NewBalanceOracle(rpc),
		Notifier:       notifier,
		WatchedAddress: cfg.WatchedAddress.String(),
		Logger:         logger,
	})

	dispatcher := watcher.NewDispatcher(watcher.DispatcherOptions{
		Handler:        resolver,
		MaxConcurrency: cfg.MaxConcurrentResolutions,
		Logger:         logger,
	})

	manager := watcher.NewSubscriptionManager(watcher.SubscriptionManagerOptions{
		Dial:           watcher.WSDialer(cfg.WSURL, wsConfig(cfg.WSPingInterval)),
		Handler:        dispatcher,
		WatchedAddress: cfg.WatchedAddress.String(),
		Commitment:     solana.CommitmentConfirmed,
		ReconnectDelay: cfg.ReconnectDelay,
		Logger:         logger,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return manager.Run(gctx)
	})
	if cfg.MetricsAddr != "" {
		g.Go(func() error {
			serveMetrics(gctx, cfg.MetricsAddr, logger)
			return nil
		})
	}

	err = g.Wait()

	if n := dispatcher.InFlight(); n > 0 {
		logger.Info("waiting for in-flight resolutions", zap.Int64("count", n))
	}
	dispatcher.Wait()

	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// wsConfig derives connection timeouts from the keepalive interval. Without
// pings a quiet address must not look like a dead link, so reads never time out.
func wsConfig(pingInterval time.Duration) *solana.WSClientConfig {
	cfg := solana.DefaultWSConfig()
	cfg.PingInterval = pingInterval
	if pingInterval <= 0 {
		cfg.ReadTimeout = 0
	} else if cfg.ReadTimeout < 2*pingInterval {
		cfg.ReadTimeout = 2 * pingInterval
	}
	return &cfg
}

// serveMetrics runs the Prometheus and health endpoints until ctx is done.
// Listener errors are logged only; the watcher keeps running without metrics.
func serveMetrics(ctx context.Context, addr string, logger *zap.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", observability.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	logger.Info("starting metrics server", zap.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("metrics server error", zap.Error(err))
	}
}
