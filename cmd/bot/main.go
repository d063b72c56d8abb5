package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"qris-pay-bot/internal/config"
	"qris-pay-bot/internal/ledger"
	"qris-pay-bot/internal/logging"
	"qris-pay-bot/internal/metrics"
	"qris-pay-bot/internal/payments"
	"qris-pay-bot/internal/server"
	"qris-pay-bot/internal/session"
	"qris-pay-bot/internal/tgbot"
	"qris-pay-bot/internal/webhook"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.GetLogger(cfg.LokiURL)
	metrics.Setup(cfg)

	provider, err := payments.NewProvider(cfg)
	if err != nil {
		log.Fatalf("payments: %v", err)
	}

	store := session.NewStore()
	initiator := payments.NewInitiator(provider, store, cfg.WalletAccountID, logger)

	botApp, err := tgbot.New(cfg, provider, initiator, logger)
	if err != nil {
		log.Fatalf("telegram: %v", err)
	}

	var recorder ledger.Recorder
	if cfg.SpreadsheetID != "" && cfg.GoogleServiceAccountJSON != "" {
		sheets, err := ledger.New(cfg.GoogleServiceAccountJSON, cfg.SpreadsheetID)
		if err != nil {
			log.Fatalf("ledger: %v", err)
		}
		recorder = sheets
	}

	verifier := webhook.NewVerifier(cfg.WebhookSecret)
	dispatcher := webhook.NewDispatcher(verifier, store, botApp, recorder, logger)

	httpSrv := server.New(cfg, dispatcher)

	// Start HTTP server
	go func() {
		logger.Info("HTTP listening", "addr", cfg.HTTPAddr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("http server: %v", err)
		}
	}()

	// Start Telegram
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		logger.Info("bot running", "provider", provider.Name())
		if err := botApp.Run(ctx); err != nil {
			logger.Error("bot stopped", "error", err)
			cancel()
		}
	}()

	// Graceful shutdown
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	logger.Info("shutting down...")

	cancel()
	ctxTimeout, cancel2 := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel2()
	_ = httpSrv.Shutdown(ctxTimeout)

	logger.Info("bye", "outstanding_sessions", store.Len())
}
