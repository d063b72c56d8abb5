package server

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"qris-pay-bot/internal/config"
	"qris-pay-bot/internal/webhook"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const (
	requestTimeout    = 30 * time.Second
	signatureHeader   = "X-Webhook-Signature"
	maxWebhookBodyLen = 1 << 20
)

func New(cfg config.Config, dispatcher *webhook.Dispatcher) *http.Server {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))

	r.Post("/webhook", func(w http.ResponseWriter, req *http.Request) {
		body, err := io.ReadAll(io.LimitReader(req.Body, maxWebhookBodyLen))
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid signature"})
			return
		}

		outcome := dispatcher.Process(req.Context(), body, req.Header.Get(signatureHeader))
		if outcome == webhook.Rejected {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid signature"})
			return
		}

		// Accepted either way: correlation misses and unhandled types must
		// not trigger provider retries or reveal which payments are live.
		writeJSON(w, http.StatusOK, map[string]bool{"received": true})
	})

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	return &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
