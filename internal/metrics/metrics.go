package metrics

import (
	"log"
	"time"

	"qris-pay-bot/internal/config"

	"github.com/VictoriaMetrics/metrics"
)

// Setup starts pushing process metrics to the configured endpoint. A no-op
// when no push URL is set; counters still work and simply stay local.
func Setup(cfg config.Config) {
	if cfg.MetricsPushURL == "" {
		return
	}

	interval := time.Duration(cfg.MetricsPushInterval) * time.Millisecond
	if err := metrics.InitPush(cfg.MetricsPushURL, interval, cfg.MetricsCommonLabels, true); err != nil {
		log.Printf("Error initializing metrics push: %v", err)
	}
}
