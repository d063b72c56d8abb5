package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	TelegramToken string

	PaymentProvider string
	APIKey          string
	WebhookSecret   string
	WalletAccountID string
	ProviderBaseURL string

	AdminTGIDs map[int64]bool

	HTTPAddr string

	LokiURL             string
	MetricsPushURL      string
	MetricsPushInterval int
	MetricsCommonLabels string

	SpreadsheetID            string
	GoogleServiceAccountJSON string
}

func FromEnv() (Config, error) {
	var c Config
	c.TelegramToken = strings.TrimSpace(os.Getenv("TELEGRAM_BOT_TOKEN"))

	c.PaymentProvider = strings.TrimSpace(os.Getenv("PAYMENT_PROVIDER"))
	if c.PaymentProvider == "" {
		c.PaymentProvider = "mutasiku"
	}
	c.APIKey = strings.TrimSpace(os.Getenv("MUTASIKU_API_KEY"))
	c.WebhookSecret = strings.TrimSpace(os.Getenv("MUTASIKU_WEBHOOK_SECRET"))
	c.WalletAccountID = strings.TrimSpace(os.Getenv("MUTASIKU_WALLET_ID"))
	c.ProviderBaseURL = strings.TrimRight(strings.TrimSpace(os.Getenv("MUTASIKU_BASE_URL")), "/")

	c.HTTPAddr = strings.TrimSpace(os.Getenv("HTTP_ADDR"))
	if c.HTTPAddr == "" {
		c.HTTPAddr = ":8080"
	}

	c.LokiURL = strings.TrimSpace(os.Getenv("LOKI_URL"))
	c.MetricsPushURL = strings.TrimSpace(os.Getenv("METRICS_PUSH_URL"))
	c.MetricsPushInterval = envInt("METRICS_PUSH_INTERVAL_MS", 10_000)
	c.MetricsCommonLabels = strings.TrimSpace(os.Getenv("METRICS_COMMON_LABELS"))

	c.SpreadsheetID = strings.TrimSpace(os.Getenv("GOOGLE_SHEETS_SPREADSHEET_ID"))
	c.GoogleServiceAccountJSON = strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))

	if c.TelegramToken == "" {
		return c, fmt.Errorf("TELEGRAM_BOT_TOKEN is empty")
	}
	if c.WebhookSecret == "" {
		return c, fmt.Errorf("MUTASIKU_WEBHOOK_SECRET is empty")
	}
	if c.PaymentProvider == "mutasiku" {
		if c.APIKey == "" {
			return c, fmt.Errorf("MUTASIKU_API_KEY is empty")
		}
		if c.WalletAccountID == "" {
			return c, fmt.Errorf("MUTASIKU_WALLET_ID is empty")
		}
	}

	c.AdminTGIDs = parseAdminIDs(os.Getenv("ADMIN_TG_IDS"))

	return c, nil
}

func envInt(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}

func parseAdminIDs(raw string) map[int64]bool {
	m := map[int64]bool{}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return m
	}
	parts := strings.Split(raw, ",")
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		v, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			continue
		}
		m[v] = true
	}
	return m
}
