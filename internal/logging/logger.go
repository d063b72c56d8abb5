package logging

import (
	"log/slog"
	"os"

	"github.com/grafana/loki-client-go/loki"
	slogloki "github.com/samber/slog-loki/v3"
)

// GetLogger returns a JSON logger on stdout, or a Loki-backed logger when a
// remote URL is configured.
func GetLogger(lokiURL string) *slog.Logger {
	if lokiURL == "" {
		return localLogger()
	}
	return remoteLogger(lokiURL)
}

func localLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, nil))
}

func remoteLogger(url string) *slog.Logger {
	lokiConfig, _ := loki.NewDefaultConfig(url)
	client, _ := loki.New(lokiConfig)

	return slog.New(slogloki.Option{
		Level:  slog.LevelInfo,
		Client: client,
	}.NewLokiHandler()).With("service", "qris-pay-bot")
}
