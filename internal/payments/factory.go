package payments

import (
	"fmt"

	"qris-pay-bot/internal/config"
	"qris-pay-bot/internal/payments/mutasiku"
	"qris-pay-bot/internal/payments/stub"
)

func NewProvider(cfg config.Config) (Provider, error) {
	switch cfg.PaymentProvider {
	case "mutasiku":
		return mutasiku.New(cfg.APIKey, cfg.ProviderBaseURL), nil
	case "stub":
		return stub.New(), nil
	default:
		return nil, fmt.Errorf("unknown payment provider: %s", cfg.PaymentProvider)
	}
}
