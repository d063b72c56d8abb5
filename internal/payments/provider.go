package payments

import (
	"context"

	"qris-pay-bot/internal/models"
)

// Provider is the external payment service. Accounts and Mutations are
// read-only admin views and must never touch session state.
type Provider interface {
	Name() string
	CreatePayment(ctx context.Context, req models.CreatePaymentRequest) (*models.Payment, error)
	Accounts(ctx context.Context) ([]models.Account, error)
	Mutations(ctx context.Context, days, limit int) ([]models.Mutation, error)
}
