package stub

import (
	"context"
	"fmt"
	"time"

	"qris-pay-bot/internal/models"

	"github.com/google/uuid"
)

// Stub provider for local runs without Mutasiku credentials. Payments get a
// synthetic QRIS payload so the local QR-render path is exercised; webhooks
// have to be fired by hand against /webhook.
type Provider struct{}

func New() *Provider { return &Provider{} }

func (p *Provider) Name() string { return "stub" }

func (p *Provider) CreatePayment(ctx context.Context, req models.CreatePaymentRequest) (*models.Payment, error) {
	id := "stub-" + uuid.NewString()
	return &models.Payment{
		ID:           id,
		ExternalID:   req.ExternalID,
		TotalAmount:  req.Amount,
		ExpiresAt:    time.Now().Add(15 * time.Minute),
		ProviderName: "STUB",
		QRPayload:    fmt.Sprintf("00020101021226stub%s5204%d6304", req.ExternalID, req.Amount),
	}, nil
}

func (p *Provider) Accounts(ctx context.Context) ([]models.Account, error) {
	return []models.Account{
		{ID: "stub-account", Name: "Stub Wallet", ProviderName: "STUB", ProviderCode: "STUB", Balance: 1_000_000, IsActive: true},
	}, nil
}

func (p *Provider) Mutations(ctx context.Context, days, limit int) ([]models.Mutation, error) {
	return []models.Mutation{
		{ID: "stub-mutation", Type: "CREDIT", Amount: 10_000, Description: "stub credit", CreatedAt: time.Now()},
	}, nil
}
