package payments

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"qris-pay-bot/internal/models"
	"qris-pay-bot/internal/session"

	"github.com/VictoriaMetrics/metrics"
	"github.com/google/uuid"
)

var (
	paymentsCreatedCounter = metrics.GetOrCreateCounter(`payments_created_total{result="success"}`)
	paymentsFailedCounter  = metrics.GetOrCreateCounter(`payments_created_total{result="failed"}`)
)

// Initiator creates a payment with the provider and registers the session
// that the webhook dispatcher will later correlate against.
type Initiator struct {
	provider        Provider
	store           *session.Store
	walletAccountID string
	logger          *slog.Logger
}

func NewInitiator(provider Provider, store *session.Store, walletAccountID string, logger *slog.Logger) *Initiator {
	return &Initiator{provider: provider, store: store, walletAccountID: walletAccountID, logger: logger}
}

// Create registers the session before returning, so the webhook can never
// arrive ahead of the correlation entry. On provider failure nothing is
// registered and the error message is fit for showing to the user.
func (i *Initiator) Create(ctx context.Context, userID int64, amount int64, customerName string) (*models.Payment, error) {
	externalID := newExternalID()

	payment, err := i.provider.CreatePayment(ctx, models.CreatePaymentRequest{
		WalletAccountID: i.walletAccountID,
		Amount:          amount,
		ExternalID:      externalID,
		CustomerName:    customerName,
	})
	if err != nil {
		i.logger.ErrorContext(ctx, "payment creation failed", "userId", userID, "amount", amount, "error", err)
		paymentsFailedCounter.Inc()
		return nil, err
	}

	i.store.Put(session.PaymentSession{
		PaymentID:  payment.ID,
		ExternalID: externalID,
		UserID:     userID,
		Amount:     amount,
	})
	paymentsCreatedCounter.Inc()

	i.logger.InfoContext(ctx, "payment created",
		"paymentId", payment.ID, "externalId", externalID, "userId", userID, "amount", amount)

	return payment, nil
}

func newExternalID() string {
	suffix := strings.SplitN(uuid.NewString(), "-", 2)[0]
	return fmt.Sprintf("order-%d-%s", time.Now().UnixMilli(), suffix)
}
