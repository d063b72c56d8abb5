package models

import "time"

// Payment is the display payload returned when a QRIS payment is created.
type Payment struct {
	ID           string
	ExternalID   string
	TotalAmount  int64
	ExpiresAt    time.Time
	ProviderName string

	// QRImageURL is the provider-hosted QR image, when the provider hosts
	// one. QRPayload is the raw QRIS string for local rendering otherwise.
	QRImageURL string
	QRPayload  string
}

type Account struct {
	ID           string
	Name         string
	ProviderName string
	ProviderCode string
	Balance      int64
	IsActive     bool
}

type Mutation struct {
	ID          string
	Type        string // CREDIT / DEBIT
	Amount      int64
	Description string
	CreatedAt   time.Time
}

type CreatePaymentRequest struct {
	WalletAccountID string
	Amount          int64
	ExternalID      string
	CustomerName    string
}
