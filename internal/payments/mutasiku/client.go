package mutasiku

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"qris-pay-bot/internal/models"

	"github.com/pkg/errors"
)

const (
	defaultBaseURL = "https://api.mutasiku.co.id"
	requestTimeout = 15 * time.Second
)

// Client talks to the Mutasiku REST API.
type Client struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

func New(apiKey, baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		apiKey:  apiKey,
		baseURL: baseURL,
		http:    &http.Client{Timeout: requestTimeout},
	}
}

func (c *Client) Name() string { return "mutasiku" }

type apiResponse struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type paymentData struct {
	ID          string `json:"id"`
	ExpiresAt   string `json:"expiresAt"`
	TotalAmount int64  `json:"totalAmount"`
	Provider    struct {
		Name string `json:"name"`
		Code string `json:"code"`
	} `json:"provider"`
	QrisImage  string `json:"qrisImage"`
	QrisString string `json:"qrisString"`
}

type accountData struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Balance  int64  `json:"balance"`
	IsActive bool   `json:"isActive"`
	Provider struct {
		Name string `json:"name"`
		Code string `json:"code"`
	} `json:"provider"`
}

type mutationData struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	Amount      int64     `json:"amount"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (c *Client) CreatePayment(ctx context.Context, req models.CreatePaymentRequest) (*models.Payment, error) {
	body := map[string]interface{}{
		"type":            "QRIS-DYNAMIC",
		"walletAccountId": req.WalletAccountID,
		"amount":          req.Amount,
		"externalId":      req.ExternalID,
		"customerName":    req.CustomerName,
	}

	var data paymentData
	if err := c.do(ctx, http.MethodPost, "/api/v1/payments/qris", body, &data); err != nil {
		return nil, err
	}

	expiresAt, err := time.Parse(time.RFC3339, data.ExpiresAt)
	if err != nil {
		// Some provider accounts return expiry without a zone.
		expiresAt, _ = time.Parse("2006-01-02T15:04:05", data.ExpiresAt)
	}

	return &models.Payment{
		ID:           data.ID,
		ExternalID:   req.ExternalID,
		TotalAmount:  data.TotalAmount,
		ExpiresAt:    expiresAt,
		ProviderName: data.Provider.Name,
		QRImageURL:   data.QrisImage,
		QRPayload:    data.QrisString,
	}, nil
}

func (c *Client) Accounts(ctx context.Context) ([]models.Account, error) {
	var data []accountData
	if err := c.do(ctx, http.MethodGet, "/api/v1/accounts", nil, &data); err != nil {
		return nil, err
	}

	out := make([]models.Account, 0, len(data))
	for _, a := range data {
		out = append(out, models.Account{
			ID:           a.ID,
			Name:         a.Name,
			ProviderName: a.Provider.Name,
			ProviderCode: a.Provider.Code,
			Balance:      a.Balance,
			IsActive:     a.IsActive,
		})
	}
	return out, nil
}

func (c *Client) Mutations(ctx context.Context, days, limit int) ([]models.Mutation, error) {
	path := fmt.Sprintf("/api/v1/mutasi?days=%d&limit=%d", days, limit)

	var data []mutationData
	if err := c.do(ctx, http.MethodGet, path, nil, &data); err != nil {
		return nil, err
	}

	out := make([]models.Mutation, 0, len(data))
	for _, m := range data {
		out = append(out, models.Mutation{
			ID:          m.ID,
			Type:        m.Type,
			Amount:      m.Amount,
			Description: m.Description,
			CreatedAt:   m.CreatedAt,
		})
	}
	return out, nil
}

// do runs one API call and unmarshals the data member of a success response
// into out. A non-success status surfaces the provider's message.
func (c *Client) do(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	var reqBody io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "marshal request")
		}
		reqBody = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return errors.Wrap(err, "build request")
	}
	req.Header.Set("X-Api-Key", c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrap(err, "mutasiku request")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(err, "read response")
	}

	var apiResp apiResponse
	if err := json.Unmarshal(raw, &apiResp); err != nil {
		return errors.Wrapf(err, "decode response (http %d)", resp.StatusCode)
	}

	if apiResp.Status != "success" {
		msg := apiResp.Message
		if msg == "" {
			msg = fmt.Sprintf("http %d", resp.StatusCode)
		}
		return errors.Errorf("mutasiku: %s", msg)
	}

	if out != nil && len(apiResp.Data) > 0 {
		if err := json.Unmarshal(apiResp.Data, out); err != nil {
			return errors.Wrap(err, "decode data")
		}
	}
	return nil
}
