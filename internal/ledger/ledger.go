package ledger

import (
	"context"
	"fmt"
	"os"
	"time"

	"google.golang.org/api/option"
	sheetsv4 "google.golang.org/api/sheets/v4"
)

const sheetPayments = "Payments"

// Entry is one settled payment, journaled for bookkeeping. The journal is
// append-only and never read back; correlation state stays in memory.
type Entry struct {
	When       time.Time
	ExternalID string
	PaymentID  string
	UserID     int64
	Amount     int64
	Status     string // paid / expired
}

type Recorder interface {
	Record(ctx context.Context, e Entry) error
}

// Client journals entries to a Google Sheets spreadsheet.
type Client struct {
	srv           *sheetsv4.Service
	spreadsheetID string
}

func New(serviceAccountJSONPath, spreadsheetID string) (*Client, error) {
	if _, err := os.Stat(serviceAccountJSONPath); err != nil {
		return nil, fmt.Errorf("service account json: %w", err)
	}
	ctx := context.Background()
	srv, err := sheetsv4.NewService(ctx,
		option.WithCredentialsFile(serviceAccountJSONPath),
		option.WithScopes(sheetsv4.SpreadsheetsScope),
	)
	if err != nil {
		return nil, err
	}
	return &Client{srv: srv, spreadsheetID: spreadsheetID}, nil
}

func (c *Client) Record(ctx context.Context, e Entry) error {
	row := []interface{}{
		e.When.Format(time.RFC3339),
		e.ExternalID,
		e.PaymentID,
		e.UserID,
		e.Amount,
		e.Status,
	}
	vr := &sheetsv4.ValueRange{Values: [][]interface{}{row}}
	_, err := c.srv.Spreadsheets.Values.Append(c.spreadsheetID, sheetPayments+"!A:F", vr).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	return err
}
