package webhook_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"qris-pay-bot/internal/ledger"
	"qris-pay-bot/internal/session"
	"qris-pay-bot/internal/webhook"

	"github.com/stretchr/testify/assert"
)

type notifyCall struct {
	kind       string
	userID     int64
	externalID string
	amount     int64
}

type fakeNotifier struct {
	calls []notifyCall
	err   error
}

func (f *fakeNotifier) NotifyCompleted(ctx context.Context, userID int64, externalID string, amount int64) error {
	f.calls = append(f.calls, notifyCall{"completed", userID, externalID, amount})
	return f.err
}

func (f *fakeNotifier) NotifyExpired(ctx context.Context, userID int64, externalID string, amount int64) error {
	f.calls = append(f.calls, notifyCall{"expired", userID, externalID, amount})
	return f.err
}

type fakeRecorder struct {
	entries []ledger.Entry
}

func (f *fakeRecorder) Record(ctx context.Context, e ledger.Entry) error {
	f.entries = append(f.entries, e)
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func signedBody(t *testing.T, v *webhook.Verifier, eventType string, data map[string]interface{}) (body []byte, signature string) {
	t.Helper()
	rawData, err := json.Marshal(data)
	assert.NoError(t, err)

	body, err = json.Marshal(map[string]interface{}{"type": eventType, "data": json.RawMessage(rawData)})
	assert.NoError(t, err)

	return body, v.Sign(rawData)
}

func newDispatcher(notifier *fakeNotifier, recorder ledger.Recorder) (*webhook.Dispatcher, *webhook.Verifier, *session.Store) {
	verifier := webhook.NewVerifier("test-secret")
	store := session.NewStore()
	d := webhook.NewDispatcher(verifier, store, notifier, recorder, testLogger())
	return d, verifier, store
}

func TestDispatcher_CompletedNotifiesAndCleans(t *testing.T) {
	notifier := &fakeNotifier{}
	recorder := &fakeRecorder{}
	d, verifier, store := newDispatcher(notifier, recorder)

	store.Put(session.PaymentSession{PaymentID: "p1", ExternalID: "order-1", UserID: 42, Amount: 10_000})

	body, sig := signedBody(t, verifier, webhook.EventPaymentCompleted, map[string]interface{}{"id": "p1"})
	outcome := d.Process(context.Background(), body, sig)

	assert.Equal(t, webhook.Notified, outcome)
	assert.Equal(t, []notifyCall{{"completed", 42, "order-1", 10_000}}, notifier.calls)

	_, ok := store.Get("p1")
	assert.False(t, ok)

	assert.Len(t, recorder.entries, 1)
	assert.Equal(t, "paid", recorder.entries[0].Status)
	assert.Equal(t, "order-1", recorder.entries[0].ExternalID)
}

func TestDispatcher_ExpiredNotifiesAndCleans(t *testing.T) {
	notifier := &fakeNotifier{}
	d, verifier, store := newDispatcher(notifier, nil)

	store.Put(session.PaymentSession{PaymentID: "p1", ExternalID: "order-1", UserID: 42, Amount: 10_000})

	body, sig := signedBody(t, verifier, webhook.EventPaymentExpired, map[string]interface{}{"id": "p1"})
	outcome := d.Process(context.Background(), body, sig)

	assert.Equal(t, webhook.Notified, outcome)
	assert.Equal(t, "expired", notifier.calls[0].kind)

	_, ok := store.Get("p1")
	assert.False(t, ok)
}

func TestDispatcher_InvalidSignatureLeavesStoreUntouched(t *testing.T) {
	notifier := &fakeNotifier{}
	d, verifier, store := newDispatcher(notifier, nil)

	store.Put(session.PaymentSession{PaymentID: "p1", ExternalID: "order-1", UserID: 42, Amount: 10_000})

	body, _ := signedBody(t, verifier, webhook.EventPaymentCompleted, map[string]interface{}{"id": "p1"})
	outcome := d.Process(context.Background(), body, "0000000000000000000000000000000000000000000000000000000000000000")

	assert.Equal(t, webhook.Rejected, outcome)
	assert.Empty(t, notifier.calls)

	_, ok := store.Get("p1")
	assert.True(t, ok)
}

func TestDispatcher_UnknownPaymentIgnored(t *testing.T) {
	notifier := &fakeNotifier{}
	d, verifier, _ := newDispatcher(notifier, nil)

	body, sig := signedBody(t, verifier, webhook.EventPaymentCompleted, map[string]interface{}{"id": "nope"})
	outcome := d.Process(context.Background(), body, sig)

	assert.Equal(t, webhook.Ignored, outcome)
	assert.Empty(t, notifier.calls)
}

func TestDispatcher_NonTerminalTypeKeepsSession(t *testing.T) {
	notifier := &fakeNotifier{}
	d, verifier, store := newDispatcher(notifier, nil)

	store.Put(session.PaymentSession{PaymentID: "p1", ExternalID: "order-1", UserID: 42, Amount: 10_000})

	body, sig := signedBody(t, verifier, "payment.pending", map[string]interface{}{"id": "p1"})
	outcome := d.Process(context.Background(), body, sig)

	assert.Equal(t, webhook.Ignored, outcome)
	assert.Empty(t, notifier.calls)

	_, ok := store.Get("p1")
	assert.True(t, ok)
}

func TestDispatcher_PaymentIDFieldFallback(t *testing.T) {
	notifier := &fakeNotifier{}
	d, verifier, store := newDispatcher(notifier, nil)

	store.Put(session.PaymentSession{PaymentID: "p1", ExternalID: "order-1", UserID: 42, Amount: 10_000})

	// The event references the payment under paymentId with an unrelated id.
	body, sig := signedBody(t, verifier, webhook.EventPaymentCompleted,
		map[string]interface{}{"id": "evt-1", "paymentId": "p1"})
	outcome := d.Process(context.Background(), body, sig)

	assert.Equal(t, webhook.Notified, outcome)
	assert.Len(t, notifier.calls, 1)
}

func TestDispatcher_ExternalIDFallback(t *testing.T) {
	notifier := &fakeNotifier{}
	d, verifier, store := newDispatcher(notifier, nil)

	store.Put(session.PaymentSession{PaymentID: "p1", ExternalID: "order-1", UserID: 42, Amount: 10_000})

	body, sig := signedBody(t, verifier, webhook.EventPaymentCompleted,
		map[string]interface{}{"id": "order-1"})
	outcome := d.Process(context.Background(), body, sig)

	assert.Equal(t, webhook.Notified, outcome)

	_, ok := store.Get("p1")
	assert.False(t, ok)
}

func TestDispatcher_CleansUpEvenWhenNotifyFails(t *testing.T) {
	notifier := &fakeNotifier{err: errors.New("telegram down")}
	d, verifier, store := newDispatcher(notifier, nil)

	store.Put(session.PaymentSession{PaymentID: "p1", ExternalID: "order-1", UserID: 42, Amount: 10_000})

	body, sig := signedBody(t, verifier, webhook.EventPaymentCompleted, map[string]interface{}{"id": "p1"})
	outcome := d.Process(context.Background(), body, sig)

	// Bounded memory wins: the session is gone despite the delivery error.
	assert.Equal(t, webhook.Notified, outcome)
	_, ok := store.Get("p1")
	assert.False(t, ok)
}

func TestDispatcher_DuplicateTerminalCallback(t *testing.T) {
	notifier := &fakeNotifier{}
	d, verifier, store := newDispatcher(notifier, nil)

	store.Put(session.PaymentSession{PaymentID: "p1", ExternalID: "order-1", UserID: 42, Amount: 10_000})

	body, sig := signedBody(t, verifier, webhook.EventPaymentCompleted, map[string]interface{}{"id": "p1"})

	first := d.Process(context.Background(), body, sig)
	second := d.Process(context.Background(), body, sig)

	assert.Equal(t, webhook.Notified, first)
	assert.Equal(t, webhook.Ignored, second)
	assert.Len(t, notifier.calls, 1)

	_, ok := store.Get("p1")
	assert.False(t, ok)
}

func TestDispatcher_UnparseableBodyRejected(t *testing.T) {
	notifier := &fakeNotifier{}
	d, _, _ := newDispatcher(notifier, nil)

	for _, body := range []string{"", "not json", `{"type":"payment.completed"}`} {
		t.Run(fmt.Sprintf("%q", body), func(t *testing.T) {
			outcome := d.Process(context.Background(), []byte(body), "deadbeef")
			assert.Equal(t, webhook.Rejected, outcome)
		})
	}
	assert.Empty(t, notifier.calls)
}
