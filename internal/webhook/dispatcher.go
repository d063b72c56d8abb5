package webhook

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"qris-pay-bot/internal/ledger"
	"qris-pay-bot/internal/session"

	"github.com/VictoriaMetrics/metrics"
)

const (
	EventPaymentCompleted = "payment.completed"
	EventPaymentExpired   = "payment.expired"
)

// Outcome of handling one inbound callback.
type Outcome int

const (
	// Rejected means signature verification failed; the only outcome that
	// turns into a non-200 response.
	Rejected Outcome = iota
	// Ignored means the callback was authentic but produced no
	// notification: no matching session, or a non-terminal event type.
	Ignored
	// Notified means a terminal event reached its user and the session was
	// cleaned up.
	Notified
)

var (
	callbacksRejectedCounter  = metrics.GetOrCreateCounter(`webhook_callbacks_total{result="rejected"}`)
	callbacksNoSessionCounter = metrics.GetOrCreateCounter(`webhook_callbacks_total{result="no_session"}`)
	callbacksUnhandledCounter = metrics.GetOrCreateCounter(`webhook_callbacks_total{result="unhandled_type"}`)
	callbacksNotifiedCounter  = metrics.GetOrCreateCounter(`webhook_callbacks_total{result="notified"}`)
	callbacksNotifyErrCounter = metrics.GetOrCreateCounter(`webhook_notify_errors_total`)
	callbacksRecordErrCounter = metrics.GetOrCreateCounter(`webhook_ledger_errors_total`)
)

// Notifier delivers a payment outcome to the user who originated it.
type Notifier interface {
	NotifyCompleted(ctx context.Context, userID int64, externalID string, amount int64) error
	NotifyExpired(ctx context.Context, userID int64, externalID string, amount int64) error
}

type envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type eventData struct {
	ID        string `json:"id"`
	PaymentID string `json:"paymentId"`
}

// Dispatcher runs the webhook pipeline: verify the signature, correlate the
// event to a session, notify the user, and clean the session up on terminal
// events. Verification happens strictly before any store access so an
// unauthenticated caller can never probe which payments are live.
type Dispatcher struct {
	verifier *Verifier
	store    *session.Store
	notifier Notifier
	recorder ledger.Recorder
	logger   *slog.Logger
}

func NewDispatcher(verifier *Verifier, store *session.Store, notifier Notifier, recorder ledger.Recorder, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		verifier: verifier,
		store:    store,
		notifier: notifier,
		recorder: recorder,
		logger:   logger,
	}
}

// Process handles one raw callback body with the signature taken from the
// request header. Everything past verification is absorbed into a 200-class
// outcome: the provider's only recovery mechanism is retry-on-non-200, and
// replaying an already-processed terminal event is not a failure.
func (d *Dispatcher) Process(ctx context.Context, body []byte, signature string) Outcome {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil || len(env.Data) == 0 {
		// Nothing authenticated to accept.
		callbacksRejectedCounter.Inc()
		return Rejected
	}

	if !d.verifier.Verify(env.Data, signature) {
		d.logger.WarnContext(ctx, "webhook signature verification failed")
		callbacksRejectedCounter.Inc()
		return Rejected
	}

	var data eventData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		d.logger.WarnContext(ctx, "webhook data not an object", "error", err)
		callbacksUnhandledCounter.Inc()
		return Ignored
	}

	d.logger.InfoContext(ctx, "webhook received", "type", env.Type, "id", data.ID)

	sess, ok := d.correlate(data)
	if !ok {
		// Legitimately happens for payments this process did not originate
		// or for retries after cleanup.
		d.logger.InfoContext(ctx, "no session for webhook", "id", data.ID, "paymentId", data.PaymentID)
		callbacksNoSessionCounter.Inc()
		return Ignored
	}

	switch env.Type {
	case EventPaymentCompleted:
		d.deliver(ctx, sess, "paid", d.notifier.NotifyCompleted)
	case EventPaymentExpired:
		d.deliver(ctx, sess, "expired", d.notifier.NotifyExpired)
	default:
		// Non-terminal events leave the session in place.
		d.logger.InfoContext(ctx, "unhandled webhook type", "type", env.Type)
		callbacksUnhandledCounter.Inc()
		return Ignored
	}

	return Notified
}

// correlate resolves the session with an ordered fallback over the candidate
// identifier fields the provider may use, then over the external-id index.
func (d *Dispatcher) correlate(data eventData) (session.PaymentSession, bool) {
	for _, id := range []string{data.ID, data.PaymentID} {
		if id == "" {
			continue
		}
		if sess, ok := d.store.Get(id); ok {
			return sess, true
		}
	}
	for _, id := range []string{data.ID, data.PaymentID} {
		if id == "" {
			continue
		}
		if sess, ok := d.store.GetByExternalID(id); ok {
			return sess, true
		}
	}
	return session.PaymentSession{}, false
}

type notifyFunc func(ctx context.Context, userID int64, externalID string, amount int64) error

// deliver notifies the user and then removes the session. Removal happens
// even when delivery fails: bounded memory wins over redelivery, and the
// provider retrying must not re-notify an already-settled payment.
func (d *Dispatcher) deliver(ctx context.Context, sess session.PaymentSession, status string, notify notifyFunc) {
	if err := notify(ctx, sess.UserID, sess.ExternalID, sess.Amount); err != nil {
		d.logger.ErrorContext(ctx, "failed to notify user",
			"userId", sess.UserID, "externalId", sess.ExternalID, "error", err)
		callbacksNotifyErrCounter.Inc()
	} else {
		callbacksNotifiedCounter.Inc()
	}

	if d.recorder != nil {
		entry := ledger.Entry{
			When:       time.Now(),
			ExternalID: sess.ExternalID,
			PaymentID:  sess.PaymentID,
			UserID:     sess.UserID,
			Amount:     sess.Amount,
			Status:     status,
		}
		if err := d.recorder.Record(ctx, entry); err != nil {
			d.logger.ErrorContext(ctx, "failed to record ledger entry", "error", err)
			callbacksRecordErrCounter.Inc()
		}
	}

	d.store.Remove(sess.PaymentID)
}
