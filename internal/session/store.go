package session

import "sync"

// PaymentSession is one outstanding payment awaiting its webhook outcome.
type PaymentSession struct {
	PaymentID  string
	ExternalID string
	UserID     int64
	Amount     int64
}

// Store is the correlation table between provider payment ids and the users
// waiting on them. It is the single owner of PaymentSession records; sessions
// live only for the lifetime of the process.
type Store struct {
	mu         sync.RWMutex
	byPayment  map[string]PaymentSession
	byExternal map[string]string // externalID -> paymentID
}

func NewStore() *Store {
	return &Store{
		byPayment:  map[string]PaymentSession{},
		byExternal: map[string]string{},
	}
}

// Put inserts or overwrites the session for its payment id. Last write wins
// on a duplicate id.
func (s *Store) Put(sess PaymentSession) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if old, ok := s.byPayment[sess.PaymentID]; ok {
		delete(s.byExternal, old.ExternalID)
	}
	s.byPayment[sess.PaymentID] = sess
	if sess.ExternalID != "" {
		s.byExternal[sess.ExternalID] = sess.PaymentID
	}
}

func (s *Store) Get(paymentID string) (PaymentSession, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.byPayment[paymentID]
	return sess, ok
}

// GetByExternalID resolves a session through the secondary index. Webhook
// events do not always carry the provider payment id under the same field,
// so the dispatcher falls back to this lookup after Get misses.
func (s *Store) GetByExternalID(externalID string) (PaymentSession, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	paymentID, ok := s.byExternal[externalID]
	if !ok {
		return PaymentSession{}, false
	}
	sess, ok := s.byPayment[paymentID]
	return sess, ok
}

// Remove drops the session for paymentID. Removing an absent id is a no-op.
func (s *Store) Remove(paymentID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.byPayment[paymentID]; ok {
		delete(s.byExternal, sess.ExternalID)
		delete(s.byPayment, paymentID)
	}
}

// Len reports how many sessions are outstanding. Sessions whose payment
// never reaches a terminal state are not evicted, so this is the leak gauge.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byPayment)
}
