package webhook

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// Verifier authenticates webhook payloads with the shared provider secret.
type Verifier struct {
	secret []byte
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// Verify reports whether signature is a valid HMAC-SHA256 hex digest of the
// payload. The payload is compacted first so verification matches the
// provider's signature over the serialized object regardless of whitespace.
// Any malformed input yields false; Verify never panics and does no I/O.
func (v *Verifier) Verify(payload []byte, signature string) bool {
	if signature == "" || len(payload) == 0 {
		return false
	}
	expected := v.Sign(payload)
	if expected == "" {
		return false
	}
	// hmac.Equal compares in constant time so the position of the first
	// mismatching byte is not observable.
	return hmac.Equal([]byte(signature), []byte(expected))
}

// Sign computes the hex HMAC-SHA256 digest of the compacted payload. Returns
// "" if the payload is not valid JSON.
func (v *Verifier) Sign(payload []byte) string {
	var compact bytes.Buffer
	if err := json.Compact(&compact, payload); err != nil {
		return ""
	}
	mac := hmac.New(sha256.New, v.secret)
	mac.Write(compact.Bytes())
	return hex.EncodeToString(mac.Sum(nil))
}
