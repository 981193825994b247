package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// Signer computes and checks callback signatures: hex-encoded HMAC-SHA256
// over "orderRef|paymentRef" keyed with the gateway webhook secret.
type Signer struct {
	secret []byte
}

// NewSigner creates a Signer with the server-held gateway secret.
func NewSigner(secret []byte) *Signer {
	return &Signer{secret: secret}
}

// Sign returns the expected signature for the given gateway references.
func (s *Signer) Sign(orderRef, paymentRef string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(orderRef))
	mac.Write([]byte{'|'})
	mac.Write([]byte(paymentRef))
	return hex.EncodeToString(mac.Sum(nil))
}

// Check reports whether supplied matches the expected signature for the
// given references. The comparison is constant-time so the check does not
// leak how much of a forged signature was correct.
func (s *Signer) Check(orderRef, paymentRef, supplied string) bool {
	expected := s.Sign(orderRef, paymentRef)
	return subtle.ConstantTimeCompare([]byte(expected), []byte(supplied)) == 1
}
