package handler

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"
)

// SessionCookie is the cookie carrying the caller's identity.
const SessionCookie = "session"

// Sessions authenticates requests from a signed session cookie. Issuing
// sessions (login/OTP) is another service's job; this side only needs to
// verify the signature and extract the user id.
type Sessions struct {
	secret []byte
}

// NewSessions creates a session verifier with the shared signing secret.
func NewSessions(secret []byte) *Sessions {
	return &Sessions{secret: secret}
}

// Token returns the signed cookie value for userID: "userID.hmac". Used by
// the issuing service and by local tooling.
func (s *Sessions) Token(userID string) string {
	return userID + "." + s.sign(userID)
}

func (s *Sessions) sign(userID string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(userID))
	return hex.EncodeToString(mac.Sum(nil))
}

// verify parses a cookie value and returns the user id when the signature
// checks out. hmac.Equal is constant-time.
func (s *Sessions) verify(value string) (string, bool) {
	userID, sig, ok := strings.Cut(value, ".")
	if !ok || userID == "" {
		return "", false
	}

	want, err := hex.DecodeString(s.sign(userID))
	if err != nil {
		return "", false
	}
	got, err := hex.DecodeString(sig)
	if err != nil {
		return "", false
	}
	if !hmac.Equal(want, got) {
		return "", false
	}
	return userID, true
}

type sessionKey struct{}

// UserID extracts the authenticated user id from the request context.
func UserID(ctx context.Context) string {
	if id, ok := ctx.Value(sessionKey{}).(string); ok {
		return id
	}
	return ""
}

// Middleware rejects requests without a valid session cookie and stores
// the caller's user id in the request context.
func (s *Sessions) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := r.Cookie(SessionCookie)
		if err != nil {
			writeError(w, r, http.StatusUnauthorized, "session required")
			return
		}
		userID, ok := s.verify(c.Value)
		if !ok {
			writeError(w, r, http.StatusUnauthorized, "invalid session")
			return
		}
		ctx := context.WithValue(r.Context(), sessionKey{}, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
