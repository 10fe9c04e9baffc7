package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// CSRFManager derives per-user CSRF tokens. The page embeds the token and the
// client echoes it in X-CSRF-TOKEN on every state-changing request.
type CSRFManager struct {
	secret []byte
}

func NewCSRFManager(secret string) *CSRFManager {
	return &CSRFManager{secret: []byte(secret)}
}

// Token returns the CSRF token bound to userID.
func (m *CSRFManager) Token(userID string) string {
	mac := hmac.New(sha256.New, m.secret)
	mac.Write([]byte(userID))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify reports whether token was issued for userID.
func (m *CSRFManager) Verify(userID, token string) bool {
	got, err := hex.DecodeString(token)
	if err != nil || len(got) == 0 {
		return false
	}
	mac := hmac.New(sha256.New, m.secret)
	mac.Write([]byte(userID))
	return hmac.Equal(got, mac.Sum(nil))
}
