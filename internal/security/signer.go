package security

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// LinkSigner signs report links so a parent can open a read-only dashboard
// without any other credential. Tokens are derived from the session ID and a secret key.
type LinkSigner struct {
	secret []byte
}

// NewLinkSigner creates a signer; an empty secret gets a random one, so links only
// survive until the process restarts.
func NewLinkSigner(secret string) *LinkSigner {
	if secret == "" {
		secret = GenerateSessionID()
	}
	return &LinkSigner{secret: []byte(secret)}
}

// Sign returns the token for the given session ID
func (s *LinkSigner) Sign(sessionID string) (string, error) {
	if sessionID == "" {
		return "", fmt.Errorf("session ID is required")
	}
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(sessionID))
	return hex.EncodeToString(mac.Sum(nil)), nil
}

// Verify reports whether token is the valid token for sessionID
func (s *LinkSigner) Verify(sessionID, token string) bool {
	if sessionID == "" || token == "" {
		return false
	}
	expected, err := s.Sign(sessionID)
	if err != nil {
		return false
	}
	return hmac.Equal([]byte(expected), []byte(token))
}
