package security

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/google/uuid"
)

// StateSigner produces and checks OAuth state values. A state is a random
// nonce plus its HMAC, so a callback can prove the state came from this server
// as well as match the browser's state cookie.
type StateSigner struct {
	secret []byte
}

// NewStateSigner creates a signer keyed by secret
func NewStateSigner(secret string) *StateSigner {
	return &StateSigner{secret: []byte(secret)}
}

// NewState returns a fresh signed state value
func (s *StateSigner) NewState() string {
	nonce := strings.ReplaceAll(uuid.NewString(), "-", "")
	return nonce + "." + s.mac(nonce)
}

// Valid reports whether state was produced by this signer
func (s *StateSigner) Valid(state string) bool {
	nonce, sig, ok := strings.Cut(state, ".")
	if !ok || nonce == "" || sig == "" {
		return false
	}
	return hmac.Equal([]byte(s.mac(nonce)), []byte(sig))
}

func (s *StateSigner) mac(nonce string) string {
	m := hmac.New(sha256.New, s.secret)
	m.Write([]byte(nonce))
	return hex.EncodeToString(m.Sum(nil))
}
