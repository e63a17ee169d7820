package security

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrInvalidToken is returned for tokens that are malformed, expired, or of the wrong kind
var ErrInvalidToken = errors.New("invalid token")

// TokenKind distinguishes access tokens from refresh tokens
type TokenKind string

const (
	AccessToken  TokenKind = "access"
	RefreshToken TokenKind = "refresh"
)

// Claims are the JWT claims issued to a signed-in user
type Claims struct {
	jwt.RegisteredClaims
	Kind TokenKind `json:"typ"`
}

// TokenManager issues and verifies HS256 JWTs
type TokenManager struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewTokenManager creates a token manager for the given signing secret
func NewTokenManager(secret string, accessTTL, refreshTTL time.Duration) *TokenManager {
	return &TokenManager{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

// TTL returns the lifetime of tokens of kind
func (m *TokenManager) TTL(kind TokenKind) time.Duration {
	if kind == RefreshToken {
		return m.refreshTTL
	}
	return m.accessTTL
}

// Issue signs a token of kind for userID and returns it with its expiry
func (m *TokenManager) Issue(userID string, kind TokenKind) (string, time.Time, error) {
	now := m.now()
	expires := now.Add(m.TTL(kind))
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
		Kind: kind,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expires, nil
}

// Verify parses a token, checks its signature, expiry and kind, and returns the user id
func (m *TokenManager) Verify(tokenString string, kind TokenKind) (string, error) {
	tokenString = strings.TrimSpace(tokenString)
	if tokenString == "" {
		return "", ErrInvalidToken
	}

	claims := &Claims{}
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(m.now))
	parsed, err := parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return m.secret, nil
	})
	if err != nil || !parsed.Valid {
		return "", ErrInvalidToken
	}
	if claims.Kind != kind || claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}

// GenerateOpaqueToken returns a random token for emailed links
func GenerateOpaqueToken() string {
	return strings.ReplaceAll(uuid.NewString()+uuid.NewString(), "-", "")
}
