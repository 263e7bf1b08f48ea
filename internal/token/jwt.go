// Package token issues and validates the session JWT shared between the
// app server replicas. The load balancer reads the same token's payload
// without verification for routing only.
package token

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const sessionTTL = 24 * time.Hour

var ErrInvalidToken = errors.New("invalid token")

// Claims is the session token payload. The subject is a numeric user id,
// which is why this does not reuse jwt.RegisteredClaims (string subject).
type Claims struct {
	Sub      int64  `json:"sub"`
	Username string `json:"username"`
	Exp      int64  `json:"exp"`
}

func (c Claims) GetExpirationTime() (*jwt.NumericDate, error) {
	if c.Exp == 0 {
		return nil, nil
	}
	return jwt.NewNumericDate(time.Unix(c.Exp, 0)), nil
}

func (c Claims) GetIssuedAt() (*jwt.NumericDate, error)  { return nil, nil }
func (c Claims) GetNotBefore() (*jwt.NumericDate, error) { return nil, nil }
func (c Claims) GetIssuer() (string, error)              { return "", nil }
func (c Claims) GetAudience() (jwt.ClaimStrings, error)  { return nil, nil }

func (c Claims) GetSubject() (string, error) {
	return strconv.FormatInt(c.Sub, 10), nil
}

// Manager encodes and decodes session tokens with a shared HS256 secret
type Manager struct {
	secret []byte
}

// NewManager creates a token manager for the given secret
func NewManager(secret string) *Manager {
	return &Manager{secret: []byte(secret)}
}

// Encode issues a session token for the user with a 24h expiry
func (m *Manager) Encode(userID int64, username string) (string, error) {
	claims := Claims{
		Sub:      userID,
		Username: username,
		Exp:      time.Now().Add(sessionTTL).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

// Decode validates the token signature and expiry and returns its claims
func (m *Manager) Decode(tokenString string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
