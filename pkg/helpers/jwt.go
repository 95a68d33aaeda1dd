package helpers

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrNoSigningSecret is returned when a JWTManager would be built with an
// empty secret. Tokens signed with an empty secret are universally
// forgeable, so construction refuses instead.
var ErrNoSigningSecret = errors.New("jwt: signing secret is not configured")

// JWTManager issues and validates the service's bearer tokens.
type JWTManager struct {
	secret []byte
	ttl    time.Duration
}

// Claims carries only subject and timing; the user id is the subject.
type Claims struct {
	jwt.RegisteredClaims
}

func NewJWTManager(secret string, ttl time.Duration) (*JWTManager, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, ErrNoSigningSecret
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &JWTManager{secret: []byte(secret), ttl: ttl}, nil
}

// Generate signs a token with userID as subject and the configured expiry.
func (m *JWTManager) Generate(userID string) (string, time.Time, error) {
	now := time.Now()
	exp := now.Add(m.ttl)
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := t.SignedString(m.secret)
	return s, exp, err
}

// Parse validates signature and expiry and returns the claims.
func (m *JWTManager) Parse(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	tkn, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !tkn.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}
