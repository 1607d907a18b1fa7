package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/victornm/quizforge/internal/errors"
)

// TokenManager issues and validates HS256 bearer tokens carrying the
// user id as subject.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
}

func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	return &TokenManager{
		secret: []byte(secret),
		ttl:    ttl,
	}
}

func (m *TokenManager) Generate(userID string) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", errors.Internal(err)
	}

	return signed, nil
}

// Validate parses the token and returns the user id it was issued for.
func (m *TokenManager) Validate(raw string) (string, error) {
	token, err := jwt.ParseWithClaims(raw, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New(errors.CodeUnauthenticated, errors.WithMessagef("unexpected signing method: %v", t.Header["alg"]))
		}
		return m.secret, nil
	})
	if err != nil || !token.Valid {
		return "", errors.New(errors.CodeUnauthenticated,
			errors.WithMessagef("invalid or expired token"),
			errors.WithCause(err),
		)
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return "", errors.New(errors.CodeUnauthenticated, errors.WithMessagef("token has no subject"))
	}

	return claims.Subject, nil
}
