package fakebank

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"facebank/internal/platform/middleware"
)

const tokenIssuer = "fakebank"

// SessionClaims are carried by session tokens.
type SessionClaims struct {
	AccountNumber string `json:"account_number"`
	jwt.RegisteredClaims
}

// TokenService issues and validates HS256 session tokens.
type TokenService struct {
	signingKey []byte
	ttl        time.Duration
	now        func() time.Time
}

func NewTokenService(signingKey string, ttl time.Duration) *TokenService {
	return &TokenService{signingKey: []byte(signingKey), ttl: ttl, now: time.Now}
}

// Issue signs a session token for accountHandle.
func (s *TokenService) Issue(accountHandle string) (string, error) {
	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, SessionClaims{
		AccountNumber: accountHandle,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   accountHandle,
			Issuer:    tokenIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			ID:        uuid.NewString(),
		},
	})
	signed, err := token.SignedString(s.signingKey)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}

// ValidateToken implements middleware.TokenValidator.
func (s *TokenService) ValidateToken(tokenString string) (*middleware.TokenClaims, error) {
	claims := new(SessionClaims)
	parsed, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	},
		jwt.WithIssuer(tokenIssuer),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("token expired: %w", err)
		}
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	if !parsed.Valid || claims.AccountNumber == "" {
		return nil, errors.New("invalid token")
	}
	return &middleware.TokenClaims{AccountHandle: claims.AccountNumber, JTI: claims.ID}, nil
}
