package service

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/mansoorceksport/fitcoach/internal/domain"
)

// TokenService issues and verifies HS256 access tokens for AUTH_MODE=jwt.
type TokenService struct {
	secret []byte
	expiry time.Duration
	now    func() time.Time
}

// NewTokenService creates a new token service
func NewTokenService(secret string, expiry time.Duration) *TokenService {
	if expiry <= 0 {
		expiry = 24 * time.Hour
	}
	return &TokenService{secret: []byte(secret), expiry: expiry, now: time.Now}
}

// Issue creates a signed access token for the user.
func (s *TokenService) Issue(userID, email string) (string, error) {
	if userID == "" {
		return "", &domain.ValidationError{Field: "user_id", Message: "is required"}
	}
	now := s.now()
	claims := domain.CoachClaims{
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}
	return signed, nil
}

// Verify parses the token and returns its claims. Only HMAC signatures are accepted.
func (s *TokenService) Verify(tokenString string) (*domain.CoachClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &domain.CoachClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*domain.CoachClaims)
	if !ok || !token.Valid || claims.UserID == "" {
		return nil, fmt.Errorf("invalid token claims")
	}
	return claims, nil
}
