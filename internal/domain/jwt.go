package domain

import (
	"github.com/golang-jwt/jwt/v5"
)

// CoachClaims are the claims of a locally issued HS256 access token.
type CoachClaims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email,omitempty"`
	jwt.RegisteredClaims
}
