package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/mansoorceksport/fitcoach/internal/domain"
)

// TokenVerifier checks a locally issued access token.
type TokenVerifier interface {
	Verify(token string) (*domain.CoachClaims, error)
}

// VerifyCoachToken validates an HS256 access token and stores its user in locals.
// Used when AUTH_MODE=jwt.
func VerifyCoachToken(verifier TokenVerifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, err := bearerToken(c)
		if err != nil {
			return unauthorized(c, err.Error())
		}

		claims, err := verifier.Verify(token)
		if err != nil {
			return unauthorized(c, "invalid or expired token")
		}

		c.Locals(userIDKey, claims.UserID)
		if claims.Email != "" {
			c.Locals(emailKey, claims.Email)
		}
		return c.Next()
	}
}

// RequireUser rejects requests that reached a handler without an authenticated user.
func RequireUser() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if GetUserID(c) == "" {
			return unauthorized(c, "missing user context")
		}
		return c.Next()
	}
}
