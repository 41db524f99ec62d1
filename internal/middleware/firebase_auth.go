package middleware

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"strings"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"github.com/gofiber/fiber/v2"
	"google.golang.org/api/option"
)

const (
	userIDKey = "userID"
	emailKey  = "email"
)

// FirebaseAuthClient defines the interface for Firebase Auth operations
// This allows mocking for tests
type FirebaseAuthClient interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

// FirebaseAuth creates a Fiber middleware that validates Firebase ID tokens
func FirebaseAuth(authClient FirebaseAuthClient) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, err := bearerToken(c)
		if err != nil {
			return unauthorized(c, err.Error())
		}

		// Verify the token
		decodedToken, err := authClient.VerifyIDToken(c.UserContext(), token)
		if err != nil {
			if strings.Contains(err.Error(), "expired") {
				return unauthorized(c, "token expired")
			}
			return unauthorized(c, "invalid token")
		}

		c.Locals(userIDKey, decodedToken.UID)
		if email, ok := decodedToken.Claims["email"].(string); ok {
			c.Locals(emailKey, email)
		}
		return c.Next()
	}
}

// InitFirebase initializes Firebase Admin SDK with environment variables
func InitFirebase(ctx context.Context, projectID, privateKeyB64, clientEmail string) (*firebase.App, error) {
	// Decode base64 private key
	privateKey, err := base64.StdEncoding.DecodeString(privateKeyB64)
	if err != nil {
		return nil, err
	}

	credentialsJSON, err := json.Marshal(map[string]interface{}{
		"type":         "service_account",
		"project_id":   projectID,
		"private_key":  string(privateKey),
		"client_email": clientEmail,
	})
	if err != nil {
		return nil, err
	}

	return firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID}, option.WithCredentialsJSON(credentialsJSON))
}

// GetUserID extracts the user ID from Fiber context
// Should only be called after an auth middleware
func GetUserID(c *fiber.Ctx) string {
	userID, ok := c.Locals(userIDKey).(string)
	if !ok {
		return ""
	}
	return userID
}

type authError string

func (e authError) Error() string { return string(e) }

func bearerToken(c *fiber.Ctx) (string, error) {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return "", authError("missing authorization header")
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", authError("invalid authorization header format, expected 'Bearer <token>'")
	}
	return parts[1], nil
}

func unauthorized(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"success": false,
		"error":   msg,
	})
}
