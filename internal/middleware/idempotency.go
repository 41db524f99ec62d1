package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"github.com/mansoorceksport/fitcoach/internal/logger"
)

const correlationHeader = "X-Correlation-ID"

type cachedResponse struct {
	Status int    `json:"status"`
	Body   []byte `json:"body"`
}

// IdempotencyMiddleware provides idempotency for POST/PATCH/PUT requests using X-Correlation-ID.
// If the same user repeats a correlation ID within the TTL, the stored response is replayed.
// Must run after the auth middleware so keys are scoped per user.
func IdempotencyMiddleware(redisClient *redis.Client, ttl time.Duration, log *logger.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		// Only apply to mutating methods
		if c.Method() != fiber.MethodPost && c.Method() != fiber.MethodPatch && c.Method() != fiber.MethodPut {
			return c.Next()
		}

		correlationID := c.Get(correlationHeader)
		if correlationID == "" {
			return c.Next()
		}

		key := fmt.Sprintf("idempotency:%s:%s", GetUserID(c), correlationID)
		ctx := c.UserContext()

		if raw, err := redisClient.Get(ctx, key).Bytes(); err == nil && len(raw) > 0 {
			var cached cachedResponse
			if err := json.Unmarshal(raw, &cached); err == nil {
				c.Set("X-Idempotent-Replay", "true")
				c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
				return c.Status(cached.Status).Send(cached.Body)
			}
		} else if err != nil && err != redis.Nil {
			log.Warn("idempotency lookup failed", "error", err)
		}

		if err := c.Next(); err != nil {
			return err
		}

		// Cache successful responses (2xx status codes)
		statusCode := c.Response().StatusCode()
		if statusCode < 200 || statusCode >= 300 {
			return nil
		}
		body := c.Response().Body()
		if len(body) == 0 {
			return nil
		}
		raw, err := json.Marshal(cachedResponse{Status: statusCode, Body: append([]byte(nil), body...)})
		if err != nil {
			return nil
		}
		setCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := redisClient.Set(setCtx, key, raw, ttl).Err(); err != nil {
			log.Warn("idempotency store failed", "error", err)
		}
		return nil
	}
}
