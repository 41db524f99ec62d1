package handler

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/mansoorceksport/fitcoach/internal/domain"
	"github.com/mansoorceksport/fitcoach/internal/logger"
	"github.com/mansoorceksport/fitcoach/internal/middleware"
)

// respondError maps domain errors to HTTP statuses. Internal failures are
// logged and reported without driver detail.
func respondError(c *fiber.Ctx, log *logger.Logger, err error) error {
	status := fiber.StatusInternalServerError
	msg := "internal server error"

	var ve *domain.ValidationError
	switch {
	case errors.As(err, &ve):
		status, msg = fiber.StatusBadRequest, ve.Error()
	case domain.IsNotFound(err):
		status, msg = fiber.StatusNotFound, err.Error()
	case errors.Is(err, domain.ErrUpstreamTimeout):
		status, msg = fiber.StatusGatewayTimeout, "the coach is taking too long to respond, please try again"
	default:
		log.Error("request failed", "method", c.Method(), "path", c.Path(), "error", err)
	}

	return c.Status(status).JSON(fiber.Map{
		"success": false,
		"error":   msg,
	})
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"success": false,
		"error":   msg,
	})
}

func ok(c *fiber.Ctx, status int, data interface{}) error {
	return c.Status(status).JSON(fiber.Map{
		"success": true,
		"data":    data,
	})
}

// currentUser returns the authenticated user id, writing a 401 when absent.
func currentUser(c *fiber.Ctx) (string, bool) {
	userID := middleware.GetUserID(c)
	if userID == "" {
		_ = c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"error":   "user not authenticated",
		})
		return "", false
	}
	return userID, true
}

// queryLimit parses ?limit=, falling back to def and capping at ceiling.
func queryLimit(c *fiber.Ctx, def, ceiling int) int {
	limit, err := strconv.Atoi(c.Query("limit", strconv.Itoa(def)))
	if err != nil || limit <= 0 {
		limit = def
	}
	if limit > ceiling {
		limit = ceiling
	}
	return limit
}

func queryUint(c *fiber.Ctx, key string) (uint, error) {
	raw := c.Query(key)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, &domain.ValidationError{Field: key, Message: "must be a positive integer"}
	}
	return uint(v), nil
}
