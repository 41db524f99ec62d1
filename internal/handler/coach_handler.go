package handler

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/mansoorceksport/fitcoach/internal/logger"
	"github.com/mansoorceksport/fitcoach/internal/service"
)

// CoachHandler handles free-text feedback and the conversation history
type CoachHandler struct {
	feedbackService *service.FeedbackService
	log             *logger.Logger
}

func NewCoachHandler(feedbackService *service.FeedbackService, log *logger.Logger) *CoachHandler {
	return &CoachHandler{feedbackService: feedbackService, log: log}
}

type feedbackRequest struct {
	Message string `json:"message"`
}

// Feedback handles POST /v1/coach/feedback
func (h *CoachHandler) Feedback(c *fiber.Ctx) error {
	userID, authed := currentUser(c)
	if !authed {
		return nil
	}

	var req feedbackRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	result, err := h.feedbackService.ApplyFeedback(c.UserContext(), userID, strings.TrimSpace(req.Message))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return ok(c, fiber.StatusOK, result)
}

// ListConversations handles GET /v1/coach/conversations
func (h *CoachHandler) ListConversations(c *fiber.Ctx) error {
	userID, authed := currentUser(c)
	if !authed {
		return nil
	}

	msgs, err := h.feedbackService.ListConversation(c.UserContext(), userID, queryLimit(c, 50, 200))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return ok(c, fiber.StatusOK, msgs)
}
