package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/mansoorceksport/fitcoach/internal/logger"
	"github.com/mansoorceksport/fitcoach/internal/service"
)

// PlanHandler handles the current plan and completion tracking
type PlanHandler struct {
	planService *service.PlanService
	log         *logger.Logger
}

// NewPlanHandler creates a new plan handler
func NewPlanHandler(planService *service.PlanService, log *logger.Logger) *PlanHandler {
	return &PlanHandler{planService: planService, log: log}
}

// GetCurrentPlan handles GET /v1/plans/current
func (h *PlanHandler) GetCurrentPlan(c *fiber.Ctx) error {
	userID, authed := currentUser(c)
	if !authed {
		return nil
	}
	programID, err := queryUint(c, "program_id")
	if err != nil {
		return respondError(c, h.log, err)
	}

	view, err := h.planService.GetCurrentPlan(c.UserContext(), userID, programID)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return ok(c, fiber.StatusOK, view)
}

// ToggleExercise handles PATCH /v1/plans/exercises/:exerciseID
func (h *PlanHandler) ToggleExercise(c *fiber.Ctx) error {
	userID, authed := currentUser(c)
	if !authed {
		return nil
	}

	var req service.ToggleInput
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	result, err := h.planService.ToggleExercise(c.UserContext(), userID, c.Params("exerciseID"), req)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return ok(c, fiber.StatusOK, result)
}

type nextWeekRequest struct {
	ProgramID  uint `json:"program_id"`
	TargetWeek int  `json:"target_week"`
	BaseWeek   int  `json:"base_week"`
}

// GenerateNextWeek handles POST /v1/plans/weeks
func (h *PlanHandler) GenerateNextWeek(c *fiber.Ctx) error {
	userID, authed := currentUser(c)
	if !authed {
		return nil
	}

	var req nextWeekRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	result, err := h.planService.GenerateNextWeek(c.UserContext(), userID, req.ProgramID, req.TargetWeek, req.BaseWeek)
	if err != nil {
		return respondError(c, h.log, err)
	}
	status := fiber.StatusOK
	if result.Created {
		status = fiber.StatusCreated
	}
	return ok(c, status, result)
}

// CompleteDay handles POST /v1/workouts/complete-day
func (h *PlanHandler) CompleteDay(c *fiber.Ctx) error {
	userID, authed := currentUser(c)
	if !authed {
		return nil
	}

	var req service.DayCompletionInput
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	result, err := h.planService.SubmitDayCompletion(c.UserContext(), userID, req)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return ok(c, fiber.StatusCreated, result)
}

// ListLogs handles GET /v1/workouts/logs
func (h *PlanHandler) ListLogs(c *fiber.Ctx) error {
	userID, authed := currentUser(c)
	if !authed {
		return nil
	}

	logs, err := h.planService.ListLogs(c.UserContext(), userID, queryLimit(c, 20, 100))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return ok(c, fiber.StatusOK, logs)
}
