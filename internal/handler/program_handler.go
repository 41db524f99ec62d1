package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/mansoorceksport/fitcoach/internal/domain"
	"github.com/mansoorceksport/fitcoach/internal/logger"
	"github.com/mansoorceksport/fitcoach/internal/service"
)

// ProgramHandler handles the profile and program versions
type ProgramHandler struct {
	programService *service.ProgramService
	log            *logger.Logger
}

func NewProgramHandler(programService *service.ProgramService, log *logger.Logger) *ProgramHandler {
	return &ProgramHandler{programService: programService, log: log}
}

// GetProfile handles GET /v1/profile
func (h *ProgramHandler) GetProfile(c *fiber.Ctx) error {
	userID, authed := currentUser(c)
	if !authed {
		return nil
	}

	profile, err := h.programService.GetProfile(c.UserContext(), userID)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return ok(c, fiber.StatusOK, profile)
}

// UpsertProfile handles PUT /v1/profile
func (h *ProgramHandler) UpsertProfile(c *fiber.Ctx) error {
	userID, authed := currentUser(c)
	if !authed {
		return nil
	}

	var req domain.UserProfile
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	profile, err := h.programService.UpsertProfile(c.UserContext(), userID, &req)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return ok(c, fiber.StatusOK, profile)
}

// Generate handles POST /v1/programs/generate
func (h *ProgramHandler) Generate(c *fiber.Ctx) error {
	userID, authed := currentUser(c)
	if !authed {
		return nil
	}

	var req domain.UserProfile
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	result, err := h.programService.Generate(c.UserContext(), userID, &req)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return ok(c, fiber.StatusCreated, result)
}

type createProgramRequest struct {
	Name        string `json:"name"`
	ProgramText string `json:"program_text"`
}

// Create handles POST /v1/programs
func (h *ProgramHandler) Create(c *fiber.Ctx) error {
	userID, authed := currentUser(c)
	if !authed {
		return nil
	}

	var req createProgramRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	program, err := h.programService.CreateFromText(c.UserContext(), userID, req.Name, req.ProgramText)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return ok(c, fiber.StatusCreated, program)
}

// List handles GET /v1/programs
func (h *ProgramHandler) List(c *fiber.Ctx) error {
	userID, authed := currentUser(c)
	if !authed {
		return nil
	}

	programs, err := h.programService.ListPrograms(c.UserContext(), userID)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return ok(c, fiber.StatusOK, programs)
}
