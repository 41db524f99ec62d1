package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/mansoorceksport/fitcoach/internal/logger"
	"github.com/mansoorceksport/fitcoach/internal/service"
)

// AnalyticsHandler handles HTTP requests for progress, achievements and the dashboard
type AnalyticsHandler struct {
	analyticsService *service.AnalyticsService
	dashboardService *service.DashboardService
	log              *logger.Logger
}

// NewAnalyticsHandler creates a new analytics handler
func NewAnalyticsHandler(analyticsService *service.AnalyticsService, dashboardService *service.DashboardService, log *logger.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{
		analyticsService: analyticsService,
		dashboardService: dashboardService,
		log:              log,
	}
}

// GetProgress handles GET /v1/progress
func (h *AnalyticsHandler) GetProgress(c *fiber.Ctx) error {
	userID, authed := currentUser(c)
	if !authed {
		return nil
	}

	stats, err := h.analyticsService.GetProgress(c.UserContext(), userID)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return ok(c, fiber.StatusOK, stats)
}

// GetAchievements handles GET /v1/progress/achievements
func (h *AnalyticsHandler) GetAchievements(c *fiber.Ctx) error {
	userID, authed := currentUser(c)
	if !authed {
		return nil
	}

	achievements, err := h.analyticsService.GetAchievements(c.UserContext(), userID)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return ok(c, fiber.StatusOK, achievements)
}

// GetDashboard handles GET /v1/dashboard?period=
func (h *AnalyticsHandler) GetDashboard(c *fiber.Ctx) error {
	userID, authed := currentUser(c)
	if !authed {
		return nil
	}

	dashboard, err := h.dashboardService.GetDashboard(c.UserContext(), userID, c.Query("period"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return ok(c, fiber.StatusOK, dashboard)
}
