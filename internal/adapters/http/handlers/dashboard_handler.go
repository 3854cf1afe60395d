package handlers

import (
	"chamanexus/internal/core/services"
	"chamanexus/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// DashboardHandler handles dashboard endpoints
type DashboardHandler struct {
	dashboardService *services.DashboardService
	log              *zap.Logger
	now              Clock
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(dashboardService *services.DashboardService, log *zap.Logger, now Clock) *DashboardHandler {
	return &DashboardHandler{
		dashboardService: dashboardService,
		log:              log,
		now:              now,
	}
}

// Summary returns the dashboard for the current actor
// @Summary Dashboard summary
// @Description Treasurers and admins get the group overview. Members get their personal view.
// @Tags Dashboard
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /dashboard/summary [get]
func (h *DashboardHandler) Summary(c *fiber.Ctx) error {
	actor, ok := currentActor(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	data, err := h.dashboardService.Summary(c.UserContext(), actor, h.now())
	if err != nil {
		return ledgerError(c, h.log, err, "Failed to get dashboard")
	}

	return response.Success(c, "Dashboard retrieved successfully", data)
}

// Member returns the personal dashboard
// @Summary Member dashboard
// @Tags Dashboard
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /dashboard/member [get]
func (h *DashboardHandler) Member(c *fiber.Ctx) error {
	actor, ok := currentActor(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	data, err := h.dashboardService.GetMemberDashboard(c.UserContext(), actor, h.now())
	if err != nil {
		return ledgerError(c, h.log, err, "Failed to get member dashboard")
	}

	return response.Success(c, "Member dashboard retrieved successfully", data)
}

// Treasurer returns the group overview
// @Summary Treasurer dashboard
// @Tags Dashboard
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /dashboard/treasurer [get]
func (h *DashboardHandler) Treasurer(c *fiber.Ctx) error {
	actor, ok := currentActor(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	data, err := h.dashboardService.GetTreasurerDashboard(c.UserContext(), actor, h.now())
	if err != nil {
		return ledgerError(c, h.log, err, "Failed to get treasurer dashboard")
	}

	return response.Success(c, "Treasurer dashboard retrieved successfully", data)
}
