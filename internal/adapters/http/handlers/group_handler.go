package handlers

import (
	"chamanexus/internal/core/services"
	"chamanexus/internal/pkg/pagination"
	"chamanexus/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// GroupHandler handles chama group endpoints
type GroupHandler struct {
	groupService *services.GroupService
	log          *zap.Logger
}

// NewGroupHandler creates a new group handler
func NewGroupHandler(groupService *services.GroupService, log *zap.Logger) *GroupHandler {
	return &GroupHandler{
		groupService: groupService,
		log:          log,
	}
}

// List lists groups
// @Summary List groups
// @Tags Groups
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /groups [get]
func (h *GroupHandler) List(c *fiber.Ctx) error {
	params := pagination.GetParams(c)

	result, err := h.groupService.List(c.UserContext(), params.Page, params.Limit)
	if err != nil {
		return ledgerError(c, h.log, err, "Failed to list groups")
	}

	return response.Success(c, "Groups retrieved successfully", result)
}

// Create creates a group
// @Summary Create group
// @Tags Groups
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.CreateGroupInput true "Group"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /groups [post]
func (h *GroupHandler) Create(c *fiber.Ctx) error {
	actor, ok := currentActor(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	var req services.CreateGroupInput
	if ok, err := bind(c, &req); !ok {
		return err
	}

	group, err := h.groupService.Create(c.UserContext(), &req, actor)
	if err != nil {
		return ledgerError(c, h.log, err, "Failed to create group")
	}

	return response.Created(c, "Group created successfully", group.ToResponse())
}

// Get gets a group
// @Summary Get group
// @Tags Groups
// @Produce json
// @Security BearerAuth
// @Param id path string true "Group ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /groups/{id} [get]
func (h *GroupHandler) Get(c *fiber.Ctx) error {
	group, err := h.groupService.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return ledgerError(c, h.log, err, "Failed to get group")
	}

	return response.Success(c, "Group retrieved successfully", group.ToResponse())
}

// Update updates a group
// @Summary Update group
// @Tags Groups
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Group ID"
// @Param body body services.UpdateGroupInput true "Group fields"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /groups/{id} [put]
func (h *GroupHandler) Update(c *fiber.Ctx) error {
	actor, ok := currentActor(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	var req services.UpdateGroupInput
	if ok, err := bind(c, &req); !ok {
		return err
	}

	group, err := h.groupService.Update(c.UserContext(), c.Params("id"), &req, actor)
	if err != nil {
		return ledgerError(c, h.log, err, "Failed to update group")
	}

	return response.Success(c, "Group updated successfully", group.ToResponse())
}

// Balance returns the group's verified totals
// @Summary Group balance
// @Tags Groups
// @Produce json
// @Security BearerAuth
// @Param id path string true "Group ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /groups/{id}/balance [get]
func (h *GroupHandler) Balance(c *fiber.Ctx) error {
	result, err := h.groupService.Balance(c.UserContext(), c.Params("id"))
	if err != nil {
		return ledgerError(c, h.log, err, "Failed to get group balance")
	}

	return response.Success(c, "Group balance retrieved successfully", result)
}
