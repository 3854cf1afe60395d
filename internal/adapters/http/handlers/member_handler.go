package handlers

import (
	"strconv"

	"chamanexus/internal/core/services"
	"chamanexus/internal/pkg/pagination"
	"chamanexus/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// MemberHandler handles member registry endpoints
type MemberHandler struct {
	memberService *services.MemberService
	log           *zap.Logger
	now           Clock
}

// NewMemberHandler creates a new member handler
func NewMemberHandler(memberService *services.MemberService, log *zap.Logger, now Clock) *MemberHandler {
	return &MemberHandler{
		memberService: memberService,
		log:           log,
		now:           now,
	}
}

// List lists members
// @Summary List members
// @Tags Members
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(20)
// @Param status query string false "ACTIVE, INACTIVE or SUSPENDED"
// @Param role query string false "TREASURER, ADMIN or MEMBER"
// @Param search query string false "Name or phone number"
// @Success 200 {object} response.Response
// @Router /members [get]
func (h *MemberHandler) List(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", strconv.Itoa(pagination.DefaultLimit)))

	result, err := h.memberService.List(c.UserContext(), &services.ListMembersInput{
		Page:   page,
		Limit:  limit,
		Status: c.Query("status"),
		Role:   c.Query("role"),
		Search: c.Query("search"),
	})
	if err != nil {
		return ledgerError(c, h.log, err, "Failed to list members")
	}

	return response.Success(c, "Members retrieved successfully", result)
}

// Create registers a member
// @Summary Create member
// @Tags Members
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.CreateMemberInput true "Member"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /members [post]
func (h *MemberHandler) Create(c *fiber.Ctx) error {
	actor, ok := currentActor(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	var req services.CreateMemberInput
	if ok, err := bind(c, &req); !ok {
		return err
	}

	member, err := h.memberService.Create(c.UserContext(), &req, actor, h.now())
	if err != nil {
		return ledgerError(c, h.log, err, "Failed to create member")
	}

	return response.Created(c, "Member created successfully", member.ToResponse())
}

// Get gets a member
// @Summary Get member
// @Tags Members
// @Produce json
// @Security BearerAuth
// @Param id path string true "Member ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /members/{id} [get]
func (h *MemberHandler) Get(c *fiber.Ctx) error {
	member, err := h.memberService.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return ledgerError(c, h.log, err, "Failed to get member")
	}

	return response.Success(c, "Member retrieved successfully", member.ToResponse())
}

// Update edits a member
// @Summary Update member
// @Tags Members
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Member ID"
// @Param body body services.UpdateMemberInput true "Member fields"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /members/{id} [put]
func (h *MemberHandler) Update(c *fiber.Ctx) error {
	actor, ok := currentActor(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	var req services.UpdateMemberInput
	if ok, err := bind(c, &req); !ok {
		return err
	}

	member, err := h.memberService.Update(c.UserContext(), c.Params("id"), &req, actor)
	if err != nil {
		return ledgerError(c, h.log, err, "Failed to update member")
	}

	return response.Success(c, "Member updated successfully", member.ToResponse())
}

// LinkUser links or unlinks a user account
// @Summary Link member to user
// @Tags Members
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Member ID"
// @Param body body services.LinkUserInput true "User ID, empty to unlink"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /members/{id}/link [put]
func (h *MemberHandler) LinkUser(c *fiber.Ctx) error {
	actor, ok := currentActor(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	var req services.LinkUserInput
	if ok, err := bind(c, &req); !ok {
		return err
	}

	member, err := h.memberService.LinkUser(c.UserContext(), c.Params("id"), &req, actor)
	if err != nil {
		return ledgerError(c, h.log, err, "Failed to link member")
	}

	return response.Success(c, "Member link updated successfully", member.ToResponse())
}

// Statement returns verified history and balance
// @Summary Member statement
// @Tags Members
// @Produce json
// @Security BearerAuth
// @Param id path string true "Member ID"
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(20)
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /members/{id}/statement [get]
func (h *MemberHandler) Statement(c *fiber.Ctx) error {
	params := pagination.GetParams(c)

	result, err := h.memberService.Statement(c.UserContext(), c.Params("id"), params.Page, params.Limit)
	if err != nil {
		return ledgerError(c, h.log, err, "Failed to build statement")
	}

	return response.Success(c, "Statement retrieved successfully", result)
}

// PaymentStatus classifies the member for the current month
// @Summary Member payment status
// @Tags Members
// @Produce json
// @Security BearerAuth
// @Param id path string true "Member ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /members/{id}/payment-status [get]
func (h *MemberHandler) PaymentStatus(c *fiber.Ctx) error {
	result, err := h.memberService.PaymentStatus(c.UserContext(), c.Params("id"), h.now())
	if err != nil {
		return ledgerError(c, h.log, err, "Failed to get payment status")
	}

	return response.Success(c, "Payment status retrieved successfully", result)
}
