package handlers

import (
	"chamanexus/internal/core/services"
	"chamanexus/internal/pkg/pagination"
	"chamanexus/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// TransactionHandler handles ledger entry endpoints
type TransactionHandler struct {
	txService *services.TransactionService
	log       *zap.Logger
	now       Clock
}

// NewTransactionHandler creates a new transaction handler
func NewTransactionHandler(txService *services.TransactionService, log *zap.Logger, now Clock) *TransactionHandler {
	return &TransactionHandler{
		txService: txService,
		log:       log,
		now:       now,
	}
}

// List lists transactions
// @Summary List transactions
// @Tags Transactions
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(20)
// @Param type query string false "CONTRIBUTION, FINE, PAYOUT or EXPENSE"
// @Param status query string false "PENDING, VERIFIED or REJECTED"
// @Param member_id query string false "Member ID"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /transactions [get]
func (h *TransactionHandler) List(c *fiber.Ctx) error {
	params := pagination.GetParams(c)

	result, err := h.txService.List(c.UserContext(), &services.ListTransactionsInput{
		Page:     params.Page,
		Limit:    params.Limit,
		Type:     c.Query("type"),
		Status:   c.Query("status"),
		MemberID: c.Query("member_id"),
	})
	if err != nil {
		return ledgerError(c, h.log, err, "Failed to list transactions")
	}

	return response.Success(c, "Transactions retrieved successfully", result)
}

// Pending lists transactions awaiting verification
// @Summary Pending transactions
// @Tags Transactions
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(20)
// @Success 200 {object} response.Response
// @Router /transactions/pending [get]
func (h *TransactionHandler) Pending(c *fiber.Ctx) error {
	params := pagination.GetParams(c)

	result, err := h.txService.Pending(c.UserContext(), params.Page, params.Limit)
	if err != nil {
		return ledgerError(c, h.log, err, "Failed to list pending transactions")
	}

	return response.Success(c, "Pending transactions retrieved successfully", result)
}

// Get gets a transaction
// @Summary Get transaction
// @Tags Transactions
// @Produce json
// @Security BearerAuth
// @Param id path string true "Transaction ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /transactions/{id} [get]
func (h *TransactionHandler) Get(c *fiber.Ctx) error {
	tx, err := h.txService.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return ledgerError(c, h.log, err, "Failed to get transaction")
	}

	return response.Success(c, "Transaction retrieved successfully", tx.ToResponse())
}

// Submit records a PENDING transaction
// @Summary Submit transaction
// @Description Validate and record a ledger entry awaiting verification
// @Tags Transactions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.SubmitTransactionInput true "Transaction"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /transactions [post]
func (h *TransactionHandler) Submit(c *fiber.Ctx) error {
	actor, ok := currentActor(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	var req services.SubmitTransactionInput
	if ok, err := bind(c, &req); !ok {
		return err
	}

	tx, err := h.txService.Submit(c.UserContext(), &req, actor, h.now())
	if err != nil {
		return ledgerError(c, h.log, err, "Failed to record transaction")
	}

	return response.Created(c, "Transaction recorded successfully", tx.ToResponse())
}

// Update edits a PENDING transaction
// @Summary Update transaction
// @Tags Transactions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Transaction ID"
// @Param body body services.UpdateTransactionInput true "Fields to change"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /transactions/{id} [put]
func (h *TransactionHandler) Update(c *fiber.Ctx) error {
	actor, ok := currentActor(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	var req services.UpdateTransactionInput
	if ok, err := bind(c, &req); !ok {
		return err
	}

	tx, err := h.txService.Update(c.UserContext(), c.Params("id"), &req, actor)
	if err != nil {
		return ledgerError(c, h.log, err, "Failed to update transaction")
	}

	return response.Success(c, "Transaction updated successfully", tx.ToResponse())
}

// Verify marks a transaction VERIFIED
// @Summary Verify transaction
// @Tags Transactions
// @Produce json
// @Security BearerAuth
// @Param id path string true "Transaction ID"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /transactions/{id}/verify [post]
func (h *TransactionHandler) Verify(c *fiber.Ctx) error {
	actor, ok := currentActor(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	tx, err := h.txService.Verify(c.UserContext(), c.Params("id"), actor, h.now())
	if err != nil {
		return ledgerError(c, h.log, err, "Failed to verify transaction")
	}

	return response.Success(c, "Transaction verified successfully", tx.ToResponse())
}

// Reject marks a transaction REJECTED
// @Summary Reject transaction
// @Tags Transactions
// @Produce json
// @Security BearerAuth
// @Param id path string true "Transaction ID"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /transactions/{id}/reject [post]
func (h *TransactionHandler) Reject(c *fiber.Ctx) error {
	actor, ok := currentActor(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	tx, err := h.txService.Reject(c.UserContext(), c.Params("id"), actor, h.now())
	if err != nil {
		return ledgerError(c, h.log, err, "Failed to reject transaction")
	}

	return response.Success(c, "Transaction rejected successfully", tx.ToResponse())
}
