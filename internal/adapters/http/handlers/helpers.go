package handlers

import (
	"errors"
	"time"

	"chamanexus/internal/adapters/http/middleware"
	"chamanexus/internal/core/domain"
	"chamanexus/internal/core/services"
	"chamanexus/internal/pkg/response"
	"chamanexus/internal/pkg/validation"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Clock returns the current time. Tests replace it.
type Clock func() time.Time

// currentUserID returns the authenticated user id set by the auth middleware
func currentUserID(c *fiber.Ctx) (string, bool) {
	userID, ok := c.Locals(middleware.LocalUserID).(string)
	return userID, ok && userID != ""
}

// currentActor returns the actor set by the actor middleware
func currentActor(c *fiber.Ctx) (domain.Actor, bool) {
	actor, ok := c.Locals(middleware.LocalActor).(domain.Actor)
	return actor, ok
}

// bind parses the JSON body into dst and checks its validate tags.
// It writes the 400 response itself and reports false on failure.
func bind(c *fiber.Ctx, dst interface{}) (bool, error) {
	if err := c.BodyParser(dst); err != nil {
		return false, response.BadRequest(c, "Invalid request body")
	}
	if err := validation.Struct(dst); err != nil {
		var verr *validation.Error
		if errors.As(err, &verr) {
			return false, response.FieldError(c, fiber.StatusBadRequest, verr.Field, verr.Message)
		}
		return false, response.BadRequest(c, err.Error())
	}
	return true, nil
}

// ledgerError maps a domain or service error to a response
func ledgerError(c *fiber.Ctx, log *zap.Logger, err error, fallback string) error {
	if verr, ok := domain.AsValidationError(err); ok {
		status := fiber.StatusBadRequest
		if errors.Is(err, domain.ErrDuplicateReference) {
			status = fiber.StatusConflict
		}
		return response.FieldError(c, status, verr.Field, verr.Message)
	}

	switch {
	case errors.Is(err, domain.ErrNotAuthorized):
		return response.Forbidden(c, "Only an active treasurer or admin can perform this action")
	case errors.Is(err, domain.ErrTransactionNotFound):
		return response.NotFound(c, "Transaction not found")
	case errors.Is(err, domain.ErrMemberNotFound):
		return response.NotFound(c, "Member not found")
	case errors.Is(err, domain.ErrGroupNotFound):
		return response.NotFound(c, "Chama group not found")
	case errors.Is(err, services.ErrUserNotFound):
		return response.NotFound(c, "User not found")
	case errors.Is(err, domain.ErrMemberNotLinked):
		return response.NotFound(c, "No member is linked to this account")
	case errors.Is(err, domain.ErrAlreadyVerified):
		return response.Conflict(c, "Transaction is already verified")
	case errors.Is(err, domain.ErrAlreadyRejected):
		return response.Conflict(c, "Transaction is already rejected")
	case errors.Is(err, domain.ErrTransactionFinalized):
		return response.Conflict(c, "Transaction is no longer pending")
	case errors.Is(err, domain.ErrUserAlreadyLinked):
		return response.Conflict(c, "User is already linked to another member")
	}

	log.Error(fallback, zap.String("path", c.Path()), zap.Error(err))
	return response.InternalServerError(c, fallback)
}
