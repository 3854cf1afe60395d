package middleware

import (
	"errors"
	"strings"

	"chamanexus/internal/config"
	"chamanexus/internal/core/domain"
	"chamanexus/internal/core/services"
	"chamanexus/internal/pkg/jwt"
	"chamanexus/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// Locals keys set by the auth middleware
const (
	LocalUserID      = "userID"
	LocalEmail       = "email"
	LocalIsStaff     = "isStaff"
	LocalIsSuperuser = "isSuperuser"
	LocalActor       = "actor"
)

// AuthMiddleware creates authentication middleware
func AuthMiddleware(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		accessToken := extractToken(c)
		if accessToken == "" {
			return response.Unauthorized(c, "Access token required")
		}

		claims, err := jwt.ValidateAccessToken(accessToken, cfg.JWT.Secret)
		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				return response.Unauthorized(c, "Access token expired")
			}
			return response.Unauthorized(c, "Invalid access token")
		}

		c.Locals(LocalUserID, claims.UserID)
		c.Locals(LocalEmail, claims.Email)
		c.Locals(LocalIsStaff, claims.IsStaff)
		c.Locals(LocalIsSuperuser, claims.IsSuperuser)

		return c.Next()
	}
}

// ActorMiddleware loads the acting user and its linked member.
// Must run after AuthMiddleware.
func ActorMiddleware(resolver *services.ActorResolver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok := c.Locals(LocalUserID).(string)
		if !ok || userID == "" {
			return response.Unauthorized(c, "Unauthorized")
		}

		actor, err := resolver.Resolve(c.UserContext(), userID)
		if err != nil {
			switch {
			case errors.Is(err, services.ErrUserNotFound):
				return response.Unauthorized(c, "User no longer exists")
			case errors.Is(err, services.ErrUserInactive):
				return response.Forbidden(c, "User account is inactive")
			default:
				return response.InternalServerError(c, "Failed to load user")
			}
		}

		c.Locals(LocalActor, actor)
		return c.Next()
	}
}

// StaffOnly allows staff and superusers
func StaffOnly() fiber.Handler {
	return func(c *fiber.Ctx) error {
		isStaff, _ := c.Locals(LocalIsStaff).(bool)
		isSuperuser, _ := c.Locals(LocalIsSuperuser).(bool)
		if isStaff || isSuperuser {
			return c.Next()
		}
		return response.Forbidden(c, "You don't have permission to access this resource")
	}
}

// ManagerOnly allows actors who may manage transactions.
// Must run after ActorMiddleware.
func ManagerOnly() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, ok := c.Locals(LocalActor).(domain.Actor)
		if !ok {
			return response.Unauthorized(c, "Unauthorized")
		}
		if !domain.CanManageTransactions(actor) {
			return response.Forbidden(c, "Only an active treasurer or admin can perform this action")
		}
		return c.Next()
	}
}

// extractToken reads the access token from the cookie, then the Authorization header
func extractToken(c *fiber.Ctx) string {
	if token := c.Cookies("access_token"); token != "" {
		return token
	}

	authHeader := c.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	return ""
}
