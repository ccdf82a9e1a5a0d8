package middleware

import (
	"errors"
	"strings"

	"github.com/DanielPPerez/API-Estancia2/internal/models"
	"github.com/DanielPPerez/API-Estancia2/internal/security"
	"github.com/DanielPPerez/API-Estancia2/internal/services"
	"github.com/DanielPPerez/API-Estancia2/internal/types"
	"github.com/gofiber/fiber/v2"
)

// LegacyTokenHeader is still accepted for clients that predate bearer tokens
const LegacyTokenHeader = "x-access-token"

const userIDKey = "userId"

// VerifyToken validates the access token and stores the caller's id in the context
func VerifyToken(issuer security.TokenIssuer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := bearerToken(c.Get(fiber.HeaderAuthorization))
		if token == "" {
			token = strings.TrimSpace(c.Get(LegacyTokenHeader))
		}
		if token == "" {
			return types.Forbidden("No token provided!", "auth.token")
		}

		claims, err := issuer.Parse(token)
		if err != nil {
			if errors.Is(err, security.ErrTokenExpired) {
				return types.Unauthorized("Unauthorized! Access Token was expired!", "auth.token.expired")
			}
			return types.Unauthorized("Unauthorized!", "auth.token")
		}

		c.Locals(userIDKey, claims.UserID)
		return c.Next()
	}
}

func bearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// UserID returns the id stored by VerifyToken, or 0
func UserID(c *fiber.Ctx) uint {
	id, _ := c.Locals(userIDKey).(uint)
	return id
}

// RequireRole allows the request when the caller holds any of roles
func RequireRole(resolver *services.RoleResolver, message string, roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ok, err := resolver.HasAnyRole(c.UserContext(), UserID(c), roles...)
		if err != nil {
			return err
		}
		if !ok {
			return types.Forbidden(message, "auth.role")
		}
		return c.Next()
	}
}

// AuthAdmin requires the admin role
func AuthAdmin(resolver *services.RoleResolver) fiber.Handler {
	return RequireRole(resolver, "Require Admin Role!", models.RoleAdmin)
}

// AuthEvaluadorOrAdmin requires the evaluador or admin role
func AuthEvaluadorOrAdmin(resolver *services.RoleResolver) fiber.Handler {
	return RequireRole(resolver, "Require Evaluador or Admin Role!", models.RoleEvaluador, models.RoleAdmin)
}

// AuthModeratorOrAdmin requires the moderator or admin role
func AuthModeratorOrAdmin(resolver *services.RoleResolver) fiber.Handler {
	return RequireRole(resolver, "Require Moderator or Admin Role!", models.RoleModerator, models.RoleAdmin)
}

// AuthModerator requires the moderator role
func AuthModerator(resolver *services.RoleResolver) fiber.Handler {
	return RequireRole(resolver, "Require Moderator Role!", models.RoleModerator)
}
