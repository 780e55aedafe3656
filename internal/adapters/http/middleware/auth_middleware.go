package middleware

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"

	"nyumbakumi/internal/core/domain"
	"nyumbakumi/internal/pkg/response"
)

const (
	// AccessTokenCookie carries the JWT for browser clients
	AccessTokenCookie = "access_token"

	actorKey = "actor"
)

// Authenticator resolves a bearer token to the current actor
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (domain.Actor, error)
}

// tokenFrom reads the access token from the cookie first, then the
// Authorization header
func tokenFrom(c *fiber.Ctx) string {
	if token := c.Cookies(AccessTokenCookie); token != "" {
		return token
	}
	authHeader := c.Get(fiber.HeaderAuthorization)
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	}
	return ""
}

// AuthMiddleware requires a valid access token
func AuthMiddleware(auth Authenticator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := tokenFrom(c)
		if token == "" {
			return response.Unauthorized(c, "Access token required")
		}

		actor, err := auth.Authenticate(c.UserContext(), token)
		if err != nil {
			return response.FromError(c, err)
		}

		c.Locals(actorKey, actor)
		return c.Next()
	}
}

// RoleMiddleware creates role-based authorization middleware.
// It must run after AuthMiddleware.
func RoleMiddleware(allowedRoles ...domain.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor := ActorFrom(c)
		if actor.IsAnonymous() {
			return response.Unauthorized(c, "Unauthorized")
		}

		for _, role := range allowedRoles {
			if actor.Role == role {
				return c.Next()
			}
		}

		return response.Forbidden(c, "Insufficient permissions")
	}
}

// AdminOnly allows only admins
func AdminOnly() fiber.Handler {
	return RoleMiddleware(domain.RoleAdmin)
}

// LeaderOrAdmin allows leaders and admins
func LeaderOrAdmin() fiber.Handler {
	return RoleMiddleware(domain.RoleLeader, domain.RoleAdmin)
}

// ActorFrom returns the actor set by the auth middleware, or the anonymous actor
func ActorFrom(c *fiber.Ctx) domain.Actor {
	if actor, ok := c.Locals(actorKey).(domain.Actor); ok {
		return actor
	}
	return domain.Anonymous()
}
