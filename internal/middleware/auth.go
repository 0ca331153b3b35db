// Package middleware provides HTTP middleware components for the application.
// It resolves the caller's identity from a bearer token and gates routes by
// role and permission.
package middleware

import (
	"log"
	"strings"

	"crewpay/internal/models"
	"crewpay/internal/utils"
	"crewpay/internal/utils/response"

	"github.com/gofiber/fiber/v2"
)

// AuthMiddleware handles JWT token validation. Tokens are issued
// elsewhere; this only verifies them and exposes the actor.
type AuthMiddleware struct {
	secret []byte
}

func NewAuthMiddleware(secret string) *AuthMiddleware {
	return &AuthMiddleware{secret: []byte(secret)}
}

// Handler validates the bearer token and stores the claims and actor in
// the request locals.
func (m *AuthMiddleware) Handler(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return response.Error(c, fiber.StatusUnauthorized, "missing authorization header")
	}
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return response.Error(c, fiber.StatusUnauthorized, "invalid authorization format")
	}
	tokenString := strings.TrimPrefix(authHeader, "Bearer ")

	claims, err := utils.ParseToken(m.secret, tokenString)
	if err != nil {
		log.Printf("Token validation error: %v", err)
		return response.Error(c, fiber.StatusUnauthorized, "invalid token")
	}
	if claims.UserID == 0 && claims.Role != models.RoleSystem {
		return response.Error(c, fiber.StatusUnauthorized, "invalid claims")
	}

	c.Locals("claims", claims)
	c.Locals("userID", claims.UserID)
	c.Locals("actor", claims.Actor())
	return c.Next()
}

// ActorFrom returns the actor stored by AuthMiddleware.
func ActorFrom(c *fiber.Ctx) (models.Actor, bool) {
	actor, ok := c.Locals("actor").(models.Actor)
	return actor, ok
}

// RequireRole allows the request through only for the listed roles.
func RequireRole(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, ok := ActorFrom(c)
		if !ok {
			return response.Unauthorized(c)
		}
		for _, role := range roles {
			if actor.Role == role {
				return c.Next()
			}
		}
		log.Printf("Access denied: user %d has role %s", actor.UserID, actor.Role)
		return response.Error(c, fiber.StatusForbidden, "Insufficient permissions")
	}
}

// HasPermission returns a middleware that checks for a specific permission.
// Admins pass every check.
func HasPermission(permission string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, ok := c.Locals("claims").(*models.UserClaims)
		if !ok {
			return response.Unauthorized(c)
		}
		if claims.Role == models.RoleAdmin || claims.HasPermission(permission) {
			return c.Next()
		}
		return response.Error(c, fiber.StatusForbidden, "Insufficient permissions")
	}
}
