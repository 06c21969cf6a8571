package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/franckabsuser/bam/internal/auth"
)

// JWTAuth guards privileged routes. A missing token is refused with 403,
// an invalid or expired one with 401. The token travels as a bearer
// header or a "token" cookie.
func JWTAuth(tokens *auth.JWTManager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := c.Cookies("token")
		if token == "" {
			header := c.Get("Authorization")
			if strings.HasPrefix(header, "Bearer ") {
				token = strings.TrimPrefix(header, "Bearer ")
			}
		}
		if token == "" {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"message": "access denied, no token provided"})
		}
		claims, err := tokens.Verify(token)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "invalid token"})
		}
		c.Locals("userId", claims.UserID)
		return c.Next()
	}
}

// UserID returns the authenticated user id set by JWTAuth, empty when the
// route is unguarded.
func UserID(c *fiber.Ctx) string {
	if v, ok := c.Locals("userId").(string); ok {
		return v
	}
	return ""
}
