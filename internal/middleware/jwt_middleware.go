package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"produkku/internal/services"
)

// SessionCookie is the name of the HTTP-only cookie carrying the session
// token.
const SessionCookie = "token"

// UserIDKey is the fiber.Ctx locals key under which the authenticated user's
// id is stored.
const UserIDKey = "user_id"

// AuthRequired is a Fiber middleware that checks the session cookie for a
// valid token. Requests without a valid token are rejected with 401 before
// any store access happens.
func AuthRequired(authService *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString := c.Cookies(SessionCookie)
		if tokenString == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Authentication required",
			})
		}

		userID, err := authService.ValidateToken(tokenString)
		if err != nil {
			log.Debug().Err(err).Msg("session token validation failed")
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid token",
			})
		}

		// Store the caller's id in the context for subsequent handlers
		c.Locals(UserIDKey, userID)

		return c.Next()
	}
}

// CallerID returns the authenticated user's id stored by AuthRequired.
func CallerID(c *fiber.Ctx) string {
	id, _ := c.Locals(UserIDKey).(string)
	return id
}
