package middleware

import (
	"time"

	"quizforge/internal/config"
	"quizforge/internal/util"

	"github.com/gofiber/fiber/v2"
)

// SessionIDKey is the fiber.Ctx locals key holding the session id.
const SessionIDKey = "sessionID"

// Session assigns every client a ULID session id kept in an HTTP-only cookie.
// Each request refreshes the cookie expiry.
func Session(cfg config.SessionConfig) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Cookies(cfg.CookieName)
		if !util.IsValidULID(id) {
			id = util.NewULID()
		}

		cookie := &fiber.Cookie{
			Name:     cfg.CookieName,
			Value:    id,
			Path:     "/",
			HTTPOnly: true,
			SameSite: fiber.CookieSameSiteLaxMode,
		}
		if cfg.TTL > 0 {
			cookie.Expires = time.Now().Add(cfg.TTL)
		}
		c.Cookie(cookie)

		c.Locals(SessionIDKey, id)
		return c.Next()
	}
}

// SessionID returns the id set by Session, or "" outside of it.
func SessionID(c *fiber.Ctx) string {
	id, _ := c.Locals(SessionIDKey).(string)
	return id
}
