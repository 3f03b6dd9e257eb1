package middleware

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
)

// AuthRequired is a Fiber middleware that requires a logged-in session.
// Requests without a bound username are redirected to the login page before
// any store access happens.
func AuthRequired(store *session.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, err := store.Get(c)
		if err != nil {
			log.Printf("Failed to load session: %v", err)
			return c.Redirect("/login", fiber.StatusSeeOther)
		}

		username, ok := sess.Get("username").(string)
		if !ok || username == "" {
			sess.Set("flash_kind", "error")
			sess.Set("flash", "Please log in to continue.")
			if err := sess.Save(); err != nil {
				log.Printf("Failed to save session: %v", err)
			}
			return c.Redirect("/login", fiber.StatusSeeOther)
		}

		// Store the claim in the Fiber context for subsequent handlers.
		c.Locals("username", username)

		return c.Next()
	}
}
