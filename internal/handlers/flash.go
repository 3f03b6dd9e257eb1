package handlers

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
)

// Flash notices are one-shot messages carried on the session between a
// redirect and the next page render.

// setFlash stages a notice on the session. The caller saves the session,
// usually together with its other writes.
func setFlash(sess *session.Session, kind, message string) {
	sess.Set("flash_kind", kind)
	sess.Set("flash", message)
}

// popFlash returns the pending notice and clears it.
func popFlash(sess *session.Session) (kind, message string) {
	kind, _ = sess.Get("flash_kind").(string)
	message, _ = sess.Get("flash").(string)
	if message != "" {
		sess.Delete("flash_kind")
		sess.Delete("flash")
		if err := sess.Save(); err != nil {
			log.Printf("Failed to clear flash notice: %v", err)
		}
	}
	return kind, message
}

// pendingNotice pops the flash notice for a page render.
func pendingNotice(store *session.Store, c *fiber.Ctx) (kind, message string) {
	sess, err := store.Get(c)
	if err != nil {
		log.Printf("Failed to load session: %v", err)
		return "", ""
	}
	return popFlash(sess)
}

// redirectWithNotice stages a flash notice and redirects.
func redirectWithNotice(store *session.Store, c *fiber.Ctx, location, kind, message string) error {
	sess, err := store.Get(c)
	if err != nil {
		log.Printf("Failed to load session: %v", err)
		return c.Redirect(location, fiber.StatusSeeOther)
	}
	setFlash(sess, kind, message)
	if err := sess.Save(); err != nil {
		log.Printf("Failed to save session: %v", err)
	}
	return c.Redirect(location, fiber.StatusSeeOther)
}
