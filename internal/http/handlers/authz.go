package handlers

import (
	"parkshare/internal/admin"
	applog "parkshare/internal/log"

	"github.com/gofiber/fiber/v2"
)

// RequireAdminCode guards the announcement editor and the plan labeler.
// The capability is presented as the k query parameter, as the admin links
// are shared out-of-band.
func RequireAdminCode(guard *admin.Guard) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !guard.Verify(c.Query("k")) {
			applog.Security(c, "access.denied.admin", nil)
			return c.Status(fiber.StatusForbidden).SendString("Forbidden")
		}
		return c.Next()
	}
}
