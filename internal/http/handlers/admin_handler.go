package handlers

import (
	"github.com/gofiber/fiber/v2"

	"parkshare/internal/admin"
	"parkshare/internal/announce"
	applog "parkshare/internal/log"
)

type AdminHandler struct {
	Guard    *admin.Guard
	Announce *announce.Store
}

func (h *AdminHandler) AnnounceForm(c *fiber.Ctx) error {
	ann := h.Announce.Load()
	data := fiber.Map{"Key": c.Query("k")}
	if ann != nil {
		data["Announcement"] = ann
	}
	return render(c, "admin_announce", data)
}

func (h *AdminHandler) AnnounceSave(c *fiber.Ctx) error {
	enabled := c.FormValue("enabled") == "on"
	err := h.Announce.Save(
		c.FormValue("title"),
		c.FormValue("body"),
		c.FormValue("level"),
		enabled,
	)
	if err != nil {
		applog.Error(c, "admin.announce.save", err, nil)
		return fiber.ErrInternalServerError
	}
	applog.Audit(c, "admin.announce.save", map[string]any{"enabled": enabled})
	return c.Redirect("/admin/announce?k="+c.Query("k"), fiber.StatusSeeOther)
}
