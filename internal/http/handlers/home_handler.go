package handlers

import (
	"parkshare/internal/announce"

	"github.com/gofiber/fiber/v2"
)

type HomeHandler struct {
	Announce *announce.Store
}

func (h *HomeHandler) Home(c *fiber.Ctx) error {
	data := fiber.Map{}
	if a := h.Announce.Load(); a != nil {
		data["Announcement"] = a
	}
	return render(c, "home", data)
}
