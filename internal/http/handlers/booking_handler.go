package handlers

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	applog "parkshare/internal/log"
	"parkshare/internal/repos"
	"parkshare/internal/services"
	"parkshare/internal/validate"
)

type BookingHandler struct {
	Engine   *services.ReservationService
	Bookings *repos.BookingRepo
}

// Book reserves a single offered day and redirects to the manage page; the
// manage link is the booker's only credential, shown immediately since the
// deployment sends no mail.
func (h *BookingHandler) Book(c *fiber.Ctx) error {
	day, ok := validate.Day(c.FormValue("day"))
	if !ok {
		applog.Security(c, "validation.fail", map[string]any{"field": "day"})
		return c.Status(fiber.StatusBadRequest).SendString("Ungültiges Datum.")
	}
	spot, ok := validate.SpotName(c.FormValue("spot"))
	if !ok {
		applog.Security(c, "validation.fail", map[string]any{"field": "spot"})
		return c.Status(fiber.StatusBadRequest).SendString("Unbekannter Parkplatz")
	}

	token, err := h.Engine.Book(spot, day)
	if err != nil {
		switch err {
		case services.ErrUnknownSpot:
			return c.Status(fiber.StatusBadRequest).SendString("Unbekannter Parkplatz")
		case services.ErrNotOffered:
			return c.Status(fiber.StatusBadRequest).SendString("Dieser Parkplatz ist an dem Tag nicht angeboten.")
		case services.ErrAlreadyBooked:
			return c.Status(fiber.StatusConflict).SendString("Schon gebucht.")
		case repos.ErrConflict:
			// Race loser: pre-check passed, the store said no.
			applog.Security(c, "book.race", map[string]any{"spot": spot, "day": day.String()})
			return c.Status(fiber.StatusConflict).SendString("Buchung nicht möglich, bitte erneut versuchen.")
		}
		applog.Error(c, "book.fail", err, map[string]any{"spot": spot, "day": day.String()})
		return fiber.ErrInternalServerError
	}

	applog.Audit(c, "book", map[string]any{"spot": spot, "day": day.String()})
	return c.Redirect("/manage/"+token, fiber.StatusSeeOther)
}

func (h *BookingHandler) Manage(c *fiber.Ctx) error {
	token := c.Params("token")
	b, spotName, err := h.Bookings.ByToken(token)
	if err != nil {
		return c.Status(fiber.StatusNotFound).SendString("Ungültiger Link.")
	}
	return render(c, "manage", fiber.Map{
		"Spot":    spotName,
		"Booking": b,
		"Token":   token,
	})
}

// Download hands out a small text file with the manage link so bookers can
// keep it somewhere safe.
func (h *BookingHandler) Download(c *fiber.Ctx) error {
	token := c.Params("token")
	if _, _, err := h.Bookings.ByToken(token); err != nil {
		return c.Status(fiber.StatusNotFound).SendString("Ungültiger Link.")
	}
	link := c.BaseURL() + "/manage/" + token
	short := token
	if len(short) > 6 {
		short = short[:6]
	}
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=booking-link-%s.txt", short))
	return c.SendString("Buchungslink (bitte speichern):\n" + link + "\n")
}

func (h *BookingHandler) Cancel(c *fiber.Ctx) error {
	token := c.Params("token")
	reason := validate.Reason(c.FormValue("reason"))

	if err := h.Engine.CancelByToken(token, reason); err != nil {
		if err == services.ErrInvalidToken {
			return c.Status(fiber.StatusNotFound).SendString("Ungültiger Link.")
		}
		applog.Error(c, "booking.cancel.fail", err, nil)
		return fiber.ErrInternalServerError
	}
	applog.Audit(c, "booking.cancel", nil)
	return c.Redirect("/manage/"+token, fiber.StatusSeeOther)
}
