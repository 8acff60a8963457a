package handlers

import (
	"parkshare/internal/domain"
	applog "parkshare/internal/log"
	"parkshare/internal/repos"
	"parkshare/internal/validate"

	"github.com/gofiber/fiber/v2"
)

type DayHandler struct {
	Offers *repos.OfferRepo
}

// View lists every offered spot for one day with its booking state.
func (h *DayHandler) View(c *fiber.Ctx) error {
	day, ok := validate.Day(c.Params("day"))
	if !ok {
		applog.Security(c, "validation.fail", map[string]any{"field": "day"})
		return c.Status(fiber.StatusBadRequest).SendString("Ungültiges Datum.")
	}

	offers, err := h.Offers.ListForDay(day.String())
	if err != nil {
		applog.Error(c, "day.list", err, map[string]any{"day": day.String()})
		return fiber.ErrInternalServerError
	}

	type row struct {
		Spot   string
		Booked bool
	}
	rows := make([]row, 0, len(offers))
	for _, o := range offers {
		booked := o.BookingStatus != nil && *o.BookingStatus == domain.StatusActive
		rows = append(rows, row{Spot: o.Spot, Booked: booked})
	}
	return render(c, "day", fiber.Map{"Day": day.String(), "Offers": rows})
}
