package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "parkshare/internal/log"
	"parkshare/internal/repos"
	"parkshare/internal/services"
	"parkshare/internal/validate"
)

type SeriesHandler struct {
	Engine *services.ReservationService
	Spots  *repos.SpotRepo
}

func (h *SeriesHandler) formData(c *fiber.Ctx) fiber.Map {
	names, err := h.Spots.ListNames()
	if err != nil {
		applog.Error(c, "series.spots", err, nil)
	}
	spot, _ := validate.SpotName(c.Query("spot"))
	return fiber.Map{
		"Spots":        names,
		"PrefillSpot":  spot,
		"PrefillStart": c.Query("start"),
		"PrefillEnd":   c.Query("end"),
	}
}

func (h *SeriesHandler) Form(c *fiber.Ctx) error {
	return render(c, "series", h.formData(c))
}

// Book handles the visitor-facing series booking, hard or soft.
func (h *SeriesHandler) Book(c *fiber.Ctx) error {
	fail := func(msg string) error {
		data := h.formData(c)
		data["Error"] = msg
		data["PrefillSpot"] = c.FormValue("spot")
		data["PrefillStart"] = c.FormValue("start_day")
		data["PrefillEnd"] = c.FormValue("end_day")
		c.Status(fiber.StatusBadRequest)
		return render(c, "series", data)
	}

	spot, ok := validate.SpotName(c.FormValue("spot"))
	if !ok {
		return fail("Unbekannter Parkplatz")
	}
	start, ok := validate.Day(c.FormValue("start_day"))
	if !ok {
		return fail("Ungültiges Datum.")
	}
	end, ok := validate.Day(c.FormValue("end_day"))
	if !ok {
		return fail("Ungültiges Datum.")
	}
	weekdays, ok := validate.Weekdays(formValues(c, "weekdays"))
	if !ok {
		return fail("Bitte mindestens einen Wochentag wählen.")
	}
	mode := validate.Mode(c.FormValue("mode"))

	res, err := h.Engine.BookSeries(spot, start, end, weekdays, mode)
	if err != nil {
		switch err {
		case services.ErrUnknownSpot:
			return c.Status(fiber.StatusBadRequest).SendString("Unbekannter Parkplatz")
		case services.ErrInvalidDateRange:
			return fail("Ende liegt vor Start.")
		case services.ErrRangeTooLarge:
			return fail("Zeitraum zu groß (max 12 Monate).")
		case services.ErrNoWeekdaySelected:
			return fail("Bitte mindestens einen Wochentag wählen.")
		}
		applog.Error(c, "series.book.fail", err, map[string]any{"spot": spot})
		return fiber.ErrInternalServerError
	}

	type bookedView struct{ Day, Link string }
	booked := make([]bookedView, 0, len(res.Booked))
	for _, b := range res.Booked {
		booked = append(booked, bookedView{Day: b.Day, Link: c.BaseURL() + "/manage/" + b.Token})
	}

	status := fiber.StatusOK
	if res.HardFailed {
		status = fiber.StatusConflict
	}
	applog.Audit(c, "series.book", map[string]any{
		"spot": spot, "mode": mode,
		"booked": len(res.Booked), "failed": len(res.Failed), "hard_failed": res.HardFailed,
	})
	c.Status(status)
	return render(c, "series_result", fiber.Map{
		"Spot":       spot,
		"StartDay":   start.String(),
		"EndDay":     end.String(),
		"Mode":       mode,
		"Booked":     booked,
		"Failed":     res.Failed,
		"HardFailed": res.HardFailed,
	})
}

// formValues collects all posted values for a repeated form field.
func formValues(c *fiber.Ctx, key string) []string {
	args := c.Request().PostArgs().PeekMulti(key)
	out := make([]string, 0, len(args))
	for _, a := range args {
		out = append(out, string(a))
	}
	return out
}
