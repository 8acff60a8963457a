package handlers

import (
	"database/sql"
	"fmt"

	"github.com/gofiber/fiber/v2"

	"parkshare/internal/dates"
	"parkshare/internal/domain"
	applog "parkshare/internal/log"
	"parkshare/internal/repos"
	"parkshare/internal/services"
	"parkshare/internal/validate"
)

type OwnerHandler struct {
	Engine *services.ReservationService
	Portal *services.PortalService
	Spots  *repos.SpotRepo
}

func (h *OwnerHandler) LoginForm(c *fiber.Ctx) error {
	return render(c, "owner_login", nil)
}

// Login resolves the presented owner code and bounces into the portal.
func (h *OwnerHandler) Login(c *fiber.Ctx) error {
	code, ok := validate.OwnerCode(c.FormValue("code"))
	if !ok {
		applog.Security(c, "owner.login.fail", nil)
		c.Status(fiber.StatusUnauthorized)
		return render(c, "owner_login", fiber.Map{"Error": "Code unbekannt."})
	}
	if _, err := h.Spots.ByOwnerCode(code); err != nil {
		applog.Security(c, "owner.login.fail", nil)
		c.Status(fiber.StatusUnauthorized)
		return render(c, "owner_login", fiber.Map{"Error": "Code unbekannt."})
	}
	return c.Redirect(fmt.Sprintf("/owner/portal?code=%s&p=0", code), fiber.StatusSeeOther)
}

func (h *OwnerHandler) PortalView(c *fiber.Ctx) error {
	code, ok := validate.OwnerCode(c.Query("code"))
	if !ok {
		return c.Redirect("/owner", fiber.StatusSeeOther)
	}
	v, err := h.Portal.Portal(code, validate.Page(c.Query("p")))
	if err != nil {
		if err == services.ErrUnknownSpot {
			return c.Redirect("/owner", fiber.StatusSeeOther)
		}
		applog.Error(c, "owner.portal", err, nil)
		return fiber.ErrInternalServerError
	}
	return render(c, "owner", fiber.Map{
		"View":     v,
		"PrevPage": v.Page - 1,
		"NextPage": v.Page + 1,
	})
}

func (h *OwnerHandler) Bookings(c *fiber.Ctx) error {
	code, ok := validate.OwnerCode(c.Query("code"))
	if !ok {
		return c.Redirect("/owner", fiber.StatusSeeOther)
	}
	v, err := h.Portal.History(code, validate.Page(c.Query("p")))
	if err != nil {
		if err == services.ErrUnknownSpot {
			return c.Redirect("/owner", fiber.StatusSeeOther)
		}
		applog.Error(c, "owner.bookings", err, nil)
		return fiber.ErrInternalServerError
	}
	return render(c, "owner_bookings", fiber.Map{
		"View":     v,
		"PortalP":  validate.Page(c.Query("portal_p")),
		"PrevPage": v.Page - 1,
		"NextPage": v.Page + 1,
	})
}

// spotFromForm authenticates the posted owner code. A nil spot means the
// response has already been written.
func (h *OwnerHandler) spotFromForm(c *fiber.Ctx) (*domain.Spot, error) {
	code, ok := validate.OwnerCode(c.FormValue("code"))
	if !ok {
		applog.Security(c, "owner.code.fail", nil)
		return nil, c.Status(fiber.StatusUnauthorized).SendString("Code unbekannt")
	}
	spot, err := h.Spots.ByOwnerCode(code)
	if err != nil {
		if err == sql.ErrNoRows {
			applog.Security(c, "owner.code.fail", nil)
			return nil, c.Status(fiber.StatusUnauthorized).SendString("Code unbekannt")
		}
		return nil, err
	}
	return spot, nil
}

func (h *OwnerHandler) backToPortal(c *fiber.Ctx, spot *domain.Spot) error {
	return c.Redirect(fmt.Sprintf("/owner/portal?code=%s&p=%d", spot.OwnerCode, validate.Page(c.FormValue("p"))), fiber.StatusSeeOther)
}

func (h *OwnerHandler) Offer(c *fiber.Ctx) error {
	spot, err := h.spotFromForm(c)
	if spot == nil {
		return err
	}
	day, ok := validate.Day(c.FormValue("day"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).SendString("Ungültiges Datum.")
	}
	if err := h.Engine.Offer(spot.ID, day); err != nil {
		applog.Error(c, "owner.offer.fail", err, map[string]any{"spot": spot.Name, "day": day.String()})
		return fiber.ErrInternalServerError
	}
	applog.Audit(c, "owner.offer", map[string]any{"spot": spot.Name, "day": day.String()})
	return h.backToPortal(c, spot)
}

func (h *OwnerHandler) Withdraw(c *fiber.Ctx) error {
	spot, err := h.spotFromForm(c)
	if spot == nil {
		return err
	}
	day, ok := validate.Day(c.FormValue("day"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).SendString("Ungültiges Datum.")
	}
	reason := validate.Reason(c.FormValue("reason"))

	if err := h.Engine.Withdraw(spot.ID, day, reason); err != nil {
		if err == services.ErrWithdrawTooLate {
			return c.Status(fiber.StatusBadRequest).SendString("Zu spät: Rückzug nur mindestens 1 Tag vorher.")
		}
		applog.Error(c, "owner.withdraw.fail", err, map[string]any{"spot": spot.Name, "day": day.String()})
		return fiber.ErrInternalServerError
	}
	applog.Audit(c, "owner.withdraw", map[string]any{"spot": spot.Name, "day": day.String()})
	return h.backToPortal(c, spot)
}

// seriesRange parses the shared start/end/weekday fields of the series
// forms; ok=false means the response has been written.
func (h *OwnerHandler) seriesRange(c *fiber.Ctx) (start, end dates.Day, weekdays map[int]bool, ok bool) {
	var valid bool
	start, valid = validate.Day(c.FormValue("start_day"))
	if !valid {
		_ = c.Status(fiber.StatusBadRequest).SendString("Ungültiges Datum.")
		return
	}
	end, valid = validate.Day(c.FormValue("end_day"))
	if !valid {
		_ = c.Status(fiber.StatusBadRequest).SendString("Ungültiges Datum.")
		return
	}
	weekdays, valid = validate.Weekdays(formValues(c, "weekdays"))
	if !valid {
		_ = c.Status(fiber.StatusBadRequest).SendString("Bitte mindestens einen Wochentag wählen.")
		return
	}
	return start, end, weekdays, true
}

func seriesErrStatus(c *fiber.Ctx, err error) error {
	switch err {
	case services.ErrInvalidDateRange:
		return c.Status(fiber.StatusBadRequest).SendString("Ende liegt vor Start.")
	case services.ErrRangeTooLarge:
		return c.Status(fiber.StatusBadRequest).SendString("Zeitraum zu groß (max 12 Monate).")
	case services.ErrNoWeekdaySelected:
		return c.Status(fiber.StatusBadRequest).SendString("Bitte mindestens einen Wochentag wählen.")
	}
	applog.Error(c, "owner.series.fail", err, nil)
	return fiber.ErrInternalServerError
}

func (h *OwnerHandler) OfferSeries(c *fiber.Ctx) error {
	spot, err := h.spotFromForm(c)
	if spot == nil {
		return err
	}
	start, end, weekdays, ok := h.seriesRange(c)
	if !ok {
		return nil
	}
	inserted, err := h.Engine.OfferSeries(spot.ID, start, end, weekdays)
	if err != nil {
		return seriesErrStatus(c, err)
	}
	applog.Audit(c, "owner.offer_series", map[string]any{"spot": spot.Name, "inserted": inserted})
	return h.backToPortal(c, spot)
}

func (h *OwnerHandler) WithdrawSeries(c *fiber.Ctx) error {
	spot, err := h.spotFromForm(c)
	if spot == nil {
		return err
	}
	start, end, weekdays, ok := h.seriesRange(c)
	if !ok {
		return nil
	}
	reason := validate.Reason(c.FormValue("reason"))
	withdrawn, err := h.Engine.WithdrawSeries(spot.ID, start, end, weekdays, reason)
	if err != nil {
		return seriesErrStatus(c, err)
	}
	applog.Audit(c, "owner.withdraw_series", map[string]any{"spot": spot.Name, "withdrawn": withdrawn})
	return h.backToPortal(c, spot)
}

func (h *OwnerHandler) WithdrawAll(c *fiber.Ctx) error {
	spot, err := h.spotFromForm(c)
	if spot == nil {
		return err
	}
	reason := validate.Reason(c.FormValue("reason"))
	if err := h.Engine.WithdrawAll(spot.ID, reason); err != nil {
		applog.Error(c, "owner.withdraw_all.fail", err, map[string]any{"spot": spot.Name})
		return fiber.ErrInternalServerError
	}
	applog.Audit(c, "owner.withdraw_all", map[string]any{"spot": spot.Name})
	return h.backToPortal(c, spot)
}
