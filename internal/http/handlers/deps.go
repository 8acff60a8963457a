package handlers

import (
	"parkshare/internal/admin"
	"parkshare/internal/announce"
	"parkshare/internal/config"
	"parkshare/internal/plan"
	"parkshare/internal/repos"
	"parkshare/internal/services"

	"github.com/jmoiron/sqlx"
)

type Deps struct {
	HomeHandler    *HomeHandler
	DayHandler     *DayHandler
	BookingHandler *BookingHandler
	SeriesHandler  *SeriesHandler
	OwnerHandler   *OwnerHandler
	AdminHandler   *AdminHandler
	PlanHandler    *PlanHandler
}

func NewDeps(db *sqlx.DB, cfg config.Config, guard *admin.Guard) *Deps {
	spotRepo := repos.NewSpotRepo(db)
	offerRepo := repos.NewOfferRepo(db)
	bookingRepo := repos.NewBookingRepo(db)

	engine := services.NewReservationService(db, cfg.Zone, cfg.MaxAheadDays, config.SeriesRangeCap)
	portal := services.NewPortalService(db, cfg.Zone, cfg.MaxAheadDays)

	annStore := announce.NewStore(cfg.DataDir)
	planStore := plan.NewStore(cfg.DataDir)

	return &Deps{
		HomeHandler:    &HomeHandler{Announce: annStore},
		DayHandler:     &DayHandler{Offers: offerRepo},
		BookingHandler: &BookingHandler{Engine: engine, Bookings: bookingRepo},
		SeriesHandler:  &SeriesHandler{Engine: engine, Spots: spotRepo},
		OwnerHandler:   &OwnerHandler{Engine: engine, Portal: portal, Spots: spotRepo},
		AdminHandler:   &AdminHandler{Guard: guard, Announce: annStore},
		PlanHandler:    &PlanHandler{Guard: guard, Labels: planStore, Cfg: cfg},
	}
}
