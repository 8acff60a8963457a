package services

import (
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"

	"parkshare/internal/dates"
	"parkshare/internal/repos"
)

const (
	portalPageSize  = 14
	historyPageSize = 50
)

// PortalService builds the owner's read-only views; all mutations go
// through the ReservationService.
type PortalService struct {
	Spots    *repos.SpotRepo
	Offers   *repos.OfferRepo
	Bookings *repos.BookingRepo

	Zone     *time.Location
	MaxAhead int
}

func NewPortalService(db *sqlx.DB, zone *time.Location, maxAhead int) *PortalService {
	return &PortalService{
		Spots:    repos.NewSpotRepo(db),
		Offers:   repos.NewOfferRepo(db),
		Bookings: repos.NewBookingRepo(db),
		Zone:     zone,
		MaxAhead: maxAhead,
	}
}

type PortalRow struct {
	Day           string
	Offered       bool
	BookingStatus string // empty when no booking row exists
	BookerEmail   string
}

type PortalView struct {
	Spot      string
	Code      string
	Rows      []PortalRow
	Page      int
	HasPrev   bool
	HasNext   bool
	PageStart string
	PageEnd   string
}

// Portal returns the 14-day window starting at today + page*14, clamped to
// the booking horizon.
func (s *PortalService) Portal(code string, page int) (*PortalView, error) {
	if page < 0 {
		page = 0
	}
	spot, err := s.Spots.ByOwnerCode(code)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrUnknownSpot
		}
		return nil, err
	}

	today := dates.Today(s.Zone)
	maxDay := today.AddDays(s.MaxAhead)

	start := today.AddDays(page * portalPageSize)
	if start.After(maxDay) {
		start = maxDay
	}
	remaining := start.DaysUntil(maxDay) + 1
	n := portalPageSize
	if remaining < n {
		n = remaining
	}
	if n < 0 {
		n = 0
	}

	view := &PortalView{
		Spot:      spot.Name,
		Code:      code,
		Page:      page,
		HasPrev:   page > 0,
		HasNext:   !start.AddDays(portalPageSize).After(maxDay),
		PageStart: start.String(),
		PageEnd:   start.String(),
	}

	for i := 0; i < n; i++ {
		d := start.AddDays(i)
		offered, err := s.Offers.Exists(spot.ID, d.String())
		if err != nil {
			return nil, err
		}
		status, booker, _, err := s.Bookings.StatusForDay(spot.ID, d.String())
		if err != nil {
			return nil, err
		}
		view.Rows = append(view.Rows, PortalRow{
			Day:           d.String(),
			Offered:       offered,
			BookingStatus: status,
			BookerEmail:   booker,
		})
		view.PageEnd = d.String()
	}
	return view, nil
}

type HistoryView struct {
	Spot    string
	Code    string
	Rows    []repos.HistoryRow
	Page    int
	HasPrev bool
	HasNext bool
}

// History pages through the spot's full booking history, newest first.
func (s *PortalService) History(code string, page int) (*HistoryView, error) {
	if page < 0 {
		page = 0
	}
	spot, err := s.Spots.ByOwnerCode(code)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrUnknownSpot
		}
		return nil, err
	}

	total, err := s.Bookings.CountBySpot(spot.ID)
	if err != nil {
		return nil, err
	}
	offset := page * historyPageSize
	rows, err := s.Bookings.PageBySpot(spot.ID, historyPageSize, offset)
	if err != nil {
		return nil, err
	}

	return &HistoryView{
		Spot:    spot.Name,
		Code:    code,
		Rows:    rows,
		Page:    page,
		HasPrev: page > 0,
		HasNext: offset+historyPageSize < total,
	}, nil
}
