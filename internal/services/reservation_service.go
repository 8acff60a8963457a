package services

import (
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"parkshare/internal/dates"
	"parkshare/internal/domain"
	"parkshare/internal/repos"
)

var (
	ErrUnknownSpot       = errors.New("unknown spot")
	ErrNotOffered        = errors.New("day is not offered")
	ErrAlreadyBooked     = errors.New("day is already booked")
	ErrInvalidToken      = errors.New("unknown manage token")
	ErrWithdrawTooLate   = errors.New("withdrawal allowed until the day before only")
	ErrInvalidDateRange  = errors.New("invalid date range")
	ErrRangeTooLarge     = errors.New("date range exceeds the cap")
	ErrNoWeekdaySelected = errors.New("no weekday selected")
)

// Per-day rejection reasons for series bookings; rendered verbatim.
const (
	ReasonPast          = "liegt in der Vergangenheit"
	ReasonBeyondHorizon = "liegt außerhalb des Buchungszeitraums"
	ReasonNotOffered    = "nicht angeboten"
	ReasonAlreadyBooked = "bereits gebucht"
)

// Default owner cancellation reasons.
const (
	reasonWithdrawOne    = "Owner hat das Angebot zurückgezogen"
	reasonWithdrawSeries = "Owner hat die Serie zurückgezogen"
	reasonWithdrawAll    = "Owner hat alle Freigaben zurückgezogen"
)

const maxReasonLen = 200

// ReservationService is the only mutator of offers and bookings. Every
// logical step runs in a single transaction; series offer/withdraw commit
// per day so an interrupted run can simply be re-issued.
type ReservationService struct {
	DB       *sqlx.DB
	Spots    *repos.SpotRepo
	Offers   *repos.OfferRepo
	Bookings *repos.BookingRepo

	Zone     *time.Location
	MaxAhead int // horizon in days from today
	RangeCap int // max series span in days
}

func NewReservationService(db *sqlx.DB, zone *time.Location, maxAhead, rangeCap int) *ReservationService {
	return &ReservationService{
		DB:       db,
		Spots:    repos.NewSpotRepo(db),
		Offers:   repos.NewOfferRepo(db),
		Bookings: repos.NewBookingRepo(db),
		Zone:     zone,
		MaxAhead: maxAhead,
		RangeCap: rangeCap,
	}
}

func (s *ReservationService) today() dates.Day { return dates.Today(s.Zone) }

func (s *ReservationService) horizon(today dates.Day) dates.Day {
	return today.AddDays(s.MaxAhead)
}

func nowISO() string {
	return time.Now().UTC().Truncate(time.Second).Format(time.RFC3339)
}

func newManageToken() (string, error) {
	var b [24]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b[:]), nil
}

func truncateReason(r string) string {
	runes := []rune(r)
	if len(runes) > maxReasonLen {
		runes = runes[:maxReasonLen]
	}
	return string(runes)
}

// Book reserves an offered (spot, day) and returns the manage token. The
// offer/collision checks and the write share one transaction; the unique
// index turns an unserialized race into repos.ErrConflict.
func (s *ReservationService) Book(spotName string, day dates.Day) (string, error) {
	spot, err := s.Spots.ByName(spotName)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", ErrUnknownSpot
		}
		return "", err
	}

	token, err := newManageToken()
	if err != nil {
		return "", err
	}

	tx, err := s.DB.Beginx()
	if err != nil {
		return "", err
	}
	defer func() { _ = tx.Rollback() }()

	offered, err := s.Offers.ExistsTx(tx, spot.ID, day.String())
	if err != nil {
		return "", err
	}
	if !offered {
		return "", ErrNotOffered
	}

	existing, err := s.Bookings.GetForDayTx(tx, spot.ID, day.String())
	if err != nil {
		return "", err
	}
	if existing != nil && existing.Status == domain.StatusActive {
		return "", ErrAlreadyBooked
	}

	if err := s.Bookings.ReplaceActiveTx(tx, uuid.NewString(), spot.ID, day.String(), "", nowISO(), token); err != nil {
		return "", err
	}
	if err := tx.Commit(); err != nil {
		return "", err
	}
	return token, nil
}

// CancelByToken lets the booker cancel their own booking. Cancelling an
// already cancelled booking succeeds without changing anything.
func (s *ReservationService) CancelByToken(token, reason string) error {
	b, _, err := s.Bookings.ByToken(token)
	if err != nil {
		if err == sql.ErrNoRows {
			return ErrInvalidToken
		}
		return err
	}
	if b.Status != domain.StatusActive {
		return nil
	}

	tx, err := s.DB.Beginx()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if err := s.Bookings.CancelByTokenTx(tx, token, domain.StatusCancelledByBooker, nowISO(), truncateReason(reason)); err != nil {
		return err
	}
	return tx.Commit()
}

// Offer marks a single day as bookable; re-offering is a no-op.
func (s *ReservationService) Offer(spotID int64, day dates.Day) error {
	tx, err := s.DB.Beginx()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := s.Offers.InsertIgnoreTx(tx, spotID, day.String(), nowISO()); err != nil {
		return err
	}
	return tx.Commit()
}

// Withdraw removes a single offered day. Only strictly future days may be
// withdrawn; an active booking for the day is owner-cancelled in the same
// transaction so offer and booking never diverge.
func (s *ReservationService) Withdraw(spotID int64, day dates.Day, reason string) error {
	if !day.After(s.today()) {
		return ErrWithdrawTooLate
	}
	tx, err := s.DB.Beginx()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if err := s.withdrawDayTx(tx, spotID, day, reason, reasonWithdrawOne); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *ReservationService) withdrawDayTx(tx *sqlx.Tx, spotID int64, day dates.Day, reason, fallback string) error {
	if err := s.Offers.DeleteDayTx(tx, spotID, day.String()); err != nil {
		return err
	}
	b, err := s.Bookings.GetForDayTx(tx, spotID, day.String())
	if err != nil {
		return err
	}
	if b == nil || b.Status != domain.StatusActive {
		return nil
	}
	r := truncateReason(reason)
	if r == "" {
		r = fallback
	}
	return s.Bookings.CancelByIDTx(tx, b.ID, domain.StatusCancelledByOwner, nowISO(), r)
}

func (s *ReservationService) checkSeries(start, end dates.Day, weekdays map[int]bool) error {
	if end.Before(start) {
		return ErrInvalidDateRange
	}
	if start.DaysUntil(end) > s.RangeCap {
		return ErrRangeTooLarge
	}
	if len(weekdays) == 0 {
		return ErrNoWeekdaySelected
	}
	return nil
}

// OfferSeries inserts offers for every day in [start, end] whose weekday is
// allowed and which lies within [today, horizon]. Out-of-window days are
// skipped silently; each day commits on its own.
func (s *ReservationService) OfferSeries(spotID int64, start, end dates.Day, weekdays map[int]bool) (int, error) {
	if err := s.checkSeries(start, end, weekdays); err != nil {
		return 0, err
	}
	today := s.today()
	maxDay := s.horizon(today)

	inserted := 0
	for _, d := range dates.Range(start, end) {
		if !weekdays[d.Weekday()] {
			continue
		}
		if d.Before(today) || d.After(maxDay) {
			continue
		}
		tx, err := s.DB.Beginx()
		if err != nil {
			return inserted, err
		}
		ok, err := s.Offers.InsertIgnoreTx(tx, spotID, d.String(), nowISO())
		if err != nil {
			_ = tx.Rollback()
			return inserted, err
		}
		if err := tx.Commit(); err != nil {
			return inserted, err
		}
		if ok {
			inserted++
		}
	}
	return inserted, nil
}

// WithdrawSeries removes offers over a range like OfferSeries, but also
// skips days that fail the one-day lead time. Each withdrawn day cancels
// its active booking in the same per-day transaction.
func (s *ReservationService) WithdrawSeries(spotID int64, start, end dates.Day, weekdays map[int]bool, reason string) (int, error) {
	if err := s.checkSeries(start, end, weekdays); err != nil {
		return 0, err
	}
	today := s.today()
	maxDay := s.horizon(today)

	withdrawn := 0
	for _, d := range dates.Range(start, end) {
		if !weekdays[d.Weekday()] {
			continue
		}
		if d.Before(today) || d.After(maxDay) {
			continue
		}
		if !d.After(today) {
			continue // lead time, skip silently
		}
		tx, err := s.DB.Beginx()
		if err != nil {
			return withdrawn, err
		}
		if err := s.withdrawDayTx(tx, spotID, d, reason, reasonWithdrawSeries); err != nil {
			_ = tx.Rollback()
			return withdrawn, err
		}
		if err := tx.Commit(); err != nil {
			return withdrawn, err
		}
		withdrawn++
	}
	return withdrawn, nil
}

// WithdrawAll drops every future offer of the spot and owner-cancels the
// matching active bookings, atomically. Today's bookings are untouched.
func (s *ReservationService) WithdrawAll(spotID int64, reason string) error {
	today := s.today().String()
	r := truncateReason(reason)
	if r == "" {
		r = reasonWithdrawAll
	}

	tx, err := s.DB.Beginx()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if err := s.Bookings.CancelActiveAfterTx(tx, spotID, today, nowISO(), r); err != nil {
		return err
	}
	if err := s.Offers.DeleteAfterTx(tx, spotID, today); err != nil {
		return err
	}
	return tx.Commit()
}

type BookedDay struct {
	Day   string
	Token string
}

type FailedDay struct {
	Day    string
	Reason string
}

// SeriesResult reports a series booking. In hard mode with failures,
// HardFailed is set, Booked is empty and Failed lists only the bad days.
type SeriesResult struct {
	Booked     []BookedDay
	Failed     []FailedDay
	HardFailed bool
}

// BookSeries books every allowed weekday in [start, end]. mode "hard"
// aborts without mutations when any target day is rejected; mode "soft"
// books what it can and reports the rest. The whole request shares one
// transaction so the hard pre-check cannot race its own writes.
func (s *ReservationService) BookSeries(spotName string, start, end dates.Day, weekdays map[int]bool, mode string) (*SeriesResult, error) {
	if err := s.checkSeries(start, end, weekdays); err != nil {
		return nil, err
	}
	spot, err := s.Spots.ByName(spotName)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrUnknownSpot
		}
		return nil, err
	}
	if mode != "soft" {
		mode = "hard"
	}

	today := s.today()
	maxDay := s.horizon(today)

	var targets []dates.Day
	for _, d := range dates.Range(start, end) {
		if weekdays[d.Weekday()] {
			targets = append(targets, d)
		}
	}

	tx, err := s.DB.Beginx()
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	res := &SeriesResult{}

	if mode == "hard" {
		for _, d := range targets {
			reason, ok, err := s.reasonForDayTx(tx, spot.ID, d, today, maxDay)
			if err != nil {
				return nil, err
			}
			if !ok {
				res.Failed = append(res.Failed, FailedDay{Day: d.String(), Reason: reason})
			}
		}
		if len(res.Failed) > 0 {
			res.HardFailed = true
			return res, nil // rollback, zero mutations
		}
	}

	for _, d := range targets {
		reason, ok, err := s.reasonForDayTx(tx, spot.ID, d, today, maxDay)
		if err != nil {
			return nil, err
		}
		if !ok {
			res.Failed = append(res.Failed, FailedDay{Day: d.String(), Reason: reason})
			continue
		}
		token, err := newManageToken()
		if err != nil {
			return nil, err
		}
		if err := s.Bookings.ReplaceActiveTx(tx, uuid.NewString(), spot.ID, d.String(), "", nowISO(), token); err != nil {
			return nil, err
		}
		res.Booked = append(res.Booked, BookedDay{Day: d.String(), Token: token})
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return res, nil
}

// reasonForDayTx classifies a series target day; ok means bookable.
func (s *ReservationService) reasonForDayTx(tx *sqlx.Tx, spotID int64, d, today, maxDay dates.Day) (string, bool, error) {
	if d.Before(today) {
		return ReasonPast, false, nil
	}
	if d.After(maxDay) {
		return ReasonBeyondHorizon, false, nil
	}
	offered, err := s.Offers.ExistsTx(tx, spotID, d.String())
	if err != nil {
		return "", false, err
	}
	if !offered {
		return ReasonNotOffered, false, nil
	}
	b, err := s.Bookings.GetForDayTx(tx, spotID, d.String())
	if err != nil {
		return "", false, err
	}
	if b != nil && b.Status == domain.StatusActive {
		return ReasonAlreadyBooked, false, nil
	}
	return "", true, nil
}
