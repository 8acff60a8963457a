package repos

import (
	"database/sql"

	"parkshare/internal/domain"

	"github.com/jmoiron/sqlx"
)

type BookingRepo struct{ db *sqlx.DB }

func NewBookingRepo(db *sqlx.DB) *BookingRepo { return &BookingRepo{db: db} }

// ByToken resolves a manage token to its booking with the spot name.
// Returns sql.ErrNoRows for unknown tokens.
func (r *BookingRepo) ByToken(token string) (*domain.Booking, string, error) {
	var row struct {
		domain.Booking
		SpotName string `db:"spot_name"`
	}
	err := r.db.Get(&row, `
		SELECT b.id, b.spot_id, b.day, b.booker_email, b.status, b.created_at,
		       b.cancelled_at, b.cancel_reason, b.manage_token,
		       s.name AS spot_name
		FROM bookings b
		JOIN spots s ON s.id = b.spot_id
		WHERE b.manage_token = ?
	`, token)
	if err != nil {
		return nil, "", err
	}
	return &row.Booking, row.SpotName, nil
}

// GetForDayTx returns the booking row for (spot, day) or nil when none
// exists yet.
func (r *BookingRepo) GetForDayTx(tx *sqlx.Tx, spotID int64, day string) (*domain.Booking, error) {
	var b domain.Booking
	err := tx.Get(&b, `
		SELECT id, spot_id, day, booker_email, status, created_at,
		       cancelled_at, cancel_reason, manage_token
		FROM bookings WHERE spot_id = ? AND day = ?
	`, spotID, day)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &b, nil
}

// ReplaceActiveTx writes a fresh active booking for (spot, day). An
// existing inactive row is overwritten in place; an existing active row is
// left untouched and the call returns ErrConflict. The uniqueness index is
// the final arbiter when two transactions race through their pre-checks.
func (r *BookingRepo) ReplaceActiveTx(tx *sqlx.Tx, id string, spotID int64, day, booker, createdAt, token string) error {
	res, err := tx.Exec(`
		INSERT INTO bookings(id, spot_id, day, booker_email, status, created_at, cancelled_at, cancel_reason, manage_token)
		VALUES(?, ?, ?, ?, 'active', ?, NULL, NULL, ?)
		ON CONFLICT(spot_id, day) DO UPDATE SET
		  id            = excluded.id,
		  booker_email  = excluded.booker_email,
		  status        = 'active',
		  created_at    = excluded.created_at,
		  cancelled_at  = NULL,
		  cancel_reason = NULL,
		  manage_token  = excluded.manage_token
		WHERE bookings.status <> 'active'
	`, id, spotID, day, booker, createdAt, token)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrConflict
	}
	return nil
}

// CancelByTokenTx transitions an active booking to the given terminal
// status. A booking that is already cancelled is left as is (idempotent).
func (r *BookingRepo) CancelByTokenTx(tx *sqlx.Tx, token, status, cancelledAt, reason string) error {
	_, err := tx.Exec(`
		UPDATE bookings
		SET status = ?, cancelled_at = ?, cancel_reason = ?
		WHERE manage_token = ? AND status = 'active'
	`, status, cancelledAt, reason, token)
	return err
}

func (r *BookingRepo) CancelByIDTx(tx *sqlx.Tx, id, status, cancelledAt, reason string) error {
	_, err := tx.Exec(`
		UPDATE bookings
		SET status = ?, cancelled_at = ?, cancel_reason = ?
		WHERE id = ? AND status = 'active'
	`, status, cancelledAt, reason, id)
	return err
}

// CancelActiveAfterTx owner-cancels every active booking for the spot
// strictly after day.
func (r *BookingRepo) CancelActiveAfterTx(tx *sqlx.Tx, spotID int64, day, cancelledAt, reason string) error {
	_, err := tx.Exec(`
		UPDATE bookings
		SET status = 'cancelled_by_owner', cancelled_at = ?, cancel_reason = ?
		WHERE spot_id = ? AND day > ? AND status = 'active'
	`, cancelledAt, reason, spotID, day)
	return err
}

func (r *BookingRepo) CountBySpot(spotID int64) (int, error) {
	var n int
	err := r.db.Get(&n, `SELECT COUNT(*) FROM bookings WHERE spot_id = ?`, spotID)
	return n, err
}

// HistoryRow is one line of the owner's booking history.
type HistoryRow struct {
	Day          string  `db:"day"`
	Status       string  `db:"status"`
	CreatedAt    string  `db:"created_at"`
	CancelledAt  *string `db:"cancelled_at"`
	CancelReason *string `db:"cancel_reason"`
}

// PageBySpot lists bookings for the spot, newest day first.
func (r *BookingRepo) PageBySpot(spotID int64, limit, offset int) ([]HistoryRow, error) {
	var out []HistoryRow
	err := r.db.Select(&out, `
		SELECT day, status, created_at, cancelled_at, cancel_reason
		FROM bookings
		WHERE spot_id = ?
		ORDER BY day DESC
		LIMIT ? OFFSET ?
	`, spotID, limit, offset)
	return out, err
}

// StatusForDay returns the booking status and booker for (spot, day), with
// found=false when no row exists.
func (r *BookingRepo) StatusForDay(spotID int64, day string) (status, booker string, found bool, err error) {
	var row struct {
		Status      string `db:"status"`
		BookerEmail string `db:"booker_email"`
	}
	err = r.db.Get(&row, `SELECT status, booker_email FROM bookings WHERE spot_id = ? AND day = ?`, spotID, day)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", "", false, nil
		}
		return "", "", false, err
	}
	return row.Status, row.BookerEmail, true, nil
}
