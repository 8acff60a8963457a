package repos

import (
	"github.com/jmoiron/sqlx"
)

type OfferRepo struct{ db *sqlx.DB }

func NewOfferRepo(db *sqlx.DB) *OfferRepo { return &OfferRepo{db: db} }

// DayOffer is one offered spot on a given day, joined with any booking row
// for the day view.
type DayOffer struct {
	SpotID        int64   `db:"spot_id"`
	Spot          string  `db:"spot"`
	OfferID       int64   `db:"offer_id"`
	BookingStatus *string `db:"booking_status"`
	BookerEmail   *string `db:"booker_email"`
}

// InsertIgnoreTx inserts the offer unless it already exists. Reports
// whether a row was actually written.
func (r *OfferRepo) InsertIgnoreTx(tx *sqlx.Tx, spotID int64, day, createdAt string) (bool, error) {
	res, err := tx.Exec(`
		INSERT INTO offers(spot_id, day, created_at) VALUES(?, ?, ?)
		ON CONFLICT(spot_id, day) DO NOTHING
	`, spotID, day, createdAt)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (r *OfferRepo) ExistsTx(tx *sqlx.Tx, spotID int64, day string) (bool, error) {
	var n int
	if err := tx.Get(&n, `SELECT COUNT(*) FROM offers WHERE spot_id = ? AND day = ?`, spotID, day); err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *OfferRepo) Exists(spotID int64, day string) (bool, error) {
	var n int
	if err := r.db.Get(&n, `SELECT COUNT(*) FROM offers WHERE spot_id = ? AND day = ?`, spotID, day); err != nil {
		return false, err
	}
	return n > 0, nil
}

// ListForDay returns every offered spot on day with its booking state,
// ordered by spot name.
func (r *OfferRepo) ListForDay(day string) ([]DayOffer, error) {
	var out []DayOffer
	err := r.db.Select(&out, `
		SELECT s.id AS spot_id, s.name AS spot, o.id AS offer_id,
		       b.status AS booking_status, b.booker_email AS booker_email
		FROM offers o
		JOIN spots s ON s.id = o.spot_id
		LEFT JOIN bookings b ON b.spot_id = o.spot_id AND b.day = o.day
		WHERE o.day = ?
		ORDER BY s.name
	`, day)
	return out, err
}

// DeleteDayTx removes the offer for (spot, day); deleting a missing offer
// is a no-op.
func (r *OfferRepo) DeleteDayTx(tx *sqlx.Tx, spotID int64, day string) error {
	_, err := tx.Exec(`DELETE FROM offers WHERE spot_id = ? AND day = ?`, spotID, day)
	return err
}

// DeleteAfterTx removes all offers for the spot strictly after day.
func (r *OfferRepo) DeleteAfterTx(tx *sqlx.Tx, spotID int64, day string) error {
	_, err := tx.Exec(`DELETE FROM offers WHERE spot_id = ? AND day > ?`, spotID, day)
	return err
}
