package repos

import (
	"parkshare/internal/domain"

	"github.com/jmoiron/sqlx"
)

type SpotRepo struct{ db *sqlx.DB }

func NewSpotRepo(db *sqlx.DB) *SpotRepo { return &SpotRepo{db: db} }

// ByName looks a spot up by its display name ("P01"). Returns
// sql.ErrNoRows when unknown.
func (r *SpotRepo) ByName(name string) (*domain.Spot, error) {
	var s domain.Spot
	if err := r.db.Get(&s, `SELECT id, name, owner_code, lot FROM spots WHERE name = ?`, name); err != nil {
		return nil, err
	}
	return &s, nil
}

// ByOwnerCode resolves the capability credential to the owner's spot.
func (r *SpotRepo) ByOwnerCode(code string) (*domain.Spot, error) {
	var s domain.Spot
	if err := r.db.Get(&s, `SELECT id, name, owner_code, lot FROM spots WHERE owner_code = ?`, code); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SpotRepo) ListNames() ([]string, error) {
	var names []string
	err := r.db.Select(&names, `SELECT name FROM spots ORDER BY name`)
	return names, err
}
