package repos

import (
	"log"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

func OpenDB(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err = db.Ping(); err != nil {
		return nil, err
	}

	if err := ensureSchema(db); err != nil {
		return nil, err
	}
	// Older installs predate the lot column; add it with the bank default.
	if err := ensureLotColumn(db); err != nil {
		return nil, err
	}
	return db, nil
}

func ensureSchema(db *sqlx.DB) error {
	schema := `
PRAGMA foreign_keys = ON;

-- Spots: provisioned once from the owner-code registry, never deleted.
CREATE TABLE IF NOT EXISTS spots(
  id INTEGER PRIMARY KEY,
  name TEXT NOT NULL UNIQUE,
  owner_code TEXT NOT NULL UNIQUE,
  lot TEXT NOT NULL DEFAULT 'bank' CHECK (lot IN ('bank','post'))
);

-- Offers: one row per (spot, day) an owner has released.
CREATE TABLE IF NOT EXISTS offers(
  id INTEGER PRIMARY KEY,
  spot_id INTEGER NOT NULL REFERENCES spots(id) ON DELETE CASCADE,
  day TEXT NOT NULL,            -- YYYY-MM-DD local calendar
  created_at TEXT NOT NULL,
  UNIQUE(spot_id, day)
);
CREATE INDEX IF NOT EXISTS idx_offers_day ON offers(day);

-- Bookings: at most one row per (spot, day); inactive rows get replaced.
CREATE TABLE IF NOT EXISTS bookings(
  id TEXT PRIMARY KEY,
  spot_id INTEGER NOT NULL REFERENCES spots(id) ON DELETE CASCADE,
  day TEXT NOT NULL,
  booker_email TEXT NOT NULL DEFAULT '',
  status TEXT NOT NULL CHECK (status IN ('active','cancelled_by_owner','cancelled_by_booker')),
  created_at TEXT NOT NULL,
  cancelled_at TEXT,
  cancel_reason TEXT,
  manage_token TEXT NOT NULL UNIQUE,
  UNIQUE(spot_id, day)
);
CREATE INDEX IF NOT EXISTS idx_bookings_day ON bookings(day);
CREATE INDEX IF NOT EXISTS idx_bookings_email ON bookings(booker_email);
`
	_, err := db.Exec(schema)
	return err
}

func ensureLotColumn(db *sqlx.DB) error {
	var n int
	err := db.Get(&n, `SELECT COUNT(*) FROM pragma_table_info('spots') WHERE name='lot'`)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	log.Println("[migrate] adding spots.lot column")
	_, err = db.Exec(`ALTER TABLE spots ADD COLUMN lot TEXT NOT NULL DEFAULT 'bank'`)
	return err
}

// SeedSpots inserts every registry spot with its owner code; idempotent and
// safe to run on every start.
func SeedSpots(db *sqlx.DB, codes map[string]string, names []string, lotFor func(string) string) error {
	tx, err := db.Beginx()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, name := range names {
		code, ok := codes[name]
		if !ok {
			continue
		}
		if _, err := tx.Exec(`
			INSERT INTO spots(name, owner_code, lot) VALUES(?, ?, ?)
			ON CONFLICT(name) DO NOTHING
		`, name, code, lotFor(name)); err != nil {
			return err
		}
	}
	return tx.Commit()
}
