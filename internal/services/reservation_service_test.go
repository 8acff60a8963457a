package services_test

import (
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // pure-Go SQLite driver

	"parkshare/internal/dates"
	"parkshare/internal/domain"
	"parkshare/internal/repos"
	"parkshare/internal/services"
)

func memdb(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := repos.OpenDB(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	// One connection so the in-memory database survives the pool.
	db.SetMaxOpenConns(1)
	db.MustExec(`INSERT INTO spots(name, owner_code, lot) VALUES
		('P01','AAAA','bank'),
		('P02','BBBB','bank'),
		('PP01','CCCC','post')`)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func newEngine(t *testing.T, db *sqlx.DB) *services.ReservationService {
	t.Helper()
	return services.NewReservationService(db, time.UTC, 3650, 366)
}

func today() dates.Day { return dates.Today(time.UTC) }

func mustSpotID(t *testing.T, db *sqlx.DB, name string) int64 {
	t.Helper()
	var id int64
	if err := db.Get(&id, `SELECT id FROM spots WHERE name=?`, name); err != nil {
		t.Fatal(err)
	}
	return id
}

func countRows(t *testing.T, db *sqlx.DB, table string) int {
	t.Helper()
	var n int
	if err := db.Get(&n, `SELECT COUNT(*) FROM `+table); err != nil {
		t.Fatal(err)
	}
	return n
}

func TestBookLifecycle(t *testing.T) {
	db := memdb(t)
	svc := newEngine(t, db)
	day := today().AddDays(7)

	// Not offered yet.
	if _, err := svc.Book("P01", day); err != services.ErrNotOffered {
		t.Fatalf("want ErrNotOffered, got %v", err)
	}
	if _, err := svc.Book("P99", day); err != services.ErrUnknownSpot {
		t.Fatalf("want ErrUnknownSpot, got %v", err)
	}

	if err := svc.Offer(mustSpotID(t, db, "P01"), day); err != nil {
		t.Fatal(err)
	}
	token, err := svc.Book("P01", day)
	if err != nil {
		t.Fatal(err)
	}
	if token == "" {
		t.Fatal("no manage token returned")
	}

	// Second visitor runs into the active booking.
	if _, err := svc.Book("P01", day); err != services.ErrAlreadyBooked {
		t.Fatalf("want ErrAlreadyBooked, got %v", err)
	}

	// Booker cancels, day becomes bookable again with a fresh token.
	if err := svc.CancelByToken(token, "doch da"); err != nil {
		t.Fatal(err)
	}
	var status string
	if err := db.Get(&status, `SELECT status FROM bookings WHERE manage_token=?`, token); err != nil {
		t.Fatal(err)
	}
	if status != domain.StatusCancelledByBooker {
		t.Fatalf("want cancelled_by_booker, got %s", status)
	}

	token2, err := svc.Book("P01", day)
	if err != nil {
		t.Fatal(err)
	}
	if token2 == token {
		t.Fatal("rebooking must issue a fresh token")
	}
	if n := countRows(t, db, "bookings"); n != 1 {
		t.Fatalf("rebooking must reuse the (spot,day) row, have %d rows", n)
	}
}

func TestCancelByTokenIdempotent(t *testing.T) {
	db := memdb(t)
	svc := newEngine(t, db)
	day := today().AddDays(3)

	if err := svc.CancelByToken("no-such-token", ""); err != services.ErrInvalidToken {
		t.Fatalf("want ErrInvalidToken, got %v", err)
	}

	if err := svc.Offer(mustSpotID(t, db, "P01"), day); err != nil {
		t.Fatal(err)
	}
	token, err := svc.Book("P01", day)
	if err != nil {
		t.Fatal(err)
	}

	if err := svc.CancelByToken(token, "erster Grund"); err != nil {
		t.Fatal(err)
	}
	// Repeat cancel is fine and changes nothing.
	if err := svc.CancelByToken(token, "zweiter Grund"); err != nil {
		t.Fatal(err)
	}
	var reason string
	if err := db.Get(&reason, `SELECT cancel_reason FROM bookings WHERE manage_token=?`, token); err != nil {
		t.Fatal(err)
	}
	if reason != "erster Grund" {
		t.Fatalf("second cancel overwrote reason: %q", reason)
	}
}

func TestOfferIdempotent(t *testing.T) {
	db := memdb(t)
	svc := newEngine(t, db)
	spotID := mustSpotID(t, db, "P02")
	day := today().AddDays(5)

	if err := svc.Offer(spotID, day); err != nil {
		t.Fatal(err)
	}
	if err := svc.Offer(spotID, day); err != nil {
		t.Fatal(err)
	}
	if n := countRows(t, db, "offers"); n != 1 {
		t.Fatalf("want 1 offer, got %d", n)
	}
}

func TestWithdrawLeadTime(t *testing.T) {
	db := memdb(t)
	svc := newEngine(t, db)
	spotID := mustSpotID(t, db, "P01")

	for _, d := range []dates.Day{today(), today().AddDays(-1)} {
		if err := svc.Withdraw(spotID, d, ""); err != services.ErrWithdrawTooLate {
			t.Fatalf("day %s: want ErrWithdrawTooLate, got %v", d, err)
		}
	}
	// Strictly future, no offer present: still fine (idempotent delete).
	if err := svc.Withdraw(spotID, today().AddDays(1), ""); err != nil {
		t.Fatal(err)
	}
}

func TestWithdrawCancelsActiveBookingAtomically(t *testing.T) {
	db := memdb(t)
	svc := newEngine(t, db)
	spotID := mustSpotID(t, db, "P01")
	day := today().AddDays(4)

	if err := svc.Offer(spotID, day); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Book("P01", day); err != nil {
		t.Fatal(err)
	}

	if err := svc.Withdraw(spotID, day, ""); err != nil {
		t.Fatal(err)
	}

	if n := countRows(t, db, "offers"); n != 0 {
		t.Fatalf("offer not removed, %d left", n)
	}
	var row struct {
		Status string  `db:"status"`
		Reason *string `db:"cancel_reason"`
	}
	if err := db.Get(&row, `SELECT status, cancel_reason FROM bookings WHERE spot_id=? AND day=?`, spotID, day.String()); err != nil {
		t.Fatal(err)
	}
	if row.Status != domain.StatusCancelledByOwner {
		t.Fatalf("want cancelled_by_owner, got %s", row.Status)
	}
	if row.Reason == nil || *row.Reason == "" {
		t.Fatal("default withdrawal reason missing")
	}
}

func TestWithdrawLeavesCancelledBookingAlone(t *testing.T) {
	db := memdb(t)
	svc := newEngine(t, db)
	spotID := mustSpotID(t, db, "P01")
	day := today().AddDays(4)

	if err := svc.Offer(spotID, day); err != nil {
		t.Fatal(err)
	}
	token, err := svc.Book("P01", day)
	if err != nil {
		t.Fatal(err)
	}
	if err := svc.CancelByToken(token, "selbst storniert"); err != nil {
		t.Fatal(err)
	}

	if err := svc.Withdraw(spotID, day, ""); err != nil {
		t.Fatal(err)
	}
	var status string
	if err := db.Get(&status, `SELECT status FROM bookings WHERE manage_token=?`, token); err != nil {
		t.Fatal(err)
	}
	if status != domain.StatusCancelledByBooker {
		t.Fatalf("booker cancellation must stay terminal, got %s", status)
	}
}

func TestReplaceActiveConflictBackstop(t *testing.T) {
	db := memdb(t)
	spotID := mustSpotID(t, db, "P01")
	day := today().AddDays(2).String()
	bookings := repos.NewBookingRepo(db)

	tx := db.MustBegin()
	if err := bookings.ReplaceActiveTx(tx, "b-1", spotID, day, "", "2025-01-01T00:00:00Z", "tok-1"); err != nil {
		t.Fatal(err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatal(err)
	}

	// A raced second insert must fail at the store, not clobber the row.
	tx = db.MustBegin()
	err := bookings.ReplaceActiveTx(tx, "b-2", spotID, day, "", "2025-01-01T00:00:01Z", "tok-2")
	_ = tx.Rollback()
	if err != repos.ErrConflict {
		t.Fatalf("want ErrConflict, got %v", err)
	}
	var token string
	if err := db.Get(&token, `SELECT manage_token FROM bookings WHERE spot_id=? AND day=?`, spotID, day); err != nil {
		t.Fatal(err)
	}
	if token != "tok-1" {
		t.Fatalf("active booking was clobbered: %s", token)
	}
}
