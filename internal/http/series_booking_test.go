package handlers_test

import (
	"io"
	"net/http"
	"strings"
	"testing"
)

func TestSeriesSoftModeBooksWhatIsFree(t *testing.T) {
	e := newEnv(t)
	tok := e.csrf(t)
	engine := e.deps.BookingHandler.Engine

	d1 := today().AddDays(1)
	d2 := today().AddDays(2)
	spotID := e.spotID(t, "P01")
	if err := engine.Offer(spotID, d1); err != nil {
		t.Fatal(err)
	}
	if err := engine.Offer(spotID, d2); err != nil {
		t.Fatal(err)
	}
	if _, err := engine.Book("P01", d1); err != nil {
		t.Fatal(err)
	}

	body := "spot=P01&start_day=" + d1.String() + "&end_day=" + d2.String() +
		"&mode=soft&weekdays=0&weekdays=1&weekdays=2&weekdays=3&weekdays=4&weekdays=5&weekdays=6"
	resp := e.postForm(t, "/series", tok, body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	page, _ := io.ReadAll(resp.Body)
	s := string(page)
	if !strings.Contains(s, d2.String()) || !strings.Contains(s, "/manage/") {
		t.Fatalf("free day not booked: %s", s)
	}
	if !strings.Contains(s, "bereits gebucht") {
		t.Fatalf("taken day not reported: %s", s)
	}
}

func TestSeriesHardModeConflictBooksNothing(t *testing.T) {
	e := newEnv(t)
	tok := e.csrf(t)
	engine := e.deps.BookingHandler.Engine

	d1 := today().AddDays(1)
	d2 := today().AddDays(2)
	spotID := e.spotID(t, "P01")
	if err := engine.Offer(spotID, d1); err != nil {
		t.Fatal(err)
	}
	if err := engine.Offer(spotID, d2); err != nil {
		t.Fatal(err)
	}
	if _, err := engine.Book("P01", d1); err != nil {
		t.Fatal(err)
	}

	body := "spot=P01&start_day=" + d1.String() + "&end_day=" + d2.String() +
		"&mode=hard&weekdays=0&weekdays=1&weekdays=2&weekdays=3&weekdays=4&weekdays=5&weekdays=6"
	resp := e.postForm(t, "/series", tok, body)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.StatusCode)
	}
	page, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(page), "Es wurde nichts gebucht") {
		t.Fatalf("hard failure not explained: %s", page)
	}

	// d2 must still be free.
	var n int
	if err := e.db.Get(&n, `SELECT COUNT(*) FROM bookings WHERE day=? AND status='active'`, d2.String()); err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Fatalf("hard mode booked a day despite conflict")
	}
}

func TestSeriesFormRejectsBadRange(t *testing.T) {
	e := newEnv(t)
	tok := e.csrf(t)
	start := today().AddDays(3)

	resp := e.postForm(t, "/series", tok,
		"spot=P01&start_day="+start.String()+"&end_day="+start.AddDays(-1).String()+"&mode=soft&weekdays=0")
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	page, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(page), "Ende liegt vor Start") {
		t.Fatalf("unexpected body: %s", page)
	}
}
