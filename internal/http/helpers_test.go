package handlers_test

import (
	"bytes"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	html "github.com/gofiber/template/html/v2"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // pure-Go SQLite driver

	"parkshare/internal/admin"
	"parkshare/internal/config"
	"parkshare/internal/dates"
	"parkshare/internal/http/handlers"
	applog "parkshare/internal/log"
	"parkshare/internal/repos"
)

type env struct {
	app       *fiber.App
	db        *sqlx.DB
	deps      *handlers.Deps
	adminCode string
}

// newEnv builds an app with the full route table against an in-memory
// database seeded with three spots.
func newEnv(t *testing.T) *env {
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

	cfg := config.Config{
		DataDir:      t.TempDir(),
		SecretsDir:   t.TempDir(),
		PlanDir:      t.TempDir(),
		Zone:         time.UTC,
		MaxAheadDays: 3650,
	}

	// The generated admin code is only ever disclosed on the log.
	var buf bytes.Buffer
	log.SetOutput(&buf)
	guard, err := admin.EnsureCode(cfg.SecretsDir)
	log.SetOutput(os.Stderr)
	if err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	code := strings.TrimSpace(out[strings.LastIndex(out, ": ")+2:])

	engine := html.New("../../web/templates", ".html")
	app := fiber.New(fiber.Config{
		Views: engine,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if fe, ok := err.(*fiber.Error); ok {
				code = fe.Code
			}
			msg := "Etwas ist schiefgelaufen. Bitte später erneut versuchen."
			switch code {
			case fiber.StatusNotFound:
				msg = "Seite nicht gefunden"
			case fiber.StatusForbidden:
				msg = "Zugriff verweigert"
			}
			if code == fiber.StatusInternalServerError {
				applog.Error(c, "server.error", err, nil)
			}
			if rerr := c.Status(code).Render("notfound", fiber.Map{"Message": msg}); rerr != nil {
				return c.Status(code).SendString(msg)
			}
			return nil
		},
	})
	app.Use(requestid.New())
	app.Use(csrf.New(csrf.Config{KeyLookup: "form:csrf", CookieName: "csrf_", CookieSameSite: "Lax"}))
	app.Use(func(c *fiber.Ctx) error {
		if tok := c.Locals("csrf"); tok != nil {
			c.Locals("CSRFToken", tok.(string))
		}
		return c.Next()
	})

	deps := handlers.NewDeps(db, cfg, guard)
	app.Get("/", deps.HomeHandler.Home)
	app.Get("/day/:day", deps.DayHandler.View)
	app.Post("/book", deps.BookingHandler.Book)
	app.Get("/manage/:token", deps.BookingHandler.Manage)
	app.Get("/manage/:token/download", deps.BookingHandler.Download)
	app.Post("/manage/:token/cancel", deps.BookingHandler.Cancel)
	app.Get("/series", deps.SeriesHandler.Form)
	app.Post("/series", deps.SeriesHandler.Book)
	app.Get("/owner", deps.OwnerHandler.LoginForm)
	app.Post("/owner", deps.OwnerHandler.Login)
	app.Get("/owner/portal", deps.OwnerHandler.PortalView)
	app.Get("/owner/bookings", deps.OwnerHandler.Bookings)
	app.Post("/owner/offer", deps.OwnerHandler.Offer)
	app.Post("/owner/offer_series", deps.OwnerHandler.OfferSeries)
	app.Post("/owner/withdraw", deps.OwnerHandler.Withdraw)
	app.Post("/owner/withdraw_series", deps.OwnerHandler.WithdrawSeries)
	app.Post("/owner/withdraw_all", deps.OwnerHandler.WithdrawAll)
	adm := app.Group("/admin", handlers.RequireAdminCode(guard))
	adm.Get("/announce", deps.AdminHandler.AnnounceForm)
	adm.Post("/announce", deps.AdminHandler.AnnounceSave)

	return &env{app: app, db: db, deps: deps, adminCode: code}
}

func (e *env) csrf(t *testing.T) string {
	t.Helper()
	resp, err := e.app.Test(httptest.NewRequest("GET", "/", nil))
	if err != nil {
		t.Fatal(err)
	}
	for _, c := range resp.Cookies() {
		if c.Name == "csrf_" {
			return c.Value
		}
	}
	t.Fatal("csrf cookie missing")
	return ""
}

func (e *env) postForm(t *testing.T, path, tok, body string) *http.Response {
	t.Helper()
	req := httptest.NewRequest("POST", path, strings.NewReader("csrf="+tok+"&"+body))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(&http.Cookie{Name: "csrf_", Value: tok})
	resp, err := e.app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

func (e *env) get(t *testing.T, path string) *http.Response {
	t.Helper()
	resp, err := e.app.Test(httptest.NewRequest("GET", path, nil))
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

func (e *env) spotID(t *testing.T, name string) int64 {
	t.Helper()
	var id int64
	if err := e.db.Get(&id, `SELECT id FROM spots WHERE name=?`, name); err != nil {
		t.Fatal(err)
	}
	return id
}

func today() dates.Day { return dates.Today(time.UTC) }
