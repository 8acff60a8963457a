package main

import (
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	html "github.com/gofiber/template/html/v2"

	"parkshare/internal/admin"
	"parkshare/internal/config"
	"parkshare/internal/http/handlers"
	applog "parkshare/internal/log"
	"parkshare/internal/owners"
	"parkshare/internal/repos"
)

func main() {
	cfg := config.Load()

	// Optional file logging
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			log.Printf("[warn] could not open log file %s: %v", cfg.LogFile, err)
		} else {
			mw := io.MultiWriter(os.Stdout, f)
			log.SetOutput(mw)
		}
	}

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		log.Fatal(err)
	}

	db, err := repos.OpenDB(cfg.DBDSN)
	if err != nil {
		log.Fatal(err)
	}

	// The owner-code registry is the trust anchor; refuse to start if it
	// cannot be loaded or created.
	codes, err := owners.EnsureCodes(cfg.SecretsDir)
	if err != nil {
		log.Fatal(err)
	}
	if err := repos.SeedSpots(db, codes, owners.SpotNames(), owners.LotFor); err != nil {
		log.Fatal(err)
	}
	guard, err := admin.EnsureCode(cfg.SecretsDir)
	if err != nil {
		log.Fatal(err)
	}

	// Templates & app
	engine := html.New("./web/templates", ".html")
	engine.Reload(true)

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
			// Avoid leaking internals; best-effort render
			if rerr := c.Status(code).Render("notfound", fiber.Map{"Message": msg}); rerr != nil {
				return c.Status(code).SendString(msg)
			}
			return nil
		},
	})
	// Global body size guard
	app.Server().MaxRequestBodySize = 1 << 20 // 1 MiB

	// ---------- Middlewares ----------
	app.Use(requestid.New())
	app.Use(logger.New())
	app.Use(helmet.New())
	app.Use(limiter.New(limiter.Config{
		Max:        60,
		Expiration: time.Minute,
		Next: func(c *fiber.Ctx) bool {
			p := string(c.Request().URI().Path())
			return strings.HasPrefix(p, "/static/") || strings.HasPrefix(p, "/plan/")
		},
	}))
	app.Use(csrf.New(csrf.Config{
		KeyLookup:      "form:csrf",
		CookieName:     "csrf_",
		CookieSameSite: "Lax",
		CookieSecure:   false, // set true behind HTTPS
		Next: func(c *fiber.Ctx) bool {
			// The labeler API is guarded by the admin capability instead.
			return strings.HasPrefix(string(c.Request().URI().Path()), "/plan/api/")
		},
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			applog.Security(c, "csrf.fail", nil)
			return c.Status(fiber.StatusForbidden).Render("notfound", fiber.Map{"Message": "Sicherheitsprüfung fehlgeschlagen. Bitte Seite neu laden."})
		},
	}))
	app.Use(func(c *fiber.Ctx) error {
		if tok := c.Locals("csrf"); tok != nil {
			c.Locals("CSRFToken", tok.(string))
		}
		return c.Next()
	})

	// ---------- Static assets ----------
	app.Static("/static", "./web/static")

	// ---------- App handlers ----------
	deps := handlers.NewDeps(db, cfg, guard)

	// Public pages
	app.Get("/", deps.HomeHandler.Home)
	app.Get("/day/:day", deps.DayHandler.View)

	// Booking flow
	app.Post("/book", deps.BookingHandler.Book)
	app.Get("/manage/:token", deps.BookingHandler.Manage)
	app.Get("/manage/:token/download", deps.BookingHandler.Download)
	app.Post("/manage/:token/cancel", deps.BookingHandler.Cancel)

	// Visitor series booking
	app.Get("/series", deps.SeriesHandler.Form)
	app.Post("/series", deps.SeriesHandler.Book)

	// Owner portal (login throttled)
	app.Get("/owner", deps.OwnerHandler.LoginForm)
	app.Post("/owner", limiter.New(limiter.Config{
		Max:        10,
		Expiration: 10 * time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.owner_login.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).Render("owner_login", fiber.Map{"Error": "Zu viele Versuche. Bitte später erneut versuchen."})
		},
	}), deps.OwnerHandler.Login)
	app.Get("/owner/portal", deps.OwnerHandler.PortalView)
	app.Get("/owner/bookings", deps.OwnerHandler.Bookings)
	app.Post("/owner/offer", deps.OwnerHandler.Offer)
	app.Post("/owner/offer_series", deps.OwnerHandler.OfferSeries)
	app.Post("/owner/withdraw", deps.OwnerHandler.Withdraw)
	app.Post("/owner/withdraw_series", deps.OwnerHandler.WithdrawSeries)
	app.Post("/owner/withdraw_all", deps.OwnerHandler.WithdrawAll)

	// Admin
	adm := app.Group("/admin", handlers.RequireAdminCode(guard))
	adm.Get("/announce", deps.AdminHandler.AnnounceForm)
	adm.Post("/announce", deps.AdminHandler.AnnounceSave)

	// Floor plan
	app.Get("/plan/raw.png", deps.PlanHandler.Raw)
	app.Get("/plan/annotated.png", deps.PlanHandler.Annotated)
	planAdm := app.Group("/plan", handlers.RequireAdminCode(guard))
	planAdm.Get("/labeler", deps.PlanHandler.Labeler)
	planAdm.Get("/api/labels", deps.PlanHandler.ListLabels)
	planAdm.Post("/api/add", deps.PlanHandler.AddLabel)
	planAdm.Post("/api/undo", deps.PlanHandler.UndoLabel)
	planAdm.Post("/api/reset", deps.PlanHandler.ResetLabels)

	// Health & 404
	app.Get("/healthz", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"ok": true}) })
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(404).Render("notfound", fiber.Map{"Message": "Seite nicht gefunden"})
	})

	log.Fatal(app.Listen(":" + cfg.Port))
}
