package handlers

import (
	"os"
	"path/filepath"

	"github.com/gofiber/fiber/v2"

	"parkshare/internal/admin"
	"parkshare/internal/config"
	applog "parkshare/internal/log"
	"parkshare/internal/plan"
)

type PlanHandler struct {
	Guard  *admin.Guard
	Labels *plan.Store
	Cfg    config.Config
}

func (h *PlanHandler) planImage() string {
	return filepath.Join(h.Cfg.PlanDir, "plan-1.png")
}

func (h *PlanHandler) Raw(c *fiber.Ctx) error {
	img := h.planImage()
	if _, err := os.Stat(img); err != nil {
		return fiber.ErrNotFound
	}
	return c.SendFile(img)
}

// Annotated re-renders the numbered overlay on every request so label edits
// show up immediately.
func (h *PlanHandler) Annotated(c *fiber.Ctx) error {
	img := h.planImage()
	if _, err := os.Stat(img); err != nil {
		return fiber.ErrNotFound
	}
	out := filepath.Join(h.Cfg.DataDir, "plan-annotated.png")
	if err := h.Labels.RenderAnnotated(img, out); err != nil {
		applog.Error(c, "plan.render", err, nil)
		return fiber.ErrInternalServerError
	}
	return c.SendFile(out)
}

func (h *PlanHandler) Labeler(c *fiber.Ctx) error {
	return render(c, "plan_labeler", fiber.Map{"Key": c.Query("k")})
}

func (h *PlanHandler) ListLabels(c *fiber.Ctx) error {
	labels, err := h.Labels.Load()
	if err != nil {
		applog.Error(c, "plan.labels.load", err, nil)
		return fiber.ErrInternalServerError
	}
	return c.JSON(fiber.Map{"labels": labels})
}

func (h *PlanHandler) AddLabel(c *fiber.Ctx) error {
	var req struct {
		X int `json:"x"`
		Y int `json:"y"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad request"})
	}
	labels, err := h.Labels.Add(req.X, req.Y)
	if err != nil {
		applog.Error(c, "plan.labels.add", err, nil)
		return fiber.ErrInternalServerError
	}
	applog.Audit(c, "plan.labels.add", map[string]any{"x": req.X, "y": req.Y})
	return c.JSON(fiber.Map{"labels": labels})
}

func (h *PlanHandler) UndoLabel(c *fiber.Ctx) error {
	labels, err := h.Labels.Undo()
	if err != nil {
		applog.Error(c, "plan.labels.undo", err, nil)
		return fiber.ErrInternalServerError
	}
	return c.JSON(fiber.Map{"labels": labels})
}

func (h *PlanHandler) ResetLabels(c *fiber.Ctx) error {
	labels, err := h.Labels.Reset()
	if err != nil {
		applog.Error(c, "plan.labels.reset", err, nil)
		return fiber.ErrInternalServerError
	}
	applog.Audit(c, "plan.labels.reset", nil)
	return c.JSON(fiber.Map{"labels": labels})
}
