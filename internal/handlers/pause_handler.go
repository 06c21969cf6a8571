package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/franckabsuser/bam/internal/middleware"
	"github.com/franckabsuser/bam/internal/service"
)

type PauseHandler struct {
	svc *service.PauseService
	log *zap.SugaredLogger
}

func NewPauseHandler(svc *service.PauseService, log *zap.SugaredLogger) *PauseHandler {
	return &PauseHandler{svc: svc, log: log}
}

// body resolves the target user: an explicit userId in the request body,
// falling back to the authenticated user on an empty body.
func (h *PauseHandler) body(c *fiber.Ctx) (string, error) {
	var body struct {
		UserID string `json:"userId"`
	}
	if err := c.BodyParser(&body); err != nil && len(c.Body()) > 0 {
		return "", err
	}
	if body.UserID == "" {
		return middleware.UserID(c), nil
	}
	return body.UserID, nil
}

func (h *PauseHandler) Start(c *fiber.Ctx) error {
	userID, err := h.body(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}
	p, err := h.svc.Start(c.Context(), userID)
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "pause started", "pause": p})
}

func (h *PauseHandler) End(c *fiber.Ctx) error {
	userID, err := h.body(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}
	p, err := h.svc.End(c.Context(), userID)
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(fiber.Map{"message": "pause ended", "pause": p})
}

// CountForDate expects the date path segment as 2006-01-02.
func (h *PauseHandler) CountForDate(c *fiber.Ctx) error {
	date, err := time.ParseInLocation("2006-01-02", c.Params("date"), time.Local)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid date"})
	}
	count, err := h.svc.CountForDate(c.Context(), c.Params("userId"), date)
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(fiber.Map{"pauseCount": count})
}

func (h *PauseHandler) ListActive(c *fiber.Ctx) error {
	active, err := h.svc.ListActive(c.Context())
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(fiber.Map{"activePauses": active})
}

// Today aggregates the authenticated user's pauses for the current day.
func (h *PauseHandler) Today(c *fiber.Ctx) error {
	sum, err := h.svc.TodaySummary(c.Context(), middleware.UserID(c))
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(sum)
}
