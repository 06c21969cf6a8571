package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/franckabsuser/bam/internal/middleware"
	"github.com/franckabsuser/bam/internal/service"
)

type ConversationHandler struct {
	svc *service.ConversationService
	log *zap.SugaredLogger
}

func NewConversationHandler(svc *service.ConversationService, log *zap.SugaredLogger) *ConversationHandler {
	return &ConversationHandler{svc: svc, log: log}
}

func (h *ConversationHandler) Create(c *fiber.Ctx) error {
	var body struct {
		Participants []string `json:"participants"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}
	conv, err := h.svc.Create(c.Context(), body.Participants, middleware.UserID(c))
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(conv)
}

func (h *ConversationHandler) List(c *fiber.Ctx) error {
	userID := c.Query("userId")
	if userID == "" {
		userID = middleware.UserID(c)
	}
	sums, err := h.svc.ListForUser(c.Context(), userID)
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(sums)
}

func (h *ConversationHandler) Get(c *fiber.Ctx) error {
	detail, err := h.svc.Get(c.Context(), c.Params("id"))
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(detail)
}

func (h *ConversationHandler) Update(c *fiber.Ctx) error {
	var body struct {
		ConversationName string `json:"conversationName"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}
	conv, err := h.svc.Rename(c.Context(), c.Params("id"), body.ConversationName)
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(conv)
}

func (h *ConversationHandler) Archive(c *fiber.Ctx) error {
	conv, err := h.svc.Archive(c.Context(), c.Params("id"))
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(fiber.Map{"message": "conversation archived", "conversation": conv})
}

func (h *ConversationHandler) Delete(c *fiber.Ctx) error {
	if err := h.svc.Delete(c.Context(), c.Params("id")); err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(fiber.Map{"message": "conversation deleted"})
}
