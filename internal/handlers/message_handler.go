package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/franckabsuser/bam/internal/middleware"
	"github.com/franckabsuser/bam/internal/service"
)

type MessageHandler struct {
	svc *service.MessageService
	log *zap.SugaredLogger
}

func NewMessageHandler(svc *service.MessageService, log *zap.SugaredLogger) *MessageHandler {
	return &MessageHandler{svc: svc, log: log}
}

func (h *MessageHandler) Create(c *fiber.Ctx) error {
	var in service.CreateMessageInput
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}
	msg, err := h.svc.Create(c.Context(), in)
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(msg)
}

func (h *MessageHandler) Reply(c *fiber.Ctx) error {
	var in service.CreateMessageInput
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}
	msg, err := h.svc.Reply(c.Context(), in, c.Params("id"))
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(msg)
}

func (h *MessageHandler) ListForConversation(c *fiber.Ctx) error {
	views, err := h.svc.ListForConversation(c.Context(), c.Params("conversationId"))
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(views)
}

func (h *MessageHandler) Get(c *fiber.Ctx) error {
	msg, err := h.svc.Get(c.Context(), c.Params("id"))
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(msg)
}

// React upserts the authenticated user's reaction on the message.
func (h *MessageHandler) React(c *fiber.Ctx) error {
	var body struct {
		ReactionType string `json:"reactionType"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}
	reactions, err := h.svc.AddReaction(c.Context(), c.Params("id"), middleware.UserID(c), body.ReactionType)
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(fiber.Map{"messageId": c.Params("id"), "reactions": reactions})
}

func (h *MessageHandler) UpdateReaction(c *fiber.Ctx) error {
	var body struct {
		ReactionType string `json:"reactionType"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}
	reactions, err := h.svc.UpdateReaction(c.Context(), c.Params("id"), middleware.UserID(c), body.ReactionType)
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(fiber.Map{"messageId": c.Params("id"), "reactions": reactions})
}

func (h *MessageHandler) RemoveReaction(c *fiber.Ctx) error {
	reactions, err := h.svc.RemoveReaction(c.Context(), c.Params("id"), middleware.UserID(c))
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(fiber.Map{"messageId": c.Params("id"), "reactions": reactions})
}

// MarkAsRead flips read state for the authenticated user's unread
// messages in the conversation named by the path. An explicit userId in
// the body overrides the token's.
func (h *MessageHandler) MarkAsRead(c *fiber.Ctx) error {
	var body struct {
		UserID string `json:"userId"`
	}
	if err := c.BodyParser(&body); err != nil && len(c.Body()) > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}
	userID := body.UserID
	if userID == "" {
		userID = middleware.UserID(c)
	}
	modified, err := h.svc.MarkAsRead(c.Context(), c.Params("id"), userID)
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(fiber.Map{"message": "messages marked as read", "modifiedCount": modified})
}
