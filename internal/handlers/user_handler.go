package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/franckabsuser/bam/internal/models"
	"github.com/franckabsuser/bam/internal/service"
)

type UserHandler struct {
	svc *service.UserService
	log *zap.SugaredLogger
}

func NewUserHandler(svc *service.UserService, log *zap.SugaredLogger) *UserHandler {
	return &UserHandler{svc: svc, log: log}
}

// Register accepts a multipart form so a profile photo can ride along.
// Only the filename reference is kept; binary storage is out of scope.
func (h *UserHandler) Register(c *fiber.Ctx) error {
	in := service.RegisterInput{
		Email:            c.FormValue("email"),
		NameAndFirstName: c.FormValue("nameAndFirstName"),
		JeSuis:           c.FormValue("jeSuis"),
		Password:         c.FormValue("password"),
	}
	if file, err := c.FormFile("profilePhoto"); err == nil && file != nil {
		in.ProfilePhoto = file.Filename
	}
	user, err := h.svc.Register(c.Context(), in)
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "user created",
		"userId":  user.ID.Hex(),
	})
}

func (h *UserHandler) Login(c *fiber.Ctx) error {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}
	res, err := h.svc.Login(c.Context(), body.Email, body.Password)
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(res)
}

func (h *UserHandler) Get(c *fiber.Ctx) error {
	user, err := h.svc.Get(c.Context(), c.Params("id"))
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(user)
}

func (h *UserHandler) Update(c *fiber.Ctx) error {
	var upd models.UserUpdate
	if err := c.BodyParser(&upd); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}
	user, err := h.svc.Update(c.Context(), c.Params("id"), upd)
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(user)
}

func (h *UserHandler) SetTyping(c *fiber.Ctx) error {
	var body struct {
		IsTyping bool `json:"isTyping"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}
	if err := h.svc.SetTyping(c.Context(), c.Params("id"), body.IsTyping); err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(fiber.Map{"message": "typing status updated"})
}

func (h *UserHandler) Block(c *fiber.Ctx) error {
	var body struct {
		BlockedUserID string `json:"blockedUserId"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}
	if err := h.svc.Block(c.Context(), c.Params("id"), body.BlockedUserID); err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(fiber.Map{"message": "user blocked"})
}
