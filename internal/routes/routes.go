// Package routes wires the HTTP surface: REST routes for every realtime
// operation, the websocket upgrade endpoint, and the operational routes.
package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"

	"github.com/franckabsuser/bam/internal/handlers"
	"github.com/franckabsuser/bam/internal/metrics"
	"github.com/franckabsuser/bam/internal/middleware"
	"github.com/franckabsuser/bam/internal/ws"
)

type Deps struct {
	Users         *handlers.UserHandler
	Conversations *handlers.ConversationHandler
	Messages      *handlers.MessageHandler
	Pauses        *handlers.PauseHandler
	Events        *ws.EventHandler
	Auth          fiber.Handler
	RateLimit     fiber.Handler
}

func Register(app *fiber.App, d Deps) {
	app.Use(recover.New())
	app.Use(cors.New())
	if d.RateLimit != nil {
		app.Use(d.RateLimit)
	}

	app.Get("/api/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/metrics", metrics.Handler())

	api := app.Group("/api")

	users := api.Group("/users")
	users.Post("/register", d.Users.Register)
	users.Post("/login", d.Users.Login)
	users.Get("/user/:id", d.Auth, d.Users.Get)
	users.Put("/user/:id", d.Auth, d.Users.Update)
	users.Post("/user/:id/typing", d.Auth, d.Users.SetTyping)
	users.Post("/user/:id/block", d.Auth, d.Users.Block)

	convs := api.Group("/conversations", d.Auth)
	convs.Post("/", d.Conversations.Create)
	convs.Get("/conversations", d.Conversations.List)
	convs.Get("/:id", d.Conversations.Get)
	convs.Put("/:id", d.Conversations.Update)
	convs.Put("/:id/archive", d.Conversations.Archive)
	convs.Delete("/:id", d.Conversations.Delete)

	msgs := api.Group("/message", d.Auth)
	msgs.Post("/", d.Messages.Create)
	msgs.Get("/conversation/:conversationId", d.Messages.ListForConversation)
	msgs.Get("/:id", d.Messages.Get)
	msgs.Post("/:id/reply", d.Messages.Reply)
	msgs.Post("/:id/reactions", d.Messages.React)
	msgs.Put("/:id/reactions", d.Messages.UpdateReaction)
	msgs.Delete("/:id/reactions", d.Messages.RemoveReaction)
	msgs.Put("/:id/markAsRead", d.Messages.MarkAsRead)

	pauses := api.Group("/pause", d.Auth)
	pauses.Post("/start", d.Pauses.Start)
	pauses.Post("/end", d.Pauses.End)
	pauses.Get("/active", d.Pauses.ListActive)
	pauses.Get("/pauses/today", d.Pauses.Today)
	pauses.Get("/count/:userId/:date", d.Pauses.CountForDate)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", websocket.New(d.Events.Serve))

	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "route not found"})
	})
}

// RateLimitFromLimiter adapts the redis limiter into a fiber handler,
// or nil when limiting is disabled.
func RateLimitFromLimiter(r *middleware.RateLimiter, enabled bool) fiber.Handler {
	if !enabled || r == nil {
		return nil
	}
	return r.Middleware()
}
