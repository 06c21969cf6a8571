package ws

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/franckabsuser/bam/internal/models"
	"github.com/franckabsuser/bam/internal/service"
)

const handlerTimeout = 10 * time.Second

// EventHandler dispatches inbound events to the services. One handler per
// event name; every failure is converted to an error event on the calling
// connection.
type EventHandler struct {
	hub           *Hub
	users         *service.UserService
	conversations *service.ConversationService
	messages      *service.MessageService
	pauses        *service.PauseService
	log           *zap.SugaredLogger
}

func NewEventHandler(hub *Hub, users *service.UserService, conversations *service.ConversationService, messages *service.MessageService, pauses *service.PauseService, log *zap.SugaredLogger) *EventHandler {
	return &EventHandler{
		hub:           hub,
		users:         users,
		conversations: conversations,
		messages:      messages,
		pauses:        pauses,
		log:           log,
	}
}

// Serve runs one connection until it drops. Must be called from a fiber
// websocket handler.
func (h *EventHandler) Serve(conn *websocket.Conn) {
	c := newClient(uuid.NewString(), conn, h.hub)
	h.hub.register(c)
	go c.writePump()
	c.readPump(h.dispatch)
}

func (h *EventHandler) dispatch(c *Client, env Envelope) {
	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	switch env.Event {
	case "userConnected":
		h.userConnected(c, env.Data)
	case "userLogout":
		h.userLogout(c, env.Data)
	case "updateUser":
		h.updateUser(ctx, c, env.Data)
	case "typingStatus":
		h.typingStatus(ctx, c, env.Data)
	case "blockUser":
		h.blockUser(ctx, c, env.Data)
	case "startPause":
		h.startPause(ctx, c, env.Data)
	case "endPause":
		h.endPause(ctx, c, env.Data)
	case "getActivePauses":
		h.getActivePauses(ctx, c)
	case "createConversation":
		h.createConversation(ctx, c, env.Data)
	case "deleteConversation":
		h.deleteConversation(ctx, c, env.Data)
	case "getConversations":
		h.getConversations(ctx, c, env.Data)
	case "joinConversation":
		h.joinConversation(ctx, c, env.Data)
	case "createMessage":
		h.createMessage(ctx, c, env.Data)
	case "replyToMessage":
		h.replyToMessage(ctx, c, env.Data)
	case "addReaction":
		h.addReaction(ctx, c, env.Data)
	case "updateReaction":
		h.updateReaction(ctx, c, env.Data)
	case "removeReaction":
		h.removeReaction(ctx, c, env.Data)
	case "getConversationDetails":
		h.getConversationDetails(ctx, c, env.Data)
	case "getConversationMessages":
		h.getConversationMessages(ctx, c, env.Data)
	case "archiveConversation":
		h.archiveConversation(ctx, c, env.Data)
	default:
		c.EmitError("unknown event: " + env.Event)
	}
}

// userID payloads arrive either as a bare string or as {"userId": ...}.
func decodeUserID(data json.RawMessage) (string, bool) {
	var s string
	if err := json.Unmarshal(data, &s); err == nil && s != "" {
		return s, true
	}
	var body struct {
		UserID string `json:"userId"`
	}
	if err := json.Unmarshal(data, &body); err == nil && body.UserID != "" {
		return body.UserID, true
	}
	return "", false
}

func (h *EventHandler) userConnected(c *Client, data json.RawMessage) {
	userID, ok := decodeUserID(data)
	if !ok {
		c.EmitError("userId is required")
		return
	}
	online := h.hub.BindUser(c, userID)
	c.Emit("onlineUsers", online)
}

func (h *EventHandler) userLogout(c *Client, data json.RawMessage) {
	userID, ok := decodeUserID(data)
	if !ok {
		c.EmitError("userId is required")
		return
	}
	h.hub.UnbindUser(userID)
}

func (h *EventHandler) updateUser(ctx context.Context, c *Client, data json.RawMessage) {
	var body struct {
		UserID  string            `json:"userId"`
		Updates models.UserUpdate `json:"updates"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		c.EmitError("invalid updateUser payload")
		return
	}
	if _, err := h.users.Update(ctx, body.UserID, body.Updates); err != nil {
		c.EmitError(err.Error())
	}
}

func (h *EventHandler) typingStatus(ctx context.Context, c *Client, data json.RawMessage) {
	var body struct {
		UserID   string `json:"userId"`
		IsTyping bool   `json:"isTyping"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		c.EmitError("invalid typingStatus payload")
		return
	}
	if err := h.users.SetTyping(ctx, body.UserID, body.IsTyping); err != nil {
		c.EmitError(err.Error())
	}
}

func (h *EventHandler) blockUser(ctx context.Context, c *Client, data json.RawMessage) {
	var body struct {
		UserID        string `json:"userId"`
		BlockedUserID string `json:"blockedUserId"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		c.EmitError("invalid blockUser payload")
		return
	}
	if err := h.users.Block(ctx, body.UserID, body.BlockedUserID); err != nil {
		c.EmitError(err.Error())
	}
}

func (h *EventHandler) startPause(ctx context.Context, c *Client, data json.RawMessage) {
	userID, ok := decodeUserID(data)
	if !ok {
		c.EmitError("userId is required")
		return
	}
	p, err := h.pauses.Start(ctx, userID)
	if err != nil {
		c.EmitError(err.Error())
		return
	}
	c.Emit("pauseStarted", map[string]any{"message": "pause started", "pause": p})
}

func (h *EventHandler) endPause(ctx context.Context, c *Client, data json.RawMessage) {
	userID, ok := decodeUserID(data)
	if !ok {
		c.EmitError("userId is required")
		return
	}
	p, err := h.pauses.End(ctx, userID)
	if err != nil {
		c.EmitError(err.Error())
		return
	}
	c.Emit("pauseEnded", map[string]any{"message": "pause ended", "pause": p})
}

func (h *EventHandler) getActivePauses(ctx context.Context, c *Client) {
	active, err := h.pauses.ListActive(ctx)
	if err != nil {
		c.EmitError(err.Error())
		return
	}
	c.Emit("activePauses", map[string]any{"activePauses": active})
}

func (h *EventHandler) createConversation(ctx context.Context, c *Client, data json.RawMessage) {
	var body struct {
		Participants []string `json:"participants"`
		UserID       string   `json:"userId"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		c.EmitError("invalid createConversation payload")
		return
	}
	if _, err := h.conversations.Create(ctx, body.Participants, body.UserID); err != nil {
		c.EmitError(err.Error())
	}
}

func (h *EventHandler) deleteConversation(ctx context.Context, c *Client, data json.RawMessage) {
	var body struct {
		ConversationID string `json:"conversationId"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		c.EmitError("invalid deleteConversation payload")
		return
	}
	if err := h.conversations.Delete(ctx, body.ConversationID); err != nil {
		c.EmitError(err.Error())
	}
}

// getConversations also subscribes the connection to each conversation's
// room so later mutations can be pushed without another query.
func (h *EventHandler) getConversations(ctx context.Context, c *Client, data json.RawMessage) {
	userID, ok := decodeUserID(data)
	if !ok {
		c.EmitError("userId is required")
		return
	}
	sums, err := h.conversations.ListForUser(ctx, userID)
	if err != nil {
		c.EmitError(err.Error())
		return
	}
	c.Emit("conversations", sums)
	for _, sum := range sums {
		h.hub.JoinRoom(sum.ConversationID.Hex(), c)
	}
}

func (h *EventHandler) joinConversation(ctx context.Context, c *Client, data json.RawMessage) {
	var body struct {
		ConversationID string `json:"conversationId"`
		UserID         string `json:"userId"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		c.EmitError("invalid joinConversation payload")
		return
	}
	h.hub.JoinRoom(body.ConversationID, c)
	res, err := h.conversations.Join(ctx, body.ConversationID, body.UserID)
	if err != nil {
		c.EmitError(err.Error())
		return
	}
	c.Emit("conversations", res.Conversations)
}

func (h *EventHandler) createMessage(ctx context.Context, c *Client, data json.RawMessage) {
	var in service.CreateMessageInput
	if err := json.Unmarshal(data, &in); err != nil {
		c.EmitError("invalid createMessage payload")
		return
	}
	if _, err := h.messages.Create(ctx, in); err != nil {
		c.EmitError(err.Error())
	}
}

func (h *EventHandler) replyToMessage(ctx context.Context, c *Client, data json.RawMessage) {
	var body struct {
		service.CreateMessageInput
		MessageID string `json:"messageId"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		c.EmitError("invalid replyToMessage payload")
		return
	}
	if _, err := h.messages.Reply(ctx, body.CreateMessageInput, body.MessageID); err != nil {
		c.EmitError(err.Error())
	}
}

func (h *EventHandler) addReaction(ctx context.Context, c *Client, data json.RawMessage) {
	h.reaction(ctx, c, data, h.messages.AddReaction)
}

func (h *EventHandler) updateReaction(ctx context.Context, c *Client, data json.RawMessage) {
	h.reaction(ctx, c, data, h.messages.UpdateReaction)
}

func (h *EventHandler) reaction(ctx context.Context, c *Client, data json.RawMessage, op func(context.Context, string, string, string) ([]models.Reaction, error)) {
	var body struct {
		MessageID    string `json:"messageId"`
		ReactionType string `json:"reactionType"`
		UserID       string `json:"userId"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		c.EmitError("invalid reaction payload")
		return
	}
	if _, err := op(ctx, body.MessageID, body.UserID, body.ReactionType); err != nil {
		c.EmitError(err.Error())
	}
}

func (h *EventHandler) removeReaction(ctx context.Context, c *Client, data json.RawMessage) {
	var body struct {
		MessageID string `json:"messageId"`
		UserID    string `json:"userId"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		c.EmitError("invalid removeReaction payload")
		return
	}
	if _, err := h.messages.RemoveReaction(ctx, body.MessageID, body.UserID); err != nil {
		c.EmitError(err.Error())
	}
}

func (h *EventHandler) getConversationDetails(ctx context.Context, c *Client, data json.RawMessage) {
	var body struct {
		ConversationID string `json:"conversationId"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		c.EmitError("invalid getConversationDetails payload")
		return
	}
	detail, err := h.conversations.Get(ctx, body.ConversationID)
	if err != nil {
		c.EmitError(err.Error())
		return
	}
	c.Emit("conversationDetails", detail)
}

func (h *EventHandler) getConversationMessages(ctx context.Context, c *Client, data json.RawMessage) {
	var body struct {
		ConversationID string `json:"conversationId"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		c.EmitError("invalid getConversationMessages payload")
		return
	}
	msgs, err := h.messages.ListForConversation(ctx, body.ConversationID)
	if err != nil {
		c.EmitError(err.Error())
		return
	}
	c.Emit("conversationMessages", msgs)
}

func (h *EventHandler) archiveConversation(ctx context.Context, c *Client, data json.RawMessage) {
	var body struct {
		ConversationID string `json:"conversationId"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		c.EmitError("invalid archiveConversation payload")
		return
	}
	conv, err := h.conversations.Archive(ctx, body.ConversationID)
	if err != nil {
		c.EmitError(err.Error())
		return
	}
	c.Emit("conversationArchived", map[string]any{"message": "conversation archived", "conversation": conv})
}
