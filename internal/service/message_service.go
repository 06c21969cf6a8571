package service

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/franckabsuser/bam/internal/apperr"
	"github.com/franckabsuser/bam/internal/models"
	"github.com/franckabsuser/bam/internal/repository"
)

type MessageService struct {
	msgs     repository.MessageRepository
	convs    repository.ConversationRepository
	users    repository.UserRepository
	notifier Notifier
	log      *zap.SugaredLogger
}

func NewMessageService(msgs repository.MessageRepository, convs repository.ConversationRepository, users repository.UserRepository, n Notifier, log *zap.SugaredLogger) *MessageService {
	return &MessageService{msgs: msgs, convs: convs, users: users, notifier: n, log: log}
}

type CreateMessageInput struct {
	Sender         string `json:"sender"`
	Receiver       string `json:"receiver"`
	ConversationID string `json:"conversationId"`
	MessageType    string `json:"messageType"`
	Content        string `json:"content"`
	ReplyTo        string `json:"replyTo,omitempty"`
}

// Create persists an unread message, moves the parent conversation's
// last-message pointer, and delivers the message once to the conversation
// room plus the receiver's own channel.
func (s *MessageService) Create(ctx context.Context, in CreateMessageInput) (*models.MessageView, error) {
	return s.create(ctx, in, "messageCreated")
}

// Reply is Create with the replyTo reference set. The referenced message
// is not required to belong to the same conversation.
func (s *MessageService) Reply(ctx context.Context, in CreateMessageInput, replyToID string) (*models.MessageView, error) {
	in.ReplyTo = replyToID
	return s.create(ctx, in, "messageReplied")
}

func (s *MessageService) create(ctx context.Context, in CreateMessageInput, event string) (*models.MessageView, error) {
	if in.Content == "" {
		return nil, apperr.Validation("content is required")
	}
	sender, err := parseID(in.Sender)
	if err != nil {
		return nil, err
	}
	receiver, err := parseID(in.Receiver)
	if err != nil {
		return nil, err
	}
	convID, err := parseID(in.ConversationID)
	if err != nil {
		return nil, err
	}
	if _, err := s.convs.FindByID(ctx, convID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("conversation %s", in.ConversationID)
		}
		return nil, err
	}

	msg := &models.Message{
		Sender:         sender,
		Receiver:       receiver,
		ConversationID: convID,
		MessageType:    in.MessageType,
		Content:        in.Content,
		IsRead:         false,
	}
	if msg.MessageType == "" {
		msg.MessageType = "text"
	}
	if in.ReplyTo != "" {
		replyTo, err := parseID(in.ReplyTo)
		if err != nil {
			return nil, err
		}
		msg.ReplyTo = &replyTo
	}
	if err := s.msgs.Insert(ctx, msg); err != nil {
		return nil, err
	}
	if err := s.convs.SetLastMessage(ctx, convID, msg.ID, msg.CreatedAt); err != nil {
		s.log.Warnw("set last message", "conversation", in.ConversationID, "err", err)
	}

	view, err := s.buildView(ctx, msg)
	if err != nil {
		return nil, err
	}
	s.notifier.ToRoom(in.ConversationID, event, view)
	s.notifier.ToUser(in.Receiver, event, view)
	return view, nil
}

// Get returns one message with sender/receiver projections and a content
// preview of the replied-to message.
func (s *MessageService) Get(ctx context.Context, id string) (*models.MessageView, error) {
	mid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	msg, err := s.msgs.FindByID(ctx, mid)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("message %s", id)
		}
		return nil, err
	}
	view, err := s.buildView(ctx, msg)
	if err != nil {
		return nil, err
	}
	if msg.ReplyTo != nil {
		if replied, err := s.msgs.FindByID(ctx, *msg.ReplyTo); err == nil {
			view.ReplyToText = replied.Content
		}
	}
	return view, nil
}

// ListForConversation returns the conversation's messages oldest first.
func (s *MessageService) ListForConversation(ctx context.Context, conversationID string) ([]*models.MessageView, error) {
	cid, err := parseID(conversationID)
	if err != nil {
		return nil, err
	}
	msgs, err := s.msgs.ListForConversation(ctx, cid)
	if err != nil {
		return nil, err
	}
	return buildMessageViews(ctx, s.users, msgs)
}

// AddReaction upserts the user's reaction; re-reacting overwrites the
// previous type rather than adding a second entry.
func (s *MessageService) AddReaction(ctx context.Context, messageID, userID, reactionType string) ([]models.Reaction, error) {
	return s.mutateReactions(ctx, messageID, userID, reactionType, "reactionAdded", s.msgs.SetReaction)
}

// UpdateReaction overwrites an existing reaction and fails when the user
// has none on the message.
func (s *MessageService) UpdateReaction(ctx context.Context, messageID, userID, reactionType string) ([]models.Reaction, error) {
	reactions, err := s.mutateReactions(ctx, messageID, userID, reactionType, "reactionUpdated", s.msgs.UpdateReaction)
	if err != nil && errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.NotFound("no reaction from user on message %s", messageID)
	}
	return reactions, err
}

// RemoveReaction drops the user's reaction; removing a reaction that was
// never added is a no-op.
func (s *MessageService) RemoveReaction(ctx context.Context, messageID, userID string) ([]models.Reaction, error) {
	remove := func(ctx context.Context, msgID, uid primitive.ObjectID, _ string) ([]models.Reaction, error) {
		return s.msgs.RemoveReaction(ctx, msgID, uid)
	}
	return s.mutateReactions(ctx, messageID, userID, "", "reactionRemoved", remove)
}

type reactionOp func(ctx context.Context, msgID, userID primitive.ObjectID, reactionType string) ([]models.Reaction, error)

func (s *MessageService) mutateReactions(ctx context.Context, messageID, userID, reactionType, event string, op reactionOp) ([]models.Reaction, error) {
	mid, err := parseID(messageID)
	if err != nil {
		return nil, err
	}
	uid, err := parseID(userID)
	if err != nil {
		return nil, err
	}
	msg, err := s.msgs.FindByID(ctx, mid)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("message %s", messageID)
		}
		return nil, err
	}
	reactions, err := op(ctx, mid, uid, reactionType)
	if err != nil {
		return nil, err
	}
	s.notifier.ToRoom(msg.ConversationID.Hex(), event, map[string]any{
		"messageId": messageID,
		"reaction":  reactions,
	})
	return reactions, nil
}

// MarkAsRead bulk-flips isRead for every message in the conversation
// addressed to the user and returns the number of affected messages.
func (s *MessageService) MarkAsRead(ctx context.Context, conversationID, userID string) (int64, error) {
	cid, err := parseID(conversationID)
	if err != nil {
		return 0, err
	}
	uid, err := parseID(userID)
	if err != nil {
		return 0, err
	}
	return s.msgs.MarkRead(ctx, cid, uid)
}

func (s *MessageService) buildView(ctx context.Context, msg *models.Message) (*models.MessageView, error) {
	views, err := buildMessageViews(ctx, s.users, []*models.Message{msg})
	if err != nil {
		return nil, err
	}
	return views[0], nil
}

// buildMessageViews resolves sender/receiver projections for a batch of
// messages with a single user lookup.
func buildMessageViews(ctx context.Context, users repository.UserRepository, msgs []*models.Message) ([]*models.MessageView, error) {
	idSet := make(map[primitive.ObjectID]bool)
	for _, m := range msgs {
		idSet[m.Sender] = true
		idSet[m.Receiver] = true
	}
	ids := make([]primitive.ObjectID, 0, len(idSet))
	for id := range idSet {
		ids = append(ids, id)
	}
	found, err := users.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	refs := make(map[primitive.ObjectID]models.UserRef, len(found))
	for _, u := range found {
		refs[u.ID] = u.Ref()
	}
	out := make([]*models.MessageView, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, &models.MessageView{
			Message:     *m,
			SenderRef:   refs[m.Sender],
			ReceiverRef: refs[m.Receiver],
		})
	}
	return out, nil
}
