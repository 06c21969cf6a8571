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

type ConversationService struct {
	convs    repository.ConversationRepository
	msgs     repository.MessageRepository
	users    repository.UserRepository
	notifier Notifier
	log      *zap.SugaredLogger
}

func NewConversationService(convs repository.ConversationRepository, msgs repository.MessageRepository, users repository.UserRepository, n Notifier, log *zap.SugaredLogger) *ConversationService {
	return &ConversationService{convs: convs, msgs: msgs, users: users, notifier: n, log: log}
}

// Create resolves participant emails to users, classifies group vs direct
// and enforces the one-direct-conversation-per-pair invariant. Direct
// dedup considers the unordered pair of the first two resolved
// participants only; once a third participant resolves, group
// classification takes over and no existence check runs.
func (s *ConversationService) Create(ctx context.Context, participantEmails []string, requesterID string) (*models.Conversation, error) {
	if len(participantEmails) == 0 {
		return nil, apperr.Validation("participants are required")
	}
	requester, err := parseID(requesterID)
	if err != nil {
		return nil, err
	}
	found, err := s.users.FindByEmails(ctx, participantEmails)
	if err != nil {
		return nil, err
	}
	if len(found) != len(participantEmails) {
		return nil, apperr.Validation("one or more participants are invalid or not found")
	}

	ids := make([]primitive.ObjectID, 0, len(found)+1)
	seen := make(map[primitive.ObjectID]bool, len(found)+1)
	for _, u := range found {
		if !u.ID.IsZero() && !seen[u.ID] {
			ids = append(ids, u.ID)
			seen[u.ID] = true
		}
	}
	if !seen[requester] {
		ids = append(ids, requester)
	}
	if len(ids) < 2 {
		return nil, apperr.Validation("a conversation needs at least two participants")
	}

	isGroup := len(ids) > 2
	if !isGroup {
		if _, err := s.convs.FindDirectByPair(ctx, ids[0], ids[1]); err == nil {
			return nil, apperr.Conflict("conversation already exists")
		} else if !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
	}

	conv := &models.Conversation{Participants: ids, IsGroup: isGroup}
	if err := s.convs.Insert(ctx, conv); err != nil {
		return nil, err
	}
	s.log.Infow("conversation created", "conversation", conv.ID.Hex(), "group", isGroup)
	s.notifier.Broadcast("conversationCreated", map[string]any{
		"message":      "conversation created",
		"conversation": conv,
	})
	return conv, nil
}

// ListForUser projects every conversation the user participates in to its
// summary: the other participants, a last-message preview, and the count
// of messages still unread by the user.
func (s *ConversationService) ListForUser(ctx context.Context, userID string) ([]*models.ConversationSummary, error) {
	uid, err := parseID(userID)
	if err != nil {
		return nil, err
	}
	convs, err := s.convs.ListForUser(ctx, uid)
	if err != nil {
		return nil, err
	}
	out := make([]*models.ConversationSummary, 0, len(convs))
	for _, conv := range convs {
		sum, err := s.summarize(ctx, conv, uid)
		if err != nil {
			return nil, err
		}
		out = append(out, sum)
	}
	return out, nil
}

func (s *ConversationService) summarize(ctx context.Context, conv *models.Conversation, viewer primitive.ObjectID) (*models.ConversationSummary, error) {
	others := make([]primitive.ObjectID, 0, len(conv.Participants))
	for _, p := range conv.Participants {
		if p != viewer {
			others = append(others, p)
		}
	}
	participants, err := s.users.FindByIDs(ctx, others)
	if err != nil {
		return nil, err
	}

	sum := &models.ConversationSummary{
		ConversationID:   conv.ID,
		Participants:     participants,
		LastMessage:      models.NoMessagesSentinel,
		IsArchived:       conv.IsArchived,
		IsGroup:          conv.IsGroup,
		ConversationName: conv.ConversationName,
		CreatedAt:        conv.CreatedAt,
		UpdatedAt:        conv.UpdatedAt,
	}
	if conv.LastMessage != nil {
		if last, err := s.msgs.FindByID(ctx, *conv.LastMessage); err == nil {
			sum.LastMessage = last.Content
			t := last.CreatedAt
			sum.LastMessageDate = &t
		} else if !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
	}
	unread, err := s.msgs.CountUnread(ctx, conv.ID, viewer)
	if err != nil {
		return nil, err
	}
	sum.UnreadMessages = unread
	return sum, nil
}

// JoinResult carries everything the caller's connection needs after
// joining: how many messages were flipped to read and the refreshed
// summaries to push back down.
type JoinResult struct {
	ModifiedCount int64
	Conversations []*models.ConversationSummary
}

// Join marks every unread message addressed to the user in the
// conversation as read, tells the other participants their messages were
// seen, and returns the user's refreshed conversation list.
func (s *ConversationService) Join(ctx context.Context, conversationID, userID string) (*JoinResult, error) {
	cid, err := parseID(conversationID)
	if err != nil {
		return nil, err
	}
	uid, err := parseID(userID)
	if err != nil {
		return nil, err
	}
	conv, err := s.convs.FindByID(ctx, cid)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("conversation %s", conversationID)
		}
		return nil, err
	}
	modified, err := s.msgs.MarkRead(ctx, cid, uid)
	if err != nil {
		return nil, err
	}
	readEvt := map[string]any{"conversationId": conversationID, "userId": userID}
	for _, p := range conv.Participants {
		if p != uid {
			s.notifier.ToUser(p.Hex(), "messagesRead", readEvt)
		}
	}
	sums, err := s.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &JoinResult{ModifiedCount: modified, Conversations: sums}, nil
}

// Get returns the full conversation detail with message history.
func (s *ConversationService) Get(ctx context.Context, id string) (*models.ConversationDetail, error) {
	cid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	conv, err := s.convs.FindByID(ctx, cid)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("conversation %s", id)
		}
		return nil, err
	}
	participants, err := s.users.FindByIDs(ctx, conv.Participants)
	if err != nil {
		return nil, err
	}
	msgs, err := s.msgs.ListForConversation(ctx, cid)
	if err != nil {
		return nil, err
	}
	views, err := buildMessageViews(ctx, s.users, msgs)
	if err != nil {
		return nil, err
	}
	detail := &models.ConversationDetail{
		Conversation: conv,
		Participants: participants,
		Messages:     views,
	}
	if conv.LastMessage != nil {
		if last, err := s.msgs.FindByID(ctx, *conv.LastMessage); err == nil {
			detail.LastMessage = last
		}
	}
	return detail, nil
}

// Rename sets the display name. Only the name is updatable here; other
// conversation fields change through their dedicated operations.
func (s *ConversationService) Rename(ctx context.Context, id, name string) (*models.Conversation, error) {
	cid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	if name == "" {
		return nil, apperr.Validation("conversation name is required")
	}
	conv, err := s.convs.SetName(ctx, cid, name)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("conversation %s", id)
		}
		return nil, err
	}
	return conv, nil
}

func (s *ConversationService) Archive(ctx context.Context, id string) (*models.Conversation, error) {
	cid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	conv, err := s.convs.SetArchived(ctx, cid)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("conversation %s", id)
		}
		return nil, err
	}
	s.notifier.Broadcast("conversationArchived", map[string]any{"conversationId": id})
	return conv, nil
}

func (s *ConversationService) Delete(ctx context.Context, id string) error {
	cid, err := parseID(id)
	if err != nil {
		return err
	}
	if err := s.convs.Delete(ctx, cid); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.NotFound("conversation %s", id)
		}
		return err
	}
	s.notifier.Broadcast("conversationDeleted", map[string]any{"conversationId": id})
	return nil
}
