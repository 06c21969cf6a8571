// Package repository holds the persistence interfaces and their MongoDB
// implementations. Services depend on the interfaces only; tests plug in
// in-memory fakes.
package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/franckabsuser/bam/internal/models"
)

// ErrNotFound is returned when a document id resolves to nothing.
var ErrNotFound = errors.New("not found")

type UserRepository interface {
	Insert(ctx context.Context, u *models.User) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByEmails(ctx context.Context, emails []string) ([]*models.User, error)
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]*models.User, error)
	ApplyUpdate(ctx context.Context, id primitive.ObjectID, upd models.UserUpdate) (*models.User, error)
	SetTyping(ctx context.Context, id primitive.ObjectID, typing bool) error
	AddBlockedUser(ctx context.Context, id, blocked primitive.ObjectID) error
	SetLastConnection(ctx context.Context, id primitive.ObjectID, at time.Time) error
}

type ConversationRepository interface {
	Insert(ctx context.Context, c *models.Conversation) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Conversation, error)
	// FindDirectByPair looks up the non-group conversation containing both
	// participants, in either order. ErrNotFound when none exists.
	FindDirectByPair(ctx context.Context, a, b primitive.ObjectID) (*models.Conversation, error)
	ListForUser(ctx context.Context, userID primitive.ObjectID) ([]*models.Conversation, error)
	SetLastMessage(ctx context.Context, convID, msgID primitive.ObjectID, at time.Time) error
	SetArchived(ctx context.Context, id primitive.ObjectID) (*models.Conversation, error)
	SetName(ctx context.Context, id primitive.ObjectID, name string) (*models.Conversation, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type MessageRepository interface {
	Insert(ctx context.Context, m *models.Message) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Message, error)
	// ListForConversation returns messages ordered by creation time
	// ascending.
	ListForConversation(ctx context.Context, convID primitive.ObjectID) ([]*models.Message, error)
	CountUnread(ctx context.Context, convID, receiver primitive.ObjectID) (int64, error)
	// MarkRead flips isRead on every unread message addressed to receiver
	// in the conversation and returns the number of affected documents.
	MarkRead(ctx context.Context, convID, receiver primitive.ObjectID) (int64, error)
	// SetReaction upserts the user's reaction (last write wins) and
	// returns the resulting reaction list.
	SetReaction(ctx context.Context, msgID, userID primitive.ObjectID, reactionType string) ([]models.Reaction, error)
	// UpdateReaction overwrites an existing reaction; ErrNotFound when the
	// user has none on the message.
	UpdateReaction(ctx context.Context, msgID, userID primitive.ObjectID, reactionType string) ([]models.Reaction, error)
	// RemoveReaction drops the user's reaction; no-op when absent.
	RemoveReaction(ctx context.Context, msgID, userID primitive.ObjectID) ([]models.Reaction, error)
}

type PauseRepository interface {
	Insert(ctx context.Context, p *models.Pause) error
	// FindActiveByUser returns one active pause for the user (arbitrary
	// when several exist). ErrNotFound when none is active.
	FindActiveByUser(ctx context.Context, userID primitive.ObjectID) (*models.Pause, error)
	End(ctx context.Context, id primitive.ObjectID, endedAt time.Time, duration float64) error
	ListActive(ctx context.Context) ([]*models.Pause, error)
	ListStartedBetween(ctx context.Context, userID primitive.ObjectID, from, to time.Time) ([]*models.Pause, error)
}
