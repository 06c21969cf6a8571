package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Conversation groups participants. Direct conversations hold exactly two
// participants and are deduplicated on the unordered pair; groups hold
// three or more and are never deduplicated.
type Conversation struct {
	ID               primitive.ObjectID   `bson:"_id,omitempty" json:"conversationId"`
	Participants     []primitive.ObjectID `bson:"participants" json:"participants"`
	IsGroup          bool                 `bson:"isGroup" json:"isGroup"`
	ConversationName string               `bson:"conversationName,omitempty" json:"conversationName,omitempty"`
	LastMessage      *primitive.ObjectID  `bson:"lastMessage,omitempty" json:"lastMessage,omitempty"`
	IsArchived       bool                 `bson:"isArchived" json:"isArchived"`
	CreatedAt        time.Time            `bson:"created_at" json:"createdAt"`
	UpdatedAt        time.Time            `bson:"updated_at" json:"updatedAt"`
}

// NoMessagesSentinel is returned as the last-message preview of a
// conversation that has no messages yet.
const NoMessagesSentinel = "No messages"

// ConversationSummary is the listConversations projection: the requesting
// user is removed from participants, the password field never appears, and
// the unread count is computed per requester.
type ConversationSummary struct {
	ConversationID   primitive.ObjectID `json:"conversationId"`
	Participants     []*User            `json:"participants"`
	LastMessage      string             `json:"lastMessage"`
	LastMessageDate  *time.Time         `json:"lastMessageDate"`
	UnreadMessages   int64              `json:"unreadMessagesCount"`
	IsArchived       bool               `json:"isArchived"`
	IsGroup          bool               `json:"isGroup"`
	ConversationName string             `json:"conversationName,omitempty"`
	CreatedAt        time.Time          `json:"createdAt"`
	UpdatedAt        time.Time          `json:"updatedAt"`
}

// ConversationDetail carries the full conversation with its message
// history for the detail views.
type ConversationDetail struct {
	Conversation *Conversation  `json:"conversation"`
	Participants []*User        `json:"participants"`
	Messages     []*MessageView `json:"messages"`
	LastMessage  *Message       `json:"lastMessage,omitempty"`
}
