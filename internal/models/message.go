package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Reaction is embedded in a message. A user holds at most one reaction per
// message; re-reacting overwrites the previous type.
type Reaction struct {
	User         primitive.ObjectID `bson:"user" json:"user"`
	ReactionType string             `bson:"reactionType" json:"reactionType"`
}

type Message struct {
	ID             primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Sender         primitive.ObjectID  `bson:"sender" json:"sender"`
	Receiver       primitive.ObjectID  `bson:"receiver" json:"receiver"`
	ConversationID primitive.ObjectID  `bson:"conversationId" json:"conversationId"`
	MessageType    string              `bson:"messageType" json:"messageType"`
	Content        string              `bson:"content" json:"content"`
	ReplyTo        *primitive.ObjectID `bson:"replyTo,omitempty" json:"replyTo,omitempty"`
	IsRead         bool                `bson:"isRead" json:"isRead"`
	Reactions      []Reaction          `bson:"reactions,omitempty" json:"reactions,omitempty"`
	CreatedAt      time.Time           `bson:"created_at" json:"createdAt"`
	UpdatedAt      time.Time           `bson:"updated_at" json:"updatedAt"`
}

// MessageView is a message with sender/receiver projected to display name
// and profile photo, and an optional content preview of the replied-to
// message.
type MessageView struct {
	Message
	SenderRef   UserRef `json:"senderRef"`
	ReceiverRef UserRef `json:"receiverRef"`
	ReplyToText string  `json:"replyToContent,omitempty"`
}
