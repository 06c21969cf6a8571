package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is an account record. The password hash never leaves the process:
// it is excluded from JSON and stripped from every projection handed to
// other participants.
type User struct {
	ID               primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Email            string               `bson:"email" json:"email"`
	NameAndFirstName string               `bson:"nameAndFirstName" json:"nameAndFirstName"`
	JeSuis           string               `bson:"jeSuis,omitempty" json:"jeSuis,omitempty"`
	Password         string               `bson:"password" json:"-"`
	ProfilePhoto     string               `bson:"profilePhoto,omitempty" json:"profilePhoto,omitempty"`
	IsTyping         bool                 `bson:"isTyping" json:"isTyping"`
	BlockedUsers     []primitive.ObjectID `bson:"blockedUsers,omitempty" json:"blockedUsers,omitempty"`
	LastConnection   time.Time            `bson:"lastConnection,omitempty" json:"lastConnection,omitempty"`
	CreatedAt        time.Time            `bson:"created_at" json:"created_at"`
	UpdatedAt        time.Time            `bson:"updated_at" json:"updated_at"`
}

// UserRef is the short projection attached to messages: display name and
// photo only.
type UserRef struct {
	ID               primitive.ObjectID `bson:"_id" json:"id"`
	NameAndFirstName string             `bson:"nameAndFirstName" json:"nameAndFirstName"`
	ProfilePhoto     string             `bson:"profilePhoto,omitempty" json:"profilePhoto,omitempty"`
}

// Ref projects a user down to the fields other participants may see on a
// message.
func (u *User) Ref() UserRef {
	return UserRef{ID: u.ID, NameAndFirstName: u.NameAndFirstName, ProfilePhoto: u.ProfilePhoto}
}

// UserUpdate is the allow-listed profile mutation. Raw request bodies are
// never applied to the document; a pre-hashed password submitted by a
// client would otherwise bypass hashing entirely.
type UserUpdate struct {
	Email            *string `json:"email,omitempty"`
	NameAndFirstName *string `json:"nameAndFirstName,omitempty"`
	JeSuis           *string `json:"jeSuis,omitempty"`
	Password         *string `json:"password,omitempty"`
	ProfilePhoto     *string `json:"profilePhoto,omitempty"`
}

// Empty reports whether the update carries no fields.
func (u UserUpdate) Empty() bool {
	return u.Email == nil && u.NameAndFirstName == nil && u.JeSuis == nil &&
		u.Password == nil && u.ProfilePhoto == nil
}
