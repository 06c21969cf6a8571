package service

import (
	"context"
	"errors"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/franckabsuser/bam/internal/apperr"
	"github.com/franckabsuser/bam/internal/models"
)

func seedConversation(t *testing.T, f *convFixture) (a, b *models.User, conv *models.Conversation) {
	t.Helper()
	a = f.addUser(t, "a@example.com")
	b = f.addUser(t, "b@example.com")
	conv, err := f.svc.Create(context.Background(), []string{b.Email}, a.ID.Hex())
	if err != nil {
		t.Fatalf("create conversation: %v", err)
	}
	f.rec.notices = nil
	return a, b, conv
}

func TestCreateMessageDeliversOncePerScope(t *testing.T) {
	f := newConvFixture()
	a, b, conv := seedConversation(t, f)

	view, err := f.msvc.Create(context.Background(), CreateMessageInput{
		Sender:         a.ID.Hex(),
		Receiver:       b.ID.Hex(),
		ConversationID: conv.ID.Hex(),
		Content:        "bonjour",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if view.MessageType != "text" {
		t.Fatalf("messageType = %q, want default text", view.MessageType)
	}
	if view.IsRead {
		t.Fatal("new message must start unread")
	}
	if view.SenderRef.NameAndFirstName != a.NameAndFirstName {
		t.Fatalf("senderRef = %+v", view.SenderRef)
	}

	var room, user int
	for _, n := range f.rec.notices {
		if n.Event != "messageCreated" {
			continue
		}
		switch n.Scope {
		case "room":
			room++
			if n.Target != conv.ID.Hex() {
				t.Fatalf("room target = %q, want conversation id", n.Target)
			}
		case "user":
			user++
			if n.Target != b.ID.Hex() {
				t.Fatalf("user target = %q, want receiver", n.Target)
			}
		case "broadcast":
			t.Fatal("messageCreated must never broadcast")
		}
	}
	if room != 1 || user != 1 {
		t.Fatalf("deliveries room=%d user=%d, want exactly one each", room, user)
	}

	// last-message pointer moved
	stored, err := f.convs.FindByID(context.Background(), conv.ID)
	if err != nil {
		t.Fatalf("find conversation: %v", err)
	}
	if stored.LastMessage == nil || *stored.LastMessage != view.ID {
		t.Fatal("lastMessage pointer not updated")
	}
}

func TestCreateMessageRequiresContentAndConversation(t *testing.T) {
	f := newConvFixture()
	a, b, conv := seedConversation(t, f)

	_, err := f.msvc.Create(context.Background(), CreateMessageInput{
		Sender:         a.ID.Hex(),
		Receiver:       b.ID.Hex(),
		ConversationID: conv.ID.Hex(),
	})
	if !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("empty content: expected validation error, got %v", err)
	}

	_, err = f.msvc.Create(context.Background(), CreateMessageInput{
		Sender:         a.ID.Hex(),
		Receiver:       b.ID.Hex(),
		ConversationID: primitive.NewObjectID().Hex(),
		Content:        "hello",
	})
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("unknown conversation: expected not found, got %v", err)
	}
}

func TestReplyCarriesPreview(t *testing.T) {
	f := newConvFixture()
	a, b, conv := seedConversation(t, f)

	orig, err := f.msvc.Create(context.Background(), CreateMessageInput{
		Sender:         a.ID.Hex(),
		Receiver:       b.ID.Hex(),
		ConversationID: conv.ID.Hex(),
		Content:        "original",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	reply, err := f.msvc.Reply(context.Background(), CreateMessageInput{
		Sender:         b.ID.Hex(),
		Receiver:       a.ID.Hex(),
		ConversationID: conv.ID.Hex(),
		Content:        "réponse",
	}, orig.ID.Hex())
	if err != nil {
		t.Fatalf("reply: %v", err)
	}
	if reply.ReplyTo == nil || *reply.ReplyTo != orig.ID {
		t.Fatal("replyTo reference not set")
	}

	got, err := f.msvc.Get(context.Background(), reply.ID.Hex())
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ReplyToText != "original" {
		t.Fatalf("replyToContent = %q, want %q", got.ReplyToText, "original")
	}
}

func TestReactionLastWriteWins(t *testing.T) {
	f := newConvFixture()
	a, b, conv := seedConversation(t, f)

	msg, err := f.msvc.Create(context.Background(), CreateMessageInput{
		Sender:         a.ID.Hex(),
		Receiver:       b.ID.Hex(),
		ConversationID: conv.ID.Hex(),
		Content:        "hey",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := f.msvc.AddReaction(context.Background(), msg.ID.Hex(), b.ID.Hex(), "like"); err != nil {
		t.Fatalf("first reaction: %v", err)
	}
	reactions, err := f.msvc.AddReaction(context.Background(), msg.ID.Hex(), b.ID.Hex(), "love")
	if err != nil {
		t.Fatalf("second reaction: %v", err)
	}
	if len(reactions) != 1 {
		t.Fatalf("reactions = %d, want 1 (overwrite, not append)", len(reactions))
	}
	if reactions[0].ReactionType != "love" {
		t.Fatalf("reactionType = %q, want love", reactions[0].ReactionType)
	}
}

func TestUpdateReactionWithoutExisting(t *testing.T) {
	f := newConvFixture()
	a, b, conv := seedConversation(t, f)

	msg, err := f.msvc.Create(context.Background(), CreateMessageInput{
		Sender:         a.ID.Hex(),
		Receiver:       b.ID.Hex(),
		ConversationID: conv.ID.Hex(),
		Content:        "hey",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	_, err = f.msvc.UpdateReaction(context.Background(), msg.ID.Hex(), b.ID.Hex(), "like")
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestRemoveReactionIdempotent(t *testing.T) {
	f := newConvFixture()
	a, b, conv := seedConversation(t, f)

	msg, err := f.msvc.Create(context.Background(), CreateMessageInput{
		Sender:         a.ID.Hex(),
		Receiver:       b.ID.Hex(),
		ConversationID: conv.ID.Hex(),
		Content:        "hey",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := f.msvc.AddReaction(context.Background(), msg.ID.Hex(), b.ID.Hex(), "like"); err != nil {
		t.Fatalf("add: %v", err)
	}
	reactions, err := f.msvc.RemoveReaction(context.Background(), msg.ID.Hex(), b.ID.Hex())
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if len(reactions) != 0 {
		t.Fatalf("reactions after remove = %d, want 0", len(reactions))
	}
	// removing again is a no-op, not an error
	if _, err := f.msvc.RemoveReaction(context.Background(), msg.ID.Hex(), b.ID.Hex()); err != nil {
		t.Fatalf("second remove: %v", err)
	}
}

func TestReactionEventsGoToConversationRoom(t *testing.T) {
	f := newConvFixture()
	a, b, conv := seedConversation(t, f)

	msg, err := f.msvc.Create(context.Background(), CreateMessageInput{
		Sender:         a.ID.Hex(),
		Receiver:       b.ID.Hex(),
		ConversationID: conv.ID.Hex(),
		Content:        "hey",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	f.rec.notices = nil

	if _, err := f.msvc.AddReaction(context.Background(), msg.ID.Hex(), b.ID.Hex(), "like"); err != nil {
		t.Fatalf("add: %v", err)
	}
	if len(f.rec.notices) != 1 {
		t.Fatalf("notices = %d, want 1", len(f.rec.notices))
	}
	n := f.rec.notices[0]
	if n.Scope != "room" || n.Target != conv.ID.Hex() || n.Event != "reactionAdded" {
		t.Fatalf("notice = %+v, want reactionAdded to the conversation room", n)
	}
}

func TestMarkAsRead(t *testing.T) {
	f := newConvFixture()
	a, b, conv := seedConversation(t, f)

	for i := 0; i < 2; i++ {
		if _, err := f.msvc.Create(context.Background(), CreateMessageInput{
			Sender:         a.ID.Hex(),
			Receiver:       b.ID.Hex(),
			ConversationID: conv.ID.Hex(),
			Content:        "msg",
		}); err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
	}
	modified, err := f.msvc.MarkAsRead(context.Background(), conv.ID.Hex(), b.ID.Hex())
	if err != nil {
		t.Fatalf("mark as read: %v", err)
	}
	if modified != 2 {
		t.Fatalf("modified = %d, want 2", modified)
	}
	// the sender's own view is untouched: nothing addressed to them
	modified, err = f.msvc.MarkAsRead(context.Background(), conv.ID.Hex(), a.ID.Hex())
	if err != nil {
		t.Fatalf("mark as read sender: %v", err)
	}
	if modified != 0 {
		t.Fatalf("modified for sender = %d, want 0", modified)
	}
}
