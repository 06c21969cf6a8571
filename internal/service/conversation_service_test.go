package service

import (
	"context"
	"errors"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/franckabsuser/bam/internal/apperr"
	"github.com/franckabsuser/bam/internal/models"
)

type convFixture struct {
	users *memUserRepo
	convs *memConversationRepo
	msgs  *memMessageRepo
	rec   *recordingNotifier
	svc   *ConversationService
	msvc  *MessageService
}

func newConvFixture() *convFixture {
	users := newMemUserRepo()
	convs := newMemConversationRepo()
	msgs := newMemMessageRepo()
	rec := &recordingNotifier{}
	return &convFixture{
		users: users,
		convs: convs,
		msgs:  msgs,
		rec:   rec,
		svc:   NewConversationService(convs, msgs, users, rec, testLogger()),
		msvc:  NewMessageService(msgs, convs, users, rec, testLogger()),
	}
}

func (f *convFixture) addUser(t *testing.T, email string) *models.User {
	t.Helper()
	u := &models.User{Email: email, NameAndFirstName: email, Password: "hash"}
	if err := f.users.Insert(context.Background(), u); err != nil {
		t.Fatalf("insert user: %v", err)
	}
	return u
}

func TestCreateDirectConversation(t *testing.T) {
	f := newConvFixture()
	a := f.addUser(t, "a@example.com")
	b := f.addUser(t, "b@example.com")

	conv, err := f.svc.Create(context.Background(), []string{b.Email}, a.ID.Hex())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if conv.IsGroup {
		t.Fatal("two participants must not classify as group")
	}
	if len(conv.Participants) != 2 {
		t.Fatalf("participants = %d, want 2", len(conv.Participants))
	}
	if evts := f.rec.events("broadcast"); len(evts) != 1 || evts[0] != "conversationCreated" {
		t.Fatalf("broadcast events = %v, want [conversationCreated]", evts)
	}
}

func TestCreateDirectConversationDeduplicates(t *testing.T) {
	f := newConvFixture()
	a := f.addUser(t, "a@example.com")
	b := f.addUser(t, "b@example.com")

	if _, err := f.svc.Create(context.Background(), []string{b.Email}, a.ID.Hex()); err != nil {
		t.Fatalf("first create: %v", err)
	}
	// same pair from the other side still collides
	_, err := f.svc.Create(context.Background(), []string{a.Email}, b.ID.Hex())
	if !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestCreateGroupConversationSkipsDedup(t *testing.T) {
	f := newConvFixture()
	a := f.addUser(t, "a@example.com")
	b := f.addUser(t, "b@example.com")
	c := f.addUser(t, "c@example.com")

	emails := []string{b.Email, c.Email}
	first, err := f.svc.Create(context.Background(), emails, a.ID.Hex())
	if err != nil {
		t.Fatalf("first group create: %v", err)
	}
	if !first.IsGroup {
		t.Fatal("three participants must classify as group")
	}
	second, err := f.svc.Create(context.Background(), emails, a.ID.Hex())
	if err != nil {
		t.Fatalf("second group create: %v", err)
	}
	if first.ID == second.ID {
		t.Fatal("groups must never deduplicate")
	}
}

func TestCreateUnknownParticipant(t *testing.T) {
	f := newConvFixture()
	a := f.addUser(t, "a@example.com")
	_, err := f.svc.Create(context.Background(), []string{"ghost@example.com"}, a.ID.Hex())
	if !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestListForUserEmptyConversation(t *testing.T) {
	f := newConvFixture()
	a := f.addUser(t, "a@example.com")
	b := f.addUser(t, "b@example.com")

	if _, err := f.svc.Create(context.Background(), []string{b.Email}, a.ID.Hex()); err != nil {
		t.Fatalf("create: %v", err)
	}
	sums, err := f.svc.ListForUser(context.Background(), a.ID.Hex())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(sums) != 1 {
		t.Fatalf("summaries = %d, want 1", len(sums))
	}
	sum := sums[0]
	if sum.LastMessage != models.NoMessagesSentinel {
		t.Fatalf("lastMessage = %q, want %q", sum.LastMessage, models.NoMessagesSentinel)
	}
	if sum.LastMessageDate != nil {
		t.Fatal("empty conversation must not carry a last message date")
	}
	if sum.UnreadMessages != 0 {
		t.Fatalf("unread = %d, want 0", sum.UnreadMessages)
	}
	// the viewer is projected out of the participant list
	if len(sum.Participants) != 1 || sum.Participants[0].ID != b.ID {
		t.Fatalf("participants = %v, want only the other user", sum.Participants)
	}
}

func TestUnreadCountLifecycle(t *testing.T) {
	f := newConvFixture()
	a := f.addUser(t, "a@example.com")
	b := f.addUser(t, "b@example.com")

	conv, err := f.svc.Create(context.Background(), []string{b.Email}, a.ID.Hex())
	if err != nil {
		t.Fatalf("create conversation: %v", err)
	}
	for i := 0; i < 3; i++ {
		_, err := f.msvc.Create(context.Background(), CreateMessageInput{
			Sender:         a.ID.Hex(),
			Receiver:       b.ID.Hex(),
			ConversationID: conv.ID.Hex(),
			Content:        "salut",
		})
		if err != nil {
			t.Fatalf("create message %d: %v", i, err)
		}
	}

	sums, err := f.svc.ListForUser(context.Background(), b.ID.Hex())
	if err != nil {
		t.Fatalf("list for receiver: %v", err)
	}
	if sums[0].UnreadMessages != 3 {
		t.Fatalf("unread before join = %d, want 3", sums[0].UnreadMessages)
	}
	if sums[0].LastMessage != "salut" {
		t.Fatalf("lastMessage preview = %q, want %q", sums[0].LastMessage, "salut")
	}

	res, err := f.svc.Join(context.Background(), conv.ID.Hex(), b.ID.Hex())
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if res.ModifiedCount != 3 {
		t.Fatalf("modified = %d, want 3", res.ModifiedCount)
	}
	if res.Conversations[0].UnreadMessages != 0 {
		t.Fatalf("unread after join = %d, want 0", res.Conversations[0].UnreadMessages)
	}

	// joining again flips nothing
	res, err = f.svc.Join(context.Background(), conv.ID.Hex(), b.ID.Hex())
	if err != nil {
		t.Fatalf("second join: %v", err)
	}
	if res.ModifiedCount != 0 {
		t.Fatalf("modified on second join = %d, want 0", res.ModifiedCount)
	}
}

func TestJoinNotifiesOtherParticipants(t *testing.T) {
	f := newConvFixture()
	a := f.addUser(t, "a@example.com")
	b := f.addUser(t, "b@example.com")

	conv, err := f.svc.Create(context.Background(), []string{b.Email}, a.ID.Hex())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	f.rec.notices = nil

	if _, err := f.svc.Join(context.Background(), conv.ID.Hex(), b.ID.Hex()); err != nil {
		t.Fatalf("join: %v", err)
	}
	var readNotices []notice
	for _, n := range f.rec.notices {
		if n.Event == "messagesRead" {
			readNotices = append(readNotices, n)
		}
	}
	if len(readNotices) != 1 {
		t.Fatalf("messagesRead notices = %d, want 1", len(readNotices))
	}
	if readNotices[0].Scope != "user" || readNotices[0].Target != a.ID.Hex() {
		t.Fatalf("messagesRead went to %s %q, want the other participant only", readNotices[0].Scope, readNotices[0].Target)
	}
}

func TestJoinUnknownConversation(t *testing.T) {
	f := newConvFixture()
	b := f.addUser(t, "b@example.com")
	_, err := f.svc.Join(context.Background(), primitive.NewObjectID().Hex(), b.ID.Hex())
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestArchiveAndDelete(t *testing.T) {
	f := newConvFixture()
	a := f.addUser(t, "a@example.com")
	b := f.addUser(t, "b@example.com")
	conv, err := f.svc.Create(context.Background(), []string{b.Email}, a.ID.Hex())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	archived, err := f.svc.Archive(context.Background(), conv.ID.Hex())
	if err != nil {
		t.Fatalf("archive: %v", err)
	}
	if !archived.IsArchived {
		t.Fatal("isArchived not set")
	}

	if err := f.svc.Delete(context.Background(), conv.ID.Hex()); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := f.svc.Delete(context.Background(), conv.ID.Hex()); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("second delete: expected not found, got %v", err)
	}
}

func TestRenameRequiresName(t *testing.T) {
	f := newConvFixture()
	a := f.addUser(t, "a@example.com")
	b := f.addUser(t, "b@example.com")
	conv, err := f.svc.Create(context.Background(), []string{b.Email}, a.ID.Hex())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := f.svc.Rename(context.Background(), conv.ID.Hex(), ""); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	renamed, err := f.svc.Rename(context.Background(), conv.ID.Hex(), "équipe")
	if err != nil {
		t.Fatalf("rename: %v", err)
	}
	if renamed.ConversationName != "équipe" {
		t.Fatalf("name = %q", renamed.ConversationName)
	}
}
