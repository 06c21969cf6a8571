package service

import (
	"context"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/franckabsuser/bam/internal/models"
	"github.com/franckabsuser/bam/internal/repository"
)

func testLogger() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}

// notice records one delivery for assertions on scope and event name.
type notice struct {
	Scope  string // "broadcast", "room", "user"
	Target string
	Event  string
	Data   any
}

type recordingNotifier struct {
	notices []notice
}

func (r *recordingNotifier) Broadcast(event string, payload any) {
	r.notices = append(r.notices, notice{Scope: "broadcast", Event: event, Data: payload})
}

func (r *recordingNotifier) ToRoom(roomID, event string, payload any) {
	r.notices = append(r.notices, notice{Scope: "room", Target: roomID, Event: event, Data: payload})
}

func (r *recordingNotifier) ToUser(userID, event string, payload any) {
	r.notices = append(r.notices, notice{Scope: "user", Target: userID, Event: event, Data: payload})
}

func (r *recordingNotifier) events(scope string) []string {
	var out []string
	for _, n := range r.notices {
		if n.Scope == scope {
			out = append(out, n.Event)
		}
	}
	return out
}

type memUserRepo struct {
	users map[primitive.ObjectID]*models.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[primitive.ObjectID]*models.User)}
}

func (r *memUserRepo) Insert(_ context.Context, u *models.User) error {
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *memUserRepo) FindByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *memUserRepo) FindByEmail(_ context.Context, email string) (*models.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memUserRepo) FindByEmails(_ context.Context, emails []string) ([]*models.User, error) {
	var out []*models.User
	for _, e := range emails {
		for _, u := range r.users {
			if u.Email == e {
				cp := *u
				out = append(out, &cp)
				break
			}
		}
	}
	return out, nil
}

func (r *memUserRepo) FindByIDs(_ context.Context, ids []primitive.ObjectID) ([]*models.User, error) {
	var out []*models.User
	for _, id := range ids {
		if u, ok := r.users[id]; ok {
			cp := *u
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *memUserRepo) ApplyUpdate(_ context.Context, id primitive.ObjectID, upd models.UserUpdate) (*models.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if upd.Email != nil {
		u.Email = *upd.Email
	}
	if upd.NameAndFirstName != nil {
		u.NameAndFirstName = *upd.NameAndFirstName
	}
	if upd.JeSuis != nil {
		u.JeSuis = *upd.JeSuis
	}
	if upd.Password != nil {
		u.Password = *upd.Password
	}
	if upd.ProfilePhoto != nil {
		u.ProfilePhoto = *upd.ProfilePhoto
	}
	u.UpdatedAt = time.Now()
	cp := *u
	return &cp, nil
}

func (r *memUserRepo) SetTyping(_ context.Context, id primitive.ObjectID, typing bool) error {
	u, ok := r.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.IsTyping = typing
	return nil
}

func (r *memUserRepo) AddBlockedUser(_ context.Context, id, blocked primitive.ObjectID) error {
	u, ok := r.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	for _, b := range u.BlockedUsers {
		if b == blocked {
			return nil
		}
	}
	u.BlockedUsers = append(u.BlockedUsers, blocked)
	return nil
}

func (r *memUserRepo) SetLastConnection(_ context.Context, id primitive.ObjectID, at time.Time) error {
	u, ok := r.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.LastConnection = at
	return nil
}

type memConversationRepo struct {
	convs map[primitive.ObjectID]*models.Conversation
}

func newMemConversationRepo() *memConversationRepo {
	return &memConversationRepo{convs: make(map[primitive.ObjectID]*models.Conversation)}
}

func (r *memConversationRepo) Insert(_ context.Context, c *models.Conversation) error {
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	c.CreatedAt = time.Now()
	c.UpdatedAt = c.CreatedAt
	cp := *c
	r.convs[c.ID] = &cp
	return nil
}

func (r *memConversationRepo) FindByID(_ context.Context, id primitive.ObjectID) (*models.Conversation, error) {
	c, ok := r.convs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *memConversationRepo) FindDirectByPair(_ context.Context, a, b primitive.ObjectID) (*models.Conversation, error) {
	for _, c := range r.convs {
		if c.IsGroup {
			continue
		}
		var hasA, hasB bool
		for _, p := range c.Participants {
			if p == a {
				hasA = true
			}
			if p == b {
				hasB = true
			}
		}
		if hasA && hasB {
			cp := *c
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memConversationRepo) ListForUser(_ context.Context, userID primitive.ObjectID) ([]*models.Conversation, error) {
	var out []*models.Conversation
	for _, c := range r.convs {
		for _, p := range c.Participants {
			if p == userID {
				cp := *c
				out = append(out, &cp)
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *memConversationRepo) SetLastMessage(_ context.Context, convID, msgID primitive.ObjectID, at time.Time) error {
	c, ok := r.convs[convID]
	if !ok {
		return repository.ErrNotFound
	}
	id := msgID
	c.LastMessage = &id
	c.UpdatedAt = at
	return nil
}

func (r *memConversationRepo) SetArchived(_ context.Context, id primitive.ObjectID) (*models.Conversation, error) {
	c, ok := r.convs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c.IsArchived = true
	cp := *c
	return &cp, nil
}

func (r *memConversationRepo) SetName(_ context.Context, id primitive.ObjectID, name string) (*models.Conversation, error) {
	c, ok := r.convs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c.ConversationName = name
	cp := *c
	return &cp, nil
}

func (r *memConversationRepo) Delete(_ context.Context, id primitive.ObjectID) error {
	if _, ok := r.convs[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.convs, id)
	return nil
}

type memMessageRepo struct {
	msgs []*models.Message
}

func newMemMessageRepo() *memMessageRepo {
	return &memMessageRepo{}
}

func (r *memMessageRepo) Insert(_ context.Context, m *models.Message) error {
	if m.ID.IsZero() {
		m.ID = primitive.NewObjectID()
	}
	m.CreatedAt = time.Now()
	m.UpdatedAt = m.CreatedAt
	cp := *m
	r.msgs = append(r.msgs, &cp)
	return nil
}

func (r *memMessageRepo) find(id primitive.ObjectID) *models.Message {
	for _, m := range r.msgs {
		if m.ID == id {
			return m
		}
	}
	return nil
}

func (r *memMessageRepo) FindByID(_ context.Context, id primitive.ObjectID) (*models.Message, error) {
	m := r.find(id)
	if m == nil {
		return nil, repository.ErrNotFound
	}
	cp := *m
	return &cp, nil
}

func (r *memMessageRepo) ListForConversation(_ context.Context, convID primitive.ObjectID) ([]*models.Message, error) {
	var out []*models.Message
	for _, m := range r.msgs {
		if m.ConversationID == convID {
			cp := *m
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *memMessageRepo) CountUnread(_ context.Context, convID, receiver primitive.ObjectID) (int64, error) {
	var n int64
	for _, m := range r.msgs {
		if m.ConversationID == convID && m.Receiver == receiver && !m.IsRead {
			n++
		}
	}
	return n, nil
}

func (r *memMessageRepo) MarkRead(_ context.Context, convID, receiver primitive.ObjectID) (int64, error) {
	var n int64
	for _, m := range r.msgs {
		if m.ConversationID == convID && m.Receiver == receiver && !m.IsRead {
			m.IsRead = true
			n++
		}
	}
	return n, nil
}

func (r *memMessageRepo) SetReaction(_ context.Context, msgID, userID primitive.ObjectID, reactionType string) ([]models.Reaction, error) {
	m := r.find(msgID)
	if m == nil {
		return nil, repository.ErrNotFound
	}
	for i := range m.Reactions {
		if m.Reactions[i].User == userID {
			m.Reactions[i].ReactionType = reactionType
			return append([]models.Reaction(nil), m.Reactions...), nil
		}
	}
	m.Reactions = append(m.Reactions, models.Reaction{User: userID, ReactionType: reactionType})
	return append([]models.Reaction(nil), m.Reactions...), nil
}

func (r *memMessageRepo) UpdateReaction(_ context.Context, msgID, userID primitive.ObjectID, reactionType string) ([]models.Reaction, error) {
	m := r.find(msgID)
	if m == nil {
		return nil, repository.ErrNotFound
	}
	for i := range m.Reactions {
		if m.Reactions[i].User == userID {
			m.Reactions[i].ReactionType = reactionType
			return append([]models.Reaction(nil), m.Reactions...), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memMessageRepo) RemoveReaction(_ context.Context, msgID, userID primitive.ObjectID) ([]models.Reaction, error) {
	m := r.find(msgID)
	if m == nil {
		return nil, repository.ErrNotFound
	}
	kept := m.Reactions[:0]
	for _, re := range m.Reactions {
		if re.User != userID {
			kept = append(kept, re)
		}
	}
	m.Reactions = kept
	return append([]models.Reaction(nil), m.Reactions...), nil
}

type memPauseRepo struct {
	pauses map[primitive.ObjectID]*models.Pause
}

func newMemPauseRepo() *memPauseRepo {
	return &memPauseRepo{pauses: make(map[primitive.ObjectID]*models.Pause)}
}

func (r *memPauseRepo) Insert(_ context.Context, p *models.Pause) error {
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	cp := *p
	r.pauses[p.ID] = &cp
	return nil
}

func (r *memPauseRepo) FindActiveByUser(_ context.Context, userID primitive.ObjectID) (*models.Pause, error) {
	for _, p := range r.pauses {
		if p.User == userID && p.IsPaused {
			cp := *p
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memPauseRepo) End(_ context.Context, id primitive.ObjectID, endedAt time.Time, duration float64) error {
	p, ok := r.pauses[id]
	if !ok {
		return repository.ErrNotFound
	}
	p.EndTime = &endedAt
	p.Duration = duration
	p.IsPaused = false
	return nil
}

func (r *memPauseRepo) ListActive(_ context.Context) ([]*models.Pause, error) {
	var out []*models.Pause
	for _, p := range r.pauses {
		if p.IsPaused {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *memPauseRepo) ListStartedBetween(_ context.Context, userID primitive.ObjectID, from, to time.Time) ([]*models.Pause, error) {
	var out []*models.Pause
	for _, p := range r.pauses {
		if p.User == userID && !p.StartTime.Before(from) && p.StartTime.Before(to) {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}
