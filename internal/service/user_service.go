package service

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/franckabsuser/bam/internal/apperr"
	"github.com/franckabsuser/bam/internal/auth"
	"github.com/franckabsuser/bam/internal/models"
	"github.com/franckabsuser/bam/internal/repository"
)

type UserService struct {
	users    repository.UserRepository
	tokens   *auth.JWTManager
	notifier Notifier
	log      *zap.SugaredLogger
}

func NewUserService(users repository.UserRepository, tokens *auth.JWTManager, n Notifier, log *zap.SugaredLogger) *UserService {
	return &UserService{users: users, tokens: tokens, notifier: n, log: log}
}

type RegisterInput struct {
	Email            string
	NameAndFirstName string
	JeSuis           string
	Password         string
	ProfilePhoto     string
}

func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	if in.Email == "" || in.Password == "" {
		return nil, apperr.Validation("email and password are required")
	}
	if _, err := s.users.FindByEmail(ctx, in.Email); err == nil {
		return nil, apperr.Validation("email already registered")
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	u := &models.User{
		Email:            in.Email,
		NameAndFirstName: in.NameAndFirstName,
		JeSuis:           in.JeSuis,
		Password:         string(hash),
		ProfilePhoto:     in.ProfilePhoto,
	}
	if err := s.users.Insert(ctx, u); err != nil {
		// unique email index can still fire on a racing registration
		return nil, apperr.Validation("could not create user")
	}
	s.log.Infow("user registered", "user", u.ID.Hex(), "email", u.Email)
	return u, nil
}

type LoginResult struct {
	Token        string    `json:"token"`
	UserID       string    `json:"userId"`
	ProfilePhoto string    `json:"profilePhoto,omitempty"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

func (s *UserService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	u, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.ErrAuth
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)) != nil {
		return nil, apperr.ErrAuth
	}
	token, exp, err := s.tokens.Generate(u.ID.Hex())
	if err != nil {
		return nil, err
	}
	if err := s.users.SetLastConnection(ctx, u.ID, time.Now()); err != nil {
		s.log.Warnw("update last connection", "user", u.ID.Hex(), "err", err)
	}
	return &LoginResult{Token: token, UserID: u.ID.Hex(), ProfilePhoto: u.ProfilePhoto, ExpiresAt: exp}, nil
}

func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	u, err := s.users.FindByID(ctx, oid)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("user %s", id)
		}
		return nil, err
	}
	return u, nil
}

// Update applies an allow-listed profile mutation. A submitted password is
// rehashed here; the repository never sees plaintext or accepts arbitrary
// fields.
func (s *UserService) Update(ctx context.Context, id string, upd models.UserUpdate) (*models.User, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	if upd.Empty() {
		return nil, apperr.Validation("no updatable fields provided")
	}
	if upd.Password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*upd.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		hashed := string(hash)
		upd.Password = &hashed
	}
	u, err := s.users.ApplyUpdate(ctx, oid, upd)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("user %s", id)
		}
		return nil, err
	}
	s.notifier.Broadcast("userUpdated", u)
	return u, nil
}

func (s *UserService) SetTyping(ctx context.Context, id string, typing bool) error {
	oid, err := parseID(id)
	if err != nil {
		return err
	}
	if err := s.users.SetTyping(ctx, oid, typing); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.NotFound("user %s", id)
		}
		return err
	}
	s.notifier.Broadcast("typingStatusUpdated", map[string]any{"userId": id, "isTyping": typing})
	return nil
}

func (s *UserService) Block(ctx context.Context, id, blockedID string) error {
	oid, err := parseID(id)
	if err != nil {
		return err
	}
	boid, err := parseID(blockedID)
	if err != nil {
		return err
	}
	if err := s.users.AddBlockedUser(ctx, oid, boid); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.NotFound("user %s", id)
		}
		return err
	}
	s.notifier.Broadcast("userBlocked", map[string]any{"userId": id, "blockedUserId": blockedID})
	return nil
}

func parseID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, apperr.Validation("invalid id %q", id)
	}
	return oid, nil
}
