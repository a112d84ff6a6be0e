package auth

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/gatekit/authgate/internal/shared"
	"github.com/gatekit/authgate/internal/token"
)

// EventRecorder enqueues auth audit events for asynchronous persistence.
type EventRecorder interface {
	RecordAuthEvent(ctx context.Context, ev shared.AuthEvent) error
}

// Service wraps registration and credential verification rules.
type Service struct {
	repo   Repository
	hasher Hasher
	tokens *token.Service
	events EventRecorder
	logger *slog.Logger
}

// NewService constructs a Service. events may be nil when no worker is
// deployed; audit recording is best-effort either way.
func NewService(repo Repository, hasher Hasher, tokens *token.Service, events EventRecorder, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, hasher: hasher, tokens: tokens, events: events, logger: logger}
}

// Register creates a user record and issues a token over its identity.
// A duplicate email surfaces shared.ErrEmailTaken; the database unique
// index keeps the invariant even when two registrations race past the
// existence check.
func (s *Service) Register(ctx context.Context, email, password, name string) (*User, string, error) {
	exists, err := s.repo.EmailExists(ctx, email)
	if err != nil {
		return nil, "", err
	}
	if exists {
		return nil, "", shared.ErrEmailTaken
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, "", err
	}

	user, err := s.repo.Create(ctx, &User{Email: email, Name: name, PasswordHash: hash})
	if err != nil {
		return nil, "", err
	}

	signed, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		return nil, "", err
	}

	s.recordEvent(ctx, user, "register")
	return user, signed, nil
}

// Login verifies credentials and issues a token. Unknown email and wrong
// password are indistinguishable to the caller; a dummy bcrypt compare
// keeps the timing uniform when the email is unknown.
func (s *Service) Login(ctx context.Context, email, password string) (*User, string, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			s.hasher.Verify(password, dummyHash)
			return nil, "", shared.ErrInvalidCredentials
		}
		return nil, "", err
	}
	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, "", shared.ErrInvalidCredentials
	}

	signed, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		return nil, "", err
	}

	s.recordEvent(ctx, user, "login")
	return user, signed, nil
}

func (s *Service) recordEvent(ctx context.Context, user *User, action string) {
	if s.events == nil {
		return
	}
	ev := shared.AuthEvent{
		EventID: uuid.NewString(),
		UserID:  user.ID,
		Email:   user.Email,
		Action:  action,
	}
	if err := s.events.RecordAuthEvent(ctx, ev); err != nil {
		s.logger.Warn("enqueue auth event", slog.String("action", action), slog.Any("error", err))
	}
}
