// Package auth implements back-office login: bcrypt-checked credentials,
// opaque session tokens kept in a SessionStore, the role capability table
// and the chi middleware that enforces it.
package auth

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	pkgerrors "github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/Shivanand-hulikatti/coursedesk/internal/apperr"
	"github.com/Shivanand-hulikatti/coursedesk/internal/model"
	"github.com/Shivanand-hulikatti/coursedesk/internal/repository"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrNoSession          = errors.New("no valid session")
	ErrMissingCapability  = errors.New("missing capability")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidUser        = errors.New("invalid user")
)

// DefaultSessionTTL is used when Options.TTL is zero.
const DefaultSessionTTL = 7 * 24 * time.Hour

// UserStore is the slice of the repository auth needs.
type UserStore interface {
	CreateUser(ctx context.Context, u *model.User) error
	GetUser(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
}

type Options struct {
	TTL time.Duration
	Now func() time.Time
}

// Service authenticates users and resolves session tokens.
type Service struct {
	users    UserStore
	sessions SessionStore
	ttl      time.Duration
	now      func() time.Time
}

func NewService(users UserStore, sessions SessionStore, opts Options) *Service {
	if opts.TTL <= 0 {
		opts.TTL = DefaultSessionTTL
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{users: users, sessions: sessions, ttl: opts.TTL, now: opts.Now}
}

// Session is an issued login.
type Session struct {
	Token     string      `json:"-"`
	User      *model.User `json:"user"`
	ExpiresAt time.Time   `json:"expires_at"`
}

// TTL is how long issued sessions live.
func (s *Service) TTL() time.Duration { return s.ttl }

// Login checks credentials and issues a session. Unknown emails and wrong
// passwords fail identically.
func (s *Service) Login(ctx context.Context, req model.LoginRequest) (*Session, error) {
	email := strings.TrimSpace(strings.ToLower(req.Email))
	if email == "" || req.Password == "" {
		return nil, apperr.Invalid(ErrInvalidCredentials, "email and password are required")
	}

	u, err := s.users.GetUserByEmail(ctx, email)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, pkgerrors.Wrap(err, "load user")
	}
	if u == nil || !CheckPassword(u.PasswordHash, req.Password) {
		zerolog.Ctx(ctx).Info().Str("email", email).Msg("login rejected")
		return nil, apperr.Unauthorized(ErrInvalidCredentials, "login")
	}

	token := uuid.New().String()
	if err := s.sessions.Put(ctx, token, u.ID, s.ttl); err != nil {
		return nil, pkgerrors.Wrap(err, "store session")
	}
	zerolog.Ctx(ctx).Info().Str("user_id", u.ID).Msg("user logged in")
	return &Session{Token: token, User: u, ExpiresAt: s.now().Add(s.ttl)}, nil
}

// Logout deletes the session. Unknown tokens are not an error.
func (s *Service) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return pkgerrors.Wrap(s.sessions.Delete(ctx, token), "delete session")
}

// Resolve returns the user behind token.
func (s *Service) Resolve(ctx context.Context, token string) (*model.User, error) {
	if token == "" {
		return nil, apperr.Unauthorized(ErrNoSession, "authentication required")
	}
	userID, err := s.sessions.Get(ctx, token)
	if errors.Is(err, ErrSessionNotFound) {
		return nil, apperr.Unauthorized(ErrNoSession, "session expired or unknown")
	}
	if err != nil {
		return nil, err
	}

	u, err := s.users.GetUser(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		// The account was removed after the session was issued.
		_ = s.sessions.Delete(ctx, token)
		return nil, apperr.Unauthorized(ErrNoSession, "session user no longer exists")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(err, "load session user")
	}
	return u, nil
}

// CreateUser validates req and stores a new account with a hashed password.
func (s *Service) CreateUser(ctx context.Context, req model.NewUserRequest) (*model.User, error) {
	name := strings.TrimSpace(req.Name)
	email := strings.TrimSpace(strings.ToLower(req.Email))
	if name == "" {
		return nil, apperr.Invalid(ErrInvalidUser, "name is required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, apperr.Invalid(ErrInvalidUser, "email %q", req.Email)
	}
	if len(req.Password) < MinPasswordLength {
		return nil, apperr.Invalid(ErrInvalidUser, "password must have at least %d characters", MinPasswordLength)
	}
	role, err := model.ParseRole(req.Role)
	if err != nil {
		return nil, err
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	u := &model.User{
		ID:           uuid.New().String(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.users.CreateUser(ctx, u); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperr.Conflict(ErrEmailTaken, "%s", email)
		}
		return nil, pkgerrors.Wrap(err, "insert user")
	}
	return u, nil
}

// ─── Request context ─────────────────────────────────────────────────────────

type ctxKey struct{}

// WithUser returns a copy of ctx carrying u.
func WithUser(ctx context.Context, u *model.User) context.Context {
	return context.WithValue(ctx, ctxKey{}, u)
}

// UserFromContext returns the authenticated user, if any.
func UserFromContext(ctx context.Context) (*model.User, bool) {
	u, ok := ctx.Value(ctxKey{}).(*model.User)
	return u, ok && u != nil
}
