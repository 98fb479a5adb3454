package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"time"
	"unicode/utf8"

	"github.com/geocoder89/warehouse/internal/domain"
	"github.com/geocoder89/warehouse/internal/domain/user"
	"github.com/geocoder89/warehouse/internal/observability"
	"github.com/geocoder89/warehouse/internal/security"
	"github.com/google/uuid"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

var usernamePattern = regexp.MustCompile(`^[a-z0-9._-]{3,64}$`)

const minPasswordLen = 8

type TokenIssuer interface {
	GenerateAccessToken(userID, username, role string) (string, error)
	AccessTTL() time.Duration
}

type Token struct {
	AccessToken string `json:"accessToken"`
	TokenType   string `json:"tokenType"`
	ExpiresIn   int    `json:"expiresIn"`
}

type AuthService struct {
	users  user.Repository
	tokens TokenIssuer
	log    *slog.Logger
	prom   *observability.Prom
	now    func() time.Time
}

func NewAuthService(users user.Repository, tokens TokenIssuer, log *slog.Logger, prom *observability.Prom) *AuthService {
	return &AuthService{
		users:  users,
		tokens: tokens,
		log:    log,
		prom:   prom,
		now:    time.Now,
	}
}

// Register creates a viewer account.
func (s *AuthService) Register(ctx context.Context, req user.RegisterRequest) (user.User, error) {
	u, err := s.newUser(req.Username, req.Password, user.RoleViewer)
	if err != nil {
		return user.User{}, err
	}

	created, err := s.users.Create(ctx, u)
	if err != nil {
		return user.User{}, err
	}

	s.log.InfoContext(ctx, "user registered", "user_id", created.ID, "username", created.Username)
	return created, nil
}

func (s *AuthService) IssueToken(ctx context.Context, req user.TokenRequest) (Token, error) {
	u, err := s.users.GetByUsername(ctx, user.NormalizeUsername(req.Username))
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			s.prom.ObserveAuth("invalid_credentials")
			return Token{}, ErrInvalidCredentials
		}
		s.prom.ObserveAuth("error")
		return Token{}, err
	}

	if err := security.CheckPassword(u.PasswordHash, req.Password); err != nil {
		s.prom.ObserveAuth("invalid_credentials")
		return Token{}, ErrInvalidCredentials
	}

	access, err := s.tokens.GenerateAccessToken(u.ID, u.Username, string(u.Role))
	if err != nil {
		s.prom.ObserveAuth("error")
		return Token{}, fmt.Errorf("sign token: %w", err)
	}

	s.prom.ObserveAuth("success")

	return Token{
		AccessToken: access,
		TokenType:   "Bearer",
		ExpiresIn:   int(s.tokens.AccessTTL().Seconds()),
	}, nil
}

func (s *AuthService) Me(ctx context.Context, userID string) (user.User, error) {
	return s.users.GetByID(ctx, userID)
}

// EnsureAdmin seeds an admin account once. An existing user with the same
// name is left untouched.
func (s *AuthService) EnsureAdmin(ctx context.Context, username, password string) (bool, error) {
	existing, err := s.users.GetByUsername(ctx, user.NormalizeUsername(username))
	if err == nil {
		if existing.Role != user.RoleAdmin {
			s.log.WarnContext(ctx, "seed admin name belongs to a non-admin user", "username", existing.Username, "role", existing.Role)
		}
		return false, nil
	}
	if !errors.Is(err, user.ErrNotFound) {
		return false, err
	}

	u, err := s.newUser(username, password, user.RoleAdmin)
	if err != nil {
		return false, err
	}

	if _, err := s.users.Create(ctx, u); err != nil {
		// another instance seeded it first
		if errors.Is(err, user.ErrUsernameTaken) {
			return false, nil
		}
		return false, err
	}

	s.log.InfoContext(ctx, "admin user seeded", "username", u.Username)
	return true, nil
}

func (s *AuthService) newUser(rawUsername, password string, role user.Role) (user.User, error) {
	username := user.NormalizeUsername(rawUsername)
	if !usernamePattern.MatchString(username) {
		return user.User{}, domain.Invalid("username", "must be 3-64 characters of a-z, 0-9, '.', '_' or '-'")
	}

	if utf8.RuneCountInString(password) < minPasswordLen {
		return user.User{}, domain.Invalid("password", "must be at least 8 characters")
	}

	hash, err := security.HashPassword(password)
	if err != nil {
		if errors.Is(err, security.ErrPasswordTooLong) {
			return user.User{}, domain.Invalid("password", "must be at most 72 bytes")
		}
		return user.User{}, fmt.Errorf("hash password: %w", err)
	}

	now := s.clock()
	return user.User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

func (s *AuthService) clock() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}
