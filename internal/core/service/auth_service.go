package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/tcc/task-manager-api/internal/api/metrics"
	"github.com/tcc/task-manager-api/internal/core/domain"
	"github.com/tcc/task-manager-api/internal/core/ports"
	"github.com/tcc/task-manager-api/internal/core/token"
)

// AuthService implements registration, login and token refresh.
type AuthService struct {
	repo  ports.UserRepository
	codec *token.Codec
	log   zerolog.Logger
}

func NewAuthService(repo ports.UserRepository, codec *token.Codec, log zerolog.Logger) *AuthService {
	return &AuthService{repo: repo, codec: codec, log: log}
}

// Login verifies the identifier/password pair and issues a token. The
// identifier is resolved by email when it is email-shaped, by username
// otherwise — an email-shaped identifier never falls back to a username
// lookup. Unknown account and wrong password both surface as
// ErrInvalidCredentials so callers cannot enumerate accounts.
func (s *AuthService) Login(ctx context.Context, identifier, password string) (*ports.AuthResult, error) {
	if identifier == "" || password == "" {
		metrics.AuthLoginsTotal.WithLabelValues("failure").Inc()
		return nil, domain.ErrInvalidCredentials
	}

	var (
		user *domain.User
		err  error
	)
	if emailShaped(identifier) {
		user, err = s.repo.FindByEmail(ctx, identifier)
	} else {
		user, err = s.repo.FindByUsername(ctx, identifier)
	}
	if err != nil {
		if err == domain.ErrUserNotFound {
			s.log.Debug().Str("identifier", identifier).Msg("login: unknown identifier")
			metrics.AuthLoginsTotal.WithLabelValues("failure").Inc()
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("login lookup: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		s.log.Debug().Str("username", user.Username).Msg("login: password mismatch")
		metrics.AuthLoginsTotal.WithLabelValues("failure").Inc()
		return nil, domain.ErrInvalidCredentials
	}

	result, err := s.issueFor(user)
	if err != nil {
		return nil, err
	}

	metrics.AuthLoginsTotal.WithLabelValues("success").Inc()
	s.log.Info().Str("username", user.Username).Msg("user logged in")
	return result, nil
}

// Register creates the account and auto-issues a token so the new user has
// an authenticated session without a separate login step.
func (s *AuthService) Register(ctx context.Context, input ports.RegisterInput) (*ports.AuthResult, error) {
	if input.Username == "" || input.Email == "" || input.Password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	taken, err := s.repo.ExistsByUsername(ctx, input.Username)
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}
	if taken {
		return nil, domain.ErrUsernameTaken
	}

	taken, err = s.repo.ExistsByEmail(ctx, input.Email)
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}
	if taken {
		return nil, domain.ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("register: hash password: %w", err)
	}

	now := time.Now().UTC()
	user := &domain.User{
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: string(hash),
		Role:         domain.RoleUser,
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	created, err := s.repo.Create(ctx, user)
	if err != nil {
		return nil, err
	}

	result, err := s.issueFor(created)
	if err != nil {
		return nil, err
	}

	metrics.AuthRegistrationsTotal.Inc()
	s.log.Info().Str("username", created.Username).Msg("user registered")
	return result, nil
}

// Refresh re-issues a token for the subject of a still-valid token. An
// expired token cannot be refreshed; the caller must log in again.
func (s *AuthService) Refresh(ctx context.Context, tokenString string) (*ports.AuthResult, error) {
	claims, err := s.codec.Decode(tokenString)
	if err != nil {
		return nil, err
	}

	// Re-read the account so a role or email change lands in the new token.
	user, err := s.repo.FindByUsername(ctx, claims.Subject)
	if err != nil {
		if err == domain.ErrUserNotFound {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("refresh lookup: %w", err)
	}

	return s.issueFor(user)
}

// issueFor signs the access/refresh token pair for an account. Both carry
// the same claims; only the lifetime differs.
func (s *AuthService) issueFor(user *domain.User) (*ports.AuthResult, error) {
	claims := map[string]any{
		token.ClaimRole:   user.Role,
		token.ClaimUserID: user.ID,
		token.ClaimEmail:  user.Email,
	}

	access, err := s.codec.Issue(user.Username, claims, s.codec.AccessTTL())
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}
	refresh, err := s.codec.Issue(user.Username, claims, s.codec.RefreshTTL())
	if err != nil {
		return nil, fmt.Errorf("issue refresh token: %w", err)
	}

	return &ports.AuthResult{
		Token:        access,
		RefreshToken: refresh,
		UserID:       user.ID,
		Username:     user.Username,
		Email:        user.Email,
		Role:         user.Role,
	}, nil
}

// emailShaped reports whether the identifier looks like an email address:
// it contains both "@" and ".", in any arrangement. The check is
// deliberately loose; a username that happens to look like an email resolves
// via the email branch and fails login rather than silently matching the
// username.
func emailShaped(identifier string) bool {
	return strings.Contains(identifier, "@") && strings.Contains(identifier, ".")
}
