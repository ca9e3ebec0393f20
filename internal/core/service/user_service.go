package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/tcc/task-manager-api/internal/core/domain"
	"github.com/tcc/task-manager-api/internal/core/ports"
	"github.com/tcc/task-manager-api/internal/core/token"
)

// UserService manages the authenticated user's own profile.
type UserService struct {
	repo  ports.UserRepository
	codec *token.Codec
	log   zerolog.Logger
}

func NewUserService(repo ports.UserRepository, codec *token.Codec, log zerolog.Logger) *UserService {
	return &UserService{repo: repo, codec: codec, log: log}
}

func (s *UserService) GetProfile(ctx context.Context, username string) (*domain.User, error) {
	return s.repo.FindByUsername(ctx, username)
}

// UpdateProfile applies the mutable profile fields and re-issues a token so
// the email claim stays consistent with the stored account.
func (s *UserService) UpdateProfile(ctx context.Context, username string, input ports.UpdateProfileInput) (*ports.ProfileResult, error) {
	user, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	if input.Email != "" && input.Email != user.Email {
		taken, err := s.repo.ExistsByEmail(ctx, input.Email)
		if err != nil {
			return nil, fmt.Errorf("update profile: %w", err)
		}
		if taken {
			return nil, domain.ErrEmailTaken
		}
		user.Email = input.Email
	}

	user.FirstName = input.FirstName
	user.LastName = input.LastName
	user.Phone = input.Phone
	user.UpdatedAt = time.Now().UTC()

	updated, err := s.repo.Update(ctx, user)
	if err != nil {
		return nil, err
	}

	signed, err := s.codec.Issue(updated.Username, map[string]any{
		token.ClaimRole:   updated.Role,
		token.ClaimUserID: updated.ID,
		token.ClaimEmail:  updated.Email,
	}, s.codec.AccessTTL())
	if err != nil {
		return nil, fmt.Errorf("update profile: issue token: %w", err)
	}

	s.log.Info().Str("username", updated.Username).Msg("profile updated")
	return &ports.ProfileResult{User: updated, Token: signed}, nil
}

// ChangePassword verifies the current password before storing a new hash.
// The plaintext is never persisted or logged.
func (s *UserService) ChangePassword(ctx context.Context, username, oldPassword, newPassword string) error {
	user, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		return err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(oldPassword)) != nil {
		return domain.ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("change password: hash: %w", err)
	}

	user.PasswordHash = string(hash)
	user.UpdatedAt = time.Now().UTC()
	if _, err := s.repo.Update(ctx, user); err != nil {
		return err
	}

	s.log.Info().Str("username", username).Msg("password changed")
	return nil
}
