package ports

import (
	"context"

	"github.com/tcc/task-manager-api/internal/core/domain"
)

// UpdateProfileInput carries the mutable profile fields.
type UpdateProfileInput struct {
	Email     string
	FirstName string
	LastName  string
	Phone     string
}

// ProfileResult is the profile view plus the re-issued token returned after
// a profile update (claims may reference the changed email).
type ProfileResult struct {
	User  *domain.User
	Token string
}

// UserService manages the authenticated user's own profile.
type UserService interface {
	GetProfile(ctx context.Context, username string) (*domain.User, error)
	UpdateProfile(ctx context.Context, username string, input UpdateProfileInput) (*ProfileResult, error)
	ChangePassword(ctx context.Context, username, oldPassword, newPassword string) error
}
