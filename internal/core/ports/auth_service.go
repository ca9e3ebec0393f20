package ports

import "context"

// RegisterInput carries the data needed to create a new account.
type RegisterInput struct {
	Username  string
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// AuthResult is returned after a successful login, registration or refresh.
// Token is the short-lived access token; RefreshToken carries the same
// claims with the longer refresh lifetime. It never carries the password hash.
type AuthResult struct {
	Token        string
	RefreshToken string
	UserID       string
	Username     string
	Email        string
	Role         string
}

// AuthService verifies credentials and issues signed tokens.
type AuthService interface {
	// Login accepts a username or an email as identifier.
	Login(ctx context.Context, identifier, password string) (*AuthResult, error)
	// Register creates the account and auto-issues a token so the caller is
	// immediately authenticated.
	Register(ctx context.Context, input RegisterInput) (*AuthResult, error)
	// Refresh re-issues a token for the subject of a still-valid token.
	Refresh(ctx context.Context, tokenString string) (*AuthResult, error)
}
