package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/tcc/task-manager-api/internal/core/domain"
	"github.com/tcc/task-manager-api/internal/core/ports"
	"github.com/tcc/task-manager-api/internal/core/token"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type stubUserRepo struct {
	users  map[string]*domain.User // keyed by username
	nextID int
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[string]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	if _, exists := r.users[user.Username]; exists {
		return nil, domain.ErrUsernameTaken
	}
	copy := cloneUser(user)
	r.nextID++
	copy.ID = fmt.Sprintf("u-%d", r.nextID)
	r.users[copy.Username] = cloneUser(copy)
	return cloneUser(copy), nil
}

func (r *stubUserRepo) Update(_ context.Context, user *domain.User) (*domain.User, error) {
	if _, exists := r.users[user.Username]; !exists {
		return nil, domain.ErrUserNotFound
	}
	r.users[user.Username] = cloneUser(user)
	return cloneUser(user), nil
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	for _, u := range r.users {
		if u.ID == id {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	if u, ok := r.users[username]; ok {
		return cloneUser(u), nil
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) FindByEmailOrUsername(ctx context.Context, identifier string) (*domain.User, error) {
	if u, err := r.FindByEmail(ctx, identifier); err == nil {
		return u, nil
	}
	return r.FindByUsername(ctx, identifier)
}

func (r *stubUserRepo) ExistsByUsername(_ context.Context, username string) (bool, error) {
	_, ok := r.users[username]
	return ok, nil
}

func (r *stubUserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := r.FindByEmail(ctx, email)
	return err == nil, nil
}

func newAuthService(t *testing.T, repo ports.UserRepository) (*AuthService, *token.Codec) {
	t.Helper()
	codec, err := token.New(token.Config{
		Secret:     testSecret,
		AccessTTL:  time.Hour,
		RefreshTTL: 7 * 24 * time.Hour,
	})
	if err != nil {
		t.Fatalf("codec: %v", err)
	}
	return NewAuthService(repo, codec, zerolog.Nop()), codec
}

func register(t *testing.T, svc *AuthService, username, email, password string) *ports.AuthResult {
	t.Helper()
	result, err := svc.Register(context.Background(), ports.RegisterInput{
		Username:  username,
		Email:     email,
		Password:  password,
		FirstName: "Test",
		LastName:  "User",
	})
	if err != nil {
		t.Fatalf("register %s: %v", username, err)
	}
	return result
}

func TestAuthService_Register_Success(t *testing.T) {
	repo := newStubUserRepo()
	svc, codec := newAuthService(t, repo)

	result := register(t, svc, "alice", "alice@example.com", "pass123")
	if result.Token == "" {
		t.Fatalf("expected auto-issued token")
	}
	if result.Username != "alice" || result.Email != "alice@example.com" {
		t.Fatalf("unexpected result: %+v", result)
	}
	if result.Role != domain.RoleUser {
		t.Fatalf("expected default role %s, got %s", domain.RoleUser, result.Role)
	}

	stored, err := repo.FindByUsername(context.Background(), "alice")
	if err != nil {
		t.Fatalf("stored user missing: %v", err)
	}
	if stored.PasswordHash == "pass123" {
		t.Fatalf("expected password to be hashed")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("pass123")); err != nil {
		t.Fatalf("stored hash does not match password: %v", err)
	}

	claims, err := codec.Decode(result.Token)
	if err != nil {
		t.Fatalf("auto-issued token invalid: %v", err)
	}
	if claims.Subject != "alice" {
		t.Fatalf("expected subject alice, got %q", claims.Subject)
	}
}

func TestAuthService_Register_DuplicateUsername(t *testing.T) {
	repo := newStubUserRepo()
	svc, _ := newAuthService(t, repo)

	register(t, svc, "bob", "bob@example.com", "pass")
	_, err := svc.Register(context.Background(), ports.RegisterInput{
		Username: "bob", Email: "other@example.com", Password: "pass2",
	})
	if !errors.Is(err, domain.ErrUsernameTaken) {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}
}

func TestAuthService_Register_DuplicateEmail(t *testing.T) {
	repo := newStubUserRepo()
	svc, _ := newAuthService(t, repo)

	register(t, svc, "bob", "bob@example.com", "pass")
	_, err := svc.Register(context.Background(), ports.RegisterInput{
		Username: "robert", Email: "bob@example.com", Password: "pass2",
	})
	if !errors.Is(err, domain.ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestAuthService_Login_ByUsername(t *testing.T) {
	repo := newStubUserRepo()
	svc, codec := newAuthService(t, repo)
	register(t, svc, "carol", "carol@example.com", "s3cret")

	result, err := svc.Login(context.Background(), "carol", "s3cret")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}

	claims, err := codec.Decode(result.Token)
	if err != nil {
		t.Fatalf("token invalid: %v", err)
	}
	if claims.Subject != "carol" {
		t.Fatalf("expected subject carol, got %q", claims.Subject)
	}
	if claims.Role != domain.RoleUser || claims.Email != "carol@example.com" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if claims.UserID != result.UserID {
		t.Fatalf("user id claim %q does not match result %q", claims.UserID, result.UserID)
	}
}

func TestAuthService_Login_ByEmail(t *testing.T) {
	repo := newStubUserRepo()
	svc, codec := newAuthService(t, repo)
	register(t, svc, "carol", "carol@example.com", "s3cret")

	result, err := svc.Login(context.Background(), "carol@example.com", "s3cret")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	claims, err := codec.Decode(result.Token)
	if err != nil {
		t.Fatalf("token invalid: %v", err)
	}
	if claims.Subject != "carol" {
		t.Fatalf("expected subject carol, got %q", claims.Subject)
	}
}

// An email-shaped identifier resolves only via the email branch: a user
// whose username literally looks like an email must not match.
func TestAuthService_Login_EmailShapedNeverMatchesUsername(t *testing.T) {
	repo := newStubUserRepo()
	svc, _ := newAuthService(t, repo)
	register(t, svc, "alice@example.com", "real@example.org", "s3cret")

	_, err := svc.Login(context.Background(), "alice@example.com", "s3cret")
	if !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}

	// The same account still logs in via its actual email.
	if _, err := svc.Login(context.Background(), "real@example.org", "s3cret"); err != nil {
		t.Fatalf("login via real email failed: %v", err)
	}
}

// Login hands out an access/refresh pair: same claims, distinct lifetimes.
func TestAuthService_Login_IssuesRefreshToken(t *testing.T) {
	repo := newStubUserRepo()
	svc, codec := newAuthService(t, repo)
	register(t, svc, "carol", "carol@example.com", "s3cret")

	result, err := svc.Login(context.Background(), "carol", "s3cret")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if result.RefreshToken == "" {
		t.Fatalf("expected a refresh token alongside the access token")
	}

	access, err := codec.Decode(result.Token)
	if err != nil {
		t.Fatalf("access token invalid: %v", err)
	}
	refresh, err := codec.Decode(result.RefreshToken)
	if err != nil {
		t.Fatalf("refresh token invalid: %v", err)
	}

	if refresh.Subject != access.Subject || refresh.UserID != access.UserID {
		t.Fatalf("refresh token claims diverge: %+v vs %+v", refresh, access)
	}
	if got := access.ExpiresAt.Sub(access.IssuedAt); got != codec.AccessTTL() {
		t.Fatalf("access lifetime %v, want %v", got, codec.AccessTTL())
	}
	if got := refresh.ExpiresAt.Sub(refresh.IssuedAt); got != codec.RefreshTTL() {
		t.Fatalf("refresh lifetime %v, want %v", got, codec.RefreshTTL())
	}
}

// A still-valid refresh token yields a fresh pair.
func TestAuthService_Refresh_WithRefreshToken(t *testing.T) {
	repo := newStubUserRepo()
	svc, codec := newAuthService(t, repo)
	result := register(t, svc, "frank", "frank@example.com", "pass")

	refreshed, err := svc.Refresh(context.Background(), result.RefreshToken)
	if err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	if refreshed.Token == "" || refreshed.RefreshToken == "" {
		t.Fatalf("expected a new access/refresh pair, got %+v", refreshed)
	}
	claims, err := codec.Decode(refreshed.RefreshToken)
	if err != nil {
		t.Fatalf("new refresh token invalid: %v", err)
	}
	if got := claims.ExpiresAt.Sub(claims.IssuedAt); got != codec.RefreshTTL() {
		t.Fatalf("new refresh lifetime %v, want %v", got, codec.RefreshTTL())
	}
}

// The dot may sit anywhere, including before the "@": such identifiers are
// still email-shaped and never resolve as usernames.
func TestAuthService_Login_EmailShapeAcceptsDotBeforeAt(t *testing.T) {
	repo := newStubUserRepo()
	svc, _ := newAuthService(t, repo)
	register(t, svc, "j.doe@host", "jdoe@example.com", "s3cret")

	_, err := svc.Login(context.Background(), "j.doe@host", "s3cret")
	if !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}

	if _, err := svc.Login(context.Background(), "jdoe@example.com", "s3cret"); err != nil {
		t.Fatalf("login via email failed: %v", err)
	}
}

func TestAuthService_Login_WrongPassword(t *testing.T) {
	repo := newStubUserRepo()
	svc, _ := newAuthService(t, repo)
	register(t, svc, "dave", "dave@example.com", "goodpass")

	_, err := svc.Login(context.Background(), "dave", "badpass")
	if !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

// Unknown identifier and wrong password are indistinguishable to the caller.
func TestAuthService_Login_UnknownIdentifier(t *testing.T) {
	repo := newStubUserRepo()
	svc, _ := newAuthService(t, repo)

	for _, identifier := range []string{"ghost", "ghost@example.com"} {
		_, err := svc.Login(context.Background(), identifier, "pass")
		if !errors.Is(err, domain.ErrInvalidCredentials) {
			t.Fatalf("identifier %q: expected ErrInvalidCredentials, got %v", identifier, err)
		}
	}
}

func TestAuthService_Refresh(t *testing.T) {
	repo := newStubUserRepo()
	svc, codec := newAuthService(t, repo)
	result := register(t, svc, "erin", "erin@example.com", "pass")

	refreshed, err := svc.Refresh(context.Background(), result.Token)
	if err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	claims, err := codec.Decode(refreshed.Token)
	if err != nil {
		t.Fatalf("refreshed token invalid: %v", err)
	}
	if claims.Subject != "erin" {
		t.Fatalf("expected subject erin, got %q", claims.Subject)
	}
}

func TestAuthService_Refresh_InvalidToken(t *testing.T) {
	repo := newStubUserRepo()
	svc, _ := newAuthService(t, repo)

	if _, err := svc.Refresh(context.Background(), "garbage"); !errors.Is(err, token.ErrMalformedToken) {
		t.Fatalf("expected ErrMalformedToken, got %v", err)
	}
}
