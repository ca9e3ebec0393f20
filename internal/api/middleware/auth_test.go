package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/tcc/task-manager-api/internal/core/token"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func testCodec(t *testing.T) *token.Codec {
	t.Helper()
	codec, err := token.New(token.Config{Secret: testSecret, AccessTTL: time.Hour})
	if err != nil {
		t.Fatalf("codec: %v", err)
	}
	return codec
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	e := echo.New()
	codec := testCodec(t)
	signed, err := codec.Issue("alice", map[string]any{
		token.ClaimRole:   "admin",
		token.ClaimUserID: "u-1",
		token.ClaimEmail:  "alice@example.com",
	}, time.Hour)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+signed)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	called := false
	mw := Auth(codec, zerolog.Nop())
	handler := mw(func(c echo.Context) error {
		called = true
		if c.Get(CtxUsername) != "alice" {
			t.Fatalf("username not set")
		}
		if c.Get(CtxRole) != "admin" {
			t.Fatalf("role not set")
		}
		if c.Get(CtxUserID) != "u-1" {
			t.Fatalf("user_id not set")
		}
		if c.Get(CtxEmail) != "alice@example.com" {
			t.Fatalf("email not set")
		}
		return c.NoContent(http.StatusOK)
	})

	if err := handler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !called {
		t.Fatalf("next not called")
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestAuthMiddleware_MissingHeader(t *testing.T) {
	runRejectionTest(t, func(req *http.Request) {})
}

func TestAuthMiddleware_InvalidHeaderFormat(t *testing.T) {
	runRejectionTest(t, func(req *http.Request) {
		req.Header.Set(echo.HeaderAuthorization, "Token abc")
	})
}

func TestAuthMiddleware_InvalidToken(t *testing.T) {
	runRejectionTest(t, func(req *http.Request) {
		req.Header.Set(echo.HeaderAuthorization, "Bearer not-a-token")
	})
}

func TestAuthMiddleware_ExpiredToken(t *testing.T) {
	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "alice",
		"exp": time.Now().Add(-time.Hour).Unix(),
	}).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	runRejectionTest(t, func(req *http.Request) {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+expired)
	})
}

func TestAuthMiddleware_WrongSecret(t *testing.T) {
	foreign, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "alice",
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("ffffffffffffffffffffffffffffffff"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	runRejectionTest(t, func(req *http.Request) {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+foreign)
	})
}

// runRejectionTest asserts that every failure class yields the same 401 and
// never reaches the next handler.
func runRejectionTest(t *testing.T, prepare func(req *http.Request)) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	prepare(req)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	mw := Auth(testCodec(t), zerolog.Nop())
	handler := mw(func(c echo.Context) error {
		t.Fatalf("should not reach next")
		return nil
	})

	if err := handler(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}
