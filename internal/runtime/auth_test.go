package runtime

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

var secret = []byte("test-secret")

func protectedEcho() *echo.Echo {
	e := echo.New()
	g := e.Group("", EchoAuthMiddleware(secret))
	g.GET("/whoami", func(c echo.Context) error {
		sub, _ := SubjectFromContext(c.Request().Context())
		return c.String(http.StatusOK, sub)
	})
	return e
}

func TestAuthMiddlewareBearerHeader(t *testing.T) {
	tok, err := SignJWT("user-1", secret, time.Minute)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	e := protectedEcho()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Body.String() != "user-1" {
		t.Fatalf("expected subject user-1, got %q", rec.Body.String())
	}
}

func TestAuthMiddlewareTokenQueryParam(t *testing.T) {
	tok, err := SignJWT("user-2", secret, time.Minute)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	e := protectedEcho()
	req := httptest.NewRequest(http.MethodGet, "/whoami?token="+tok, nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Body.String() != "user-2" {
		t.Fatalf("expected subject user-2, got %q", rec.Body.String())
	}
}

func TestAuthMiddlewareRejectsMissingAndInvalid(t *testing.T) {
	e := protectedEcho()

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("missing token: expected 401, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/whoami?token=garbage", nil)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("invalid token: expected 401, got %d", rec.Code)
	}
}

func TestAuthMiddlewareRejectsExpiredToken(t *testing.T) {
	tok, err := SignJWT("user-3", secret, -time.Minute)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	e := protectedEcho()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expired token: expected 401, got %d", rec.Code)
	}
}
