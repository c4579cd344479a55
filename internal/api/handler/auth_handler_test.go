package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/leadbook/crm-system/internal/core/domain"
)

type stubAuthService struct {
	loginFn func(ctx context.Context, email, password string) (string, *domain.User, error)
}

func (s *stubAuthService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	return s.loginFn(ctx, email, password)
}

func postLogin(h *AuthHandler, body string) (*httptest.ResponseRecorder, error) {
	e := newTestEcho()
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return rec, h.Login(e.NewContext(req, rec))
}

func TestAuthHandler_Login_Success(t *testing.T) {
	stub := &stubAuthService{
		loginFn: func(_ context.Context, email, password string) (string, *domain.User, error) {
			if email != "alice@example.com" || password != "secret" {
				t.Fatalf("unexpected args: %s %s", email, password)
			}
			return "token123", &domain.User{
				UserIdentity: domain.UserIdentity{ID: "U1", Name: "Alice", Role: domain.RoleOwner, Email: email},
				PasswordHash: "hash",
				Active:       true,
			}, nil
		},
	}

	rec, err := postLogin(NewAuthHandler(stub), `{"email":"alice@example.com","password":"secret"}`)
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["token"] != "token123" {
		t.Fatalf("expected token, got %v", resp["token"])
	}
	user, ok := resp["user"].(map[string]any)
	if !ok || user["id"] != "U1" || user["role"] != "owner" {
		t.Fatalf("unexpected user payload: %+v", user)
	}
	if strings.Contains(rec.Body.String(), "hash") {
		t.Fatalf("password hash must not be serialised: %s", rec.Body.String())
	}
}

func TestAuthHandler_Login_ServiceErrorsAreWrapped(t *testing.T) {
	for _, want := range []error{domain.ErrInvalidCredentials, domain.ErrForbidden, context.DeadlineExceeded} {
		stub := &stubAuthService{
			loginFn: func(context.Context, string, string) (string, *domain.User, error) {
				return "", nil, want
			},
		}
		_, err := postLogin(NewAuthHandler(stub), `{"email":"alice@example.com","password":"bad"}`)
		if !errors.Is(err, want) {
			t.Errorf("expected %v, got %v", want, err)
		}
	}
}

func TestAuthHandler_Login_RejectsBadInput(t *testing.T) {
	stub := &stubAuthService{
		loginFn: func(context.Context, string, string) (string, *domain.User, error) {
			t.Fatalf("should not be called")
			return "", nil, nil
		},
	}

	cases := []struct {
		body string
		want int
	}{
		{"not-json", http.StatusBadRequest},
		{`{"email":"alice","password":"x"}`, http.StatusUnprocessableEntity},
		{`{"email":"alice@example.com"}`, http.StatusUnprocessableEntity},
	}
	for _, tc := range cases {
		_, err := postLogin(NewAuthHandler(stub), tc.body)
		var he *echo.HTTPError
		if !errors.As(err, &he) || he.Code != tc.want {
			t.Errorf("%s: expected HTTP %d, got %v", tc.body, tc.want, err)
		}
	}
}
