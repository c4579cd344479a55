package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/leadbook/crm-system/internal/core/domain"
)

func TestRBAC(t *testing.T) {
	cases := []struct {
		name     string
		identity any
		allowed  []domain.Role
		wantNext bool
		wantErr  func(error) bool
	}{
		{
			name:     "owner on owner route",
			identity: domain.UserIdentity{ID: "O1", Role: domain.RoleOwner},
			allowed:  []domain.Role{domain.RoleOwner},
			wantNext: true,
		},
		{
			name:     "member on shared route",
			identity: domain.UserIdentity{ID: "M1", Role: domain.RoleMember},
			allowed:  []domain.Role{domain.RoleOwner, domain.RoleMember},
			wantNext: true,
		},
		{
			name:     "member on owner route",
			identity: domain.UserIdentity{ID: "M1", Role: domain.RoleMember},
			allowed:  []domain.Role{domain.RoleOwner},
			wantErr:  func(err error) bool { return errors.Is(err, domain.ErrForbidden) },
		},
		{
			name:    "no identity",
			allowed: []domain.Role{domain.RoleOwner},
			wantErr: func(err error) bool {
				var he *echo.HTTPError
				return errors.As(err, &he) && he.Code == http.StatusUnauthorized
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := echo.New()
			c := e.NewContext(httptest.NewRequest(http.MethodPost, "/v1/directory/refresh", nil), httptest.NewRecorder())
			if tc.identity != nil {
				c.Set(CtxIdentity, tc.identity)
			}

			called := false
			err := RBAC(tc.allowed...)(func(echo.Context) error {
				called = true
				return nil
			})(c)

			if called != tc.wantNext {
				t.Fatalf("next called = %v, want %v", called, tc.wantNext)
			}
			if tc.wantErr == nil && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tc.wantErr != nil && !tc.wantErr(err) {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}
