package service

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/leadbook/crm-system/internal/core/domain"
)

func sign(t *testing.T, method jwt.SigningMethod, key any, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString(key)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return s
}

func TestIdentity_Authenticate(t *testing.T) {
	exp := time.Now().Add(time.Hour).Unix()
	good := sign(t, jwt.SigningMethodHS256, []byte("secret"), jwt.MapClaims{"uid": "U1", "role": "member", "name": "Bob", "exp": exp})

	id, err := NewIdentity("secret").Authenticate(good)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id.ID != "U1" || id.Role != domain.RoleMember || id.Name != "Bob" {
		t.Fatalf("unexpected identity: %+v", id)
	}
}

func TestIdentity_Rejects(t *testing.T) {
	exp := time.Now().Add(time.Hour).Unix()

	cases := map[string]string{
		"empty":        "",
		"garbage":      "abc.def.ghi",
		"wrong secret": sign(t, jwt.SigningMethodHS256, []byte("other"), jwt.MapClaims{"uid": "U1", "role": "owner", "exp": exp}),
		"wrong alg":    sign(t, jwt.SigningMethodHS384, []byte("secret"), jwt.MapClaims{"uid": "U1", "role": "owner", "exp": exp}),
		"expired":      sign(t, jwt.SigningMethodHS256, []byte("secret"), jwt.MapClaims{"uid": "U1", "role": "owner", "exp": time.Now().Add(-time.Minute).Unix()}),
		"no expiry":    sign(t, jwt.SigningMethodHS256, []byte("secret"), jwt.MapClaims{"uid": "U1", "role": "owner"}),
		"no uid":       sign(t, jwt.SigningMethodHS256, []byte("secret"), jwt.MapClaims{"role": "owner", "exp": exp}),
		"unknown role": sign(t, jwt.SigningMethodHS256, []byte("secret"), jwt.MapClaims{"uid": "U1", "role": "admin", "exp": exp}),
	}

	authn := NewIdentity("secret")
	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := authn.Authenticate(token); !errors.Is(err, domain.ErrUnauthenticated) {
				t.Fatalf("expected ErrUnauthenticated, got %v", err)
			}
		})
	}
}
