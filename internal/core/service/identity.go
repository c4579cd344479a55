package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/leadbook/crm-system/internal/core/domain"
)

const (
	claimUserID = "uid"
	claimRole   = "role"
	claimName   = "name"
)

// Identity verifies the HS256 bearer tokens presented by REST callers and live
// session handshakes.
type Identity struct {
	secret []byte
}

func NewIdentity(jwtSecret string) *Identity {
	return &Identity{secret: []byte(jwtSecret)}
}

// Authenticate returns the identity carried by token. Any missing, malformed,
// expired or wrongly signed token yields domain.ErrUnauthenticated.
func (i *Identity) Authenticate(token string) (domain.UserIdentity, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return domain.UserIdentity{}, fmt.Errorf("%w: missing token", domain.ErrUnauthenticated)
	}

	claims := jwt.MapClaims{}
	tkn, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return i.secret, nil
	}, jwt.WithExpirationRequired())
	if err != nil || !tkn.Valid {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return domain.UserIdentity{}, fmt.Errorf("%w: token expired", domain.ErrUnauthenticated)
		}
		return domain.UserIdentity{}, fmt.Errorf("%w: invalid token", domain.ErrUnauthenticated)
	}

	uid, _ := claims[claimUserID].(string)
	role, _ := claims[claimRole].(string)
	name, _ := claims[claimName].(string)
	if uid == "" || !domain.Role(role).Valid() {
		return domain.UserIdentity{}, fmt.Errorf("%w: incomplete claims", domain.ErrUnauthenticated)
	}

	return domain.UserIdentity{ID: uid, Name: name, Role: domain.Role(role)}, nil
}
