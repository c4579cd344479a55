package directory

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/leadbook/crm-system/internal/core/domain"
)

type stubUserRepo struct {
	users []domain.User
	err   error
}

func (s *stubUserRepo) FindAll(_ context.Context) ([]domain.User, error) {
	return s.users, s.err
}

func (s *stubUserRepo) FindByID(_ context.Context, _ string) (*domain.User, error) {
	return nil, domain.ErrUserNotFound
}

func (s *stubUserRepo) FindByEmail(_ context.Context, _ string) (*domain.User, error) {
	return nil, domain.ErrUserNotFound
}

func user(id string, role domain.Role) domain.User {
	return domain.User{UserIdentity: domain.UserIdentity{ID: id, Name: "user " + id, Role: role}}
}

func TestDirectory_Refresh(t *testing.T) {
	repo := &stubUserRepo{users: []domain.User{
		user("m1", domain.RoleMember),
		user("o1", domain.RoleOwner),
		user("a1", domain.RoleOwner),
	}}
	d := New(repo, zerolog.Nop())

	if err := d.Refresh(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	all := d.All()
	if len(all) != 3 || all[0].ID != "a1" || all[2].ID != "o1" {
		t.Fatalf("expected snapshot sorted by id, got %+v", all)
	}
	if owners := d.Owners(); len(owners) != 2 {
		t.Errorf("expected 2 owners, got %d", len(owners))
	}
	u, ok := d.Get("m1")
	if !ok || u.Role != domain.RoleMember {
		t.Errorf("expected member m1, got %+v ok=%v", u, ok)
	}
	if d.BuiltAt().IsZero() {
		t.Error("expected BuiltAt to be set")
	}
}

func TestDirectory_RefreshFailureKeepsSnapshot(t *testing.T) {
	repo := &stubUserRepo{users: []domain.User{user("o1", domain.RoleOwner)}}
	d := New(repo, zerolog.Nop())
	if err := d.Refresh(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	repo.err = errors.New("db down")
	repo.users = nil
	if err := d.Refresh(context.Background()); err == nil {
		t.Fatal("expected refresh error")
	}

	if _, ok := d.Get("o1"); !ok {
		t.Error("expected previous snapshot to survive a failed refresh")
	}
}

func TestDirectory_RunDisabled(t *testing.T) {
	d := New(&stubUserRepo{}, zerolog.Nop())
	// returns immediately
	d.Run(context.Background(), 0)
}
