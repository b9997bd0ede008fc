package keyline

import (
	"context"
	"errors"
	"testing"
)

func TestRegisterWithPassword(t *testing.T) {
	f := newFixture(t)
	role := f.seedDefaultRole(t)
	ctx := context.Background()

	user, err := f.svc.RegisterWithPassword(ctx, "a@x.com", "longenough1")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if user.PasswordHash == "" || user.PasswordHash == "longenough1" {
		t.Fatal("expected password to be hashed")
	}

	identity, err := f.db.IdentityByUser(ctx, user.ID, ProviderEmail)
	if err != nil {
		t.Fatalf("identity: %v", err)
	}
	if identity.Subject != user.ID {
		t.Fatalf("identity subject = %q, want self-referential %q", identity.Subject, user.ID)
	}

	roles, err := f.db.RolesOfUser(ctx, user.ID)
	if err != nil {
		t.Fatalf("roles: %v", err)
	}
	if len(roles) != 1 || roles[0].ID != role.ID {
		t.Fatalf("roles = %v, want default role", roles)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	f := newFixture(t)
	f.seedDefaultRole(t)
	ctx := context.Background()

	if _, err := f.svc.RegisterWithPassword(ctx, "a@x.com", "longenough1"); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if _, err := f.svc.RegisterWithPassword(ctx, "a@x.com", "longenough1"); !errors.Is(err, ErrUserExists) {
		t.Fatalf("err = %v, want ErrUserExists", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	f := newFixture(t)
	f.seedDefaultRole(t)
	ctx := context.Background()

	cases := []struct {
		name, email, pass string
	}{
		{"malformed email", "not-an-email", "longenough1"},
		{"short password", "a@x.com", "short"},
		{"empty password", "a@x.com", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := f.svc.RegisterWithPassword(ctx, tc.email, tc.pass); !errors.Is(err, ErrValidation) {
				t.Fatalf("err = %v, want ErrValidation", err)
			}
		})
	}

	if len(f.db.users) != 0 {
		t.Fatal("expected no side effects from rejected input")
	}
}

func TestRegisterWithoutDefaultRole(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.RegisterWithPassword(context.Background(), "a@x.com", "longenough1")
	if !errors.Is(err, ErrDefaultRoleMissing) {
		t.Fatalf("err = %v, want ErrDefaultRoleMissing", err)
	}
}
