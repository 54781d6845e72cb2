package main

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"

	"jerrygfit/api/internal/authpw"
	"jerrygfit/api/internal/domain"
	"jerrygfit/api/internal/store"
)

type fakeAdminStore struct {
	byEmail map[string]store.User
	updated []store.User
}

func (f *fakeAdminStore) GetUserByEmail(_ context.Context, email string) (store.User, error) {
	user, ok := f.byEmail[email]
	if !ok {
		return store.User{}, sql.ErrNoRows
	}
	return user, nil
}

func (f *fakeAdminStore) UpdateUser(_ context.Context, user store.User) (store.User, error) {
	f.updated = append(f.updated, user)
	return user, nil
}

type fakePasswords struct {
	calls      []string
	registered authpw.RegisterRequest
	setFor     int64
}

func (f *fakePasswords) Register(_ context.Context, req authpw.RegisterRequest) (store.User, error) {
	f.calls = append(f.calls, "register")
	f.registered = req
	return store.User{ID: 9, Email: req.Email, Username: req.Username, Role: domain.RoleUser, IsActive: true}, nil
}

func (f *fakePasswords) SetPassword(_ context.Context, userID int64, _ string) error {
	f.calls = append(f.calls, "set")
	f.setFor = userID
	return nil
}

func TestCreateAdminRegistersNewAccount(t *testing.T) {
	users := &fakeAdminStore{byEmail: map[string]store.User{}}
	passwords := &fakePasswords{}

	user, err := createAdmin(context.Background(), users, passwords, adminInput{
		Email: " Boss@JerryGFit.com ", Username: "boss", Password: "long-enough",
	})
	if err != nil {
		t.Fatalf("createAdmin() error = %v", err)
	}
	if passwords.registered.Email != "boss@jerrygfit.com" {
		t.Fatalf("expected normalized email, got %q", passwords.registered.Email)
	}
	if user.Role != domain.RoleAdmin || !user.IsSuperuser {
		t.Fatalf("expected admin superuser, got %+v", user)
	}
	if strings.Join(passwords.calls, ",") != "register" {
		t.Fatalf("unexpected password calls %v", passwords.calls)
	}
}

func TestCreateAdminPromotesExistingAccount(t *testing.T) {
	existing := store.User{ID: 4, Email: "mike@jerrygfit.com", Username: "mikewellness", Role: domain.RoleCoach}
	users := &fakeAdminStore{byEmail: map[string]store.User{existing.Email: existing}}
	passwords := &fakePasswords{}

	user, err := createAdmin(context.Background(), users, passwords, adminInput{
		Email: existing.Email, Username: "ignored", FullName: "Mike Chen", Password: "long-enough",
	})
	if err != nil {
		t.Fatalf("createAdmin() error = %v", err)
	}
	if user.ID != 4 || user.Role != domain.RoleAdmin || user.FullName != "Mike Chen" {
		t.Fatalf("unexpected promoted user %+v", user)
	}
	if len(users.updated) != 1 {
		t.Fatalf("expected one update, got %d", len(users.updated))
	}
	if strings.Join(passwords.calls, ",") != "set" || passwords.setFor != 4 {
		t.Fatalf("expected password set on user 4 after update, got %v for %d", passwords.calls, passwords.setFor)
	}
}

func TestCreateAdminRejectsShortPassword(t *testing.T) {
	users := &fakeAdminStore{byEmail: map[string]store.User{}}
	passwords := &fakePasswords{}

	_, err := createAdmin(context.Background(), users, passwords, adminInput{Email: "a@b.com", Username: "a", Password: "short"})
	if !errors.Is(err, authpw.ErrWeakPassword) {
		t.Fatalf("createAdmin() error = %v, want ErrWeakPassword", err)
	}
	if len(passwords.calls) != 0 || len(users.updated) != 0 {
		t.Fatal("nothing should be written for a rejected password")
	}
}

func TestReadLine(t *testing.T) {
	got, err := readLine(strings.NewReader("hunter22\r\nextra"))
	if err != nil {
		t.Fatalf("readLine() error = %v", err)
	}
	if got != "hunter22" {
		t.Fatalf("readLine() = %q", got)
	}
	if _, err := readLine(strings.NewReader("")); err == nil {
		t.Fatal("expected error for empty input")
	}
}

func TestRootCommandRegistersSubcommands(t *testing.T) {
	root := newRootCmd(&env{})
	for _, name := range []string{"migrate", "seed", "create-admin", "reset-password", "reindex"} {
		if cmd, _, err := root.Find([]string{name}); err != nil || cmd.Name() != name {
			t.Fatalf("subcommand %q not registered: %v", name, err)
		}
	}
}
