package admin

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/JonMunkholm/results/internal/auth"
	"github.com/JonMunkholm/results/internal/core"
	"github.com/JonMunkholm/results/internal/database"
)

type fakeProfiles struct {
	existing  map[string]bool
	created   []database.NewProfile
	createErr error
}

func (f *fakeProfiles) ProfileExists(_ context.Context, email string) (bool, error) {
	return f.existing[email], nil
}

func (f *fakeProfiles) CreateProfile(_ context.Context, p database.NewProfile) (string, error) {
	if f.createErr != nil {
		return "", f.createErr
	}
	f.created = append(f.created, p)
	return fmt.Sprintf("profile-%d", len(f.created)), nil
}

func TestProvision(t *testing.T) {
	store := &fakeProfiles{}
	id, err := Provision(context.Background(), store, Account{
		Email:    "  Registrar@School.EDU ",
		Password: "correct-horse",
		Name:     " Registrar ",
		Role:     "Admin",
	})
	if err != nil {
		t.Fatalf("Provision() error = %v", err)
	}
	if id != "profile-1" || len(store.created) != 1 {
		t.Fatalf("id = %q created = %d", id, len(store.created))
	}

	got := store.created[0]
	if got.Email != "registrar@school.edu" || got.Name != "Registrar" || got.Role != database.RoleAdmin {
		t.Errorf("created = %+v", got)
	}
	if got.PasswordHash == "correct-horse" || !auth.CheckPassword(got.PasswordHash, "correct-horse") {
		t.Error("password was not hashed")
	}
}

func TestProvision_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		acct    Account
		store   *fakeProfiles
		wantErr error
	}{
		{
			name:  "bad email",
			acct:  Account{Email: "not-an-email", Password: "long-enough", Role: "admin"},
			store: &fakeProfiles{},
		},
		{
			name:  "unknown role",
			acct:  Account{Email: "a@b.co", Password: "long-enough", Role: "registrar"},
			store: &fakeProfiles{},
		},
		{
			name:  "student without roll number",
			acct:  Account{Email: "a@b.co", Password: "long-enough"},
			store: &fakeProfiles{},
		},
		{
			name:  "admin with roll number",
			acct:  Account{Email: "a@b.co", Password: "long-enough", Role: "admin", RollNo: "S1"},
			store: &fakeProfiles{},
		},
		{
			name:    "weak password",
			acct:    Account{Email: "a@b.co", Password: "short", Role: "admin"},
			store:   &fakeProfiles{},
			wantErr: auth.ErrWeakPassword,
		},
		{
			name:    "already registered",
			acct:    Account{Email: "A@B.co", Password: "long-enough", Role: "admin"},
			store:   &fakeProfiles{existing: map[string]bool{"a@b.co": true}},
			wantErr: ErrProfileExists,
		},
		{
			name:    "lost race on create",
			acct:    Account{Email: "a@b.co", Password: "long-enough", Role: "student", RollNo: "S1"},
			store:   &fakeProfiles{createErr: fmt.Errorf("create profile: %w", core.ErrDuplicate)},
			wantErr: ErrProfileExists,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Provision(context.Background(), tt.store, tt.acct)
			if err == nil {
				t.Fatal("Provision() error = nil")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
			if tt.store.createErr == nil && len(tt.store.created) != 0 {
				t.Error("profile created despite rejection")
			}
		})
	}
}
