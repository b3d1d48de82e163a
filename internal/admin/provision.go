// Package admin provides administrative operations for account management.
package admin

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/JonMunkholm/results/internal/auth"
	"github.com/JonMunkholm/results/internal/core"
	"github.com/JonMunkholm/results/internal/database"
)

// ProvisionTimeout is the maximum duration for a provisioning operation.
const ProvisionTimeout = 30 * time.Second

// ErrProfileExists is returned when the email is already registered.
var ErrProfileExists = errors.New("profile already exists")

// ProfileStore is the subset of the database store provisioning needs.
type ProfileStore interface {
	ProfileExists(ctx context.Context, email string) (bool, error)
	CreateProfile(ctx context.Context, p database.NewProfile) (string, error)
}

// Account describes a login to create.
type Account struct {
	Email    string
	Password string
	Name     string
	Role     string
	RollNo   string
}

// Normalize trims the account fields and lowercases the email.
func (a Account) Normalize() Account {
	a.Email = strings.ToLower(strings.TrimSpace(a.Email))
	a.Name = strings.TrimSpace(a.Name)
	a.Role = strings.ToLower(strings.TrimSpace(a.Role))
	a.RollNo = strings.TrimSpace(a.RollNo)
	if a.Role == "" {
		a.Role = database.RoleStudent
	}
	return a
}

// Validate reports the first problem with a normalized account.
func (a Account) Validate() error {
	if _, err := mail.ParseAddress(a.Email); err != nil || strings.ContainsAny(a.Email, "<> ") {
		return fmt.Errorf("invalid email %q", a.Email)
	}
	switch a.Role {
	case database.RoleAdmin:
		if a.RollNo != "" {
			return errors.New("admin accounts do not carry a roll number")
		}
	case database.RoleStudent:
		if a.RollNo == "" {
			return errors.New("student accounts need a roll number")
		}
	default:
		return fmt.Errorf("unknown role %q", a.Role)
	}
	return nil
}

// Provision hashes the password and creates the profile, returning its id.
func Provision(ctx context.Context, store ProfileStore, acct Account) (string, error) {
	acct = acct.Normalize()
	if err := acct.Validate(); err != nil {
		return "", err
	}

	exists, err := store.ProfileExists(ctx, acct.Email)
	if err != nil {
		return "", err
	}
	if exists {
		return "", fmt.Errorf("%s: %w", acct.Email, ErrProfileExists)
	}

	hash, err := auth.HashPassword(acct.Password)
	if err != nil {
		return "", err
	}

	id, err := store.CreateProfile(ctx, database.NewProfile{
		Email:        acct.Email,
		PasswordHash: hash,
		Name:         acct.Name,
		Role:         acct.Role,
		RollNo:       acct.RollNo,
	})
	if errors.Is(err, core.ErrDuplicate) {
		return "", fmt.Errorf("%s: %w", acct.Email, ErrProfileExists)
	}
	return id, err
}
