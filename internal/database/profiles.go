package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgtype"
)

// Roles a profile can hold.
const (
	RoleStudent = "student"
	RoleAdmin   = "admin"
)

// Profile is a dashboard user. Students carry the roll number their results are filed under.
type Profile struct {
	ID           string
	Email        string
	PasswordHash string
	Name         string
	Role         string
	RollNo       string
}

// NewProfile holds the attributes of a profile to create.
type NewProfile struct {
	Email        string
	PasswordHash string
	Name         string
	Role         string
	RollNo       string
}

const (
	profileByEmailSQL = `
SELECT id::text, email, password_hash, name, role, roll_no
FROM profiles
WHERE lower(email) = lower($1)`

	createProfileSQL = `
INSERT INTO profiles (email, password_hash, name, role, roll_no)
VALUES ($1, $2, $3, $4, $5)
RETURNING id::text`
)

// ProfileByEmail looks up a profile case-insensitively. Returns ErrNotFound when absent.
func (s *Store) ProfileByEmail(ctx context.Context, email string) (Profile, error) {
	var (
		p      Profile
		rollNo pgtype.Text
	)
	err := s.db.QueryRow(ctx, profileByEmailSQL, email).
		Scan(&p.ID, &p.Email, &p.PasswordHash, &p.Name, &p.Role, &rollNo)
	if err != nil {
		return Profile{}, mapReadError("profile by email", err)
	}
	p.RollNo = rollNo.String
	return p, nil
}

// CreateProfile inserts a profile. An existing email fails with core.ErrDuplicate.
func (s *Store) CreateProfile(ctx context.Context, p NewProfile) (string, error) {
	role := p.Role
	if role == "" {
		role = RoleStudent
	}
	rollNo := pgtype.Text{String: p.RollNo, Valid: p.RollNo != ""}

	var id string
	err := s.db.QueryRow(ctx, createProfileSQL, p.Email, p.PasswordHash, p.Name, role, rollNo).Scan(&id)
	if err != nil {
		return "", mapWriteError("create profile", err)
	}
	return id, nil
}

// ProfileExists reports whether an email is already registered.
func (s *Store) ProfileExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := s.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM profiles WHERE lower(email) = lower($1))`, email).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("profile exists: %w", err)
	}
	return exists, nil
}
