package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/JonMunkholm/results/internal/auth"
	"github.com/JonMunkholm/results/internal/database"
	"github.com/JonMunkholm/results/internal/logging"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string    `json:"token"`
	Role      string    `json:"role"`
	RollNo    string    `json:"roll_no,omitempty"`
	ExpiresAt time.Time `json:"expires_at"`
}

// handleLogin exchanges email and password for a bearer token carrying the profile's role.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 16<<10)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	log := logging.FromContext(r.Context())

	profile, err := s.deps.Profiles.ProfileByEmail(r.Context(), req.Email)
	switch {
	case errors.Is(err, database.ErrNotFound):
		auth.RejectPassword(req.Password)
		log.Warn("login failed", "reason", "unknown email")
		writeError(w, http.StatusUnauthorized, "invalid email or password")
		return
	case err != nil:
		respondError(w, r, err, http.StatusInternalServerError)
		return
	}

	if !auth.CheckPassword(profile.PasswordHash, req.Password) {
		log.Warn("login failed", "reason", "wrong password", "user_id", profile.ID)
		writeError(w, http.StatusUnauthorized, "invalid email or password")
		return
	}

	token, expires, err := s.deps.Tokens.Issue(auth.Identity{
		ID:     profile.ID,
		Email:  profile.Email,
		Role:   profile.Role,
		RollNo: profile.RollNo,
	})
	if err != nil {
		respondError(w, r, err, http.StatusInternalServerError)
		return
	}

	log.Info("login succeeded", "user_id", profile.ID, "role", profile.Role)
	writeJSON(w, http.StatusOK, loginResponse{
		Token:     token,
		Role:      profile.Role,
		RollNo:    profile.RollNo,
		ExpiresAt: expires,
	})
}
