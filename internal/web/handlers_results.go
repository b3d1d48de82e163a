package web

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/results/internal/database"
	mw "github.com/JonMunkholm/results/internal/web/middleware"
)

type semesterDetail struct {
	Semester database.Semester  `json:"semester"`
	Subjects []database.Subject `json:"subjects"`
}

// handleListSemesters lists semesters, latest first. Students always see their
// own roll number; admins pick one with ?roll_no=.
func (s *Server) handleListSemesters(w http.ResponseWriter, r *http.Request) {
	id, _ := mw.IdentityFrom(r.Context())

	rollNo := id.RollNo
	if id.Role == database.RoleAdmin {
		rollNo = strings.TrimSpace(r.URL.Query().Get("roll_no"))
		if rollNo == "" {
			writeError(w, http.StatusBadRequest, "roll_no is required")
			return
		}
	}
	if rollNo == "" {
		writeJSON(w, http.StatusOK, map[string]any{"semesters": []database.Semester{}})
		return
	}

	semesters, err := s.deps.Results.ListSemesters(r.Context(), rollNo)
	if err != nil {
		respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"roll_no": rollNo, "semesters": semesters})
}

// handleGetSemester returns one semester with its subjects in insertion order.
// A student asking for someone else's semester gets 404.
func (s *Server) handleGetSemester(w http.ResponseWriter, r *http.Request) {
	semesterID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || semesterID <= 0 {
		writeError(w, http.StatusBadRequest, "invalid semester id")
		return
	}

	sem, owner, err := s.deps.Results.GetSemester(r.Context(), semesterID)
	if errors.Is(err, database.ErrNotFound) {
		writeError(w, http.StatusNotFound, "semester not found")
		return
	}
	if err != nil {
		respondError(w, r, err, http.StatusInternalServerError)
		return
	}

	id, _ := mw.IdentityFrom(r.Context())
	if id.Role != database.RoleAdmin && (id.RollNo == "" || id.RollNo != owner) {
		writeError(w, http.StatusNotFound, "semester not found")
		return
	}

	subjects, err := s.deps.Results.ListSubjects(r.Context(), sem.ID)
	if err != nil {
		respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, semesterDetail{Semester: sem, Subjects: subjects})
}
