package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// Semester is a semester row as shown on the results dashboard.
type Semester struct {
	ID             int64   `json:"id"`
	StudentID      string  `json:"student_id"`
	SemesterNumber int     `json:"semester_number"`
	GPA            float64 `json:"gpa"`
	CreditsEarned  float64 `json:"credits_earned"`
}

// Subject is one subject line under a semester.
type Subject struct {
	ID          int64  `json:"id"`
	SubjectCode string `json:"subject_code"`
	SubjectName string `json:"subject_name"`
	Grade       string `json:"grade"`
}

const (
	listSemestersSQL = `
SELECT sem.id, sem.student_id::text, sem.semester_number, sem.gpa, sem.credits_earned
FROM semesters sem
JOIN students st ON st.id = sem.student_id
WHERE st.roll_no = $1
ORDER BY sem.semester_number DESC`

	getSemesterSQL = `
SELECT sem.id, sem.student_id::text, sem.semester_number, sem.gpa, sem.credits_earned, st.roll_no
FROM semesters sem
JOIN students st ON st.id = sem.student_id
WHERE sem.id = $1`

	listSubjectsSQL = `
SELECT id, subject_code, subject_name, grade
FROM subjects
WHERE semester_id = $1
ORDER BY id ASC`
)

// ListSemesters returns a student's semesters, latest first.
func (s *Store) ListSemesters(ctx context.Context, rollNo string) ([]Semester, error) {
	rows, err := s.db.Query(ctx, listSemestersSQL, rollNo)
	if err != nil {
		return nil, fmt.Errorf("list semesters: %w", err)
	}
	defer rows.Close()

	semesters := []Semester{}
	for rows.Next() {
		var (
			sem          Semester
			gpa, credits pgtype.Numeric
		)
		if err := rows.Scan(&sem.ID, &sem.StudentID, &sem.SemesterNumber, &gpa, &credits); err != nil {
			return nil, fmt.Errorf("scan semester: %w", err)
		}
		sem.GPA = numericToFloat(gpa)
		sem.CreditsEarned = numericToFloat(credits)
		semesters = append(semesters, sem)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list semesters: %w", err)
	}
	return semesters, nil
}

// GetSemester returns one semester and the roll number of the student it belongs to.
func (s *Store) GetSemester(ctx context.Context, id int64) (Semester, string, error) {
	var (
		sem          Semester
		rollNo       string
		gpa, credits pgtype.Numeric
	)
	err := s.db.QueryRow(ctx, getSemesterSQL, id).
		Scan(&sem.ID, &sem.StudentID, &sem.SemesterNumber, &gpa, &credits, &rollNo)
	if err != nil {
		return Semester{}, "", mapReadError("get semester", err)
	}
	sem.GPA = numericToFloat(gpa)
	sem.CreditsEarned = numericToFloat(credits)
	return sem, rollNo, nil
}

// ListSubjects returns a semester's subjects in insertion order.
func (s *Store) ListSubjects(ctx context.Context, semesterID int64) ([]Subject, error) {
	rows, err := s.db.Query(ctx, listSubjectsSQL, semesterID)
	if err != nil {
		return nil, fmt.Errorf("list subjects: %w", err)
	}
	subjects, err := pgx.CollectRows(rows, pgx.RowToStructByPos[Subject])
	if err != nil {
		return nil, fmt.Errorf("list subjects: %w", err)
	}
	if subjects == nil {
		subjects = []Subject{}
	}
	return subjects, nil
}

// numericToFloat converts a NUMERIC column to float64. NULL and NaN read as 0.
func numericToFloat(n pgtype.Numeric) float64 {
	if !n.Valid || n.NaN {
		return 0
	}
	f, err := n.Float64Value()
	if err != nil || !f.Valid {
		return 0
	}
	return f.Float64
}
