package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/JonMunkholm/results/internal/core"
)

const (
	findStudentSQL = `SELECT id::text FROM students WHERE roll_no = $1`

	createStudentSQL = `
INSERT INTO students (roll_no, name, course)
VALUES ($1, $2, $3)
RETURNING id::text`

	findSemesterSQL = `
SELECT id FROM semesters
WHERE student_id = $1::uuid AND semester_number = $2`

	createSemesterSQL = `
INSERT INTO semesters (student_id, semester_number, gpa, credits_earned)
VALUES ($1::uuid, $2, $3, $4)
RETURNING id`

	insertSubjectSQL = `
INSERT INTO subjects (semester_id, subject_code, subject_name, grade)
VALUES ($1, $2, $3, $4)
RETURNING id`
)

var _ core.Store = (*Store)(nil)

// FindStudentByRollNo looks up a student by roll number.
func (s *Store) FindStudentByRollNo(ctx context.Context, rollNo string) (string, bool, error) {
	var id string
	err := s.db.QueryRow(ctx, findStudentSQL, rollNo).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("find student: %w", err)
	}
	return id, true, nil
}

// CreateStudent inserts a student. A concurrent insert of the same roll number
// fails with core.ErrDuplicate; it is never upserted.
func (s *Store) CreateStudent(ctx context.Context, st core.NewStudent) (string, error) {
	var id string
	err := s.db.QueryRow(ctx, createStudentSQL, st.RollNo, st.Name, st.Course).Scan(&id)
	if err != nil {
		return "", mapWriteError("create student", err)
	}
	return id, nil
}

// FindSemester looks up a semester by its (student, number) key.
func (s *Store) FindSemester(ctx context.Context, studentID string, number int) (int64, bool, error) {
	var id int64
	err := s.db.QueryRow(ctx, findSemesterSQL, studentID, number).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("find semester: %w", err)
	}
	return id, true, nil
}

// CreateSemester inserts a semester with its gpa and credits.
func (s *Store) CreateSemester(ctx context.Context, sem core.NewSemester) (int64, error) {
	var id int64
	err := s.db.QueryRow(ctx, createSemesterSQL,
		sem.StudentID,
		sem.SemesterNumber,
		sem.GPA,
		sem.CreditsEarned,
	).Scan(&id)
	if err != nil {
		return 0, mapWriteError("create semester", err)
	}
	return id, nil
}

// InsertSubject appends a subject line. Subjects have no natural key, so
// importing the same file twice stores every subject twice.
func (s *Store) InsertSubject(ctx context.Context, sub core.NewSubject) (int64, error) {
	var id int64
	err := s.db.QueryRow(ctx, insertSubjectSQL,
		sub.SemesterID,
		sub.SubjectCode,
		sub.SubjectName,
		sub.Grade,
	).Scan(&id)
	if err != nil {
		return 0, mapWriteError("insert subject", err)
	}
	return id, nil
}
