package core

import (
	"context"
	"fmt"
)

// semesterKey is the composite natural key of a semester.
type semesterKey struct {
	studentID string
	number    int
}

// identityResolver resolves or creates the student and semester for each row.
//
// Its caches live for exactly one run. They are not safe for concurrent use
// and must never be shared between runs: another run may be creating the same
// roll number right now, and only the store can arbitrate that.
type identityResolver struct {
	store     Store
	students  map[string]string
	semesters map[semesterKey]int64
}

func newIdentityResolver(store Store) *identityResolver {
	return &identityResolver{
		store:     store,
		students:  make(map[string]string),
		semesters: make(map[semesterKey]int64),
	}
}

// Student returns the id for rec.RollNo, creating the student on first sight.
// An existing student's name and course are never updated.
func (r *identityResolver) Student(ctx context.Context, rec ResultRecord) (id string, created bool, err error) {
	if id, ok := r.students[rec.RollNo]; ok {
		return id, false, nil
	}

	id, found, err := r.store.FindStudentByRollNo(ctx, rec.RollNo)
	if err != nil {
		return "", false, fmt.Errorf("%w: find student %q: %w", ErrStore, rec.RollNo, err)
	}
	if !found {
		id, err = r.store.CreateStudent(ctx, NewStudent{
			RollNo: rec.RollNo,
			Name:   rec.Name,
			Course: rec.Course,
		})
		if err != nil {
			return "", false, fmt.Errorf("%w: create student %q: %w", ErrStore, rec.RollNo, err)
		}
		created = true
	}

	r.students[rec.RollNo] = id
	return id, created, nil
}

// Semester returns the id for (studentID, rec.SemesterNumber), creating it on
// first sight with the row's gpa and credits. The first write wins: an
// existing semester keeps its gpa and credits whatever later rows say.
func (r *identityResolver) Semester(ctx context.Context, studentID string, rec ResultRecord) (id int64, created bool, err error) {
	key := semesterKey{studentID: studentID, number: rec.SemesterNumber}
	if id, ok := r.semesters[key]; ok {
		return id, false, nil
	}

	id, found, err := r.store.FindSemester(ctx, studentID, rec.SemesterNumber)
	if err != nil {
		return 0, false, fmt.Errorf("%w: find semester %d for %q: %w", ErrStore, rec.SemesterNumber, rec.RollNo, err)
	}
	if !found {
		id, err = r.store.CreateSemester(ctx, NewSemester{
			StudentID:      studentID,
			SemesterNumber: rec.SemesterNumber,
			GPA:            rec.GPA,
			CreditsEarned:  rec.CreditsEarned,
		})
		if err != nil {
			return 0, false, fmt.Errorf("%w: create semester %d for %q: %w", ErrStore, rec.SemesterNumber, rec.RollNo, err)
		}
		created = true
	}

	r.semesters[key] = id
	return id, created, nil
}
