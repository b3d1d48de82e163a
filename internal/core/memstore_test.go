package core

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
)

// memStore is an in-memory Store enforcing the same uniqueness constraints as
// the PostgreSQL schema. failOn injects an error into a named operation.
type memStore struct {
	mu sync.Mutex

	students  map[string]memStudent // by id
	semesters map[int64]memSemester
	subjects  []NewSubject

	nextStudent  int
	nextSemester int64
	nextSubject  int64

	calls  map[string]int
	failOn map[string]error
	// findMiss forces FindStudentByRollNo to miss, simulating a concurrent creator.
	findMiss bool
}

type memStudent struct {
	NewStudent
	ID string
}

type memSemester struct {
	NewSemester
	ID int64
}

func newMemStore() *memStore {
	return &memStore{
		students:  make(map[string]memStudent),
		semesters: make(map[int64]memSemester),
		calls:     make(map[string]int),
		failOn:    make(map[string]error),
	}
}

func (m *memStore) hit(op string) error {
	m.calls[op]++
	return m.failOn[op]
}

func (m *memStore) FindStudentByRollNo(_ context.Context, rollNo string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.hit("FindStudentByRollNo"); err != nil {
		return "", false, err
	}
	if m.findMiss {
		return "", false, nil
	}
	for _, s := range m.students {
		if s.RollNo == rollNo {
			return s.ID, true, nil
		}
	}
	return "", false, nil
}

func (m *memStore) CreateStudent(_ context.Context, s NewStudent) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.hit("CreateStudent"); err != nil {
		return "", err
	}
	for _, existing := range m.students {
		if existing.RollNo == s.RollNo {
			return "", fmt.Errorf("students_roll_no_key: %w", ErrDuplicate)
		}
	}
	m.nextStudent++
	id := fmt.Sprintf("student-%d", m.nextStudent)
	m.students[id] = memStudent{NewStudent: s, ID: id}
	return id, nil
}

func (m *memStore) FindSemester(_ context.Context, studentID string, number int) (int64, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.hit("FindSemester"); err != nil {
		return 0, false, err
	}
	for _, s := range m.semesters {
		if s.StudentID == studentID && s.SemesterNumber == number {
			return s.ID, true, nil
		}
	}
	return 0, false, nil
}

func (m *memStore) CreateSemester(_ context.Context, s NewSemester) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.hit("CreateSemester"); err != nil {
		return 0, err
	}
	if _, ok := m.students[s.StudentID]; !ok {
		return 0, errors.New("violates foreign key constraint semesters_student_id_fkey")
	}
	for _, existing := range m.semesters {
		if existing.StudentID == s.StudentID && existing.SemesterNumber == s.SemesterNumber {
			return 0, fmt.Errorf("semesters_student_id_semester_number_key: %w", ErrDuplicate)
		}
	}
	m.nextSemester++
	m.semesters[m.nextSemester] = memSemester{NewSemester: s, ID: m.nextSemester}
	return m.nextSemester, nil
}

func (m *memStore) InsertSubject(_ context.Context, s NewSubject) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.hit("InsertSubject"); err != nil {
		return 0, err
	}
	if _, ok := m.semesters[s.SemesterID]; !ok {
		return 0, errors.New("violates foreign key constraint subjects_semester_id_fkey")
	}
	m.nextSubject++
	m.subjects = append(m.subjects, s)
	return m.nextSubject, nil
}

func (m *memStore) studentByRoll(rollNo string) (memStudent, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.students {
		if s.RollNo == rollNo {
			return s, true
		}
	}
	return memStudent{}, false
}

func (m *memStore) semesterFor(studentID string, number int) (memSemester, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.semesters {
		if s.StudentID == studentID && s.SemesterNumber == number {
			return s, true
		}
	}
	return memSemester{}, false
}

func (m *memStore) counts() (students, semesters, subjects int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.students), len(m.semesters), len(m.subjects)
}

// memBlobs serves objects from a map.
type memBlobs struct {
	objects map[string][]byte
	err     error
	calls   int
}

func (b *memBlobs) Download(_ context.Context, name string) (io.ReadCloser, error) {
	b.calls++
	if b.err != nil {
		return nil, b.err
	}
	data, ok := b.objects[name]
	if !ok {
		return nil, fmt.Errorf("%s: %w", name, ErrObjectNotFound)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

// memRuns records run history calls.
type memRuns struct {
	mu       sync.Mutex
	started  []ImportRun
	finished []ImportRun
	err      error
}

func (r *memRuns) StartRun(_ context.Context, run ImportRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.started = append(r.started, run)
	return r.err
}

func (r *memRuns) FinishRun(_ context.Context, run ImportRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finished = append(r.finished, run)
	return r.err
}
