package core

import (
	"context"
	"io"
	"time"
)

// Row is one parsed record before validation: column name to raw cell text.
// Extra columns are carried along and ignored; missing columns read as "".
type Row map[string]string

// Columns is the expected tabular schema, in template order. Names are case-sensitive.
var Columns = []string{
	"roll_no",
	"name",
	"course",
	"semester_number",
	"gpa",
	"credits_earned",
	"subject_code",
	"subject_name",
	"grade",
}

// Format identifies how an uploaded object was decoded.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
	FormatXLS  Format = "xls"
)

// ResultRecord is a validated, normalized row.
type ResultRecord struct {
	RollNo         string
	Name           string
	Course         string
	SemesterNumber int
	GPA            float64
	CreditsEarned  float64
	SubjectCode    string
	SubjectName    string
	Grade          string
}

// NewStudent holds the attributes written when a roll number is first seen.
type NewStudent struct {
	RollNo string
	Name   string
	Course string
}

// NewSemester holds the attributes written when a (student, semester) pair is first seen.
type NewSemester struct {
	StudentID      string
	SemesterNumber int
	GPA            float64
	CreditsEarned  float64
}

// NewSubject is one subject line appended under a semester.
type NewSubject struct {
	SemesterID  int64
	SubjectCode string
	SubjectName string
	Grade       string
}

// Store is the durable store the pipeline reads from and writes to.
//
// Implementations must enforce uniqueness of students.roll_no and of
// semesters(student_id, semester_number), and report a violation as an
// error wrapping ErrDuplicate.
type Store interface {
	FindStudentByRollNo(ctx context.Context, rollNo string) (id string, found bool, err error)
	CreateStudent(ctx context.Context, s NewStudent) (string, error)
	FindSemester(ctx context.Context, studentID string, number int) (id int64, found bool, err error)
	CreateSemester(ctx context.Context, s NewSemester) (int64, error)
	InsertSubject(ctx context.Context, s NewSubject) (int64, error)
}

// Downloader fetches uploaded objects by name from the blob store.
// A missing object is reported as an error wrapping ErrObjectNotFound.
type Downloader interface {
	Download(ctx context.Context, name string) (io.ReadCloser, error)
}

// RunRecorder persists import run history. Failures are logged, never fatal.
type RunRecorder interface {
	StartRun(ctx context.Context, run ImportRun) error
	FinishRun(ctx context.Context, run ImportRun) error
}

// ObjectRef names the uploaded object an import run reads.
type ObjectRef struct {
	Bucket   string
	Name     string
	Size     int64
	MimeType string
}

// ImportPhase is a state of the import state machine.
type ImportPhase string

const (
	PhaseStart          ImportPhase = "start"
	PhaseDownloading    ImportPhase = "downloading"
	PhaseDownloadFailed ImportPhase = "download_failed"
	PhaseParsing        ImportPhase = "parsing"
	PhaseParseFailed    ImportPhase = "parse_failed"
	PhaseProcessingRows ImportPhase = "processing_rows"
	PhaseDone           ImportPhase = "done"
	PhaseAborted        ImportPhase = "aborted"
)

// Terminal reports whether no further transition can happen from p.
func (p ImportPhase) Terminal() bool {
	switch p {
	case PhaseDownloadFailed, PhaseParseFailed, PhaseDone, PhaseAborted:
		return true
	}
	return false
}

// SkippedRow describes a row rejected by validation.
type SkippedRow struct {
	Line   int    `json:"line"`
	Reason string `json:"reason"`
}

// ImportResult is the outcome of one pipeline run.
type ImportResult struct {
	RunID            string        `json:"run_id"`
	Object           string        `json:"object"`
	Format           Format        `json:"format,omitempty"`
	Phase            ImportPhase   `json:"phase"`
	TotalRows        int           `json:"total_rows"`
	Applied          int           `json:"applied"`
	Skipped          int           `json:"skipped"`
	StudentsCreated  int           `json:"students_created"`
	SemestersCreated int           `json:"semesters_created"`
	SubjectsCreated  int           `json:"subjects_created"`
	SkippedRows      []SkippedRow  `json:"skipped_rows,omitempty"`
	Duration         time.Duration `json:"duration_ns"`
	Error            string        `json:"error,omitempty"`
}

// OK reports whether the run finished without a fatal error.
func (r *ImportResult) OK() bool {
	return r.Phase == PhaseDone
}

// ImportRun is the persisted summary of a run.
type ImportRun struct {
	ID         string      `json:"id"`
	Object     string      `json:"object"`
	Format     Format      `json:"format,omitempty"`
	Phase      ImportPhase `json:"phase"`
	TotalRows  int         `json:"total_rows"`
	Applied    int         `json:"applied"`
	Skipped    int         `json:"skipped"`
	Error      string      `json:"error,omitempty"`
	StartedAt  time.Time   `json:"started_at"`
	FinishedAt *time.Time  `json:"finished_at,omitempty"`
}
