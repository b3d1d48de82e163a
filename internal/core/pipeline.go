package core

// pipeline.go runs one import: download, parse, then fold over the rows.
//
//	start -> downloading -> parsing -> processing_rows -> done
//	              |            |             |
//	              v            v             v
//	      download_failed  parse_failed   aborted
//
// Rows are processed strictly in file order because later rows reuse
// identities created by earlier ones. A validation rejection skips the row;
// any store error aborts the run. There is no transaction around the batch,
// so rows applied before an abort stay applied.

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/results/internal/logging"
)

// DefaultMaxFileSize caps downloads when no limit is configured.
const DefaultMaxFileSize int64 = 20 << 20

// Pipeline imports uploaded result files into the store.
type Pipeline struct {
	blobs       Downloader
	store       Store
	runs        RunRecorder
	maxFileSize int64
	now         func() time.Time
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithRunRecorder persists a summary of every run.
func WithRunRecorder(r RunRecorder) Option {
	return func(p *Pipeline) { p.runs = r }
}

// WithMaxFileSize caps the number of bytes downloaded per object.
func WithMaxFileSize(n int64) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.maxFileSize = n
		}
	}
}

// NewPipeline creates a Pipeline reading objects from blobs and writing to store.
func NewPipeline(blobs Downloader, store Store, opts ...Option) *Pipeline {
	p := &Pipeline{
		blobs:       blobs,
		store:       store,
		maxFileSize: DefaultMaxFileSize,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// run holds the mutable state of one invocation.
type run struct {
	result   *ImportResult
	resolver *identityResolver
	log      *slog.Logger
	started  time.Time
}

// Run imports one object. The returned result is always non-nil and describes
// how far the run got; the error is non-nil for every terminal phase except done.
func (p *Pipeline) Run(ctx context.Context, obj ObjectRef) (*ImportResult, error) {
	runID := uuid.NewString()
	rn := &run{
		result:   &ImportResult{RunID: runID, Object: obj.Name, Phase: PhaseStart},
		resolver: newIdentityResolver(p.store),
		log:      logging.WithFields(ctx, "run_id", runID, "object", obj.Name),
		started:  p.now(),
	}
	p.recordStart(ctx, rn)

	err := p.execute(ctx, rn, obj)

	rn.result.Duration = p.now().Sub(rn.started)
	if err != nil {
		rn.result.Error = err.Error()
		rn.log.Error("import failed",
			"phase", rn.result.Phase,
			"applied", rn.result.Applied,
			"skipped", rn.result.Skipped,
			"error", err,
		)
	} else {
		rn.log.Info("import completed",
			"format", rn.result.Format,
			"rows", rn.result.TotalRows,
			"applied", rn.result.Applied,
			"skipped", rn.result.Skipped,
			"students_created", rn.result.StudentsCreated,
			"semesters_created", rn.result.SemestersCreated,
			"duration_ms", rn.result.Duration.Milliseconds(),
		)
	}
	p.recordFinish(ctx, rn)

	return rn.result, err
}

func (p *Pipeline) execute(ctx context.Context, rn *run, obj ObjectRef) error {
	rn.result.Phase = PhaseDownloading
	data, err := p.download(ctx, obj.Name)
	if err != nil {
		rn.result.Phase = PhaseDownloadFailed
		return err
	}

	rn.result.Phase = PhaseParsing
	table, err := ParseRows(obj.Name, data)
	if err != nil {
		rn.result.Phase = PhaseParseFailed
		return err
	}
	rn.result.Format = table.Format
	rn.result.TotalRows = len(table.Rows)
	if table.Fallback {
		rn.log.Warn("unrecognized file extension, decoded as spreadsheet", "format", table.Format)
	}
	if missing := MissingColumns(table.Header); len(missing) > 0 {
		rn.log.Warn("header is missing expected columns", "missing", missing)
	}

	rn.result.Phase = PhaseProcessingRows
	for _, pr := range table.Rows {
		if err := p.applyRow(ctx, rn, pr); err != nil {
			rn.result.Phase = PhaseAborted
			return fmt.Errorf("line %d: %w", pr.Line, err)
		}
	}

	rn.result.Phase = PhaseDone
	return nil
}

// download reads the whole object, refusing anything over the size limit.
func (p *Pipeline) download(ctx context.Context, name string) ([]byte, error) {
	rc, err := p.blobs.Download(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrDownload, name, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, p.maxFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrDownload, name, err)
	}
	if int64(len(data)) > p.maxFileSize {
		return nil, fmt.Errorf("%w: %s: %w (limit %d bytes)", ErrDownload, name, ErrFileTooLarge, p.maxFileSize)
	}
	return data, nil
}

// applyRow validates one row and writes its student, semester and subject.
// A rejection is recorded and swallowed; any other error is fatal for the run.
func (p *Pipeline) applyRow(ctx context.Context, rn *run, pr ParsedRow) error {
	rec, err := NormalizeRow(pr.Row)
	if err != nil {
		var rej *RowRejection
		if !errors.As(err, &rej) {
			return err
		}
		rn.result.Skipped++
		rn.result.SkippedRows = append(rn.result.SkippedRows, SkippedRow{Line: pr.Line, Reason: rej.Error()})
		rn.log.Warn("skipping invalid row", "line", pr.Line, "fields", rej.Fields())
		return nil
	}

	studentID, created, err := rn.resolver.Student(ctx, rec)
	if err != nil {
		return err
	}
	if created {
		rn.result.StudentsCreated++
	}

	semesterID, created, err := rn.resolver.Semester(ctx, studentID, rec)
	if err != nil {
		return err
	}
	if created {
		rn.result.SemestersCreated++
	}

	_, err = p.store.InsertSubject(ctx, NewSubject{
		SemesterID:  semesterID,
		SubjectCode: rec.SubjectCode,
		SubjectName: rec.SubjectName,
		Grade:       rec.Grade,
	})
	if err != nil {
		return fmt.Errorf("%w: insert subject %q for %q: %w", ErrStore, rec.SubjectCode, rec.RollNo, err)
	}
	rn.result.SubjectsCreated++
	rn.result.Applied++

	rn.log.Debug("row applied",
		"line", pr.Line,
		"roll_no", rec.RollNo,
		"semester", rec.SemesterNumber,
		"subject", rec.SubjectCode,
	)
	return nil
}

func (p *Pipeline) recordStart(ctx context.Context, rn *run) {
	if p.runs == nil {
		return
	}
	if err := p.runs.StartRun(ctx, rn.summary(nil)); err != nil {
		rn.log.Warn("failed to record import start", "error", err)
	}
}

func (p *Pipeline) recordFinish(ctx context.Context, rn *run) {
	if p.runs == nil {
		return
	}
	finished := rn.started.Add(rn.result.Duration)
	// History is written even when the run's context is already cancelled.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := p.runs.FinishRun(ctx, rn.summary(&finished)); err != nil {
		rn.log.Warn("failed to record import finish", "error", err)
	}
}

func (rn *run) summary(finished *time.Time) ImportRun {
	return ImportRun{
		ID:         rn.result.RunID,
		Object:     rn.result.Object,
		Format:     rn.result.Format,
		Phase:      rn.result.Phase,
		TotalRows:  rn.result.TotalRows,
		Applied:    rn.result.Applied,
		Skipped:    rn.result.Skipped,
		Error:      rn.result.Error,
		StartedAt:  rn.started,
		FinishedAt: finished,
	}
}
