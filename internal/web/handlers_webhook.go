package web

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/JonMunkholm/results/internal/core"
	"github.com/JonMunkholm/results/internal/logging"
)

// maxWebhookBody bounds the notification payload; it only names an object.
const maxWebhookBody = 64 << 10

const invalidPayloadMessage = "Invalid payload or bucket"

// storageNotification is the storage-change event posted when an object is created.
type storageNotification struct {
	Type   string         `json:"type"`
	Table  string         `json:"table"`
	Record *storageRecord `json:"record"`
}

type storageRecord struct {
	BucketID string `json:"bucket_id"`
	Name     string `json:"name"`
	Size     objectSize `json:"size,omitempty"`
	MimeType string     `json:"mime_type,omitempty"`
}

// objectSize is the advisory byte count of a notification. Any JSON number
// or numeric string is accepted; anything else reads as unknown (0).
type objectSize int64

func (s *objectSize) UnmarshalJSON(b []byte) error {
	*s = 0
	raw := strings.Trim(strings.TrimSpace(string(b)), `"`)
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || f < 0 || f >= math.MaxInt64 {
		return nil
	}
	*s = objectSize(f)
	return nil
}

// importResponse is the body returned for an import run.
type importResponse struct {
	OK       bool   `json:"ok"`
	Inserted bool   `json:"inserted,omitempty"`
	Error    string `json:"error,omitempty"`
	Code     string `json:"code,omitempty"`

	RunID            string            `json:"run_id,omitempty"`
	Object           string            `json:"object,omitempty"`
	Format           core.Format       `json:"format,omitempty"`
	Phase            core.ImportPhase  `json:"phase,omitempty"`
	TotalRows        int               `json:"total_rows"`
	Applied          int               `json:"applied"`
	Skipped          int               `json:"skipped"`
	StudentsCreated  int               `json:"students_created"`
	SemestersCreated int               `json:"semesters_created"`
	SubjectsCreated  int               `json:"subjects_created"`
	SkippedRows      []core.SkippedRow `json:"skipped_rows,omitempty"`
}

func newImportResponse(res *core.ImportResult) importResponse {
	resp := importResponse{OK: true, Inserted: true}
	if res == nil {
		return resp
	}
	resp.RunID = res.RunID
	resp.Object = res.Object
	resp.Format = res.Format
	resp.Phase = res.Phase
	resp.TotalRows = res.TotalRows
	resp.Applied = res.Applied
	resp.Skipped = res.Skipped
	resp.StudentsCreated = res.StudentsCreated
	resp.SemestersCreated = res.SemestersCreated
	resp.SubjectsCreated = res.SubjectsCreated
	resp.SkippedRows = res.SkippedRows
	return resp
}

// handleStorageWebhook imports the object named by a storage notification.
//
//	POST /webhooks/storage
//	{"type":"INSERT","table":"objects","record":{"bucket_id":"result-uploads","name":"results.csv"}}
//
// Notifications for other buckets are rejected before any store access.
func (s *Server) handleStorageWebhook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	var n storageNotification
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err := dec.Decode(&n); err != nil || n.Record == nil ||
		n.Record.BucketID != s.cfg.Storage.Bucket || n.Record.Name == "" {
		logging.FromContext(r.Context()).Warn("rejected storage notification",
			"decode_error", err,
			"has_record", n.Record != nil,
		)
		writeError(w, http.StatusBadRequest, invalidPayloadMessage)
		return
	}

	ref := core.ObjectRef{
		Bucket:   n.Record.BucketID,
		Name:     n.Record.Name,
		Size:     int64(n.Record.Size),
		MimeType: n.Record.MimeType,
	}
	s.respondImport(w, r, ref)
}

// respondImport runs an import and writes its outcome.
func (s *Server) respondImport(w http.ResponseWriter, r *http.Request, ref core.ObjectRef) {
	res, err := s.runImport(r.Context(), ref)
	if err == nil {
		writeJSON(w, http.StatusOK, newImportResponse(res))
		return
	}

	status := http.StatusInternalServerError
	if errors.Is(err, core.ErrTooManyImports) {
		status = http.StatusServiceUnavailable
		w.Header().Set("Retry-After", "30")
	}

	msg := core.MapError(err)
	logging.FromContext(r.Context()).Error("import request failed",
		"object", ref.Name,
		"status", status,
		"code", msg.Code,
		"error", err,
	)

	resp := importResponse{OK: false, Error: msg.Message, Code: msg.Code}
	if res != nil {
		resp = newImportResponse(res)
		resp.OK, resp.Inserted = false, false
		resp.Error, resp.Code = msg.Message, msg.Code
	}
	writeJSON(w, status, resp)
}

// runImport takes an import slot and runs the pipeline. The run ignores
// request cancellation and is bounded by IMPORT_TIMEOUT instead.
func (s *Server) runImport(ctx context.Context, ref core.ObjectRef) (*core.ImportResult, error) {
	if s.deps.Limiter != nil {
		if err := s.deps.Limiter.Acquire(ctx); err != nil {
			return nil, err
		}
		defer s.deps.Limiter.Release()
	}

	runCtx := context.WithoutCancel(ctx)
	if s.cfg.Import.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(runCtx, s.cfg.Import.Timeout)
		defer cancel()
	}
	return s.deps.Importer.Run(runCtx, ref)
}
