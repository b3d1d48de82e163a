package web

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/JonMunkholm/results/internal/blob"
	"github.com/JonMunkholm/results/internal/core"
	"github.com/JonMunkholm/results/internal/logging"
)

// multipartOverhead is allowed on top of the file size limit for form framing.
const multipartOverhead = 1 << 20

// handleListUploads lists the upload bucket, newest first.
func (s *Server) handleListUploads(w http.ResponseWriter, r *http.Request) {
	objects, err := s.deps.Blobs.List(r.Context())
	if err != nil {
		respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"bucket": s.deps.Blobs.Bucket(), "objects": objects})
}

// handleUpload stores a multipart "file" as <unix-ms>-<name> and imports it
// before responding, unless bucket notifications are on.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	maxSize := s.cfg.Import.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize+multipartOverhead)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "file too large")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "no file provided")
		return
	}
	defer file.Close()

	if header.Size > maxSize {
		writeError(w, http.StatusRequestEntityTooLarge, "file too large")
		return
	}
	if _, known := core.DetectFormat(header.Filename); !known {
		logging.FromContext(r.Context()).Warn("upload has unrecognized extension", "filename", header.Filename)
	}

	name := blob.UploadName(header.Filename, time.Now())
	obj, err := s.deps.Blobs.Upload(r.Context(), name, file, header.Header.Get("Content-Type"))
	if err != nil {
		respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	logging.FromContext(r.Context()).Info("file uploaded", "object", obj.Name, "size", obj.Size)

	// The bucket's own notification triggers the import.
	if s.cfg.Storage.Notifications {
		writeJSON(w, http.StatusAccepted, map[string]any{"ok": true, "object": obj})
		return
	}

	s.respondImport(w, r, core.ObjectRef{
		Bucket:   s.deps.Blobs.Bucket(),
		Name:     obj.Name,
		Size:     obj.Size,
		MimeType: obj.MimeType,
	})
}

// handleListImports returns recent import runs, newest first.
func (s *Server) handleListImports(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 500 {
			writeError(w, http.StatusBadRequest, "limit must be between 1 and 500")
			return
		}
		limit = n
	}

	runs, err := s.deps.Runs.ListImportRuns(r.Context(), limit)
	if err != nil {
		respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": runs})
}
