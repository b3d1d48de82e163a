// Package blob stores uploaded result files. The pipeline only reads from it;
// the admin upload endpoint writes to it and lists it.
package blob

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/JonMunkholm/results/internal/config"
	"github.com/JonMunkholm/results/internal/core"
)

// Object describes one stored file.
type Object struct {
	Name      string    `json:"name"`
	Size      int64     `json:"size"`
	MimeType  string    `json:"mime_type,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Store is a bucket of uploaded files.
type Store interface {
	core.Downloader
	Upload(ctx context.Context, name string, r io.Reader, mimeType string) (Object, error)
	// List returns every object, newest first.
	List(ctx context.Context) ([]Object, error)
	Bucket() string
	Close() error
}

// Open builds the backend selected by cfg.Backend.
func Open(ctx context.Context, cfg config.StorageConfig) (Store, error) {
	switch cfg.Backend {
	case "local":
		return NewLocal(cfg.LocalDir, cfg.Bucket)
	case "gcs":
		return NewGCS(ctx, GCSConfig{
			Bucket:          cfg.Bucket,
			EmulatorHost:    cfg.GCSEmulatorHost,
			CredentialsFile: cfg.GCSCredentialsFile,
		})
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

// ValidateName rejects object names that could escape the bucket.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("object name is empty")
	}
	if strings.ContainsAny(name, "\\\x00") || strings.HasPrefix(name, "/") {
		return fmt.Errorf("invalid object name %q", name)
	}
	if clean := path.Clean(name); clean != name || clean == "." || clean == ".." || strings.HasPrefix(clean, "../") {
		return fmt.Errorf("invalid object name %q", name)
	}
	return nil
}

// UploadName builds the stored name for an admin upload: "<unix-ms>-<base name>".
func UploadName(original string, now time.Time) string {
	base := path.Base(strings.ReplaceAll(original, "\\", "/"))
	base = strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, base)
	if base == "" || base == "." || base == "/" || base == ".." {
		base = "upload"
	}
	return fmt.Sprintf("%d-%s", now.UnixMilli(), base)
}
