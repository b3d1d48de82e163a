package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/JonMunkholm/results/internal/core"
)

// GCSConfig configures the Cloud Storage backend.
type GCSConfig struct {
	Bucket          string
	EmulatorHost    string
	CredentialsFile string
}

// GCS stores objects in a Cloud Storage bucket.
type GCS struct {
	client *storage.Client
	bucket string
}

// NewGCS creates a Cloud Storage client. With an emulator host set the client
// talks to the emulator without authentication.
func NewGCS(ctx context.Context, cfg GCSConfig) (*GCS, error) {
	var opts []option.ClientOption
	if host := strings.TrimRight(strings.TrimSpace(cfg.EmulatorHost), "/"); host != "" {
		if err := os.Setenv("STORAGE_EMULATOR_HOST", host); err != nil {
			return nil, fmt.Errorf("set emulator host: %w", err)
		}
		opts = append(opts, option.WithoutAuthentication())
	} else {
		if cfg.CredentialsFile != "" {
			opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
		}
		opts = append(opts, option.WithScopes(storage.ScopeReadWrite))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	slog.Info("gcs storage ready", "bucket", cfg.Bucket, "emulator_host", cfg.EmulatorHost)
	return &GCS{client: client, bucket: cfg.Bucket}, nil
}

// Bucket returns the bucket name.
func (g *GCS) Bucket() string { return g.bucket }

// Close releases the client.
func (g *GCS) Close() error { return g.client.Close() }

// Download opens an object for reading.
func (g *GCS) Download(ctx context.Context, name string) (io.ReadCloser, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	r, err := g.client.Bucket(g.bucket).Object(name).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, fmt.Errorf("%s/%s: %w", g.bucket, name, core.ErrObjectNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s/%s: %w", g.bucket, name, err)
	}
	return r, nil
}

// Upload writes r to name.
func (g *GCS) Upload(ctx context.Context, name string, r io.Reader, mimeType string) (Object, error) {
	if err := ValidateName(name); err != nil {
		return Object{}, err
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := g.client.Bucket(g.bucket).Object(name).NewWriter(ctx)
	if mimeType != "" {
		w.ContentType = mimeType
	}
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return Object{}, fmt.Errorf("write %s/%s: %w", g.bucket, name, err)
	}
	if err := w.Close(); err != nil {
		return Object{}, fmt.Errorf("close %s/%s: %w", g.bucket, name, err)
	}
	return objectFromAttrs(w.Attrs()), nil
}

// List returns every object in the bucket, newest first.
func (g *GCS) List(ctx context.Context) ([]Object, error) {
	it := g.client.Bucket(g.bucket).Objects(ctx, nil)
	objects := []Object{}
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", g.bucket, err)
		}
		objects = append(objects, objectFromAttrs(attrs))
	}
	sortNewestFirst(objects)
	return objects, nil
}

func objectFromAttrs(attrs *storage.ObjectAttrs) Object {
	if attrs == nil {
		return Object{}
	}
	return Object{
		Name:      attrs.Name,
		Size:      attrs.Size,
		MimeType:  attrs.ContentType,
		CreatedAt: attrs.Created,
	}
}
