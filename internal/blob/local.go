package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"mime"
	"os"
	"path/filepath"
	"sort"

	"github.com/JonMunkholm/results/internal/core"
)

// Local keeps objects as files under <root>/<bucket>.
type Local struct {
	bucket string
	dir    string
}

// NewLocal creates the bucket directory if needed.
func NewLocal(root, bucket string) (*Local, error) {
	dir := filepath.Join(root, bucket)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage directory %s: %w", dir, err)
	}
	slog.Info("local storage ready", "dir", dir, "bucket", bucket)
	return &Local{bucket: bucket, dir: dir}, nil
}

// Bucket returns the bucket name.
func (l *Local) Bucket() string { return l.bucket }

// Close is a no-op.
func (l *Local) Close() error { return nil }

func (l *Local) path(name string) (string, error) {
	if err := ValidateName(name); err != nil {
		return "", err
	}
	return filepath.Join(l.dir, filepath.FromSlash(name)), nil
}

// Download opens an object for reading.
func (l *Local) Download(_ context.Context, name string) (io.ReadCloser, error) {
	p, err := l.path(name)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s/%s: %w", l.bucket, name, core.ErrObjectNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s/%s: %w", l.bucket, name, err)
	}
	return f, nil
}

// Upload writes r to name, replacing any existing object. The write goes to a
// temporary file first so readers never see a partial object.
func (l *Local) Upload(ctx context.Context, name string, r io.Reader, mimeType string) (Object, error) {
	p, err := l.path(name)
	if err != nil {
		return Object{}, err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return Object{}, fmt.Errorf("create directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(p), ".upload-*")
	if err != nil {
		return Object{}, fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	size, err := io.Copy(tmp, contextReader{ctx: ctx, r: r})
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return Object{}, fmt.Errorf("write %s/%s: %w", l.bucket, name, err)
	}
	if err := os.Rename(tmp.Name(), p); err != nil {
		return Object{}, fmt.Errorf("commit %s/%s: %w", l.bucket, name, err)
	}

	info, err := os.Stat(p)
	if err != nil {
		return Object{}, fmt.Errorf("stat %s/%s: %w", l.bucket, name, err)
	}
	if mimeType == "" {
		mimeType = mime.TypeByExtension(filepath.Ext(name))
	}
	return Object{Name: name, Size: size, MimeType: mimeType, CreatedAt: info.ModTime()}, nil
}

// List walks the bucket directory. Temporary upload files are skipped.
func (l *Local) List(ctx context.Context) ([]Object, error) {
	objects := []Object{}
	err := filepath.WalkDir(l.dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() || filepath.Base(p)[0] == '.' {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(l.dir, p)
		if err != nil {
			return err
		}
		objects = append(objects, Object{
			Name:      filepath.ToSlash(rel),
			Size:      info.Size(),
			MimeType:  mime.TypeByExtension(filepath.Ext(p)),
			CreatedAt: info.ModTime(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", l.bucket, err)
	}
	sortNewestFirst(objects)
	return objects, nil
}

func sortNewestFirst(objects []Object) {
	sort.SliceStable(objects, func(i, j int) bool {
		if !objects[i].CreatedAt.Equal(objects[j].CreatedAt) {
			return objects[i].CreatedAt.After(objects[j].CreatedAt)
		}
		return objects[i].Name > objects[j].Name
	})
}

// contextReader stops a copy once ctx is cancelled.
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
