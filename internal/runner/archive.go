package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"time"

	"ddfmonitor/internal/store"

	"cloud.google.com/go/storage"
)

// ErrNothingToUpload is returned when a field has no output directory contents.
var ErrNothingToUpload = errors.New("nothing to upload")

// ObjectWriter opens a writer for a named object in a bucket.
type ObjectWriter interface {
	NewWriter(ctx context.Context, name string) io.WriteCloser
}

type gcsBucket struct {
	bucket *storage.BucketHandle
}

func (b gcsBucket) NewWriter(ctx context.Context, name string) io.WriteCloser {
	return b.bucket.Object(name).NewWriter(ctx)
}

// ArchiveUploader copies a field's output directory (<baseDir>/<field>) into
// object storage and marks the field Archived once every file is stored.
type ArchiveUploader struct {
	bucket ObjectWriter
	prefix string
	status store.StatusWriter
	logger *slog.Logger
	close  func() error
}

// NewGCSUploader creates an uploader backed by a Google Cloud Storage bucket.
func NewGCSUploader(ctx context.Context, bucketName, prefix string, status store.StatusWriter, logger *slog.Logger) (*ArchiveUploader, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	u := NewArchiveUploader(gcsBucket{bucket: client.Bucket(bucketName)}, prefix, status, logger)
	u.close = client.Close
	return u, nil
}

// NewArchiveUploader creates an uploader on any ObjectWriter.
func NewArchiveUploader(bucket ObjectWriter, prefix string, status store.StatusWriter, logger *slog.Logger) *ArchiveUploader {
	if logger == nil {
		logger = slog.Default()
	}
	return &ArchiveUploader{
		bucket: bucket,
		prefix: prefix,
		status: status,
		logger: logger.With("runner", "upload"),
	}
}

// Run uploads every regular file below <baseDir>/<fieldID>.
func (u *ArchiveUploader) Run(ctx context.Context, fieldID, baseDir string) error {
	root := filepath.Join(baseDir, fieldID)

	uploaded := 0
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		name := ObjectName(u.prefix, fieldID, rel)
		if err := u.uploadFile(ctx, p, name); err != nil {
			return err
		}
		uploaded++
		return nil
	})
	if err != nil {
		return fmt.Errorf("upload of %s failed: %w", fieldID, err)
	}
	if uploaded == 0 {
		return fmt.Errorf("upload of %s: %w", fieldID, ErrNothingToUpload)
	}

	u.logger.Info("field archived", "field_id", fieldID, "files", uploaded)

	if err := u.status.UpdateStatus(ctx, fieldID, store.StatusArchived); err != nil {
		return fmt.Errorf("failed to mark %s archived: %w", fieldID, err)
	}
	return nil
}

func (u *ArchiveUploader) uploadFile(ctx context.Context, localPath, name string) error {
	f, err := os.Open(localPath)
	if err != nil {
		return err
	}
	defer f.Close()

	w := u.bucket.NewWriter(ctx, name)
	if _, err := io.Copy(w, f); err != nil {
		w.Close()
		return fmt.Errorf("failed to stream %s: %w", name, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to finalize %s: %w", name, err)
	}
	return nil
}

// Close releases the storage client, if any.
func (u *ArchiveUploader) Close() error {
	if u.close != nil {
		return u.close()
	}
	return nil
}

// ObjectName builds the object key for a file relative to a field's directory.
func ObjectName(prefix, fieldID, rel string) string {
	return path.Join(prefix, fieldID, filepath.ToSlash(rel))
}
