package artifact

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// UploadFile uploads a local artifact to a GCS bucket under the given object
// name. It assumes Application Default Credentials are configured
// (gcloud auth application-default login).
func UploadFile(ctx context.Context, bucketName, objectName, filePath string, opts ...option.ClientOption) error {
	f, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("open file %q: %w", filePath, err)
	}
	defer f.Close()

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return fmt.Errorf("create storage client: %w", err)
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := client.Bucket(bucketName).Object(objectName).NewWriter(ctx)
	w.ContentType = "text/csv"

	if _, err := io.Copy(w, f); err != nil {
		_ = w.Close()
		return fmt.Errorf("copy file to GCS writer: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("finalize upload: %w", err)
	}
	return nil
}

// MirrorRun uploads the named artifacts to the bucket under a per-run prefix.
// Missing files are skipped; the local copies are the source of truth.
func (s *Store) MirrorRun(ctx context.Context, bucketName, runPrefix string, names ...string) error {
	for _, name := range names {
		path := s.Path(name)
		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue
		}
		object := runPrefix + "/" + name
		if err := UploadFile(ctx, bucketName, object, path); err != nil {
			return fmt.Errorf("mirror %s: %w", name, err)
		}
	}
	return nil
}
