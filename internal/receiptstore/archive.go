package receiptstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
)

const uploadTimeout = 2 * time.Minute

// Archive stores raw receipt bytes in a GCS bucket so that audits and
// analytical backfills have the source artifact. Archival is best effort:
// callers log failures and move on.
type Archive struct {
	client *storage.Client
	bucket string
}

// NewArchive creates an archive over the given bucket with a shared storage
// client. It assumes Application Default Credentials are configured.
func NewArchive(ctx context.Context, bucket string) (*Archive, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("NewArchive: create storage client: %w", err)
	}
	return &Archive{client: client, bucket: bucket}, nil
}

// Close releases the storage client.
func (a *Archive) Close() error {
	if a.client != nil {
		return a.client.Close()
	}
	return nil
}

// ArchiveReceipt uploads the receipt bytes under receipts/{user_id}/{uuid}{ext}
// and returns the resulting gs:// URI.
func (a *Archive) ArchiveReceipt(ctx context.Context, userID string, content []byte, mimeType string) (string, error) {
	objectName := fmt.Sprintf("receipts/%s/%s%s", userID, uuid.NewString(), extensionFor(mimeType))

	ctx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()

	w := a.client.Bucket(a.bucket).Object(objectName).NewWriter(ctx)
	w.ContentType = mimeType

	if _, err := io.Copy(w, bytes.NewReader(content)); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("ArchiveReceipt: copy to GCS writer: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("ArchiveReceipt: finalize upload: %w", err)
	}

	return fmt.Sprintf("gs://%s/%s", a.bucket, objectName), nil
}

func extensionFor(mimeType string) string {
	switch mimeType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "application/pdf":
		return ".pdf"
	default:
		return ""
	}
}
