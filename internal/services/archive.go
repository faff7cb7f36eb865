package services

import (
	"context"

	"cloud.google.com/go/storage"
	"github.com/GopalDesai123/billscan/internal/gcp"
)

// TextArchive keeps the raw OCR text of every processed bill in a GCS bucket
// for audits and parser reruns. Saves are idempotent; an already archived
// object is left untouched.
type TextArchive struct {
	bucket *storage.BucketHandle
}

// NewTextArchive creates a new TextArchive instance.
func NewTextArchive(client *storage.Client, bucket string) *TextArchive {
	return &TextArchive{bucket: client.Bucket(bucket)}
}

// Save writes the text under <id>.txt unless it is already archived.
func (a *TextArchive) Save(ctx context.Context, id, text string) error {
	return gcp.SaveToGCSAtomically(ctx, a.bucket, id+".txt", text)
}
