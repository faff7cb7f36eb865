package services

import (
	"context"
	"io"
	"path"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/GopalDesai123/billscan/internal/models"
	"github.com/cockroachdb/errors"
	"google.golang.org/api/iterator"
)

// GCSSource reads scanned bills from a Cloud Storage bucket prefix.
type GCSSource struct {
	client *storage.Client
	bucket string
	prefix string
}

// NewGCSSource creates a new GCSSource instance.
func NewGCSSource(client *storage.Client, bucket, prefix string) *GCSSource {
	return &GCSSource{client: client, bucket: bucket, prefix: prefix}
}

// List enumerates the PDF objects under the prefix. A non-empty folderID
// overrides the configured prefix for this call.
func (s *GCSSource) List(ctx context.Context, folderID string) ([]models.SourceDocument, error) {
	prefix := s.prefix
	if folderID != "" {
		prefix = folderID
	}

	query := &storage.Query{Prefix: prefix}
	it := s.client.Bucket(s.bucket).Objects(ctx, query)

	var docs []models.SourceDocument
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "failed to list gs://%s/%s", s.bucket, prefix)
		}
		if !strings.EqualFold(path.Ext(attrs.Name), ".pdf") {
			continue
		}
		name := path.Base(attrs.Name)
		docs = append(docs, models.SourceDocument{
			ID:          stripExtension(name),
			Name:        name,
			FileID:      attrs.Name,
			ContentType: attrs.ContentType,
		})
	}
	return docs, nil
}

// Fetch reads the object fully into memory. Scanned bills are a few megabytes
// at most.
func (s *GCSSource) Fetch(ctx context.Context, doc models.SourceDocument) ([]byte, error) {
	reader, err := s.client.Bucket(s.bucket).Object(doc.FileID).NewReader(ctx)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open gs://%s/%s", s.bucket, doc.FileID)
	}
	defer reader.Close()

	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read gs://%s/%s", s.bucket, doc.FileID)
	}
	return content, nil
}
