package services

import (
	"context"
	"fmt"
	"io"

	"github.com/GopalDesai123/billscan/internal/models"
	"github.com/cockroachdb/errors"
	"google.golang.org/api/drive/v3"
)

// DriveSource reads scanned bills from a Google Drive folder.
type DriveSource struct {
	svc *drive.Service
}

// NewDriveSource creates a new DriveSource instance.
func NewDriveSource(svc *drive.Service) *DriveSource {
	return &DriveSource{svc: svc}
}

// List enumerates the PDFs of the folder. Files of any other content type are
// invisible to the pipeline, not errors.
func (s *DriveSource) List(ctx context.Context, folderID string) ([]models.SourceDocument, error) {
	if folderID == "" {
		return nil, errors.New("no source folder id configured")
	}

	query := fmt.Sprintf("'%s' in parents and mimeType = 'application/pdf' and trashed = false", folderID)
	var docs []models.SourceDocument
	pageToken := ""
	for {
		call := s.svc.Files.List().
			Q(query).
			Fields("nextPageToken, files(id, name, mimeType)").
			PageSize(1000).
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		resp, err := call.Do()
		if err != nil {
			return nil, errors.Wrapf(err, "failed to list folder %s", folderID)
		}
		for _, file := range resp.Files {
			docs = append(docs, models.SourceDocument{
				ID:          stripExtension(file.Name),
				Name:        file.Name,
				FileID:      file.Id,
				ContentType: file.MimeType,
			})
		}
		pageToken = resp.NextPageToken
		if pageToken == "" {
			break
		}
	}
	return docs, nil
}

// Fetch downloads the PDF bytes of one document.
func (s *DriveSource) Fetch(ctx context.Context, doc models.SourceDocument) ([]byte, error) {
	resp, err := s.svc.Files.Get(doc.FileID).Context(ctx).Download()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to download %s", doc.Name)
	}
	defer resp.Body.Close()

	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", doc.Name)
	}
	return content, nil
}
