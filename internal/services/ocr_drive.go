package services

import (
	"bytes"
	"context"
	"io"

	"github.com/GopalDesai123/billscan/internal/models"
	"github.com/cockroachdb/errors"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"google.golang.org/api/drive/v3"
)

// googleDocMimeType is the conversion target for OCR uploads. Drive runs text
// recognition on a PDF while importing it as a Google Doc.
const googleDocMimeType = "application/vnd.google-apps.document"

// DriveConverter OCRs a PDF by importing it into Drive as a Google Doc and
// exporting that doc as plain text. The imported doc is the temporary
// artifact handed back to the caller for deletion.
type DriveConverter struct {
	svc *drive.Service
}

// NewDriveConverter creates a new DriveConverter instance.
func NewDriveConverter(svc *drive.Service) *DriveConverter {
	return &DriveConverter{svc: svc}
}

// Convert uploads the PDF for OCR in the given language and returns the
// extracted plain text plus the ID of the temporary Google Doc. The artifact
// ID comes back non-empty even when a later step fails, so the caller can
// always clean up.
func (c *DriveConverter) Convert(ctx context.Context, doc models.SourceDocument, content []byte, language string) (string, string, error) {
	if _, err := pageCount(content); err != nil {
		return "", "", errors.Wrapf(err, "invalid pdf %s", doc.Name)
	}

	meta := &drive.File{
		Name:     doc.ID,
		MimeType: googleDocMimeType,
	}
	created, err := c.svc.Files.Create(meta).
		Media(bytes.NewReader(content)).
		OcrLanguage(language).
		Fields("id").
		Context(ctx).
		Do()
	if err != nil {
		return "", "", errors.Wrapf(err, "failed to import %s for ocr", doc.Name)
	}

	resp, err := c.svc.Files.Export(created.Id, "text/plain").Context(ctx).Download()
	if err != nil {
		return "", created.Id, errors.Wrapf(err, "failed to export text of %s", doc.Name)
	}
	defer resp.Body.Close()

	text, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", created.Id, errors.Wrapf(err, "failed to read exported text of %s", doc.Name)
	}
	return string(text), created.Id, nil
}

// Discard deletes the temporary Google Doc.
func (c *DriveConverter) Discard(ctx context.Context, artifactID string) error {
	if artifactID == "" {
		return nil
	}
	if err := c.svc.Files.Delete(artifactID).Context(ctx).Do(); err != nil {
		return errors.Wrapf(err, "failed to delete artifact %s", artifactID)
	}
	return nil
}

// pageCount sanity-checks the PDF before it is sent anywhere. Scans come
// from flatbed scanners of varying quality, so validation is relaxed.
func pageCount(content []byte) (int, error) {
	cfg := model.NewDefaultConfiguration()
	cfg.ValidationMode = model.ValidationRelaxed
	return api.PageCount(bytes.NewReader(content), cfg)
}
