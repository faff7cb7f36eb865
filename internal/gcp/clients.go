package gcp

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/storage"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// NewFirestoreClient creates and returns a new Firestore client for the given
// project ID. It centralizes client creation for all services.
func NewFirestoreClient(ctx context.Context, projectID string) (*firestore.Client, error) {
	if projectID == "" {
		return nil, fmt.Errorf("projectID must be provided to create a firestore client")
	}

	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create Firestore client: %w", err)
	}

	return client, nil
}

// NewDriveService creates a Drive API client with full drive scope. Uploading
// a PDF as a Google Doc for OCR and deleting the temporary doc again both
// need write access.
func NewDriveService(ctx context.Context) (*drive.Service, error) {
	svc, err := drive.NewService(ctx, option.WithScopes(drive.DriveScope))
	if err != nil {
		return nil, fmt.Errorf("failed to create Drive service: %w", err)
	}
	return svc, nil
}

// NewSheetsService creates a Sheets API client scoped to spreadsheet access.
func NewSheetsService(ctx context.Context) (*sheets.Service, error) {
	svc, err := sheets.NewService(ctx, option.WithScopes(sheets.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("failed to create Sheets service: %w", err)
	}
	return svc, nil
}

// NewStorageClient creates a Cloud Storage client.
func NewStorageClient(ctx context.Context) (*storage.Client, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create Storage client: %w", err)
	}
	return client, nil
}
