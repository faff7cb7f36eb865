package models

// These structs define the JSON payloads for HTTP requests and responses
// between the scheduler (or a manual curl) and the ingestion Cloud Function.

// IngestRequest is the input for the bill-ingestor function. Both fields are
// optional; unset fields fall back to the configured defaults.
type IngestRequest struct {
	FolderID string `json:"folderId,omitempty"`
	Language string `json:"language,omitempty"`
}

// FailedDocument describes one source document the run could not process.
type FailedDocument struct {
	ID     string `json:"id"`
	Stage  string `json:"stage"`
	Reason string `json:"reason"`
}

// IngestResponse is the output of the bill-ingestor function. Counts satisfy
// Scanned = Appended + Skipped + len(Failed).
type IngestResponse struct {
	Status   string           `json:"status"`
	RunID    string           `json:"runId"`
	Scanned  int              `json:"scanned"`
	Appended int              `json:"appended"`
	Skipped  int              `json:"skipped"`
	Failed   []FailedDocument `json:"failed,omitempty"`
}

// GCSEvent is the payload of a storage object-finalized CloudEvent, as
// delivered to the bill-watcher function.
type GCSEvent struct {
	Bucket string `json:"bucket"`
	Name   string `json:"name"`
}
