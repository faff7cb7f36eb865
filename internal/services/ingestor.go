package services

import (
	"context"
	"path"
	"sort"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	executions "cloud.google.com/go/workflows/executions/apiv1"
	"github.com/GopalDesai123/billscan/internal/config"
	"github.com/GopalDesai123/billscan/internal/extract"
	"github.com/GopalDesai123/billscan/internal/gcp"
	"github.com/GopalDesai123/billscan/internal/logger"
	"github.com/GopalDesai123/billscan/internal/models"
	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"google.golang.org/api/drive/v3"
)

// Source lists and fetches the scanned bills of one folder.
type Source interface {
	List(ctx context.Context, folderID string) ([]models.SourceDocument, error)
	Fetch(ctx context.Context, doc models.SourceDocument) ([]byte, error)
}

// Converter turns one PDF into plain text via OCR. Convert returns the
// identifier of any temporary artifact it created so the caller can discard
// it once the text is in hand.
type Converter interface {
	Convert(ctx context.Context, doc models.SourceDocument, content []byte, language string) (text string, artifactID string, err error)
	Discard(ctx context.Context, artifactID string) error
}

// Ledger is the append-only output store.
type Ledger interface {
	Snapshot(ctx context.Context) (*LedgerSnapshot, error)
	Append(ctx context.Context, row []string) error
	Flush(ctx context.Context) error
}

// Locker serializes ingestion runs across invocations.
type Locker interface {
	Acquire(ctx context.Context, wait time.Duration) error
	Release(ctx context.Context) error
}

// LedgerSnapshot is the state of the ledger as read once at the start of a
// run: the set of already processed source identifiers and whether the ledger
// held any rows at all. It is never refreshed during a run, and it is taken
// before the pipeline lock, so a writer that finishes while this run waits on
// the lock leaves rows the snapshot does not see. That staleness window is
// accepted; the bounded lock wait keeps it to seconds.
type LedgerSnapshot struct {
	ids   map[string]struct{}
	Empty bool
}

// NewLedgerSnapshot builds a snapshot from the given identifiers.
func NewLedgerSnapshot(ids []string, empty bool) *LedgerSnapshot {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return &LedgerSnapshot{ids: set, Empty: empty}
}

// Processed reports whether id already has a ledger row.
func (s *LedgerSnapshot) Processed(id string) bool {
	_, ok := s.ids[id]
	return ok
}

// IngestorConfig holds the run-level settings of the ingestion pipeline.
type IngestorConfig struct {
	FolderID     string
	SourceBucket string
	Language     string
	LockWait     time.Duration
}

// IngestorFunction holds the dependencies for the ingestion logic.
type IngestorFunction struct {
	source    Source
	converter Converter
	ledger    Ledger
	locker    Locker
	archive   *TextArchive
	workflow  *WorkflowTrigger
	log       *logger.Logger
	config    IngestorConfig
}

// NewIngestor creates a fully wired IngestorFunction from the environment.
func NewIngestor(ctx context.Context) (*IngestorFunction, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load configuration")
	}
	log, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build logger")
	}
	return newIngestor(ctx, cfg, log)
}

func newIngestor(ctx context.Context, cfg *config.Config, log *logger.Logger) (*IngestorFunction, error) {
	f := &IngestorFunction{
		log: log,
		config: IngestorConfig{
			FolderID: cfg.Source.FolderID,
			Language: cfg.OCR.Language,
			LockWait: cfg.Lock.Wait,
		},
	}

	var driveSvc *drive.Service
	if cfg.Source.Backend == "drive" || cfg.OCR.Engine == "drive" {
		var err error
		driveSvc, err = gcp.NewDriveService(ctx)
		if err != nil {
			return nil, err
		}
	}
	var storageClient *storage.Client
	if cfg.Source.Backend == "gcs" || cfg.Archive.Bucket != "" {
		var err error
		storageClient, err = gcp.NewStorageClient(ctx)
		if err != nil {
			return nil, err
		}
	}

	switch cfg.Source.Backend {
	case "drive":
		f.source = NewDriveSource(driveSvc)
	case "gcs":
		if cfg.Source.Bucket == "" {
			return nil, errors.New("source.bucket must be set for the gcs source backend")
		}
		f.source = NewGCSSource(storageClient, cfg.Source.Bucket, cfg.Source.Prefix)
		f.config.SourceBucket = cfg.Source.Bucket
	default:
		return nil, errors.Newf("unknown source backend %q", cfg.Source.Backend)
	}

	switch cfg.OCR.Engine {
	case "drive":
		f.converter = NewDriveConverter(driveSvc)
	case "gemini":
		vertexClient, err := gcp.NewVertexClient(ctx, cfg.GCP.ProjectID, cfg.GCP.Region)
		if err != nil {
			return nil, errors.Wrap(err, "failed to create vertex client")
		}
		f.converter = NewGeminiConverter(vertexClient)
	default:
		return nil, errors.Newf("unknown ocr engine %q", cfg.OCR.Engine)
	}

	switch cfg.Ledger.Backend {
	case "sheets":
		if cfg.Ledger.SpreadsheetID == "" {
			return nil, errors.New("ledger.spreadsheet_id must be set for the sheets ledger backend")
		}
		sheetsSvc, err := gcp.NewSheetsService(ctx)
		if err != nil {
			return nil, err
		}
		f.ledger = NewSheetsLedger(sheetsSvc, cfg.Ledger.SpreadsheetID, cfg.Ledger.SheetName)
	case "xlsx":
		ledger, err := NewXLSXLedger(cfg.Ledger.Path, cfg.Ledger.SheetName)
		if err != nil {
			return nil, err
		}
		f.ledger = ledger
	default:
		return nil, errors.Newf("unknown ledger backend %q", cfg.Ledger.Backend)
	}

	switch cfg.Lock.Backend {
	case "firestore":
		fsClient, err := gcp.NewFirestoreClient(ctx, cfg.GCP.ProjectID)
		if err != nil {
			return nil, err
		}
		f.locker = NewFirestoreLock(fsClient, cfg.Lock.Collection, cfg.Lock.Name, cfg.Lock.LeaseTTL)
	case "local":
		f.locker = NewLocalLock()
	default:
		return nil, errors.Newf("unknown lock backend %q", cfg.Lock.Backend)
	}

	if cfg.Archive.Bucket != "" {
		f.archive = NewTextArchive(storageClient, cfg.Archive.Bucket)
	}
	if cfg.Workflow.ID != "" {
		executionsClient, err := executions.NewClient(ctx)
		if err != nil {
			return nil, errors.Wrap(err, "failed to create Workflows Executions client")
		}
		f.workflow = NewWorkflowTrigger(executionsClient, cfg.GCP.ProjectID, cfg.Workflow.Location, cfg.Workflow.ID)
	}

	log.Infow("Bill ingestor initialized.",
		"sourceBackend", cfg.Source.Backend,
		"ocrEngine", cfg.OCR.Engine,
		"ledgerBackend", cfg.Ledger.Backend,
		"lockBackend", cfg.Lock.Backend,
	)
	return f, nil
}

// Process runs one ingestion pass over the source folder.
func (f *IngestorFunction) Process(ctx context.Context, req *models.IngestRequest) (*models.IngestResponse, error) {
	runID := uuid.NewString()
	logCtx := f.log.With("runId", runID)

	folderID := req.FolderID
	if folderID == "" {
		folderID = f.config.FolderID
	}
	language := req.Language
	if language == "" {
		language = f.config.Language
	}

	// --- 1. Enumerate the folder and snapshot the ledger ---
	// Two independent reads. The snapshot is taken exactly once per run and
	// never refreshed while documents are processed.
	var (
		docs []models.SourceDocument
		snap *LedgerSnapshot
	)
	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		var err error
		docs, err = f.source.List(egCtx, folderID)
		if err != nil {
			return errors.Wrap(err, "failed to list source folder")
		}
		return nil
	})
	eg.Go(func() error {
		var err error
		snap, err = f.ledger.Snapshot(egCtx)
		if err != nil {
			return errors.Wrap(err, "failed to read ledger snapshot")
		}
		return nil
	})
	if err := eg.Wait(); err != nil {
		logCtx.Errorw("Startup reads failed.", "error", err)
		return nil, err
	}

	// Deterministic processing order regardless of listing order.
	sort.Slice(docs, func(i, j int) bool { return docs[i].Name < docs[j].Name })
	logCtx.Infow("Scan complete.", "documents", len(docs), "ledgerEmpty", snap.Empty)

	return f.run(ctx, logCtx, runID, docs, language, snap)
}

// ProcessEvent ingests a single object dropped into the watched bucket. The
// object goes through the same snapshot, lock, and per-document stages as a
// batch run; an object that fails returns an error so the event is
// redelivered.
func (f *IngestorFunction) ProcessEvent(ctx context.Context, e models.GCSEvent) error {
	logCtx := f.log.With("gcsBucket", e.Bucket, "gcsObject", e.Name)

	if f.config.SourceBucket == "" {
		logCtx.Errorw("Event ingestion requires the gcs source backend. Dropping event.")
		return nil
	}
	if e.Bucket != f.config.SourceBucket {
		logCtx.Infow("Object is outside the configured source bucket. Ignoring.")
		return nil
	}
	if !strings.EqualFold(path.Ext(e.Name), ".pdf") {
		logCtx.Infow("Ignoring non-PDF object.")
		return nil
	}

	doc := models.SourceDocument{
		ID:          stripExtension(path.Base(e.Name)),
		Name:        path.Base(e.Name),
		FileID:      e.Name,
		ContentType: "application/pdf",
	}

	snap, err := f.ledger.Snapshot(ctx)
	if err != nil {
		logCtx.Errorw("Failed to read ledger snapshot.", "error", err)
		return errors.Wrap(err, "failed to read ledger snapshot")
	}

	runID := uuid.NewString()
	resp, err := f.run(ctx, logCtx.With("runId", runID), runID, []models.SourceDocument{doc}, f.config.Language, snap)
	if err != nil {
		return err
	}
	if len(resp.Failed) > 0 {
		failed := resp.Failed[0]
		return errors.Newf("document %s failed at stage %s: %s", failed.ID, failed.Stage, failed.Reason)
	}
	return nil
}

// run holds the locked section of a pass: acquire, per-document loop,
// unconditional release.
func (f *IngestorFunction) run(ctx context.Context, logCtx *logger.Logger, runID string, docs []models.SourceDocument, language string, snap *LedgerSnapshot) (*models.IngestResponse, error) {
	// --- 2. Acquire the cross-invocation lock ---
	if err := f.locker.Acquire(ctx, f.config.LockWait); err != nil {
		logCtx.Warnw("Could not acquire ingestion lock. Aborting run.", "error", err, "wait", f.config.LockWait.String())
		return nil, err
	}
	defer func() {
		if err := f.locker.Release(ctx); err != nil {
			logCtx.Errorw("Failed to release ingestion lock.", "error", err)
		}
	}()

	resp := &models.IngestResponse{Status: "success", RunID: runID, Scanned: len(docs)}
	headerPending := snap.Empty
	appended := make(map[string]struct{})

	// --- 3. Process each document ---
	for _, doc := range docs {
		docLog := logCtx.With("documentId", doc.ID, "sourceName", doc.Name)

		if snap.Processed(doc.ID) {
			docLog.Infow("Already in ledger. Skipping.")
			resp.Skipped++
			continue
		}
		if _, ok := appended[doc.ID]; ok {
			docLog.Warnw("Duplicate identifier within one run. Skipping.")
			resp.Skipped++
			continue
		}

		record, docErr := f.processDocument(ctx, docLog, doc, language)
		if docErr != nil {
			var dErr *models.DocumentError
			if !errors.As(docErr, &dErr) {
				return nil, docErr
			}
			docLog.Errorw("Document failed. Continuing with the rest.", "stage", dErr.Stage, "error", dErr.Err)
			resp.Failed = append(resp.Failed, models.FailedDocument{ID: dErr.ID, Stage: dErr.Stage, Reason: dErr.Err.Error()})
			continue
		}

		// --- 4. Append to the ledger, header first on a brand-new ledger ---
		if headerPending {
			if err := f.appendRow(ctx, models.LedgerHeader); err != nil {
				docLog.Errorw("Failed to write header row.", "error", err)
				return nil, err
			}
			headerPending = false
		}
		if err := f.appendRow(ctx, record.Row()); err != nil {
			docLog.Errorw("Failed to append record.", "error", err)
			return nil, err
		}
		appended[doc.ID] = struct{}{}
		resp.Appended++
		docLog.Infow("Record appended.", "billNumber", record.BillNumber, "total", record.Total)
	}

	logCtx.Infow("Run complete.",
		"scanned", resp.Scanned,
		"appended", resp.Appended,
		"skipped", resp.Skipped,
		"failed", len(resp.Failed),
	)

	// --- 5. Hand off to the downstream workflow ---
	if f.workflow != nil && resp.Appended > 0 {
		if err := f.workflow.Trigger(ctx, resp); err != nil {
			logCtx.Errorw("Failed to trigger downstream workflow.", "error", err)
		}
	}
	return resp, nil
}

// processDocument runs the per-document stages up to field extraction. Every
// failure comes back as a DocumentError naming the stage.
func (f *IngestorFunction) processDocument(ctx context.Context, docLog *logger.Logger, doc models.SourceDocument, language string) (models.BillingRecord, error) {
	var record models.BillingRecord

	content, err := f.source.Fetch(ctx, doc)
	if err != nil {
		return record, models.NewDocumentError(doc.ID, "fetch", err)
	}
	docLog.Infow("Fetched PDF.", "bytes", len(content))

	text, artifactID, err := f.converter.Convert(ctx, doc, content, language)
	// The converted artifact exists only to get at the text. Failing to
	// delete it wastes quota but never loses data, so it is not fatal.
	if artifactID != "" {
		if discardErr := f.converter.Discard(ctx, artifactID); discardErr != nil {
			docLog.Warnw("Failed to discard temporary OCR artifact.", "artifactId", artifactID, "error", discardErr)
		}
	}
	if err != nil {
		return record, models.NewDocumentError(doc.ID, "ocr", errors.Mark(err, models.ErrOCRFailure))
	}

	record = extract.Fields(text, doc.ID)

	if f.archive != nil {
		if err := f.archive.Save(ctx, doc.ID, text); err != nil {
			docLog.Warnw("Failed to archive OCR text.", "error", err)
		}
	}
	return record, nil
}

// appendRow writes one row and forces it out. A crash mid-run then leaves a
// committed prefix of rows; the next run's snapshot skips them.
func (f *IngestorFunction) appendRow(ctx context.Context, row []string) error {
	if err := f.ledger.Append(ctx, row); err != nil {
		return errors.Mark(errors.Wrap(err, "failed to append ledger row"), models.ErrLedgerWrite)
	}
	if err := f.ledger.Flush(ctx); err != nil {
		return errors.Mark(errors.Wrap(err, "failed to flush ledger"), models.ErrLedgerWrite)
	}
	return nil
}

// stripExtension returns name without its final extension. "INV-2024-001.pdf"
// becomes "INV-2024-001"; a name without a dot is returned unchanged.
func stripExtension(name string) string {
	return strings.TrimSuffix(name, path.Ext(name))
}
