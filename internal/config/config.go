package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	GCP      GCPConfig
	Source   SourceConfig
	OCR      OCRConfig
	Ledger   LedgerConfig
	Lock     LockConfig
	Archive  ArchiveConfig
	Workflow WorkflowConfig
	Log      LogConfig
}

// GCPConfig holds project-level settings shared by all GCP clients.
type GCPConfig struct {
	ProjectID string `mapstructure:"project_id"`
	Region    string `mapstructure:"region"`
}

// SourceConfig selects and parameterizes the folder the bills are read from.
type SourceConfig struct {
	// Backend is "drive" or "gcs".
	Backend  string `mapstructure:"backend"`
	FolderID string `mapstructure:"folder_id"`
	Bucket   string `mapstructure:"bucket"`
	Prefix   string `mapstructure:"prefix"`
}

// OCRConfig selects the text conversion engine.
type OCRConfig struct {
	// Engine is "drive" or "gemini".
	Engine   string `mapstructure:"engine"`
	Language string `mapstructure:"language"`
}

// LedgerConfig selects and parameterizes the output store.
type LedgerConfig struct {
	// Backend is "sheets" or "xlsx".
	Backend       string `mapstructure:"backend"`
	SpreadsheetID string `mapstructure:"spreadsheet_id"`
	SheetName     string `mapstructure:"sheet_name"`
	Path          string `mapstructure:"path"`
}

// LockConfig parameterizes the cross-invocation pipeline lock.
type LockConfig struct {
	// Backend is "firestore" or "local".
	Backend    string        `mapstructure:"backend"`
	Collection string        `mapstructure:"collection"`
	Name       string        `mapstructure:"name"`
	Wait       time.Duration `mapstructure:"wait"`
	LeaseTTL   time.Duration `mapstructure:"lease_ttl"`
}

// ArchiveConfig holds the optional raw OCR text archive. Empty bucket
// disables archival.
type ArchiveConfig struct {
	Bucket string `mapstructure:"bucket"`
}

// WorkflowConfig holds the optional post-run workflow hand-off. Empty ID
// disables the hand-off.
type WorkflowConfig struct {
	ID       string `mapstructure:"id"`
	Location string `mapstructure:"location"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from environment variables with the BILLSCAN_
// prefix.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("BILLSCAN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// GCP defaults
	v.SetDefault("gcp.project_id", "")
	v.SetDefault("gcp.region", "us-central1")

	// Source defaults
	v.SetDefault("source.backend", "drive")
	v.SetDefault("source.folder_id", "")
	v.SetDefault("source.bucket", "")
	v.SetDefault("source.prefix", "")

	// OCR defaults
	v.SetDefault("ocr.engine", "drive")
	v.SetDefault("ocr.language", "en")

	// Ledger defaults
	v.SetDefault("ledger.backend", "sheets")
	v.SetDefault("ledger.spreadsheet_id", "")
	v.SetDefault("ledger.sheet_name", "Sheet1")
	v.SetDefault("ledger.path", "bills.xlsx")

	// Lock defaults
	v.SetDefault("lock.backend", "firestore")
	v.SetDefault("lock.collection", "locks")
	v.SetDefault("lock.name", "bill-ingestion")
	v.SetDefault("lock.wait", "10s")
	v.SetDefault("lock.lease_ttl", "10m")

	// Archive defaults (disabled unless a bucket is set)
	v.SetDefault("archive.bucket", "")

	// Workflow defaults (disabled unless an ID is set)
	v.SetDefault("workflow.id", "")
	v.SetDefault("workflow.location", "us-central1")

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Bind environment variables explicitly for nested keys
	envBindings := map[string]string{
		"gcp.project_id":        "BILLSCAN_GCP_PROJECT_ID",
		"gcp.region":            "BILLSCAN_GCP_REGION",
		"source.backend":        "BILLSCAN_SOURCE_BACKEND",
		"source.folder_id":      "BILLSCAN_SOURCE_FOLDER_ID",
		"source.bucket":         "BILLSCAN_SOURCE_BUCKET",
		"source.prefix":         "BILLSCAN_SOURCE_PREFIX",
		"ocr.engine":            "BILLSCAN_OCR_ENGINE",
		"ocr.language":          "BILLSCAN_OCR_LANGUAGE",
		"ledger.backend":        "BILLSCAN_LEDGER_BACKEND",
		"ledger.spreadsheet_id": "BILLSCAN_LEDGER_SPREADSHEET_ID",
		"ledger.sheet_name":     "BILLSCAN_LEDGER_SHEET_NAME",
		"ledger.path":           "BILLSCAN_LEDGER_PATH",
		"lock.backend":          "BILLSCAN_LOCK_BACKEND",
		"lock.collection":       "BILLSCAN_LOCK_COLLECTION",
		"lock.name":             "BILLSCAN_LOCK_NAME",
		"lock.wait":             "BILLSCAN_LOCK_WAIT",
		"lock.lease_ttl":        "BILLSCAN_LOCK_LEASE_TTL",
		"archive.bucket":        "BILLSCAN_ARCHIVE_BUCKET",
		"workflow.id":           "BILLSCAN_WORKFLOW_ID",
		"workflow.location":     "BILLSCAN_WORKFLOW_LOCATION",
		"log.level":             "BILLSCAN_LOG_LEVEL",
		"log.format":            "BILLSCAN_LOG_FORMAT",
	}
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	cfg := &Config{}

	cfg.GCP = GCPConfig{
		ProjectID: v.GetString("gcp.project_id"),
		Region:    v.GetString("gcp.region"),
	}
	cfg.Source = SourceConfig{
		Backend:  v.GetString("source.backend"),
		FolderID: v.GetString("source.folder_id"),
		Bucket:   v.GetString("source.bucket"),
		Prefix:   v.GetString("source.prefix"),
	}
	cfg.OCR = OCRConfig{
		Engine:   v.GetString("ocr.engine"),
		Language: v.GetString("ocr.language"),
	}
	cfg.Ledger = LedgerConfig{
		Backend:       v.GetString("ledger.backend"),
		SpreadsheetID: v.GetString("ledger.spreadsheet_id"),
		SheetName:     v.GetString("ledger.sheet_name"),
		Path:          v.GetString("ledger.path"),
	}
	cfg.Lock = LockConfig{
		Backend:    v.GetString("lock.backend"),
		Collection: v.GetString("lock.collection"),
		Name:       v.GetString("lock.name"),
		Wait:       v.GetDuration("lock.wait"),
		LeaseTTL:   v.GetDuration("lock.lease_ttl"),
	}
	cfg.Archive = ArchiveConfig{
		Bucket: v.GetString("archive.bucket"),
	}
	cfg.Workflow = WorkflowConfig{
		ID:       v.GetString("workflow.id"),
		Location: v.GetString("workflow.location"),
	}
	cfg.Log = LogConfig{
		Level:  v.GetString("log.level"),
		Format: v.GetString("log.format"),
	}

	return cfg, nil
}
