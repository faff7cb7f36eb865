package main

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	"github.com/GopalDesai123/billscan/internal/models"
	"github.com/GopalDesai123/billscan/internal/services"
	"github.com/cockroachdb/errors"
)

var (
	ingestorInstance *services.IngestorFunction
	once             sync.Once
	initErr          error
)

func init() {
	// Register the HTTP function with the framework.
	// "IngestBills" is the entry point name we'll see in GCP.
	functions.HTTP("IngestBills", handleIngestBills)
}

// main is required by the Go Functions Framework.
func main() {}

// handleIngestBills is the HTTP handler.
func handleIngestBills(w http.ResponseWriter, r *http.Request) {
	// Use sync.Once for robust, one-time initialization of clients.
	once.Do(func() {
		ingestorInstance, initErr = services.NewIngestor(context.Background())
	})
	if initErr != nil {
		log.Printf("CRITICAL: Ingestor initialization failed: %v", initErr)
		http.Error(w, "Internal Server Error: failed to initialize service", http.StatusInternalServerError)
		return
	}

	// Decode the incoming JSON request. An empty body runs with defaults.
	var req models.IngestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		log.Printf("ERROR: Could not decode request body: %v", err)
		http.Error(w, "Bad Request: could not parse JSON", http.StatusBadRequest)
		return
	}

	// Delegate to the business logic.
	res, err := ingestorInstance.Process(r.Context(), &req)
	if err != nil {
		// The specific error is already logged inside the Process method.
		if errors.Is(err, models.ErrLockBusy) {
			http.Error(w, "Conflict: another ingestion run holds the lock", http.StatusConflict)
			return
		}
		http.Error(w, "Internal Server Error: processing failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(res); err != nil {
		log.Printf("ERROR: Failed to write response: %v", err)
		http.Error(w, "Internal Server Error: failed to encode response", http.StatusInternalServerError)
	}
}
