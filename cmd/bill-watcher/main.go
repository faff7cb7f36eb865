package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	"github.com/GopalDesai123/billscan/internal/models"
	"github.com/GopalDesai123/billscan/internal/services"
	cloudevents "github.com/cloudevents/sdk-go/v2"
)

var (
	ingestorInstance *services.IngestorFunction
	once             sync.Once
	initErr          error
)

func init() {
	// Register the CloudEvent function. The framework routes the event here.
	functions.CloudEvent("IngestDroppedBill", ingestDroppedBill)
}

// main is required by the Go Functions Framework.
func main() {}

// ingestDroppedBill is the Cloud Function entry point for bucket drops.
func ingestDroppedBill(ctx context.Context, e cloudevents.Event) error {
	// Use sync.Once for robust, one-time initialization of clients.
	once.Do(func() {
		ingestorInstance, initErr = services.NewIngestor(context.Background())
	})
	if initErr != nil {
		log.Printf("CRITICAL: Ingestor initialization failed: %v", initErr)
		return initErr
	}

	var gcsEvent models.GCSEvent
	if err := json.Unmarshal(e.Data(), &gcsEvent); err != nil {
		log.Printf("ERROR: Failed to unmarshal event data: %v", err)
		return fmt.Errorf("json.Unmarshal: %w", err)
	}

	// Delegate to the business logic. Returning an error marks the
	// invocation as failed so the event is redelivered.
	return ingestorInstance.ProcessEvent(ctx, gcsEvent)
}
