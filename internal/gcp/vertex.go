package gcp

import (
	"context"
	"fmt"

	"cloud.google.com/go/vertexai/genai"
)

// --- Bill Reader Model Prompts ---
const BillReaderSystemPrompt = "You are a document transcription engine. Your task is to read a scanned bill and return its full text content as plain text. Accuracy and completeness are of utmost importance."
const BillReaderUserPrompt = `You will be provided with a scanned PDF bill (language hint: %s).

Follow these instructions to transcribe the document:

Text: Transcribe every piece of text on the bill exactly as printed, including account numbers, reference numbers, dates, and amounts.
Layout: Output plain text in natural reading order, top to bottom. Do not use markdown, tables, or any formatting markup.
Numbers: Preserve digits, decimal points, and thousands separators exactly as printed. Never round, reformat, or localize numbers.
Labels: Keep field labels (for example "Bill no.", "Subtotal", "Total") verbatim next to their values.
Unreadable regions: If a region is illegible, skip it. Do not guess or invent values.

Return ONLY the transcribed text. Do not add commentary, summaries, or backtick fences.`

// VertexClient holds the pre-configured generative model for OCR.
type VertexClient struct {
	BillReaderModel *genai.GenerativeModel
	baseClient      *genai.Client
}

// NewVertexClient creates a new client holding the bill reader model.
func NewVertexClient(ctx context.Context, projectID, region string) (*VertexClient, error) {
	if projectID == "" || region == "" {
		return nil, fmt.Errorf("NewVertexClient: projectID and region cannot be empty")
	}

	baseClient, err := genai.NewClient(ctx, projectID, region)
	if err != nil {
		return nil, fmt.Errorf("genai.NewClient: %w", err)
	}

	// --- Configure the bill reader model ---
	billReaderModel := baseClient.GenerativeModel("gemini-1.5-pro")
	billReaderModel.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(BillReaderSystemPrompt)},
	}
	billReaderModel.GenerationConfig = genai.GenerationConfig{
		// Transcription must be deterministic.
		Temperature: genai.Ptr[float32](0.0),
	}
	// Scanned bills carry names and addresses; without these settings the
	// model intermittently blocks them as personal data.
	billReaderModel.SafetySettings = []*genai.SafetySetting{
		{Category: genai.HarmCategoryHateSpeech, Threshold: genai.HarmBlockNone},
		{Category: genai.HarmCategoryDangerousContent, Threshold: genai.HarmBlockNone},
		{Category: genai.HarmCategorySexuallyExplicit, Threshold: genai.HarmBlockNone},
		{Category: genai.HarmCategoryHarassment, Threshold: genai.HarmBlockNone},
	}

	return &VertexClient{
		BillReaderModel: billReaderModel,
		baseClient:      baseClient,
	}, nil
}

func (c *VertexClient) Close() error {
	if c.baseClient != nil {
		return c.baseClient.Close()
	}
	return nil
}
