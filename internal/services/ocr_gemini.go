package services

import (
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/vertexai/genai"
	"github.com/GopalDesai123/billscan/internal/gcp"
	"github.com/GopalDesai123/billscan/internal/models"
	"github.com/cockroachdb/errors"
)

// GeminiConverter OCRs a PDF inline with a Vertex AI generative model. No
// temporary artifact is created, so the artifact ID is always empty.
type GeminiConverter struct {
	vertexClient *gcp.VertexClient
}

// NewGeminiConverter creates a new GeminiConverter instance.
func NewGeminiConverter(vertexClient *gcp.VertexClient) *GeminiConverter {
	return &GeminiConverter{vertexClient: vertexClient}
}

// Convert sends the PDF bytes to the bill reader model and returns the
// transcribed text.
func (c *GeminiConverter) Convert(ctx context.Context, doc models.SourceDocument, content []byte, language string) (string, string, error) {
	if _, err := pageCount(content); err != nil {
		return "", "", errors.Wrapf(err, "invalid pdf %s", doc.Name)
	}

	model := c.vertexClient.BillReaderModel
	prompt := genai.Text(fmt.Sprintf(gcp.BillReaderUserPrompt, language))
	filePart := genai.Blob{
		MIMEType: "application/pdf",
		Data:     content,
	}

	geminiResp, err := model.GenerateContent(ctx, filePart, prompt)
	if err != nil {
		return "", "", errors.Wrap(err, "failed to generate content from gemini")
	}

	text := c.extractText(geminiResp)

	// Sanity check for LLM refusal. A refusal is an OCR failure, not a bill
	// that happens to have no matching fields.
	lowerText := strings.ToLower(text)
	for _, phrase := range refusalPhrases {
		if strings.Contains(lowerText, phrase) {
			return "", "", errors.Newf("gemini response indicates refusal for %s", doc.Name)
		}
	}
	return text, "", nil
}

// Discard is a no-op; inline conversion leaves nothing behind.
func (c *GeminiConverter) Discard(ctx context.Context, artifactID string) error {
	return nil
}

var refusalPhrases = []string{
	"i am unable to",
	"i cannot fulfill",
	"i cannot answer",
	"i cannot provide",
	"as a large language model",
}

// extractText parses the model's response and robustly extracts text content.
func (c *GeminiConverter) extractText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return ""
	}

	var content strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			content.WriteString(string(txt))
		}
	}

	text := strings.TrimSpace(content.String())
	text = strings.TrimPrefix(text, "```text")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}
