package extraction

import (
	"context"
	"fmt"

	"github.com/username/tradeledger/backend/src/logger"
	"github.com/username/tradeledger/backend/src/models"
	"google.golang.org/genai"
)

// GeminiExtractor invokes the hosted Gemini model with the extraction
// contract. It is treated as a pure black box: one call per document, no
// retries, no partial results.
type GeminiExtractor struct {
	client *genai.Client
	model  string
}

// NewGeminiExtractor creates a Gemini-backed extractor.
func NewGeminiExtractor(ctx context.Context, apiKey, model string) (*GeminiExtractor, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}
	return &GeminiExtractor{client: client, model: model}, nil
}

// Extract submits the PDF bytes and parses the structured response. A
// transport or model failure is returned as-is; a response that violates the
// contract wraps ErrMalformedResponse.
func (e *GeminiExtractor) Extract(ctx context.Context, pdf []byte) (*models.ExtractedData, error) {
	contents := []*genai.Content{{
		Parts: []*genai.Part{
			{InlineData: &genai.Blob{MIMEType: "application/pdf", Data: pdf}},
			{Text: PromptText},
		},
	}}

	cfg := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: SystemInstruction}}},
		ResponseMIMEType:  "application/json",
		ResponseSchema:    ResponseSchema(),
		Temperature:       genai.Ptr[float32](0.1),
	}

	resp, err := e.client.Models.GenerateContent(ctx, e.model, contents, cfg)
	if err != nil {
		return nil, fmt.Errorf("gemini generate content: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return nil, fmt.Errorf("%w: empty response from model", ErrMalformedResponse)
	}

	data, err := ParseExtractedData([]byte(text))
	if err != nil {
		logger.L.Warn("Gemini response failed contract validation", "model", e.model, "error", err)
		return nil, err
	}
	return data, nil
}
