// Package llm asks an OpenAI chat model to fill the DocumentRecord schema,
// either from document text or directly from an image.
//
// Requests use structured outputs with the strict document schema and every
// reply is validated against that schema locally before it is returned.
package llm

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"

	"cmrdocs/internal/logger"
	"cmrdocs/internal/schema"
)

const systemPrompt = `You extract data from shipping documents: a CMR consignment note and the matching commercial invoice.
Fill every field of the schema. Use an empty string for anything that is not present in the document; never guess.
Copy values as written. The VIN is the 17 character vehicle identification number.
gross_weight_kg is the gross weight in kilograms as a plain number without unit.
Party names belong in exporter/importer name, postal addresses in address, tax or registration numbers in importer id.`

// Config configures the extractor.
type Config struct {
	Model       string  // e.g. gpt-4o-mini
	Temperature float32 // 0 for deterministic extraction
	MaxRetries  int     // attempts per document
	MaxTokens   int
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		Model:       openai.GPT4oMini,
		Temperature: 0,
		MaxRetries:  3,
		MaxTokens:   1500,
	}
}

// Extractor turns document content into candidate record JSON.
type Extractor struct {
	client *openai.Client
	config Config
	log    zerolog.Logger
}

// NewExtractor creates an extractor for the public OpenAI API.
func NewExtractor(apiKey string, config Config) (*Extractor, error) {
	if apiKey == "" {
		return nil, &CompletionError{Op: "NewExtractor", Err: ErrMissingAPIKey}
	}
	return NewExtractorWithClient(openai.NewClient(apiKey), config), nil
}

// NewExtractorWithClient creates an extractor around an existing client.
func NewExtractorWithClient(client *openai.Client, config Config) *Extractor {
	defaults := DefaultConfig()
	if config.Model == "" {
		config.Model = defaults.Model
	}
	if config.MaxRetries <= 0 {
		config.MaxRetries = defaults.MaxRetries
	}
	if config.MaxTokens <= 0 {
		config.MaxTokens = defaults.MaxTokens
	}
	return &Extractor{
		client: client,
		config: config,
		log:    logger.WithComponent("llm"),
	}
}

// FromText extracts a candidate record from document text.
func (e *Extractor) FromText(ctx context.Context, text string) (json.RawMessage, error) {
	if strings.TrimSpace(text) == "" {
		return nil, &CompletionError{Op: "FromText", Err: ErrUnsupportedInput, Details: "empty text"}
	}
	msg := openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: "Document text:\n\n" + text,
	}
	return e.complete(ctx, "FromText", msg)
}

// FromImage extracts a candidate record from a PNG or JPEG image.
func (e *Extractor) FromImage(ctx context.Context, data []byte, mediaType string) (json.RawMessage, error) {
	if mediaType != "image/png" && mediaType != "image/jpeg" {
		return nil, &CompletionError{Op: "FromImage", Err: ErrUnsupportedInput, Details: mediaType}
	}
	msg := openai.ChatCompletionMessage{
		Role: openai.ChatMessageRoleUser,
		MultiContent: []openai.ChatMessagePart{
			{
				Type: openai.ChatMessagePartTypeText,
				Text: "Extract the document fields from this image.",
			},
			{
				Type: openai.ChatMessagePartTypeImageURL,
				ImageURL: &openai.ChatMessageImageURL{
					URL:    dataURL(data, mediaType),
					Detail: openai.ImageURLDetailHigh,
				},
			},
		},
	}
	return e.complete(ctx, "FromImage", msg)
}

func (e *Extractor) complete(ctx context.Context, op string, user openai.ChatCompletionMessage) (json.RawMessage, error) {
	req := openai.ChatCompletionRequest{
		Model:       e.config.Model,
		Temperature: e.config.Temperature,
		MaxTokens:   e.config.MaxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			user,
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   schema.Name,
				Schema: schema.JSON(),
				Strict: true,
			},
		},
	}

	e.log.Debug().
		Str("op", op).
		Str("model", e.config.Model).
		Float32("temperature", e.config.Temperature).
		Msg("Sending extraction request")

	var lastErr error
	for attempt := 1; attempt <= e.config.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, &CompletionError{Op: op, Err: err, Attempts: attempt - 1}
		}

		resp, err := e.client.CreateChatCompletion(ctx, req)
		if err != nil {
			lastErr = err
			e.log.Warn().
				Err(err).
				Int("attempt", attempt).
				Int("max_retries", e.config.MaxRetries).
				Msg("Chat completion failed, retrying")
			continue
		}
		if len(resp.Choices) == 0 {
			lastErr = ErrNoChoices
			continue
		}

		content := []byte(stripCodeFence(resp.Choices[0].Message.Content))
		if err := schema.Validate(content); err != nil {
			lastErr = fmt.Errorf("%w: %v", ErrInvalidResponse, err)
			e.log.Warn().
				Err(err).
				Int("attempt", attempt).
				Msg("Model output failed schema validation, retrying")
			continue
		}

		e.log.Info().
			Str("op", op).
			Int("attempt", attempt).
			Int("prompt_tokens", resp.Usage.PromptTokens).
			Int("completion_tokens", resp.Usage.CompletionTokens).
			Msg("Extracted document fields")
		return json.RawMessage(content), nil
	}

	return nil, &CompletionError{Op: op, Err: lastErr, Attempts: e.config.MaxRetries}
}

// stripCodeFence removes a surrounding ``` or ```json fence.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func dataURL(data []byte, mediaType string) string {
	return "data:" + mediaType + ";base64," + base64.StdEncoding.EncodeToString(data)
}
