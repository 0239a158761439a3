// Package gemini provides an ImageGenerator implementation using Google's Gemini API.
//
// This provider uses the Gemini API backend via the official Go SDK:
// https://github.com/googleapis/go-genai
package gemini

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mhpenta/schnell"
	"google.golang.org/genai"
)

// Model name constants - the actual API model names.
const (
	// APIModelNanoBanana2 is the actual API name for Gemini 3 Pro Image
	APIModelNanoBanana2 = "gemini-3-pro-image-preview"

	// APIModelNanoBanana1 is the actual API name for Gemini 2.5 Flash Image
	APIModelNanoBanana1 = "gemini-2.5-flash-image"
)

// GeminiGenerator implements ImageGenerator using Google's Gemini API.
type GeminiGenerator struct {
	client *genai.Client
}

var _ schnell.ImageGenerator = (*GeminiGenerator)(nil)

// New creates a new GeminiGenerator from a ProviderConfig.
func New(ctx context.Context, config *schnell.ProviderConfig) (*GeminiGenerator, error) {
	if config == nil {
		config = &schnell.ProviderConfig{}
	}

	clientCfg := &genai.ClientConfig{
		Backend: genai.BackendGeminiAPI,
	}

	if config.APIKey != "" {
		clientCfg.APIKey = config.APIKey
	}
	// If APIKey is empty, the SDK will try GOOGLE_API_KEY or GEMINI_API_KEY env vars

	if config.BaseURL != "" {
		clientCfg.HTTPOptions.BaseURL = config.BaseURL
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiGenerator{
		client: client,
	}, nil
}

// NewWithAPIKey creates a generator with an API key for Gemini API.
func NewWithAPIKey(ctx context.Context, apiKey string) (*GeminiGenerator, error) {
	return New(ctx, &schnell.ProviderConfig{
		Provider: schnell.ProviderGeminiAPI,
		APIKey:   apiKey,
	})
}

// Generate creates images from a text prompt.
func (g *GeminiGenerator) Generate(ctx context.Context, prompt string, config *schnell.GenerateConfig) (*schnell.GenerateResult, error) {
	if err := schnell.ValidatePrompt(prompt); err != nil {
		return nil, err
	}

	if config == nil {
		config = schnell.DefaultConfig()
	}

	modelName := g.resolveModel(config)

	contents := []*genai.Content{
		{
			Parts: []*genai.Part{
				{Text: prompt},
			},
		},
	}

	result, err := g.client.Models.GenerateContent(ctx, modelName, contents, buildGenerateContentConfig(config))
	if err != nil {
		return nil, checkRateLimitError(err, modelName)
	}

	return parseResult(result)
}

// Models returns the model definitions supported by this provider.
// The first model (NanoBanana2) is the default.
func (g *GeminiGenerator) Models() []schnell.ModelInfo {
	return []schnell.ModelInfo{
		NanoBanana2Info,
		NanoBanana1Info,
	}
}

// Close releases any resources held by the generator.
func (g *GeminiGenerator) Close() error {
	// The genai.Client doesn't require explicit closing in the current SDK
	return nil
}

// resolveModel determines which API model name to use.
// Falls back to the first model (default) if none specified.
func (g *GeminiGenerator) resolveModel(config *schnell.GenerateConfig) string {
	if config != nil && config.Model != schnell.ModelDefault {
		return string(config.Model)
	}
	return g.Models()[0].APIModelName
}

// buildGenerateContentConfig converts our config to Gemini's GenerateContentConfig format.
func buildGenerateContentConfig(config *schnell.GenerateConfig) *genai.GenerateContentConfig {
	genConfig := &genai.GenerateContentConfig{
		// Enable image output
		ResponseModalities: []string{"TEXT", "IMAGE"},
	}

	imageConfig := &genai.ImageConfig{}
	if config.Size != "" {
		imageConfig.ImageSize = config.Size.String()
	}
	if config.AspectRatio != "" {
		imageConfig.AspectRatio = config.AspectRatio.String()
	}
	genConfig.ImageConfig = imageConfig

	return genConfig
}

// parseResult converts Gemini response to our result type.
func parseResult(result *genai.GenerateContentResponse) (*schnell.GenerateResult, error) {
	if result == nil || len(result.Candidates) == 0 {
		return nil, fmt.Errorf("%w: empty response from model", schnell.ErrGenerationFailed)
	}

	genResult := &schnell.GenerateResult{
		Images: make([]schnell.GeneratedImage, 0),
	}

	imageIndex := 0
	for _, candidate := range result.Candidates {
		if candidate.Content == nil {
			continue
		}

		for _, part := range candidate.Content.Parts {
			if part.Thought {
				continue
			}

			if part.Text != "" {
				genResult.Text += part.Text
			}

			if part.InlineData != nil && part.InlineData.Data != nil {
				mimeType := part.InlineData.MIMEType
				if mimeType == "" {
					detected, err := schnell.DetectImage(part.InlineData.Data)
					if err != nil {
						return nil, err
					}
					mimeType = detected
				}
				genResult.Images = append(genResult.Images, schnell.GeneratedImage{
					Data:     part.InlineData.Data,
					MIMEType: mimeType,
					Index:    imageIndex,
				})
				imageIndex++
			}
		}
	}

	if len(genResult.Images) == 0 {
		return nil, fmt.Errorf("%w: no image in response", schnell.ErrInvalidImage)
	}

	if result.UsageMetadata != nil {
		genResult.UsageMetadata = &schnell.UsageMetadata{
			PromptTokens:     int(result.UsageMetadata.PromptTokenCount),
			CandidatesTokens: int(result.UsageMetadata.CandidatesTokenCount),
			TotalTokens:      int(result.UsageMetadata.TotalTokenCount),
			ImageCount:       len(genResult.Images),
		}
	}

	return genResult, nil
}

// checkRateLimitError maps a Gemini API error onto the schnell error types.
// 429/RESOURCE_EXHAUSTED becomes a RateLimitError; everything else wraps
// ErrGenerationFailed.
func checkRateLimitError(err error, model string) error {
	var apiErr genai.APIError
	if !errors.As(err, &apiErr) {
		return fmt.Errorf("%w: %w", schnell.ErrGenerationFailed, err)
	}

	stErr := &schnell.StatusError{StatusCode: apiErr.Code, Model: model}
	if apiErr.Code != 429 && apiErr.Status != "RESOURCE_EXHAUSTED" {
		return fmt.Errorf("%w: %s", stErr, apiErr.Message)
	}

	return &schnell.RateLimitError{
		RetryAfter: 60 * time.Second, // Default; API doesn't reliably provide Retry-After
		LimitType:  "requests",
		Model:      model,
		Err:        stErr,
	}
}
