// Package openai provides an ImageGenerator backed by the OpenAI Images API
// (or any compatible endpoint).
package openai

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/mhpenta/schnell"
)

// APIModelDallE3 is the default Images API model.
const APIModelDallE3 = "dall-e-3"

// DallE3Info describes dall-e-3 as served by the Images API.
var DallE3Info = schnell.ModelInfo{
	Name:         "dall-e-3",
	Provider:     schnell.ProviderOpenAI,
	APIModelName: APIModelDallE3,

	Capabilities: schnell.ModelCapabilities{
		SupportsTextToImage: true,
		SupportsAspectRatio: true,
		MaxOutputImages:     1,
	},
}

// Generator implements schnell.ImageGenerator with openai-go.
type Generator struct {
	client openai.Client
}

var _ schnell.ImageGenerator = (*Generator)(nil)

// New creates a Generator. The SDK's automatic retries are disabled so every
// Generate call sends one request.
func New(config *schnell.ProviderConfig, opts ...option.RequestOption) *Generator {
	if config == nil {
		config = &schnell.ProviderConfig{}
	}

	reqOpts := []option.RequestOption{option.WithMaxRetries(0)}
	if config.APIKey != "" {
		reqOpts = append(reqOpts, option.WithAPIKey(config.APIKey))
	}
	if config.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(config.BaseURL))
	}
	reqOpts = append(reqOpts, opts...)

	return &Generator{client: openai.NewClient(reqOpts...)}
}

// NewWithAPIKey creates a Generator for api.openai.com.
func NewWithAPIKey(apiKey string, opts ...option.RequestOption) *Generator {
	return New(&schnell.ProviderConfig{
		Provider: schnell.ProviderOpenAI,
		APIKey:   apiKey,
	}, opts...)
}

// Generate requests a single base64-encoded image for prompt.
func (g *Generator) Generate(ctx context.Context, prompt string, config *schnell.GenerateConfig) (*schnell.GenerateResult, error) {
	if err := schnell.ValidatePrompt(prompt); err != nil {
		return nil, err
	}
	if config == nil {
		config = schnell.DefaultConfig()
	}

	modelName := resolveModel(config)
	params := openai.ImageGenerateParams{
		Prompt:         prompt,
		Model:          openai.ImageModel(modelName),
		N:              openai.Int(1),
		ResponseFormat: openai.ImageGenerateParamsResponseFormatB64JSON,
	}
	if size, ok := sizeFor(config.AspectRatio); ok {
		params.Size = size
	}

	resp, err := g.client.Images.Generate(ctx, params)
	if err != nil {
		return nil, mapError(err, modelName)
	}

	return parseResponse(resp)
}

// Models returns the model definitions supported by this provider.
func (g *Generator) Models() []schnell.ModelInfo {
	return []schnell.ModelInfo{DallE3Info}
}

// Close is a no-op; the SDK client holds no resources of its own.
func (g *Generator) Close() error {
	return nil
}

func resolveModel(config *schnell.GenerateConfig) string {
	if config != nil && config.Model != schnell.ModelDefault {
		return config.Model.String()
	}
	return APIModelDallE3
}

func sizeFor(ratio schnell.AspectRatio) (openai.ImageGenerateParamsSize, bool) {
	switch ratio {
	case schnell.AspectRatio1x1:
		return openai.ImageGenerateParamsSize1024x1024, true
	case schnell.AspectRatio16x9, schnell.AspectRatio4x3:
		return openai.ImageGenerateParamsSize1792x1024, true
	case schnell.AspectRatio9x16, schnell.AspectRatio3x4:
		return openai.ImageGenerateParamsSize1024x1792, true
	default:
		return "", false
	}
}

func parseResponse(resp *openai.ImagesResponse) (*schnell.GenerateResult, error) {
	if resp == nil || len(resp.Data) == 0 {
		return nil, fmt.Errorf("%w: no image in response", schnell.ErrInvalidImage)
	}

	result := &schnell.GenerateResult{}
	for i, img := range resp.Data {
		data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(img.B64JSON))
		if err != nil {
			return nil, fmt.Errorf("%w: %w", schnell.ErrInvalidImage, err)
		}
		mimeType, err := schnell.DetectImage(data)
		if err != nil {
			return nil, err
		}
		result.Images = append(result.Images, schnell.GeneratedImage{
			Data:     data,
			MIMEType: mimeType,
			Index:    i,
		})
		if img.RevisedPrompt != "" {
			result.Text = img.RevisedPrompt
		}
	}

	if resp.Usage.TotalTokens > 0 {
		result.UsageMetadata = &schnell.UsageMetadata{
			PromptTokens: int(resp.Usage.InputTokens),
			TotalTokens:  int(resp.Usage.TotalTokens),
			ImageCount:   len(result.Images),
		}
	}
	return result, nil
}

func mapError(err error, model string) error {
	var apiErr *openai.Error
	if !errors.As(err, &apiErr) {
		return fmt.Errorf("%w: %w", schnell.ErrGenerationFailed, err)
	}

	stErr := &schnell.StatusError{StatusCode: apiErr.StatusCode, Model: model}
	if apiErr.StatusCode != http.StatusTooManyRequests {
		return stErr
	}
	return &schnell.RateLimitError{
		RetryAfter: time.Minute,
		LimitType:  "requests",
		Model:      model,
		Err:        stErr,
	}
}
