// Package huggingface provides an ImageGenerator backed by the HuggingFace
// serverless Inference API.
//
// A request is a single POST of {"inputs": prompt} to
// <endpoint>/<model>; a 2xx response body is the raw image.
package huggingface

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/mhpenta/schnell"
)

// DefaultEndpoint is the base URL models are appended to.
const DefaultEndpoint = "https://api-inference.huggingface.co/models"

// APIModelFluxSchnell is the HuggingFace repository id of FLUX.1-schnell.
const APIModelFluxSchnell = "black-forest-labs/FLUX.1-schnell"

// Doer sends an HTTP request. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Generator implements schnell.ImageGenerator against the Inference API.
type Generator struct {
	apiKey   string
	endpoint string
	client   Doer
}

var _ schnell.ImageGenerator = (*Generator)(nil)

// Option configures a Generator.
type Option func(*Generator)

// WithHTTPClient replaces the HTTP client. The default client has no timeout;
// requests live as long as the caller's context.
func WithHTTPClient(client Doer) Option {
	return func(g *Generator) {
		if client != nil {
			g.client = client
		}
	}
}

// WithEndpoint overrides the base URL, e.g. for a dedicated inference endpoint.
func WithEndpoint(endpoint string) Option {
	return func(g *Generator) {
		if endpoint != "" {
			g.endpoint = strings.TrimRight(endpoint, "/")
		}
	}
}

// New creates a Generator from a ProviderConfig. An empty API key is accepted;
// the endpoint then answers 401 like any other failed request.
func New(config *schnell.ProviderConfig, opts ...Option) *Generator {
	if config == nil {
		config = &schnell.ProviderConfig{}
	}

	g := &Generator{
		apiKey:   config.APIKey,
		endpoint: DefaultEndpoint,
		client:   &http.Client{},
	}
	if config.BaseURL != "" {
		g.endpoint = strings.TrimRight(config.BaseURL, "/")
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// NewWithAPIKey creates a Generator with an access token.
func NewWithAPIKey(apiKey string, opts ...Option) *Generator {
	return New(&schnell.ProviderConfig{
		Provider: schnell.ProviderHuggingFace,
		APIKey:   apiKey,
	}, opts...)
}

type inferenceRequest struct {
	Inputs string `json:"inputs"`
}

// Generate sends the prompt unchanged and returns the image from the response
// body. It performs exactly one request.
func (g *Generator) Generate(ctx context.Context, prompt string, config *schnell.GenerateConfig) (*schnell.GenerateResult, error) {
	if err := schnell.ValidatePrompt(prompt); err != nil {
		return nil, err
	}

	modelName := g.resolveModel(config)

	body, err := json.Marshal(inferenceRequest{Inputs: prompt})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint+"/"+modelName, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", schnell.ErrGenerationFailed, err)
	}
	req.Header.Set("Authorization", "Bearer "+g.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", schnell.ErrGenerationFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain so the connection can be reused; the body is not interpreted.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return nil, statusError(resp, modelName)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, schnell.MaxImageSize+1))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %w", schnell.ErrGenerationFailed, err)
	}

	mimeType, err := schnell.DetectImage(data)
	if err != nil {
		return nil, err
	}

	return &schnell.GenerateResult{
		Images: []schnell.GeneratedImage{{
			Data:     data,
			MIMEType: mimeType,
		}},
	}, nil
}

// Models returns the model definitions supported by this provider.
func (g *Generator) Models() []schnell.ModelInfo {
	return []schnell.ModelInfo{FluxSchnellInfo}
}

// Close releases idle connections when the client is an *http.Client.
func (g *Generator) Close() error {
	if c, ok := g.client.(*http.Client); ok {
		c.CloseIdleConnections()
	}
	return nil
}

func (g *Generator) resolveModel(config *schnell.GenerateConfig) string {
	if config != nil && config.Model != schnell.ModelDefault {
		return config.Model.String()
	}
	return APIModelFluxSchnell
}

func statusError(resp *http.Response, model string) error {
	stErr := &schnell.StatusError{StatusCode: resp.StatusCode, Model: model}
	if resp.StatusCode != http.StatusTooManyRequests {
		return stErr
	}
	return &schnell.RateLimitError{
		RetryAfter: retryAfter(resp.Header.Get("Retry-After")),
		LimitType:  "requests",
		Model:      model,
		Err:        stErr,
	}
}

// retryAfter parses a Retry-After header given in seconds. Anything else
// yields a one minute default.
func retryAfter(v string) time.Duration {
	if secs, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	return time.Minute
}
