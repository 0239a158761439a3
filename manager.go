package schnell

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mhpenta/schnell/ratelimiter"
)

const (
	ModelFluxSchnell Model = "flux-schnell" // black-forest-labs/FLUX.1-schnell on HuggingFace

	// ModelDefault asks the Manager for its default model. It never names a
	// registered model.
	ModelDefault Model = ""
)

var (
	// ErrModelNotRegistered is returned when a model has no registered provider.
	ErrModelNotRegistered = errors.New("model not registered")

	// ErrProviderNotConfigured is returned when a provider lacks required config.
	ErrProviderNotConfigured = errors.New("provider not configured")
)

// Provider represents a model provider/backend.
type Provider string

const (
	ProviderHuggingFace Provider = "huggingface"
	ProviderGeminiAPI   Provider = "gemini"
	ProviderOpenAI      Provider = "openai"
)

// ProviderConfig configures a specific provider.
type ProviderConfig struct {
	// Provider type
	Provider Provider

	// APIKey for authentication
	APIKey string

	// BaseURL for custom endpoints (optional)
	BaseURL string
}

// ModelMapping maps a model identifier to its provider and actual model name.
type ModelMapping struct {
	Provider        Provider
	ActualModelName string
}

// Manager implements ImageGenerator, routing requests to the appropriate
// provider based on the Model in GenerateConfig.
type Manager struct {
	// Model to provider mapping
	modelMappings map[Model]ModelMapping

	// Provider instances
	providers map[Provider]ImageGenerator

	// Default model to use when config.Model is empty
	defaultModel Model

	// Rate limiting (per model)
	rateLimiters ratelimiter.Registry

	// Model info (per model)
	modelInfo map[Model]*ModelInfo

	logger *slog.Logger

	// Storage for exporting generated images (optional)
	storage Storage

	mu sync.RWMutex
}

// Ensure Manager implements the interface.
var _ ImageGenerator = (*Manager)(nil)

// New creates a new, empty Manager.
func New() *Manager {
	return &Manager{
		logger:        slog.Default(),
		modelMappings: make(map[Model]ModelMapping),
		providers:     make(map[Provider]ImageGenerator),
		rateLimiters:  ratelimiter.NewRegistry(),
		modelInfo:     make(map[Model]*ModelInfo),
		defaultModel:  ModelFluxSchnell,
	}
}

// Register adds every model of gen to the manager under gen's provider.
// Models already registered by another provider are replaced.
func (m *Manager) Register(gen ImageGenerator) *Manager {
	models := gen.Models()
	for i := range models {
		info := &models[i]

		m.mu.Lock()
		m.providers[info.Provider] = gen
		m.mu.Unlock()

		m.RegisterModel(Model(info.Name),
			ModelMapping{
				Provider:        info.Provider,
				ActualModelName: info.APIModelName,
			},
			info)
	}
	return m
}

// RegisterModel registers a model with full info (including rate limits).
// Uses the default in-memory rate limiter. Use SetRateLimiter to override with a custom implementation.
func (m *Manager) RegisterModel(model Model, mapping ModelMapping, info *ModelInfo) *Manager {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.modelMappings[model] = mapping
	m.modelInfo[model] = info

	if info.RateLimits.TokensPerMinute > 0 || info.RateLimits.RequestsPerMinute > 0 {
		m.rateLimiters.Set(string(model), ratelimiter.New(
			info.RateLimits.TokensPerMinute,
			info.RateLimits.RequestsPerMinute,
		))
	}

	return m
}

// SetRateLimiter sets a custom rate limiter for a model. A nil limiter removes it.
func (m *Manager) SetRateLimiter(model Model, limiter ratelimiter.Limiter) *Manager {
	m.rateLimiters.Set(string(model), limiter)
	return m
}

// SetDefaultModel sets the default model used when config.Model is empty.
func (m *Manager) SetDefaultModel(model Model) *Manager {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.defaultModel = model
	return m
}

// DefaultModel returns the model used when config.Model is empty.
func (m *Manager) DefaultModel() Model {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.defaultModel
}

// SetLogger sets a structured logger for the manager.
// When set, the manager logs generation requests, completions, errors, and rate limiting events.
func (m *Manager) SetLogger(logger *slog.Logger) *Manager {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.logger = logger
	return m
}

// SetStorage sets a storage backend for exporting generated images.
func (m *Manager) SetStorage(storage Storage) *Manager {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.storage = storage
	return m
}

// Storage returns the configured storage backend, or nil if not set.
func (m *Manager) Storage() Storage {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.storage
}

// SaveImage saves img to the configured storage under baseName.
// If no storage is configured, returns ErrStorageNotConfigured.
func (m *Manager) SaveImage(ctx context.Context, img GeneratedImage, baseName string) (StorageResult, error) {
	return SaveImage(ctx, m.Storage(), img, baseName)
}

// Generate creates images from a text prompt. It makes at most one provider
// call; failures are returned as-is and never retried.
func (m *Manager) Generate(ctx context.Context, prompt string, config *GenerateConfig) (*GenerateResult, error) {
	if config == nil {
		config = DefaultConfig()
	}

	model := m.resolveModel(config)
	logger := m.log()
	start := time.Now()

	logger.Debug("starting image generation",
		"model", string(model),
		"prompt_length", len(prompt),
	)

	if err := m.checkRateLimit(ctx, model, config, prompt); err != nil {
		logger.Warn("rate limit hit",
			"model", string(model),
			"error", err.Error(),
		)
		return nil, err
	}

	gen, actualConfig, err := m.getGeneratorForConfig(config)
	if err != nil {
		logger.Error("failed to get generator",
			"model", string(model),
			"error", err.Error(),
		)
		return nil, err
	}

	result, err := gen.Generate(ctx, prompt, actualConfig)
	duration := time.Since(start)

	if err != nil {
		attrs := []any{
			"model", string(model),
			"duration_ms", duration.Milliseconds(),
			"error", err.Error(),
		}
		if code := StatusCode(err); code != 0 {
			attrs = append(attrs, "status", code)
		}
		logger.Error("generation failed", attrs...)
		return nil, err
	}

	logAttrs := []any{
		"model", string(model),
		"duration_ms", duration.Milliseconds(),
		"image_count", len(result.Images),
	}
	if img, ok := result.First(); ok {
		logAttrs = append(logAttrs, "mime_type", img.MIMEType, "image_bytes", len(img.Data))
	}
	if result.UsageMetadata != nil {
		logAttrs = append(logAttrs,
			"prompt_tokens", result.UsageMetadata.PromptTokens,
			"total_tokens", result.UsageMetadata.TotalTokens,
		)
	}
	logger.Info("generation completed", logAttrs...)

	return result, nil
}

// Models returns all registered model definitions.
func (m *Manager) Models() []ModelInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()

	models := make([]ModelInfo, 0, len(m.modelInfo))
	for _, info := range m.modelInfo {
		if info != nil {
			models = append(models, *info)
		}
	}
	return models
}

// Close releases all provider resources.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var errs []error
	for provider, gen := range m.providers {
		if err := gen.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing %s: %w", provider, err))
		}
	}
	m.providers = make(map[Provider]ImageGenerator)

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// ListModels returns all registered models.
func (m *Manager) ListModels() []Model {
	m.mu.RLock()
	defer m.mu.RUnlock()

	models := make([]Model, 0, len(m.modelMappings))
	for model := range m.modelMappings {
		models = append(models, model)
	}
	return models
}

// GetModelProvider returns the provider for a model.
func (m *Manager) GetModelProvider(model Model) (Provider, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	mapping, ok := m.modelMappings[model]
	if !ok {
		return "", false
	}
	return mapping.Provider, true
}

// GetModelInfo returns model information for a specific model.
func (m *Manager) GetModelInfo(model Model) (*ModelInfo, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	info, ok := m.modelInfo[model]
	return info, ok
}

func (m *Manager) log() *slog.Logger {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.logger
}

// checkRateLimit checks the model's local limiter and optionally waits.
func (m *Manager) checkRateLimit(ctx context.Context, model Model, config *GenerateConfig, prompt string) error {
	limiter, ok := m.rateLimiters.Lookup(string(model))
	if !ok {
		return nil
	}

	cost := ratelimiter.PromptCost(prompt)

	if config.WaitOnRateLimit {
		return limiter.WaitAndConsume(ctx, cost, config.MaxWaitDuration)
	}

	if !limiter.TryConsume(cost) {
		return &RateLimitError{
			RetryAfter: limiter.TimeUntilAvailable(cost),
			LimitType:  "tokens",
			Model:      string(model),
		}
	}

	return nil
}

// resolveModel determines the actual model to use.
func (m *Manager) resolveModel(config *GenerateConfig) Model {
	if config != nil && config.Model != ModelDefault {
		return config.Model
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.defaultModel
}

// getGeneratorForConfig returns the appropriate generator and adjusted config.
func (m *Manager) getGeneratorForConfig(config *GenerateConfig) (ImageGenerator, *GenerateConfig, error) {
	model := m.resolveModel(config)

	m.mu.RLock()
	mapping, ok := m.modelMappings[model]
	m.mu.RUnlock()

	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", ErrModelNotRegistered, model)
	}

	gen, err := m.getProvider(mapping.Provider)
	if err != nil {
		return nil, nil, err
	}

	actualConfig := config
	if actualConfig == nil {
		actualConfig = DefaultConfig()
	}
	configCopy := *actualConfig
	configCopy.Model = Model(mapping.ActualModelName)

	return gen, &configCopy, nil
}

// getProvider returns the provider instance for the given provider type.
func (m *Manager) getProvider(provider Provider) (ImageGenerator, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	gen, ok := m.providers[provider]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrProviderNotConfigured, provider)
	}
	return gen, nil
}
