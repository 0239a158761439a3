// Package studio ties prompt submission, image generation and the gallery
// together: a Service turns a prompt into a gallery entry and a Controller
// owns the session state around it.
package studio

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mhpenta/schnell"
	"github.com/mhpenta/schnell/gallery"
)

// EntryGenerator turns a prompt into a gallery entry with exactly one
// outbound request.
type EntryGenerator interface {
	Generate(ctx context.Context, prompt string) (gallery.HistoryEntry, error)
}

// Service is the EntryGenerator backed by a schnell.ImageGenerator.
type Service struct {
	gen    schnell.ImageGenerator
	config *schnell.GenerateConfig
	logger *slog.Logger
}

var _ EntryGenerator = (*Service)(nil)

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithGenerateConfig sets the config passed on every request.
func WithGenerateConfig(config *schnell.GenerateConfig) ServiceOption {
	return func(s *Service) {
		if config != nil {
			s.config = config
		}
	}
}

// WithServiceLogger sets the service logger.
func WithServiceLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewService wraps gen, typically a *schnell.Manager.
func NewService(gen schnell.ImageGenerator, opts ...ServiceOption) *Service {
	s := &Service{
		gen:    gen,
		config: schnell.DefaultConfig(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Generate sends prompt as-is and returns {prompt, data URL of the image}.
// Any failure wraps schnell.ErrGenerationFailed.
func (s *Service) Generate(ctx context.Context, prompt string) (gallery.HistoryEntry, error) {
	result, err := s.gen.Generate(ctx, prompt, s.config)
	if err != nil {
		if !schnell.IsGenerationError(err) {
			err = fmt.Errorf("%w: %w", schnell.ErrGenerationFailed, err)
		}
		return gallery.HistoryEntry{}, err
	}

	img, ok := result.First()
	if !ok {
		return gallery.HistoryEntry{}, fmt.Errorf("%w: no image in result", schnell.ErrInvalidImage)
	}

	s.logger.Debug("image encoded", "mime_type", img.MIMEType, "image_bytes", len(img.Data))

	return gallery.HistoryEntry{
		Prompt:   prompt,
		ImageURL: img.DataURL(),
	}, nil
}
