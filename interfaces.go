package schnell

import "context"

// ImageGenerator is the core interface for text-to-image models.
// Implement this interface to add support for new models or providers.
//
// The first model returned by Models() is considered the default model.
type ImageGenerator interface {
	// Generate creates images from a text prompt. Implementations make
	// exactly one outbound request per call and never retry.
	Generate(ctx context.Context, prompt string, genConfig *GenerateConfig) (*GenerateResult, error)

	// Models returns the model definitions supported by this provider.
	// The first model in the list is the default.
	Models() []ModelInfo

	// Close releases any resources held by the generator.
	Close() error
}

// Storage is an interface for persisting generated images outside the gallery,
// e.g. downloading the displayed image to a folder.
// Implementations can wrap existing storage clients with this interface.
type Storage interface {
	// SaveFile saves image data and returns a URL the image can be opened from.
	// The path is relative to the storage root (e.g., "a1B2c3D4.png").
	SaveFile(ctx context.Context, data []byte, path string, contentType string) (string, error)
}
