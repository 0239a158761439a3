package schnell

import (
	"time"
)

// Model represents a specific image generation model.
type Model string

// ImageSize represents the output resolution for providers that accept one.
type ImageSize string

const (
	ImageSize1K ImageSize = "1K"
	ImageSize2K ImageSize = "2K"
)

// AspectRatio represents the aspect ratio for providers that accept one.
type AspectRatio string

const (
	AspectRatio1x1  AspectRatio = "1:1"
	AspectRatio16x9 AspectRatio = "16:9"
	AspectRatio9x16 AspectRatio = "9:16"
	AspectRatio4x3  AspectRatio = "4:3"
	AspectRatio3x4  AspectRatio = "3:4"
	AspectRatioAuto AspectRatio = ""
)

// GenerateConfig holds configuration options for image generation.
// The HuggingFace provider sends the prompt as its only payload field and
// ignores Size and AspectRatio.
type GenerateConfig struct {
	// Model to use for generation. ModelDefault (empty) uses the manager's
	// default model.
	Model Model

	// Size of the output image, for providers that support it
	Size ImageSize

	// AspectRatio of the output image, for providers that support it
	AspectRatio AspectRatio

	// WaitOnRateLimit, if true, causes the Manager to wait for local rate limit
	// capacity before sending the request. If false, a RateLimitError is
	// returned immediately. The request itself is still sent at most once.
	WaitOnRateLimit bool

	// MaxWaitDuration is the maximum time to wait when WaitOnRateLimit is true.
	// Zero means no limit.
	MaxWaitDuration time.Duration
}

// DefaultConfig returns a GenerateConfig that uses the manager's default model.
func DefaultConfig() *GenerateConfig {
	return &GenerateConfig{
		Model:       ModelDefault,
		AspectRatio: AspectRatioAuto,
	}
}

// String returns the string representation for API calls.
func (s ImageSize) String() string {
	return string(s)
}

// String returns the string representation for API calls.
func (a AspectRatio) String() string {
	return string(a)
}

// String returns the model identifier.
func (m Model) String() string {
	return string(m)
}
