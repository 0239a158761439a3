package schnell

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Validation errors
var (
	ErrEmptyPrompt     = errors.New("prompt cannot be empty")
	ErrEmptyImageData  = errors.New("image data cannot be empty")
	ErrInvalidMIMEType = errors.New("invalid or unsupported MIME type")
	ErrImageTooLarge   = errors.New("image data exceeds maximum size")

	// ErrInvalidImage is returned when a response body cannot be used as an image.
	ErrInvalidImage = fmt.Errorf("%w: response is not a valid image", ErrGenerationFailed)
)

// MaxImageSize is the maximum accepted image payload in bytes (20MB).
const MaxImageSize = 20 * 1024 * 1024

// ValidMIMETypes contains the supported image MIME types
var ValidMIMETypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
	"image/gif":  true,
}

// ValidatePrompt validates a text prompt. Whitespace-only prompts are empty.
func ValidatePrompt(prompt string) error {
	if strings.TrimSpace(prompt) == "" {
		return ErrEmptyPrompt
	}
	return nil
}

// DetectImage sniffs the MIME type of data and checks it is a supported image.
// Every failure wraps ErrInvalidImage.
func DetectImage(data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("%w: %w", ErrInvalidImage, ErrEmptyImageData)
	}
	if len(data) > MaxImageSize {
		return "", fmt.Errorf("%w: %w: %d bytes (max %d)", ErrInvalidImage, ErrImageTooLarge, len(data), MaxImageSize)
	}

	mimeType := http.DetectContentType(data)
	if !ValidMIMETypes[mimeType] {
		return "", fmt.Errorf("%w: %w: %s", ErrInvalidImage, ErrInvalidMIMEType, mimeType)
	}
	return mimeType, nil
}
