package schnell

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidDataURL is returned by DecodeDataURL for anything that is not a
// base64 data URL.
var ErrInvalidDataURL = errors.New("invalid data URL")

const dataURLPrefix = "data:"

// EncodeDataURL renders image bytes as "data:<mime>;base64,<payload>", the
// same form a browser FileReader produces, so entries can be displayed and
// stored without further fetches.
func EncodeDataURL(data []byte, mimeType string) string {
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	var b strings.Builder
	b.Grow(len(dataURLPrefix) + len(mimeType) + len(";base64,") + base64.StdEncoding.EncodedLen(len(data)))
	b.WriteString(dataURLPrefix)
	b.WriteString(mimeType)
	b.WriteString(";base64,")
	b.WriteString(base64.StdEncoding.EncodeToString(data))
	return b.String()
}

// DecodeDataURL returns the bytes and MIME type carried by a base64 data URL.
func DecodeDataURL(dataURL string) ([]byte, string, error) {
	rest, ok := strings.CutPrefix(dataURL, dataURLPrefix)
	if !ok {
		return nil, "", fmt.Errorf("%w: missing %q prefix", ErrInvalidDataURL, dataURLPrefix)
	}

	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, "", fmt.Errorf("%w: missing payload", ErrInvalidDataURL)
	}

	mimeType, ok := strings.CutSuffix(meta, ";base64")
	if !ok {
		return nil, "", fmt.Errorf("%w: not base64 encoded", ErrInvalidDataURL)
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %w", ErrInvalidDataURL, err)
	}
	return data, mimeType, nil
}
