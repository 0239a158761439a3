package schnell

// GeneratedImage represents a single generated image result.
type GeneratedImage struct {
	// Data contains the raw image bytes
	Data []byte

	// MIMEType of the generated image
	MIMEType string

	// Index is the position in a multi-image result (0-indexed)
	Index int
}

// DataURL returns the image as a self-contained data URL.
func (img GeneratedImage) DataURL() string {
	return EncodeDataURL(img.Data, img.MIMEType)
}

// GenerateResult holds the complete result of an image generation request.
type GenerateResult struct {
	// Images contains all generated images
	Images []GeneratedImage

	// Text contains any text response from the model
	Text string

	// UsageMetadata contains token/billing information, when the provider reports it
	UsageMetadata *UsageMetadata
}

// First returns the first image of the result.
func (r *GenerateResult) First() (GeneratedImage, bool) {
	if r == nil || len(r.Images) == 0 {
		return GeneratedImage{}, false
	}
	return r.Images[0], true
}

// UsageMetadata contains usage information for billing and monitoring.
type UsageMetadata struct {
	PromptTokens     int
	CandidatesTokens int
	TotalTokens      int
	ImageCount       int
}
