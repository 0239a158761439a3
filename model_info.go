package schnell

// ModelCapabilities describes what features a model supports.
type ModelCapabilities struct {
	SupportsTextToImage bool
	SupportsAspectRatio bool
	SupportsSize        bool
	MaxOutputImages     int
}

// RateLimits defines client-side rate limiting parameters for a model.
// Zero values disable the corresponding limit.
type RateLimits struct {
	TokensPerMinute   int
	RequestsPerMinute int
}

// ModelInfo contains complete metadata for a model.
type ModelInfo struct {
	// Identity
	Name         string   // Public model name (e.g., "flux-schnell")
	Provider     Provider // Which provider serves this model
	APIModelName string   // Actual API name (e.g., "black-forest-labs/FLUX.1-schnell")

	Capabilities ModelCapabilities

	RateLimits RateLimits
}
