package gemini

import "github.com/mhpenta/schnell"

// NanoBanana2Info is the model info for Gemini 3 Pro Image (nano-banana-2).
var NanoBanana2Info = schnell.ModelInfo{
	Name:         "nano-banana-2",
	Provider:     schnell.ProviderGeminiAPI,
	APIModelName: APIModelNanoBanana2,

	Capabilities: schnell.ModelCapabilities{
		SupportsTextToImage: true,
		SupportsAspectRatio: true,
		SupportsSize:        true,
		MaxOutputImages:     4,
	},

	RateLimits: schnell.RateLimits{
		TokensPerMinute:   4000000,
		RequestsPerMinute: 360,
	},
}

// NanoBanana1Info is the model info for Gemini 2.5 Flash Image, which only
// produces ~1024px output.
var NanoBanana1Info = schnell.ModelInfo{
	Name:         "nano-banana-1",
	Provider:     schnell.ProviderGeminiAPI,
	APIModelName: APIModelNanoBanana1,

	Capabilities: schnell.ModelCapabilities{
		SupportsTextToImage: true,
		SupportsAspectRatio: true,
		MaxOutputImages:     4,
	},

	RateLimits: schnell.RateLimits{
		TokensPerMinute:   4000000,
		RequestsPerMinute: 500, // ~500 RPM for Tier 1
	},
}
