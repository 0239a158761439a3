package huggingface

import "github.com/mhpenta/schnell"

// FluxSchnellInfo is the model info for FLUX.1 [schnell], the 1-4 step
// distilled text-to-image model from Black Forest Labs.
var FluxSchnellInfo = schnell.ModelInfo{
	Name:         string(schnell.ModelFluxSchnell),
	Provider:     schnell.ProviderHuggingFace,
	APIModelName: APIModelFluxSchnell,

	Capabilities: schnell.ModelCapabilities{
		SupportsTextToImage: true,
		MaxOutputImages:     1,
	},

	// The serverless tier does not publish limits; requests are not throttled
	// locally and a 429 from the endpoint is reported as a RateLimitError.
	RateLimits: schnell.RateLimits{},
}
