package gemini

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/mhpenta/schnell"
)

var pngBytes = []byte("\x89PNG\x0D\x0A\x1A\x0A\x00\x00\x00\x0DIHDR")

func TestParseResult(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{
				{Text: "planning the scene", Thought: true},
				{Text: "Here is your image."},
				{InlineData: &genai.Blob{Data: pngBytes}},
			}},
		}},
		UsageMetadata: &genai.GenerateContentResponseUsageMetadata{
			PromptTokenCount: 12,
			TotalTokenCount:  1302,
		},
	}

	result, err := parseResult(resp)
	require.NoError(t, err)
	require.Len(t, result.Images, 1)
	assert.Equal(t, "image/png", result.Images[0].MIMEType)
	assert.Equal(t, "Here is your image.", result.Text)
	require.NotNil(t, result.UsageMetadata)
	assert.Equal(t, 1302, result.UsageMetadata.TotalTokens)
	assert.Equal(t, 1, result.UsageMetadata.ImageCount)
}

func TestParseResult_NoImage(t *testing.T) {
	_, err := parseResult(nil)
	assert.ErrorIs(t, err, schnell.ErrGenerationFailed)

	_, err = parseResult(&genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{{Text: "I can't draw that."}}},
		}},
	})
	assert.ErrorIs(t, err, schnell.ErrInvalidImage)
}

func TestCheckRateLimitError(t *testing.T) {
	err := checkRateLimitError(genai.APIError{Code: 429, Status: "RESOURCE_EXHAUSTED"}, APIModelNanoBanana1)
	assert.True(t, schnell.IsRateLimitError(err))
	assert.ErrorIs(t, err, schnell.ErrGenerationFailed)

	err = checkRateLimitError(genai.APIError{Code: 500, Message: "internal"}, APIModelNanoBanana1)
	assert.False(t, schnell.IsRateLimitError(err))
	assert.Equal(t, http.StatusInternalServerError, schnell.StatusCode(err))

	err = checkRateLimitError(errors.New("dial tcp: refused"), APIModelNanoBanana1)
	assert.ErrorIs(t, err, schnell.ErrGenerationFailed)
}

func TestBuildGenerateContentConfig(t *testing.T) {
	cfg := buildGenerateContentConfig(&schnell.GenerateConfig{
		Size:        schnell.ImageSize2K,
		AspectRatio: schnell.AspectRatio16x9,
	})
	assert.Equal(t, []string{"TEXT", "IMAGE"}, cfg.ResponseModalities)
	assert.Equal(t, "2K", cfg.ImageConfig.ImageSize)
	assert.Equal(t, "16:9", cfg.ImageConfig.AspectRatio)
}

func TestResolveModel(t *testing.T) {
	g := &GeminiGenerator{}
	assert.Equal(t, APIModelNanoBanana2, g.resolveModel(nil))
	assert.Equal(t, APIModelNanoBanana2, g.resolveModel(schnell.DefaultConfig()))
	assert.Equal(t, APIModelNanoBanana1, g.resolveModel(&schnell.GenerateConfig{Model: APIModelNanoBanana1}))
}
