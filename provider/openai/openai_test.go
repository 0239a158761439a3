package openai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/openai/openai-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mhpenta/schnell"
)

var pngBytes = []byte("\x89PNG\x0D\x0A\x1A\x0A\x00\x00\x00\x0DIHDR")

func newTestGenerator(t *testing.T, handler http.HandlerFunc) (*Generator, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	gen := New(&schnell.ProviderConfig{APIKey: "sk-test", BaseURL: srv.URL + "/v1/"},
		option.WithHTTPClient(srv.Client()))
	return gen, &calls
}

func TestGenerate(t *testing.T) {
	gen, calls := newTestGenerator(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/images/generations", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "a koi pond", body["prompt"])
		assert.Equal(t, "b64_json", body["response_format"])
		assert.Equal(t, "1792x1024", body["size"])

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"created": 1,
			"data": []map[string]any{{
				"b64_json":       base64.StdEncoding.EncodeToString(pngBytes),
				"revised_prompt": "a tranquil koi pond",
			}},
		})
	})

	result, err := gen.Generate(context.Background(), "a koi pond", &schnell.GenerateConfig{AspectRatio: schnell.AspectRatio16x9})
	require.NoError(t, err)
	img, ok := result.First()
	require.True(t, ok)
	assert.Equal(t, "image/png", img.MIMEType)
	assert.Equal(t, "a tranquil koi pond", result.Text)
	assert.Equal(t, int32(1), calls.Load())
}

func TestGenerate_ServerErrorIsNotRetried(t *testing.T) {
	gen, calls := newTestGenerator(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":{"message":"boom","type":"server_error"}}`))
	})

	_, err := gen.Generate(context.Background(), "a koi pond", nil)
	assert.ErrorIs(t, err, schnell.ErrGenerationFailed)
	assert.Equal(t, http.StatusInternalServerError, schnell.StatusCode(err))
	assert.Equal(t, int32(1), calls.Load())
}

func TestGenerate_RateLimited(t *testing.T) {
	gen, calls := newTestGenerator(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"slow down","type":"rate_limit"}}`))
	})

	_, err := gen.Generate(context.Background(), "a koi pond", nil)
	assert.True(t, schnell.IsRateLimitError(err))
	assert.ErrorIs(t, err, schnell.ErrGenerationFailed)
	assert.Equal(t, int32(1), calls.Load())
}

func TestParseResponse_Invalid(t *testing.T) {
	_, err := parseResponse(nil)
	assert.ErrorIs(t, err, schnell.ErrInvalidImage)
}

func TestSizeFor(t *testing.T) {
	_, ok := sizeFor(schnell.AspectRatioAuto)
	assert.False(t, ok)

	size, ok := sizeFor(schnell.AspectRatio9x16)
	assert.True(t, ok)
	assert.EqualValues(t, "1024x1792", size)
}
