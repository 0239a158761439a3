package preview

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mhpenta/schnell"
)

func pngDataURL(t *testing.T, w, h int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 10), G: uint8(y * 10), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return schnell.EncodeDataURL(buf.Bytes(), "image/png")
}

func TestInspect(t *testing.T) {
	info, err := Inspect(pngDataURL(t, 16, 8))
	require.NoError(t, err)
	assert.Equal(t, "png", info.Format)
	assert.Equal(t, "image/png", info.MIMEType)
	assert.Equal(t, 16, info.Width)
	assert.Equal(t, 8, info.Height)
	assert.Contains(t, info.String(), "png 16x8")

	_, err = Inspect(schnell.EncodeDataURL([]byte("not an image"), "image/png"))
	assert.Error(t, err)

	_, err = Inspect("https://example.com/a.png")
	assert.ErrorIs(t, err, schnell.ErrInvalidDataURL)
}

func TestRender_FitsAndKeepsAspect(t *testing.T) {
	r := NewRenderer(time.Minute)

	// 2:1 image into a 10x10 cell box: 10 wide, 5 pixel rows -> 3 text lines.
	p, err := r.Render(pngDataURL(t, 40, 20), 10, 10)
	require.NoError(t, err)

	lines := strings.Split(p.Thumbnail, "\n")
	assert.Len(t, lines, 3)
	assert.Equal(t, 10, strings.Count(lines[0], halfBlock))
	assert.Equal(t, 40, p.Info.Width)
}

func TestRender_TallImage(t *testing.T) {
	r := NewRenderer(time.Minute)

	// 1:2 image into 10 cols x 5 rows (10 pixel rows): 5 wide, 10 high.
	p, err := r.Render(pngDataURL(t, 10, 20), 10, 5)
	require.NoError(t, err)

	lines := strings.Split(p.Thumbnail, "\n")
	assert.Len(t, lines, 5)
	assert.Equal(t, 5, strings.Count(lines[0], halfBlock))
}

func TestRender_Cached(t *testing.T) {
	r := NewRenderer(time.Minute)
	url := pngDataURL(t, 4, 4)

	first, err := r.Render(url, 4, 2)
	require.NoError(t, err)
	assert.Equal(t, 1, r.cache.ItemCount())

	second, err := r.Render(url, 4, 2)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, r.cache.ItemCount())

	_, err = r.Render(url, 8, 4)
	require.NoError(t, err)
	assert.Equal(t, 2, r.cache.ItemCount())
}

func TestRender_Errors(t *testing.T) {
	r := NewRenderer(time.Minute)

	_, err := r.Render(pngDataURL(t, 4, 4), 0, 4)
	assert.Error(t, err)

	_, err = r.Render(schnell.EncodeDataURL([]byte("garbage"), "image/png"), 4, 4)
	assert.Error(t, err)
}

func TestHumanBytes(t *testing.T) {
	assert.Equal(t, "512 B", humanBytes(512))
	assert.Equal(t, "1.5 KiB", humanBytes(1536))
	assert.Equal(t, "2.0 MiB", humanBytes(2<<20))
}
