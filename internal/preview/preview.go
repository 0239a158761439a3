// Package preview renders a data URL image as a terminal thumbnail built
// from upper half-block cells, two pixels per cell.
package preview

import (
	"bytes"
	"fmt"
	"hash/fnv"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/patrickmn/go-cache"
	_ "golang.org/x/image/webp"

	"github.com/mhpenta/schnell"
)

const halfBlock = "▀"

// Info describes a decoded image.
type Info struct {
	Format   string
	MIMEType string
	Width    int
	Height   int
	Bytes    int
}

func (i Info) String() string {
	return fmt.Sprintf("%s %dx%d, %s", i.Format, i.Width, i.Height, humanBytes(i.Bytes))
}

// Preview is a rendered thumbnail plus the image's metadata.
type Preview struct {
	Info      Info
	Thumbnail string
}

// Renderer decodes images and caches the rendered result per image and size.
type Renderer struct {
	cache *cache.Cache
}

// NewRenderer creates a Renderer whose entries expire after ttl.
func NewRenderer(ttl time.Duration) *Renderer {
	return &Renderer{cache: cache.New(ttl, 2*ttl)}
}

// Inspect returns the metadata of the image in dataURL without decoding pixels.
func Inspect(dataURL string) (Info, error) {
	data, mimeType, err := schnell.DecodeDataURL(dataURL)
	if err != nil {
		return Info{}, err
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Info{}, fmt.Errorf("decode image header: %w", err)
	}
	return Info{
		Format:   format,
		MIMEType: mimeType,
		Width:    cfg.Width,
		Height:   cfg.Height,
		Bytes:    len(data),
	}, nil
}

// Render fits the image into cols x rows cells, keeping its aspect ratio.
func (r *Renderer) Render(dataURL string, cols, rows int) (Preview, error) {
	if cols <= 0 || rows <= 0 {
		return Preview{}, fmt.Errorf("invalid preview size %dx%d", cols, rows)
	}

	key := cacheKey(dataURL, cols, rows)
	if cached, ok := r.cache.Get(key); ok {
		return cached.(Preview), nil
	}

	data, mimeType, err := schnell.DecodeDataURL(dataURL)
	if err != nil {
		return Preview{}, err
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return Preview{}, fmt.Errorf("decode image: %w", err)
	}

	b := img.Bounds()
	p := Preview{
		Info: Info{
			Format:   format,
			MIMEType: mimeType,
			Width:    b.Dx(),
			Height:   b.Dy(),
			Bytes:    len(data),
		},
		Thumbnail: thumbnail(img, cols, rows),
	}
	r.cache.SetDefault(key, p)
	return p, nil
}

// thumbnail samples img nearest-neighbour into at most cols x rows cells.
func thumbnail(img image.Image, cols, rows int) string {
	b := img.Bounds()
	if b.Empty() {
		return ""
	}

	w, h := fit(b.Dx(), b.Dy(), cols, rows*2)

	var sb strings.Builder
	for y := 0; y < h; y += 2 {
		if y > 0 {
			sb.WriteByte('\n')
		}
		for x := 0; x < w; x++ {
			top := sample(img, x, y, w, h)
			style := lipgloss.NewStyle().Foreground(hex(top))
			if y+1 < h {
				style = style.Background(hex(sample(img, x, y+1, w, h)))
			}
			sb.WriteString(style.Render(halfBlock))
		}
	}
	return sb.String()
}

// fit scales w x h down (or up) to fit inside maxW x maxH pixels.
func fit(w, h, maxW, maxH int) (int, int) {
	if w*maxH > h*maxW {
		return maxW, max(1, h*maxW/w)
	}
	return max(1, w*maxH/h), maxH
}

func sample(img image.Image, x, y, w, h int) color.Color {
	b := img.Bounds()
	sx := b.Min.X + x*b.Dx()/w
	sy := b.Min.Y + y*b.Dy()/h
	return img.At(sx, sy)
}

func hex(c color.Color) lipgloss.Color {
	r, g, b, _ := c.RGBA()
	return lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", r>>8, g>>8, b>>8))
}

func cacheKey(dataURL string, cols, rows int) string {
	h := fnv.New64a()
	_, _ = h.Write([]byte(dataURL))
	return fmt.Sprintf("%x:%d:%dx%d", h.Sum64(), len(dataURL), cols, rows)
}

func humanBytes(n int) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MiB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KiB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}
