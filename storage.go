package schnell

import (
	"context"
	"crypto/rand"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// StorageResult contains information about a saved image.
type StorageResult struct {
	// URL is where the saved image can be opened from
	URL string

	// Path is the storage path/key where the image was saved
	Path string

	// Size is the number of bytes saved
	Size int
}

// SaveImage saves a single image to storage under baseName plus an extension
// derived from its MIME type.
func SaveImage(ctx context.Context, storage Storage, img GeneratedImage, baseName string) (StorageResult, error) {
	if storage == nil {
		return StorageResult{}, ErrStorageNotConfigured
	}
	if len(img.Data) == 0 {
		return StorageResult{}, ErrEmptyImageData
	}

	path := baseName + "." + extensionFromMIME(img.MIMEType)
	u, err := storage.SaveFile(ctx, img.Data, path, img.MIMEType)
	if err != nil {
		return StorageResult{}, err
	}

	return StorageResult{
		URL:  u,
		Path: path,
		Size: len(img.Data),
	}, nil
}

// DirStorage saves files below a local directory.
type DirStorage struct {
	Root string
}

var _ Storage = (*DirStorage)(nil)

// NewDirStorage returns a Storage writing into root, creating it on first save.
func NewDirStorage(root string) *DirStorage {
	return &DirStorage{Root: root}
}

// SaveFile writes data to Root/path and returns a file:// URL.
func (d *DirStorage) SaveFile(ctx context.Context, data []byte, path string, contentType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	clean := filepath.Clean(filepath.FromSlash(path))
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid storage path %q", path)
	}

	full := filepath.Join(d.Root, clean)
	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		return "", fmt.Errorf("create storage directory: %w", err)
	}
	if err := os.WriteFile(full, data, 0644); err != nil {
		return "", fmt.Errorf("write %s: %w", full, err)
	}

	abs, err := filepath.Abs(full)
	if err != nil {
		abs = full
	}
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}).String(), nil
}

const filenameAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// filenameCutoff is the largest multiple of len(filenameAlphabet) that fits
// in a byte. Bytes at or above it are discarded so every character is
// equally likely.
const filenameCutoff = 256 - 256%len(filenameAlphabet)

// RandomFilename returns an 8 character alphanumeric name for downloads.
func RandomFilename() (string, error) {
	name := make([]byte, 0, 8)
	buf := make([]byte, 16)
	for len(name) < cap(name) {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("random filename: %w", err)
		}
		for _, b := range buf {
			if c, ok := filenameChar(b); ok && len(name) < cap(name) {
				name = append(name, c)
			}
		}
	}
	return string(name), nil
}

func filenameChar(b byte) (byte, bool) {
	if int(b) >= filenameCutoff {
		return 0, false
	}
	return filenameAlphabet[int(b)%len(filenameAlphabet)], true
}

// extensionFromMIME returns a file extension for common image MIME types.
func extensionFromMIME(mime string) string {
	switch mime {
	case "image/png":
		return "png"
	case "image/jpeg":
		return "jpg"
	case "image/webp":
		return "webp"
	case "image/gif":
		return "gif"
	default:
		return "png"
	}
}
