// Package gallery keeps the ordered history of generated images and persists
// it to a key-value store after every change.
package gallery

// Storage keys. The history is stored as a JSON array of HistoryEntry.
const (
	KeyImagesHistory          = "imagesHistory"
	KeyShowDeleteConfirmation = "showDeleteConfirmation"
)

// HistoryEntry is one successful generation. ImageURL is a base64 data URL.
// Entries are never modified after creation.
type HistoryEntry struct {
	Prompt   string `json:"prompt"`
	ImageURL string `json:"imageUrl"`
}
