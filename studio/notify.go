package studio

import (
	"log/slog"
	"math/rand/v2"
)

// Kind distinguishes the user-facing conditions a Controller reports.
type Kind int

const (
	Generating Kind = iota
	Generated
	GenerationFailed
	StorageFull
)

func (k Kind) String() string {
	switch k {
	case Generating:
		return "generating"
	case Generated:
		return "generated"
	case GenerationFailed:
		return "generation_failed"
	case StorageFull:
		return "storage_full"
	default:
		return "unknown"
	}
}

// Notification is a transient status message.
type Notification struct {
	Kind    Kind
	Message string
	Err     error
}

// Notifier receives notifications. Implementations must not call back into
// the Controller synchronously.
type Notifier interface {
	Notify(Notification)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Notification)

func (f NotifierFunc) Notify(n Notification) { f(n) }

// LogNotifier writes notifications to a structured logger.
type LogNotifier struct {
	Logger *slog.Logger
}

func (l LogNotifier) Notify(n Notification) {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}

	attrs := []any{"kind", n.Kind.String()}
	if n.Err != nil {
		attrs = append(attrs, "error", n.Err.Error())
	}

	switch n.Kind {
	case GenerationFailed:
		logger.Error(n.Message, attrs...)
	case StorageFull:
		logger.Warn(n.Message, attrs...)
	default:
		logger.Info(n.Message, attrs...)
	}
}

type discardNotifier struct{}

func (discardNotifier) Notify(Notification) {}

const (
	msgGenerated        = "Image generated successfully!"
	msgGenerationFailed = "Failed to generate image."
	msgStorageFull      = "Storage is full, the gallery could not be saved."
)

var loadingPhrases = []string{
	"Loading your magic...",
	"Pixels are dusting...",
	"Pixels are aligning...",
	"Magic in the works...",
	"Creativity brewing...",
	"Working on your vision...",
	"Magic in progress...",
	"Creating masterpiece...",
	"Just wait a moment...",
	"Cooking up pixels...",
	"Crafting your magic...",
	"Vision unfolding...",
	"Conjuring brilliance...",
	"Sketching your idea...",
	"Imagining the magic...",
}

// LoadingPhrase returns a random message to show while a request is in flight.
func LoadingPhrase() string {
	return loadingPhrases[rand.IntN(len(loadingPhrases))]
}
