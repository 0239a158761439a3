package studio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/mhpenta/schnell"
	"github.com/mhpenta/schnell/gallery"
)

var (
	// ErrNothingToSubmit is returned by Submit when the prompt is blank.
	ErrNothingToSubmit = errors.New("prompt is empty")

	// ErrInFlight is returned by Submit while another request is outstanding.
	ErrInFlight = errors.New("a generation is already in progress")

	// ErrStorageFull wraps persistence failures. The in-memory change that
	// triggered the write has been kept.
	ErrStorageFull = errors.New("gallery could not be saved")

	// ErrNothingDisplayed is returned by Export when the canvas is empty.
	ErrNothingDisplayed = errors.New("no image is displayed")
)

// State is a snapshot of the session. Displayed is "" for an empty canvas.
type State struct {
	Prompt    string
	Displayed string
	InFlight  bool
}

// Controller owns the session state (prompt, displayed image, in-flight
// flag) and applies it to the gallery. At most one generation runs at a time.
type Controller struct {
	gen      EntryGenerator
	store    *gallery.Store
	notifier Notifier
	logger   *slog.Logger

	mu        sync.Mutex
	prompt    string
	displayed string
	inFlight  bool
}

// Option configures a Controller.
type Option func(*Controller)

// WithNotifier sets where status notifications go.
func WithNotifier(n Notifier) Option {
	return func(c *Controller) {
		if n != nil {
			c.notifier = n
		}
	}
}

// WithLogger sets the controller logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewController creates an idle controller with an empty prompt and canvas.
func NewController(gen EntryGenerator, store *gallery.Store, opts ...Option) *Controller {
	c := &Controller{
		gen:      gen,
		store:    store,
		notifier: discardNotifier{},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetPrompt replaces the prompt text.
func (c *Controller) SetPrompt(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.prompt = text
}

// Prompt returns the current prompt text.
func (c *Controller) Prompt() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.prompt
}

// Displayed returns the data URL on the canvas, or "".
func (c *Controller) Displayed() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.displayed
}

// InFlight reports whether a Submit is waiting on the generator.
func (c *Controller) InFlight() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inFlight
}

// State returns a snapshot of the session state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return State{Prompt: c.prompt, Displayed: c.displayed, InFlight: c.inFlight}
}

// CanSubmit reports whether Submit would send a request right now.
func (c *Controller) CanSubmit() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.inFlight && strings.TrimSpace(c.prompt) != ""
}

// Store returns the gallery the controller writes to.
func (c *Controller) Store() *gallery.Store {
	return c.store
}

// Submit generates an image for the current prompt. It blocks until the
// request resolves; the lock is not held meanwhile.
//
// On success the prompt is cleared, the image is displayed and prepended to
// the gallery. A failed save is reported as ErrStorageFull with the entry
// still in memory. On generation failure nothing changes and the error wraps
// schnell.ErrGenerationFailed.
func (c *Controller) Submit(ctx context.Context) error {
	c.mu.Lock()
	if strings.TrimSpace(c.prompt) == "" {
		c.mu.Unlock()
		return ErrNothingToSubmit
	}
	if c.inFlight {
		c.mu.Unlock()
		return ErrInFlight
	}
	c.inFlight = true
	prompt := c.prompt
	c.mu.Unlock()

	c.notifier.Notify(Notification{Kind: Generating, Message: LoadingPhrase()})

	entry, err := c.gen.Generate(ctx, prompt)

	c.mu.Lock()
	c.inFlight = false
	if err != nil {
		c.mu.Unlock()
		c.logger.Debug("generation failed", "error", err.Error(), "status", schnell.StatusCode(err))
		c.notifier.Notify(Notification{Kind: GenerationFailed, Message: msgGenerationFailed, Err: err})
		return err
	}
	c.prompt = ""
	c.displayed = entry.ImageURL
	c.mu.Unlock()

	persistErr := c.store.Add(entry)
	c.notifier.Notify(Notification{Kind: Generated, Message: msgGenerated})
	return c.storageResult(persistErr)
}

// Select displays gallery entry i and restores its prompt.
func (c *Controller) Select(i int) error {
	entry, ok := c.store.At(i)
	if !ok {
		return fmt.Errorf("%w: %d", gallery.ErrIndexOutOfRange, i)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.displayed = entry.ImageURL
	c.prompt = entry.Prompt
	return nil
}

// Remove deletes gallery entry i. If it was on the canvas, the canvas and
// prompt are cleared.
func (c *Controller) Remove(i int) error {
	removed, err := c.store.Remove(i)
	if errors.Is(err, gallery.ErrIndexOutOfRange) {
		return err
	}

	c.mu.Lock()
	if removed.ImageURL == c.displayed {
		c.displayed = ""
		c.prompt = ""
	}
	c.mu.Unlock()

	return c.storageResult(err)
}

// Clear empties the gallery, the canvas and the prompt.
func (c *Controller) Clear() error {
	err := c.store.Clear()

	c.mu.Lock()
	c.displayed = ""
	c.prompt = ""
	c.mu.Unlock()

	return c.storageResult(err)
}

// Export writes the displayed image to storage under a random 8 character
// name and returns where it went.
func (c *Controller) Export(ctx context.Context, storage schnell.Storage) (schnell.StorageResult, error) {
	displayed := c.Displayed()
	if displayed == "" {
		return schnell.StorageResult{}, ErrNothingDisplayed
	}

	data, mimeType, err := schnell.DecodeDataURL(displayed)
	if err != nil {
		return schnell.StorageResult{}, err
	}

	name, err := schnell.RandomFilename()
	if err != nil {
		return schnell.StorageResult{}, err
	}
	return schnell.SaveImage(ctx, storage, schnell.GeneratedImage{
		Data:     data,
		MIMEType: mimeType,
	}, name)
}

func (c *Controller) storageResult(err error) error {
	if err == nil {
		return nil
	}
	c.notifier.Notify(Notification{Kind: StorageFull, Message: msgStorageFull, Err: err})
	return fmt.Errorf("%w: %w", ErrStorageFull, err)
}
