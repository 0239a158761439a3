package schnell

import (
	"log/slog"
)

// ManagerOption configures the Manager.
type ManagerOption func(*Manager)

// WithLogger sets a structured logger for the manager.
func WithLogger(logger *slog.Logger) ManagerOption {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithStorage sets a storage backend for exporting generated images.
func WithStorage(storage Storage) ManagerOption {
	return func(m *Manager) {
		m.storage = storage
	}
}

// WithDefaultModel sets the default model used when config.Model is empty.
func WithDefaultModel(model Model) ManagerOption {
	return func(m *Manager) {
		if model != "" {
			m.defaultModel = model
		}
	}
}

// WithProvider registers an additional provider next to the default one.
func WithProvider(gen ImageGenerator) ManagerOption {
	return func(m *Manager) {
		m.Register(gen)
	}
}

// NewManager creates a Manager with the given provider and options.
// The first model of defaultProvider becomes the default model unless
// WithDefaultModel says otherwise.
//
// Example:
//
//	gen, err := huggingface.NewWithAPIKey(os.Getenv("HF_TOKEN"))
//	if err != nil {
//	    return err
//	}
//	manager := schnell.NewManager(gen,
//	    schnell.WithLogger(slog.Default()),
//	)
func NewManager(defaultProvider ImageGenerator, opts ...ManagerOption) *Manager {
	m := New()
	m.Register(defaultProvider)

	if models := defaultProvider.Models(); len(models) > 0 {
		m.defaultModel = Model(models[0].Name)
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}
