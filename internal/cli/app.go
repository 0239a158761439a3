package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"

	"github.com/mhpenta/schnell"
	"github.com/mhpenta/schnell/gallery"
	"github.com/mhpenta/schnell/internal/config"
	"github.com/mhpenta/schnell/provider/gemini"
	"github.com/mhpenta/schnell/provider/huggingface"
	openaiprovider "github.com/mhpenta/schnell/provider/openai"
	"github.com/mhpenta/schnell/studio"
)

// app is everything a command needs, opened from the config.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	kv      gallery.KV
	store   *gallery.Store
	prefs   *gallery.Preferences
	manager *schnell.Manager

	closers []func() error
}

// loadConfig loads configuration, applying CLI flag overrides.
func loadConfig(f *flags) (*config.Config, error) {
	cfg, err := config.Load(f.cfgFile)
	if err != nil {
		return nil, err
	}

	// CLI flags override config values
	if f.provider != "" {
		cfg.Provider = f.provider
	}
	if f.model != "" {
		cfg.Model = f.model
	}
	if f.logLevel != "" {
		cfg.LogLevel = f.logLevel
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// openApp wires config, logging and the gallery. The generator is only
// built when withGenerator is set, so gallery commands work without an
// API key.
func openApp(ctx context.Context, f *flags, logOut io.Writer, withGenerator bool) (*app, error) {
	cfg, err := loadConfig(f)
	if err != nil {
		return nil, err
	}

	logger, err := newLogger(cfg.LogLevel, logOut)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, logger: logger}

	kv, err := openKV(cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("open gallery: %w", err)
	}
	a.kv = kv
	a.closers = append(a.closers, kv.Close)

	a.store = gallery.Load(kv, gallery.WithLogger(logger))
	a.prefs = gallery.NewPreferences(kv)

	if withGenerator {
		gen, err := buildGenerator(ctx, cfg)
		if err != nil {
			_ = a.Close()
			return nil, err
		}

		a.manager = schnell.NewManager(gen,
			schnell.WithLogger(logger),
			schnell.WithStorage(schnell.NewDirStorage(cfg.ExportDir)),
			schnell.WithDefaultModel(schnell.Model(modelFor(cfg))),
		)
		a.closers = append(a.closers, a.manager.Close)
	}

	return a, nil
}

// controller builds a Controller over the app's gallery.
func (a *app) controller(notifier studio.Notifier) *studio.Controller {
	var gen studio.EntryGenerator = offline{}
	if a.manager != nil {
		gen = studio.NewService(a.manager, studio.WithServiceLogger(a.logger))
	}
	return studio.NewController(gen, a.store,
		studio.WithNotifier(notifier),
		studio.WithLogger(a.logger),
	)
}

// offline backs controllers that only manage the gallery.
type offline struct{}

func (offline) Generate(context.Context, string) (gallery.HistoryEntry, error) {
	return gallery.HistoryEntry{}, fmt.Errorf("%w: no provider loaded", schnell.ErrGenerationFailed)
}

// exportStorage is where saved images go.
func (a *app) exportStorage() schnell.Storage {
	if a.manager != nil {
		return a.manager.Storage()
	}
	return schnell.NewDirStorage(a.cfg.ExportDir)
}

// Close releases everything in reverse order of opening.
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// modelFor returns the model to use: CLI/config model, then the provider's
// own model setting. Empty means the provider default.
func modelFor(cfg *config.Config) string {
	if cfg.Model != "" {
		return cfg.Model
	}
	return cfg.GetProviderConfig(cfg.Provider).Model
}

// buildGenerator creates the provider named in cfg.
func buildGenerator(ctx context.Context, cfg *config.Config) (schnell.ImageGenerator, error) {
	name := cfg.Provider
	pc := cfg.GetProviderConfig(name)

	if pc.APIKey == "" {
		return nil, fmt.Errorf(
			"API key not configured for provider %q.\n"+
				"Set it via:\n"+
				"  - config file: providers.%s.api_key\n"+
				"  - environment: %s",
			name, name, apiKeyEnv(name),
		)
	}

	providerCfg := &schnell.ProviderConfig{
		APIKey:  pc.APIKey,
		BaseURL: pc.BaseURL,
	}

	switch name {
	case config.ProviderHuggingFace:
		providerCfg.Provider = schnell.ProviderHuggingFace
		return huggingface.New(providerCfg), nil
	case config.ProviderGemini:
		providerCfg.Provider = schnell.ProviderGeminiAPI
		gen, err := gemini.New(ctx, providerCfg)
		if err != nil {
			return nil, err
		}
		return gen, nil
	case config.ProviderOpenAI:
		providerCfg.Provider = schnell.ProviderOpenAI
		return openaiprovider.New(providerCfg), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", name)
	}
}

func apiKeyEnv(provider string) string {
	switch provider {
	case config.ProviderGemini:
		return "GEMINI_API_KEY"
	case config.ProviderOpenAI:
		return "OPENAI_API_KEY"
	default:
		return "API_KEY or HF_TOKEN"
	}
}

// openKV opens the configured gallery backend.
func openKV(sc config.StorageConfig) (gallery.KV, error) {
	switch sc.Backend {
	case config.BackendMemory:
		return gallery.NewMemoryKV(sc.QuotaBytes), nil
	case config.BackendFile:
		if err := os.MkdirAll(filepath.Dir(sc.Path), 0o755); err != nil {
			return nil, err
		}
		return gallery.OpenFileKV(sc.Path, sc.QuotaBytes)
	default:
		if err := os.MkdirAll(filepath.Dir(sc.Path), 0o755); err != nil {
			return nil, err
		}
		return gallery.OpenSQLiteKV(sc.Path, sc.QuotaBytes)
	}
}

// newLogger returns a slog logger backed by a charmbracelet/log handler.
func newLogger(level string, w io.Writer) (*slog.Logger, error) {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	handler := log.NewWithOptions(w, log.Options{
		Level:           lvl,
		Prefix:          "schnell",
		ReportTimestamp: true,
		TimeFormat:      time.Kitchen,
	})
	return slog.New(handler), nil
}

// openLogFile opens the log file used while the TUI owns the screen.
func openLogFile() (*os.File, error) {
	dir, err := config.DataDir()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return os.OpenFile(filepath.Join(dir, "schnell.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
}
