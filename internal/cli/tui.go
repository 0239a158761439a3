package cli

import (
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/mhpenta/schnell/internal/preview"
	"github.com/mhpenta/schnell/internal/tui"
	"github.com/mhpenta/schnell/studio"
)

// runTUI starts the interactive mode. Logs go to a file since the TUI owns
// the screen.
func runTUI(cmd *cobra.Command, f *flags) error {
	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer cancel()

	logFile, err := openLogFile()
	if err != nil {
		return err
	}
	defer logFile.Close()

	a, err := openApp(ctx, f, logFile, true)
	if err != nil {
		return err
	}
	defer a.Close()

	notes := tui.NewChannelNotifier(16)
	ctrl := a.controller(notes)

	return tui.Run(ctx, tui.Options{
		Controller: ctrl,
		Policy:     studio.NewDeletePolicy(ctrl, a.prefs),
		Storage:    a.exportStorage(),
		Notes:      notes.C(),
		Renderer:   preview.NewRenderer(10 * time.Minute),
	})
}
