package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
)

// Run starts the bubbletea program in alt-screen mode and blocks until the
// user quits or ctx is cancelled. Notifications must be delivered on
// opts.Notes, typically from a ChannelNotifier passed to the controller.
func Run(ctx context.Context, opts Options) error {
	model := NewModel(ctx, opts)

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
