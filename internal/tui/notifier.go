package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/mhpenta/schnell/studio"
)

// ChannelNotifier forwards controller notifications to the bubbletea loop.
// Sends never block; when the buffer is full the notification is dropped.
type ChannelNotifier struct {
	ch chan studio.Notification
}

var _ studio.Notifier = (*ChannelNotifier)(nil)

// NewChannelNotifier creates a notifier buffering up to size notifications.
func NewChannelNotifier(size int) *ChannelNotifier {
	return &ChannelNotifier{ch: make(chan studio.Notification, size)}
}

// Notify queues note without blocking.
func (n *ChannelNotifier) Notify(note studio.Notification) {
	select {
	case n.ch <- note:
	default:
	}
}

// C returns the receive side of the channel.
func (n *ChannelNotifier) C() <-chan studio.Notification {
	return n.ch
}

type noteMsg struct{ note studio.Notification }

// listen waits for the next notification. The model re-arms it after every
// noteMsg.
func listen(ch <-chan studio.Notification) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		note, ok := <-ch
		if !ok {
			return nil
		}
		return noteMsg{note: note}
	}
}
