// Package tui is the interactive terminal client: a prompt box, the gallery,
// a preview of the displayed image and a status line.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mhpenta/schnell"
	"github.com/mhpenta/schnell/gallery"
	"github.com/mhpenta/schnell/internal/preview"
	"github.com/mhpenta/schnell/studio"
)

// ---------- messages ----------

type submitDoneMsg struct{ err error }

type exportDoneMsg struct {
	res schnell.StorageResult
	err error
}

// ---------- focus / confirmation ----------

type focus int

const (
	focusPrompt focus = iota
	focusGallery
)

type confirmKind int

const (
	confirmNone confirmKind = iota
	confirmRemove
	confirmClear
)

const (
	promptHeight = 3
	statusHeight = 1
	minListRows  = 3
)

// Options wires the model to the rest of the application.
type Options struct {
	Controller *studio.Controller
	Policy     *studio.DeletePolicy
	Storage    schnell.Storage
	Notes      <-chan studio.Notification
	Renderer   *preview.Renderer
}

// Model is the bubbletea model for the whole screen.
type Model struct {
	ctx      context.Context
	ctrl     *studio.Controller
	policy   *studio.DeletePolicy
	storage  schnell.Storage
	notes    <-chan studio.Notification
	renderer *preview.Renderer

	textarea textarea.Model
	spinner  spinner.Model
	list     viewport.Model

	width  int
	height int

	focus        focus
	cursor       int
	confirm confirmKind
	// confirmEntry is the entry a pending remove refers to. Indexes shift
	// when a generation lands while the question is open.
	confirmEntry gallery.HistoryEntry

	// pending covers the gap between Enter and the controller marking the
	// request in flight.
	pending bool
	phrase  string

	status      string
	statusStyle lipgloss.Style

	quitting bool
}

// NewModel creates the initial model with the prompt focused.
func NewModel(ctx context.Context, opts Options) Model {
	ta := textarea.New()
	ta.Placeholder = "Enter your creative prompt..."
	ta.ShowLineNumbers = false
	ta.CharLimit = 2000
	ta.SetHeight(promptHeight)
	ta.KeyMap.InsertNewline.SetEnabled(false)
	ta.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = spinnerStyle

	renderer := opts.Renderer
	if renderer == nil {
		renderer = preview.NewRenderer(10 * time.Minute)
	}

	m := Model{
		ctx:      ctx,
		ctrl:     opts.Controller,
		policy:   opts.Policy,
		storage:  opts.Storage,
		notes:    opts.Notes,
		renderer: renderer,
		textarea: ta,
		spinner:  sp,
		list:     viewport.New(30, minListRows),
	}
	m.refreshList()
	return m
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, listen(m.notes))
}

// Update handles key presses, window resizes, notifications and the results
// of submit and export commands.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()

	case spinner.TickMsg:
		if !m.busy() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case noteMsg:
		m.applyNote(msg.note)
		return m, listen(m.notes)

	case submitDoneMsg:
		m.pending = false
		// The controller clears the prompt on success; mirror it.
		if m.textarea.Value() != m.ctrl.Prompt() {
			m.textarea.SetValue(m.ctrl.Prompt())
		}
		if msg.err == nil {
			m.cursor = 0
		}
		m.refreshList()
		return m, nil

	case exportDoneMsg:
		if msg.err != nil {
			m.setStatus("Save failed: "+msg.err.Error(), errorStyle)
		} else {
			m.setStatus("Saved "+msg.res.Path, successStyle)
		}
		return m, nil

	case tea.KeyMsg:
		if m.confirm != confirmNone {
			return m.updateConfirm(msg)
		}

		switch msg.String() {
		case "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		case "tab", "shift+tab":
			return m, m.toggleFocus()
		case "ctrl+s":
			return m, m.export()
		}

		if m.focus == focusGallery {
			return m.updateGallery(msg)
		}

		if msg.Type == tea.KeyEnter {
			// Enter submits; it never reaches the textarea.
			return m, m.submit()
		}

		var cmd tea.Cmd
		m.textarea, cmd = m.textarea.Update(msg)
		m.ctrl.SetPrompt(m.textarea.Value())
		cmds = append(cmds, cmd)
		return m, tea.Batch(cmds...)
	}

	var cmd tea.Cmd
	m.textarea, cmd = m.textarea.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func (m *Model) submit() tea.Cmd {
	m.ctrl.SetPrompt(m.textarea.Value())
	if m.pending || !m.ctrl.CanSubmit() {
		return nil
	}
	m.pending = true
	m.phrase = studio.LoadingPhrase()

	ctrl, ctx := m.ctrl, m.ctx
	run := func() tea.Msg {
		return submitDoneMsg{err: ctrl.Submit(ctx)}
	}
	return tea.Batch(run, m.spinner.Tick)
}

func (m *Model) export() tea.Cmd {
	if m.ctrl.Displayed() == "" {
		m.setStatus("Nothing to save yet.", warnStyle)
		return nil
	}
	ctrl, ctx, storage := m.ctrl, m.ctx, m.storage
	return func() tea.Msg {
		res, err := ctrl.Export(ctx, storage)
		return exportDoneMsg{res: res, err: err}
	}
}

func (m *Model) toggleFocus() tea.Cmd {
	if m.focus == focusPrompt {
		m.focus = focusGallery
		m.textarea.Blur()
		return nil
	}
	m.focus = focusPrompt
	return m.textarea.Focus()
}

func (m Model) updateGallery(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	n := m.ctrl.Store().Len()

	switch msg.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < n-1 {
			m.cursor++
		}
	case "enter":
		if err := m.ctrl.Select(m.cursor); err == nil {
			m.textarea.SetValue(m.ctrl.Prompt())
		}
	case "d", "delete", "backspace":
		if n == 0 {
			break
		}
		if m.policy.ConfirmRemove() {
			if entry, ok := m.ctrl.Store().At(m.cursor); ok {
				m.confirm = confirmRemove
				m.confirmEntry = entry
			}
			break
		}
		m.afterDelete(m.policy.Remove(m.cursor, false))
	case "C":
		if n > 0 {
			m.confirm = confirmClear
		}
	case "p":
		show := !m.policy.ConfirmRemove()
		if err := m.policy.SetConfirmRemove(show); err != nil {
			m.setStatus("Could not save preference: "+err.Error(), errorStyle)
			break
		}
		m.setStatus(fmt.Sprintf("Delete confirmation %s.", onOff(show)), successStyle)
	case "s":
		return m, m.export()
	}

	m.refreshList()
	return m, nil
}

func (m Model) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	kind := m.confirm

	switch msg.String() {
	case "y", "Y", "enter":
		m.confirm = confirmNone
		if kind == confirmRemove {
			m.removeConfirmed()
		} else {
			m.afterDelete(m.policy.Clear(true))
		}
	case "a":
		// Yes, and stop asking for single deletes.
		if kind != confirmRemove {
			break
		}
		m.confirm = confirmNone
		if err := m.policy.SetConfirmRemove(false); err != nil {
			m.setStatus("Could not save preference: "+err.Error(), errorStyle)
		}
		m.removeConfirmed()
	case "n", "N", "esc", "ctrl+c":
		m.confirm = confirmNone
	}

	m.refreshList()
	return m, nil
}

// removeConfirmed deletes confirmEntry at wherever it sits now. Nothing
// happens if it is already gone.
func (m *Model) removeConfirmed() {
	target := m.confirmEntry
	m.confirmEntry = gallery.HistoryEntry{}

	for i, e := range m.ctrl.Store().Entries() {
		if e == target {
			m.afterDelete(m.policy.Remove(i, true))
			return
		}
	}
}

// afterDelete syncs the prompt box and reports errors other than a failed
// save, which arrives as a StorageFull notification.
func (m *Model) afterDelete(err error) {
	if err != nil && !errors.Is(err, studio.ErrStorageFull) {
		m.setStatus(err.Error(), errorStyle)
	}
	if m.textarea.Value() != m.ctrl.Prompt() {
		m.textarea.SetValue(m.ctrl.Prompt())
	}
	if n := m.ctrl.Store().Len(); m.cursor >= n {
		m.cursor = max(0, n-1)
	}
}

func (m *Model) applyNote(note studio.Notification) {
	switch note.Kind {
	case studio.Generating:
		m.phrase = note.Message
	case studio.Generated:
		m.setStatus(note.Message, successStyle)
	case studio.GenerationFailed:
		m.setStatus(note.Message, errorStyle)
	case studio.StorageFull:
		m.setStatus(note.Message, warnStyle)
	}
}

func (m *Model) setStatus(text string, style lipgloss.Style) {
	m.status = text
	m.statusStyle = style
}

func (m Model) busy() bool {
	return m.pending || m.ctrl.InFlight()
}

// ---------- layout ----------

func (m Model) leftWidth() int {
	w := m.width * 2 / 5
	return max(w, 24)
}

func (m *Model) layout() {
	inner := m.leftWidth() - 4 // border + padding
	m.textarea.SetWidth(max(inner, 10))

	// title, prompt panel, hint, gallery header, borders
	used := 1 + (promptHeight + 2) + 1 + 1 + 2 + statusHeight
	m.list.Width = max(inner, 10)
	m.list.Height = max(m.height-used, minListRows)
	m.refreshList()
}

// refreshList re-renders the gallery into the viewport and keeps the cursor
// visible.
func (m *Model) refreshList() {
	entries := m.ctrl.Store().Entries()
	if len(entries) == 0 {
		m.list.SetContent(placeholderStyle.Render("No images yet! Generate something cool to show here."))
		m.list.SetYOffset(0)
		return
	}

	displayed := m.ctrl.Displayed()
	width := max(m.list.Width-4, 8)

	lines := make([]string, len(entries))
	for i, e := range entries {
		marker := "  "
		if m.focus == focusGallery && i == m.cursor {
			marker = cursorStyle.Render("> ")
		}
		text := truncate(oneLine(e.Prompt), width)
		if e.ImageURL == displayed {
			text = hintStyle.Render(text)
		}
		lines[i] = marker + text
	}
	m.list.SetContent(strings.Join(lines, "\n"))

	switch {
	case m.cursor < m.list.YOffset:
		m.list.SetYOffset(m.cursor)
	case m.cursor >= m.list.YOffset+m.list.Height:
		m.list.SetYOffset(m.cursor - m.list.Height + 1)
	}
}

// ---------- view ----------

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if m.width == 0 {
		return "Initializing..."
	}

	left := m.leftPanel()
	right := m.rightPanel(m.width-lipgloss.Width(left), m.height-statusHeight)
	body := lipgloss.JoinHorizontal(lipgloss.Top, left, right)

	return lipgloss.JoinVertical(lipgloss.Left, body, m.statusBar())
}

func (m Model) leftPanel() string {
	promptPanel := panelStyle
	galleryPanel := panelStyle
	if m.focus == focusPrompt {
		promptPanel = focusedPanelStyle
	} else {
		galleryPanel = focusedPanelStyle
	}

	var hint string
	switch {
	case m.busy():
		hint = m.spinner.View() + " " + m.phrase
	case m.ctrl.CanSubmit() || strings.TrimSpace(m.textarea.Value()) != "":
		hint = hintStyle.Render("[ Generate Image ]") + disabledStyle.Render("  enter")
	default:
		hint = disabledStyle.Render("[ Generate Image ]")
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("Schnell Image Generator"),
		promptPanel.Render(m.textarea.View()),
		hint,
		titleStyle.Render(fmt.Sprintf("Gallery (%d)", m.ctrl.Store().Len())),
		galleryPanel.Render(m.list.View()),
	)
}

func (m Model) rightPanel(width, height int) string {
	width = max(width, 10)
	height = max(height, 3)

	displayed := m.ctrl.Displayed()
	if displayed == "" {
		return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center,
			placeholderStyle.Render("Empty canvas..."))
	}

	p, err := m.renderer.Render(displayed, max(width-2, 1), max(height-3, 1))
	if err != nil {
		return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center,
			errorStyle.Render("Failed to load image."))
	}

	info := disabledStyle.Render(p.Info.String() + "  ·  ctrl+s save")
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center,
		lipgloss.JoinVertical(lipgloss.Center, p.Thumbnail, info))
}

func (m Model) statusBar() string {
	var text string
	switch m.confirm {
	case confirmRemove:
		text = warnStyle.Render("Delete this image? y = yes · a = yes, don't ask again · n = no")
	case confirmClear:
		text = warnStyle.Render("Clear the whole gallery? y = yes · n = no")
	default:
		if m.status != "" {
			text = m.statusStyle.Render(m.status)
		} else if m.focus == focusGallery {
			text = "↑/↓ move · enter show · d delete · C clear all · p toggle delete confirmation · s save · tab prompt"
		} else {
			text = "enter generate · tab gallery · ctrl+s save · ctrl+c quit"
		}
	}
	return statusBarStyle.Width(m.width).Render(text)
}

// ---------- helpers ----------

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-1]) + "…"
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
