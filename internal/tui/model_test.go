package tui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mhpenta/schnell/gallery"
	"github.com/mhpenta/schnell/studio"
)

const testImage = "data:image/png;base64,iVBORw0KGgo="

type stubGenerator struct {
	calls int
	err   error
}

func (s *stubGenerator) Generate(_ context.Context, prompt string) (gallery.HistoryEntry, error) {
	s.calls++
	if s.err != nil {
		return gallery.HistoryEntry{}, s.err
	}
	return gallery.HistoryEntry{Prompt: prompt, ImageURL: testImage}, nil
}

func newTestModel(t *testing.T, gen studio.EntryGenerator, entries ...gallery.HistoryEntry) (Model, *studio.Controller, *ChannelNotifier) {
	t.Helper()

	store := gallery.Load(gallery.NewMemoryKV(0))
	for i := len(entries) - 1; i >= 0; i-- {
		require.NoError(t, store.Add(entries[i]))
	}
	notes := NewChannelNotifier(16)
	ctrl := studio.NewController(gen, store, studio.WithNotifier(notes))
	policy := studio.NewDeletePolicy(ctrl, gallery.NewPreferences(gallery.NewMemoryKV(0)))

	m := NewModel(context.Background(), Options{
		Controller: ctrl,
		Policy:     policy,
		Notes:      notes.C(),
	})
	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return next.(Model), ctrl, notes
}

func typeText(t *testing.T, m Model, text string) Model {
	t.Helper()
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)})
	return next.(Model)
}

func press(m Model, key tea.KeyMsg) (Model, tea.Cmd) {
	next, cmd := m.Update(key)
	return next.(Model), cmd
}

func runeKey(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// drain runs cmd and any batched commands it returns, feeding messages the
// model cares about back into Update. Blocking commands (blink, listen) are
// skipped by only running the ones that produce a known message type.
func runSubmit(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	require.NotNil(t, cmd)

	msg := cmd()
	batch, ok := msg.(tea.BatchMsg)
	require.True(t, ok, "expected a batch, got %T", msg)

	for _, c := range batch {
		if c == nil {
			continue
		}
		if done, ok := c().(submitDoneMsg); ok {
			next, _ := m.Update(done)
			return next.(Model)
		}
	}
	t.Fatal("no submitDoneMsg in batch")
	return m
}

func TestTypingUpdatesControllerPrompt(t *testing.T) {
	m, ctrl, _ := newTestModel(t, &stubGenerator{})

	m = typeText(t, m, "a red fox")

	assert.Equal(t, "a red fox", ctrl.Prompt())
	assert.Equal(t, "a red fox", m.textarea.Value())
}

func TestEnterSubmitsWithoutNewline(t *testing.T) {
	gen := &stubGenerator{}
	m, ctrl, notes := newTestModel(t, gen)

	m = typeText(t, m, "a red fox")
	m, cmd := press(m, tea.KeyMsg{Type: tea.KeyEnter})

	assert.NotContains(t, m.textarea.Value(), "\n")
	assert.True(t, m.busy())

	m = runSubmit(t, m, cmd)

	assert.Equal(t, 1, gen.calls)
	assert.False(t, m.busy())
	assert.Empty(t, ctrl.Prompt())
	assert.Empty(t, m.textarea.Value())
	assert.Equal(t, testImage, ctrl.Displayed())
	assert.Equal(t, 1, ctrl.Store().Len())

	// Generating then Generated.
	first := <-notes.C()
	assert.Equal(t, studio.Generating, first.Kind)
	next, _ := m.Update(noteMsg{note: <-notes.C()})
	m = next.(Model)
	assert.Equal(t, "Image generated successfully!", m.status)
}

func TestEnterOnBlankPromptDoesNothing(t *testing.T) {
	gen := &stubGenerator{}
	m, _, _ := newTestModel(t, gen)

	m = typeText(t, m, "   ")
	m, cmd := press(m, tea.KeyMsg{Type: tea.KeyEnter})

	assert.Nil(t, cmd)
	assert.False(t, m.busy())
	assert.Equal(t, 0, gen.calls)
}

func TestEnterWhilePendingIsIgnored(t *testing.T) {
	gen := &stubGenerator{}
	m, _, _ := newTestModel(t, gen)

	m = typeText(t, m, "a red fox")
	m, first := press(m, tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, first)

	_, second := press(m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, second)
}

func TestFailedSubmitKeepsPrompt(t *testing.T) {
	gen := &stubGenerator{err: errors.New("boom")}
	m, ctrl, notes := newTestModel(t, gen)

	m = typeText(t, m, "a red fox")
	m, cmd := press(m, tea.KeyMsg{Type: tea.KeyEnter})
	m = runSubmit(t, m, cmd)

	assert.Equal(t, "a red fox", m.textarea.Value())
	assert.Empty(t, ctrl.Displayed())
	assert.Equal(t, 0, ctrl.Store().Len())

	<-notes.C() // generating
	next, _ := m.Update(noteMsg{note: <-notes.C()})
	m = next.(Model)
	assert.Equal(t, "Failed to generate image.", m.status)
}

func TestGallerySelectRestoresPrompt(t *testing.T) {
	m, ctrl, _ := newTestModel(t, &stubGenerator{},
		gallery.HistoryEntry{Prompt: "newest", ImageURL: "data:image/png;base64,AAAA"},
		gallery.HistoryEntry{Prompt: "older", ImageURL: "data:image/png;base64,BBBB"},
	)

	m, _ = press(m, tea.KeyMsg{Type: tea.KeyTab})
	m, _ = press(m, runeKey("j"))
	m, _ = press(m, tea.KeyMsg{Type: tea.KeyEnter})

	assert.Equal(t, "older", ctrl.Prompt())
	assert.Equal(t, "older", m.textarea.Value())
	assert.Equal(t, "data:image/png;base64,BBBB", ctrl.Displayed())
}

func TestDeleteAsksForConfirmation(t *testing.T) {
	m, ctrl, _ := newTestModel(t, &stubGenerator{},
		gallery.HistoryEntry{Prompt: "one", ImageURL: "data:image/png;base64,AAAA"},
		gallery.HistoryEntry{Prompt: "two", ImageURL: "data:image/png;base64,BBBB"},
	)

	m, _ = press(m, tea.KeyMsg{Type: tea.KeyTab})
	m, _ = press(m, runeKey("d"))
	require.Equal(t, confirmRemove, m.confirm)
	assert.Contains(t, m.View(), "Delete this image?")

	m, _ = press(m, runeKey("n"))
	assert.Equal(t, confirmNone, m.confirm)
	assert.Equal(t, 2, ctrl.Store().Len())

	m, _ = press(m, runeKey("d"))
	m, _ = press(m, runeKey("y"))
	assert.Equal(t, 1, ctrl.Store().Len())
	entry, _ := ctrl.Store().At(0)
	assert.Equal(t, "two", entry.Prompt)
}

func TestDeleteDontAskAgain(t *testing.T) {
	m, ctrl, _ := newTestModel(t, &stubGenerator{},
		gallery.HistoryEntry{Prompt: "one", ImageURL: "data:image/png;base64,AAAA"},
		gallery.HistoryEntry{Prompt: "two", ImageURL: "data:image/png;base64,BBBB"},
	)

	m, _ = press(m, tea.KeyMsg{Type: tea.KeyTab})
	m, _ = press(m, runeKey("d"))
	m, _ = press(m, runeKey("a"))
	assert.Equal(t, 1, ctrl.Store().Len())
	assert.False(t, m.policy.ConfirmRemove())

	// No prompt this time.
	m, _ = press(m, runeKey("d"))
	assert.Equal(t, confirmNone, m.confirm)
	assert.Equal(t, 0, ctrl.Store().Len())
}

func TestClearAlwaysConfirms(t *testing.T) {
	m, ctrl, _ := newTestModel(t, &stubGenerator{},
		gallery.HistoryEntry{Prompt: "one", ImageURL: "data:image/png;base64,AAAA"},
	)
	require.NoError(t, m.policy.SetConfirmRemove(false))

	m, _ = press(m, tea.KeyMsg{Type: tea.KeyTab})
	m, _ = press(m, runeKey("C"))
	require.Equal(t, confirmClear, m.confirm)

	m, _ = press(m, runeKey("y"))
	assert.Equal(t, 0, ctrl.Store().Len())
	assert.Contains(t, m.View(), "No images yet!")
}

func TestViewShowsEmptyCanvas(t *testing.T) {
	m, _, _ := newTestModel(t, &stubGenerator{})

	view := m.View()
	assert.Contains(t, view, "Empty canvas...")
	assert.Contains(t, view, "No images yet!")
	assert.True(t, strings.Contains(view, "Generate Image"))
}

func TestExportWithoutImage(t *testing.T) {
	m, _, _ := newTestModel(t, &stubGenerator{})

	m, cmd := press(m, tea.KeyMsg{Type: tea.KeyCtrlS})
	assert.Nil(t, cmd)
	assert.Equal(t, "Nothing to save yet.", m.status)
}

func TestDeleteConfirmTargetsChosenEntryAfterNewImage(t *testing.T) {
	m, ctrl, _ := newTestModel(t, &stubGenerator{},
		gallery.HistoryEntry{Prompt: "target", ImageURL: "data:image/png;base64,AAAA"},
		gallery.HistoryEntry{Prompt: "old", ImageURL: "data:image/png;base64,BBBB"},
	)

	m, _ = press(m, tea.KeyMsg{Type: tea.KeyTab})
	m, _ = press(m, runeKey("d"))
	require.Equal(t, confirmRemove, m.confirm)

	// A generation finishes while the question is open and shifts every index.
	ctrl.SetPrompt("new one")
	require.NoError(t, ctrl.Submit(context.Background()))
	next, _ := m.Update(submitDoneMsg{})
	m = next.(Model)

	_, _ = press(m, runeKey("y"))

	var prompts []string
	for _, e := range ctrl.Store().Entries() {
		prompts = append(prompts, e.Prompt)
	}
	assert.Equal(t, []string{"new one", "old"}, prompts)
}
