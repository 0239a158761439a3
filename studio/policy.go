package studio

import (
	"errors"

	"github.com/mhpenta/schnell/gallery"
)

// ErrConfirmationRequired is returned when a delete needs the user's consent
// and none was given.
var ErrConfirmationRequired = errors.New("confirmation required")

// DeletePolicy gates Controller.Remove and Controller.Clear behind the stored
// delete-confirmation preference. Clearing everything always asks.
type DeletePolicy struct {
	ctrl  *Controller
	prefs *gallery.Preferences
}

// NewDeletePolicy gates ctrl's deletes behind prefs.
func NewDeletePolicy(ctrl *Controller, prefs *gallery.Preferences) *DeletePolicy {
	return &DeletePolicy{ctrl: ctrl, prefs: prefs}
}

// ConfirmRemove reports whether a single delete must be confirmed.
func (p *DeletePolicy) ConfirmRemove() bool {
	return p.prefs.ShowDeleteConfirmation()
}

// ConfirmClear reports whether clearing the gallery must be confirmed.
func (p *DeletePolicy) ConfirmClear() bool {
	return true
}

// SetConfirmRemove stores the single-delete preference.
func (p *DeletePolicy) SetConfirmRemove(confirm bool) error {
	return p.prefs.SetShowDeleteConfirmation(confirm)
}

// Remove deletes entry i, or returns ErrConfirmationRequired.
func (p *DeletePolicy) Remove(i int, confirmed bool) error {
	if p.ConfirmRemove() && !confirmed {
		return ErrConfirmationRequired
	}
	return p.ctrl.Remove(i)
}

// Clear empties the gallery, or returns ErrConfirmationRequired.
func (p *DeletePolicy) Clear(confirmed bool) error {
	if p.ConfirmClear() && !confirmed {
		return ErrConfirmationRequired
	}
	return p.ctrl.Clear()
}
