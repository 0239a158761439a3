package gallery

import (
	"strconv"
)

// Preferences are user settings stored next to the gallery.
type Preferences struct {
	kv KV
}

// NewPreferences reads and writes settings through kv.
func NewPreferences(kv KV) *Preferences {
	return &Preferences{kv: kv}
}

// ShowDeleteConfirmation reports whether single deletes ask first. It is true
// unless "false" has been stored.
func (p *Preferences) ShowDeleteConfirmation() bool {
	raw, ok, err := p.kv.Get(KeyShowDeleteConfirmation)
	if err != nil || !ok {
		return true
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return true
	}
	return v
}

// SetShowDeleteConfirmation stores the preference as a JSON boolean.
func (p *Preferences) SetShowDeleteConfirmation(show bool) error {
	return p.kv.Set(KeyShowDeleteConfirmation, strconv.FormatBool(show))
}
