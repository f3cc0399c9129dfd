package session

import (
	"github.com/arborworks/arbor/cmd/arbor/cli/store"
)

// History resolves "previous session" from the append-only activation log.
type History struct {
	store *store.Store
}

// NewHistory returns a History over the given store.
func NewHistory(st *store.Store) *History {
	return &History{store: st}
}

// Record appends an activation for the session.
func (h *History) Record(sessionID int64) error {
	return h.store.AppendHistory(sessionID)
}

// Previous returns the most recently activated session other than
// currentName. currentName may be empty when the caller is outside any
// session, in which case the most recent activation wins. Returns
// apperrors.ErrNoPreviousSession when nothing qualifies.
func (h *History) Previous(currentName string) (*store.Session, error) {
	return h.store.PreviousSession(currentName)
}
