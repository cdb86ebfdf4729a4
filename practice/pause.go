package practice

import "errors"

// ErrEmptySnapshot is returned by Restore when nothing was paused. Callers
// report it for diagnostics and fall back to starting a fresh challenge.
var ErrEmptySnapshot = errors.New("no paused snapshot")

// Snapshot is the frozen state of a suspended challenge.
type Snapshot struct {
	Challenge *Challenge
	State     State
	Played    []string
	Stats     Stats
}

// Holder is the single-slot pause store. Snapshot overwrites; Restore
// clears. At most one frozen challenge exists at a time.
type Holder struct {
	slot *Snapshot
}

// NewHolder returns an empty holder.
func NewHolder() *Holder { return &Holder{} }

// Snapshot stores a frozen state, replacing any previous one.
func (h *Holder) Snapshot(s Snapshot) {
	h.slot = &s
}

// Restore returns and clears the stored snapshot.
func (h *Holder) Restore() (Snapshot, error) {
	if h.slot == nil {
		return Snapshot{}, ErrEmptySnapshot
	}
	s := *h.slot
	h.slot = nil
	return s, nil
}

// Clear drops any stored snapshot.
func (h *Holder) Clear() { h.slot = nil }

// Empty reports whether the slot is vacant.
func (h *Holder) Empty() bool { return h.slot == nil }
