package practice

import "sort"

// Verdict is the outcome of comparing the played set against a target.
type Verdict int

const (
	// Incomplete: not enough information yet, keep waiting for input.
	Incomplete Verdict = iota
	// Match: played set equals the target exactly.
	Match
	// Superset: every target note present plus extras.
	Superset
	// Wrong: at least as many notes as the target but not a superset.
	// The learner committed to enough notes and some are wrong.
	Wrong
)

// Matcher accumulates the played note set for the current challenge.
// Gating by engine state happens in the engine; the matcher itself only
// owns the set semantics.
type Matcher struct {
	played map[string]bool
}

// NewMatcher returns an empty matcher.
func NewMatcher() *Matcher {
	return &Matcher{played: make(map[string]bool)}
}

// Add records a note id. Returns false when the note was already present;
// duplicate additions are no-ops and must not retrigger evaluation.
func (m *Matcher) Add(noteID string) bool {
	if m.played[noteID] {
		return false
	}
	m.played[noteID] = true
	return true
}

// Reset clears the played set for a new challenge or retry.
func (m *Matcher) Reset() {
	m.played = make(map[string]bool)
}

// Count returns how many distinct notes have been played.
func (m *Matcher) Count() int { return len(m.played) }

// Played returns the played note ids, sorted for stable snapshots.
func (m *Matcher) Played() []string {
	ids := make([]string, 0, len(m.played))
	for id := range m.played {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Restore replaces the played set from a snapshot.
func (m *Matcher) Restore(ids []string) {
	m.played = make(map[string]bool, len(ids))
	for _, id := range ids {
		m.played[id] = true
	}
}

// Has reports whether a note id has been played.
func (m *Matcher) Has(noteID string) bool { return m.played[noteID] }

// Compare judges the played set against the target set.
//
// A wrong note alone does not decide the challenge: the Wrong verdict only
// fires once the learner has committed at least as many notes as the
// target asks for. That threshold is deliberate pedagogy carried over from
// the original trainer.
func (m *Matcher) Compare(target map[string]bool) Verdict {
	missing := 0
	for id := range target {
		if !m.played[id] {
			missing++
		}
	}
	extras := len(m.played) - (len(target) - missing)

	switch {
	case missing == 0 && extras == 0:
		return Match
	case missing == 0 && extras > 0:
		return Superset
	case len(m.played) >= len(target):
		return Wrong
	default:
		return Incomplete
	}
}
