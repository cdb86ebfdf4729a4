package music

import (
	"errors"
	"fmt"

	"keycoach/debug"
)

var (
	// ErrInvalidRoot means the root pitch class cannot be placed anywhere
	// on the keyboard.
	ErrInvalidRoot = errors.New("root not resolvable within playable range")

	// ErrInvalidPattern means the interval pattern itself is unusable.
	ErrInvalidPattern = errors.New("invalid interval pattern")
)

// Resolve maps a root pitch class and an interval pattern onto concrete
// keyboard notes, one per offset, each in the lowest octave that keeps the
// note inside the playable range.
//
// Non-root notes that fall off the top of the keyboard are retried one
// octave higher and then dropped; losing notes is a quiet degradation, not
// an error. Only an unplaceable root fails the whole resolution.
func Resolve(root PitchClass, intervals []int) ([]Note, error) {
	if root < 0 || root > 11 {
		return nil, fmt.Errorf("resolve %d: %w", int(root), ErrInvalidRoot)
	}
	if len(intervals) == 0 {
		return nil, fmt.Errorf("resolve %s: %w", root, ErrInvalidPattern)
	}

	base := LowestOctave(root)
	rootNote := Note{Class: root, Octave: base}
	if !InRange(rootNote) {
		rootNote.Octave++
		if !InRange(rootNote) {
			return nil, fmt.Errorf("resolve %s: %w", root, ErrInvalidRoot)
		}
	}

	notes := make([]Note, 0, len(intervals))
	for _, offset := range intervals {
		if offset == 0 {
			notes = append(notes, rootNote)
			continue
		}

		// Wrap into a pitch class, carry the whole octaves. The per-class
		// base octave table already accounts for the range not starting on
		// C, so no extra bump is needed for tail roots.
		class := PitchClass((int(root) + offset) % 12)
		step := (int(root) + offset) / 12
		n := Note{Class: class, Octave: rootNote.Octave + step}

		if !InRange(n) {
			n.Octave++
			if !InRange(n) {
				debug.Log("resolve", "dropping %s+%d: %s out of range", root, offset, n.ID())
				continue
			}
		}
		notes = append(notes, n)
	}
	return notes, nil
}

// ResolvePattern resolves a corpus pattern for a root.
func ResolvePattern(root PitchClass, p Pattern) ([]Note, error) {
	return Resolve(root, p.Intervals)
}
