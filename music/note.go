package music

import "fmt"

// PitchClass is one of the 12 semitone categories, independent of octave.
type PitchClass int

const (
	C PitchClass = iota
	Cs
	D
	Ds
	E
	F
	Fs
	G
	Gs
	A
	As
	B
)

var pitchNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

func (pc PitchClass) String() string {
	if pc < 0 || pc > 11 {
		return fmt.Sprintf("PitchClass(%d)", int(pc))
	}
	return pitchNames[pc]
}

// ParsePitchClass parses a sharp-style name like "C" or "F#".
func ParsePitchClass(s string) (PitchClass, bool) {
	for i, name := range pitchNames {
		if name == s {
			return PitchClass(i), true
		}
	}
	return 0, false
}

// AllPitchClasses lists the 12 pitch classes in chromatic order.
func AllPitchClasses() []PitchClass {
	out := make([]PitchClass, 12)
	for i := range out {
		out[i] = PitchClass(i)
	}
	return out
}

// Note is a concrete pitch on the keyboard: pitch class plus octave.
type Note struct {
	Class  PitchClass
	Octave int
}

// ID returns the stable key address for the note, e.g. "C#4".
func (n Note) ID() string {
	return fmt.Sprintf("%s%d", n.Class, n.Octave)
}

// MIDI returns the MIDI note number (C4 = 60).
func (n Note) MIDI() int {
	return (n.Octave+1)*12 + int(n.Class)
}

// NoteFromMIDI converts a MIDI note number back to a Note.
func NoteFromMIDI(m int) Note {
	return Note{Class: PitchClass(m % 12), Octave: m/12 - 1}
}

// ParseNoteID parses a key id like "C#4" back into a Note.
func ParseNoteID(id string) (Note, bool) {
	if len(id) < 2 {
		return Note{}, false
	}
	split := len(id) - 1
	if id[split] == '-' { // negative octaves never occur on the keyboard
		return Note{}, false
	}
	oct := int(id[split] - '0')
	if oct < 0 || oct > 9 {
		return Note{}, false
	}
	pc, ok := ParsePitchClass(id[:split])
	if !ok {
		return Note{}, false
	}
	return Note{Class: pc, Octave: oct}, true
}

// Playable range of the practice keyboard: A3 through C6 inclusive.
// The span does not start on pitch class C, so the lowest representable
// octave differs between pitch classes (A/A#/B start an octave below the rest).
const (
	RangeLow  = 57 // A3
	RangeHigh = 84 // C6
)

// InRange reports whether the note lies on the practice keyboard.
func InRange(n Note) bool {
	m := n.MIDI()
	return m >= RangeLow && m <= RangeHigh
}

// lowestOctave maps each pitch class to the lowest octave the keyboard
// can represent it in. Indexed by PitchClass.
var lowestOctave = [12]int{4, 4, 4, 4, 4, 4, 4, 4, 4, 3, 3, 3}

// LowestOctave returns the lowest playable octave for a pitch class.
func LowestOctave(pc PitchClass) int {
	return lowestOctave[pc]
}

// Keyboard returns every playable note in ascending order, low A3 first.
func Keyboard() []Note {
	notes := make([]Note, 0, RangeHigh-RangeLow+1)
	for m := RangeLow; m <= RangeHigh; m++ {
		notes = append(notes, NoteFromMIDI(m))
	}
	return notes
}

// IsAccidental reports whether the pitch class is a black key.
func (pc PitchClass) IsAccidental() bool {
	switch pc {
	case Cs, Ds, Fs, Gs, As:
		return true
	}
	return false
}
