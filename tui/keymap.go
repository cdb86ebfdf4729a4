package tui

import (
	"github.com/charmbracelet/bubbles/key"

	"keycoach/music"
)

// KeyMap holds the control bindings. Note entry keys live in noteOffsets
// and bypass the binding layer.
type KeyMap struct {
	Start      key.Binding
	Pause      key.Binding
	Skip       key.Binding
	Stop       key.Binding
	OctaveDown key.Binding
	OctaveUp   key.Binding
	Help       key.Binding
	Quit       key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Start: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "start"),
		),
		Pause: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("space", "pause/resume"),
		),
		Skip: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "new challenge"),
		),
		Stop: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "stop"),
		),
		OctaveDown: key.NewBinding(
			key.WithKeys("z"),
			key.WithHelp("z", "octave down"),
		),
		OctaveUp: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "octave up"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Start, k.Pause, k.Skip, k.Stop, k.Help, k.Quit}
}

func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Start, k.Pause, k.Skip, k.Stop},
		{k.OctaveDown, k.OctaveUp, k.Help, k.Quit},
	}
}

// noteOffsets lays the qwerty rows out like a piano: home row naturals
// from C, the row above for sharps. Values are semitones above the C of
// the current octave.
var noteOffsets = map[string]int{
	"a": 0, "w": 1, "s": 2, "e": 3, "d": 4,
	"f": 5, "t": 6, "g": 7, "y": 8, "h": 9,
	"u": 10, "j": 11, "k": 12, "o": 13, "l": 14,
	"p": 15, ";": 16,
}

// noteForKey maps a typed key to a note id in the given octave. Returns
// false for keys that are not note keys or fall off the keyboard.
func noteForKey(k string, octave int) (string, bool) {
	off, ok := noteOffsets[k]
	if !ok {
		return "", false
	}
	n := music.NoteFromMIDI((octave+1)*12 + off)
	if !music.InRange(n) {
		return "", false
	}
	return n.ID(), true
}
