package widgets

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"keycoach/music"
	"keycoach/theme"
)

// keyCell is the printed width of one key slot.
const keyCell = 4

// RenderKeyboard renders the playable range as two rows: accidentals on
// top, naturals below. A key that is both highlighted and played renders
// as highlighted.
func RenderKeyboard(th *theme.Theme, highlighted, played map[string]bool) string {
	var top, bottom strings.Builder

	// Shift the accidental row half a cell so sharps sit between their
	// neighboring naturals.
	top.WriteString(strings.Repeat(" ", keyCell/2))

	for _, n := range music.Keyboard() {
		if n.Class.IsAccidental() {
			continue
		}
		bottom.WriteString(renderKey(th, th.WhiteKey, n.ID(), highlighted, played))

		sharp, ok := sharpOf(n)
		if ok && music.InRange(sharp) {
			top.WriteString(renderKey(th, th.BlackKey, sharp.ID(), highlighted, played))
		} else {
			top.WriteString(strings.Repeat(" ", keyCell))
		}
	}

	return top.String() + "\n" + bottom.String()
}

// RenderKeyLegend explains the key states shown on the keyboard.
func RenderKeyLegend(th *theme.Theme) string {
	return strings.Join([]string{
		th.Highlight.Render("■") + " demonstrated",
		th.Played.Render("■") + " played",
	}, "   ")
}

func renderKey(th *theme.Theme, base lipgloss.Style, id string, highlighted, played map[string]bool) string {
	style := base
	switch {
	case highlighted[id]:
		style = th.Highlight
	case played[id]:
		style = th.Played
	}
	return style.Render(runewidth.FillRight(id, keyCell))
}

// sharpOf returns the accidental directly above a natural, if one exists.
func sharpOf(n music.Note) (music.Note, bool) {
	if n.Class == music.E || n.Class == music.B {
		return music.Note{}, false
	}
	return music.Note{Class: n.Class + 1, Octave: n.Octave}, true
}
