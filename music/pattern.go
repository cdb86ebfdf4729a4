package music

import (
	"fmt"
	"sort"
)

// PatternKind distinguishes the two practice corpora.
type PatternKind int

const (
	KindScale PatternKind = iota
	KindChord
)

func (k PatternKind) String() string {
	if k == KindChord {
		return "chord"
	}
	return "scale"
}

// Pattern is a named shape: an ordered list of semitone offsets from a root.
type Pattern struct {
	Name      string
	Kind      PatternKind
	Intervals []int
}

// Interval tables for the scale corpus.
var scaleDefs = map[string][]int{
	"major":            {0, 2, 4, 5, 7, 9, 11},
	"natural minor":    {0, 2, 3, 5, 7, 8, 10},
	"harmonic minor":   {0, 2, 3, 5, 7, 8, 11},
	"melodic minor":    {0, 2, 3, 5, 7, 9, 11},
	"dorian":           {0, 2, 3, 5, 7, 9, 10},
	"mixolydian":       {0, 2, 4, 5, 7, 9, 10},
	"major pentatonic": {0, 2, 4, 7, 9},
	"minor pentatonic": {0, 3, 5, 7, 10},
	"blues":            {0, 3, 5, 6, 7, 10},
}

// Interval tables for the chord corpus (semitones from root).
var chordDefs = map[string][]int{
	"maj":     {0, 4, 7},
	"min":     {0, 3, 7},
	"dim":     {0, 3, 6},
	"aug":     {0, 4, 8},
	"sus2":    {0, 2, 7},
	"sus4":    {0, 5, 7},
	"7":       {0, 4, 7, 10},
	"maj7":    {0, 4, 7, 11},
	"min7":    {0, 3, 7, 10},
	"dim7":    {0, 3, 6, 9},
	"hdim7":   {0, 3, 6, 10},
	"minmaj7": {0, 3, 7, 11},
	"aug7":    {0, 4, 8, 10},
	"maj6":    {0, 4, 7, 9},
	"min6":    {0, 3, 7, 9},
}

var (
	scaleCorpus []Pattern
	chordCorpus []Pattern
)

func init() {
	scaleCorpus = mustBuildCorpus(KindScale, scaleDefs)
	chordCorpus = mustBuildCorpus(KindChord, chordDefs)
}

// Scales returns the validated scale corpus in name order.
func Scales() []Pattern { return scaleCorpus }

// Chords returns the validated chord corpus in name order.
func Chords() []Pattern { return chordCorpus }

// Corpus returns the corpus for a kind.
func Corpus(kind PatternKind) []Pattern {
	if kind == KindChord {
		return chordCorpus
	}
	return scaleCorpus
}

// FindPattern looks up a pattern by name within a kind.
func FindPattern(kind PatternKind, name string) (Pattern, bool) {
	for _, p := range Corpus(kind) {
		if p.Name == name {
			return p, true
		}
	}
	return Pattern{}, false
}

// mustBuildCorpus validates every table entry once at startup. A malformed
// entry is a programming error, not a runtime condition.
func mustBuildCorpus(kind PatternKind, defs map[string][]int) []Pattern {
	names := make([]string, 0, len(defs))
	for name := range defs {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]Pattern, 0, len(names))
	for _, name := range names {
		p := Pattern{Name: name, Kind: kind, Intervals: defs[name]}
		if err := p.validate(); err != nil {
			panic(fmt.Sprintf("bad %s corpus entry %q: %v", kind, name, err))
		}
		out = append(out, p)
	}
	return out
}

func (p Pattern) validate() error {
	if p.Name == "" {
		return fmt.Errorf("empty name")
	}
	if len(p.Intervals) == 0 {
		return fmt.Errorf("no intervals")
	}
	if p.Intervals[0] != 0 {
		return fmt.Errorf("first interval must be the root (0), got %d", p.Intervals[0])
	}
	for _, iv := range p.Intervals {
		if iv < 0 {
			return fmt.Errorf("negative interval %d", iv)
		}
		if iv > 24 {
			return fmt.Errorf("interval %d exceeds two octaves", iv)
		}
	}
	return nil
}
