package practice

import (
	"fmt"
	"time"

	"keycoach/music"
)

// Difficulty selects a pacing profile. It takes effect at the next
// generated challenge, never mid-challenge.
type Difficulty int

const (
	Easy Difficulty = iota
	Medium
	Hard
	Expert
)

var difficultyNames = map[Difficulty]string{
	Easy:   "easy",
	Medium: "medium",
	Hard:   "hard",
	Expert: "expert",
}

func (d Difficulty) String() string { return difficultyNames[d] }

// ParseDifficulty maps a config string to a Difficulty.
func ParseDifficulty(s string) (Difficulty, error) {
	for d, name := range difficultyNames {
		if name == s {
			return d, nil
		}
	}
	return 0, fmt.Errorf("unknown difficulty %q", s)
}

// FeedbackMode controls whether the engine judges input automatically.
type FeedbackMode int

const (
	// Active evaluates every accepted note and advances or retries.
	Active FeedbackMode = iota
	// Unplugged lets the learner free-play for reference; no automatic
	// evaluation or feedback happens.
	Unplugged
)

// ParseFeedbackMode maps a config string to a FeedbackMode.
func ParseFeedbackMode(s string) (FeedbackMode, error) {
	switch s {
	case "active":
		return Active, nil
	case "unplugged":
		return Unplugged, nil
	}
	return 0, fmt.Errorf("unknown feedback mode %q", s)
}

// Profile holds the soft pacing values for one difficulty. None of these
// are correctness-bearing deadlines.
type Profile struct {
	Repetitions   int
	Gap           time.Duration // between note-ons in a scale pass
	Hold          time.Duration // note sound length
	Display       time.Duration // visual highlight length, 0 = no hint
	Rest          time.Duration // between demonstration passes
	FeedbackDelay time.Duration // feedback shown before advance/retry
}

var profiles = map[Difficulty]Profile{
	Easy: {
		Repetitions:   3,
		Gap:           600 * time.Millisecond,
		Hold:          500 * time.Millisecond,
		Display:       1200 * time.Millisecond,
		Rest:          800 * time.Millisecond,
		FeedbackDelay: 1200 * time.Millisecond,
	},
	Medium: {
		Repetitions:   2,
		Gap:           450 * time.Millisecond,
		Hold:          400 * time.Millisecond,
		Display:       900 * time.Millisecond,
		Rest:          600 * time.Millisecond,
		FeedbackDelay: 1000 * time.Millisecond,
	},
	Hard: {
		Repetitions:   1,
		Gap:           320 * time.Millisecond,
		Hold:          280 * time.Millisecond,
		Display:       600 * time.Millisecond,
		Rest:          450 * time.Millisecond,
		FeedbackDelay: 800 * time.Millisecond,
	},
	Expert: {
		Repetitions:   1,
		Gap:           260 * time.Millisecond,
		Hold:          220 * time.Millisecond,
		Display:       0, // no visual hint
		Rest:          400 * time.Millisecond,
		FeedbackDelay: 700 * time.Millisecond,
	},
}

// ProfileFor returns the pacing profile for a difficulty.
func ProfileFor(d Difficulty) Profile { return profiles[d] }

// Config is the read-only practice configuration. It may change between
// challenges; the engine copies the relevant values into each Challenge at
// generation time.
type Config struct {
	Difficulty Difficulty
	Feedback   FeedbackMode
	Mode       music.PatternKind

	// RandomKey picks a random root per challenge; otherwise Root is used.
	RandomKey bool
	Root      music.PitchClass

	// Pattern pins practice to one named shape from the corpus instead of
	// drawing randomly, e.g. "maj" or "harmonic minor".
	Pattern string

	// Repetitions overrides the difficulty default when > 0.
	Repetitions int
	// Display overrides the difficulty default when > 0. Ignored on
	// expert, which never shows hints.
	Display time.Duration
}

// DefaultConfig is a medium chord practice session in random keys.
func DefaultConfig() Config {
	return Config{
		Difficulty: Medium,
		Feedback:   Active,
		Mode:       music.KindChord,
		RandomKey:  true,
	}
}

// profile resolves the effective pacing for this config.
func (c Config) profile() Profile {
	p := ProfileFor(c.Difficulty)
	if c.Repetitions > 0 {
		p.Repetitions = c.Repetitions
	}
	if c.Display > 0 && c.Difficulty != Expert {
		p.Display = c.Display
	}
	return p
}
