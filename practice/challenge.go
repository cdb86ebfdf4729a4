package practice

import (
	"fmt"
	"time"

	"keycoach/music"
)

// Challenge is one target the learner must reproduce. Target notes never
// change after creation; only the played set and session stats mutate
// during its lifetime.
type Challenge struct {
	ID          uint64
	Mode        music.PatternKind
	Root        music.PitchClass
	PatternName string
	Notes       []music.Note // demonstration order
	Target      map[string]bool
	Repetitions int
	Profile     Profile
}

// Description renders the challenge for the presentation layer,
// e.g. "C maj chord" or "A major scale".
func (c *Challenge) Description() string {
	return fmt.Sprintf("%s %s %s", c.Root, c.PatternName, c.Mode)
}

// NoteIDs returns the target key ids in demonstration order.
func (c *Challenge) NoteIDs() []string {
	ids := make([]string, len(c.Notes))
	for i, n := range c.Notes {
		ids[i] = n.ID()
	}
	return ids
}

// Bucket names the scheduling bucket all of this challenge's playback
// actions live in.
func (c *Challenge) Bucket() string { return c.Mode.String() }

// Stats tracks one session's score. Mutated only by the engine when an
// evaluation reaches a decision.
type Stats struct {
	TotalChallenges int
	Correct         int
	Incorrect       int
	CurrentStreak   int
	BestStreak      int
}

// Severity classifies feedback messages for the presentation layer.
type Severity int

const (
	Info Severity = iota
	Success
	Partial
	Failure
)

func (s Severity) String() string {
	switch s {
	case Success:
		return "success"
	case Partial:
		return "partial"
	case Failure:
		return "failure"
	}
	return "info"
}

// Presenter receives one-way notifications from the engine. Implementations
// must not call back into the engine.
type Presenter interface {
	ShowChallenge(desc string)
	ShowFeedback(msg string, sev Severity)
	StatsChanged(s Stats)
}

// Recorder is the append-only session log sink. The engine never reads
// anything back from it.
type Recorder interface {
	SessionStarted(at time.Time)
	SessionEnded(at time.Time)
	ChallengeResult(desc string, noteIDs []string, correct bool, at time.Time)
}

// NopPresenter discards all notifications.
type NopPresenter struct{}

func (NopPresenter) ShowChallenge(string)          {}
func (NopPresenter) ShowFeedback(string, Severity) {}
func (NopPresenter) StatsChanged(Stats)            {}

// NopRecorder discards all records.
type NopRecorder struct{}

func (NopRecorder) SessionStarted(time.Time)                          {}
func (NopRecorder) SessionEnded(time.Time)                            {}
func (NopRecorder) ChallengeResult(string, []string, bool, time.Time) {}
