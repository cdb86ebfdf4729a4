// Package practice runs the challenge state machine: it generates scale and
// chord targets, demonstrates them through the playback scheduler, collects
// live input, and judges the learner's attempt.
package practice

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"keycoach/debug"
	"keycoach/music"
	"keycoach/sched"
)

// State of the challenge engine. There is no terminal state; a session runs
// until stopped.
type State int

const (
	Idle State = iota
	Demonstrating
	AwaitingInput
	Evaluating
	Feedback
	Paused
)

var stateNames = [...]string{"idle", "demonstrating", "awaiting-input", "evaluating", "feedback", "paused"}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// historySize is how many recent pattern names are excluded from the next
// random pick.
const historySize = 3

// Engine orchestrates one practice session. All mutation of the current
// challenge and session stats happens here, under one lock; the scheduler's
// owner check drops any playback action belonging to a superseded
// challenge.
type Engine struct {
	mu        sync.Mutex
	cfg       Config
	sched     *sched.Scheduler
	presenter Presenter
	recorder  Recorder
	holder    *Holder
	matcher   *Matcher

	rng     *rand.Rand
	now     func() time.Time
	resolve func(music.PitchClass, []int) ([]music.Note, error)

	state       State
	challenge   *Challenge
	stats       Stats
	nextID      uint64
	history     []string
	sessionOpen bool

	// UpdateChan nudges the presentation layer after state changes.
	// Non-blocking sends; cap 1.
	UpdateChan chan struct{}
}

// NewEngine creates an engine driving the given scheduler.
func NewEngine(s *sched.Scheduler, cfg Config) *Engine {
	return &Engine{
		cfg:        cfg,
		sched:      s,
		presenter:  NopPresenter{},
		recorder:   NopRecorder{},
		holder:     NewHolder(),
		matcher:    NewMatcher(),
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
		now:        time.Now,
		resolve:    music.Resolve,
		UpdateChan: make(chan struct{}, 1),
	}
}

// SetPresenter wires the presentation sink.
func (e *Engine) SetPresenter(p Presenter) {
	e.mu.Lock()
	e.presenter = p
	e.mu.Unlock()
}

// SetRecorder wires the session log sink.
func (e *Engine) SetRecorder(r Recorder) {
	e.mu.Lock()
	e.recorder = r
	e.mu.Unlock()
}

// SetConfig replaces the practice configuration. It takes effect with the
// next generated challenge; the current challenge keeps the values it was
// created with.
func (e *Engine) SetConfig(cfg Config) {
	e.mu.Lock()
	e.cfg = cfg
	e.mu.Unlock()
}

// Config returns the active configuration.
func (e *Engine) Config() Config {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cfg
}

// State returns the current engine state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// StatsSnapshot returns a copy of the session stats.
func (e *Engine) StatsSnapshot() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stats
}

// ChallengeDescription returns the current challenge's description, or "".
func (e *Engine) ChallengeDescription() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.challenge == nil {
		return ""
	}
	return e.challenge.Description()
}

// TargetIDs returns the current challenge's target key ids in
// demonstration order, or nil.
func (e *Engine) TargetIDs() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.challenge == nil {
		return nil
	}
	return e.challenge.NoteIDs()
}

// PlayedIDs returns the note ids played so far for the current challenge.
func (e *Engine) PlayedIDs() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.matcher.Played()
}

// Start opens the session (if needed) and generates the first challenge.
// Valid from Idle only; anything else is ignored.
func (e *Engine) Start() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != Idle {
		debug.Log("engine", "start ignored in state %s", e.state)
		return
	}
	if !e.sessionOpen {
		e.sessionOpen = true
		e.stats = Stats{}
		e.recorder.SessionStarted(e.now())
	}
	e.holder.Clear()
	e.generateChallengeLocked()
}

// HandleNoteOn feeds one input note into the engine. Input arriving outside
// AwaitingInput is silently discarded; this is what keeps demonstration
// notes and notes played while paused out of the played set.
func (e *Engine) HandleNoteOn(noteID string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != AwaitingInput {
		debug.Log("engine", "discarding %s in state %s", noteID, e.state)
		return
	}
	if !e.matcher.Add(noteID) {
		return // duplicate, no re-evaluation
	}
	e.notifyLocked()

	if e.cfg.Feedback == Unplugged {
		return
	}
	e.evaluateLocked()
}

// Pause freezes the current challenge. Valid from Demonstrating or
// AwaitingInput.
func (e *Engine) Pause() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != Demonstrating && e.state != AwaitingInput {
		debug.Log("engine", "pause ignored in state %s", e.state)
		return
	}

	e.sched.CancelAll()
	e.sched.SilenceAll()
	e.sched.SetActiveOwner(0)
	e.holder.Snapshot(Snapshot{
		Challenge: e.challenge,
		State:     e.state,
		Played:    e.matcher.Played(),
		Stats:     e.stats,
	})
	e.state = Paused
	debug.Log("engine", "paused challenge %d", e.challenge.ID)
	e.notifyLocked()
}

// Resume thaws the paused challenge and restarts its demonstration from
// the first repetition. An empty pause slot is reported and falls back to
// a fresh challenge.
func (e *Engine) Resume() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != Paused {
		debug.Log("engine", "resume ignored in state %s", e.state)
		return
	}

	snap, err := e.holder.Restore()
	if err != nil {
		debug.Warn("engine", "resume: %v, starting fresh", err)
		e.generateChallengeLocked()
		return
	}

	e.challenge = snap.Challenge
	e.stats = snap.Stats
	e.matcher.Restore(snap.Played)
	e.sched.SetActiveOwner(snap.Challenge.ID)
	e.state = Demonstrating
	debug.Log("engine", "resumed challenge %d", snap.Challenge.ID)
	e.notifyLocked()
	e.demonstrateLocked(0)
}

// Skip abandons the current challenge and deals a new one. Valid while a
// challenge is live; session stats carry over untouched.
func (e *Engine) Skip() {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch e.state {
	case Demonstrating, AwaitingInput, Feedback:
	default:
		debug.Log("engine", "skip ignored in state %s", e.state)
		return
	}

	e.sched.CancelAll()
	e.sched.SilenceAll()
	e.matcher.Reset()
	debug.Log("engine", "skipped challenge %d", e.challenge.ID)
	e.generateChallengeLocked()
}

// Stop ends the session from any state: cancels all playback, discards the
// challenge and any paused snapshot, closes the session log.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.sched.CancelAll()
	e.sched.SilenceAll()
	e.sched.SetActiveOwner(0)
	e.challenge = nil
	e.holder.Clear()
	e.matcher.Reset()
	if e.sessionOpen {
		e.sessionOpen = false
		e.recorder.SessionEnded(e.now())
	}
	e.state = Idle
	e.notifyLocked()
}

// generateChallengeLocked creates and starts demonstrating a new challenge.
// A resolution failure is recoverable: the engine reports it and stays
// Idle.
func (e *Engine) generateChallengeLocked() {
	cfg := e.cfg
	prof := cfg.profile()

	root := cfg.Root
	if cfg.RandomKey {
		root = music.PitchClass(e.rng.Intn(12))
	}
	pattern := e.pickPatternLocked(cfg.Mode)

	notes, err := e.resolve(root, pattern.Intervals)
	if err != nil || len(notes) == 0 {
		debug.Warn("engine", "generate %s %s from %s: %v", cfg.Mode, pattern.Name, root, err)
		e.state = Idle
		e.presenter.ShowFeedback("could not generate a challenge, try again", Info)
		e.notifyLocked()
		return
	}
	if len(notes) < len(pattern.Intervals) {
		debug.Log("engine", "%s %s from %s lost %d notes to range",
			cfg.Mode, pattern.Name, root, len(pattern.Intervals)-len(notes))
	}

	e.nextID++
	target := make(map[string]bool, len(notes))
	for _, n := range notes {
		target[n.ID()] = true
	}
	e.challenge = &Challenge{
		ID:          e.nextID,
		Mode:        cfg.Mode,
		Root:        root,
		PatternName: pattern.Name,
		Notes:       notes,
		Target:      target,
		Repetitions: prof.Repetitions,
		Profile:     prof,
	}
	e.matcher.Reset()
	e.sched.SetActiveOwner(e.challenge.ID)
	e.state = Demonstrating

	debug.Log("engine", "challenge %d: %s", e.challenge.ID, e.challenge.Description())
	e.presenter.ShowChallenge(e.challenge.Description())
	e.notifyLocked()
	e.demonstrateLocked(0)
}

// pickPatternLocked chooses a random pattern, excluding recently used
// names so the same shape never repeats back to back.
func (e *Engine) pickPatternLocked(kind music.PatternKind) music.Pattern {
	if e.cfg.Pattern != "" {
		if p, ok := music.FindPattern(kind, e.cfg.Pattern); ok {
			return p
		}
		debug.Warn("engine", "pattern %q not in %s corpus, drawing randomly", e.cfg.Pattern, kind)
	}
	corpus := music.Corpus(kind)

	recent := make(map[string]bool, len(e.history))
	for _, name := range e.history {
		recent[name] = true
	}
	eligible := make([]music.Pattern, 0, len(corpus))
	for _, p := range corpus {
		if !recent[p.Name] {
			eligible = append(eligible, p)
		}
	}
	if len(eligible) == 0 {
		eligible = corpus
	}

	p := eligible[e.rng.Intn(len(eligible))]
	e.history = append(e.history, p.Name)
	if len(e.history) > historySize {
		e.history = e.history[len(e.history)-historySize:]
	}
	return p
}

// demonstrateLocked plays one demonstration pass and chains the next one
// through the playback completion.
func (e *Engine) demonstrateLocked(pass int) {
	ch := e.challenge
	id := ch.ID
	done := func() { e.passDone(id, pass) }

	if ch.Mode == music.KindChord {
		e.sched.PlayChord(ch.Notes, sched.ChordOptions{
			Bucket:       ch.Bucket(),
			Owner:        id,
			Hold:         ch.Profile.Hold,
			HighlightFor: ch.Profile.Display,
			OnComplete:   done,
		})
		return
	}
	e.sched.PlaySequence(ch.Notes, sched.SequenceOptions{
		Bucket:       ch.Bucket(),
		Owner:        id,
		Gap:          ch.Profile.Gap,
		Hold:         ch.Profile.Hold,
		HighlightFor: ch.Profile.Display,
		OnComplete:   done,
	})
}

// passDone runs on the host loop after one demonstration pass finished.
func (e *Engine) passDone(id uint64, pass int) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ch := e.challenge
	if ch == nil || ch.ID != id || e.state != Demonstrating {
		return
	}

	if pass+1 < ch.Repetitions {
		next := pass + 1
		e.sched.Schedule(ch.Bucket(), ch.Profile.Rest, id, func() { e.startPass(id, next) })
		return
	}

	// Demonstration over; anything the learner plays from here counts.
	e.matcher.Reset()
	e.state = AwaitingInput
	debug.Log("engine", "challenge %d awaiting input", id)
	e.notifyLocked()
}

func (e *Engine) startPass(id uint64, pass int) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ch := e.challenge
	if ch == nil || ch.ID != id || e.state != Demonstrating {
		return
	}
	e.demonstrateLocked(pass)
}

// evaluateLocked judges the played set. Runs synchronously on every
// accepted input note.
func (e *Engine) evaluateLocked() {
	ch := e.challenge
	e.state = Evaluating

	switch e.matcher.Compare(ch.Target) {
	case Match:
		e.state = Feedback
		e.stats.TotalChallenges++
		e.stats.Correct++
		e.stats.CurrentStreak++
		if e.stats.CurrentStreak > e.stats.BestStreak {
			e.stats.BestStreak = e.stats.CurrentStreak
		}
		e.presenter.ShowFeedback(fmt.Sprintf("%s — correct!", ch.Description()), Success)
		e.presenter.StatsChanged(e.stats)
		e.recorder.ChallengeResult(ch.Description(), ch.NoteIDs(), true, e.now())
		e.sched.Schedule(ch.Bucket(), ch.Profile.FeedbackDelay, ch.ID, func() { e.advance(ch.ID) })

	case Incomplete:
		e.state = AwaitingInput

	case Superset:
		e.state = Feedback
		e.stats.CurrentStreak = 0
		e.presenter.ShowFeedback("all target notes plus extras — listen again", Partial)
		e.presenter.StatsChanged(e.stats)
		e.sched.Schedule(ch.Bucket(), ch.Profile.FeedbackDelay, ch.ID, func() { e.retry(ch.ID) })

	case Wrong:
		e.state = Feedback
		e.stats.TotalChallenges++
		e.stats.Incorrect++
		e.stats.CurrentStreak = 0
		e.presenter.ShowFeedback(fmt.Sprintf("not quite — it was %s", ch.Description()), Failure)
		e.presenter.StatsChanged(e.stats)
		e.recorder.ChallengeResult(ch.Description(), ch.NoteIDs(), false, e.now())
		e.sched.Schedule(ch.Bucket(), ch.Profile.FeedbackDelay, ch.ID, func() { e.retry(ch.ID) })
	}
	e.notifyLocked()
}

// advance runs after success feedback and produces the next challenge.
func (e *Engine) advance(id uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.challenge == nil || e.challenge.ID != id || e.state != Feedback {
		return
	}
	e.generateChallengeLocked()
}

// retry replays the demonstration of the same challenge after partial or
// failure feedback.
func (e *Engine) retry(id uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ch := e.challenge
	if ch == nil || ch.ID != id || e.state != Feedback {
		return
	}
	e.matcher.Reset()
	e.state = Demonstrating
	debug.Log("engine", "retrying challenge %d", id)
	e.notifyLocked()
	e.demonstrateLocked(0)
}

func (e *Engine) notifyLocked() {
	select {
	case e.UpdateChan <- struct{}{}:
	default:
	}
}
