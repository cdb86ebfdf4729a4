package practice

import (
	"errors"
	"math/rand"
	"sync"
	"testing"
	"time"

	"keycoach/music"
	"keycoach/sched"
)

type testSynth struct {
	mu     sync.Mutex
	events []string
}

func (s *testSynth) PlayNote(id string) (any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, "on "+id)
	return id, nil
}

func (s *testSynth) StopNote(h any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, "off "+h.(string))
}

func (s *testSynth) ons() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, e := range s.events {
		if e[:2] == "on" {
			n++
		}
	}
	return n
}

func (s *testSynth) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = nil
}

type testPresenter struct {
	challenges []string
	feedback   []string
	severities []Severity
	stats      []Stats
}

func (p *testPresenter) ShowChallenge(desc string) { p.challenges = append(p.challenges, desc) }
func (p *testPresenter) ShowFeedback(msg string, sev Severity) {
	p.feedback = append(p.feedback, msg)
	p.severities = append(p.severities, sev)
}
func (p *testPresenter) StatsChanged(s Stats) { p.stats = append(p.stats, s) }

type testRecorder struct {
	started, ended int
	results        []bool
}

func (r *testRecorder) SessionStarted(time.Time) { r.started++ }
func (r *testRecorder) SessionEnded(time.Time)   { r.ended++ }
func (r *testRecorder) ChallengeResult(_ string, _ []string, correct bool, _ time.Time) {
	r.results = append(r.results, correct)
}

type rig struct {
	synth     *testSynth
	s         *sched.Scheduler
	e         *Engine
	presenter *testPresenter
	recorder  *testRecorder
	now       time.Time
}

func newRig(cfg Config) *rig {
	r := &rig{
		synth:     &testSynth{},
		presenter: &testPresenter{},
		recorder:  &testRecorder{},
		now:       time.Unix(0, 0),
	}
	r.s = sched.NewScheduler(r.synth)
	r.s.SetClock(func() time.Time { return r.now })
	r.e = NewEngine(r.s, cfg)
	r.e.rng = rand.New(rand.NewSource(1))
	r.e.now = func() time.Time { return r.now }
	r.e.SetPresenter(r.presenter)
	r.e.SetRecorder(r.recorder)
	return r
}

// run plays host loop for a stretch of virtual time in small steps so that
// callback-chained scheduling keeps firing.
func (r *rig) run(d time.Duration) {
	const step = 25 * time.Millisecond
	for elapsed := time.Duration(0); elapsed < d; elapsed += step {
		r.now = r.now.Add(step)
		r.s.RunPending()
	}
}

// cMajorChord is the Scenario A configuration: C maj chord, two
// demonstration passes, medium pacing.
func cMajorChord() Config {
	cfg := DefaultConfig()
	cfg.Mode = music.KindChord
	cfg.RandomKey = false
	cfg.Root = music.C
	cfg.Pattern = "maj"
	cfg.Repetitions = 2
	return cfg
}

func (r *rig) playTarget(t *testing.T) {
	t.Helper()
	for _, id := range []string{"C4", "E4", "G4"} {
		r.e.HandleNoteOn(id)
	}
}

func (r *rig) awaitInput(t *testing.T) {
	t.Helper()
	r.run(3 * time.Second)
	if got := r.e.State(); got != AwaitingInput {
		t.Fatalf("state %s, want awaiting-input", got)
	}
}

func TestDemonstrationThenAwaitingInput(t *testing.T) {
	r := newRig(cMajorChord())
	r.e.Start()

	if got := r.e.State(); got != Demonstrating {
		t.Fatalf("state %s after start", got)
	}
	ids := r.e.TargetIDs()
	if len(ids) != 3 || ids[0] != "C4" || ids[1] != "E4" || ids[2] != "G4" {
		t.Fatalf("target %v", ids)
	}

	r.awaitInput(t)
	// Two passes of a three note chord.
	if r.synth.ons() != 6 {
		t.Fatalf("%d note-ons during demonstration, want 6", r.synth.ons())
	}
}

func TestScenarioExactMatch(t *testing.T) {
	r := newRig(cMajorChord())
	r.e.Start()
	r.awaitInput(t)

	r.playTarget(t)

	stats := r.e.StatsSnapshot()
	if stats.Correct != 1 || stats.CurrentStreak != 1 || stats.BestStreak != 1 {
		t.Fatalf("stats %+v", stats)
	}
	if len(r.presenter.severities) != 1 || r.presenter.severities[0] != Success {
		t.Fatalf("feedback %v %v", r.presenter.feedback, r.presenter.severities)
	}
	if len(r.recorder.results) != 1 || !r.recorder.results[0] {
		t.Fatalf("recorded results %v", r.recorder.results)
	}

	// After the feedback delay a fresh challenge is demonstrated.
	firstID := r.e.challenge.ID
	r.run(2 * time.Second)
	if r.e.challenge.ID == firstID {
		t.Fatal("expected a new challenge after success")
	}
	if got := r.e.State(); got != Demonstrating && got != AwaitingInput {
		t.Fatalf("state %s after advance", got)
	}
}

func TestSuccessFiresExactlyOnce(t *testing.T) {
	r := newRig(cMajorChord())
	r.e.Start()
	r.awaitInput(t)

	r.playTarget(t)
	// More input after the decision must be discarded, not re-evaluated.
	r.e.HandleNoteOn("B4")
	r.e.HandleNoteOn("C4")

	stats := r.e.StatsSnapshot()
	if stats.Correct != 1 || stats.TotalChallenges != 1 {
		t.Fatalf("stats %+v after extra input", stats)
	}
	if len(r.presenter.severities) != 1 {
		t.Fatalf("%d feedback messages, want 1", len(r.presenter.severities))
	}
}

func TestScenarioWrongNoteRetriesSameChallenge(t *testing.T) {
	r := newRig(cMajorChord())
	r.e.Start()
	r.awaitInput(t)

	// Build a streak first so the reset is observable.
	r.playTarget(t)
	r.run(2 * time.Second)
	r.awaitInput(t)
	challengeID := r.e.challenge.ID

	// Third note is wrong: the learner committed to three notes, one of
	// which is not in the target.
	r.e.HandleNoteOn("C4")
	r.e.HandleNoteOn("E4")
	r.e.HandleNoteOn("B4")

	stats := r.e.StatsSnapshot()
	if stats.Incorrect != 1 || stats.CurrentStreak != 0 || stats.BestStreak != 1 {
		t.Fatalf("stats %+v", stats)
	}
	last := r.presenter.severities[len(r.presenter.severities)-1]
	if last != Failure {
		t.Fatalf("last severity %s, want failure", last)
	}

	// Same challenge is demonstrated again, not a new one.
	r.synth.reset()
	r.run(2 * time.Second)
	if r.e.challenge.ID != challengeID {
		t.Fatal("retry generated a new challenge")
	}
	if r.synth.ons() == 0 {
		t.Fatal("retry did not replay the demonstration")
	}
}

func TestSupersetResetsStreakAndRetries(t *testing.T) {
	r := newRig(cMajorChord())
	r.e.Start()
	r.awaitInput(t)
	challengeID := r.e.challenge.ID

	// Superset of the target: all three chord tones plus an extra.
	r.e.mu.Lock()
	for _, id := range []string{"C4", "E4", "G4", "B4"} {
		r.e.matcher.Add(id)
	}
	r.e.evaluateLocked()
	r.e.mu.Unlock()

	stats := r.e.StatsSnapshot()
	if stats.CurrentStreak != 0 || stats.Correct != 0 || stats.Incorrect != 0 {
		t.Fatalf("stats %+v, superset must only reset the streak", stats)
	}
	last := r.presenter.severities[len(r.presenter.severities)-1]
	if last != Partial {
		t.Fatalf("severity %s, want partial", last)
	}

	r.run(2 * time.Second)
	if r.e.challenge.ID != challengeID {
		t.Fatal("superset advanced to a new challenge")
	}
}

func TestWrongNotesBelowTargetCountKeepWaiting(t *testing.T) {
	r := newRig(cMajorChord())
	r.e.Start()
	r.awaitInput(t)

	// Two wrong notes, fewer than the three the target asks for: the
	// learner may keep experimenting.
	r.e.HandleNoteOn("B4")
	r.e.HandleNoteOn("A4")

	if got := r.e.State(); got != AwaitingInput {
		t.Fatalf("state %s, want awaiting-input", got)
	}
	if len(r.presenter.severities) != 0 {
		t.Fatalf("unexpected feedback %v", r.presenter.feedback)
	}
}

func TestPauseResumeSameChallenge(t *testing.T) {
	r := newRig(cMajorChord())
	r.e.Start()
	target := r.e.TargetIDs()
	challengeID := r.e.challenge.ID

	r.e.Pause()
	if got := r.e.State(); got != Paused {
		t.Fatalf("state %s after pause", got)
	}
	// Input while paused is discarded.
	r.e.HandleNoteOn("C4")
	if len(r.e.PlayedIDs()) != 0 {
		t.Fatal("paused engine accepted input")
	}

	r.e.Resume()
	if got := r.e.State(); got != Demonstrating {
		t.Fatalf("state %s after resume", got)
	}
	if r.e.challenge.ID != challengeID {
		t.Fatal("resume generated a new challenge")
	}
	resumed := r.e.TargetIDs()
	if len(resumed) != len(target) {
		t.Fatalf("target %v != %v", resumed, target)
	}
	for i := range target {
		if resumed[i] != target[i] {
			t.Fatalf("target %v != %v", resumed, target)
		}
	}

	// Demonstration restarts from the first repetition and input works.
	r.awaitInput(t)
	r.playTarget(t)
	if r.e.StatsSnapshot().Correct != 1 {
		t.Fatal("challenge not completable after resume")
	}
}

func TestPauseCancelsPendingDemonstration(t *testing.T) {
	r := newRig(cMajorChord())
	r.e.Start()
	r.e.Pause()

	// The demonstration actions were already queued when pause hit; none
	// may fire afterwards.
	r.run(3 * time.Second)
	if r.synth.ons() != 0 {
		t.Fatalf("%d note-ons fired while paused", r.synth.ons())
	}
}

func TestStopDiscardsEverything(t *testing.T) {
	r := newRig(cMajorChord())
	r.e.Start()
	r.e.Stop()

	if got := r.e.State(); got != Idle {
		t.Fatalf("state %s after stop", got)
	}
	if r.recorder.started != 1 || r.recorder.ended != 1 {
		t.Fatalf("session log start=%d end=%d", r.recorder.started, r.recorder.ended)
	}

	r.run(3 * time.Second)
	if r.synth.ons() != 0 {
		t.Fatalf("%d stale note-ons after stop", r.synth.ons())
	}
}

func TestResumeWithEmptySlotStartsFresh(t *testing.T) {
	r := newRig(cMajorChord())
	r.e.Start()
	r.e.Pause()
	r.e.holder.Clear() // simulate a lost snapshot

	r.e.Resume()
	if got := r.e.State(); got != Demonstrating {
		t.Fatalf("state %s, want a fresh challenge demonstrating", got)
	}
}

func TestUnpluggedSkipsEvaluation(t *testing.T) {
	cfg := cMajorChord()
	cfg.Feedback = Unplugged
	r := newRig(cfg)
	r.e.Start()
	r.awaitInput(t)

	r.playTarget(t)

	if got := r.e.State(); got != AwaitingInput {
		t.Fatalf("state %s, unplugged must not advance", got)
	}
	stats := r.e.StatsSnapshot()
	if stats.Correct != 0 || stats.TotalChallenges != 0 {
		t.Fatalf("stats %+v mutated in unplugged mode", stats)
	}
	if len(r.e.PlayedIDs()) != 3 {
		t.Fatalf("played %v, free play should still accumulate", r.e.PlayedIDs())
	}
}

func TestGenerateFailureIsRecoverable(t *testing.T) {
	r := newRig(cMajorChord())
	r.e.resolve = func(music.PitchClass, []int) ([]music.Note, error) {
		return nil, errors.New("boom")
	}
	r.e.Start()

	if got := r.e.State(); got != Idle {
		t.Fatalf("state %s, want idle after failed generation", got)
	}
	if len(r.presenter.feedback) == 0 {
		t.Fatal("no recoverable feedback shown")
	}

	// A later start succeeds once resolution works again.
	r.e.resolve = music.Resolve
	r.e.Start()
	if got := r.e.State(); got != Demonstrating {
		t.Fatalf("state %s after recovery", got)
	}
}

func TestConfigChangeAppliesNextChallenge(t *testing.T) {
	r := newRig(cMajorChord())
	r.e.Start()
	if r.e.challenge.Repetitions != 2 {
		t.Fatalf("repetitions %d, want 2", r.e.challenge.Repetitions)
	}

	hard := cMajorChord()
	hard.Difficulty = Hard
	hard.Repetitions = 0 // use the profile default
	r.e.SetConfig(hard)

	// Current challenge keeps its pacing.
	if r.e.challenge.Repetitions != 2 {
		t.Fatal("difficulty change leaked into the running challenge")
	}

	r.awaitInput(t)
	r.playTarget(t)
	r.run(2 * time.Second)
	if r.e.challenge.Repetitions != 1 {
		t.Fatalf("next challenge repetitions %d, want hard profile 1", r.e.challenge.Repetitions)
	}
}

func TestExpertSuppressesHighlights(t *testing.T) {
	cfg := cMajorChord()
	cfg.Difficulty = Expert
	cfg.Display = time.Second // override must be ignored on expert
	if p := cfg.profile(); p.Display != 0 {
		t.Fatalf("expert display %s, want 0", p.Display)
	}
}

func TestPatternHistoryAvoidsRepeats(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Mode = music.KindScale
	r := newRig(cfg)

	r.e.mu.Lock()
	prev := ""
	for i := 0; i < 50; i++ {
		p := r.e.pickPatternLocked(music.KindScale)
		if p.Name == prev {
			r.e.mu.Unlock()
			t.Fatalf("pattern %q repeated back to back", p.Name)
		}
		prev = p.Name
	}
	r.e.mu.Unlock()
}

func TestSkipDealsNewChallengeKeepingStats(t *testing.T) {
	r := newRig(cMajorChord())
	r.e.Start()
	r.awaitInput(t)
	r.playTarget(t)
	r.run(3 * time.Second)
	r.awaitInput(t)

	before := r.e.StatsSnapshot()
	if before.Correct != 1 {
		t.Fatalf("Correct = %d before skip, want 1", before.Correct)
	}

	firstOns := r.synth.ons()
	r.e.Skip()
	if got := r.e.State(); got != Demonstrating {
		t.Fatalf("state %s after skip, want demonstrating", got)
	}
	if got := r.e.StatsSnapshot(); got != before {
		t.Errorf("stats changed across skip: %+v -> %+v", before, got)
	}
	if r.recorder.started != 1 || r.recorder.ended != 0 {
		t.Errorf("session churned across skip: started=%d ended=%d",
			r.recorder.started, r.recorder.ended)
	}

	// The replacement challenge demonstrates and becomes completable.
	r.awaitInput(t)
	if r.synth.ons() <= firstOns {
		t.Error("no demonstration notes after skip")
	}
	r.playTarget(t)
	r.run(3 * time.Second)
	if got := r.e.StatsSnapshot().Correct; got != 2 {
		t.Errorf("Correct = %d after completing the skipped-to challenge, want 2", got)
	}
}

func TestSkipIgnoredWhileIdleAndPaused(t *testing.T) {
	r := newRig(cMajorChord())

	r.e.Skip()
	if got := r.e.State(); got != Idle {
		t.Fatalf("state %s after idle skip, want idle", got)
	}

	r.e.Start()
	r.awaitInput(t)
	r.e.Pause()
	r.e.Skip()
	if got := r.e.State(); got != Paused {
		t.Errorf("state %s after paused skip, want paused", got)
	}
}
