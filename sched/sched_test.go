package sched

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"keycoach/music"
)

// fakeSynth records note on/off events in order. Handles are the note ids
// themselves.
type fakeSynth struct {
	mu     sync.Mutex
	events []string
	fail   bool
}

func (f *fakeSynth) PlayNote(id string) (any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return nil, errors.New("no handle")
	}
	f.events = append(f.events, "on "+id)
	return id, nil
}

func (f *fakeSynth) StopNote(h any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, "off "+h.(string))
}

func (f *fakeSynth) log() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.events...)
}

type fakeHighlighter struct {
	calls []string
}

func (f *fakeHighlighter) HighlightKeys(ids []string, d time.Duration) {
	f.calls = append(f.calls, fmt.Sprintf("%v for %s", ids, d))
}

// newTestScheduler returns a scheduler on a manual clock plus the function
// that advances it.
func newTestScheduler(synth Synth) (*Scheduler, func(time.Duration)) {
	s := NewScheduler(synth)
	now := time.Unix(0, 0)
	s.now = func() time.Time { return now }
	advance := func(d time.Duration) { now = now.Add(d) }
	return s, advance
}

func mustNotes(t *testing.T, ids ...string) []music.Note {
	t.Helper()
	notes := make([]music.Note, 0, len(ids))
	for _, id := range ids {
		n, ok := music.ParseNoteID(id)
		if !ok {
			t.Fatalf("bad note id %s", id)
		}
		notes = append(notes, n)
	}
	return notes
}

func TestScheduleFiresInTimeOrder(t *testing.T) {
	synth := &fakeSynth{}
	s, advance := newTestScheduler(synth)

	var order []int
	s.Schedule("b", 30*time.Millisecond, 0, func() { order = append(order, 3) })
	s.Schedule("b", 10*time.Millisecond, 0, func() { order = append(order, 1) })
	s.Schedule("b", 20*time.Millisecond, 0, func() { order = append(order, 2) })

	if ran := s.RunPending(); ran != 0 {
		t.Fatalf("nothing should be due yet, ran %d", ran)
	}
	advance(50 * time.Millisecond)
	if ran := s.RunPending(); ran != 3 {
		t.Fatalf("expected 3 tasks, ran %d", ran)
	}
	for i, got := range order {
		if got != i+1 {
			t.Fatalf("order %v", order)
		}
	}
}

func TestCancelBucketAfterFireTimeElapsed(t *testing.T) {
	synth := &fakeSynth{}
	s, advance := newTestScheduler(synth)

	fired := false
	s.Schedule("scale", 5*time.Millisecond, 0, func() { fired = true })

	// The fire time passes before the host loop observes the task, then
	// the bucket is cancelled. The task must still be a no-op.
	advance(20 * time.Millisecond)
	s.CancelBucket("scale")
	s.RunPending()

	if fired {
		t.Fatal("cancelled task produced a side effect")
	}
}

func TestCancelBucketLeavesOtherBuckets(t *testing.T) {
	synth := &fakeSynth{}
	s, advance := newTestScheduler(synth)

	var fired []string
	s.Schedule("scale", time.Millisecond, 0, func() { fired = append(fired, "scale") })
	s.Schedule("chord", time.Millisecond, 0, func() { fired = append(fired, "chord") })
	s.CancelBucket("scale")

	advance(5 * time.Millisecond)
	s.RunPending()
	if len(fired) != 1 || fired[0] != "chord" {
		t.Fatalf("fired %v, want only chord", fired)
	}
}

func TestCancelAllCoversScheduledOnlyBuckets(t *testing.T) {
	synth := &fakeSynth{}
	s, advance := newTestScheduler(synth)

	// Buckets that were only ever scheduled into, never cancelled
	// individually, must still be swept by CancelAll.
	var fired []string
	s.Schedule("scale", time.Millisecond, 0, func() { fired = append(fired, "scale") })
	s.Schedule("chord", time.Millisecond, 0, func() { fired = append(fired, "chord") })
	s.CancelAll()

	advance(5 * time.Millisecond)
	s.RunPending()
	if len(fired) != 0 {
		t.Fatalf("fired %v after CancelAll", fired)
	}

	// The buckets stay usable afterwards.
	s.Schedule("scale", time.Millisecond, 0, func() { fired = append(fired, "again") })
	advance(5 * time.Millisecond)
	s.RunPending()
	if len(fired) != 1 || fired[0] != "again" {
		t.Fatalf("fired %v, want post-cancel task only", fired)
	}
}

func TestCancelUnknownBucketIsNoOp(t *testing.T) {
	s, _ := newTestScheduler(&fakeSynth{})
	s.CancelBucket("never-used") // must not panic or error
}

func TestOwnerStalenessDropsTask(t *testing.T) {
	synth := &fakeSynth{}
	s, advance := newTestScheduler(synth)
	s.SetActiveOwner(1)

	fired := false
	s.Schedule("scale", time.Millisecond, 1, func() { fired = true })

	// Challenge 1 superseded by challenge 2 while the task is pending.
	s.SetActiveOwner(2)
	advance(5 * time.Millisecond)
	s.RunPending()
	if fired {
		t.Fatal("stale-owner task produced a side effect")
	}
}

func TestUnownedTaskAlwaysValid(t *testing.T) {
	s, advance := newTestScheduler(&fakeSynth{})
	s.SetActiveOwner(7)

	fired := false
	s.Schedule("misc", time.Millisecond, 0, func() { fired = true })
	s.SetActiveOwner(8)
	advance(5 * time.Millisecond)
	s.RunPending()
	if !fired {
		t.Fatal("unowned task should fire regardless of active owner")
	}
}

func TestRetriggerCutsSoundingNote(t *testing.T) {
	synth := &fakeSynth{}
	s, _ := newTestScheduler(synth)

	s.noteOn("C4")
	s.noteOn("C4")
	s.noteOff("C4")

	want := []string{"on C4", "off C4", "on C4", "off C4"}
	got := synth.log()
	if len(got) != len(want) {
		t.Fatalf("events %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("events %v, want %v", got, want)
		}
	}
}

func TestSynthFailureIsSwallowed(t *testing.T) {
	synth := &fakeSynth{fail: true}
	s, _ := newTestScheduler(synth)

	s.noteOn("C4")
	s.noteOff("C4") // nothing sounding, no-op
	if len(synth.log()) != 0 {
		t.Fatalf("events %v, want none", synth.log())
	}
}

func TestSilenceAllStopsSoundingNotes(t *testing.T) {
	synth := &fakeSynth{}
	s, _ := newTestScheduler(synth)

	s.noteOn("C4")
	s.noteOn("E4")
	s.SilenceAll()

	offs := 0
	for _, e := range synth.log() {
		if e == "off C4" || e == "off E4" {
			offs++
		}
	}
	if offs != 2 {
		t.Fatalf("events %v, want both notes stopped", synth.log())
	}
}
