// Package sched runs time-ordered, cancellable playback actions.
//
// Actions are grouped into named buckets. Cancelling a bucket invalidates
// every pending action in it at once, and the validity check is repeated
// immediately before an action runs, so a cancellation issued while an
// action sits dequeued in the host loop still wins. Actions may also carry
// an owner id (the challenge they belong to); an action whose owner no
// longer matches the active owner is dropped at fire time.
package sched

import (
	"container/heap"
	"context"
	"sync"
	"time"

	"keycoach/debug"
)

// Synth is the audio backend. PlayNote returns an opaque handle used to
// stop the note later. A failed PlayNote is treated as if the note played.
type Synth interface {
	PlayNote(noteID string) (any, error)
	StopNote(handle any)
}

// Highlighter receives one-way visual highlight notifications.
type Highlighter interface {
	HighlightKeys(noteIDs []string, d time.Duration)
}

type task struct {
	fireAt time.Time
	seq    uint64
	bucket string
	gen    uint64
	owner  uint64
	run    func()
}

type taskHeap []*task

func (h taskHeap) Len() int { return len(h) }
func (h taskHeap) Less(i, j int) bool {
	if h[i].fireAt.Equal(h[j].fireAt) {
		return h[i].seq < h[j].seq
	}
	return h[i].fireAt.Before(h[j].fireAt)
}
func (h taskHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *taskHeap) Push(x any)   { *h = append(*h, x.(*task)) }
func (h *taskHeap) Pop() any {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return t
}

// Scheduler is the playback host. All scheduled functions run on the host
// loop goroutine (or the caller of RunPending in tests), one at a time.
type Scheduler struct {
	mu          sync.Mutex
	now         func() time.Time
	synth       Synth
	highlighter Highlighter

	tasks   taskHeap
	seq     uint64
	buckets map[string]uint64 // bucket -> current generation
	owner   uint64            // active owner id, 0 = none

	// completions open per bucket, closed on cancel
	completions map[string][]*Completion

	// one sounding instance per note id
	sounding map[string]any

	wake chan struct{}
}

// NewScheduler creates a scheduler driving the given synth.
func NewScheduler(synth Synth) *Scheduler {
	return &Scheduler{
		now:         time.Now,
		synth:       synth,
		buckets:     make(map[string]uint64),
		completions: make(map[string][]*Completion),
		sounding:    make(map[string]any),
		wake:        make(chan struct{}, 1),
	}
}

// SetClock replaces the wall clock. Tests pair this with RunPending to
// drive playback deterministically.
func (s *Scheduler) SetClock(now func() time.Time) {
	s.mu.Lock()
	s.now = now
	s.mu.Unlock()
}

// SetHighlighter wires the presentation highlight sink. May be nil.
func (s *Scheduler) SetHighlighter(h Highlighter) {
	s.mu.Lock()
	s.highlighter = h
	s.mu.Unlock()
}

// SetActiveOwner declares which owner id scheduled actions may fire for.
// Actions carrying a different non-zero owner become silent no-ops.
func (s *Scheduler) SetActiveOwner(id uint64) {
	s.mu.Lock()
	s.owner = id
	s.mu.Unlock()
}

// Schedule enqueues fn to run after delay under a bucket and owner.
// Scheduling never blocks and never fails; a bucket that has since been
// cancelled simply swallows the action at fire time.
func (s *Scheduler) Schedule(bucket string, delay time.Duration, owner uint64, fn func()) {
	s.mu.Lock()
	s.seq++
	if _, ok := s.buckets[bucket]; !ok {
		s.buckets[bucket] = 0 // CancelAll must see this bucket
	}
	t := &task{
		fireAt: s.now().Add(delay),
		seq:    s.seq,
		bucket: bucket,
		gen:    s.buckets[bucket],
		owner:  owner,
		run:    fn,
	}
	heap.Push(&s.tasks, t)
	s.mu.Unlock()
	s.interrupt()
}

// CancelBucket atomically invalidates every pending action in the bucket
// and fails its open completions. Cancelling an unknown or empty bucket is
// a no-op.
func (s *Scheduler) CancelBucket(bucket string) {
	s.mu.Lock()
	s.buckets[bucket]++
	open := s.completions[bucket]
	delete(s.completions, bucket)
	s.mu.Unlock()

	for _, c := range open {
		c.finish(true)
	}
	debug.Log("sched", "cancelled bucket %q (%d completions)", bucket, len(open))
}

// CancelAll cancels every known bucket.
func (s *Scheduler) CancelAll() {
	s.mu.Lock()
	var open []*Completion
	for b := range s.buckets {
		s.buckets[b]++
	}
	for b, cs := range s.completions {
		open = append(open, cs...)
		delete(s.completions, b)
	}
	s.mu.Unlock()

	for _, c := range open {
		c.finish(true)
	}
}

// SilenceAll emits note-offs for everything still sounding.
func (s *Scheduler) SilenceAll() {
	s.mu.Lock()
	handles := s.sounding
	s.sounding = make(map[string]any)
	s.mu.Unlock()

	for _, h := range handles {
		s.synth.StopNote(h)
	}
}

// interrupt nudges the host loop to recalculate its wait.
func (s *Scheduler) interrupt() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// popDue removes and returns the next due task, re-checking bucket
// generation and owner under the lock. Returns the wait until the next
// task when nothing is due.
func (s *Scheduler) popDue() (*task, time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for s.tasks.Len() > 0 {
		next := s.tasks[0]
		wait := next.fireAt.Sub(s.now())
		if wait > 0 {
			return nil, wait
		}
		heap.Pop(&s.tasks)

		// Validity is checked at the last possible instant: a bucket
		// cancelled or an owner superseded after enqueue drops the task
		// here, before any side effect.
		if next.gen != s.buckets[next.bucket] {
			continue
		}
		if next.owner != 0 && next.owner != s.owner {
			continue
		}
		return next, 0
	}
	return nil, 0
}

// RunPending synchronously runs every task that is due at the current
// clock. It is the deterministic driver used by tests (paired with a fake
// now func) and is safe to call concurrently with Schedule.
func (s *Scheduler) RunPending() int {
	ran := 0
	for {
		t, _ := s.popDue()
		if t == nil {
			return ran
		}
		t.run()
		ran++
	}
}

// Run is the host loop: it sleeps until the earliest task is due, runs it,
// and repeats. New earlier tasks interrupt the sleep. Blocks until ctx is
// cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	for {
		t, wait := s.popDue()
		if t != nil {
			t.run()
			continue
		}

		if wait <= 0 {
			// Queue empty: sleep until something is scheduled.
			select {
			case <-ctx.Done():
				return
			case <-s.wake:
			}
			continue
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-s.wake:
			timer.Stop()
		case <-timer.C:
		}
	}
}

// noteOn sounds a note, cutting off a still-sounding instance of the same
// id first. Synth failure is swallowed so practice flow never stalls.
func (s *Scheduler) noteOn(noteID string) {
	s.mu.Lock()
	prev, had := s.sounding[noteID]
	delete(s.sounding, noteID)
	s.mu.Unlock()

	if had {
		s.synth.StopNote(prev)
	}

	h, err := s.synth.PlayNote(noteID)
	if err != nil {
		debug.Warn("sched", "synth failed for %s: %v", noteID, err)
		return
	}

	s.mu.Lock()
	s.sounding[noteID] = h
	s.mu.Unlock()
}

// noteOff stops a sounding note; a note that is not sounding is a no-op.
func (s *Scheduler) noteOff(noteID string) {
	s.mu.Lock()
	h, ok := s.sounding[noteID]
	delete(s.sounding, noteID)
	s.mu.Unlock()

	if ok {
		s.synth.StopNote(h)
	}
}

// highlight forwards a highlight notification if a sink is wired.
func (s *Scheduler) highlight(noteIDs []string, d time.Duration) {
	s.mu.Lock()
	h := s.highlighter
	s.mu.Unlock()

	if h != nil {
		h.HighlightKeys(noteIDs, d)
	}
}

// registerCompletion tracks an open completion so bucket cancellation can
// fail it.
func (s *Scheduler) registerCompletion(bucket string, c *Completion) {
	s.mu.Lock()
	s.completions[bucket] = append(s.completions[bucket], c)
	s.mu.Unlock()
}

// settleCompletion fires a completion successfully and drops it from the
// open set.
func (s *Scheduler) settleCompletion(bucket string, c *Completion) {
	s.mu.Lock()
	open := s.completions[bucket]
	for i, other := range open {
		if other == c {
			s.completions[bucket] = append(open[:i], open[i+1:]...)
			break
		}
	}
	s.mu.Unlock()
	c.finish(false)
}
