package sched

import (
	"sync"
	"time"

	"keycoach/music"
)

// Completion signals the end of a played sequence or chord. Done is closed
// either after the final note-off fired, or when the owning bucket was
// cancelled; Cancelled distinguishes the two.
type Completion struct {
	once      sync.Once
	done      chan struct{}
	mu        sync.Mutex
	cancelled bool
}

func newCompletion() *Completion {
	return &Completion{done: make(chan struct{})}
}

// Done returns a channel closed when the playback finished or was cancelled.
func (c *Completion) Done() <-chan struct{} { return c.done }

// Cancelled reports whether the playback was cut short.
func (c *Completion) Cancelled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cancelled
}

func (c *Completion) finish(cancelled bool) {
	c.once.Do(func() {
		c.mu.Lock()
		c.cancelled = cancelled
		c.mu.Unlock()
		close(c.done)
	})
}

// SequenceOptions controls PlaySequence pacing.
type SequenceOptions struct {
	Bucket string
	Owner  uint64
	Gap    time.Duration // delay between successive note-ons
	Hold   time.Duration // how long each note sounds
	// HighlightFor > 0 schedules a visual highlight of the whole sequence
	// at the start of playback.
	HighlightFor time.Duration
	// OnComplete runs on the host loop right after the completion settles.
	// It is subject to the same bucket/owner validity as the notes, so a
	// cancelled playback never invokes it.
	OnComplete func()
}

// ChordOptions controls PlayChord pacing.
type ChordOptions struct {
	Bucket       string
	Owner        uint64
	Hold         time.Duration
	HighlightFor time.Duration
	OnComplete   func()
}

// PlaySequence schedules each note's on/off pair in order and returns a
// completion fired after the last note-off.
func (s *Scheduler) PlaySequence(notes []music.Note, opt SequenceOptions) *Completion {
	c := newCompletion()
	s.registerCompletion(opt.Bucket, c)

	if opt.HighlightFor > 0 && len(notes) > 0 {
		ids := noteIDs(notes)
		d := opt.HighlightFor
		s.Schedule(opt.Bucket, 0, opt.Owner, func() { s.highlight(ids, d) })
	}

	var last time.Duration
	for i, n := range notes {
		id := n.ID()
		onAt := time.Duration(i) * opt.Gap
		offAt := onAt + opt.Hold
		s.Schedule(opt.Bucket, onAt, opt.Owner, func() { s.noteOn(id) })
		s.Schedule(opt.Bucket, offAt, opt.Owner, func() { s.noteOff(id) })
		if offAt > last {
			last = offAt
		}
	}

	// Settles after the final note-off; same fire time, later sequence
	// number, so heap order keeps it behind the off.
	s.Schedule(opt.Bucket, last, opt.Owner, func() {
		s.settleCompletion(opt.Bucket, c)
		if opt.OnComplete != nil {
			opt.OnComplete()
		}
	})
	return c
}

// PlayChord schedules simultaneous note-ons and one batched note-off after
// the hold, returning a completion fired after the note-off.
func (s *Scheduler) PlayChord(notes []music.Note, opt ChordOptions) *Completion {
	c := newCompletion()
	s.registerCompletion(opt.Bucket, c)

	ids := noteIDs(notes)
	if opt.HighlightFor > 0 && len(ids) > 0 {
		d := opt.HighlightFor
		s.Schedule(opt.Bucket, 0, opt.Owner, func() { s.highlight(ids, d) })
	}

	s.Schedule(opt.Bucket, 0, opt.Owner, func() {
		for _, id := range ids {
			s.noteOn(id)
		}
	})
	s.Schedule(opt.Bucket, opt.Hold, opt.Owner, func() {
		for _, id := range ids {
			s.noteOff(id)
		}
	})
	s.Schedule(opt.Bucket, opt.Hold, opt.Owner, func() {
		s.settleCompletion(opt.Bucket, c)
		if opt.OnComplete != nil {
			opt.OnComplete()
		}
	})
	return c
}

func noteIDs(notes []music.Note) []string {
	ids := make([]string, len(notes))
	for i, n := range notes {
		ids[i] = n.ID()
	}
	return ids
}
