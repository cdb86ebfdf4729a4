package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"keycoach/debug"
)

// Recorder persists practice results without blocking the engine. Writes
// queue onto a channel and land on a single writer goroutine; failures
// are logged and dropped rather than surfaced mid-session.
type Recorder struct {
	store   *Store
	writes  chan func(context.Context)
	done    chan struct{}
	session string
}

// NewRecorder starts the writer goroutine.
func NewRecorder(s *Store) *Recorder {
	r := &Recorder{
		store:  s,
		writes: make(chan func(context.Context), 64),
		done:   make(chan struct{}),
	}
	go r.run()
	return r
}

func (r *Recorder) run() {
	defer close(r.done)
	ctx := context.Background()
	for w := range r.writes {
		w(ctx)
	}
}

// Close flushes queued writes and stops the writer.
func (r *Recorder) Close() {
	close(r.writes)
	<-r.done
}

func (r *Recorder) enqueue(w func(context.Context)) {
	select {
	case r.writes <- w:
	default:
		debug.Warn("store", "write queue full, dropping record")
	}
}

func (r *Recorder) SessionStarted(at time.Time) {
	id := uuid.NewString()
	r.session = id
	r.enqueue(func(ctx context.Context) {
		if err := r.store.BeginSession(ctx, id, at); err != nil {
			debug.Warn("store", "begin session: %v", err)
		}
	})
}

func (r *Recorder) SessionEnded(at time.Time) {
	id := r.session
	if id == "" {
		return
	}
	r.enqueue(func(ctx context.Context) {
		if err := r.store.EndSession(ctx, id, at); err != nil {
			debug.Warn("store", "end session: %v", err)
		}
	})
}

func (r *Recorder) ChallengeResult(desc string, noteIDs []string, correct bool, at time.Time) {
	id := r.session
	if id == "" {
		return
	}
	r.enqueue(func(ctx context.Context) {
		if err := r.store.InsertResult(ctx, id, desc, noteIDs, correct, at); err != nil {
			debug.Warn("store", "insert result: %v", err)
		}
	})
}
