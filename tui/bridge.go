package tui

import (
	"sync"
	"time"

	"keycoach/practice"
)

// Bridge carries engine and scheduler callbacks over to the bubbletea
// model. Callers arrive on their own goroutines; the model pulls a
// consistent snapshot on every render.
type Bridge struct {
	mu sync.Mutex

	challenge   string
	feedback    string
	severity    practice.Severity
	stats       practice.Stats
	highlighted map[string]bool
	hlGen       uint64
	device      string

	// Updates nudges the model after any change.
	Updates chan struct{}
}

// View is a point-in-time copy of everything the screen shows.
type View struct {
	Challenge   string
	Feedback    string
	Severity    practice.Severity
	Stats       practice.Stats
	Highlighted map[string]bool
	Device      string
}

func NewBridge() *Bridge {
	return &Bridge{
		highlighted: make(map[string]bool),
		Updates:     make(chan struct{}, 1),
	}
}

func (b *Bridge) ShowChallenge(desc string) {
	b.mu.Lock()
	b.challenge = desc
	b.mu.Unlock()
	b.notify()
}

func (b *Bridge) ShowFeedback(msg string, sev practice.Severity) {
	b.mu.Lock()
	b.feedback = msg
	b.severity = sev
	b.mu.Unlock()
	b.notify()
}

func (b *Bridge) StatsChanged(s practice.Stats) {
	b.mu.Lock()
	b.stats = s
	b.mu.Unlock()
	b.notify()
}

// HighlightKeys lights the given keys for the duration. A new call
// replaces the previous set outright.
func (b *Bridge) HighlightKeys(noteIDs []string, d time.Duration) {
	b.mu.Lock()
	b.hlGen++
	gen := b.hlGen
	b.highlighted = make(map[string]bool, len(noteIDs))
	for _, id := range noteIDs {
		b.highlighted[id] = true
	}
	b.mu.Unlock()
	b.notify()

	time.AfterFunc(d, func() {
		b.mu.Lock()
		if b.hlGen == gen {
			b.highlighted = make(map[string]bool)
		}
		b.mu.Unlock()
		b.notify()
	})
}

// DeviceChanged records the currently connected keyboard name, or ""
// when nothing is plugged in.
func (b *Bridge) DeviceChanged(name string) {
	b.mu.Lock()
	b.device = name
	b.mu.Unlock()
	b.notify()
}

// Snapshot returns a copy safe to render from.
func (b *Bridge) Snapshot() View {
	b.mu.Lock()
	defer b.mu.Unlock()
	hl := make(map[string]bool, len(b.highlighted))
	for id := range b.highlighted {
		hl[id] = true
	}
	return View{
		Challenge:   b.challenge,
		Feedback:    b.feedback,
		Severity:    b.severity,
		Stats:       b.stats,
		Highlighted: hl,
		Device:      b.device,
	}
}

func (b *Bridge) notify() {
	select {
	case b.Updates <- struct{}{}:
	default:
	}
}
