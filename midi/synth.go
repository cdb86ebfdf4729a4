package midi

import (
	"fmt"
	"sync"

	gomidi "gitlab.com/gomidi/midi/v2"

	"keycoach/debug"
	"keycoach/music"
)

const synthVelocity = 96

// Synth plays notes out through a MIDI port. It implements the playback
// scheduler's Synth contract; handles are the MIDI note numbers.
type Synth struct {
	portName string

	mu     sync.Mutex
	sender func(gomidi.Message) error
}

// NewSynth creates a synth for the named output port. The port is opened
// lazily on the first note.
func NewSynth(portName string) *Synth {
	return &Synth{portName: portName}
}

// getSender returns the cached sender for the port, opening it on demand.
func (s *Synth) getSender() (func(gomidi.Message) error, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sender != nil {
		return s.sender, nil
	}
	for _, port := range gomidi.GetOutPorts() {
		if port.String() == s.portName {
			sender, err := gomidi.SendTo(port)
			if err != nil {
				return nil, fmt.Errorf("open %s: %w", s.portName, err)
			}
			s.sender = sender
			return sender, nil
		}
	}
	return nil, fmt.Errorf("midi out port %q not found", s.portName)
}

// PlayNote sounds a key id like "C#4".
func (s *Synth) PlayNote(noteID string) (any, error) {
	n, ok := music.ParseNoteID(noteID)
	if !ok {
		return nil, fmt.Errorf("bad note id %q", noteID)
	}
	send, err := s.getSender()
	if err != nil {
		return nil, err
	}
	key := uint8(n.MIDI())
	if err := send(gomidi.NoteOn(0, key, synthVelocity)); err != nil {
		return nil, err
	}
	return key, nil
}

// StopNote releases a previously played key.
func (s *Synth) StopNote(handle any) {
	key, ok := handle.(uint8)
	if !ok {
		return
	}
	send, err := s.getSender()
	if err != nil {
		debug.Warn("midi", "note off: %v", err)
		return
	}
	if err := send(gomidi.NoteOff(0, key)); err != nil {
		debug.Warn("midi", "note off %d: %v", key, err)
	}
}

// NullSynth is the silent fallback used when no MIDI output is configured.
// Practice flow proceeds as if every note played.
type NullSynth struct{}

func (NullSynth) PlayNote(noteID string) (any, error) { return noteID, nil }
func (NullSynth) StopNote(any)                        {}

// FirstOutPort returns the name of the first available MIDI output port.
func FirstOutPort() (string, bool) {
	ports := gomidi.GetOutPorts()
	if len(ports) == 0 {
		return "", false
	}
	return ports[0].String(), true
}
