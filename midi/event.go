// Package midi connects hardware keyboards and synth output to the
// practice core. Input controllers translate raw MIDI into the stable note
// ids the engine matches on; the synth plays demonstration notes back out.
package midi

// NoteEvent is one key press or release on a hardware keyboard.
type NoteEvent struct {
	Note     uint8 // MIDI note number
	Velocity uint8
	On       bool
}

// Controller is a connected MIDI input device.
type Controller interface {
	ID() string
	NoteEvents() <-chan NoteEvent
	Close() error
}

// DeviceEvent is emitted when controllers connect or disconnect.
type DeviceEvent struct {
	Type       DeviceEventType
	Controller Controller
	ID         string
}

type DeviceEventType int

const (
	DeviceConnected DeviceEventType = iota
	DeviceDisconnected
)
