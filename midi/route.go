package midi

import (
	"context"

	"keycoach/debug"
	"keycoach/music"
)

// InputHandler receives note ids from hardware keyboards.
type InputHandler func(noteID string)

// Route consumes device events and forwards every in-range key press to
// the handler as a note id. Notes outside the practice keyboard are
// dropped. Blocks until ctx is done; run in a goroutine.
func Route(ctx context.Context, dm *DeviceManager, handle InputHandler, onDevice func(DeviceEvent)) {
	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-dm.Events():
			if !ok {
				return
			}
			if onDevice != nil {
				onDevice(evt)
			}
			if evt.Type == DeviceConnected && evt.Controller != nil {
				go feed(evt.Controller, handle)
			}
		}
	}
}

func feed(ctrl Controller, handle InputHandler) {
	for evt := range ctrl.NoteEvents() {
		if !evt.On {
			continue
		}
		m := int(evt.Note)
		if m < music.RangeLow || m > music.RangeHigh {
			debug.Log("midi", "note %d outside practice range", m)
			continue
		}
		handle(music.NoteFromMIDI(m).ID())
	}
}
