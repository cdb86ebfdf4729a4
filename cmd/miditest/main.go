// Command miditest probes MIDI hardware without starting the trainer.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv"

	"keycoach/music"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		return
	}

	switch os.Args[1] {
	case "list":
		listPorts()
	case "monitor":
		monitorInput()
	case "poll":
		pollDevices()
	case "play":
		playScale()
	default:
		usage()
	}
}

func usage() {
	fmt.Println("MIDI hardware probe")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  list     - List all MIDI ports")
	fmt.Println("  monitor  - Print note names as you play")
	fmt.Println("  poll     - Poll for device changes")
	fmt.Println("  play     - Play a C major scale on the first output")
}

func listPorts() {
	fmt.Println("=== MIDI Input Ports ===")
	fmt.Println("(waiting up to 3 seconds...)")

	type result struct {
		ins  []drivers.In
		outs []drivers.Out
	}
	ch := make(chan result, 1)
	go func() {
		ch <- result{ins: gomidi.GetInPorts(), outs: gomidi.GetOutPorts()}
	}()

	select {
	case r := <-ch:
		for i, p := range r.ins {
			fmt.Printf("  %d: %s\n", i, p.String())
		}
		fmt.Println("\n=== MIDI Output Ports ===")
		for i, p := range r.outs {
			fmt.Printf("  %d: %s\n", i, p.String())
		}
	case <-time.After(3 * time.Second):
		fmt.Println("\nTIMEOUT! MIDI backend is hung.")
	}
}

func monitorInput() {
	ins := gomidi.GetInPorts()
	if len(ins) == 0 {
		fmt.Println("No MIDI input ports found")
		return
	}
	port := ins[0]
	fmt.Printf("Monitoring %s. Ctrl+C to exit.\n", port.String())

	stop, err := gomidi.ListenTo(port, func(msg gomidi.Message, _ int32) {
		var ch, key, vel uint8
		switch {
		case msg.GetNoteOn(&ch, &key, &vel) && vel > 0:
			n := music.NoteFromMIDI(int(key))
			tag := ""
			if !music.InRange(n) {
				tag = "  (outside practice range)"
			}
			fmt.Printf("  on  %-4s midi=%d vel=%d%s\n", n.ID(), key, vel, tag)
		case msg.GetNoteEnd(&ch, &key):
			fmt.Printf("  off %s\n", music.NoteFromMIDI(int(key)).ID())
		}
	})
	if err != nil {
		fmt.Printf("Error listening: %v\n", err)
		return
	}
	defer stop()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)
	<-sig
}

func pollDevices() {
	fmt.Println("Polling for device changes every 2 seconds. Ctrl+C to exit.")

	last := ""
	for {
		var names []string
		for _, p := range gomidi.GetInPorts() {
			names = append(names, p.String())
		}
		current := strings.Join(names, ",")
		if current != last {
			fmt.Printf("\n[%s] Inputs: %v\n", time.Now().Format("15:04:05"), names)
			last = current
		}
		time.Sleep(2 * time.Second)
	}
}

func playScale() {
	outs := gomidi.GetOutPorts()
	if len(outs) == 0 {
		fmt.Println("No MIDI output ports found")
		return
	}
	port := outs[0]
	fmt.Printf("Playing C major scale on %s\n", port.String())

	send, err := gomidi.SendTo(port)
	if err != nil {
		fmt.Printf("Error opening port: %v\n", err)
		return
	}

	scale, _ := music.FindPattern(music.KindScale, "major")
	notes, err := music.Resolve(music.C, scale.Intervals)
	if err != nil {
		fmt.Printf("Error resolving scale: %v\n", err)
		return
	}
	for _, n := range notes {
		key := uint8(n.MIDI())
		send(gomidi.NoteOn(0, key, 96))
		time.Sleep(300 * time.Millisecond)
		send(gomidi.NoteOff(0, key))
	}
	fmt.Println("Done!")
}
