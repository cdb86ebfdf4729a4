package theme

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

type RGB [3]uint8

// Palette is a list of colors, normally loaded from a GIMP .gpl file.
type Palette struct {
	Name   string
	Colors []RGB
}

// Lookup maps a normalized position 0-1 onto the palette.
func (p *Palette) Lookup(norm float64) RGB {
	if len(p.Colors) == 0 {
		return RGB{255, 255, 255}
	}
	if norm < 0 {
		norm = 0
	}
	if norm > 1 {
		norm = 1
	}
	idx := int(norm * float64(len(p.Colors)-1))
	return p.Colors[idx]
}

// Default is the built-in palette used when no .gpl file is configured:
// a dark-to-bright ramp tuned for the practice screen.
func Default() *Palette {
	return &Palette{
		Name: "keycoach",
		Colors: []RGB{
			{24, 20, 37},    // background
			{38, 33, 58},    // surface
			{84, 78, 112},   // muted
			{130, 122, 158}, // dim text
			{214, 208, 234}, // text
			{137, 180, 250}, // accent blue
			{245, 194, 231}, // pink
			{250, 179, 135}, // orange
			{243, 139, 168}, // red
			{166, 227, 161}, // green
			{249, 226, 175}, // yellow
		},
	}
}

// LoadGPL parses a GIMP palette file.
func LoadGPL(path string) (*Palette, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	p := &Palette{}
	scanner := bufio.NewScanner(f)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if strings.HasPrefix(line, "Name:") {
			p.Name = strings.TrimSpace(strings.TrimPrefix(line, "Name:"))
			continue
		}

		// Skip headers and comments
		if line == "" || line[0] == '#' || strings.HasPrefix(line, "GIMP") || strings.HasPrefix(line, "Columns") {
			continue
		}

		// Parse RGB values (first 3 fields are R G B)
		fields := strings.Fields(line)
		if len(fields) >= 3 {
			r, err1 := strconv.Atoi(fields[0])
			g, err2 := strconv.Atoi(fields[1])
			b, err3 := strconv.Atoi(fields[2])
			if err1 == nil && err2 == nil && err3 == nil {
				p.Colors = append(p.Colors, RGB{uint8(r), uint8(g), uint8(b)})
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if len(p.Colors) == 0 {
		return nil, fmt.Errorf("no colors found in palette %s", path)
	}

	return p, nil
}

// LoadGPLOrDefault falls back to the built-in palette when path is empty
// or unreadable.
func LoadGPLOrDefault(path string) *Palette {
	if path == "" {
		return Default()
	}
	p, err := LoadGPL(path)
	if err != nil {
		return Default()
	}
	return p
}
