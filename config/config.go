package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"

	"keycoach/music"
	"keycoach/practice"
)

// FileConfig represents the TOML configuration file. Every field is
// optional; absent values fall back to defaults.
type FileConfig struct {
	Practice PracticeConfig `toml:"practice"`
	MIDI     MIDIConfig     `toml:"midi"`
	UI       UIConfig       `toml:"ui"`
	Storage  StorageConfig  `toml:"storage"`
}

// PracticeConfig maps session settings.
type PracticeConfig struct {
	Difficulty  *string `toml:"difficulty"`  // easy|medium|hard|expert
	Mode        *string `toml:"mode"`        // scale|chord
	Feedback    *string `toml:"feedback"`    // active|unplugged
	Key         *string `toml:"key"`         // pitch class, e.g. "C#"; unset = random
	Pattern     *string `toml:"pattern"`     // pin one shape, e.g. "maj"
	Repetitions *int    `toml:"repetitions"` // demonstration passes, 0 = per difficulty
	DisplayMS   *int    `toml:"display-ms"`  // highlight duration, 0 = per difficulty
}

// MIDIConfig maps hardware settings.
type MIDIConfig struct {
	OutPort *string `toml:"out-port"` // synth output, unset = first available
	Silent  *bool   `toml:"silent"`   // skip audio output entirely
}

// UIConfig maps presentation settings.
type UIConfig struct {
	Palette *string `toml:"palette"` // GPL palette file, unset = built-in
}

// StorageConfig maps persistence settings.
type StorageConfig struct {
	DBPath  *string `toml:"db"`  // unset = XDG data dir
	LogPath *string `toml:"log"` // debug log, unset = disabled
}

// Load reads a TOML config from the given path. A missing file is not an
// error.
func Load(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}

// ToPractice validates the practice section and merges it over the
// defaults.
func (f FileConfig) ToPractice() (practice.Config, error) {
	cfg := practice.DefaultConfig()
	p := f.Practice

	if p.Difficulty != nil {
		d, err := practice.ParseDifficulty(*p.Difficulty)
		if err != nil {
			return cfg, err
		}
		cfg.Difficulty = d
	}
	if p.Mode != nil {
		switch *p.Mode {
		case "scale":
			cfg.Mode = music.KindScale
		case "chord":
			cfg.Mode = music.KindChord
		default:
			return cfg, fmt.Errorf("unknown mode %q", *p.Mode)
		}
	}
	if p.Feedback != nil {
		fb, err := practice.ParseFeedbackMode(*p.Feedback)
		if err != nil {
			return cfg, err
		}
		cfg.Feedback = fb
	}
	if p.Key != nil && *p.Key != "" && *p.Key != "random" {
		pc, ok := music.ParsePitchClass(*p.Key)
		if !ok {
			return cfg, fmt.Errorf("unknown key %q", *p.Key)
		}
		cfg.RandomKey = false
		cfg.Root = pc
	}
	if p.Pattern != nil && *p.Pattern != "" {
		if _, ok := music.FindPattern(cfg.Mode, *p.Pattern); !ok {
			return cfg, fmt.Errorf("unknown %s pattern %q", cfg.Mode, *p.Pattern)
		}
		cfg.Pattern = *p.Pattern
	}
	if p.Repetitions != nil {
		if *p.Repetitions < 0 || *p.Repetitions > 10 {
			return cfg, fmt.Errorf("repetitions out of range: %d", *p.Repetitions)
		}
		cfg.Repetitions = *p.Repetitions
	}
	if p.DisplayMS != nil {
		if *p.DisplayMS < 0 {
			return cfg, fmt.Errorf("display-ms must not be negative")
		}
		cfg.Display = time.Duration(*p.DisplayMS) * time.Millisecond
	}

	return cfg, nil
}

// OutPort returns the configured synth port name, or "".
func (f FileConfig) OutPort() string {
	if f.MIDI.OutPort != nil {
		return *f.MIDI.OutPort
	}
	return ""
}

// Silent reports whether audio output is disabled.
func (f FileConfig) Silent() bool {
	return f.MIDI.Silent != nil && *f.MIDI.Silent
}

// PalettePath returns the configured GPL palette path, or "".
func (f FileConfig) PalettePath() string {
	if f.UI.Palette != nil {
		return *f.UI.Palette
	}
	return ""
}

// DBPath returns the session database path.
func (f FileConfig) DBPath() string {
	if f.Storage.DBPath != nil && *f.Storage.DBPath != "" {
		return *f.Storage.DBPath
	}
	return DefaultDBPath()
}

// LogPath returns the debug log path, or "" when logging is off.
func (f FileConfig) LogPath() string {
	if f.Storage.LogPath != nil {
		return *f.Storage.LogPath
	}
	return ""
}
