package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"keycoach/music"
	"keycoach/practice"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadMissingFileIsNotAnError(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	pcfg, err := cfg.ToPractice()
	if err != nil {
		t.Fatalf("ToPractice: %v", err)
	}
	if pcfg != practice.DefaultConfig() {
		t.Errorf("empty config = %+v, want defaults", pcfg)
	}
}

func TestToPracticeMergesOverDefaults(t *testing.T) {
	path := writeConfig(t, `
[practice]
difficulty = "hard"
mode = "scale"
key = "F#"
pattern = "dorian"
repetitions = 4
display-ms = 750

[midi]
silent = true
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	pcfg, err := cfg.ToPractice()
	if err != nil {
		t.Fatalf("ToPractice: %v", err)
	}
	if pcfg.Difficulty != practice.Hard {
		t.Errorf("Difficulty = %v, want hard", pcfg.Difficulty)
	}
	if pcfg.Mode != music.KindScale {
		t.Errorf("Mode = %v, want scale", pcfg.Mode)
	}
	if pcfg.RandomKey || pcfg.Root != music.Fs {
		t.Errorf("key = random:%v root:%v, want pinned F#", pcfg.RandomKey, pcfg.Root)
	}
	if pcfg.Pattern != "dorian" {
		t.Errorf("Pattern = %q, want dorian", pcfg.Pattern)
	}
	if pcfg.Repetitions != 4 {
		t.Errorf("Repetitions = %d, want 4", pcfg.Repetitions)
	}
	if pcfg.Display != 750*time.Millisecond {
		t.Errorf("Display = %v, want 750ms", pcfg.Display)
	}
	if !cfg.Silent() {
		t.Error("Silent() = false, want true")
	}
}

func TestToPracticeRejectsUnknownValues(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"difficulty", "[practice]\ndifficulty = \"brutal\"\n"},
		{"mode", "[practice]\nmode = \"arpeggio\"\n"},
		{"key", "[practice]\nkey = \"H\"\n"},
		{"pattern", "[practice]\nmode = \"chord\"\npattern = \"power\"\n"},
		{"repetitions", "[practice]\nrepetitions = 99\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := Load(writeConfig(t, tc.body))
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if _, err := cfg.ToPractice(); err == nil {
				t.Error("ToPractice accepted an invalid value")
			}
		})
	}
}

func TestToPracticeRandomKeyKeyword(t *testing.T) {
	cfg, err := Load(writeConfig(t, "[practice]\nkey = \"random\"\n"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	pcfg, err := cfg.ToPractice()
	if err != nil {
		t.Fatalf("ToPractice: %v", err)
	}
	if !pcfg.RandomKey {
		t.Error("RandomKey = false, want true for key = \"random\"")
	}
}

func TestPatternValidatedAgainstMode(t *testing.T) {
	// "dorian" is a scale, so it must be rejected under chord mode.
	cfg, err := Load(writeConfig(t, "[practice]\nmode = \"chord\"\npattern = \"dorian\"\n"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, err := cfg.ToPractice(); err == nil {
		t.Error("chord-mode config accepted a scale pattern")
	}
}
