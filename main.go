// Package main provides the keycoach CLI entrypoint.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"keycoach/config"
	"keycoach/debug"
	"keycoach/midi"
	"keycoach/practice"
	"keycoach/sched"
	"keycoach/store"
	"keycoach/theme"
	"keycoach/tui"
)

var (
	flagConfig string

	flagDifficulty  string
	flagMode        string
	flagFeedback    string
	flagKey         string
	flagPattern     string
	flagRepetitions int
	flagSilent      bool
	flagVerbose     bool

	flagStatsLast     int
	flagStatsWeakOnly bool
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "keycoach",
		Short:         "Ear and finger trainer for MIDI keyboards",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runPracticeCmd,
	}

	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", config.DefaultConfigPath(), "config file path")

	rootCmd.Flags().StringVar(&flagDifficulty, "difficulty", "", "easy, medium, hard or expert")
	rootCmd.Flags().StringVar(&flagMode, "mode", "", "scale or chord")
	rootCmd.Flags().StringVar(&flagFeedback, "feedback", "", "active or unplugged")
	rootCmd.Flags().StringVar(&flagKey, "key", "", "pitch class to practice in, e.g. C#, or 'random'")
	rootCmd.Flags().StringVar(&flagPattern, "pattern", "", "pin one pattern, e.g. maj or 'harmonic minor'")
	rootCmd.Flags().IntVar(&flagRepetitions, "repetitions", 0, "demonstration passes (0 = per difficulty)")
	rootCmd.Flags().BoolVar(&flagSilent, "silent", false, "skip MIDI audio output")
	rootCmd.Flags().BoolVar(&flagVerbose, "verbose", false, "write a debug log")

	rootCmd.AddCommand(newStatsCmd())

	return rootCmd
}

func runPracticeCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.Load(flagConfig)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyFlags(cmd, &fileCfg)

	pcfg, err := fileCfg.ToPractice()
	if err != nil {
		return err
	}

	if path := fileCfg.LogPath(); path != "" {
		if err := debug.EnableTo(path); err != nil {
			return fmt.Errorf("failed to open debug log: %w", err)
		}
		defer debug.Disable()
	} else if flagVerbose {
		if err := debug.Enable(); err != nil {
			return fmt.Errorf("failed to open debug log: %w", err)
		}
		defer debug.Disable()
	}

	st, err := store.Open(fileCfg.DBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			debug.Warn("main", "close db: %v", cerr)
		}
	}()
	recorder := store.NewRecorder(st)
	defer recorder.Close()

	th := theme.New(theme.LoadGPLOrDefault(fileCfg.PalettePath()))

	var synth sched.Synth
	if fileCfg.Silent() {
		synth = midi.NullSynth{}
	} else {
		port := fileCfg.OutPort()
		if port == "" {
			if first, ok := midi.FirstOutPort(); ok {
				port = first
			}
		}
		if port == "" {
			debug.Warn("main", "no MIDI output port, playing silent")
			synth = midi.NullSynth{}
		} else {
			synth = midi.NewSynth(port)
		}
	}

	scheduler := sched.NewScheduler(synth)
	bridge := tui.NewBridge()
	scheduler.SetHighlighter(bridge)

	engine := practice.NewEngine(scheduler, pcfg)
	engine.SetPresenter(bridge)
	engine.SetRecorder(recorder)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go scheduler.Run(ctx)

	dm := midi.NewDeviceManager()
	go dm.Run(ctx)
	go midi.Route(ctx, dm, engine.HandleNoteOn, func(evt midi.DeviceEvent) {
		switch evt.Type {
		case midi.DeviceConnected:
			bridge.DeviceChanged(evt.ID)
		case midi.DeviceDisconnected:
			bridge.DeviceChanged("")
		}
	})

	model := tui.NewModel(engine, bridge, th)
	program := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	engine.Stop()
	return nil
}

// applyFlags lays changed CLI flags over the file config.
func applyFlags(cmd *cobra.Command, f *config.FileConfig) {
	if cmd.Flags().Changed("difficulty") {
		f.Practice.Difficulty = &flagDifficulty
	}
	if cmd.Flags().Changed("mode") {
		f.Practice.Mode = &flagMode
	}
	if cmd.Flags().Changed("feedback") {
		f.Practice.Feedback = &flagFeedback
	}
	if cmd.Flags().Changed("key") {
		f.Practice.Key = &flagKey
	}
	if cmd.Flags().Changed("pattern") {
		f.Practice.Pattern = &flagPattern
	}
	if cmd.Flags().Changed("repetitions") {
		f.Practice.Repetitions = &flagRepetitions
	}
	if cmd.Flags().Changed("silent") {
		f.MIDI.Silent = &flagSilent
	}
}

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show practice history",
		Args:  cobra.NoArgs,
		RunE:  runStatsCmd,
	}
	cmd.Flags().IntVar(&flagStatsLast, "last", 20, "limit to last N sessions")
	cmd.Flags().BoolVar(&flagStatsWeakOnly, "weak", false, "only show challenges below 100% accuracy")
	return cmd
}

func runStatsCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.Load(flagConfig)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	st, err := store.Open(fileCfg.DBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			debug.Warn("main", "close db: %v", cerr)
		}
	}()

	ctx := context.Background()
	out := cmd.OutOrStdout()

	sessions, err := st.ListSessions(ctx, flagStatsLast)
	if err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}
	if len(sessions) == 0 {
		fmt.Fprintln(out, "no sessions recorded yet")
		return nil
	}

	fmt.Fprintln(out, "Recent sessions:")
	for _, s := range sessions {
		dur := "unfinished"
		if !s.EndedAt.IsZero() {
			dur = s.EndedAt.Sub(s.StartedAt).Round(time.Second).String()
		}
		fmt.Fprintf(out, "  %s  %s  %d/%d correct\n",
			s.StartedAt.Format("2006-01-02 15:04"), dur, s.Correct, s.Attempts)
	}

	accs, err := st.AccuracyByChallenge(ctx)
	if err != nil {
		return fmt.Errorf("failed to aggregate accuracy: %w", err)
	}
	if len(accs) == 0 {
		return nil
	}

	fmt.Fprintln(out, "\nAccuracy by challenge (weakest first):")
	for _, a := range accs {
		if flagStatsWeakOnly && a.Correct == a.Attempts {
			continue
		}
		fmt.Fprintf(out, "  %-24s %3d%%  (%d/%d)\n",
			a.Challenge, a.Correct*100/a.Attempts, a.Correct, a.Attempts)
	}
	return nil
}
