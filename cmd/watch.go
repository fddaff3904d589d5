package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/ansel1/tally/engine"
	"github.com/ansel1/tally/output"
	"github.com/ansel1/tally/output/format"
	"github.com/ansel1/tally/results"
	"github.com/ansel1/tally/tui"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

var (
	watchFlags  streamFlags
	watchNoTTY  bool
	watchReplay bool
	watchRate   float64

	watchCmd = &cobra.Command{
		Use:   "watch",
		Short: "Show a live Summary card while a test run streams in",
		Long: `Reads a go test -json stream (or statistics documents, one per line) and keeps
the Summary card up to date as results arrive. The final card stays on screen.

  go test -json ./... | tally watch
  tally watch -f run.json --replay --rate 0.5`,
		Args: cobra.NoArgs,
		RunE: runWatch,
	}
)

func init() {
	watchCmd.Flags().StringVarP(&watchFlags.infile, "file", "f", "", "Read from file instead of stdin")
	watchCmd.Flags().StringVar(&watchFlags.outfile, "outfile", "", "Save all input to the specified file")
	watchCmd.Flags().StringVar(&watchFlags.jsonfile, "jsonfile", "", "Save JSON events to the specified file")
	watchCmd.Flags().BoolVar(&watchNoTTY, "notty", false, "Don't use TUI, output to stdout")
	watchCmd.Flags().BoolVar(&watchReplay, "replay", false, "Replay events with timing from original test run (requires -f)")
	watchCmd.Flags().Float64Var(&watchRate, "rate", 1.0, "Replay rate multiplier (0=instant, 1=original speed, 0.5=2x speed)")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, _ []string) error {
	if watchReplay && watchFlags.infile == "" {
		return errors.New("--replay requires -f <filename>")
	}
	if watchRate < 0 {
		return errors.New("--rate must be >= 0")
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	in, err := openInput(watchFlags.infile)
	if err != nil {
		return err
	}
	defer in.Close()

	var input io.Reader = in
	if watchReplay {
		rr, err := engine.NewReplayReader(ctx, in, watchRate)
		if err != nil {
			return fmt.Errorf("error creating replay reader: %w", err)
		}
		input = rr
	}

	opts, closeFiles, err := watchFlags.engineOptions()
	if err != nil {
		return err
	}
	defer closeFiles()

	events := engine.NewEngine(opts...).Stream(ctx, input)
	collector := results.NewCollector()
	formatter := format.NewCardFormatter()
	out := cmd.OutOrStdout()

	if watchNoTTY {
		simple := output.NewSimpleOutput(out, collector, formatter, cfg.Chart)
		if err := simple.ProcessEvents(events); err != nil {
			return err
		}
		if simple.HasFailures() {
			return ErrFailures
		}
		return nil
	}

	m := tui.NewModel(collector, cfg.Chart, formatter)
	go collector.ProcessEvents(events)

	Logger.WithField("replay", watchReplay).Debug("starting live card")
	finalModel, err := tea.NewProgram(m, tea.WithContext(ctx), tea.WithOutput(out)).Run()
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("error running program: %w", err)
	}

	// Stop reading if the user quit before the stream ended.
	cancel()

	if model, ok := finalModel.(*tui.Model); ok {
		model.DisplaySummary(out)
	}
	if err := collector.Err(); err != nil {
		Logger.WithError(err).Warn("input ended with an error")
	}

	if collector.HasFailures() {
		return ErrFailures
	}
	return nil
}
