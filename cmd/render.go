package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/ansel1/tally/engine"
	"github.com/ansel1/tally/output"
	"github.com/ansel1/tally/output/format"
	"github.com/ansel1/tally/output/html"
	"github.com/ansel1/tally/results"
	"github.com/ansel1/tally/summary"
	"github.com/spf13/cobra"
)

// Output formats accepted by --format.
const (
	formatTerm = "term"
	formatSVG  = "svg"
	formatHTML = "html"
	formatJSON = "json"
)

var (
	renderFlags  streamFlags
	renderFormat string
	renderColor  bool

	renderCmd = &cobra.Command{
		Use:   "render",
		Short: "Print the Summary card for a finished test run",
		Long: `Reads a statistics document, a JSON array of results, or a go test -json
stream from a file or stdin, then prints the Summary card.

Exits with status 1 when the statistics include failed results.`,
		Args: cobra.NoArgs,
		RunE: runRender,
	}
)

func init() {
	renderCmd.Flags().StringVarP(&renderFlags.infile, "file", "f", "", "Read from file instead of stdin")
	renderCmd.Flags().StringVar(&renderFlags.outfile, "outfile", "", "Save all input to the specified file")
	renderCmd.Flags().StringVar(&renderFlags.jsonfile, "jsonfile", "", "Save JSON input to the specified file")
	renderCmd.Flags().StringVar(&renderFormat, "format", formatTerm, "Output format: term, svg, html or json")
	renderCmd.Flags().BoolVar(&renderColor, "color", false, "Force colored terminal output")
	rootCmd.AddCommand(renderCmd)
}

func runRender(cmd *cobra.Command, _ []string) error {
	switch renderFormat {
	case formatTerm, formatSVG, formatHTML, formatJSON:
	default:
		return fmt.Errorf("unknown format %q", renderFormat)
	}

	in, err := openInput(renderFlags.infile)
	if err != nil {
		return err
	}
	data, err := io.ReadAll(in)
	in.Close()
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}

	out := cmd.OutOrStdout()
	collector := results.NewCollector()
	formatter := format.NewCardFormatter()
	if renderColor {
		formatter.SetColors(true)
	}
	simple := output.NewSimpleOutput(out, collector, formatter, cfg.Chart)

	stats, derr := results.Decode(data)
	if derr == nil {
		Logger.WithField("total", stats.Total).Debug("decoded statistics input")
		if err := renderFlags.saveCopies(data); err != nil {
			return err
		}
		collector.Replace(stats)
		if renderFormat == formatTerm {
			if err := simple.WriteCard(); err != nil {
				return err
			}
		}
	} else {
		Logger.WithError(derr).Debug("input is not a statistics document, reading as a stream")

		opts, closeFiles, err := renderFlags.engineOptions()
		if err != nil {
			return err
		}
		defer closeFiles()

		events := engine.NewEngine(opts...).Stream(cmd.Context(), bytes.NewReader(data))
		if renderFormat == formatTerm {
			err = simple.ProcessEvents(events)
		} else {
			collector.ProcessEvents(events)
			if err = collector.Err(); err != nil {
				err = fmt.Errorf("read input: %w", err)
			} else if collector.RunCount() == 0 {
				err = output.ErrNoResults
			}
		}
		if errors.Is(err, output.ErrNoResults) {
			return fmt.Errorf("%w: %v", err, derr)
		}
		if err != nil {
			return err
		}
	}

	if err := writeCard(out, renderFormat, collector.Latest(), cfg.Chart); err != nil {
		return err
	}

	if collector.HasFailures() {
		return ErrFailures
	}
	return nil
}

// writeCard writes the non-terminal formats. The terminal card is written by
// SimpleOutput.
func writeCard(w io.Writer, fmtName string, stats results.Statistics, chart summary.ChartConfig) error {
	switch fmtName {
	case formatSVG:
		return html.RenderSVG(summary.Render(stats, chart), w)
	case formatHTML:
		return html.RenderHTML(summary.Render(stats, chart), w)
	case formatJSON:
		return output.WriteJSON(w, stats, chart)
	}
	return nil
}

// saveCopies writes a whole-document input to --outfile and --jsonfile.
func (s streamFlags) saveCopies(data []byte) error {
	for _, name := range []string{s.outfile, s.jsonfile} {
		if name == "" {
			continue
		}
		if err := os.WriteFile(name, data, 0o644); err != nil {
			return fmt.Errorf("error creating output file: %w", err)
		}
	}
	return nil
}
