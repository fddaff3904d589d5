// Package cmd implements the tally command line.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ansel1/tally/config"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// ErrFailures is returned by commands whose statistics include failed
// results. It sets the exit code without printing anything.
var ErrFailures = errors.New("results contain failures")

var (
	// Logger is the shared logger instance for all commands
	Logger = logrus.New()

	cfg        *config.Config
	configPath string
	envFiles   []string
	verbose    bool

	rootCmd = &cobra.Command{
		Use:   "tally",
		Short: "Tally - test run Summary card",
		Long: `Tally renders the Summary card of a test run: a donut chart of passed,
failed and skipped results with the total and elapsed time.

Input is a statistics document, a JSON array of results, or a go test -json stream.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: setup,
	}
)

// Execute runs the root command
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		if !errors.Is(err, ErrFailures) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML config file")
	rootCmd.PersistentFlags().StringSliceVar(&envFiles, "env", nil, "env files to load (default .env)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}

// setup loads env files and config, then configures the logger.
func setup(_ *cobra.Command, _ []string) error {
	if err := config.LoadEnv(envFiles...); err != nil {
		return err
	}

	c, err := config.Load(configPath)
	if err != nil {
		return err
	}
	cfg = c

	level, err := cfg.Level()
	if err != nil {
		return err
	}
	if verbose {
		level = logrus.DebugLevel
	}
	Logger.SetOutput(os.Stderr)
	Logger.SetLevel(level)
	Logger.WithField("config", configPath).Debugf("effective config:\n%s", cfg)
	return nil
}
