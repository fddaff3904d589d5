package cmd

import (
	"github.com/ansel1/tally/engine"
	"github.com/ansel1/tally/results"
	"github.com/ansel1/tally/server"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	serveAddr   string
	serveInfile string

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Serve the Summary card over HTTP",
		Long: `Serves the Summary card of the latest statistics:

  GET  /summary        HTML card
  GET  /summary.svg    donut chart
  GET  /summary.json   statistics and chart data
  PUT  /statistics     replace the statistics (document or result array)
  GET  /metrics        Prometheus metrics
  GET  /healthz

With -f, a go test -json stream is read in the background and the card
follows it.`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}
)

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (overrides config)")
	serveCmd.Flags().StringVarP(&serveInfile, "file", "f", "", "Follow a result stream from a file, or - for stdin")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	serverCfg := cfg.Server
	if serveAddr != "" {
		serverCfg.Addr = serveAddr
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	collector := results.NewCollector()

	if serveInfile != "" {
		in, err := openInput(serveInfile)
		if err != nil {
			return err
		}
		defer in.Close()

		events := engine.NewEngine().Stream(ctx, in)
		go func() {
			collector.ProcessEvents(events)
			log := Logger.WithField("file", serveInfile)
			if err := collector.Err(); err != nil {
				log.WithError(err).Warn("result stream ended with an error")
				return
			}
			stats := collector.Latest()
			log.WithFields(logrus.Fields{
				"total":   stats.Total,
				"elapsed": stats.Elapsed(),
			}).Info("result stream complete")
		}()
	}

	srv := server.New(collector, cfg.Chart, Logger, reg)
	return srv.ListenAndServe(ctx, serverCfg)
}
