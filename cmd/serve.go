package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/KaramelBytes/statsketch/internal/analysis"
	"github.com/KaramelBytes/statsketch/internal/chart"
	"github.com/KaramelBytes/statsketch/internal/server"
	"github.com/spf13/cobra"
)

var (
	srvAddr   string
	srvData   dataFlags
	srvReport reportFlags
	srvChart  chartFlags
)

var serveCmd = &cobra.Command{
	Use:   "serve <file>",
	Short: "Serve a dashboard with the report and charts of a dataset",
	Long: `Loads the dataset once, then serves:
  /                     report and default charts
  /report.md            the Markdown report
  /charts/<kind>.<ext>  any chart kind; columns come from query parameters
                        (x, y, size, label, group, columns, bins, title)
  /healthz              liveness
Stops gracefully on Ctrl+C.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		fs := cmd.Flags()
		ds, opt, err := loadDataset(fs, path, &srvData)
		if err != nil {
			return err
		}
		if err := srvReport.apply(fs, &opt); err != nil {
			return err
		}
		rep, err := analysis.Analyze(ds, opt)
		if err != nil {
			return err
		}
		copt, format, err := srvChart.resolve()
		if err != nil {
			return err
		}
		addr := settings().ServeAddr
		if fs.Changed("addr") {
			addr = srvAddr
		}
		srv, err := server.New(ds, rep, server.Options{
			Addr:   addr,
			Format: format,
			Chart:  copt,
			Bins:   opt.HistogramBins,
			Charts: chart.Suggest(ds, chart.Request{Bins: opt.HistogramBins, Options: copt}),
			Logger: logger,
		})
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		fmt.Printf("✓ Serving %s on http://%s (Ctrl+C to stop)\n", path, addr)
		return srv.Run(ctx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	fs := serveCmd.Flags()
	fs.StringVar(&srvAddr, "addr", "127.0.0.1:8080", "listen address (default from config)")
	srvData.register(fs)
	srvReport.register(fs)
	srvChart.register(fs)
}
