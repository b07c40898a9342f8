package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/KaramelBytes/statsketch/internal/bundle"
	"github.com/KaramelBytes/statsketch/internal/chart"
	"github.com/KaramelBytes/statsketch/internal/dataset"
	"github.com/KaramelBytes/statsketch/internal/stats"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var (
	chX       string
	chY       string
	chSize    string
	chLabel   string
	chGroup   string
	chColumns []string
	chBins    int
	chOut     string
	chBundle  string
	chData    dataFlags
	chOpts    chartFlags
)

var chartCmd = &cobra.Command{
	Use:   "chart <kind|all> <file>",
	Short: "Render a chart from a dataset",
	Long: fmt.Sprintf(`Render one chart of the given kind, or "all" to render the default set
(histogram and box plot per numeric column, scatter and regression of the
first two, a pie of column means) into a bundle.

Kinds: %s`, strings.Join(chart.Kinds(), ", ")),
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, path := strings.ToLower(args[0]), args[1]
		fs := cmd.Flags()
		ds, opt, err := loadDataset(fs, path, &chData)
		if err != nil {
			return err
		}
		copt, format, err := chOpts.resolve()
		if err != nil {
			return err
		}
		bins := settings().HistogramBins
		if fs.Changed("bins") {
			if chBins < 1 {
				return fmt.Errorf("--bins must be >= 1")
			}
			bins = chBins
		}
		req := chart.Request{
			X:       chX,
			Y:       chY,
			Size:    chSize,
			Label:   chLabel,
			Group:   chGroup,
			Columns: chColumns,
			Bins:    bins,
			Options: copt,
		}

		if kind == "all" {
			name := chBundle
			if name == "" {
				name = baseName(path, opt.SheetName)
			}
			dir, err := resolveBundleDir(name)
			if err != nil {
				return err
			}
			b, err := bundle.OpenOrCreate(filepath.Base(dir), path, dir)
			if err != nil {
				return err
			}
			n, err := renderCharts(cmd.Context(), ds, chart.Suggest(ds, req), b, format, settings().Workers)
			if err != nil {
				return err
			}
			if err := b.Save(); err != nil {
				return err
			}
			fmt.Printf("✓ Rendered %d charts into %s\n", n, filepath.Join(b.RootDir(), "charts"))
			return nil
		}

		d, err := chart.Build(kind, ds, req)
		if err != nil {
			return err
		}
		out := chOut
		if out == "" {
			out = fmt.Sprintf("%s-%s.%s", baseName(path, opt.SheetName), kind, format)
		}
		if err := chart.WriteFile(out, d, format); err != nil {
			return err
		}
		fmt.Printf("✓ Wrote %s chart to %s\n", kind, out)
		return nil
	},
}

// renderCharts draws jobs concurrently into b under charts/. Jobs whose data
// cannot be charted (too few values, all zeros) are skipped with a warning.
// It returns how many charts were written.
func renderCharts(ctx context.Context, ds *dataset.Dataset, jobs []chart.Job, b *bundle.Bundle, format chart.Format, workers int) (int, error) {
	if workers < 1 {
		workers = 1
	}
	written := make([]bool, len(jobs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, job := range jobs {
		i, job := i, job
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			d, err := chart.Build(job.Kind, ds, job.Request)
			if err != nil {
				if errors.Is(err, stats.ErrInvalidInput) {
					logger.Warn().Str("chart", job.Name).Err(err).Msg("skipped chart")
					return nil
				}
				return err
			}
			var buf bytes.Buffer
			if err := chart.Write(&buf, d, format); err != nil {
				return fmt.Errorf("%s: %w", job.Name, err)
			}
			rel := fmt.Sprintf("charts/%s.%s", job.Name, format)
			if _, err := b.WriteArtifact(bundle.KindChart, rel, job.Kind+" chart", buf.Bytes()); err != nil {
				return err
			}
			logger.Debug().Str("chart", rel).Msg("chart written")
			written[i] = true
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}
	n := 0
	for _, ok := range written {
		if ok {
			n++
		}
	}
	return n, nil
}

func init() {
	rootCmd.AddCommand(chartCmd)
	fs := chartCmd.Flags()
	fs.StringVar(&chX, "x", "", "x column (histogram and box use x, else y)")
	fs.StringVar(&chY, "y", "", "y column")
	fs.StringVar(&chSize, "size", "", "bubble size column")
	fs.StringVar(&chLabel, "label", "", "label column for bar, line and pie charts")
	fs.StringVar(&chGroup, "group", "", "category column for grouped bars")
	fs.StringSliceVar(&chColumns, "columns", nil, "numeric columns for pie (means) and grouped bars")
	fs.IntVar(&chBins, "bins", 10, "histogram bins")
	fs.StringVarP(&chOut, "out", "o", "", "output file (default <file>-<kind>.<format>)")
	fs.StringVarP(&chBundle, "bundle", "b", "", "bundle for 'all' (default named after the file)")
	chData.register(fs)
	chOpts.register(fs)
}
