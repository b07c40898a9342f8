package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/KaramelBytes/statsketch/internal/analysis"
	"github.com/KaramelBytes/statsketch/internal/bundle"
	"github.com/KaramelBytes/statsketch/internal/chart"
	"github.com/spf13/cobra"
)

var (
	anaOutputPath  string
	anaBundle      string
	anaDescription string
	anaHTML        bool
	anaCharts      bool
	anaData        dataFlags
	anaReport      reportFlags
	anaChart       chartFlags
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file>",
	Short: "Analyze a CSV/TSV/XLSX file and produce a concise report",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		fs := cmd.Flags()
		ds, opt, err := loadDataset(fs, path, &anaData)
		if err != nil {
			return err
		}
		if err := anaReport.apply(fs, &opt); err != nil {
			return err
		}
		rep, err := analysis.Analyze(ds, opt)
		if err != nil {
			return err
		}
		md := rep.Markdown()

		// Decide where to write: --output path, or a bundle, or stdout
		written := false
		if anaOutputPath != "" {
			body := []byte(md)
			if anaHTML || strings.EqualFold(filepath.Ext(anaOutputPath), ".html") {
				body = analysis.RenderHTML(md)
			}
			if err := os.WriteFile(anaOutputPath, body, 0o644); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			fmt.Printf("✓ Wrote analysis to %s\n", anaOutputPath)
			written = true
		}
		if anaBundle != "" {
			dir, err := resolveBundleDir(anaBundle)
			if err != nil {
				return err
			}
			b, err := bundle.OpenOrCreate(filepath.Base(dir), path, dir)
			if err != nil {
				return err
			}
			name, err := writeReport(b, baseName(path, anaData.sheetName), md, anaDescription)
			if err != nil {
				return err
			}
			if anaCharts {
				copt, format, err := anaChart.resolve()
				if err != nil {
					return err
				}
				jobs := chart.Suggest(ds, chart.Request{Bins: opt.HistogramBins, Options: copt})
				n, err := renderCharts(cmd.Context(), ds, jobs, b, format, settings().Workers)
				if err != nil {
					return err
				}
				fmt.Printf("✓ Rendered %d charts into %s\n", n, filepath.Join(b.RootDir(), "charts"))
			}
			if err := b.Save(); err != nil {
				return err
			}
			fmt.Printf("✓ Added analysis to bundle '%s' as %s\n", b.Name, name)
			written = true
		}
		if !written {
			fmt.Println(md)
		}
		return nil
	},
}

// writeReport stores the Markdown report and its HTML rendering under reports/.
// It returns the Markdown artifact path.
func writeReport(b *bundle.Bundle, base, md, desc string) (string, error) {
	if desc == "" {
		desc = "Auto-generated dataset summary"
	}
	rel := "reports/" + base + ".md"
	if _, err := b.WriteArtifact(bundle.KindReport, rel, desc, []byte(md)); err != nil {
		return "", err
	}
	if _, err := b.WriteArtifact(bundle.KindReport, "reports/"+base+".html", desc+" (HTML)", analysis.RenderHTML(md)); err != nil {
		return "", err
	}
	return rel, nil
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	fs := analyzeCmd.Flags()
	fs.StringVarP(&anaOutputPath, "output", "o", "", "optional path to write analysis (Markdown, or HTML for .html)")
	fs.StringVarP(&anaBundle, "bundle", "b", "", "bundle name or directory to store the report in")
	fs.StringVar(&anaDescription, "desc", "", "description when adding to a bundle")
	fs.BoolVar(&anaHTML, "html", false, "write --output as HTML")
	fs.BoolVar(&anaCharts, "charts", false, "with --bundle, also render the default chart set")
	anaData.register(fs)
	anaReport.register(fs)
	anaChart.register(fs)
}
