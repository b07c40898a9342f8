package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/KaramelBytes/statsketch/internal/analysis"
	"github.com/KaramelBytes/statsketch/internal/bundle"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var (
	abBundle      string
	abDescription string
	abWorkers     int
	abQuiet       bool
	abData        dataFlags
	abReport      reportFlags
)

var analyzeBatchCmd = &cobra.Command{
	Use:   "analyze-batch <files...>",
	Short: "Analyze multiple CSV/TSV/XLSX files concurrently, optionally into a bundle",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		files := expandInputs(args)
		if len(files) == 0 {
			return fmt.Errorf("no input files matched")
		}

		fs := cmd.Flags()
		opt := analysis.DefaultOptions()
		if err := abData.apply(fs, &opt); err != nil {
			return err
		}
		if err := abReport.apply(fs, &opt); err != nil {
			return err
		}
		workers := settings().Workers
		if fs.Changed("workers") {
			if abWorkers < 1 {
				return fmt.Errorf("--workers must be >= 1")
			}
			workers = abWorkers
		}

		var b *bundle.Bundle
		if abBundle != "" {
			dir, err := resolveBundleDir(abBundle)
			if err != nil {
				return err
			}
			bb, err := bundle.OpenOrCreate(filepath.Base(dir), "", dir)
			if err != nil {
				return err
			}
			b = bb
		}
		names := uniqueBases(files, opt.SheetName)

		total := len(files)
		reports := make([]string, total)
		g, ctx := errgroup.WithContext(cmd.Context())
		g.SetLimit(workers)
		for i, path := range files {
			i, path := i, path
			g.Go(func() error {
				if err := ctx.Err(); err != nil {
					return err
				}
				rep, err := analysis.AnalyzeFile(path, opt)
				if err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
				md := rep.Markdown()
				if b != nil {
					rel, err := writeReport(b, names[i], md, abDescription)
					if err != nil {
						return err
					}
					if !abQuiet {
						fmt.Printf("✓ [%d/%d] %s -> %s\n", i+1, total, filepath.Base(path), rel)
					}
					return nil
				}
				reports[i] = md
				logger.Debug().Str("file", path).Msg("analyzed")
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}
		if b != nil {
			if err := b.Save(); err != nil {
				return err
			}
			if !abQuiet {
				fmt.Printf("✓ Added %d analyses to bundle '%s'\n", total, b.Name)
			}
			return nil
		}
		if !abQuiet {
			for _, md := range reports {
				fmt.Println(md)
			}
		}
		return nil
	},
}

// expandInputs resolves globs, keeps literal paths that exist, drops duplicates and sorts.
func expandInputs(args []string) []string {
	var files []string
	seen := map[string]struct{}{}
	for _, arg := range args {
		matches, _ := filepath.Glob(arg)
		if len(matches) == 0 {
			// treat as literal path if exists
			if _, err := os.Stat(arg); err == nil {
				matches = []string{arg}
			}
		}
		for _, m := range matches {
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			files = append(files, m)
		}
	}
	sort.Strings(files)
	return files
}

// uniqueBases names each file's report, suffixing repeats as name__2, name__3.
func uniqueBases(files []string, sheet string) []string {
	out := make([]string, len(files))
	used := map[string]int{}
	for i, f := range files {
		base := baseName(f, sheet)
		used[base]++
		if n := used[base]; n > 1 {
			base = fmt.Sprintf("%s__%d", base, n)
		}
		out[i] = base
	}
	return out
}

func init() {
	rootCmd.AddCommand(analyzeBatchCmd)
	fs := analyzeBatchCmd.Flags()
	fs.StringVarP(&abBundle, "bundle", "b", "", "bundle name or directory to store reports in")
	fs.StringVar(&abDescription, "desc", "", "description when adding to a bundle")
	fs.IntVar(&abWorkers, "workers", 4, "files analyzed concurrently (default from config)")
	fs.BoolVar(&abQuiet, "quiet", false, "suppress progress and non-essential output")
	abData.register(fs)
	abReport.register(fs)
}
