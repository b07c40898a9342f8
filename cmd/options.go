package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/KaramelBytes/statsketch/internal/analysis"
	"github.com/KaramelBytes/statsketch/internal/chart"
	"github.com/KaramelBytes/statsketch/internal/dataset"
	"github.com/KaramelBytes/statsketch/internal/utils"
	"github.com/spf13/pflag"
)

// dataFlags are the parsing flags shared by every command that reads a file.
// Unset flags fall back to the configuration.
type dataFlags struct {
	delimiter  string
	decimal    string
	thousands  string
	maxRows    int
	sheetName  string
	sheetIndex int
}

func (d *dataFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&d.delimiter, "delimiter", "", "CSV delimiter: ',' | ';' | '|' | 'tab' (auto-detect if omitted)")
	fs.StringVar(&d.decimal, "decimal", "", "decimal separator for numbers: '.'|'comma' (auto-detect if omitted)")
	fs.StringVar(&d.thousands, "thousands", "", "thousands separator for numbers: ','|'.'|'space' (auto-detect if omitted)")
	fs.IntVar(&d.maxRows, "max-rows", 100000, "maximum rows to process (0 = unlimited)")
	fs.StringVar(&d.sheetName, "sheet-name", "", "XLSX: sheet name to analyze")
	fs.IntVar(&d.sheetIndex, "sheet-index", 1, "XLSX: 1-based sheet index (used if --sheet-name not provided)")
}

func (d *dataFlags) apply(fs *pflag.FlagSet, opt *analysis.Options) error {
	c := settings()
	delim, dec, thou := c.Delimiter, c.DecimalSeparator, c.ThousandsSeparator
	opt.MaxRows = c.MaxRows
	if fs.Changed("delimiter") {
		delim = d.delimiter
	}
	if fs.Changed("decimal") {
		dec = d.decimal
	}
	if fs.Changed("thousands") {
		thou = d.thousands
	}
	if fs.Changed("max-rows") {
		if d.maxRows < 0 {
			return fmt.Errorf("--max-rows must be >= 0")
		}
		opt.MaxRows = d.maxRows
	}
	var err error
	if opt.Delimiter, err = parseDelimiter(delim); err != nil {
		return err
	}
	if opt.DecimalSeparator, err = parseDecimal(dec); err != nil {
		return err
	}
	if opt.ThousandsSeparator, err = parseThousands(thou); err != nil {
		return err
	}
	opt.SheetName = d.sheetName
	opt.SheetIndex = d.sheetIndex
	return nil
}

func parseDelimiter(s string) (rune, error) {
	switch strings.ToLower(s) {
	case "", "auto":
		return 0, nil
	case ",", "comma":
		return ',', nil
	case ";", "semicolon":
		return ';', nil
	case "|", "pipe":
		return '|', nil
	case "\t", "tab":
		return '\t', nil
	}
	return 0, fmt.Errorf("unsupported --delimiter: %s", s)
}

func parseDecimal(s string) (rune, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case ",", "comma":
		return ',', nil
	case ".", "dot":
		return '.', nil
	case "":
		return 0, nil
	}
	return 0, fmt.Errorf("unsupported --decimal: %s (use '.'|'comma')", s)
}

func parseThousands(s string) (rune, error) {
	switch strings.ToLower(s) {
	case ",":
		return ',', nil
	case ".":
		return '.', nil
	case "space", " ":
		return ' ', nil
	case "":
		return 0, nil
	}
	return 0, fmt.Errorf("unsupported --thousands: %s (use ','|'.'|'space')", s)
}

// reportFlags select what a dataset report computes.
type reportFlags struct {
	sampleRows int
	groupBy    []string
	corr       bool
	corrGroups bool
	outliers   bool
	outlierThr float64
	tests      []string
	regress    []string
	box        []string
	bins       int
}

func (r *reportFlags) register(fs *pflag.FlagSet) {
	fs.IntVar(&r.sampleRows, "sample-rows", 5, "number of sample rows to include")
	fs.StringSliceVar(&r.groupBy, "group-by", nil, "comma-separated column names to group by (repeatable)")
	fs.BoolVar(&r.corr, "correlations", false, "compute Pearson correlations among numeric columns")
	fs.BoolVar(&r.corrGroups, "corr-per-group", false, "compute correlation pairs within each group (may be slower)")
	fs.BoolVar(&r.outliers, "outliers", true, "compute robust outlier counts (MAD)")
	fs.Float64Var(&r.outlierThr, "outlier-threshold", 3.5, "robust |z| threshold for outliers (MAD-based)")
	fs.StringArrayVar(&r.tests, "test", nil, "x:y column pair for a Pearson significance test (repeatable)")
	fs.StringArrayVar(&r.regress, "regress", nil, "x:y column pair to fit y = slope*x + intercept (repeatable)")
	fs.StringSliceVar(&r.box, "box", nil, "column for a five-number summary and histogram (repeatable)")
	fs.IntVar(&r.bins, "bins", 0, "histogram bins for --box (default from config)")
}

func (r *reportFlags) apply(fs *pflag.FlagSet, opt *analysis.Options) error {
	c := settings()
	opt.SampleRows = c.SampleRows
	opt.OutlierThreshold = c.OutlierThreshold
	opt.HistogramBins = c.HistogramBins
	if fs.Changed("sample-rows") {
		if r.sampleRows < 0 {
			return fmt.Errorf("--sample-rows must be >= 0")
		}
		opt.SampleRows = r.sampleRows
	}
	if fs.Changed("outlier-threshold") {
		if r.outlierThr <= 0 {
			return fmt.Errorf("--outlier-threshold must be > 0")
		}
		opt.OutlierThreshold = r.outlierThr
	}
	if fs.Changed("bins") {
		if r.bins < 1 {
			return fmt.Errorf("--bins must be >= 1")
		}
		opt.HistogramBins = r.bins
	}
	opt.GroupBy = r.groupBy
	opt.Correlations = r.corr
	opt.CorrPerGroup = r.corrGroups
	opt.Outliers = r.outliers
	var err error
	if opt.Tests, err = parsePairs("--test", r.tests); err != nil {
		return err
	}
	if opt.Regressions, err = parsePairs("--regress", r.regress); err != nil {
		return err
	}
	opt.BoxColumns = r.box
	return nil
}

// parsePairs splits "x:y" values at the first colon.
func parsePairs(flag string, vals []string) ([][2]string, error) {
	var out [][2]string
	for _, v := range vals {
		x, y, ok := strings.Cut(v, ":")
		x, y = strings.TrimSpace(x), strings.TrimSpace(y)
		if !ok || x == "" || y == "" {
			return nil, fmt.Errorf("invalid %s %q (want x:y)", flag, v)
		}
		out = append(out, [2]string{x, y})
	}
	return out, nil
}

// loadDataset reads path with the parsing flags applied.
func loadDataset(fs *pflag.FlagSet, path string, d *dataFlags) (*dataset.Dataset, analysis.Options, error) {
	opt := analysis.DefaultOptions()
	if err := d.apply(fs, &opt); err != nil {
		return nil, opt, err
	}
	ds, err := dataset.Load(path, opt.LoadOptions())
	if err != nil {
		return nil, opt, err
	}
	for _, w := range ds.Warnings {
		logger.Warn().Str("file", path).Msg(w)
	}
	logger.Debug().Str("file", path).Int("rows", ds.Processed).Int("columns", len(ds.Columns)).Msg("dataset loaded")
	return ds, opt, nil
}

// chartFlags control chart size and encoding.
type chartFlags struct {
	format string
	width  int
	height int
	title  string
}

func (c *chartFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&c.format, "format", "", "chart format: svg|png (default from config)")
	fs.IntVar(&c.width, "width", 0, "chart width in pixels (default from config)")
	fs.IntVar(&c.height, "height", 0, "chart height in pixels (default from config)")
	fs.StringVar(&c.title, "title", "", "chart title")
}

func (c *chartFlags) resolve() (chart.Options, chart.Format, error) {
	s := settings()
	opt := chart.Options{Title: c.title, Width: s.ChartWidth, Height: s.ChartHeight}
	if c.width > 0 {
		opt.Width = c.width
	}
	if c.height > 0 {
		opt.Height = c.height
	}
	name := s.ChartFormat
	if c.format != "" {
		name = c.format
	}
	f, err := chart.ParseFormat(name)
	return opt, f, err
}

// outputDir is the configured bundle root with ~ expanded.
func outputDir() (string, error) {
	dir := settings().OutputDir
	if dir == "" {
		dir = "statsketch-out"
	}
	if strings.HasPrefix(dir, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		dir = strings.TrimPrefix(dir, "~")
		dir = strings.TrimPrefix(dir, string(os.PathSeparator))
		dir = strings.TrimPrefix(dir, "/")
		dir = filepath.Join(home, dir)
	}
	return filepath.Clean(dir), nil
}

// resolveBundleDir treats a bare name as a bundle under the output dir and
// anything path-like as a directory.
func resolveBundleDir(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("bundle name is required")
	}
	if filepath.IsAbs(name) || strings.ContainsAny(name, `/\`) || strings.HasPrefix(name, ".") {
		return filepath.Clean(name), nil
	}
	root, err := outputDir()
	if err != nil {
		return "", err
	}
	if err := utils.EnsureDir(root); err != nil {
		return "", err
	}
	return filepath.Join(root, name), nil
}

// bundleDir resolves --bundle, or the bundle enclosing the working directory
// when the flag is empty.
func bundleDir(name string) (string, error) {
	if name != "" {
		return resolveBundleDir(name)
	}
	dir, err := utils.FindBundleRoot(".")
	if err != nil {
		return "", fmt.Errorf("--bundle is required outside a bundle directory: %w", err)
	}
	return dir, nil
}

// baseName derives an artifact name from a data file and optional sheet.
func baseName(path, sheet string) string {
	base := filepath.Base(path)
	safe := strings.TrimSuffix(base, filepath.Ext(base))
	if sheet == "" {
		return safe
	}
	s := strings.ToLower(strings.TrimSpace(sheet))
	var b strings.Builder
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else if r == ' ' || r == '-' || r == '_' {
			b.WriteRune('-')
		}
	}
	ss := strings.Trim(b.String(), "-")
	if ss == "" {
		ss = "sheet"
	}
	return safe + "__sheet-" + ss
}
