package analysis

import (
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"sort"
	"strings"

	"github.com/KaramelBytes/statsketch/internal/dataset"
	"github.com/KaramelBytes/statsketch/internal/stats"
)

// Options controls analysis behavior for tabular data.
type Options struct {
	// MaxRows limits rows processed; 0 means unlimited.
	MaxRows int
	// SampleRows determines how many example rows to include in the report.
	SampleRows int
	// Delimiter for CSV. If 0, chosen from the file extension.
	Delimiter rune
	// GroupBy computes per-group summaries for the given column names.
	GroupBy []string
	// Correlations computes Pearson correlations among numeric columns.
	Correlations bool
	// CorrPerGroup computes correlations per group key.
	CorrPerGroup bool
	// Numeric parsing locale. If DecimalSeparator is 0, auto-detect per value.
	DecimalSeparator   rune
	ThousandsSeparator rune // optional; if 0, auto-detect common separators (',' '.' space)
	// Outlier detection via robust Z-score (MAD). If Outliers is true, counts |z|>threshold.
	Outliers         bool
	OutlierThreshold float64
	// Unit normalization: convert values to target units using simple mappings.
	UnitNormalize bool
	UnitTargets   map[string]string // map[fromUnit]toUnit, e.g., {"g/L":"mg/L", "ug/L":"mg/L", "°F":"°C"}
	// XLSX worksheet; SheetName wins over the 1-based SheetIndex.
	SheetName  string
	SheetIndex int
	// Tests lists x,y column pairs for a Pearson significance test.
	Tests [][2]string
	// Regressions lists x,y column pairs to fit y = slope*x + intercept on.
	Regressions [][2]string
	// BoxColumns get a five-number summary and an equal-width histogram.
	BoxColumns    []string
	HistogramBins int
}

// DefaultOptions returns reasonable defaults for dataset analysis.
func DefaultOptions() Options {
	return Options{
		MaxRows:       100000,
		SampleRows:    5,
		UnitNormalize: true,
		UnitTargets: map[string]string{
			"g/L":  "mg/L",
			"ug/L": "mg/L",
			"°F":   "°C",
		},
		HistogramBins: 10,
	}
}

// LoadOptions returns the loader settings carried by o.
func (o Options) LoadOptions() dataset.LoadOptions {
	return dataset.LoadOptions{
		Delimiter:          o.Delimiter,
		DecimalSeparator:   o.DecimalSeparator,
		ThousandsSeparator: o.ThousandsSeparator,
		MaxRows:            o.MaxRows,
		SheetName:          o.SheetName,
		SheetIndex:         o.SheetIndex,
		UnitNormalize:      o.UnitNormalize,
		UnitTargets:        o.UnitTargets,
	}
}

// Report is a markdown-friendly analysis of a tabular dataset.
type Report struct {
	Name          string
	Rows          int
	Processed     int
	Cols          []ColumnSummary
	Samples       [][]string
	Warnings      []string
	Groups        []GroupResult
	Corr          *CorrMatrix
	Tests         []HypothesisTest
	Regressions   []RegressionResult
	Distributions []Distribution
}

// ColumnSummary captures inferred type and statistics per column.
type ColumnSummary struct {
	Name    string
	Kind    string // numeric|datetime|categorical|text|unknown
	Unit    string
	NonNull int
	Missing int
	Unique  int
	// Numeric stats
	Min     float64
	Max     float64
	Mean    float64
	Std     float64
	Summary *stats.FiveNumberSummary
	// Outliers (robust Z via MAD)
	OutliersCount    int
	OutliersMaxAbsZ  float64
	OutlierThreshold float64
	// Categorical top values
	TopValues    []CategoryCount
	ExampleTexts []string
}

type CategoryCount struct {
	Value string
	Count int
}

// GroupResult captures aggregated metrics per group key.
type GroupResult struct {
	Key       string
	Size      int
	Metrics   map[string]NumSummary // by column name
	CorrPairs []PairCorr            // top correlation pairs (by |r|)
}

type NumSummary struct {
	Count          int
	Min, Max, Mean float64
}

// CorrMatrix holds a symmetric Pearson correlation matrix across numeric columns.
// Each cell uses the records that carry both values.
type CorrMatrix struct {
	Columns []string
	Values  [][]float64 // row-major, Values[i][j]
	PValues [][]float64 // NaN where fewer than three paired records exist
	N       [][]int
}

// PairCorr is a simple correlation pair summary.
type PairCorr struct {
	A, B string
	R    float64
}

// HypothesisTest is a Pearson significance test for one requested column pair.
type HypothesisTest struct {
	X, Y string
	stats.Correlation
}

// RegressionResult is a fitted line with its endpoints at the smallest and largest x.
type RegressionResult struct {
	X, Y string
	stats.Regression
	X0, Y0 float64
	X1, Y1 float64
}

// Distribution is the box-plot summary and histogram of one column.
type Distribution struct {
	Column  string
	N       int
	Summary stats.FiveNumberSummary
	Bins    []stats.Bin
}

func (r *Report) note(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// AnalyzeFile loads a CSV, TSV or XLSX file and analyzes it.
func AnalyzeFile(path string, opt Options) (*Report, error) {
	ds, err := dataset.Load(path, opt.LoadOptions())
	if err != nil {
		if errors.Is(err, dataset.ErrEmpty) {
			return &Report{Name: filepath.Base(path)}, nil
		}
		return nil, err
	}
	return Analyze(ds, opt)
}

// Analyze computes a Report over ds. Unknown or non-numeric columns named in
// Tests, Regressions or BoxColumns are errors; statistics rejected for their
// input (too few records, zero variance) are skipped and listed under notes.
func Analyze(ds *dataset.Dataset, opt Options) (*Report, error) {
	if ds == nil {
		return nil, errors.New("analyze: nil dataset")
	}
	rep := &Report{Name: ds.Name, Rows: ds.Rows, Processed: ds.Processed}
	rep.Warnings = append(rep.Warnings, ds.Warnings...)
	// SampleRows 0 leaves the sample table out
	rep.Samples = ds.Samples(opt.SampleRows)

	rep.Cols = make([]ColumnSummary, 0, len(ds.Columns))
	for _, c := range ds.Columns {
		rep.Cols = append(rep.Cols, summarizeColumn(ds, c, opt))
	}
	if len(opt.GroupBy) > 0 {
		rep.Groups = groupBy(ds, opt)
	}
	if opt.Correlations {
		rep.Corr = correlationMatrix(ds)
	}
	for _, p := range opt.Tests {
		if err := rep.addTest(ds, p[0], p[1]); err != nil {
			return nil, err
		}
	}
	for _, p := range opt.Regressions {
		if err := rep.addRegression(ds, p[0], p[1]); err != nil {
			return nil, err
		}
	}
	bins := opt.HistogramBins
	if bins <= 0 {
		bins = 10
	}
	for _, name := range opt.BoxColumns {
		if err := rep.addDistribution(ds, name, bins); err != nil {
			return nil, err
		}
	}
	return rep, nil
}

func summarizeColumn(ds *dataset.Dataset, c dataset.Column, opt Options) ColumnSummary {
	s := ColumnSummary{
		Name:    c.Name,
		Kind:    string(c.Kind),
		Unit:    c.Unit,
		NonNull: c.NonNull,
		Missing: c.Missing,
		Unique:  c.Unique,
	}
	switch c.Kind {
	case dataset.KindNumeric:
		vals, err := ds.Column(c.Header)
		if err != nil || len(vals) == 0 {
			return s
		}
		s.Min, s.Max, _ = stats.Extent(vals)
		s.Mean, _ = stats.Mean(vals)
		s.Std, _ = stats.StdDev(vals)
		if sum, err := stats.Summarize(vals); err == nil {
			s.Summary = &sum
		}
		if opt.Outliers && len(vals) >= 8 {
			thr := opt.OutlierThreshold
			if thr <= 0 {
				thr = 3.5
			}
			s.OutliersCount, s.OutliersMaxAbsZ, _ = stats.RobustOutliers(vals, thr)
			s.OutlierThreshold = thr
		}
	case dataset.KindCategorical:
		texts, _ := ds.Categories(c.Header)
		counts := make(map[string]int)
		for _, v := range texts {
			if v != "" && len(v) <= 64 {
				counts[v]++
			}
		}
		tops := make([]CategoryCount, 0, len(counts))
		for k, v := range counts {
			tops = append(tops, CategoryCount{Value: k, Count: v})
		}
		sort.Slice(tops, func(i, j int) bool {
			if tops[i].Count == tops[j].Count {
				return tops[i].Value < tops[j].Value
			}
			return tops[i].Count > tops[j].Count
		})
		if len(tops) > 8 {
			tops = tops[:8]
		}
		s.TopValues = tops
	case dataset.KindText:
		texts, _ := ds.Categories(c.Header)
		for _, v := range texts {
			if v == "" {
				continue
			}
			s.ExampleTexts = append(s.ExampleTexts, v)
			if len(s.ExampleTexts) == 3 {
				break
			}
		}
	}
	return s
}

func groupBy(ds *dataset.Dataset, opt Options) []GroupResult {
	var keyCols []dataset.Column
	for _, name := range opt.GroupBy {
		if c, ok := ds.Lookup(name); ok {
			keyCols = append(keyCols, c)
		}
	}
	if len(keyCols) == 0 {
		return nil
	}
	keyOf := func(r dataset.Record) string {
		parts := make([]string, len(keyCols))
		for i, c := range keyCols {
			parts[i] = fmt.Sprintf("%s=%s", c.Name, safeVal(r.Text(c.Header)))
		}
		return strings.Join(parts, " | ")
	}
	sizes := make(map[string]int)
	var order []string
	for _, r := range ds.Records {
		k := keyOf(r)
		if sizes[k] == 0 {
			order = append(order, k)
		}
		sizes[k]++
	}
	numCols := ds.NumericColumns()

	out := make([]GroupResult, 0, len(order))
	for _, k := range order {
		key := k
		sub := ds.Filter(func(r dataset.Record) bool { return keyOf(r) == key })
		gr := GroupResult{Key: key, Size: sizes[key], Metrics: map[string]NumSummary{}}
		for _, c := range numCols {
			vals, err := sub.Column(c.Header)
			if err != nil || len(vals) == 0 {
				continue
			}
			lo, hi, _ := stats.Extent(vals)
			m, _ := stats.Mean(vals)
			gr.Metrics[c.Name] = NumSummary{Count: len(vals), Min: lo, Max: hi, Mean: m}
		}
		if opt.CorrPerGroup {
			gr.CorrPairs = topPairs(sub, numCols, 10)
		}
		out = append(out, gr)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Size == out[j].Size {
			return out[i].Key < out[j].Key
		}
		return out[i].Size > out[j].Size
	})
	if len(out) > 20 {
		out = out[:20]
	}
	return out
}

// topPairs ranks numeric column pairs by |r|. Pairs where either side has
// no variance are left out rather than reported as r=0.
func topPairs(ds *dataset.Dataset, cols []dataset.Column, limit int) []PairCorr {
	var pairs []PairCorr
	for a := 0; a < len(cols); a++ {
		for b := a + 1; b < len(cols); b++ {
			x, y, err := ds.Pair(cols[a].Header, cols[b].Header)
			if err != nil || len(x) < 2 || flat(x) || flat(y) {
				continue
			}
			r, err := stats.Pearson(x, y)
			if err != nil {
				continue
			}
			pairs = append(pairs, PairCorr{A: cols[a].Name, B: cols[b].Name, R: r})
		}
	}
	sortPairs(pairs)
	if len(pairs) > limit {
		pairs = pairs[:limit]
	}
	return pairs
}

func sortPairs(pairs []PairCorr) {
	sort.Slice(pairs, func(i, j int) bool {
		ai, aj := math.Abs(pairs[i].R), math.Abs(pairs[j].R)
		if ai == aj {
			return pairs[i].A+pairs[i].B < pairs[j].A+pairs[j].B
		}
		return ai > aj
	})
}

func flat(vals []float64) bool {
	lo, hi, err := stats.Extent(vals)
	return err != nil || lo == hi
}

func correlationMatrix(ds *dataset.Dataset) *CorrMatrix {
	cols := ds.NumericColumns()
	if len(cols) < 2 {
		return nil
	}
	n := len(cols)
	m := &CorrMatrix{
		Columns: make([]string, n),
		Values:  make([][]float64, n),
		PValues: make([][]float64, n),
		N:       make([][]int, n),
	}
	for i, c := range cols {
		m.Columns[i] = c.Name
		m.Values[i] = make([]float64, n)
		m.PValues[i] = make([]float64, n)
		m.N[i] = make([]int, n)
	}
	for a := 0; a < n; a++ {
		m.Values[a][a] = 1
		m.PValues[a][a] = math.NaN()
		for b := a + 1; b < n; b++ {
			x, y, _ := ds.Pair(cols[a].Header, cols[b].Header)
			r, p := 0.0, math.NaN()
			if c, err := stats.CorrelationTest(x, y); err == nil {
				r, p = c.Coefficient, c.PValue
			} else if v, err := stats.Pearson(x, y); err == nil {
				r = v
			}
			m.Values[a][b], m.Values[b][a] = r, r
			m.PValues[a][b], m.PValues[b][a] = p, p
			m.N[a][b], m.N[b][a] = len(x), len(x)
		}
	}
	return m
}

func columnName(ds *dataset.Dataset, name string) string {
	if c, ok := ds.Lookup(name); ok {
		return c.Name
	}
	return name
}

func (r *Report) addTest(ds *dataset.Dataset, xName, yName string) error {
	x, y, err := ds.Pair(xName, yName)
	if err != nil {
		return fmt.Errorf("correlation test %s ~ %s: %w", xName, yName, err)
	}
	xn, yn := columnName(ds, xName), columnName(ds, yName)
	c, err := stats.CorrelationTest(x, y)
	if err != nil {
		if errors.Is(err, stats.ErrInvalidInput) {
			r.note("skipped correlation test %s ~ %s: %v", xn, yn, err)
			return nil
		}
		return err
	}
	r.Tests = append(r.Tests, HypothesisTest{X: xn, Y: yn, Correlation: c})
	return nil
}

func (r *Report) addRegression(ds *dataset.Dataset, xName, yName string) error {
	x, y, err := ds.Pair(xName, yName)
	if err != nil {
		return fmt.Errorf("regression %s ~ %s: %w", yName, xName, err)
	}
	xn, yn := columnName(ds, xName), columnName(ds, yName)
	reg, err := stats.LinearRegression(x, y)
	if err != nil {
		if errors.Is(err, stats.ErrInvalidInput) {
			r.note("skipped regression %s ~ %s: %v", yn, xn, err)
			return nil
		}
		return err
	}
	lo, hi, _ := stats.Extent(x)
	r.Regressions = append(r.Regressions, RegressionResult{
		X: xn, Y: yn, Regression: reg,
		X0: lo, Y0: reg.Predict(lo),
		X1: hi, Y1: reg.Predict(hi),
	})
	return nil
}

func (r *Report) addDistribution(ds *dataset.Dataset, name string, bins int) error {
	vals, err := ds.Column(name)
	if err != nil {
		return fmt.Errorf("distribution %s: %w", name, err)
	}
	cn := columnName(ds, name)
	sum, err := stats.Summarize(vals)
	if err != nil {
		r.note("skipped distribution of %s: %v", cn, err)
		return nil
	}
	hist, err := stats.Histogram(vals, bins)
	if err != nil {
		r.note("skipped histogram of %s: %v", cn, err)
	}
	r.Distributions = append(r.Distributions, Distribution{Column: cn, N: len(vals), Summary: sum, Bins: hist})
	return nil
}
