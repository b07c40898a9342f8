package chart

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/KaramelBytes/statsketch/internal/dataset"
	"github.com/KaramelBytes/statsketch/internal/stats"
)

var (
	// ErrUnknownKind is returned by Build for a kind it has no renderer for.
	ErrUnknownKind = errors.New("unknown chart kind")
	// ErrMissingParam is returned when a kind needs a column the request left empty.
	ErrMissingParam = errors.New("missing chart parameter")
)

// Request names the columns a chart is drawn from. Which fields matter
// depends on the kind.
type Request struct {
	X       string
	Y       string
	Size    string
	Label   string
	Group   string
	Columns []string
	Bins    int
	Options
}

type builder func(ds *dataset.Dataset, req Request) (Drawable, error)

var builders = map[string]builder{
	"bar":        buildBar,
	"line":       buildLine,
	"pie":        buildPie,
	"histogram":  buildHistogram,
	"grouped":    buildGrouped,
	"scatter":    buildScatter,
	"bubble":     buildBubble,
	"box":        buildBox,
	"regression": buildRegression,
}

// Kinds lists the chart kinds Build understands, sorted.
func Kinds() []string {
	out := make([]string, 0, len(builders))
	for k := range builders {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Build draws a chart of the given kind from ds.
func Build(kind string, ds *dataset.Dataset, req Request) (Drawable, error) {
	b, ok := builders[strings.ToLower(strings.TrimSpace(kind))]
	if !ok {
		return nil, fmt.Errorf("%w %q (available: %s)", ErrUnknownKind, kind, strings.Join(Kinds(), ", "))
	}
	if ds == nil {
		return nil, invalid(kind+" chart", "no dataset")
	}
	d, err := b(ds, req)
	if err != nil {
		return nil, fmt.Errorf("%s chart: %w", kind, err)
	}
	return d, nil
}

func need(fields ...[2]string) error {
	var missing []string
	for _, f := range fields {
		if strings.TrimSpace(f[1]) == "" {
			missing = append(missing, f[0])
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingParam, strings.Join(missing, ", "))
	}
	return nil
}

func (r Request) withTitle(title string) Options {
	opt := r.Options
	if opt.Title == "" {
		opt.Title = title
	}
	return opt
}

func (r Request) axes(x, y string) Options {
	opt := r.Options
	if opt.XLabel == "" {
		opt.XLabel = x
	}
	if opt.YLabel == "" {
		opt.YLabel = y
	}
	return opt
}

// column returns X, else Y, else the first of Columns.
func (r Request) column() string {
	switch {
	case r.X != "":
		return r.X
	case r.Y != "":
		return r.Y
	case len(r.Columns) > 0:
		return r.Columns[0]
	}
	return ""
}

func buildBar(ds *dataset.Dataset, req Request) (Drawable, error) {
	if err := need([2]string{"label", req.Label}, [2]string{"y", req.Y}); err != nil {
		return nil, err
	}
	labels, values, err := ds.Labeled(req.Label, req.Y)
	if err != nil {
		return nil, err
	}
	req.Options = req.axes(req.Label, req.Y)
	return Bar(labels, values, req.withTitle(fmt.Sprintf("%s by %s", req.Y, req.Label)))
}

func buildLine(ds *dataset.Dataset, req Request) (Drawable, error) {
	if err := need([2]string{"label", req.Label}, [2]string{"y", req.Y}); err != nil {
		return nil, err
	}
	labels, values, err := ds.Labeled(req.Label, req.Y)
	if err != nil {
		return nil, err
	}
	req.Options = req.axes(req.Label, req.Y)
	return Line(labels, values, req.withTitle(fmt.Sprintf("%s by %s", req.Y, req.Label)))
}

// buildPie slices the means of several columns when Columns is set,
// otherwise the per-label values of Y.
func buildPie(ds *dataset.Dataset, req Request) (Drawable, error) {
	if len(req.Columns) > 0 {
		labels, means, err := columnMeans(ds, req.Columns)
		if err != nil {
			return nil, err
		}
		return Pie(labels, means, req.withTitle("Mean by column"))
	}
	if err := need([2]string{"label", req.Label}, [2]string{"y", req.Y}); err != nil {
		return nil, err
	}
	labels, values, err := ds.Labeled(req.Label, req.Y)
	if err != nil {
		return nil, err
	}
	return Pie(labels, values, req.withTitle(fmt.Sprintf("%s by %s", req.Y, req.Label)))
}

func columnMeans(ds *dataset.Dataset, cols []string) ([]string, []float64, error) {
	labels := make([]string, 0, len(cols))
	means := make([]float64, 0, len(cols))
	for _, c := range cols {
		values, err := ds.Column(c)
		if err != nil {
			return nil, nil, err
		}
		m, err := stats.Mean(values)
		if err != nil {
			return nil, nil, fmt.Errorf("column %q: %w", c, err)
		}
		labels = append(labels, c)
		means = append(means, m)
	}
	return labels, means, nil
}

func buildHistogram(ds *dataset.Dataset, req Request) (Drawable, error) {
	col := req.column()
	if err := need([2]string{"x", col}); err != nil {
		return nil, err
	}
	values, err := ds.Column(col)
	if err != nil {
		return nil, err
	}
	bins := req.Bins
	if bins <= 0 {
		bins = 10
	}
	hist, err := stats.Histogram(values, bins)
	if err != nil {
		return nil, err
	}
	req.Options = req.axes(col, "Count")
	return HistogramChart(hist, req.withTitle("Distribution of "+col))
}

// buildGrouped draws the mean of every column in Columns split by the
// categories of Group.
func buildGrouped(ds *dataset.Dataset, req Request) (Drawable, error) {
	cols := req.Columns
	if len(cols) == 0 && req.Y != "" {
		cols = []string{req.Y}
	}
	if err := need([2]string{"group", req.Group}, [2]string{"columns", strings.Join(cols, ",")}); err != nil {
		return nil, err
	}
	means := make([]stats.GroupMeans, 0, len(cols))
	for _, c := range cols {
		cats, values, err := ds.Labeled(req.Group, c)
		if err != nil {
			return nil, err
		}
		g, err := stats.GroupMean(values, cats)
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", c, err)
		}
		means = append(means, g)
	}
	req.Options = req.axes("", "Mean")
	return GroupedBars(cols, nil, means, req.withTitle("Mean by "+req.Group))
}

func buildScatter(ds *dataset.Dataset, req Request) (Drawable, error) {
	if err := need([2]string{"x", req.X}, [2]string{"y", req.Y}); err != nil {
		return nil, err
	}
	x, y, err := ds.Pair(req.X, req.Y)
	if err != nil {
		return nil, err
	}
	req.Options = req.axes(req.X, req.Y)
	return Scatter(x, y, req.withTitle(fmt.Sprintf("%s vs %s", req.Y, req.X)))
}

func buildBubble(ds *dataset.Dataset, req Request) (Drawable, error) {
	if err := need([2]string{"x", req.X}, [2]string{"y", req.Y}, [2]string{"size", req.Size}); err != nil {
		return nil, err
	}
	cols, err := ds.Aligned(req.X, req.Y, req.Size)
	if err != nil {
		return nil, err
	}
	req.Options = req.axes(req.X, req.Y)
	return Bubble(cols[0], cols[1], cols[2], req.withTitle(fmt.Sprintf("%s vs %s sized by %s", req.Y, req.X, req.Size)))
}

func buildBox(ds *dataset.Dataset, req Request) (Drawable, error) {
	col := req.column()
	if err := need([2]string{"x", col}); err != nil {
		return nil, err
	}
	values, err := ds.Column(col)
	if err != nil {
		return nil, err
	}
	s, err := stats.Summarize(values)
	if err != nil {
		return nil, err
	}
	req.Options = req.axes("", col)
	return BoxPlot(col, s, req.withTitle("Box plot of "+col))
}

func buildRegression(ds *dataset.Dataset, req Request) (Drawable, error) {
	if err := need([2]string{"x", req.X}, [2]string{"y", req.Y}); err != nil {
		return nil, err
	}
	x, y, err := ds.Pair(req.X, req.Y)
	if err != nil {
		return nil, err
	}
	reg, err := stats.LinearRegression(x, y)
	if err != nil {
		return nil, err
	}
	req.Options = req.axes(req.X, req.Y)
	return RegressionPlot(x, y, reg, req.withTitle(fmt.Sprintf("%s ~ %s", req.Y, req.X)))
}

// Job is one chart of a default set.
type Job struct {
	Name    string
	Kind    string
	Request Request
}

// Suggest proposes a chart set for ds: a histogram and a box plot per
// numeric column, a scatter and a regression for the first two numeric
// columns, and column means as a pie when there are several. Job names are
// unique.
func Suggest(ds *dataset.Dataset, base Request) []Job {
	if ds == nil {
		return nil
	}
	var jobs []Job
	var names []string
	for _, c := range ds.NumericColumns() {
		names = append(names, c.Name)
		r := base
		r.X = c.Name
		jobs = append(jobs,
			Job{Name: "histogram-" + slug(c.Name), Kind: "histogram", Request: r},
			Job{Name: "box-" + slug(c.Name), Kind: "box", Request: r},
		)
	}
	if len(names) >= 2 {
		r := base
		r.X, r.Y = names[0], names[1]
		pair := slug(names[1]) + "-vs-" + slug(names[0])
		jobs = append(jobs,
			Job{Name: "scatter-" + pair, Kind: "scatter", Request: r},
			Job{Name: "regression-" + pair, Kind: "regression", Request: r},
		)
		r = base
		r.Columns = names
		jobs = append(jobs, Job{Name: "pie-means", Kind: "pie", Request: r})
	}
	return uniqueNames(jobs)
}

// uniqueNames suffixes repeated job names as name__2, name__3 so columns whose
// slugs collide ("A/B", "A-B") still get distinct files.
func uniqueNames(jobs []Job) []Job {
	used := make(map[string]int, len(jobs))
	for i := range jobs {
		name := jobs[i].Name
		used[name]++
		if n := used[name]; n > 1 {
			jobs[i].Name = fmt.Sprintf("%s__%d", name, n)
		}
	}
	return jobs
}

func slug(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
