package chart

import (
	"fmt"
	"math"

	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/KaramelBytes/statsketch/internal/stats"
)

const (
	minBubble = 5.0
	maxBubble = 20.0
)

var palette = []drawing.Color{
	gochart.ColorBlue,
	gochart.ColorOrange,
	gochart.ColorGreen,
	gochart.ColorRed,
	gochart.ColorAlternateGray,
}

func pointStyle(col drawing.Color) gochart.Style {
	return gochart.Style{StrokeWidth: gochart.Disabled, DotWidth: 4, DotColor: col}
}

func lineStyle(col drawing.Color, width float64) gochart.Style {
	return gochart.Style{StrokeColor: col, StrokeWidth: width}
}

// Bar draws one bar per label.
func Bar(labels []string, values []float64, opt Options) (Drawable, error) {
	if err := checkLabeled("bar chart", labels, values); err != nil {
		return nil, err
	}
	lo, hi, _ := stats.Extent(values)
	bars := make([]gochart.Value, len(values))
	for i, v := range values {
		bars[i] = gochart.Value{Label: labels[i], Value: v}
	}
	width, spacing := barSizes(opt.width(), len(bars))
	return gochart.BarChart{
		Title:      opt.Title,
		Width:      opt.width(),
		Height:     opt.height(),
		Background: background(),
		BarWidth:   width,
		BarSpacing: spacing,
		YAxis: gochart.YAxis{
			Name:  opt.YLabel,
			Range: &gochart.ContinuousRange{Min: math.Min(0, lo), Max: upper(hi)},
		},
		Bars: bars,
	}, nil
}

func barSizes(width, n int) (bar, spacing int) {
	per := (width - 120) / n
	if per < 4 {
		per = 4
	}
	bar = per * 7 / 10
	spacing = per - bar
	if spacing < 1 {
		spacing = 1
	}
	return bar, spacing
}

// HistogramChart draws the bin counts, labelled by bin bounds.
func HistogramChart(bins []stats.Bin, opt Options) (Drawable, error) {
	if len(bins) == 0 {
		return nil, invalid("histogram chart", "no bins")
	}
	labels := make([]string, len(bins))
	counts := make([]float64, len(bins))
	for i, b := range bins {
		labels[i] = b.String()
		counts[i] = float64(b.Count)
	}
	if opt.YLabel == "" {
		opt.YLabel = "Count"
	}
	return Bar(labels, counts, opt)
}

// Pie draws each value as its share of the total, labelled "name: pct%".
func Pie(labels []string, values []float64, opt Options) (Drawable, error) {
	if err := checkLabeled("pie chart", labels, values); err != nil {
		return nil, err
	}
	total := 0.0
	for i, v := range values {
		if v < 0 {
			return nil, invalid("pie chart", "negative value %g for %q", v, labels[i])
		}
		total += v
	}
	if total == 0 {
		return nil, invalid("pie chart", "all values are zero")
	}
	slices := make([]gochart.Value, len(values))
	for i, v := range values {
		slices[i] = gochart.Value{
			Label: fmt.Sprintf("%s: %.1f%%", labels[i], 100*v/total),
			Value: v,
		}
	}
	return gochart.PieChart{
		Title:      opt.Title,
		Width:      opt.width(),
		Height:     opt.height(),
		Background: background(),
		Values:     slices,
	}, nil
}

// GroupedBars draws, for each group, one bar per category side by side.
// means[i] holds the category means of groups[i]; a category with no
// observations in a group is drawn as a zero-height bar.
// When categories is empty the union of every group's categories is used.
func GroupedBars(groups, categories []string, means []stats.GroupMeans, opt Options) (Drawable, error) {
	if len(groups) == 0 {
		return nil, invalid("grouped bars", "empty sequence")
	}
	if len(groups) != len(means) {
		return nil, invalid("grouped bars", "length mismatch: %d groups, %d mean sets", len(groups), len(means))
	}
	if len(categories) == 0 {
		categories = unionOrder(means)
	}
	if len(categories) == 0 {
		return nil, invalid("grouped bars", "no categories")
	}
	const slot = 0.8
	w := slot / float64(len(categories))
	hi := 0.0
	lo := 0.0
	series := make([]gochart.Series, 0, len(categories))
	for j, cat := range categories {
		s := rects{name: cat, style: gochart.Style{
			StrokeColor: palette[j%len(palette)],
			FillColor:   palette[j%len(palette)].WithAlpha(200),
			StrokeWidth: 1,
		}}
		for i := range groups {
			v, ok := means[i].Get(cat)
			if !ok {
				v = 0
			}
			hi = math.Max(hi, v)
			lo = math.Min(lo, v)
			x0 := float64(i) - slot/2 + float64(j)*w
			s.boxes = append(s.boxes, rect{x0: x0, x1: x0 + w, y0: 0, y1: v})
		}
		series = append(series, s)
	}
	ch := gochart.Chart{
		Title:      opt.Title,
		Width:      opt.width(),
		Height:     opt.height(),
		Background: background(),
		XAxis:      gochart.XAxis{Name: opt.XLabel, Ticks: indexTicks(groups)},
		YAxis: gochart.YAxis{
			Name:  opt.YLabel,
			Range: &gochart.ContinuousRange{Min: lo, Max: upper(hi)},
		},
		Series: series,
	}
	ch.Elements = []gochart.Renderable{gochart.Legend(&ch)}
	return ch, nil
}

func unionOrder(means []stats.GroupMeans) []string {
	seen := make(map[string]bool)
	var out []string
	for _, m := range means {
		for _, c := range m.Order {
			if !seen[c] {
				seen[c] = true
				out = append(out, c)
			}
		}
	}
	return out
}

// Scatter draws one dot per (x, y) pair and no connecting line.
func Scatter(x, y []float64, opt Options) (Drawable, error) {
	if err := checkPair("scatter chart", x, y); err != nil {
		return nil, err
	}
	return xyChart(opt, x, y, gochart.ContinuousSeries{
		Name:    "points",
		XValues: x,
		YValues: y,
		Style:   pointStyle(gochart.ColorBlue),
	})
}

// Bubble is a scatter whose dot radius grows linearly with size, mapping
// [0, max(size)] onto [5, 20] pixels.
func Bubble(x, y, size []float64, opt Options) (Drawable, error) {
	if err := checkPair("bubble chart", x, y); err != nil {
		return nil, err
	}
	if len(size) != len(x) {
		return nil, invalid("bubble chart", "length mismatch: %d points, %d sizes", len(x), len(size))
	}
	radius := bubbleRadii(size)
	style := pointStyle(gochart.ColorBlue.WithAlpha(160))
	style.DotWidthProvider = func(_, _ gochart.Range, i int, _, _ float64) float64 {
		return radius[i]
	}
	return xyChart(opt, x, y, gochart.ContinuousSeries{
		Name:    "points",
		XValues: x,
		YValues: y,
		Style:   style,
	})
}

func bubbleRadii(size []float64) []float64 {
	top := 0.0
	for _, s := range size {
		top = math.Max(top, s)
	}
	out := make([]float64, len(size))
	for i, s := range size {
		if top <= 0 || s <= 0 {
			out[i] = minBubble
			continue
		}
		out[i] = minBubble + (maxBubble-minBubble)*s/top
	}
	return out
}

// RegressionPlot is a scatter of the data plus the fitted line drawn from
// the smallest to the largest x.
func RegressionPlot(x, y []float64, reg stats.Regression, opt Options) (Drawable, error) {
	if err := checkPair("regression chart", x, y); err != nil {
		return nil, err
	}
	x0, x1, _ := stats.Extent(x)
	return xyChart(opt, x, y,
		gochart.ContinuousSeries{
			Name:    "observed",
			XValues: x,
			YValues: y,
			Style:   pointStyle(gochart.ColorBlue),
		},
		gochart.ContinuousSeries{
			Name:    fmt.Sprintf("y = %.4gx + %.4g", reg.Slope, reg.Intercept),
			XValues: []float64{x0, x1},
			YValues: []float64{reg.Predict(x0), reg.Predict(x1)},
			Style:   lineStyle(gochart.ColorRed, 2),
		},
	)
}

// xyChart frames continuous series over both axes. The first series sets
// the y extent, later series may extend it.
func xyChart(opt Options, x, y []float64, series ...gochart.ContinuousSeries) (Drawable, error) {
	xlo, xhi, err := extent("chart", x)
	if err != nil {
		return nil, err
	}
	ylo, yhi, err := extent("chart", y)
	if err != nil {
		return nil, err
	}
	out := make([]gochart.Series, len(series))
	for i, s := range series {
		for _, v := range s.YValues {
			ylo = math.Min(ylo, v)
			yhi = math.Max(yhi, v)
		}
		out[i] = s
	}
	ch := gochart.Chart{
		Title:      opt.Title,
		Width:      opt.width(),
		Height:     opt.height(),
		Background: background(),
		XAxis:      gochart.XAxis{Name: opt.XLabel, Range: span(xlo, xhi)},
		YAxis:      gochart.YAxis{Name: opt.YLabel, Range: span(ylo, yhi)},
		Series:     out,
	}
	if len(out) > 1 {
		ch.Elements = []gochart.Renderable{gochart.Legend(&ch)}
	}
	return ch, nil
}

// BoxPlot draws a single box from Q1 to Q3 with a median line, whiskers to
// min and max, and caps at both whisker ends.
func BoxPlot(name string, s stats.FiveNumberSummary, opt Options) (Drawable, error) {
	if s.Min > s.Max || math.IsNaN(s.Median) {
		return nil, invalid("box plot", "malformed summary")
	}
	const half, tip = 0.25, 0.1
	body := rects{
		name: "Q1-Q3",
		style: gochart.Style{
			StrokeColor: gochart.ColorBlue,
			FillColor:   gochart.ColorBlue.WithAlpha(80),
			StrokeWidth: 1,
		},
		boxes: []rect{{x0: -half, x1: half, y0: s.Q1, y1: s.Q3}},
	}
	median := segments{
		name:  "median",
		style: lineStyle(gochart.ColorRed, 2),
		lines: []segment{{x0: -half, y0: s.Median, x1: half, y1: s.Median}},
	}
	whiskers := segments{
		name:  "min/max",
		style: lineStyle(gochart.ColorBlack, 1),
		lines: []segment{
			{x0: 0, y0: s.Min, x1: 0, y1: s.Q1},
			{x0: 0, y0: s.Q3, x1: 0, y1: s.Max},
			{x0: -tip, y0: s.Min, x1: tip, y1: s.Min},
			{x0: -tip, y0: s.Max, x1: tip, y1: s.Max},
		},
	}
	return gochart.Chart{
		Title:      opt.Title,
		Width:      opt.width(),
		Height:     opt.height(),
		Background: background(),
		XAxis: gochart.XAxis{
			Name:  opt.XLabel,
			Ticks: []gochart.Tick{{Value: -1}, {Value: 0, Label: name}, {Value: 1}},
		},
		YAxis:  gochart.YAxis{Name: opt.YLabel, Range: span(s.Min, s.Max)},
		Series: []gochart.Series{body, median, whiskers},
	}, nil
}

// Line joins values in label order.
func Line(labels []string, values []float64, opt Options) (Drawable, error) {
	if err := checkLabeled("line chart", labels, values); err != nil {
		return nil, err
	}
	lo, hi, _ := stats.Extent(values)
	xs := make([]float64, len(values))
	for i := range xs {
		xs[i] = float64(i)
	}
	style := lineStyle(gochart.ColorBlue, 2)
	style.DotWidth = 3
	style.DotColor = gochart.ColorBlue
	return gochart.Chart{
		Title:      opt.Title,
		Width:      opt.width(),
		Height:     opt.height(),
		Background: background(),
		XAxis:      gochart.XAxis{Name: opt.XLabel, Ticks: indexTicks(labels)},
		YAxis:      gochart.YAxis{Name: opt.YLabel, Range: span(lo, hi)},
		Series: []gochart.Series{gochart.ContinuousSeries{
			Name:    opt.YLabel,
			XValues: xs,
			YValues: values,
			Style:   style,
		}},
	}, nil
}
