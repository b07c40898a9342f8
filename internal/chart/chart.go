// Package chart renders dataset figures through go-chart.
package chart

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"strings"

	gochart "github.com/wcharczuk/go-chart/v2"

	"github.com/KaramelBytes/statsketch/internal/stats"
	"github.com/KaramelBytes/statsketch/internal/utils"
)

// Drawable is anything go-chart can render: Chart, BarChart and PieChart all satisfy it.
type Drawable interface {
	Render(rp gochart.RendererProvider, w io.Writer) error
}

// Options are shared by every renderer.
type Options struct {
	Title  string
	Width  int
	Height int
	XLabel string
	YLabel string
}

const (
	defaultWidth  = 800
	defaultHeight = 400
)

func (o Options) width() int {
	if o.Width > 0 {
		return o.Width
	}
	return defaultWidth
}

func (o Options) height() int {
	if o.Height > 0 {
		return o.Height
	}
	return defaultHeight
}

// Format selects the output encoding.
type Format string

const (
	SVG Format = "svg"
	PNG Format = "png"
)

// ParseFormat accepts "svg" or "png" in any case. Empty means svg.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "svg":
		return SVG, nil
	case "png":
		return PNG, nil
	default:
		return "", fmt.Errorf("unsupported chart format %q (use svg or png)", s)
	}
}

// ContentType is the MIME type of the encoded chart.
func (f Format) ContentType() string {
	if f == PNG {
		return "image/png"
	}
	return "image/svg+xml"
}

func (f Format) provider() gochart.RendererProvider {
	if f == PNG {
		return gochart.PNG
	}
	return gochart.SVG
}

// Write renders d to w in the given format.
func Write(w io.Writer, d Drawable, f Format) error {
	if d == nil {
		return fmt.Errorf("render chart: nothing to draw")
	}
	if err := d.Render(f.provider(), w); err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	return nil
}

// WriteFile renders d fully in memory and then replaces path atomically.
func WriteFile(path string, d Drawable, f Format) error {
	var buf bytes.Buffer
	if err := Write(&buf, d, f); err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := utils.EnsureDir(dir); err != nil {
			return fmt.Errorf("create chart dir: %w", err)
		}
	}
	return utils.SafeWriteFile(path, buf.Bytes())
}

func invalid(op, format string, args ...any) error {
	return &stats.InputError{Op: op, Reason: fmt.Sprintf(format, args...)}
}

func background() gochart.Style {
	return gochart.Style{Padding: gochart.Box{Top: 40, Left: 20, Right: 20, Bottom: 20}}
}

// upper returns a y-axis maximum that leaves headroom above hi and is never zero.
func upper(hi float64) float64 {
	if hi <= 0 || math.IsNaN(hi) {
		return 1
	}
	return hi * 1.1
}

// span widens [lo, hi] by a margin so points never sit on the frame.
func span(lo, hi float64) *gochart.ContinuousRange {
	if lo > 0 {
		lo = 0
	}
	pad := (hi - lo) * 0.05
	if pad == 0 {
		pad = 1
	}
	if lo < 0 {
		lo -= pad
	}
	return &gochart.ContinuousRange{Min: lo, Max: hi + pad}
}

func extent(op string, values []float64) (float64, float64, error) {
	lo, hi, err := stats.Extent(values)
	if err != nil {
		return 0, 0, invalid(op, "empty sequence")
	}
	return lo, hi, nil
}

func checkPair(op string, x, y []float64) error {
	if len(x) == 0 {
		return invalid(op, "empty sequence")
	}
	if len(x) != len(y) {
		return invalid(op, "length mismatch: %d x values, %d y values", len(x), len(y))
	}
	return nil
}

func checkLabeled(op string, labels []string, values []float64) error {
	if len(values) == 0 {
		return invalid(op, "empty sequence")
	}
	if len(labels) != len(values) {
		return invalid(op, "length mismatch: %d labels, %d values", len(labels), len(values))
	}
	return nil
}

// indexTicks places one labelled tick per category at 0..n-1 plus blank
// bounds half a step outside, so bars centered on an index stay in frame.
func indexTicks(labels []string) []gochart.Tick {
	ticks := make([]gochart.Tick, 0, len(labels)+2)
	ticks = append(ticks, gochart.Tick{Value: -0.5})
	for i, l := range labels {
		ticks = append(ticks, gochart.Tick{Value: float64(i), Label: l})
	}
	return append(ticks, gochart.Tick{Value: float64(len(labels)) - 0.5})
}
