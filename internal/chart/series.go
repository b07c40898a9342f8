package chart

import (
	gochart "github.com/wcharczuk/go-chart/v2"
)

// rect is an axis-aligned rectangle in data coordinates.
type rect struct{ x0, x1, y0, y1 float64 }

// rects is a Series of filled rectangles. go-chart's BarChart cannot place
// several series side by side, so grouped bars and box bodies draw through this.
type rects struct {
	name  string
	style gochart.Style
	boxes []rect
}

func (s rects) GetName() string { return s.name }
func (s rects) GetYAxis() gochart.YAxisType { return gochart.YAxisPrimary }
func (s rects) GetStyle() gochart.Style { return s.style }
func (s rects) Len() int { return 2 * len(s.boxes) }
func (s rects) GetValues(i int) (float64, float64) {
	b := s.boxes[i/2]
	if i%2 == 0 {
		return b.x0, b.y0
	}
	return b.x1, b.y1
}

func (s rects) Validate() error {
	if len(s.boxes) == 0 {
		return invalid("rects "+s.name, "no rectangles")
	}
	return nil
}

func (s rects) Render(r gochart.Renderer, canvasBox gochart.Box, xrange, yrange gochart.Range, defaults gochart.Style) {
	style := s.style.InheritFrom(defaults)
	if style.FillColor.IsZero() {
		style.FillColor = style.StrokeColor.WithAlpha(200)
	}
	for _, b := range s.boxes {
		if b.y1 == b.y0 {
			continue
		}
		gochart.Draw.Box(r, gochart.Box{
			Left:   canvasBox.Left + xrange.Translate(b.x0),
			Right:  canvasBox.Left + xrange.Translate(b.x1),
			Top:    canvasBox.Bottom - yrange.Translate(b.y1),
			Bottom: canvasBox.Bottom - yrange.Translate(b.y0),
		}, style)
	}
}

// segment is a straight line in data coordinates.
type segment struct{ x0, y0, x1, y1 float64 }

// segments is a Series of disconnected strokes: whiskers, caps and medians.
type segments struct {
	name  string
	style gochart.Style
	lines []segment
}

func (s segments) GetName() string { return s.name }
func (s segments) GetYAxis() gochart.YAxisType { return gochart.YAxisPrimary }
func (s segments) GetStyle() gochart.Style { return s.style }
func (s segments) Len() int { return 2 * len(s.lines) }
func (s segments) GetValues(i int) (float64, float64) {
	l := s.lines[i/2]
	if i%2 == 0 {
		return l.x0, l.y0
	}
	return l.x1, l.y1
}

func (s segments) Validate() error {
	if len(s.lines) == 0 {
		return invalid("segments "+s.name, "no lines")
	}
	return nil
}

func (s segments) Render(r gochart.Renderer, canvasBox gochart.Box, xrange, yrange gochart.Range, defaults gochart.Style) {
	style := s.style.InheritFrom(defaults)
	style.GetStrokeOptions().WriteDrawingOptionsToRenderer(r)
	defer r.ResetStyle()
	for _, l := range s.lines {
		r.MoveTo(canvasBox.Left+xrange.Translate(l.x0), canvasBox.Bottom-yrange.Translate(l.y0))
		r.LineTo(canvasBox.Left+xrange.Translate(l.x1), canvasBox.Bottom-yrange.Translate(l.y1))
	}
	r.Stroke()
}
