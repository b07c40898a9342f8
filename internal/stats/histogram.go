package stats

import "fmt"

// Bin is one equal-width histogram bucket covering [Lower, Upper).
// The last bin also holds values equal to Upper.
type Bin struct {
	Lower float64
	Upper float64
	Count int
}

// String formats the bin range as "lo - hi" with two decimals.
func (b Bin) String() string {
	return fmt.Sprintf("%.2f - %.2f", b.Lower, b.Upper)
}

// Histogram splits values into bins equal-width buckets spanning their extent.
// When every value is identical all of them land in the first bucket.
func Histogram(values []float64, bins int) ([]Bin, error) {
	if bins < 1 {
		return nil, invalid("histogram", "bins must be >= 1, got %d", bins)
	}
	lo, hi, err := Extent(values)
	if err != nil {
		return nil, invalid("histogram", "empty sequence")
	}
	width := (hi - lo) / float64(bins)
	out := make([]Bin, bins)
	for i := range out {
		out[i].Lower = lo + float64(i)*width
		out[i].Upper = lo + float64(i+1)*width
	}
	for _, v := range values {
		idx := 0
		if width > 0 {
			idx = int((v - lo) / width)
		}
		if idx >= bins {
			idx = bins - 1
		}
		out[idx].Count++
	}
	return out, nil
}
