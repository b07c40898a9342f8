package stats

import (
	"errors"

	mstats "github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/floats"
)

// Sum returns Σv. The sum of an empty sequence is 0.
func Sum(values []float64) float64 {
	return floats.Sum(values)
}

// Mean returns the arithmetic mean of values.
func Mean(values []float64) (float64, error) {
	m, err := mstats.Mean(values)
	if err != nil {
		return 0, fromLib("mean", err)
	}
	return m, nil
}

// Extent returns the smallest and largest value.
func Extent(values []float64) (lo, hi float64, err error) {
	if lo, err = mstats.Min(values); err != nil {
		return 0, 0, fromLib("extent", err)
	}
	if hi, err = mstats.Max(values); err != nil {
		return 0, 0, fromLib("extent", err)
	}
	return lo, hi, nil
}

// StdDev returns the sample standard deviation (n-1 denominator).
// A single observation has a deviation of 0.
func StdDev(values []float64) (float64, error) {
	switch len(values) {
	case 0:
		return 0, invalid("stddev", "empty sequence")
	case 1:
		return 0, nil
	}
	sd, err := mstats.StandardDeviationSample(values)
	if err != nil {
		return 0, fromLib("stddev", err)
	}
	return sd, nil
}

func fromLib(op string, err error) error {
	if errors.Is(err, mstats.ErrEmptyInput) {
		return invalid(op, "empty sequence")
	}
	return invalid(op, "%v", err)
}

// sums holds the running totals shared by the correlation and regression formulas.
type sums struct {
	n                float64
	x, y, xy, xx, yy float64
}

func pairSums(op string, x, y []float64, minN int) (sums, error) {
	if len(x) != len(y) {
		return sums{}, invalid(op, "length mismatch: %d vs %d", len(x), len(y))
	}
	if len(x) < minN {
		return sums{}, invalid(op, "need at least %d observations, got %d", minN, len(x))
	}
	s := sums{n: float64(len(x))}
	for i := range x {
		xi, yi := x[i], y[i]
		s.x += xi
		s.y += yi
		s.xy += xi * yi
		s.xx += xi * xi
		s.yy += yi * yi
	}
	return s, nil
}
