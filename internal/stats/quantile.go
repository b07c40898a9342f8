package stats

import (
	"math"
	"sort"
)

// FiveNumberSummary is the basis of a box plot.
type FiveNumberSummary struct {
	Min    float64
	Q1     float64
	Median float64
	Q3     float64
	Max    float64
}

// IQR is the interquartile range Q3-Q1.
func (s FiveNumberSummary) IQR() float64 { return s.Q3 - s.Q1 }

// Summarize computes min, quartiles and max of values using R-7 interpolation.
// values is copied before sorting.
func Summarize(values []float64) (FiveNumberSummary, error) {
	if len(values) == 0 {
		return FiveNumberSummary{}, invalid("summarize", "empty sequence")
	}
	sorted := sortedCopy(values)
	return FiveNumberSummary{
		Min:    sorted[0],
		Q1:     Quantile(sorted, 0.25),
		Median: Quantile(sorted, 0.5),
		Q3:     Quantile(sorted, 0.75),
		Max:    sorted[len(sorted)-1],
	}, nil
}

// Quantile returns the p-quantile of an ascending slice using linear
// interpolation between order statistics (R-7). p is clamped to [0,1].
// An empty slice yields 0.
func Quantile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}
	h := p * float64(n-1)
	lo := int(math.Floor(h))
	hi := int(math.Ceil(h))
	if lo == hi {
		return sorted[lo]
	}
	return sorted[lo] + (h-float64(lo))*(sorted[hi]-sorted[lo])
}

// MedianMAD computes the median and the median absolute deviation of values.
func MedianMAD(values []float64) (median, mad float64, err error) {
	if len(values) == 0 {
		return 0, 0, invalid("mad", "empty sequence")
	}
	sorted := sortedCopy(values)
	median = Quantile(sorted, 0.5)
	dev := make([]float64, len(sorted))
	for i, v := range sorted {
		dev[i] = math.Abs(v - median)
	}
	sort.Float64s(dev)
	return median, Quantile(dev, 0.5), nil
}

// RobustOutliers counts values whose modified z-score 0.6745*(v-median)/MAD
// exceeds threshold in magnitude, and reports the largest |z| seen.
// A zero MAD yields no outliers.
func RobustOutliers(values []float64, threshold float64) (count int, maxAbsZ float64, err error) {
	median, mad, err := MedianMAD(values)
	if err != nil {
		return 0, 0, err
	}
	if mad == 0 {
		return 0, 0, nil
	}
	for _, v := range values {
		z := math.Abs(0.6745 * (v - median) / mad)
		if z > threshold {
			count++
		}
		if z > maxAbsZ {
			maxAbsZ = z
		}
	}
	return count, maxAbsZ, nil
}

func sortedCopy(values []float64) []float64 {
	cp := make([]float64, len(values))
	copy(cp, values)
	sort.Float64s(cp)
	return cp
}
