package stats

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat"
)

func TestSumMeanExtent(t *testing.T) {
	vals := []float64{4, -2, 10, 0.5}
	assert.Equal(t, 12.5, Sum(vals))
	assert.Equal(t, 0.0, Sum(nil))

	m, err := Mean(vals)
	require.NoError(t, err)
	assert.InDelta(t, 3.125, m, 1e-12)

	lo, hi, err := Extent(vals)
	require.NoError(t, err)
	assert.Equal(t, -2.0, lo)
	assert.Equal(t, 10.0, hi)

	_, err = Mean(nil)
	require.ErrorIs(t, err, ErrInvalidInput)
	_, _, err = Extent([]float64{})
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestStdDev(t *testing.T) {
	sd, err := StdDev([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	require.NoError(t, err)
	assert.InDelta(t, 2.138089935, sd, 1e-9)

	sd, err = StdDev([]float64{42})
	require.NoError(t, err)
	assert.Equal(t, 0.0, sd)

	_, err = StdDev(nil)
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestSummarizeR7(t *testing.T) {
	s, err := Summarize([]float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10})
	require.NoError(t, err)
	assert.Equal(t, FiveNumberSummary{Min: 1, Q1: 3.25, Median: 5.5, Q3: 7.75, Max: 10}, s)
	assert.InDelta(t, 4.5, s.IQR(), 1e-12)
}

func TestSummarizeSingleAndEmpty(t *testing.T) {
	s, err := Summarize([]float64{7})
	require.NoError(t, err)
	assert.Equal(t, FiveNumberSummary{Min: 7, Q1: 7, Median: 7, Q3: 7, Max: 7}, s)

	_, err = Summarize(nil)
	require.ErrorIs(t, err, ErrInvalidInput)
	var ie *InputError
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, "summarize", ie.Op)
}

func TestSummarizeDoesNotReorderInput(t *testing.T) {
	in := []float64{9, 1, 5, 3}
	_, err := Summarize(in)
	require.NoError(t, err)
	assert.Equal(t, []float64{9, 1, 5, 3}, in)
}

func TestSummarizeOrdering(t *testing.T) {
	inputs := [][]float64{
		{3},
		{5, -1},
		{2, 2, 2, 2},
		{100, 0.1, -50, 3, 3, 7.5, 12, -0.25},
		{1e9, -1e9, 0, 1, -1},
	}
	for _, in := range inputs {
		s, err := Summarize(in)
		require.NoError(t, err)
		assert.True(t, s.Min <= s.Q1 && s.Q1 <= s.Median && s.Median <= s.Q3 && s.Q3 <= s.Max, "%v -> %+v", in, s)
	}
}

func TestQuantileEdges(t *testing.T) {
	sorted := []float64{1, 2, 3, 4}
	assert.Equal(t, 1.0, Quantile(sorted, -0.5))
	assert.Equal(t, 4.0, Quantile(sorted, 1.5))
	assert.Equal(t, 2.5, Quantile(sorted, 0.5))
	assert.Equal(t, 0.0, Quantile(nil, 0.5))
}

func TestPearsonPerfectLine(t *testing.T) {
	x := []float64{1, 2, 3, 4, 5}
	y := []float64{2, 4, 6, 8, 10}

	c, err := CorrelationTest(x, y)
	require.NoError(t, err)
	assert.Equal(t, 1.0, c.Coefficient)
	assert.Equal(t, 0.0, c.PValue)
	assert.True(t, c.Significant)
	assert.True(t, math.IsInf(c.T, 1))
	assert.Equal(t, 3, c.DF)
	assert.Equal(t, verdictSignificant, c.Verdict())

	reg, err := LinearRegression(x, y)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, reg.Slope, 1e-12)
	assert.InDelta(t, 0.0, reg.Intercept, 1e-12)
}

func TestPearsonNegativeLine(t *testing.T) {
	x := []float64{1, 2, 3, 4}
	y := []float64{10, 7, 4, 1}
	c, err := CorrelationTest(x, y)
	require.NoError(t, err)
	assert.InDelta(t, -1.0, c.Coefficient, 1e-12)
	assert.Equal(t, 0.0, c.PValue)
}

func TestPearsonSymmetry(t *testing.T) {
	x := []float64{1.5, 2.25, 9, 4, 4.5, 7}
	y := []float64{3, 1, 8, 5.5, 2, 6}
	rxy, err := Pearson(x, y)
	require.NoError(t, err)
	ryx, err := Pearson(y, x)
	require.NoError(t, err)
	assert.Equal(t, rxy, ryx)
}

func TestPearsonMatchesGonum(t *testing.T) {
	x := []float64{12, 15, 11, 19, 22, 8, 14, 17}
	y := []float64{30, 33, 29, 41, 47, 22, 30, 38}
	r, err := Pearson(x, y)
	require.NoError(t, err)
	assert.InDelta(t, stat.Correlation(x, y, nil), r, 1e-9)
}

func TestPearsonZeroVariance(t *testing.T) {
	c, err := CorrelationTest([]float64{1, 1, 1}, []float64{5, 5, 5})
	require.NoError(t, err)
	assert.Equal(t, 0.0, c.Coefficient)
	assert.False(t, math.IsNaN(c.PValue))
	assert.InDelta(t, 1.0, c.PValue, 1e-12)
	assert.False(t, c.Significant)
	assert.Equal(t, verdictNotSignificant, c.Verdict())

	r, err := Pearson([]float64{1, 2, 3}, []float64{4, 4, 4})
	require.NoError(t, err)
	assert.Equal(t, 0.0, r)
}

func TestPearsonDecimalConstants(t *testing.T) {
	repeat := func(v float64, n int) []float64 {
		out := make([]float64, n)
		for i := range out {
			out[i] = v
		}
		return out
	}
	ramp := []float64{0, 1, 2, 3, 4, 5, 6}
	cases := []struct {
		name string
		x, y []float64
	}{
		{"both 0.7", repeat(0.7, 5), repeat(0.7, 5)},
		{"0.1 and 1.1", repeat(0.1, 7), repeat(1.1, 7)},
		{"0.1 against ramp", repeat(0.1, 7), ramp},
		{"ramp against 3.3", ramp, repeat(3.3, 7)},
		{"3.3 and 0.1", repeat(3.3, 7), repeat(0.1, 7)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r, err := Pearson(tc.x, tc.y)
			require.NoError(t, err)
			assert.Equal(t, 0.0, r)

			c, err := CorrelationTest(tc.x, tc.y)
			require.NoError(t, err)
			assert.Equal(t, 0.0, c.Coefficient)
			assert.False(t, c.Significant)
			assert.InDelta(t, 1.0, c.PValue, 1e-12)
		})
	}
}

func TestCorrelationTestPValue(t *testing.T) {
	// r is about 0.927 on n = 10, well inside the 0.05 rejection region.
	x := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	y := []float64{2, 1, 4, 3, 7, 5, 6, 9, 8, 10}
	c, err := CorrelationTest(x, y)
	require.NoError(t, err)
	want := stat.Correlation(x, y, nil)
	assert.InDelta(t, want, c.Coefficient, 1e-12)
	assert.InDelta(t, want*math.Sqrt(8/(1-want*want)), c.T, 1e-9)
	assert.Greater(t, c.PValue, 0.0)
	assert.Less(t, c.PValue, SignificanceLevel)
}

func TestCorrelationTestWeakRelationship(t *testing.T) {
	x := []float64{1, 2, 3, 4, 5, 6}
	y := []float64{3, 1, 4, 1, 5, 2}
	c, err := CorrelationTest(x, y)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, c.PValue, SignificanceLevel)
	assert.False(t, c.Significant)
}

func TestCorrelationInvalidInput(t *testing.T) {
	cases := []struct {
		name string
		x, y []float64
		test bool
	}{
		{"pearson too short", []float64{1}, []float64{2}, false},
		{"pearson mismatch", []float64{1, 2, 3}, []float64{1, 2}, false},
		{"test too short", []float64{1, 2}, []float64{3, 4}, true},
		{"test mismatch", []float64{1, 2, 3, 4}, []float64{1, 2, 3}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var err error
			if tc.test {
				_, err = CorrelationTest(tc.x, tc.y)
			} else {
				_, err = Pearson(tc.x, tc.y)
			}
			require.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestLinearRegressionRecoversLine(t *testing.T) {
	lines := []struct{ a, b float64 }{{3.5, -2}, {-0.75, 10}, {1e-3, 4}, {12, 0}}
	x := []float64{-3, -1, 0, 2, 5, 8, 13}
	for _, ln := range lines {
		y := make([]float64, len(x))
		for i, v := range x {
			y[i] = ln.a*v + ln.b
		}
		reg, err := LinearRegression(x, y)
		require.NoError(t, err)
		assert.InDelta(t, ln.a, reg.Slope, 1e-9)
		assert.InDelta(t, ln.b, reg.Intercept, 1e-9)
		assert.InDelta(t, ln.a*100+ln.b, reg.Predict(100), 1e-6)

		r, err := Pearson(x, y)
		require.NoError(t, err)
		assert.InDelta(t, 1.0, math.Abs(r), 1e-9)
	}
}

func TestLinearRegressionInvalid(t *testing.T) {
	_, err := LinearRegression([]float64{3, 3, 3}, []float64{1, 2, 3})
	require.ErrorIs(t, err, ErrInvalidInput)
	_, err = LinearRegression([]float64{1}, []float64{1})
	require.ErrorIs(t, err, ErrInvalidInput)
	_, err = LinearRegression([]float64{1, 2}, []float64{1})
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestGroupMean(t *testing.T) {
	g, err := GroupMean([]float64{10, 20, 30, 40}, []string{"A", "B", "A", "B"})
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"A": 20, "B": 30}, g.Means)
	assert.Equal(t, []string{"A", "B"}, g.Order)
	assert.Equal(t, 2, g.Counts["A"])

	m, ok := g.Get("A")
	assert.True(t, ok)
	assert.Equal(t, 20.0, m)
	_, ok = g.Get("C")
	assert.False(t, ok)
}

func TestGroupMeanInvalid(t *testing.T) {
	_, err := GroupMean(nil, nil)
	require.ErrorIs(t, err, ErrInvalidInput)
	_, err = GroupMean([]float64{1}, []string{"a", "b"})
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestHistogram(t *testing.T) {
	bins, err := Histogram([]float64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 5)
	require.NoError(t, err)
	require.Len(t, bins, 5)
	counts := make([]int, len(bins))
	for i, b := range bins {
		counts[i] = b.Count
	}
	// 10 sits on the upper edge and is clamped into the last bin.
	assert.Equal(t, []int{2, 2, 2, 2, 3}, counts)
	assert.Equal(t, 0.0, bins[0].Lower)
	assert.Equal(t, 10.0, bins[4].Upper)
}

func TestHistogramConstantAndInvalid(t *testing.T) {
	bins, err := Histogram([]float64{4, 4, 4}, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, bins[0].Count)

	_, err = Histogram(nil, 3)
	require.ErrorIs(t, err, ErrInvalidInput)
	_, err = Histogram([]float64{1}, 0)
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestRobustOutliers(t *testing.T) {
	vals := []float64{10, 11, 9.5, 10.5, 9.8, 10.2, 8.8, 9.7, 50}
	n, maxZ, err := RobustOutliers(vals, 3.5)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Greater(t, maxZ, 3.5)

	n, maxZ, err = RobustOutliers([]float64{1, 1, 1, 1}, 3.5)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Zero(t, maxZ)
}

func TestBinString(t *testing.T) {
	assert.Equal(t, "0.00 - 2.50", Bin{Lower: 0, Upper: 2.5, Count: 4}.String())
	assert.Equal(t, "-1.25 - 10.00", Bin{Lower: -1.25, Upper: 10}.String())
}
