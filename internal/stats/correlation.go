package stats

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// SignificanceLevel is the fixed two-tailed threshold for Correlation.Significant.
const SignificanceLevel = 0.05

const (
	verdictSignificant    = "The correlation is statistically significant at the 0.05 level."
	verdictNotSignificant = "The correlation is not statistically significant at the 0.05 level."
)

// Correlation is the result of a Pearson correlation test.
type Correlation struct {
	Coefficient float64
	PValue      float64
	Significant bool
	// T is the t-statistic; it is ±Inf when |r| == 1.
	T  float64
	DF int
	N  int
}

// Verdict returns the fixed report sentence for the test outcome.
func (c Correlation) Verdict() string {
	if c.Significant {
		return verdictSignificant
	}
	return verdictNotSignificant
}

// Pearson computes the sum-based Pearson correlation coefficient of x and y.
//
// When either series has no variance the coefficient is reported as 0
// instead of NaN. Callers that need to tell "uncorrelated" apart from
// "undefined" must check variance themselves.
func Pearson(x, y []float64) (float64, error) {
	s, err := pairSums("pearson", x, y, 2)
	if err != nil {
		return 0, err
	}
	return coefficient(s, x, y), nil
}

// coefficient checks for constant series on the values themselves: with
// non-integer constants the sum-based denominator cancels to a tiny
// non-zero remainder rather than exactly zero.
func coefficient(s sums, x, y []float64) float64 {
	if constant(x) || constant(y) {
		return 0
	}
	return s.pearson()
}

func (s sums) pearson() float64 {
	num := s.n*s.xy - s.x*s.y
	den := math.Sqrt((s.n*s.xx - s.x*s.x) * (s.n*s.yy - s.y*s.y))
	if den == 0 || math.IsNaN(den) {
		return 0
	}
	r := num / den
	switch {
	case r > 1:
		r = 1
	case r < -1:
		r = -1
	}
	return r
}

// CorrelationTest computes Pearson's r for x and y together with a two-tailed
// p-value from Student's t distribution with n-2 degrees of freedom.
// At least three observations are required.
func CorrelationTest(x, y []float64) (Correlation, error) {
	s, err := pairSums("correlation test", x, y, 3)
	if err != nil {
		return Correlation{}, err
	}
	r := coefficient(s, x, y)
	df := len(x) - 2
	c := Correlation{Coefficient: r, DF: df, N: len(x)}
	if math.Abs(r) == 1 {
		c.T = math.Copysign(math.Inf(1), r)
		c.PValue = 0
	} else {
		c.T = r * math.Sqrt(float64(df)/(1-r*r))
		c.PValue = twoTailedT(c.T, df)
	}
	c.Significant = c.PValue < SignificanceLevel
	return c, nil
}

func twoTailedT(t float64, df int) float64 {
	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(df)}
	p := 2 * (1 - dist.CDF(math.Abs(t)))
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}
