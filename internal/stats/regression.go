package stats

// Regression holds the ordinary least squares fit y = Slope*x + Intercept.
type Regression struct {
	Slope     float64
	Intercept float64
	N         int
}

// Predict evaluates the fitted line at x.
func (r Regression) Predict(x float64) float64 { return r.Slope*x + r.Intercept }

// LinearRegression fits y on x with the closed-form normal equations.
// It fails when fewer than two points are given or every x is identical.
func LinearRegression(x, y []float64) (Regression, error) {
	s, err := pairSums("regression", x, y, 2)
	if err != nil {
		return Regression{}, err
	}
	if constant(x) {
		return Regression{}, invalid("regression", "x has zero variance")
	}
	den := s.n*s.xx - s.x*s.x
	if den == 0 {
		return Regression{}, invalid("regression", "x has zero variance")
	}
	slope := (s.n*s.xy - s.x*s.y) / den
	return Regression{
		Slope:     slope,
		Intercept: (s.y - slope*s.x) / s.n,
		N:         len(x),
	}, nil
}

func constant(values []float64) bool {
	for _, v := range values[1:] {
		if v != values[0] {
			return false
		}
	}
	return true
}
