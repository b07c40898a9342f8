package cmd

import (
	"fmt"

	"github.com/KaramelBytes/statsketch/internal/analysis"
	"github.com/KaramelBytes/statsketch/internal/chart"
	"github.com/KaramelBytes/statsketch/internal/stats"
	"github.com/KaramelBytes/statsketch/internal/utils"
	"github.com/spf13/cobra"
)

var (
	regJSON  bool
	regChart string
	regData  dataFlags
	regOpts  chartFlags
)

var regressCmd = &cobra.Command{
	Use:   "regress <file> <x> <y>",
	Short: "Fit y = slope*x + intercept by least squares",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, xn, yn := args[0], args[1], args[2]
		ds, _, err := loadDataset(cmd.Flags(), path, &regData)
		if err != nil {
			return err
		}
		x, y, err := ds.Pair(xn, yn)
		if err != nil {
			return err
		}
		fit, err := stats.LinearRegression(x, y)
		if err != nil {
			return fmt.Errorf("regress %s on %s: %w", yn, xn, err)
		}
		lo, hi, _ := stats.Extent(x)
		res := analysis.RegressionResult{
			X: xn, Y: yn, Regression: fit,
			X0: lo, Y0: fit.Predict(lo),
			X1: hi, Y1: fit.Predict(hi),
		}

		if regJSON {
			b, err := utils.PrettyJSON(regressionJSON(res))
			if err != nil {
				return err
			}
			fmt.Println(string(b))
		} else {
			fmt.Printf("%s ~ %s (n=%d)\n", yn, xn, fit.N)
			fmt.Printf("Slope: %.6g\n", fit.Slope)
			fmt.Printf("Intercept: %.6g\n", fit.Intercept)
			fmt.Printf("Line: (%.4g, %.4g) to (%.4g, %.4g)\n", res.X0, res.Y0, res.X1, res.Y1)
		}

		if regChart != "" {
			copt, format, err := regOpts.resolve()
			if err != nil {
				return err
			}
			if copt.Title == "" {
				copt.Title = fmt.Sprintf("%s ~ %s", yn, xn)
			}
			copt.XLabel, copt.YLabel = xn, yn
			d, err := chart.RegressionPlot(x, y, fit, copt)
			if err != nil {
				return err
			}
			if err := chart.WriteFile(regChart, d, format); err != nil {
				return err
			}
			if !regJSON {
				fmt.Printf("✓ Wrote regression chart to %s\n", regChart)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(regressCmd)
	fs := regressCmd.Flags()
	fs.BoolVar(&regJSON, "json", false, "print the fit as JSON")
	fs.StringVar(&regChart, "chart", "", "also write a scatter with the fitted line to this file")
	regData.register(fs)
	regOpts.register(fs)
}

type regressionResult struct {
	X         string  `json:"x"`
	Y         string  `json:"y"`
	N         int     `json:"n"`
	Slope     float64 `json:"slope"`
	Intercept float64 `json:"intercept"`
	X0        float64 `json:"x0"`
	Y0        float64 `json:"y0"`
	X1        float64 `json:"x1"`
	Y1        float64 `json:"y1"`
}

func regressionJSON(r analysis.RegressionResult) regressionResult {
	return regressionResult{
		X:         r.X,
		Y:         r.Y,
		N:         r.N,
		Slope:     r.Slope,
		Intercept: r.Intercept,
		X0:        r.X0,
		Y0:        r.Y0,
		X1:        r.X1,
		Y1:        r.Y1,
	}
}
