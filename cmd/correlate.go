package cmd

import (
	"fmt"
	"math"

	"github.com/KaramelBytes/statsketch/internal/analysis"
	"github.com/KaramelBytes/statsketch/internal/stats"
	"github.com/KaramelBytes/statsketch/internal/utils"
	"github.com/spf13/cobra"
)

var (
	corJSON bool
	corData dataFlags
)

var correlateCmd = &cobra.Command{
	Use:   "correlate <file> <x> <y>",
	Short: "Test the Pearson correlation between two numeric columns",
	Long: `Computes the Pearson correlation coefficient between x and y over the
records where both are numeric, and a two-tailed p-value from the t
distribution. The result is significant when p < 0.05.`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, xn, yn := args[0], args[1], args[2]
		ds, _, err := loadDataset(cmd.Flags(), path, &corData)
		if err != nil {
			return err
		}
		x, y, err := ds.Pair(xn, yn)
		if err != nil {
			return err
		}
		c, err := stats.CorrelationTest(x, y)
		if err != nil {
			return fmt.Errorf("correlate %s and %s: %w", xn, yn, err)
		}
		t := analysis.HypothesisTest{X: xn, Y: yn, Correlation: c}
		if corJSON {
			b, err := utils.PrettyJSON(correlationJSON(t))
			if err != nil {
				return err
			}
			fmt.Println(string(b))
			return nil
		}
		fmt.Print(t.Text())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(correlateCmd)
	fs := correlateCmd.Flags()
	fs.BoolVar(&corJSON, "json", false, "print the result as JSON")
	corData.register(fs)
}

type correlationResult struct {
	X           string   `json:"x"`
	Y           string   `json:"y"`
	N           int      `json:"n"`
	Coefficient float64  `json:"coefficient"`
	PValue      float64  `json:"p_value"`
	T           *float64 `json:"t,omitempty"`
	DF          int      `json:"df"`
	Significant bool     `json:"significant"`
	Verdict     string   `json:"verdict"`
}

// correlationJSON leaves T out when it is infinite, which JSON cannot encode.
func correlationJSON(t analysis.HypothesisTest) correlationResult {
	out := correlationResult{
		X:           t.X,
		Y:           t.Y,
		N:           t.N,
		Coefficient: t.Coefficient,
		PValue:      t.PValue,
		DF:          t.DF,
		Significant: t.Significant,
		Verdict:     t.Verdict(),
	}
	if !math.IsInf(t.T, 0) && !math.IsNaN(t.T) {
		v := t.T
		out.T = &v
	}
	return out
}
