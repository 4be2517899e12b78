package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/reggo/rnnforecast/scale"
	"github.com/reggo/rnnforecast/series"
)

type ForecastOptions struct {
	InputFile  string
	ModelFile  string
	OutputFile string
	Steps      int
}

func newForecastCmd(a *app) *cobra.Command {
	opts := &ForecastOptions{}

	cmd := &cobra.Command{
		Use:   "forecast",
		Short: "Forecast a CSV series forward",
		Long: `Seed a trained model with the last seq_len rows of a series and
forecast the given number of steps. The first seq_len rows of the output
correspond to the seed and are left blank.`,
		Example: `  rnnforecast forecast --model load.json --input load.csv --steps 24 -o next.csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runForecast(cmd, a, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.InputFile, "input", "i", "", "input series (- for stdin)")
	cmd.Flags().StringVarP(&opts.ModelFile, "model", "m", "model.json", "model file")
	cmd.Flags().StringVarP(&opts.OutputFile, "output", "o", "-", "output file (- for stdout)")
	cmd.Flags().IntVarP(&opts.Steps, "steps", "n", 1, "number of steps to forecast")
	cmd.MarkFlagRequired("input")

	return cmd
}

func runForecast(cmd *cobra.Command, a *app, opts *ForecastOptions) error {
	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}
	m, err := loadModel(opts.ModelFile)
	if err != nil {
		return err
	}
	scaler, err := m.scaler()
	if err != nil {
		return err
	}
	data, _, err := readSeries(opts.InputFile, a.header(cfg, m), cmd.InOrStdin())
	if err != nil {
		return err
	}
	if err := scale.ScaleData(scaler, data); err != nil {
		return fmt.Errorf("failed to scale series: %w", err)
	}

	f := m.Forecaster
	x, err := series.Last(data, f.SeqLen())
	if err != nil {
		return err
	}
	out, err := f.Predict(x, opts.Steps)
	if err != nil {
		return err
	}
	for i := 0; i < opts.Steps; i++ {
		if err := scaler.Unscale(out.RawRowView(f.SeqLen() + i)); err != nil {
			return err
		}
	}
	a.logger.WithField("steps", opts.Steps).Debug("forecast computed")

	if opts.OutputFile == "-" {
		return series.WriteCSV(cmd.OutOrStdout(), m.Header, out)
	}
	file, err := os.Create(opts.OutputFile)
	if err != nil {
		return err
	}
	if err := series.WriteCSV(file, m.Header, out); err != nil {
		file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to write forecast: %w", err)
	}
	return nil
}
