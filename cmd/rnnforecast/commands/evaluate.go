package commands

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/reggo/rnnforecast/metric"
	"github.com/reggo/rnnforecast/scale"
	"github.com/reggo/rnnforecast/series"
)

type EvaluateOptions struct {
	InputFile string
	ModelFile string
}

func newEvaluateCmd(a *app) *cobra.Command {
	opts := &EvaluateOptions{}

	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Score one-step predictions on a CSV series",
		Long: `Predict every row of a series from the seq_len rows before it and
report the mean absolute and root mean squared error in the units of the
series.`,
		Example: `  rnnforecast evaluate --model load.json --input holdout.csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEvaluate(cmd, a, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.InputFile, "input", "i", "", "input series (- for stdin)")
	cmd.Flags().StringVarP(&opts.ModelFile, "model", "m", "model.json", "model file")
	cmd.MarkFlagRequired("input")

	return cmd
}

func runEvaluate(cmd *cobra.Command, a *app, opts *EvaluateOptions) error {
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
	x, y, err := series.FromSeries(data, f.SeqLen())
	if err != nil {
		return err
	}
	pred, err := f.PredictProba(x)
	if err != nil {
		return err
	}
	if err := scale.UnscaleData(scaler, pred); err != nil {
		return err
	}
	if err := scale.UnscaleData(scaler, y); err != nil {
		return err
	}

	mae, err := metric.MAE(pred, y)
	if err != nil {
		return err
	}
	rmse, err := metric.RMSE(pred, y)
	if err != nil {
		return err
	}
	n, _ := y.Dims()
	a.logger.WithFields(logrus.Fields{"n_samples": n, "mae": mae, "rmse": rmse}).Debug("evaluation finished")

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "samples: %d\n", n)
	fmt.Fprintf(out, "mae:     %g\n", mae)
	fmt.Fprintf(out, "rmse:    %g\n", rmse)
	return nil
}
