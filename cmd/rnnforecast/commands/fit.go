package commands

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/reggo/rnnforecast/common"
	"github.com/reggo/rnnforecast/monitor"
	"github.com/reggo/rnnforecast/rnn"
	"github.com/reggo/rnnforecast/scale"
	"github.com/reggo/rnnforecast/series"
)

type FitOptions struct {
	InputFile string
	ModelFile string
}

func newFitCmd(a *app) *cobra.Command {
	opts := &FitOptions{}

	cmd := &cobra.Command{
		Use:   "fit",
		Short: "Train a forecaster on a CSV series",
		Long: `Train a forecaster on a CSV series with one column per feature and
one row per time step. The series is scaled, cut into overlapping windows of
model.seq_len rows, and the trained model is saved as JSON.`,
		Example: `  rnnforecast fit --config model.yaml --input load.csv --model load.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFit(cmd, a, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.InputFile, "input", "i", "", "input series (- for stdin)")
	cmd.Flags().StringVarP(&opts.ModelFile, "model", "m", "model.json", "output model file")
	cmd.MarkFlagRequired("input")

	return cmd
}

func runFit(cmd *cobra.Command, a *app, opts *FitOptions) error {
	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}
	data, header, err := readSeries(opts.InputFile, cfg.Data.Header, cmd.InOrStdin())
	if err != nil {
		return err
	}

	scaler, err := cfg.Scaler()
	if err != nil {
		return err
	}
	err = scaler.SetScale(data)
	var uniform *scale.UniformDimension
	switch {
	case errors.As(err, &uniform):
		a.logger.WithField("features", uniform.Dims).Warn("constant features in series")
	case err != nil:
		return fmt.Errorf("failed to scale series: %w", err)
	}
	if err := scale.ScaleData(scaler, data); err != nil {
		return fmt.Errorf("failed to scale series: %w", err)
	}

	fc, err := cfg.Forecaster()
	if err != nil {
		return err
	}
	// The next row is the target, so both dimensions follow the series.
	_, cols := data.Dims()
	if fc.InputDim != cols || fc.OutputDim != cols {
		a.logger.WithFields(logrus.Fields{
			"input_dim":  fc.InputDim,
			"output_dim": fc.OutputDim,
			"columns":    cols,
		}).Info("using series width as model dimensions")
		fc.InputDim, fc.OutputDim = cols, cols
	}
	fc.Logger = a.logger
	fc.Recorder = monitor.Multi{monitor.Logging{Logger: a.logger}, a.metrics}

	f, err := rnn.New(fc)
	if err != nil {
		return err
	}
	x, y, err := series.FromSeries(data, fc.SeqLen)
	if err != nil {
		return err
	}
	if err := f.Fit(x, y); err != nil {
		return err
	}

	m := &model{
		Forecaster: f,
		Scaler:     common.InterfaceMarshaler{I: scaler},
		Header:     header,
	}
	if err := saveModel(opts.ModelFile, m); err != nil {
		return err
	}
	a.logger.WithField("file", opts.ModelFile).Info("model saved")
	return nil
}
