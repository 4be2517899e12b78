// Package commands implements the rnnforecast command line.
package commands

import (
	"fmt"

	"github.com/pkg/profile"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/reggo/rnnforecast/config"
	"github.com/reggo/rnnforecast/monitor"
)

// app is the state shared by every subcommand for one invocation.
type app struct {
	cfgFile     string
	verbose     bool
	metricsFile string
	profileDir  string

	viper   *viper.Viper
	logger  *logrus.Logger
	metrics *monitor.Prometheus
	profile interface{ Stop() }
}

// NewRootCmd returns the rnnforecast command with its subcommands.
func NewRootCmd() *cobra.Command {
	a := &app{viper: config.New()}

	cmd := &cobra.Command{
		Use:   "rnnforecast",
		Short: "Recurrent network forecaster for time series",
		Long: `Train a recurrent network on a CSV time series, forecast it forward
and evaluate one-step predictions.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.teardown()
		},
	}

	cmd.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (yaml)")
	cmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&a.metricsFile, "metrics-file", "", "write training metrics in Prometheus text format to this file")
	cmd.PersistentFlags().StringVar(&a.profileDir, "cpuprofile-dir", "", "write a CPU profile to this directory")

	cmd.AddCommand(newFitCmd(a))
	cmd.AddCommand(newForecastCmd(a))
	cmd.AddCommand(newEvaluateCmd(a))
	return cmd
}

func (a *app) setup(cmd *cobra.Command) error {
	a.logger = logrus.New()
	a.logger.SetOutput(cmd.ErrOrStderr())
	if a.verbose {
		a.logger.SetLevel(logrus.DebugLevel)
	}

	metrics, err := monitor.NewPrometheus(nil)
	if err != nil {
		return err
	}
	a.metrics = metrics

	if a.profileDir != "" {
		a.profile = profile.Start(profile.CPUProfile, profile.ProfilePath(a.profileDir), profile.Quiet)
		a.logger.WithField("dir", a.profileDir).Debug("cpu profiling enabled")
	}
	return nil
}

func (a *app) teardown() error {
	if a.profile != nil {
		a.profile.Stop()
	}
	if a.metricsFile != "" {
		if err := a.metrics.WriteToTextfile(a.metricsFile); err != nil {
			return fmt.Errorf("failed to write metrics: %w", err)
		}
		a.logger.WithField("file", a.metricsFile).Debug("metrics written")
	}
	return nil
}

func (a *app) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(a.viper, a.cfgFile)
	if err != nil {
		return nil, err
	}
	if used := a.viper.ConfigFileUsed(); used != "" {
		a.logger.WithField("file", used).Debug("using config file")
	}
	return cfg, nil
}

// header reports whether input series have a header row. An explicit
// data.header setting wins; otherwise it follows the series the model was
// fitted on.
func (a *app) header(cfg *config.Config, m *model) bool {
	if config.HeaderSet(a.viper) {
		return cfg.Data.Header
	}
	return len(m.Header) > 0
}
