// Package config loads forecaster settings from a yaml file, environment
// variables prefixed RNNFORECAST_ and built-in defaults, in that order of
// precedence after explicit flags.
package config

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/reggo/rnnforecast/loss"
	"github.com/reggo/rnnforecast/regularize"
	"github.com/reggo/rnnforecast/rnn"
	"github.com/reggo/rnnforecast/scale"
	"github.com/reggo/rnnforecast/train"
)

const EnvPrefix = "RNNFORECAST"

type Config struct {
	Model ModelConfig `mapstructure:"model"`
	Train TrainConfig `mapstructure:"train"`
	Data  DataConfig  `mapstructure:"data"`
}

type ModelConfig struct {
	InputDim   int    `mapstructure:"input_dim"`
	HiddenDim  int    `mapstructure:"hidden_dim"`
	OutputDim  int    `mapstructure:"output_dim"`
	SeqLen     int    `mapstructure:"seq_len"`
	Activation string `mapstructure:"activation"`
}

type TrainConfig struct {
	Epochs       int     `mapstructure:"epochs"`
	BatchSize    int     `mapstructure:"batch_size"`
	EvalStep     int     `mapstructure:"eval_step"`
	Optimizer    string  `mapstructure:"optimizer"`
	LearningRate float64 `mapstructure:"learning_rate"`
	Loss         string  `mapstructure:"loss"`
	Regularizer  string  `mapstructure:"regularizer"`
	Gamma        float64 `mapstructure:"gamma"`
	Seed         uint64  `mapstructure:"seed"`
	Replacement  bool    `mapstructure:"replacement"`
}

type DataConfig struct {
	Scaler string `mapstructure:"scaler"`
	Header bool   `mapstructure:"header"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Model: ModelConfig{
			InputDim:   1,
			HiddenDim:  1,
			OutputDim:  1,
			SeqLen:     25,
			Activation: "tanh",
		},
		Train: TrainConfig{
			Epochs:       1000,
			BatchSize:    10,
			EvalStep:     1,
			Optimizer:    "gd",
			LearningRate: 0.01,
			Loss:         "l2",
			Regularizer:  "none",
			Seed:         12,
			Replacement:  true,
		},
		Data: DataConfig{
			Scaler: "normal",
		},
	}
}

// New returns a viper instance carrying the defaults and bound to the
// environment.
func New() *viper.Viper {
	v := viper.New()
	d := Default()
	v.SetDefault("model.input_dim", d.Model.InputDim)
	v.SetDefault("model.hidden_dim", d.Model.HiddenDim)
	v.SetDefault("model.output_dim", d.Model.OutputDim)
	v.SetDefault("model.seq_len", d.Model.SeqLen)
	v.SetDefault("model.activation", d.Model.Activation)
	v.SetDefault("train.epochs", d.Train.Epochs)
	v.SetDefault("train.batch_size", d.Train.BatchSize)
	v.SetDefault("train.eval_step", d.Train.EvalStep)
	v.SetDefault("train.optimizer", d.Train.Optimizer)
	v.SetDefault("train.learning_rate", d.Train.LearningRate)
	v.SetDefault("train.loss", d.Train.Loss)
	v.SetDefault("train.regularizer", d.Train.Regularizer)
	v.SetDefault("train.gamma", d.Train.Gamma)
	v.SetDefault("train.seed", d.Train.Seed)
	v.SetDefault("train.replacement", d.Train.Replacement)
	v.SetDefault("data.scaler", d.Data.Scaler)
	v.SetDefault("data.header", d.Data.Header)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads cfgFile, if not empty, into v and decodes the result.
func Load(v *viper.Viper, cfgFile string) (*Config, error) {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}

// HeaderSet reports whether data.header was given in the config file or
// the environment rather than taken from the defaults.
func HeaderSet(v *viper.Viper) bool {
	if v.InConfig("data.header") {
		return true
	}
	_, ok := os.LookupEnv(EnvPrefix + "_DATA_HEADER")
	return ok
}

// Forecaster converts the settings into a forecaster configuration,
// resolving the named strategies. The logger and recorder are left unset.
func (c *Config) Forecaster() (rnn.Config, error) {
	act, err := rnn.ActivatorByName(c.Model.Activation)
	if err != nil {
		return rnn.Config{}, err
	}
	losser, err := loss.ByName(c.Train.Loss)
	if err != nil {
		return rnn.Config{}, err
	}
	opt, err := train.OptimizerByName(c.Train.Optimizer, c.Train.LearningRate)
	if err != nil {
		return rnn.Config{}, err
	}
	reg, err := regularize.ByName(c.Train.Regularizer, c.Train.Gamma)
	if err != nil {
		return rnn.Config{}, err
	}
	if c.Train.LearningRate <= 0 {
		return rnn.Config{}, errors.New("config: learning_rate must be positive")
	}
	cfg := rnn.Config{
		InputDim:    c.Model.InputDim,
		HiddenDim:   c.Model.HiddenDim,
		OutputDim:   c.Model.OutputDim,
		SeqLen:      c.Model.SeqLen,
		Epochs:      c.Train.Epochs,
		BatchSize:   c.Train.BatchSize,
		EvalStep:    c.Train.EvalStep,
		Activation:  act,
		Losser:      losser,
		Optimizer:   opt,
		Regularizer: reg,
		Seed:        c.Train.Seed,
	}
	if !c.Train.Replacement {
		cfg.Sampler = &train.Stochastic{
			BatchSize: c.Train.BatchSize,
			Rand:      rand.New(rand.NewPCG(c.Train.Seed, c.Train.Seed)),
		}
	}
	return cfg, nil
}

// Scaler returns a fresh scaler of the configured kind.
func (c *Config) Scaler() (scale.Scaler, error) {
	return scale.ByName(c.Data.Scaler)
}
