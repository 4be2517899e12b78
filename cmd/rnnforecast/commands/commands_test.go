package commands

import (
	"bytes"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reggo/rnnforecast/common"
	"github.com/reggo/rnnforecast/series"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	filename := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(filename, []byte(content), 0o644))
	return filename
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func sineCSV(n int) string {
	var b strings.Builder
	b.WriteString("value\n")
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, "%g\n", math.Sin(0.4*float64(i)))
	}
	return b.String()
}

const testConfig = `
model:
  hidden_dim: 4
  seq_len: 3
train:
  epochs: 20
  batch_size: 4
  eval_step: 5
  optimizer: adam
data:
  scaler: linear
  header: true
`

func TestFitForecastEvaluate(t *testing.T) {
	dir := t.TempDir()
	cfg := writeFile(t, dir, "config.yaml", testConfig)
	input := writeFile(t, dir, "series.csv", sineCSV(40))
	modelFile := filepath.Join(dir, "model.json")
	metricsFile := filepath.Join(dir, "metrics.prom")

	_, err := run(t, "fit", "--config", cfg, "--input", input, "--model", modelFile, "--metrics-file", metricsFile)
	require.NoError(t, err)

	m, err := loadModel(modelFile)
	require.NoError(t, err)
	assert.Equal(t, 3, m.Forecaster.SeqLen())
	assert.Equal(t, []string{"value"}, m.Header)
	assert.Len(t, m.Forecaster.Losses(), 4)

	metrics, err := os.ReadFile(metricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(metrics), "rnnforecast_evaluations_total 4")

	forecastFile := filepath.Join(dir, "forecast.csv")
	_, err = run(t, "forecast", "--config", cfg, "--input", input, "--model", modelFile, "--steps", "5", "-o", forecastFile)
	require.NoError(t, err)
	b, err := os.ReadFile(forecastFile)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(b)), "\n")
	require.Len(t, lines, 1+3+5)
	assert.Equal(t, "value", lines[0])
	for _, l := range lines[1:4] {
		assert.Equal(t, "", l)
	}
	forecast, _, err := series.ReadCSV(strings.NewReader(strings.Join(lines[4:], "\n")), false)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		v := forecast.At(i, 0)
		assert.False(t, math.IsNaN(v))
		// Linear scaling maps back into roughly the training range.
		assert.True(t, math.Abs(v) < 5, "forecast %v out of range", v)
	}

	out, err := run(t, "evaluate", "--config", cfg, "--input", input, "--model", modelFile)
	require.NoError(t, err)
	assert.Contains(t, out, "samples: 37")
	assert.Contains(t, out, "rmse:")
}

func TestForecastStdout(t *testing.T) {
	dir := t.TempDir()
	cfg := writeFile(t, dir, "config.yaml", testConfig)
	input := writeFile(t, dir, "series.csv", sineCSV(20))
	modelFile := filepath.Join(dir, "model.json")

	_, err := run(t, "fit", "--config", cfg, "--input", input, "--model", modelFile)
	require.NoError(t, err)
	out, err := run(t, "forecast", "--config", cfg, "--input", input, "--model", modelFile, "-n", "2")
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(out), "\n"), 1+3+2)
}

func TestHeaderFollowsModel(t *testing.T) {
	dir := t.TempDir()
	cfg := writeFile(t, dir, "config.yaml", testConfig)
	input := writeFile(t, dir, "series.csv", sineCSV(20))
	modelFile := filepath.Join(dir, "model.json")

	_, err := run(t, "fit", "--config", cfg, "--input", input, "--model", modelFile)
	require.NoError(t, err)

	// No config: the header row is skipped because the model was fitted
	// with one.
	out, err := run(t, "forecast", "--input", input, "--model", modelFile, "-n", "1")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "value\n"), out)

	out, err = run(t, "evaluate", "--input", input, "--model", modelFile)
	require.NoError(t, err)
	assert.Contains(t, out, "samples: 17")

	// An explicit setting still wins.
	noHeader := writeFile(t, dir, "noheader.yaml", "data:\n  header: false\n")
	_, err = run(t, "forecast", "--config", noHeader, "--input", input, "--model", modelFile)
	assert.Error(t, err)
}

func TestForecastOutputError(t *testing.T) {
	dir := t.TempDir()
	cfg := writeFile(t, dir, "config.yaml", testConfig)
	input := writeFile(t, dir, "series.csv", sineCSV(20))
	modelFile := filepath.Join(dir, "model.json")

	_, err := run(t, "fit", "--config", cfg, "--input", input, "--model", modelFile)
	require.NoError(t, err)
	_, err = run(t, "forecast", "--input", input, "--model", modelFile, "-o", filepath.Join(dir, "missing", "out.csv"))
	assert.Error(t, err)
}

func TestForecastUnfittedModel(t *testing.T) {
	dir := t.TempDir()
	input := writeFile(t, dir, "series.csv", "1\n2\n3\n")
	modelFile := writeFile(t, dir, "model.json", `{"Forecaster":{"InputDim":1,"HiddenDim":1,"OutputDim":1,"SeqLen":1,`+
		`"Activation":{"Type":"github.com/reggo/rnnforecast/rnn/Tanh","Value":{}},"Parameters":[0,0,0,0,0],"Fitted":false}}`)

	_, err := run(t, "forecast", "--input", input, "--model", modelFile)
	assert.ErrorIs(t, err, common.ErrNotFitted)
}

func TestFitErrors(t *testing.T) {
	dir := t.TempDir()
	short := writeFile(t, dir, "short.csv", "1\n2\n")

	_, err := run(t, "fit", "--input", short, "--model", filepath.Join(dir, "m.json"))
	var shape *common.ShapeError
	assert.ErrorAs(t, err, &shape)

	_, err = run(t, "fit", "--input", filepath.Join(dir, "missing.csv"))
	assert.Error(t, err)

	_, err = run(t, "fit")
	assert.Error(t, err)
}
