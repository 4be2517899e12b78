package monitor

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/reggo/rnnforecast/rnn"
	"github.com/reggo/rnnforecast/series"
)

func TestPrometheusRecord(t *testing.T) {
	p, err := NewPrometheus(map[string]string{"model": "test"})
	require.NoError(t, err)

	p.Record(rnn.Progress{RunID: "a", Epoch: 4, Loss: 0.5})
	p.Record(rnn.Progress{RunID: "a", Epoch: 9, Loss: 0.25})

	assert.Equal(t, 0.25, testutil.ToFloat64(p.loss))
	assert.Equal(t, 9.0, testutil.ToFloat64(p.epoch))
	assert.Equal(t, 2.0, testutil.ToFloat64(p.evaluations))

	n, err := testutil.GatherAndCount(p.Registry())
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestPrometheusWriteToTextfile(t *testing.T) {
	p, err := NewPrometheus(nil)
	require.NoError(t, err)
	p.Record(rnn.Progress{Epoch: 0, Loss: 1.5})

	filename := filepath.Join(t.TempDir(), "rnnforecast.prom")
	require.NoError(t, p.WriteToTextfile(filename))

	b, err := os.ReadFile(filename)
	require.NoError(t, err)
	text := string(b)
	assert.True(t, strings.Contains(text, "rnnforecast_training_loss 1.5"), text)
	assert.True(t, strings.Contains(text, "rnnforecast_evaluations_total 1"), text)
}

func TestLogging(t *testing.T) {
	logger, hook := logtest.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	Logging{Logger: logger}.Record(rnn.Progress{RunID: "run", Epoch: 3, Loss: 2})

	require.Len(t, hook.Entries, 1)
	entry := hook.LastEntry()
	assert.Equal(t, logrus.DebugLevel, entry.Level)
	assert.Equal(t, "run", entry.Data["run_id"])
	assert.Equal(t, 3, entry.Data["epoch"])
	assert.Equal(t, 2.0, entry.Data["loss"])
}

func TestMulti(t *testing.T) {
	var a, b []rnn.Progress
	m := Multi{
		rnn.RecorderFunc(func(p rnn.Progress) { a = append(a, p) }),
		rnn.RecorderFunc(func(p rnn.Progress) { b = append(b, p) }),
	}
	m.Record(rnn.Progress{Epoch: 1})
	m.Record(rnn.Progress{Epoch: 2})
	assert.Len(t, a, 2)
	assert.Equal(t, a, b)
}

func TestFitRecordsToPrometheus(t *testing.T) {
	p, err := NewPrometheus(nil)
	require.NoError(t, err)
	logger, _ := logtest.NewNullLogger()

	f, err := rnn.New(rnn.Config{
		InputDim: 1, HiddenDim: 4, OutputDim: 1, SeqLen: 3,
		Epochs: 10, BatchSize: 2, EvalStep: 5,
		Logger:   logger,
		Recorder: p,
	})
	require.NoError(t, err)

	data := make([]float64, 60)
	for i := range data {
		data[i] = float64(i%7) / 7
	}
	x := series.NewWindows(20, 3, 1, data)
	y := mat.NewDense(20, 1, data[:20])
	require.NoError(t, f.Fit(x, y))

	assert.Equal(t, 2.0, testutil.ToFloat64(p.evaluations))
	assert.Equal(t, 9.0, testutil.ToFloat64(p.epoch))
	assert.Equal(t, f.Losses()[1], testutil.ToFloat64(p.loss))
}
