package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"gonum.org/v1/gonum/mat"

	"github.com/reggo/rnnforecast/common"
	"github.com/reggo/rnnforecast/rnn"
	"github.com/reggo/rnnforecast/scale"
	"github.com/reggo/rnnforecast/series"
)

// model is the saved form of a trained forecaster together with the scaling
// of the series it was trained on.
type model struct {
	Forecaster *rnn.Forecaster
	Scaler     common.InterfaceMarshaler
	Header     []string
}

func (m *model) scaler() (scale.Scaler, error) {
	s, ok := m.Scaler.I.(scale.Scaler)
	if !ok {
		return nil, fmt.Errorf("model scaler %T is not a Scaler", m.Scaler.I)
	}
	return s, nil
}

func saveModel(filename string, m *model) error {
	b, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode model: %w", err)
	}
	return os.WriteFile(filename, b, 0o644)
}

// loadModel reads a saved model and checks that it has been fitted.
func loadModel(filename string) (*model, error) {
	b, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read model: %w", err)
	}
	m := &model{}
	if err := json.Unmarshal(b, m); err != nil {
		return nil, fmt.Errorf("failed to decode model: %w", err)
	}
	if m.Forecaster == nil || !m.Forecaster.Fitted() {
		return nil, fmt.Errorf("%s: %w", filename, common.ErrNotFitted)
	}
	return m, nil
}

// readSeries reads a CSV series from filename, or stdin when it is "-".
func readSeries(filename string, header bool, stdin io.Reader) (*mat.Dense, []string, error) {
	if filename == "-" {
		return series.ReadCSV(stdin, header)
	}
	f, err := os.Open(filename)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()
	return series.ReadCSV(f, header)
}
