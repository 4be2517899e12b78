// Package predict provides helpers for running a model over many sequence
// windows in parallel.
package predict

import (
	"gonum.org/v1/gonum/mat"

	"github.com/reggo/rnnforecast/common"
)

// BatchPredictor hands out Predictors. Each parallel worker gets its own so
// that scratch memory is never shared.
type BatchPredictor interface {
	NewPredictor() Predictor
}

// Predictor computes the output for one window.
type Predictor interface {
	Predict(window *mat.Dense, output []float64)
}

// Batch predicts every window of inputs, storing the output for window i in
// row i of outputs. If outputs is nil a new matrix is allocated.
func Batch(batch BatchPredictor, inputs common.Sequencer, outputs *mat.Dense, outputDim, grainSize int) (*mat.Dense, error) {
	if inputs == nil {
		return outputs, common.ErrNoData
	}
	nSamples, _, _ := inputs.Dims()
	if nSamples == 0 {
		return outputs, common.ErrNoData
	}
	if outputs == nil {
		outputs = mat.NewDense(nSamples, outputDim, nil)
	} else {
		r, c := outputs.Dims()
		if c != outputDim {
			return outputs, &common.ShapeError{What: "output dimension", Want: outputDim, Got: c}
		}
		if r != nSamples {
			return outputs, &common.ShapeError{What: "number of output rows", Want: nSamples, Got: r}
		}
	}

	common.ParallelFor(nSamples, grainSize, func(start, end int) {
		p := batch.NewPredictor()
		for i := start; i < end; i++ {
			p.Predict(inputs.Window(i), outputs.RawRowView(i))
		}
	})
	return outputs, nil
}
