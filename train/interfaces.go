// Package train contains the pieces used to fit a model by gradient descent:
// optimizers, index samplers and a mini-batch objective over any Trainable.
package train

import (
	"gonum.org/v1/gonum/mat"

	"github.com/reggo/rnnforecast/common"
)

// Trainable is a model whose parameters live in a single flat slice.
type Trainable interface {
	InputDim() int
	OutputDim() int
	NumParameters() int
	// Parameters copies the parameters into the input, allocating if it is
	// nil. Panics if the input has the wrong length.
	Parameters([]float64) []float64
	// SetParameters copies the input into the model's parameters. Panics if
	// the input has the wrong length.
	SetParameters([]float64)
	RandomizeParameters()
	// NewLossDeriver returns a value with its own scratch memory so that
	// different goroutines can compute gradients concurrently.
	NewLossDeriver() LossDeriver
	// GrainSize is the suggested number of windows per parallel chunk.
	GrainSize() int
}

// LossDeriver computes predictions and parameter gradients for a set of
// sequence windows. Deriv must be called after Predict with the same
// parameters; intermediate values from the forward pass are cached.
type LossDeriver interface {
	// Predict stores the output for inputs.Window(idxs[i]) into row i of
	// predictions.
	Predict(parameters []float64, inputs common.Sequencer, idxs []int, predictions *mat.Dense)

	// Deriv back-propagates dLossDPred, one row per window of the last
	// Predict, and stores the summed gradient with respect to the
	// parameters into dLossDParam.
	Deriv(parameters []float64, dLossDPred *mat.Dense, dLossDParam []float64)
}
