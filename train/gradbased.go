package train

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"

	"github.com/reggo/rnnforecast/common"
	"github.com/reggo/rnnforecast/loss"
	"github.com/reggo/rnnforecast/regularize"
)

// BatchGradBased is the training objective of a Trainable over a fixed set
// of sequence windows: the mean loss over the selected windows plus the
// regularizer penalty.
type BatchGradBased struct {
	t           Trainable
	losser      loss.DerivLosser
	regularizer regularize.Regularizer

	inputs  common.Sequencer
	outputs *mat.Dense

	nTrain      int
	outputDim   int
	nParameters int
	grainSize   int
	all         []int
}

// chunk is the partial result of one parallel range of windows.
type chunk struct {
	loss  float64
	deriv []float64
}

// NewBatchGradBased creates the objective for the given windows and targets.
// Row i of outputs is the target for inputs.Window(i). A nil losser defaults
// to loss.L2Norm and a nil regularizer to regularize.None.
func NewBatchGradBased(trainable Trainable, inputs common.Sequencer, outputs *mat.Dense, losser loss.DerivLosser, regularizer regularize.Regularizer) *BatchGradBased {
	if losser == nil {
		losser = loss.L2Norm{}
	}
	if regularizer == nil {
		regularizer = regularize.None{}
	}
	nTrain, outputDim := outputs.Dims()
	all := make([]int, nTrain)
	for i := range all {
		all[i] = i
	}
	grain := trainable.GrainSize()
	if grain < 1 {
		grain = 1
	}
	return &BatchGradBased{
		t:           trainable,
		losser:      losser,
		regularizer: regularizer,
		inputs:      inputs,
		outputs:     outputs,
		nTrain:      nTrain,
		outputDim:   outputDim,
		nParameters: trainable.NumParameters(),
		grainSize:   grain,
		all:         all,
	}
}

// Dimension returns the dimension of the optimization problem.
func (g *BatchGradBased) Dimension() int {
	return g.nParameters
}

// ObjGrad computes the objective over every window and stores the gradient
// in place.
func (g *BatchGradBased) ObjGrad(parameters, derivative []float64) float64 {
	return g.ObjGradSubset(g.all, parameters, derivative)
}

// ObjGradSubset computes the objective over the windows in idxs, which may
// contain repeats, and stores the gradient in place. Chunks of the batch are
// evaluated in parallel and summed in a fixed order, so the result does not
// depend on scheduling.
func (g *BatchGradBased) ObjGradSubset(idxs []int, parameters, derivative []float64) float64 {
	if len(derivative) != g.nParameters || len(parameters) != g.nParameters {
		panic("train: parameter length mismatch")
	}
	nChunks := (len(idxs) + g.grainSize - 1) / g.grainSize
	chunks := make([]chunk, nChunks)
	common.ParallelFor(len(idxs), g.grainSize, func(start, end int) {
		c := &chunks[start/g.grainSize]
		c.deriv = make([]float64, g.nParameters)
		c.loss = g.lossDeriv(idxs[start:end], parameters, c.deriv)
	})

	var total float64
	for i := range derivative {
		derivative[i] = 0
	}
	for _, c := range chunks {
		total += c.loss
		floats.Add(derivative, c.deriv)
	}
	if n := len(idxs); n > 0 {
		total /= float64(n)
		floats.Scale(1/float64(n), derivative)
	}
	total += g.regularizer.LossAddDeriv(parameters, derivative)
	return total
}

// ObjSubset computes the objective over the windows in idxs without a
// gradient.
func (g *BatchGradBased) ObjSubset(idxs []int, parameters []float64) float64 {
	if len(idxs) == 0 {
		return g.regularizer.Loss(parameters)
	}
	deriver := g.t.NewLossDeriver()
	pred := mat.NewDense(len(idxs), g.outputDim, nil)
	deriver.Predict(parameters, g.inputs, idxs, pred)
	var total float64
	for i, idx := range idxs {
		total += g.losser.Loss(pred.RawRowView(i), g.outputs.RawRowView(idx))
	}
	return total/float64(len(idxs)) + g.regularizer.Loss(parameters)
}

// lossDeriv sums the loss and gradient over idxs into derivative.
func (g *BatchGradBased) lossDeriv(idxs []int, parameters, derivative []float64) float64 {
	deriver := g.t.NewLossDeriver()
	pred := mat.NewDense(len(idxs), g.outputDim, nil)
	dLossDPred := mat.NewDense(len(idxs), g.outputDim, nil)
	deriver.Predict(parameters, g.inputs, idxs, pred)
	var total float64
	for i, idx := range idxs {
		total += g.losser.LossDeriv(pred.RawRowView(i), g.outputs.RawRowView(idx), dLossDPred.RawRowView(i))
	}
	deriver.Deriv(parameters, dLossDPred, derivative)
	return total
}

// Problem wraps the full-batch objective for use with gonum/optimize.
func (g *BatchGradBased) Problem() optimize.Problem {
	return optimize.Problem{
		Func: func(x []float64) float64 {
			return g.ObjSubset(g.all, x)
		},
		Grad: func(grad, x []float64) {
			g.ObjGrad(x, grad)
		},
	}
}
