// Package loss provides loss functions comparing a prediction with the truth.
package loss

import (
	"fmt"
	"math"
	"strings"

	"github.com/reggo/rnnforecast/common"
)

func init() {
	common.Register(L1Norm{})
	common.Register(L2Norm{})
	common.Register(SquaredDistance{})
	common.Register(ManhattanDistance{})
	common.Register(RelativeSquared(0))
	common.Register(RelativeLog(0))
	common.Register(LogSquared{})
	common.Register(BinaryCrossEntropy{})
	common.Register(CrossEntropy{})
	common.Register(SoftmaxCrossEntropy{})
}

const lenMismatch = "loss: length mismatch"

// RelativeOffset is the denominator offset used by ByName for the relative
// losses.
const RelativeOffset = 1e-2

// Losser is a measure of the quality of a prediction, with a lower value
// being better. Typically the loss is zero iff prediction == truth and is
// never negative. A Losser panics if len(prediction) != len(truth) and does
// not modify either slice.
type Losser interface {
	Loss(prediction, truth []float64) float64
}

// DerivLosser also computes the derivative of the loss with respect to the
// prediction, storing it in place into derivative. It panics if the three
// slices do not have the same length.
type DerivLosser interface {
	Losser
	LossDeriv(prediction, truth, derivative []float64) float64
}

// ConvexDerivLosser is a loss that is convex in the prediction.
type ConvexDerivLosser interface {
	DerivLosser
	Convex()
}

func checkLen(prediction, truth []float64) {
	if len(prediction) != len(truth) {
		panic(lenMismatch)
	}
}

func checkDerivLen(prediction, truth, derivative []float64) {
	if len(prediction) != len(truth) || len(prediction) != len(derivative) {
		panic(lenMismatch)
	}
}

// L1Norm is the sum of absolute errors, Σ|pred - truth|.
type L1Norm struct{}

func (L1Norm) Loss(prediction, truth []float64) float64 {
	checkLen(prediction, truth)
	var loss float64
	for i, p := range prediction {
		loss += math.Abs(p - truth[i])
	}
	return loss
}

func (L1Norm) LossDeriv(prediction, truth, derivative []float64) float64 {
	checkDerivLen(prediction, truth, derivative)
	var loss float64
	for i, p := range prediction {
		diff := p - truth[i]
		loss += math.Abs(diff)
		derivative[i] = sign(diff)
	}
	return loss
}

func (L1Norm) Convex() {}

// L2Norm is the sum of squared errors, Σ(pred - truth)².
type L2Norm struct{}

func (L2Norm) Loss(prediction, truth []float64) float64 {
	checkLen(prediction, truth)
	var loss float64
	for i, p := range prediction {
		diff := p - truth[i]
		loss += diff * diff
	}
	return loss
}

func (L2Norm) LossDeriv(prediction, truth, derivative []float64) float64 {
	checkDerivLen(prediction, truth, derivative)
	var loss float64
	for i, p := range prediction {
		diff := p - truth[i]
		loss += diff * diff
		derivative[i] = 2 * diff
	}
	return loss
}

func (L2Norm) Convex() {}

// SquaredDistance is the squared two-norm of (pred - truth) divided by the
// length.
type SquaredDistance struct{}

func (SquaredDistance) Loss(prediction, truth []float64) float64 {
	return L2Norm{}.Loss(prediction, truth) / float64(len(prediction))
}

func (SquaredDistance) LossDeriv(prediction, truth, derivative []float64) float64 {
	n := float64(len(prediction))
	loss := L2Norm{}.LossDeriv(prediction, truth, derivative)
	for i := range derivative {
		derivative[i] /= n
	}
	return loss / n
}

func (SquaredDistance) Convex() {}

// ManhattanDistance is the one-norm of (pred - truth) divided by the length.
type ManhattanDistance struct{}

func (ManhattanDistance) Loss(prediction, truth []float64) float64 {
	return L1Norm{}.Loss(prediction, truth) / float64(len(prediction))
}

func (ManhattanDistance) LossDeriv(prediction, truth, derivative []float64) float64 {
	n := float64(len(prediction))
	loss := L1Norm{}.LossDeriv(prediction, truth, derivative)
	for i := range derivative {
		derivative[i] /= n
	}
	return loss / n
}

func (ManhattanDistance) Convex() {}

// RelativeSquared is the mean squared relative error, with the value of
// RelativeSquared added to |truth| in the denominator.
type RelativeSquared float64

func (r RelativeSquared) Loss(prediction, truth []float64) float64 {
	checkLen(prediction, truth)
	var loss float64
	for i, pred := range prediction {
		rel := (pred - truth[i]) / (math.Abs(truth[i]) + float64(r))
		loss += rel * rel
	}
	return loss / float64(len(prediction))
}

func (r RelativeSquared) LossDeriv(prediction, truth, derivative []float64) float64 {
	checkDerivLen(prediction, truth, derivative)
	n := float64(len(prediction))
	var loss float64
	for i, pred := range prediction {
		denom := math.Abs(truth[i]) + float64(r)
		rel := (pred - truth[i]) / denom
		loss += rel * rel
		derivative[i] = 2 * rel / denom / n
	}
	return loss / n
}

// RelativeLog is log(1 + RelativeSquared loss), so the minimum is zero and
// large relative errors are damped.
type RelativeLog float64

func (l RelativeLog) Loss(prediction, truth []float64) float64 {
	return math.Log1p(RelativeSquared(l).Loss(prediction, truth))
}

func (l RelativeLog) LossDeriv(prediction, truth, derivative []float64) float64 {
	inner := RelativeSquared(l).LossDeriv(prediction, truth, derivative)
	for i := range derivative {
		derivative[i] /= inner + 1
	}
	return math.Log1p(inner)
}

// LogSquared is the mean of log(1 + diff²) so that very large errors are not
// as important.
type LogSquared struct{}

func (LogSquared) Loss(prediction, truth []float64) float64 {
	checkLen(prediction, truth)
	var loss float64
	for i, pred := range prediction {
		diff := pred - truth[i]
		loss += math.Log1p(diff * diff)
	}
	return loss / float64(len(prediction))
}

func (LogSquared) LossDeriv(prediction, truth, derivative []float64) float64 {
	checkDerivLen(prediction, truth, derivative)
	n := float64(len(prediction))
	var loss float64
	for i, pred := range prediction {
		diff := pred - truth[i]
		loss += math.Log1p(diff * diff)
		derivative[i] = 2 * diff / (diff*diff + 1) / n
	}
	return loss / n
}

func sign(x float64) float64 {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	}
	return 0
}

// ByName returns the loss function called name. Names are matched case
// insensitively.
func ByName(name string) (DerivLosser, error) {
	switch strings.ToLower(name) {
	case "l1", "l1norm":
		return L1Norm{}, nil
	case "", "l2", "l2norm":
		return L2Norm{}, nil
	case "squared", "squareddistance", "mse":
		return SquaredDistance{}, nil
	case "manhattan", "manhattandistance", "mae":
		return ManhattanDistance{}, nil
	case "relativesquared", "relative_squared":
		return RelativeSquared(RelativeOffset), nil
	case "relativelog", "relative_log":
		return RelativeLog(RelativeOffset), nil
	case "logsquared":
		return LogSquared{}, nil
	case "binarycrossentropy", "binary_cross_entropy":
		return BinaryCrossEntropy{}, nil
	case "crossentropy", "cross_entropy":
		return CrossEntropy{}, nil
	case "softmaxcrossentropy", "softmax_cross_entropy":
		return SoftmaxCrossEntropy{}, nil
	}
	return nil, fmt.Errorf("loss: unknown loss function %q", name)
}
