package loss

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// probEps bounds probabilities away from 0 and 1 before taking logarithms.
const probEps = 1e-12

// clip bounds p to [probEps, 1-probEps] and reports whether it was inside.
// The loss is flat outside, so the derivative there is zero.
func clip(p float64) (float64, bool) {
	c := math.Min(math.Max(p, probEps), 1-probEps)
	return c, c == p
}

// BinaryCrossEntropy treats every prediction as an independent probability:
// -Σ t·log p + (1-t)·log(1-p).
type BinaryCrossEntropy struct{}

func (BinaryCrossEntropy) Loss(prediction, truth []float64) float64 {
	checkLen(prediction, truth)
	var loss float64
	for i, p := range prediction {
		p, _ = clip(p)
		loss -= truth[i]*math.Log(p) + (1-truth[i])*math.Log(1-p)
	}
	return loss
}

func (BinaryCrossEntropy) LossDeriv(prediction, truth, derivative []float64) float64 {
	checkDerivLen(prediction, truth, derivative)
	var loss float64
	for i, p := range prediction {
		p, inside := clip(p)
		t := truth[i]
		loss -= t*math.Log(p) + (1-t)*math.Log(1-p)
		if !inside {
			derivative[i] = 0
			continue
		}
		derivative[i] = (p - t) / (p * (1 - p))
	}
	return loss
}

// CrossEntropy treats the prediction as a distribution: -Σ t·log p.
type CrossEntropy struct{}

func (CrossEntropy) Loss(prediction, truth []float64) float64 {
	checkLen(prediction, truth)
	var loss float64
	for i, p := range prediction {
		p, _ = clip(p)
		loss -= truth[i] * math.Log(p)
	}
	return loss
}

func (CrossEntropy) LossDeriv(prediction, truth, derivative []float64) float64 {
	checkDerivLen(prediction, truth, derivative)
	var loss float64
	for i, p := range prediction {
		p, inside := clip(p)
		loss -= truth[i] * math.Log(p)
		if !inside {
			derivative[i] = 0
			continue
		}
		derivative[i] = -truth[i] / p
	}
	return loss
}

// SoftmaxCrossEntropy treats the prediction as unnormalized logits and
// applies a softmax before the cross entropy.
type SoftmaxCrossEntropy struct{}

func (SoftmaxCrossEntropy) Loss(prediction, truth []float64) float64 {
	checkLen(prediction, truth)
	lse := floats.LogSumExp(prediction)
	var loss float64
	for i, p := range prediction {
		loss -= truth[i] * (p - lse)
	}
	return loss
}

func (SoftmaxCrossEntropy) LossDeriv(prediction, truth, derivative []float64) float64 {
	checkDerivLen(prediction, truth, derivative)
	lse := floats.LogSumExp(prediction)
	total := floats.Sum(truth)
	var loss float64
	for i, p := range prediction {
		logSoft := p - lse
		loss -= truth[i] * logSoft
		derivative[i] = total*math.Exp(logSoft) - truth[i]
	}
	return loss
}
