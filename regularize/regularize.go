// Package regularize provides penalties on parameter values that are added to
// the training objective.
package regularize

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/floats"

	"github.com/reggo/rnnforecast/common"
)

func init() {
	common.Register(TwoNorm{})
	common.Register(OneNorm{})
	common.Register(None{})
}

// Regularizer puts pressure on the values of parameters to prevent
// overfitting.
type Regularizer interface {
	// Loss is the penalty generated by the current parameters.
	Loss(parameters []float64) float64

	// LossDeriv returns the penalty and stores dPenalty/dParameters into
	// derivative. Implementations may assume len(parameters) ==
	// len(derivative) but not that derivative is zeroed.
	LossDeriv(parameters, derivative []float64) float64

	// LossAddDeriv adds the derivative rather than storing it.
	LossAddDeriv(parameters, derivative []float64) float64
}

// TwoNorm is ɣ||w||_2^2.
type TwoNorm struct {
	Gamma float64 // Relative weight compared to the loss function
}

func (t TwoNorm) Loss(parameters []float64) float64 {
	n := floats.Norm(parameters, 2)
	return t.Gamma * n * n
}

func (t TwoNorm) LossDeriv(parameters, derivative []float64) float64 {
	for i, p := range parameters {
		derivative[i] = t.Gamma * 2 * p
	}
	return t.Loss(parameters)
}

func (t TwoNorm) LossAddDeriv(parameters, derivative []float64) float64 {
	for i, p := range parameters {
		derivative[i] += t.Gamma * 2 * p
	}
	return t.Loss(parameters)
}

// OneNorm is ɣ||w||_1. The subgradient at zero is taken as zero.
type OneNorm struct {
	Gamma float64
}

func (o OneNorm) Loss(parameters []float64) float64 {
	return o.Gamma * floats.Norm(parameters, 1)
}

func (o OneNorm) LossDeriv(parameters, derivative []float64) float64 {
	for i := range derivative {
		derivative[i] = 0
	}
	return o.LossAddDeriv(parameters, derivative)
}

func (o OneNorm) LossAddDeriv(parameters, derivative []float64) float64 {
	for i, p := range parameters {
		switch {
		case p > 0:
			derivative[i] += o.Gamma
		case p < 0:
			derivative[i] -= o.Gamma
		}
	}
	return o.Loss(parameters)
}

// None represents no regularizer.
type None struct{}

func (None) Loss(parameters []float64) float64 {
	return 0
}

func (None) LossDeriv(parameters, derivative []float64) float64 {
	for i := range derivative {
		derivative[i] = 0
	}
	return 0
}

func (None) LossAddDeriv(parameters, derivative []float64) float64 {
	return 0
}

// ByName returns the regularizer called name ("none", "l1", "l2") with weight
// gamma.
func ByName(name string, gamma float64) (Regularizer, error) {
	switch strings.ToLower(name) {
	case "", "none":
		return None{}, nil
	case "l1", "onenorm":
		return OneNorm{Gamma: gamma}, nil
	case "l2", "twonorm":
		return TwoNorm{Gamma: gamma}, nil
	}
	return nil, fmt.Errorf("regularize: unknown regularizer %q", name)
}
