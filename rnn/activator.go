package rnn

import (
	"fmt"
	"math"
	"strings"

	"github.com/reggo/rnnforecast/common"
)

func init() {
	common.Register(Tanh{})
	common.Register(ScaledTanh{})
	common.Register(Sigmoid{})
	common.Register(ReLU{})
	common.Register(Linear{})
}

// Activator is the nonlinearity applied to the recurrent cell's combined
// input. DActivateDCombination is the derivative with respect to the
// combination, given both the combination and the activated output, since
// some derivatives are cheaper from one or the other.
type Activator interface {
	Activate(sum float64) float64
	DActivateDCombination(sum, output float64) float64
}

// Tanh is the hyperbolic tangent, out = tanh(sum).
type Tanh struct{}

func (Tanh) Activate(sum float64) float64 {
	return math.Tanh(sum)
}

func (Tanh) DActivateDCombination(sum, output float64) float64 {
	return 1 - output*output
}

func (Tanh) String() string {
	return "Tanh"
}

const (
	// 1.7159 * 2/3
	scaledTanhDeriv = 1.14393333333333333333333333333333333333333333333333333333333333333333
	twoThirds       = 0.66666666666666666666666666666666666666666666666666666666666666666666
)

// ScaledTanh is out = 1.7159 tanh(2/3 sum), which is ±1 at sum = ±1.
// See http://leon.bottou.org/slides/tricks/tricks.pdf
type ScaledTanh struct{}

func (ScaledTanh) Activate(sum float64) float64 {
	return 1.7159 * math.Tanh(twoThirds*sum)
}

func (ScaledTanh) DActivateDCombination(sum, output float64) float64 {
	th := math.Tanh(twoThirds * sum)
	return scaledTanhDeriv * (1 - th*th)
}

func (ScaledTanh) String() string {
	return "ScaledTanh"
}

// Sigmoid is out = 1/(1 + exp(-sum)).
type Sigmoid struct{}

func (Sigmoid) Activate(sum float64) float64 {
	return 1.0 / (1.0 + math.Exp(-sum))
}

func (Sigmoid) DActivateDCombination(sum, output float64) float64 {
	return output * (1 - output)
}

func (Sigmoid) String() string {
	return "Sigmoid"
}

// ReLU is out = max(0, sum). The derivative at zero is taken as zero.
type ReLU struct{}

func (ReLU) Activate(sum float64) float64 {
	return math.Max(0, sum)
}

func (ReLU) DActivateDCombination(sum, output float64) float64 {
	if sum > 0 {
		return 1
	}
	return 0
}

func (ReLU) String() string {
	return "ReLU"
}

// Linear is the identity, out = sum.
type Linear struct{}

func (Linear) Activate(sum float64) float64 {
	return sum
}

func (Linear) DActivateDCombination(sum, output float64) float64 {
	return 1
}

func (Linear) String() string {
	return "Linear"
}

// ActivatorByName returns the activator whose String matches name, ignoring
// case.
func ActivatorByName(name string) (Activator, error) {
	switch strings.ToLower(name) {
	case "", "tanh":
		return Tanh{}, nil
	case "scaledtanh":
		return ScaledTanh{}, nil
	case "sigmoid":
		return Sigmoid{}, nil
	case "relu":
		return ReLU{}, nil
	case "linear":
		return Linear{}, nil
	}
	return nil, fmt.Errorf("rnn: unknown activation %q", name)
}
