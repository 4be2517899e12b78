package train

import (
	"fmt"
	"math"
	"strings"
)

// Optimizer updates parameters in place from a gradient. Init must be called
// with the number of parameters before the first Step; it clears any
// accumulated state.
type Optimizer interface {
	Init(nParameters int)
	Step(parameters, gradient []float64)
}

func checkStep(parameters, gradient []float64, n int) {
	if len(parameters) != n || len(gradient) != n {
		panic("train: optimizer length mismatch")
	}
}

// GradientDescent takes a fixed step against the gradient.
type GradientDescent struct {
	LearningRate float64

	n int
}

func (g *GradientDescent) Init(n int) { g.n = n }

func (g *GradientDescent) Step(parameters, gradient []float64) {
	checkStep(parameters, gradient, g.n)
	for i, d := range gradient {
		parameters[i] -= g.LearningRate * d
	}
}

// Momentum accumulates a velocity, v = m·v + g, and steps by the learning
// rate times the velocity.
type Momentum struct {
	LearningRate float64
	Momentum     float64

	velocity []float64
}

func (m *Momentum) Init(n int) { m.velocity = make([]float64, n) }

func (m *Momentum) Step(parameters, gradient []float64) {
	checkStep(parameters, gradient, len(m.velocity))
	for i, d := range gradient {
		m.velocity[i] = m.Momentum*m.velocity[i] + d
		parameters[i] -= m.LearningRate * m.velocity[i]
	}
}

// NesterovMomentum is Momentum with the look-ahead correction
// p -= lr·(g + m·v).
type NesterovMomentum struct {
	LearningRate float64
	Momentum     float64

	velocity []float64
}

func (m *NesterovMomentum) Init(n int) { m.velocity = make([]float64, n) }

func (m *NesterovMomentum) Step(parameters, gradient []float64) {
	checkStep(parameters, gradient, len(m.velocity))
	for i, d := range gradient {
		m.velocity[i] = m.Momentum*m.velocity[i] + d
		parameters[i] -= m.LearningRate * (d + m.Momentum*m.velocity[i])
	}
}

// Adagrad scales each step by the root of the accumulated squared gradient.
type Adagrad struct {
	LearningRate float64
	// InitialAccumulator is the starting value of every accumulator.
	// Defaults to 0.1.
	InitialAccumulator float64

	accum []float64
}

func (a *Adagrad) Init(n int) {
	if a.InitialAccumulator == 0 {
		a.InitialAccumulator = 0.1
	}
	a.accum = make([]float64, n)
	for i := range a.accum {
		a.accum[i] = a.InitialAccumulator
	}
}

func (a *Adagrad) Step(parameters, gradient []float64) {
	checkStep(parameters, gradient, len(a.accum))
	for i, d := range gradient {
		a.accum[i] += d * d
		parameters[i] -= a.LearningRate * d / math.Sqrt(a.accum[i])
	}
}

// Adadelta adapts the step from running averages of squared gradients and
// squared updates.
type Adadelta struct {
	LearningRate float64
	Rho          float64 // defaults to 0.95
	Epsilon      float64 // defaults to 1e-8

	accum       []float64
	accumUpdate []float64
}

func (a *Adadelta) Init(n int) {
	if a.Rho == 0 {
		a.Rho = 0.95
	}
	if a.Epsilon == 0 {
		a.Epsilon = 1e-8
	}
	a.accum = make([]float64, n)
	a.accumUpdate = make([]float64, n)
}

func (a *Adadelta) Step(parameters, gradient []float64) {
	checkStep(parameters, gradient, len(a.accum))
	for i, d := range gradient {
		a.accum[i] = a.Rho*a.accum[i] + (1-a.Rho)*d*d
		update := math.Sqrt(a.accumUpdate[i]+a.Epsilon) / math.Sqrt(a.accum[i]+a.Epsilon) * d
		a.accumUpdate[i] = a.Rho*a.accumUpdate[i] + (1-a.Rho)*update*update
		parameters[i] -= a.LearningRate * update
	}
}

// Adam keeps bias-corrected running estimates of the first and second moments
// of the gradient.
type Adam struct {
	LearningRate float64
	Beta1        float64 // defaults to 0.9
	Beta2        float64 // defaults to 0.999
	Epsilon      float64 // defaults to 1e-8

	m, v []float64
	t    int
}

func (a *Adam) Init(n int) {
	if a.Beta1 == 0 {
		a.Beta1 = 0.9
	}
	if a.Beta2 == 0 {
		a.Beta2 = 0.999
	}
	if a.Epsilon == 0 {
		a.Epsilon = 1e-8
	}
	a.m = make([]float64, n)
	a.v = make([]float64, n)
	a.t = 0
}

func (a *Adam) Step(parameters, gradient []float64) {
	checkStep(parameters, gradient, len(a.m))
	a.t++
	t := float64(a.t)
	rate := a.LearningRate * math.Sqrt(1-math.Pow(a.Beta2, t)) / (1 - math.Pow(a.Beta1, t))
	for i, d := range gradient {
		a.m[i] = a.Beta1*a.m[i] + (1-a.Beta1)*d
		a.v[i] = a.Beta2*a.v[i] + (1-a.Beta2)*d*d
		parameters[i] -= rate * a.m[i] / (math.Sqrt(a.v[i]) + a.Epsilon)
	}
}

// OptimizerByName returns a new optimizer called name with the given learning
// rate. Momentum based optimizers use a momentum of 0.9.
func OptimizerByName(name string, rate float64) (Optimizer, error) {
	switch strings.ToLower(name) {
	case "", "gd", "gradientdescent", "sgd":
		return &GradientDescent{LearningRate: rate}, nil
	case "momentum":
		return &Momentum{LearningRate: rate, Momentum: 0.9}, nil
	case "nesterov", "nesterovmomentum":
		return &NesterovMomentum{LearningRate: rate, Momentum: 0.9}, nil
	case "adagrad":
		return &Adagrad{LearningRate: rate}, nil
	case "adadelta":
		return &Adadelta{LearningRate: rate}, nil
	case "adam":
		return &Adam{LearningRate: rate}, nil
	}
	return nil, fmt.Errorf("train: unknown optimizer %q", name)
}
