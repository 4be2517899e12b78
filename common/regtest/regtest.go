// Package regtest contains helper functions for testing trainable models.
package regtest

import (
	"encoding/json"
	"math/rand/v2"
	"sync"
	"testing"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/reggo/rnnforecast/common"
	"github.com/reggo/rnnforecast/loss"
	"github.com/reggo/rnnforecast/regularize"
	"github.com/reggo/rnnforecast/series"
	"github.com/reggo/rnnforecast/train"
)

const (
	fdStep = 1e-6
	fdTol  = 1e-6
)

func panics(f func()) (b bool) {
	defer func() {
		if r := recover(); r != nil {
			b = true
		}
	}()
	f()
	return
}

// RandomMat returns an r×c matrix with entries drawn from f.
func RandomMat(r, c int, f func() float64) *mat.Dense {
	m := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			m.Set(i, j, f())
		}
	}
	return m
}

// RandomWindows returns n windows of steps×features with entries drawn
// from f.
func RandomWindows(n, steps, features int, f func() float64) *series.Windows {
	data := make([]float64, n*steps*features)
	for i := range data {
		data[i] = f()
	}
	return series.NewWindows(n, steps, features, data)
}

type ParameterGetterSetter interface {
	NumParameters() int
	Parameters([]float64) []float64
	SetParameters([]float64)
}

// TestGetAndSetParameters checks the flat parameter contract: nil and
// non-nil destinations agree, returned slices are copies, and wrong lengths
// panic.
func TestGetAndSetParameters(t *testing.T, p ParameterGetterSetter, name string) {
	var nilParam []float64
	if panics(func() { nilParam = p.Parameters(nil) }) {
		t.Errorf("%v: Parameters panicked with nil input", name)
		return
	}
	if len(nilParam) != p.NumParameters() {
		t.Errorf("%v: On nil input, incorrect length returned from Parameters()", name)
	}
	nilParamCopy := make([]float64, p.NumParameters())
	copy(nilParamCopy, nilParam)
	nonNilParam := make([]float64, p.NumParameters())
	p.Parameters(nonNilParam)
	if !floats.Equal(nilParam, nonNilParam) {
		t.Errorf("%v: Return from Parameters() with nil argument and non nil argument are different", name)
	}
	for i := range nonNilParam {
		nonNilParam[i] = rand.NormFloat64()
	}
	if !floats.Equal(p.Parameters(nil), nilParamCopy) {
		t.Errorf("%v: Modifying the return from Parameters modified the underlying parameters", name)
	}
	setParam := make([]float64, p.NumParameters())
	copy(setParam, nonNilParam)
	p.SetParameters(setParam)
	if !floats.Equal(setParam, nonNilParam) {
		t.Errorf("%v: Input slice modified during call to SetParameters", name)
	}
	if !floats.Equal(p.Parameters(nil), setParam) {
		t.Errorf("%v: Set parameters followed by Parameters don't return the same argument", name)
	}
	setParam[0]++
	if floats.Equal(p.Parameters(nil), setParam) {
		t.Errorf("%v: SetParameters kept a reference to its input", name)
	}

	badLength := make([]float64, p.NumParameters()+3)
	if !panics(func() { p.Parameters(badLength) }) {
		t.Errorf("%v: Parameters did not panic given a slice too long", name)
	}
	if !panics(func() { p.SetParameters(badLength) }) {
		t.Errorf("%v: SetParameters did not panic given a slice too long", name)
	}
	if p.NumParameters() == 0 {
		return
	}
	badLength = badLength[:p.NumParameters()-1]
	if !panics(func() { p.Parameters(badLength) }) {
		t.Errorf("%v: Parameters did not panic given a slice too short", name)
	}
	if !panics(func() { p.SetParameters(badLength) }) {
		t.Errorf("%v: SetParameters did not panic given a slice too short", name)
	}
}

type InputOutputer interface {
	InputDim() int
	OutputDim() int
}

func TestInputOutputDim(t *testing.T, io InputOutputer, trueInputDim, trueOutputDim int, name string) {
	if inputDim := io.InputDim(); inputDim != trueInputDim {
		t.Errorf("%v: Mismatch in input dimension. expected %v, found %v", name, trueInputDim, inputDim)
	}
	if outputDim := io.OutputDim(); outputDim != trueOutputDim {
		t.Errorf("%v: Mismatch in output dimension. expected %v, found %v", name, trueOutputDim, outputDim)
	}
}

// TestDeriv uses central finite differences to check the gradient of the
// training objective. The objective is evaluated concurrently for different
// parameters, which also checks that gradient computation does not share
// scratch memory.
func TestDeriv(t *testing.T, trainable train.Trainable, inputs common.Sequencer, trueOutputs *mat.Dense, name string) {
	trainable.RandomizeParameters()

	batchGrad := train.NewBatchGradBased(trainable, inputs, trueOutputs, loss.SquaredDistance{}, regularize.TwoNorm{Gamma: 1e-3})

	n := trainable.NumParameters()
	derivative := make([]float64, n)
	parameters := trainable.Parameters(nil)
	batchGrad.ObjGrad(parameters, derivative)

	fdDerivative := make([]float64, n)
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			newParameters := make([]float64, n)
			tmpDerivative := make([]float64, n)
			copy(newParameters, parameters)
			newParameters[i] += fdStep
			loss1 := batchGrad.ObjGrad(newParameters, tmpDerivative)
			newParameters[i] -= 2 * fdStep
			loss2 := batchGrad.ObjGrad(newParameters, tmpDerivative)
			fdDerivative[i] = (loss1 - loss2) / (2 * fdStep)
		}(i)
	}
	wg.Wait()
	if !floats.EqualApprox(derivative, fdDerivative, fdTol) {
		t.Errorf("%v: deriv doesn't match: Finite Difference: %v, Analytic: %v", name, fdDerivative, derivative)
	}
}

type Jsoner interface {
	json.Marshaler
	json.Unmarshaler
}

type JSONTrainable interface {
	Jsoner
	ParameterGetterSetter
	InputOutputer
}

// TestJSON marshals m1, unmarshals the result into m2 and checks that the
// dimensions and parameters survived.
func TestJSON(t *testing.T, m1, m2 JSONTrainable, name string) {
	b, err := m1.MarshalJSON()
	if err != nil {
		t.Errorf("%v: error marshaling: %v", name, err)
		return
	}
	if err := m2.UnmarshalJSON(b); err != nil {
		t.Errorf("%v: error unmarshaling: %v", name, err)
		return
	}
	TestInputOutputDim(t, m2, m1.InputDim(), m1.OutputDim(), name)
	if m1.NumParameters() != m2.NumParameters() {
		t.Errorf("%v: parameter count changed from %v to %v", name, m1.NumParameters(), m2.NumParameters())
		return
	}
	if !floats.Equal(m1.Parameters(nil), m2.Parameters(nil)) {
		t.Errorf("%v: parameters changed after json marshal and unmarshal", name)
	}
}
