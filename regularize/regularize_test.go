package regularize

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/floats"

	"github.com/reggo/rnnforecast/common"
)

func regularizerTest(t *testing.T, r Regularizer, name string, parameters []float64, trueLoss float64, trueDeriv []float64) {
	loss := r.Loss(parameters)
	if math.Abs(loss-trueLoss) > 1e-14 {
		t.Errorf("Loss doesn't match for case %v. Expected: %v, Found: %v", name, trueLoss, loss)
	}
	derivative := make([]float64, len(trueDeriv))
	for i := range derivative {
		derivative[i] = 100
	}
	lossDeriv := r.LossDeriv(parameters, derivative)
	if math.Abs(lossDeriv-trueLoss) > 1e-14 {
		t.Errorf("Loss doesn't match from LossDeriv for case %v. Expected: %v, Found: %v", name, trueLoss, lossDeriv)
	}
	if !floats.EqualApprox(trueDeriv, derivative, 1e-14) {
		t.Errorf("Derivative doesn't match from LossDeriv for case %v. Expected %v, found %v", name, trueDeriv, derivative)
	}

	for i := range derivative {
		derivative[i] = float64(i)
	}
	lossAddDeriv := r.LossAddDeriv(parameters, derivative)
	if math.Abs(lossAddDeriv-trueLoss) > 1e-14 {
		t.Errorf("Loss doesn't match from LossAddDeriv for case %v. Expected: %v, Found: %v", name, trueLoss, lossAddDeriv)
	}
	for i := range derivative {
		derivative[i] -= float64(i)
	}
	if !floats.EqualApprox(trueDeriv, derivative, 1e-14) {
		t.Errorf("Derivative doesn't match from LossAddDeriv for case %v", name)
	}
	if err := common.CheckRoundTrip(r); err != nil {
		t.Errorf("%v: %v", name, err)
	}
}

func TestRegularizers(t *testing.T) {
	for _, test := range []struct {
		Name       string
		R          Regularizer
		Parameters []float64
		Loss       float64
		Deriv      []float64
	}{
		{
			Name:       "TwoNorm",
			R:          TwoNorm{Gamma: 0.01},
			Parameters: []float64{1, 2},
			Loss:       0.05,
			Deriv:      []float64{0.02, 0.04},
		},
		{
			Name:       "OneNorm",
			R:          OneNorm{Gamma: 0.5},
			Parameters: []float64{1, -2, 0},
			Loss:       1.5,
			Deriv:      []float64{0.5, -0.5, 0},
		},
		{
			Name:       "None",
			R:          None{},
			Parameters: []float64{1, -2},
			Loss:       0,
			Deriv:      []float64{0, 0},
		},
	} {
		regularizerTest(t, test.R, test.Name, test.Parameters, test.Loss, test.Deriv)
	}
}

func TestByName(t *testing.T) {
	for name, want := range map[string]Regularizer{
		"":     None{},
		"none": None{},
		"L1":   OneNorm{Gamma: 0.1},
		"l2":   TwoNorm{Gamma: 0.1},
	} {
		r, err := ByName(name, 0.1)
		if err != nil {
			t.Errorf("%q: unexpected error %v", name, err)
			continue
		}
		if r != want {
			t.Errorf("%q: expected %#v, found %#v", name, want, r)
		}
	}
	if _, err := ByName("elastic", 0.1); err == nil {
		t.Errorf("No error for unknown regularizer")
	}
}
