package rnn

import (
	"math"
	"testing"

	"github.com/reggo/rnnforecast/common"
)

func TestActivators(t *testing.T) {
	sum := 1.23456789
	for _, test := range []struct {
		Act   Activator
		Name  string
		Out   float64
		Deriv float64
	}{
		// Constants from http://www.wolframalpha.com/input/?i=1%2F%281%2B+exp%28-1.23456789%29%29
		{Sigmoid{}, "Sigmoid", 0.7746170617399426534330751940207841531562387807774740, 0.17458546940132052486381952968243494067770801388762},
		// Constants from http://www.wolframalpha.com/input/?i=1.7159+*+tanh%282%2F3+*+1.23456789%29
		{ScaledTanh{}, "ScaledTanh", 1.1611906180541956173946145965239159139732343741372935, 0.620063002328385566791528134365391691015175805527057181714408},
		{Tanh{}, "Tanh", math.Tanh(sum), 1 - math.Tanh(sum)*math.Tanh(sum)},
		{Linear{}, "Linear", sum, 1},
		{ReLU{}, "ReLU", sum, 1},
	} {
		output := test.Act.Activate(sum)
		if math.Abs(output-test.Out) > 1e-15 {
			t.Errorf("%v: activation output does not match. %v expected, %v found", test.Name, test.Out, output)
		}
		deriv := test.Act.DActivateDCombination(sum, output)
		if math.Abs(deriv-test.Deriv) > 1e-15 {
			t.Errorf("%v: derivative does not match. %v expected, %v found", test.Name, test.Deriv, deriv)
		}
		fd := (test.Act.Activate(sum+1e-6) - test.Act.Activate(sum-1e-6)) / 2e-6
		if math.Abs(fd-deriv) > 1e-8 {
			t.Errorf("%v: derivative does not match finite difference. %v analytic, %v finite difference", test.Name, deriv, fd)
		}
		if err := common.CheckRoundTrip(test.Act); err != nil {
			t.Errorf("%v: error marshaling and unmarshaling: %v", test.Name, err)
		}
		if str := test.Act.(interface{ String() string }).String(); str != test.Name {
			t.Errorf("%v: String doesn't match, found %v", test.Name, str)
		}
		byName, err := ActivatorByName(test.Name)
		if err != nil || byName != test.Act {
			t.Errorf("%v: ActivatorByName returned %v, %v", test.Name, byName, err)
		}
	}
}

func TestReLUNegative(t *testing.T) {
	r := ReLU{}
	if out := r.Activate(-2); out != 0 {
		t.Errorf("ReLU of a negative sum is %v", out)
	}
	if d := r.DActivateDCombination(-2, 0); d != 0 {
		t.Errorf("ReLU derivative of a negative sum is %v", d)
	}
	if _, err := ActivatorByName("softplus"); err == nil {
		t.Errorf("No error for unknown activation")
	}
}
