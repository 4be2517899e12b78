package common

import (
	"errors"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestVerifyRows(t *testing.T) {
	outputs := mat.NewDense(3, 2, []float64{
		1, 2,
		2, 3,
		9, 10,
	})
	if err := VerifyRows(3, outputs); err != nil {
		t.Errorf("Error with proper input: %v", err)
	}

	for _, test := range []struct {
		Name    string
		Inputs  int
		Outputs mat.Matrix
		Want    error
	}{
		{
			Name:    "NilOutput",
			Inputs:  3,
			Outputs: nil,
			Want:    ErrNoData,
		},
		{
			Name:    "NoInputs",
			Inputs:  0,
			Outputs: outputs,
			Want:    ErrNoData,
		},
	} {
		err := VerifyRows(test.Inputs, test.Outputs)
		if !errors.Is(err, test.Want) {
			t.Errorf("%v: expected %v, found %v", test.Name, test.Want, err)
		}
	}

	err := VerifyRows(4, outputs)
	var shape *ShapeError
	if !errors.As(err, &shape) {
		t.Fatalf("Row mismatch did not return a ShapeError: %v", err)
	}
	if shape.Want != 4 || shape.Got != 3 {
		t.Errorf("Wrong counts in ShapeError. Want 4/3, found %v/%v", shape.Want, shape.Got)
	}
}

func TestConfigErrorMessage(t *testing.T) {
	err := &ConfigError{Field: "SeqLen", Value: 0}
	want := "rnnforecast: invalid configuration: SeqLen must be positive, got 0"
	if err.Error() != want {
		t.Errorf("Message mismatch. Expected %q, found %q", want, err.Error())
	}
}
