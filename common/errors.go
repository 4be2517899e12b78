package common

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// ConfigError is returned when a hyperparameter is out of range. It is
// reported before any numeric work happens.
type ConfigError struct {
	Field string
	Value int
}

func (c *ConfigError) Error() string {
	return fmt.Sprintf("rnnforecast: invalid configuration: %s must be positive, got %d", c.Field, c.Value)
}

// ShapeError is returned when the shape of supplied data does not agree with
// the configured dimensions.
type ShapeError struct {
	What string
	Want int
	Got  int
}

func (s *ShapeError) Error() string {
	return fmt.Sprintf("rnnforecast: %s mismatch. expected %d, found %d", s.What, s.Want, s.Got)
}

var (
	ErrNoData     = errors.New("rnnforecast: nil or empty data")
	ErrNotFitted  = errors.New("rnnforecast: model has not been fitted")
	ErrFeedback   = errors.New("rnnforecast: output dimension must equal input dimension to feed predictions back")
	ErrNoLabels   = errors.New("rnnforecast: no labels to compare")
	ErrBadHorizon = errors.New("rnnforecast: forecast horizon must be positive")
)

// VerifyRows returns an error if inputs and outputs do not have the same
// number of rows, or if either is nil or empty.
func VerifyRows(nInputs int, outputs mat.Matrix) error {
	if outputs == nil || nInputs == 0 {
		return ErrNoData
	}
	nOutputs, _ := outputs.Dims()
	if nOutputs != nInputs {
		return &ShapeError{What: "number of target rows", Want: nInputs, Got: nOutputs}
	}
	return nil
}
