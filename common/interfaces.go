package common

import "gonum.org/v1/gonum/mat"

// Sequencer is a collection of equal-shaped sequence windows. It is
// implemented by series.Windows and lets helper packages walk windows without
// importing the container.
type Sequencer interface {
	// Dims returns the number of windows, steps per window and features per step.
	Dims() (n, steps, features int)
	// Window returns the steps×features view of window i.
	Window(i int) *mat.Dense
}
