package rnn

// Progress is one evaluation of the training loss during Fit.
type Progress struct {
	RunID string
	Epoch int // zero based
	Loss  float64
}

// ProgressRecorder receives a Progress each time Fit evaluates the loss.
type ProgressRecorder interface {
	Record(Progress)
}

// RecorderFunc adapts a function to a ProgressRecorder.
type RecorderFunc func(Progress)

func (f RecorderFunc) Record(p Progress) {
	f(p)
}
