// Package series turns observations into fixed-length sequence windows.
//
// A series is a matrix with one row per time step and one column per
// feature. A window is a run of consecutive rows. Windows stores many windows
// of the same shape in one contiguous buffer laid out window by window, step
// by step, and hands out matrix views into it.
package series

import (
	"gonum.org/v1/gonum/mat"

	"github.com/reggo/rnnforecast/common"
)

// Windows is a collection of n windows, each with the same number of steps
// and features.
type Windows struct {
	n        int
	steps    int
	features int
	data     []float64
}

// NewWindows creates a collection of n windows of steps×features. If data is
// nil a zeroed buffer is allocated, otherwise data is used as the backing
// buffer and must have length n·steps·features.
func NewWindows(n, steps, features int, data []float64) *Windows {
	if n < 0 || steps < 1 || features < 1 {
		panic("series: bad window shape")
	}
	size := n * steps * features
	if data == nil {
		data = make([]float64, size)
	}
	if len(data) != size {
		panic(mat.ErrShape)
	}
	return &Windows{n: n, steps: steps, features: features, data: data}
}

// Dims returns the number of windows, steps per window and features per
// step.
func (w *Windows) Dims() (n, steps, features int) {
	return w.n, w.steps, w.features
}

// Window returns a view of window i. Changes to the view change the
// collection.
func (w *Windows) Window(i int) *mat.Dense {
	if i < 0 || i >= w.n {
		panic(mat.ErrRowAccess)
	}
	size := w.steps * w.features
	return mat.NewDense(w.steps, w.features, w.data[i*size:(i+1)*size:(i+1)*size])
}

// SetWindow copies m into window i.
func (w *Windows) SetWindow(i int, m mat.Matrix) {
	r, c := m.Dims()
	if r != w.steps || c != w.features {
		panic(mat.ErrShape)
	}
	w.Window(i).Copy(m)
}

// Check verifies the collection is non-empty and has the given window shape.
func Check(x common.Sequencer, steps, features int) error {
	if x == nil {
		return common.ErrNoData
	}
	n, s, f := x.Dims()
	if n == 0 {
		return common.ErrNoData
	}
	if s != steps {
		return &common.ShapeError{What: "sequence length", Want: steps, Got: s}
	}
	if f != features {
		return &common.ShapeError{What: "input dimension", Want: features, Got: f}
	}
	return nil
}

// FromSeries cuts s into every window of the given length and pairs each
// window with the row that follows it. Window i is rows [i, i+steps) and its
// target is row i+steps, so a series of T rows gives T-steps pairs.
func FromSeries(s mat.Matrix, steps int) (*Windows, *mat.Dense, error) {
	if steps < 1 {
		return nil, nil, &common.ConfigError{Field: "SeqLen", Value: steps}
	}
	if s == nil {
		return nil, nil, common.ErrNoData
	}
	rows, cols := s.Dims()
	n := rows - steps
	if n < 1 {
		return nil, nil, &common.ShapeError{What: "series length", Want: steps + 1, Got: rows}
	}
	x := NewWindows(n, steps, cols, nil)
	y := mat.NewDense(n, cols, nil)
	for i := 0; i < n; i++ {
		w := x.Window(i)
		for t := 0; t < steps; t++ {
			mat.Row(w.RawRowView(t), i+t, s)
		}
		mat.Row(y.RawRowView(i), i+steps, s)
	}
	return x, y, nil
}

// Last returns the final steps rows of s as a single window.
func Last(s mat.Matrix, steps int) (*Windows, error) {
	if steps < 1 {
		return nil, &common.ConfigError{Field: "SeqLen", Value: steps}
	}
	if s == nil {
		return nil, common.ErrNoData
	}
	rows, cols := s.Dims()
	if rows < steps {
		return nil, &common.ShapeError{What: "series length", Want: steps, Got: rows}
	}
	x := NewWindows(1, steps, cols, nil)
	w := x.Window(0)
	for t := 0; t < steps; t++ {
		mat.Row(w.RawRowView(t), rows-steps+t, s)
	}
	return x, nil
}

// Slide drops the oldest row of window and appends next as the newest row.
// The window keeps its length.
func Slide(window *mat.Dense, next []float64) {
	steps, features := window.Dims()
	if len(next) != features {
		panic(mat.ErrShape)
	}
	for t := 0; t < steps-1; t++ {
		copy(window.RawRowView(t), window.RawRowView(t+1))
	}
	copy(window.RawRowView(steps-1), next)
}
