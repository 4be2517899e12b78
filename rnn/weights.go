package rnn

import (
	"gonum.org/v1/gonum/mat"
)

// shape holds the dimensions that fix the parameter layout.
type shape struct {
	in, hidden, out int
}

// numParameters is d·H + H·H + H + H·O + O. It does not depend on the
// sequence length because every step shares the same cell.
func (s shape) numParameters() int {
	return s.in*s.hidden + s.hidden*s.hidden + s.hidden + s.hidden*s.out + s.out
}

// cell is the recurrent weights: state' = f(x·Wx + state·Wh + b). One cell
// value is referenced by every step of an unroll.
type cell struct {
	wx  *mat.Dense    // in×hidden
	wh  *mat.Dense    // hidden×hidden
	b   *mat.VecDense // hidden
	act Activator
}

// head is the linear projection of the final state, y = state·Wo + bo.
type head struct {
	wo *mat.Dense    // hidden×out
	bo *mat.VecDense // out
}

// weights are matrix views into a flat arena laid out as
// [Wx | Wh | b | Wo | bo], each block row-major.
type weights struct {
	shape
	cell *cell
	head head
}

func newWeights(s shape, arena []float64, act Activator) *weights {
	if len(arena) != s.numParameters() {
		panic("rnn: parameter length mismatch")
	}
	take := func(n int) []float64 {
		v := arena[:n:n]
		arena = arena[n:]
		return v
	}
	w := &weights{shape: s}
	w.cell = &cell{
		wx:  mat.NewDense(s.in, s.hidden, take(s.in*s.hidden)),
		wh:  mat.NewDense(s.hidden, s.hidden, take(s.hidden*s.hidden)),
		b:   mat.NewVecDense(s.hidden, take(s.hidden)),
		act: act,
	}
	w.head = head{
		wo: mat.NewDense(s.hidden, s.out, take(s.hidden*s.out)),
		bo: mat.NewVecDense(s.out, take(s.out)),
	}
	return w
}

// addBias adds v to every row of m.
func addBias(m *mat.Dense, v *mat.VecDense) {
	r, _ := m.Dims()
	bias := v.RawVector().Data
	for i := 0; i < r; i++ {
		row := m.RawRowView(i)
		for j, b := range bias {
			row[j] += b
		}
	}
}

// addColSums adds the column sums of m to v.
func addColSums(v *mat.VecDense, m *mat.Dense) {
	r, _ := m.Dims()
	dst := v.RawVector().Data
	for i := 0; i < r; i++ {
		for j, x := range m.RawRowView(i) {
			dst[j] += x
		}
	}
}
