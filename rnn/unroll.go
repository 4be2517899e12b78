package rnn

import (
	"gonum.org/v1/gonum/mat"
)

// Unrolled is one forward pass of a batch of windows through τ steps of the
// shared cell. It keeps every pre-activation and state so that the pass can
// be back-propagated. An Unrolled is owned by one pass and is not shared
// between goroutines.
type Unrolled struct {
	w *weights

	inputs []*mat.Dense // τ matrices, batch×in
	sums   []*mat.Dense // τ pre-activations, batch×hidden
	states []*mat.Dense // τ+1 states, batch×hidden; states[0] is zero
	output *mat.Dense   // batch×out
}

// Output returns the projected final state, one row per window.
func (u *Unrolled) Output() *mat.Dense {
	return u.output
}

// States returns the τ+1 recurrent states. The first is the zero initial
// state and the last is the one fed to the output projection.
func (u *Unrolled) States() []*mat.Dense {
	return u.states
}

// unroll runs the forward pass over windows, each steps×in.
func unroll(w *weights, windows []*mat.Dense) *Unrolled {
	batch := len(windows)
	if batch == 0 {
		panic("rnn: empty batch")
	}
	steps, _ := windows[0].Dims()
	u := &Unrolled{
		w:      w,
		inputs: make([]*mat.Dense, steps),
		sums:   make([]*mat.Dense, steps),
		states: make([]*mat.Dense, steps+1),
	}
	c := w.cell
	u.states[0] = mat.NewDense(batch, w.hidden, nil)
	var rec mat.Dense
	for t := 0; t < steps; t++ {
		x := mat.NewDense(batch, w.in, nil)
		for i, win := range windows {
			copy(x.RawRowView(i), win.RawRowView(t))
		}
		u.inputs[t] = x

		sum := mat.NewDense(batch, w.hidden, nil)
		sum.Mul(x, c.wx)
		rec.Reset()
		rec.Mul(u.states[t], c.wh)
		sum.Add(sum, &rec)
		addBias(sum, c.b)
		u.sums[t] = sum

		state := mat.NewDense(batch, w.hidden, nil)
		state.Apply(func(i, j int, v float64) float64 {
			return c.act.Activate(v)
		}, sum)
		u.states[t+1] = state
	}
	u.output = mat.NewDense(batch, w.out, nil)
	u.output.Mul(u.states[steps], w.head.wo)
	addBias(u.output, w.head.bo)
	return u
}

// backward accumulates into grad the gradient of Σ dOut ⊙ output with
// respect to the parameters, back-propagating through every step. grad must
// be views over a zeroed arena of the same shape.
func (u *Unrolled) backward(dOut *mat.Dense, grad *weights) {
	steps := len(u.sums)
	batch, _ := dOut.Dims()
	c := u.w.cell

	var tmp mat.Dense
	tmp.Mul(u.states[steps].T(), dOut)
	grad.head.wo.Add(grad.head.wo, &tmp)
	addColSums(grad.head.bo, dOut)

	dh := mat.NewDense(batch, u.w.hidden, nil)
	dh.Mul(dOut, u.w.head.wo.T())

	dz := mat.NewDense(batch, u.w.hidden, nil)
	for t := steps - 1; t >= 0; t-- {
		sum, state := u.sums[t], u.states[t+1]
		dz.Apply(func(i, j int, v float64) float64 {
			return v * c.act.DActivateDCombination(sum.At(i, j), state.At(i, j))
		}, dh)

		tmp.Reset()
		tmp.Mul(u.inputs[t].T(), dz)
		grad.cell.wx.Add(grad.cell.wx, &tmp)

		tmp.Reset()
		tmp.Mul(u.states[t].T(), dz)
		grad.cell.wh.Add(grad.cell.wh, &tmp)

		addColSums(grad.cell.b, dz)

		if t > 0 {
			dh.Mul(dz, c.wh.T())
		}
	}
}
