package train

import (
	"math/rand/v2"
	"testing"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/optimize"
)

// quadratic is Σ c_i (x_i - t_i)^2.
type quadratic struct {
	c, target []float64
}

func (q quadratic) f(x []float64) float64 {
	var v float64
	for i := range x {
		d := x[i] - q.target[i]
		v += q.c[i] * d * d
	}
	return v
}

func (q quadratic) grad(grad, x []float64) {
	for i := range x {
		grad[i] = 2 * q.c[i] * (x[i] - q.target[i])
	}
}

func TestOptimizersConverge(t *testing.T) {
	q := quadratic{c: []float64{1, 3, 0.5}, target: []float64{1, -2, 4}}
	ref, err := optimize.Minimize(optimize.Problem{Func: q.f, Grad: q.grad}, make([]float64, 3), nil, &optimize.LBFGS{})
	if err != nil {
		t.Fatalf("Reference minimization failed: %v", err)
	}
	for _, test := range []struct {
		Name  string
		Opt   Optimizer
		Iters int
		Tol   float64
	}{
		{"GradientDescent", &GradientDescent{LearningRate: 0.1}, 500, 1e-6},
		{"Momentum", &Momentum{LearningRate: 0.02, Momentum: 0.9}, 1000, 1e-6},
		{"NesterovMomentum", &NesterovMomentum{LearningRate: 0.02, Momentum: 0.9}, 1000, 1e-6},
		{"Adagrad", &Adagrad{LearningRate: 1}, 5000, 1e-4},
		// Adaptive steps hover around the minimum at a scale set by the rate.
		{"Adadelta", &Adadelta{LearningRate: 0.1, Rho: 0.9, Epsilon: 1e-6}, 20000, 1e-2},
		{"Adam", &Adam{LearningRate: 0.01}, 5000, 2e-2},
	} {
		x := make([]float64, 3)
		grad := make([]float64, 3)
		test.Opt.Init(len(x))
		for i := 0; i < test.Iters; i++ {
			q.grad(grad, x)
			test.Opt.Step(x, grad)
		}
		if !floats.EqualApprox(x, ref.X, test.Tol) {
			t.Errorf("%v: did not converge. Expected %v, found %v", test.Name, ref.X, x)
		}
	}
}

func TestOptimizerInitResets(t *testing.T) {
	a := &Adam{LearningRate: 0.1}
	run := func() []float64 {
		a.Init(2)
		x := []float64{1, 1}
		for i := 0; i < 10; i++ {
			a.Step(x, []float64{1, -1})
		}
		return x
	}
	first := run()
	second := run()
	if !floats.Equal(first, second) {
		t.Errorf("Init did not reset state: %v then %v", first, second)
	}
}

func TestOptimizerLengthPanics(t *testing.T) {
	for _, name := range []string{"gd", "momentum", "nesterov", "adagrad", "adadelta", "adam"} {
		opt, err := OptimizerByName(name, 0.1)
		if err != nil {
			t.Fatalf("%v: %v", name, err)
		}
		opt.Init(3)
		panicked := func() (b bool) {
			defer func() {
				if r := recover(); r != nil {
					b = true
				}
			}()
			opt.Step(make([]float64, 2), make([]float64, 2))
			return
		}()
		if !panicked {
			t.Errorf("%v: no panic on length mismatch", name)
		}
	}
	if _, err := OptimizerByName("rmsprop", 0.1); err == nil {
		t.Errorf("No error for unknown optimizer")
	}
}

func TestBatchSampler(t *testing.T) {
	b := &Batch{}
	b.Init(4)
	for i := 0; i < 3; i++ {
		idxs := b.Iterate()
		if len(idxs) != 4 {
			t.Fatalf("Batch returned %v indices, expected 4", len(idxs))
		}
		for j, v := range idxs {
			if v != j {
				t.Errorf("Batch index %v is %v", j, v)
			}
		}
	}
}

func TestStochasticReplacement(t *testing.T) {
	s := &Stochastic{BatchSize: 10, Replacement: true, Rand: rand.New(rand.NewPCG(1, 2))}
	s.Init(3)
	seen := make(map[int]int)
	for i := 0; i < 100; i++ {
		idxs := s.Iterate()
		if len(idxs) != 10 {
			t.Fatalf("Wrong batch size %v", len(idxs))
		}
		for _, v := range idxs {
			if v < 0 || v >= 3 {
				t.Fatalf("Index %v out of range", v)
			}
			seen[v]++
		}
	}
	// A batch larger than the data can only be drawn with replacement.
	if len(seen) != 3 {
		t.Errorf("Not every index drawn: %v", seen)
	}
}

func TestStochasticWithoutReplacement(t *testing.T) {
	s := &Stochastic{BatchSize: 4, Rand: rand.New(rand.NewPCG(1, 2))}
	s.Init(8)
	for pass := 0; pass < 3; pass++ {
		count := make([]int, 8)
		for b := 0; b < 2; b++ {
			for _, v := range s.Iterate() {
				count[v]++
			}
		}
		for i, c := range count {
			if c != 1 {
				t.Errorf("pass %v: index %v drawn %v times", pass, i, c)
			}
		}
	}
}

func TestStochasticSeeded(t *testing.T) {
	draw := func() []int {
		s := &Stochastic{BatchSize: 5, Replacement: true, Rand: rand.New(rand.NewPCG(9, 9))}
		s.Init(100)
		out := append([]int(nil), s.Iterate()...)
		return append(out, s.Iterate()...)
	}
	a, b := draw(), draw()
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("Same seed gave different batches: %v, %v", a, b)
		}
	}
}
