// Command rnnprof profiles the forecaster's batch gradient on random data.
package main

import (
	"flag"
	"math/rand/v2"
	"runtime"

	"github.com/pkg/profile"
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/reggo/rnnforecast/rnn"
	"github.com/reggo/rnnforecast/series"
	"github.com/reggo/rnnforecast/train"
)

func main() {
	var (
		dir      = flag.String("dir", ".", "profile output directory")
		inputDim = flag.Int("in", 10, "input dimension")
		hidden   = flag.Int("hidden", 50, "hidden units")
		seqLen   = flag.Int("seq", 25, "sequence length")
		nSamples = flag.Int("samples", 100000, "number of windows")
		nRuns    = flag.Int("runs", 50, "gradient evaluations")
	)
	flag.Parse()

	if n := runtime.NumCPU(); n > 2 {
		runtime.GOMAXPROCS(n - 2)
	}
	log := logrus.New()

	f, err := rnn.New(rnn.Config{
		InputDim:  *inputDim,
		HiddenDim: *hidden,
		OutputDim: *inputDim,
		SeqLen:    *seqLen,
		Epochs:    1,
		BatchSize: 1,
		EvalStep:  1,
		Logger:    log,
	})
	if err != nil {
		log.Fatal(err)
	}

	rnd := rand.New(rand.NewPCG(1, 1))
	data := make([]float64, *nSamples**seqLen**inputDim)
	for i := range data {
		data[i] = rnd.Float64()
	}
	x := series.NewWindows(*nSamples, *seqLen, *inputDim, data)
	targets := mat.NewDense(*nSamples, *inputDim, data[:*nSamples**inputDim])

	defer profile.Start(profile.CPUProfile, profile.ProfilePath(*dir)).Stop()

	prob := train.NewBatchGradBased(f, x, targets, nil, nil)
	parameters := make([]float64, f.NumParameters())
	derivative := make([]float64, f.NumParameters())
	for i := 0; i < *nRuns; i++ {
		f.RandomizeParameters()
		f.Parameters(parameters)
		obj := prob.ObjGrad(parameters, derivative)
		log.WithFields(logrus.Fields{"run": i, "loss": obj, "grad_sum": floats.Sum(derivative)}).Info("gradient evaluated")
	}
}
