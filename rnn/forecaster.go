// Package rnn implements a recurrent-network forecaster for time series.
//
// A single recurrent cell is unrolled over a fixed number of steps τ. The
// final state is projected linearly to the output. Training draws
// mini-batches of windows, back-propagates through the unrolled steps and
// applies a pluggable optimizer. Forecasting rolls the model forward,
// feeding each prediction back in as the newest observation.
package rnn

import (
	"math"
	"math/rand/v2"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/reggo/rnnforecast/common"
	"github.com/reggo/rnnforecast/loss"
	"github.com/reggo/rnnforecast/metric"
	"github.com/reggo/rnnforecast/predict"
	"github.com/reggo/rnnforecast/regularize"
	"github.com/reggo/rnnforecast/series"
	"github.com/reggo/rnnforecast/train"
)

const (
	defaultSeed         = 12
	defaultLearningRate = 0.01
	initStdDev          = 0.01
)

// Config holds the hyperparameters of a Forecaster. The integer fields must
// all be positive. Nil strategies take their defaults.
type Config struct {
	InputDim  int
	HiddenDim int
	OutputDim int
	SeqLen    int // τ, the number of steps per window

	Epochs    int
	BatchSize int
	EvalStep  int // the loss is recorded every EvalStep epochs

	Activation  Activator              // Tanh
	Losser      loss.DerivLosser       // loss.L2Norm
	Optimizer   train.Optimizer        // train.GradientDescent with rate 0.01
	Regularizer regularize.Regularizer // regularize.None
	// Sampler defaults to train.Stochastic drawing BatchSize windows with
	// replacement.
	Sampler train.Sampler

	Seed     uint64 // 0 means 12
	Logger   *logrus.Logger
	Recorder ProgressRecorder
}

func (c *Config) validate() error {
	for _, f := range []struct {
		name  string
		value int
	}{
		{"InputDim", c.InputDim},
		{"HiddenDim", c.HiddenDim},
		{"OutputDim", c.OutputDim},
		{"SeqLen", c.SeqLen},
		{"Epochs", c.Epochs},
		{"BatchSize", c.BatchSize},
		{"EvalStep", c.EvalStep},
	} {
		if f.value < 1 {
			return &common.ConfigError{Field: f.name, Value: f.value}
		}
	}
	return nil
}

// Forecaster is a recurrent network that maps a window of τ observations to
// the next observation. It is not safe for concurrent use while fitting.
type Forecaster struct {
	shape
	seqLen    int
	epochs    int
	batchSize int
	evalStep  int

	activator   Activator
	losser      loss.DerivLosser
	optimizer   train.Optimizer
	regularizer regularize.Regularizer
	sampler     train.Sampler

	seed     uint64
	rnd      *rand.Rand
	logger   *logrus.Logger
	recorder ProgressRecorder

	parameters []float64
	weights    *weights
	losses     []float64
	fitted     bool
	grainSize  int
}

// New validates cfg, allocates the parameters and draws their initial
// values.
func New(cfg Config) (*Forecaster, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	f := &Forecaster{
		shape:       shape{in: cfg.InputDim, hidden: cfg.HiddenDim, out: cfg.OutputDim},
		seqLen:      cfg.SeqLen,
		epochs:      cfg.Epochs,
		batchSize:   cfg.BatchSize,
		evalStep:    cfg.EvalStep,
		activator:   cfg.Activation,
		losser:      cfg.Losser,
		optimizer:   cfg.Optimizer,
		regularizer: cfg.Regularizer,
		sampler:     cfg.Sampler,
		seed:        cfg.Seed,
		logger:      cfg.Logger,
		recorder:    cfg.Recorder,
	}
	if f.seed == 0 {
		f.seed = defaultSeed
	}
	f.rnd = rand.New(rand.NewPCG(f.seed, f.seed))
	if f.activator == nil {
		f.activator = Tanh{}
	}
	if f.losser == nil {
		f.losser = loss.L2Norm{}
	}
	if f.optimizer == nil {
		f.optimizer = &train.GradientDescent{LearningRate: defaultLearningRate}
	}
	if f.regularizer == nil {
		f.regularizer = regularize.None{}
	}
	if f.sampler == nil {
		f.sampler = &train.Stochastic{BatchSize: f.batchSize, Replacement: true, Rand: f.rnd}
	}
	if f.logger == nil {
		f.logger = logrus.New()
	}
	f.allocate()
	f.RandomizeParameters()
	return f, nil
}

func (f *Forecaster) allocate() {
	f.parameters = make([]float64, f.numParameters())
	f.weights = newWeights(f.shape, f.parameters, f.activator)
	f.setGrainSize()
}

// setGrainSize aims for roughly 100µs of work per parallel chunk, taking
// the cost of one window as τ passes over the parameters.
func (f *Forecaster) setGrainSize() {
	nOps := f.numParameters()*f.seqLen + 200*f.seqLen
	grain := int(math.Ceil(100000 / (0.7 * float64(nOps))))
	if grain < 1 {
		grain = 1
	}
	f.grainSize = grain
}

func (f *Forecaster) InputDim() int      { return f.in }
func (f *Forecaster) OutputDim() int     { return f.out }
func (f *Forecaster) HiddenDim() int     { return f.hidden }
func (f *Forecaster) SeqLen() int        { return f.seqLen }
func (f *Forecaster) NumParameters() int { return len(f.parameters) }
func (f *Forecaster) GrainSize() int     { return f.grainSize }

// Fitted reports whether Fit has completed, either on this value or on the
// model it was decoded from.
func (f *Forecaster) Fitted() bool { return f.fitted }

// Losses returns a copy of the loss history recorded by the last Fit.
func (f *Forecaster) Losses() []float64 {
	out := make([]float64, len(f.losses))
	copy(out, f.losses)
	return out
}

// Parameters copies the parameters into p, allocating if p is nil. It
// panics if p has the wrong length.
func (f *Forecaster) Parameters(p []float64) []float64 {
	if p == nil {
		p = make([]float64, len(f.parameters))
	}
	if len(p) != len(f.parameters) {
		panic("rnn: parameter length mismatch")
	}
	copy(p, f.parameters)
	return p
}

// SetParameters copies p into the parameters. It panics if p has the wrong
// length.
func (f *Forecaster) SetParameters(p []float64) {
	if len(p) != len(f.parameters) {
		panic("rnn: parameter length mismatch")
	}
	copy(f.parameters, p)
}

// RandomizeParameters draws fresh parameters: Glorot-uniform recurrent
// weights, truncated-normal output weights and small normal biases.
func (f *Forecaster) RandomizeParameters() {
	w := f.weights
	glorot := func(m *mat.Dense) {
		r, c := m.Dims()
		limit := math.Sqrt(6 / float64(r+c))
		u := distuv.Uniform{Min: -limit, Max: limit, Src: f.rnd}
		raw := m.RawMatrix().Data
		for i := range raw {
			raw[i] = u.Rand()
		}
	}
	norm := distuv.Normal{Mu: 0, Sigma: initStdDev, Src: f.rnd}
	normal := func(v []float64) {
		for i := range v {
			v[i] = norm.Rand()
		}
	}
	truncated := func(v []float64) {
		for i := range v {
			x := norm.Rand()
			for math.Abs(x) > 2*initStdDev {
				x = norm.Rand()
			}
			v[i] = x
		}
	}
	glorot(w.cell.wx)
	glorot(w.cell.wh)
	normal(w.cell.b.RawVector().Data)
	truncated(w.head.wo.RawMatrix().Data)
	normal(w.head.bo.RawVector().Data)
}

// Unroll runs the forward pass over the windows of x selected by idxs and
// returns every intermediate state. Every step references the same cell
// parameters. It panics if idxs is empty.
func (f *Forecaster) Unroll(x *series.Windows, idxs []int) *Unrolled {
	windows := make([]*mat.Dense, len(idxs))
	for i, idx := range idxs {
		windows[i] = x.Window(idx)
	}
	return unroll(f.weights, windows)
}

func (f *Forecaster) checkWindows(x *series.Windows) error {
	if x == nil {
		return common.ErrNoData
	}
	return series.Check(x, f.seqLen, f.in)
}

// Fit trains the network on windows x and next-step targets y, one row of y
// per window. Parameters are re-drawn first, so Fit always starts fresh.
// Every epoch draws one mini-batch and takes one optimizer step; every
// EvalStep epochs the loss on that batch is recorded.
func (f *Forecaster) Fit(x *series.Windows, y *mat.Dense) error {
	if err := f.checkWindows(x); err != nil {
		return err
	}
	n, _, _ := x.Dims()
	if err := common.VerifyRows(n, y); err != nil {
		return err
	}
	if _, c := y.Dims(); c != f.out {
		return &common.ShapeError{What: "output dimension", Want: f.out, Got: c}
	}

	runID := uuid.New().String()
	log := f.logger.WithFields(logrus.Fields{
		"run_id":       runID,
		"n_samples":    n,
		"n_parameters": len(f.parameters),
	})
	log.Info("fit started")

	f.RandomizeParameters()
	f.optimizer.Init(len(f.parameters))
	if err := f.sampler.Init(n); err != nil {
		return err
	}
	objective := train.NewBatchGradBased(f, x, y, f.losser, f.regularizer)
	grad := make([]float64, len(f.parameters))
	f.losses = make([]float64, 0, f.epochs/f.evalStep)
	f.fitted = false

	for epoch := 0; epoch < f.epochs; epoch++ {
		idxs := f.sampler.Iterate()
		objective.ObjGradSubset(idxs, f.parameters, grad)
		f.optimizer.Step(f.parameters, grad)
		if (epoch+1)%f.evalStep != 0 {
			continue
		}
		l := objective.ObjSubset(idxs, f.parameters)
		f.losses = append(f.losses, l)
		log.WithFields(logrus.Fields{"epoch": epoch, "loss": l}).Info("training progress")
		if f.recorder != nil {
			f.recorder.Record(Progress{RunID: runID, Epoch: epoch, Loss: l})
		}
	}
	f.fitted = true

	final := math.NaN()
	if len(f.losses) > 0 {
		final = f.losses[len(f.losses)-1]
	}
	log.WithField("final_loss", final).Info("fit finished")
	return nil
}

// Unavailable marks row as having no prediction.
func Unavailable(row []float64) {
	for i := range row {
		row[i] = math.NaN()
	}
}

// IsUnavailable reports whether row was marked by Unavailable.
func IsUnavailable(row []float64) bool {
	for _, v := range row {
		if !math.IsNaN(v) {
			return false
		}
	}
	return len(row) > 0
}

// Predict forecasts steps values ahead from the first window of x. Each
// prediction is appended to the window, dropping its oldest row, before the
// next is made. The result has τ+steps rows: the first τ, covering the seed
// window, are Unavailable and row τ+k is the (k+1)-step-ahead forecast.
// Feeding predictions back requires OutputDim == InputDim.
func (f *Forecaster) Predict(x *series.Windows, steps int) (*mat.Dense, error) {
	if steps < 1 {
		return nil, common.ErrBadHorizon
	}
	if f.out != f.in {
		return nil, common.ErrFeedback
	}
	if err := f.checkWindows(x); err != nil {
		return nil, err
	}
	window := mat.DenseCopyOf(x.Window(0))
	out := mat.NewDense(f.seqLen+steps, f.out, nil)
	for t := 0; t < f.seqLen; t++ {
		Unavailable(out.RawRowView(t))
	}
	p := f.NewPredictor()
	for k := 0; k < steps; k++ {
		row := out.RawRowView(f.seqLen + k)
		p.Predict(window, row)
		series.Slide(window, row)
	}
	return out, nil
}

// PredictProba returns the raw network output for every window of x, one
// row per window. Windows are evaluated in parallel.
func (f *Forecaster) PredictProba(x *series.Windows) (*mat.Dense, error) {
	if err := f.checkWindows(x); err != nil {
		return nil, err
	}
	return predict.Batch(f, x, nil, f.out, f.grainSize)
}

// Accuracy is the fraction of outputs of PredictProba exactly equal to y.
// It is only meaningful when the outputs are discrete labels.
func (f *Forecaster) Accuracy(x *series.Windows, y *mat.Dense) (float64, error) {
	pred, err := f.PredictProba(x)
	if err != nil {
		return 0, err
	}
	return metric.Accuracy(pred, y)
}

// AccuracyLabels is the hit rate of each distinct label in y, counting only
// predictions that match at the same position.
func (f *Forecaster) AccuracyLabels(x *series.Windows, y *mat.Dense) ([]metric.LabelAccuracy, error) {
	pred, err := f.PredictProba(x)
	if err != nil {
		return nil, err
	}
	return metric.AccuracyLabels(pred, y)
}

// NewPredictor returns a single-window predictor over the current
// parameters.
func (f *Forecaster) NewPredictor() predict.Predictor {
	return predictor{w: f.weights}
}

type predictor struct {
	w *weights
}

func (p predictor) Predict(window *mat.Dense, output []float64) {
	u := unroll(p.w, []*mat.Dense{window})
	copy(output, u.output.RawRowView(0))
}

// NewLossDeriver returns a LossDeriver with its own cached forward pass.
func (f *Forecaster) NewLossDeriver() train.LossDeriver {
	return &lossDeriver{shape: f.shape, act: f.activator}
}

type lossDeriver struct {
	shape
	act      Activator
	unrolled *Unrolled
}

func (l *lossDeriver) Predict(parameters []float64, inputs common.Sequencer, idxs []int, predictions *mat.Dense) {
	windows := make([]*mat.Dense, len(idxs))
	for i, idx := range idxs {
		windows[i] = inputs.Window(idx)
	}
	l.unrolled = unroll(newWeights(l.shape, parameters, l.act), windows)
	predictions.Copy(l.unrolled.output)
}

func (l *lossDeriver) Deriv(parameters []float64, dLossDPred *mat.Dense, dLossDParam []float64) {
	for i := range dLossDParam {
		dLossDParam[i] = 0
	}
	l.unrolled.backward(dLossDPred, newWeights(l.shape, dLossDParam, l.act))
}
