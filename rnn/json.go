package rnn

import (
	"encoding/json"
	"fmt"

	"github.com/reggo/rnnforecast/common"
	"github.com/reggo/rnnforecast/loss"
	"github.com/reggo/rnnforecast/regularize"
)

// forecasterMarshaler is the persisted form of a Forecaster. The loss and
// regularizer are stored so a decoded Forecaster refits the same objective;
// the optimizer and sampler take the defaults unless it is decoded into one
// built by New.
type forecasterMarshaler struct {
	InputDim    int
	HiddenDim   int
	OutputDim   int
	SeqLen      int
	Activation  common.InterfaceMarshaler
	Losser      common.InterfaceMarshaler
	Regularizer common.InterfaceMarshaler
	Parameters  []float64
	Losses      []float64
	Fitted      bool
}

func (f *Forecaster) MarshalJSON() ([]byte, error) {
	return json.Marshal(forecasterMarshaler{
		InputDim:    f.in,
		HiddenDim:   f.hidden,
		OutputDim:   f.out,
		SeqLen:      f.seqLen,
		Activation:  common.InterfaceMarshaler{I: f.activator},
		Losser:      common.InterfaceMarshaler{I: f.losser},
		Regularizer: common.InterfaceMarshaler{I: f.regularizer},
		Parameters:  f.parameters,
		Losses:      f.losses,
		Fitted:      f.fitted,
	})
}

// UnmarshalJSON restores the dimensions, activation, loss, regularizer,
// parameters and loss history. If f was not built by New, the training settings take their
// defaults with EvalStep 1 and Epochs and BatchSize of 1.
func (f *Forecaster) UnmarshalJSON(data []byte) error {
	var m forecasterMarshaler
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	act, ok := m.Activation.I.(Activator)
	if !ok {
		return fmt.Errorf("rnn: decoded activation %T is not an Activator", m.Activation.I)
	}
	// Files without a loss or regularizer keep the current ones.
	var losser loss.DerivLosser
	if m.Losser.I != nil {
		if losser, ok = m.Losser.I.(loss.DerivLosser); !ok {
			return fmt.Errorf("rnn: decoded loss %T is not a DerivLosser", m.Losser.I)
		}
	}
	var reg regularize.Regularizer
	if m.Regularizer.I != nil {
		if reg, ok = m.Regularizer.I.(regularize.Regularizer); !ok {
			return fmt.Errorf("rnn: decoded regularizer %T is not a Regularizer", m.Regularizer.I)
		}
	}
	cfg := Config{
		InputDim:  m.InputDim,
		HiddenDim: m.HiddenDim,
		OutputDim: m.OutputDim,
		SeqLen:    m.SeqLen,
		Epochs:    max(f.epochs, 1),
		BatchSize: max(f.batchSize, 1),
		EvalStep:  max(f.evalStep, 1),
	}
	if err := cfg.validate(); err != nil {
		return err
	}
	s := shape{in: m.InputDim, hidden: m.HiddenDim, out: m.OutputDim}
	if len(m.Parameters) != s.numParameters() {
		return &common.ShapeError{What: "number of parameters", Want: s.numParameters(), Got: len(m.Parameters)}
	}

	if f.logger == nil {
		// Not built by New: take the defaults for everything else.
		cfg.Activation = act
		fresh, err := New(cfg)
		if err != nil {
			return err
		}
		*f = *fresh
	}
	f.shape = s
	f.seqLen = m.SeqLen
	f.activator = act
	if losser != nil {
		f.losser = losser
	}
	if reg != nil {
		f.regularizer = reg
	}
	f.allocate()
	copy(f.parameters, m.Parameters)
	f.losses = m.Losses
	f.fitted = m.Fitted
	return nil
}
