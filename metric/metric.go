// Package metric scores predictions against known targets.
package metric

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/reggo/rnnforecast/common"
)

// LabelAccuracy is the hit rate for one distinct target value.
type LabelAccuracy struct {
	Label float64
	Hits  int // predictions equal to Label at an index where the truth is Label
	Count int // occurrences of Label in the truth
	Rate  float64
}

func flatten(prediction, truth mat.Matrix) ([]float64, []float64, error) {
	if prediction == nil || truth == nil {
		return nil, nil, common.ErrNoData
	}
	pr, pc := prediction.Dims()
	tr, tc := truth.Dims()
	if pr != tr {
		return nil, nil, &common.ShapeError{What: "number of rows", Want: tr, Got: pr}
	}
	if pc != tc {
		return nil, nil, &common.ShapeError{What: "output dimension", Want: tc, Got: pc}
	}
	p := make([]float64, 0, pr*pc)
	t := make([]float64, 0, tr*tc)
	for i := 0; i < pr; i++ {
		for j := 0; j < pc; j++ {
			p = append(p, prediction.At(i, j))
			t = append(t, truth.At(i, j))
		}
	}
	if len(p) == 0 {
		return nil, nil, common.ErrNoData
	}
	return p, t, nil
}

// Accuracy is the fraction of entries of prediction exactly equal to the
// corresponding entry of truth. It is only meaningful for discrete labels.
func Accuracy(prediction, truth mat.Matrix) (float64, error) {
	p, t, err := flatten(prediction, truth)
	if err != nil {
		return 0, err
	}
	var hits int
	for i, v := range p {
		if v == t[i] {
			hits++
		}
	}
	return float64(hits) / float64(len(p)), nil
}

// AccuracyLabels computes, for every distinct value in truth, the fraction of
// its occurrences that were predicted exactly. Results are ordered by label.
func AccuracyLabels(prediction, truth mat.Matrix) ([]LabelAccuracy, error) {
	p, t, err := flatten(prediction, truth)
	if err != nil {
		return nil, err
	}
	byLabel := make(map[float64]*LabelAccuracy)
	for i, label := range t {
		if math.IsNaN(label) {
			continue
		}
		acc, ok := byLabel[label]
		if !ok {
			acc = &LabelAccuracy{Label: label}
			byLabel[label] = acc
		}
		acc.Count++
		if p[i] == label {
			acc.Hits++
		}
	}
	if len(byLabel) == 0 {
		return nil, common.ErrNoLabels
	}
	out := make([]LabelAccuracy, 0, len(byLabel))
	for _, acc := range byLabel {
		acc.Rate = float64(acc.Hits) / float64(acc.Count)
		out = append(out, *acc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Label < out[j].Label })
	return out, nil
}

// MAE is the mean absolute error over every entry.
func MAE(prediction, truth mat.Matrix) (float64, error) {
	p, t, err := flatten(prediction, truth)
	if err != nil {
		return 0, err
	}
	return floats.Distance(p, t, 1) / float64(len(p)), nil
}

// RMSE is the root mean squared error over every entry.
func RMSE(prediction, truth mat.Matrix) (float64, error) {
	p, t, err := flatten(prediction, truth)
	if err != nil {
		return 0, err
	}
	return floats.Distance(p, t, 2) / math.Sqrt(float64(len(p))), nil
}
