// Package scale transforms each feature of a series onto a common range
// before training, and maps forecasts back afterwards.
package scale

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/reggo/rnnforecast/common"
)

func init() {
	common.Register(&None{})
	common.Register(&Linear{})
	common.Register(&Normal{})
}

var errTooFew = errors.New("scale: less than two rows")

// UniformDimension is returned by SetScale when every value in some features
// is identical. Dims lists those features. The scale is still set.
type UniformDimension struct {
	Dims []int
}

func (u *UniformDimension) Error() string {
	return fmt.Sprintf("scale: features %v have a single value", u.Dims)
}

// UnequalLength is returned when a point does not have the scaled dimension.
type UnequalLength struct{}

func (UnequalLength) Error() string {
	return "scale: data length mismatch"
}

// Scaler transforms points so they are appropriately scaled for training.
// Every row of the data passed to SetScale is one point.
type Scaler interface {
	Scale(point []float64) error   // Scales the point in place
	Unscale(point []float64) error // Unscales the point in place
	IsScaled() bool                // True if the scale has been set
	Dimensions() int               // Number of features the scale was set for
	SetScale(data *mat.Dense) error
}

// SliceError records the failure of one row.
type SliceError struct {
	Header string
	Idx    int
	Err    error
}

func (s *SliceError) Error() string {
	return fmt.Sprintf("%v: element %v, error %v", s.Header, s.Idx, s.Err)
}

type ErrorList []*SliceError

func (e ErrorList) Error() string {
	return fmt.Sprintf("%v errors found", len(e))
}

func apply(header string, data *mat.Dense, f func([]float64) error) error {
	var (
		mu sync.Mutex
		e  ErrorList
	)
	nSamples, _ := data.Dims()
	grain := common.GetGrainSize(nSamples, 1, 500)
	common.ParallelFor(nSamples, grain, func(start, end int) {
		for r := start; r < end; r++ {
			if err := f(data.RawRowView(r)); err != nil {
				mu.Lock()
				e = append(e, &SliceError{Header: header, Idx: r, Err: err})
				mu.Unlock()
			}
		}
	})
	if len(e) != 0 {
		return e
	}
	return nil
}

// ScaleData scales every row of data in parallel.
func ScaleData(scaler Scaler, data *mat.Dense) error {
	return apply("scale", data, scaler.Scale)
}

// UnscaleData unscales every row of data in parallel.
func UnscaleData(scaler Scaler, data *mat.Dense) error {
	return apply("unscale", data, scaler.Unscale)
}

// None leaves the data unchanged.
type None struct {
	Dim    int
	Scaled bool
}

func (n *None) IsScaled() bool  { return n.Scaled }
func (n *None) Dimensions() int { return n.Dim }

func (n *None) Scale(x []float64) error {
	if len(x) != n.Dim {
		return UnequalLength{}
	}
	return nil
}

func (n *None) Unscale(x []float64) error {
	return n.Scale(x)
}

func (n *None) SetScale(data *mat.Dense) error {
	rows, cols := data.Dims()
	if rows < 2 {
		return errTooFew
	}
	n.Dim = cols
	n.Scaled = true
	return nil
}

// Linear maps each feature onto [0, 1] using its minimum and maximum.
type Linear struct {
	Min    []float64
	Max    []float64
	Scaled bool
	Dim    int
}

func (l *Linear) IsScaled() bool  { return l.Scaled }
func (l *Linear) Dimensions() int { return l.Dim }

// SetScale finds the range of every feature. If a feature has a single
// value, its range is widened to value ± 0.5 and a UniformDimension error is
// returned.
func (l *Linear) SetScale(data *mat.Dense) error {
	rows, dim := data.Dims()
	if rows < 2 {
		return errTooFew
	}
	l.Min = make([]float64, dim)
	l.Max = make([]float64, dim)
	col := make([]float64, rows)
	var unif *UniformDimension
	for j := 0; j < dim; j++ {
		mat.Col(col, j, data)
		l.Min[j] = floats.Min(col)
		l.Max[j] = floats.Max(col)
		if l.Min[j] == l.Max[j] {
			if unif == nil {
				unif = &UniformDimension{}
			}
			unif.Dims = append(unif.Dims, j)
			l.Min[j] -= 0.5
			l.Max[j] += 0.5
		}
	}
	l.Scaled = true
	l.Dim = dim
	if unif != nil {
		return unif
	}
	return nil
}

func (l *Linear) Scale(point []float64) error {
	if len(point) != l.Dim {
		return UnequalLength{}
	}
	for i, val := range point {
		point[i] = (val - l.Min[i]) / (l.Max[i] - l.Min[i])
	}
	return nil
}

func (l *Linear) Unscale(point []float64) error {
	if len(point) != l.Dim {
		return UnequalLength{}
	}
	for i, val := range point {
		point[i] = val*(l.Max[i]-l.Min[i]) + l.Min[i]
	}
	return nil
}

// Normal scales each feature to zero mean and unit population variance.
type Normal struct {
	Mu     []float64
	Sigma  []float64
	Dim    int
	Scaled bool
}

func (n *Normal) IsScaled() bool  { return n.Scaled }
func (n *Normal) Dimensions() int { return n.Dim }

// SetScale finds the mean and standard deviation of every feature. A
// feature with zero deviation gets a deviation of 1 and a UniformDimension
// error is returned.
func (n *Normal) SetScale(data *mat.Dense) error {
	rows, dim := data.Dims()
	if rows < 2 {
		return errTooFew
	}
	n.Mu = make([]float64, dim)
	n.Sigma = make([]float64, dim)
	col := make([]float64, rows)
	var unif *UniformDimension
	for j := 0; j < dim; j++ {
		mat.Col(col, j, data)
		n.Mu[j], n.Sigma[j] = stat.PopMeanStdDev(col, nil)
		if n.Sigma[j] == 0 {
			if unif == nil {
				unif = &UniformDimension{}
			}
			unif.Dims = append(unif.Dims, j)
			n.Sigma[j] = 1
		}
	}
	n.Scaled = true
	n.Dim = dim
	if unif != nil {
		return unif
	}
	return nil
}

func (n *Normal) Scale(point []float64) error {
	if len(point) != n.Dim {
		return UnequalLength{}
	}
	for i := range point {
		point[i] = (point[i] - n.Mu[i]) / n.Sigma[i]
	}
	return nil
}

func (n *Normal) Unscale(point []float64) error {
	if len(point) != n.Dim {
		return UnequalLength{}
	}
	for i := range point {
		point[i] = point[i]*n.Sigma[i] + n.Mu[i]
	}
	return nil
}

// ByName returns a new, unset scaler: "none", "linear" or "normal".
func ByName(name string) (Scaler, error) {
	switch strings.ToLower(name) {
	case "", "none":
		return &None{}, nil
	case "linear", "minmax":
		return &Linear{}, nil
	case "normal", "standard":
		return &Normal{}, nil
	}
	return nil, fmt.Errorf("scale: unknown scaler %q", name)
}
