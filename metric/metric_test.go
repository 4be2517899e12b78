package metric

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/reggo/rnnforecast/common"
)

func col(v ...float64) *mat.Dense {
	return mat.NewDense(len(v), 1, v)
}

func TestAccuracy(t *testing.T) {
	truth := col(0, 1, 1, 2)

	acc, err := Accuracy(col(0, 1, 1, 2), truth)
	require.NoError(t, err)
	assert.Equal(t, 1.0, acc, "identical labels")

	acc, err = Accuracy(col(5, 6, 6, 7), truth)
	require.NoError(t, err)
	assert.Equal(t, 0.0, acc, "disjoint labels")

	acc, err = Accuracy(col(0, 1, 2, 2), truth)
	require.NoError(t, err)
	assert.Equal(t, 0.75, acc)

	_, err = Accuracy(col(0, 1), truth)
	var shape *common.ShapeError
	assert.ErrorAs(t, err, &shape)

	_, err = Accuracy(nil, truth)
	assert.ErrorIs(t, err, common.ErrNoData)
}

func TestAccuracyLabelsIndexAligned(t *testing.T) {
	// Label 1 is predicted twice, but only once where the truth is 1.
	truth := col(0, 0, 1, 1)
	pred := col(1, 0, 1, 0)

	labels, err := AccuracyLabels(pred, truth)
	require.NoError(t, err)
	require.Len(t, labels, 2)

	assert.Equal(t, LabelAccuracy{Label: 0, Hits: 1, Count: 2, Rate: 0.5}, labels[0])
	assert.Equal(t, LabelAccuracy{Label: 1, Hits: 1, Count: 2, Rate: 0.5}, labels[1])
}

func TestAccuracyLabelsNonContiguous(t *testing.T) {
	labels, err := AccuracyLabels(col(3, 7, 7), col(3, 7, 3))
	require.NoError(t, err)
	require.Len(t, labels, 2)
	assert.Equal(t, 3.0, labels[0].Label)
	assert.Equal(t, 0.5, labels[0].Rate)
	assert.Equal(t, 7.0, labels[1].Label)
	assert.Equal(t, 1.0, labels[1].Rate)

	_, err = AccuracyLabels(col(1), col(math.NaN()))
	assert.ErrorIs(t, err, common.ErrNoLabels)
}

func TestRegressionErrors(t *testing.T) {
	pred := col(1, 2, 3, 4)
	truth := col(2, 2, 1, 4)

	mae, err := MAE(pred, truth)
	require.NoError(t, err)
	assert.InDelta(t, 0.75, mae, 1e-14)

	rmse, err := RMSE(pred, truth)
	require.NoError(t, err)
	assert.InDelta(t, math.Sqrt(5.0/4), rmse, 1e-14)
}
