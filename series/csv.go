package series

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/reggo/rnnforecast/common"
)

// ReadCSV reads a series with one row per time step and one column per
// feature. If header is true the first record names the features.
func ReadCSV(r io.Reader, header bool) (*mat.Dense, []string, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read csv: %w", err)
	}
	var names []string
	if header && len(records) > 0 {
		names = records[0]
		records = records[1:]
	}
	if len(records) == 0 {
		return nil, nil, common.ErrNoData
	}
	cols := len(records[0])
	data := make([]float64, 0, len(records)*cols)
	for i, rec := range records {
		for j, field := range rec {
			v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
			if err != nil {
				return nil, nil, fmt.Errorf("series: row %d column %d: %w", i, j, err)
			}
			data = append(data, v)
		}
	}
	return mat.NewDense(len(records), cols, data), names, nil
}

// WriteCSV writes m one row per record. NaN values are left blank. The
// header is skipped if it is empty.
func WriteCSV(w io.Writer, header []string, m mat.Matrix) error {
	writer := csv.NewWriter(w)
	if len(header) > 0 {
		if err := writer.Write(header); err != nil {
			return err
		}
	}
	rows, cols := m.Dims()
	rec := make([]string, cols)
	for i := 0; i < rows; i++ {
		for j := range rec {
			v := m.At(i, j)
			if math.IsNaN(v) {
				rec[j] = ""
				continue
			}
			rec[j] = strconv.FormatFloat(v, 'g', -1, 64)
		}
		if err := writer.Write(rec); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
