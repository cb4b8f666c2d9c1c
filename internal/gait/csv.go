package gait

import (
	"encoding/csv"
	"io"
	"strconv"
)

// CSVHeader is the export header for the gait row table.
var CSVHeader = []string{
	"Step",
	"Step Time (ms)",
	"Step Length (m)",
	"Stride Time (ms)",
	"Stride Length (m)",
	"Stride Frequency (Hz)",
}

// WriteCSV serializes rows as a flat CSV table. Absent fields serialize as
// empty cells.
func WriteCSV(w io.Writer, rows []GaitRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return err
	}

	for _, r := range rows {
		record := []string{
			r.Label,
			formatCell(r.StepTimeMs, 1),
			formatCell(r.StepLenM, 3),
			formatCell(r.StrideTimeMs, 1),
			formatCell(r.StrideLenM, 3),
			formatCell(r.StrideFreqHz, 3),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

func formatCell(v *float64, decimals int) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', decimals, 64)
}
