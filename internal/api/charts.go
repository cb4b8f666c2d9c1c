package api

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/ridhuanjoe/treadmill-gaitlab/internal/httputil"
)

// handleStrideChart renders a quick HTML line chart of stride and step times
// per detected strike using go-echarts. This is a debugging-only endpoint to
// eyeball rhythm without a frontend.
func (s *Server) handleStrideChart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	rows, ok := s.lookupRows(w, r)
	if !ok {
		return
	}
	if len(rows) == 0 {
		httputil.NotFound(w, "no gait rows to chart")
		return
	}

	labels := make([]string, 0, len(rows))
	strideTimes := make([]opts.LineData, 0, len(rows))
	stepTimes := make([]opts.LineData, 0, len(rows))
	for i, row := range rows {
		labels = append(labels, fmt.Sprintf("%d%s", i+1, row.Label))
		strideTimes = append(strideTimes, opts.LineData{Value: floatOrNil(row.StrideTimeMs)})
		stepTimes = append(stepTimes, opts.LineData{Value: floatOrNil(row.StepTimeMs)})
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Gait Timing", Theme: "dark", Width: "1200px", Height: "600px"}),
		charts.WithTitleOpts(opts.Title{Title: "Stride and Step Times", Subtitle: fmt.Sprintf("rows=%d", len(rows))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Strike"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "ms"}),
	)
	line.SetXAxis(labels)
	line.AddSeries("stride time (ms)", strideTimes)
	line.AddSeries("step time (ms)", stepTimes)

	var buf bytes.Buffer
	if err := line.Render(&buf); err != nil {
		httputil.WriteJSONError(w, http.StatusInternalServerError, fmt.Sprintf("failed to render chart: %v", err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

func floatOrNil(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}
