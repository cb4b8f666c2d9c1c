package api

import (
	"fmt"
	"image/color"
	"net/http"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/ridhuanjoe/treadmill-gaitlab/internal/httputil"
	"github.com/ridhuanjoe/treadmill-gaitlab/internal/pose"
)

// handleTrajectoryPlot renders the smoothed vertical trajectory of one foot
// as a PNG. Debugging-only endpoint for checking the smoothing window and
// peak shape against the raw capture.
// Query params:
//
//	side (optional; "left" or "right", default "right")
func (s *Server) handleTrajectoryPlot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	side := pose.SideRight
	switch r.URL.Query().Get("side") {
	case "", "right":
	case "left":
		side = pose.SideLeft
	default:
		httputil.BadRequest(w, "side must be 'left' or 'right'")
		return
	}

	trajectory := s.analyzer.SmoothedTrajectory(side)
	if len(trajectory) == 0 {
		httputil.NotFound(w, "no trajectory samples for side")
		return
	}

	pts := make(plotter.XYs, len(trajectory))
	for i, y := range trajectory {
		pts[i] = plotter.XY{X: float64(i), Y: y}
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Smoothed %s foot trajectory", side)
	p.X.Label.Text = "Sample"
	p.Y.Label.Text = "Y (px, down)"
	// Image y grows downward; flip the axis so a footfall reads as a dip.
	p.Y.Min, p.Y.Max = maxFloat(trajectory), minFloat(trajectory)

	line, err := plotter.NewLine(pts)
	if err != nil {
		httputil.WriteJSONError(w, http.StatusInternalServerError, fmt.Sprintf("failed to build plot: %v", err))
		return
	}
	line.Color = color.RGBA{R: 31, G: 158, B: 137, A: 255}
	line.Width = vg.Points(1.5)
	p.Add(line)

	writer, err := p.WriterTo(10*vg.Inch, 4*vg.Inch, "png")
	if err != nil {
		httputil.WriteJSONError(w, http.StatusInternalServerError, fmt.Sprintf("failed to render plot: %v", err))
		return
	}

	w.Header().Set("Content-Type", "image/png")
	if _, err := writer.WriteTo(w); err != nil {
		httputil.WriteJSONError(w, http.StatusInternalServerError, fmt.Sprintf("failed to write plot: %v", err))
	}
}

func minFloat(vs []float64) float64 {
	m := vs[0]
	for _, v := range vs[1:] {
		if v < m {
			m = v
		}
	}
	return m
}

func maxFloat(vs []float64) float64 {
	m := vs[0]
	for _, v := range vs[1:] {
		if v > m {
			m = v
		}
	}
	return m
}
