// Package chart renders time series line charts to image files with gonum/plot.
package chart

import (
	"errors"
	"fmt"
	"image/color"
	"math"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/sartorproj/btcforecast/timeseries"
)

var (
	ErrNoLines    = errors.New("chart needs at least one line")
	ErrEmptyLine  = errors.New("line has no points")
	ErrNonFinite  = errors.New("line contains non-finite values")
	ErrEmptyTitle = errors.New("chart name is empty")
)

// Red is used for forecast overlays.
var Red = color.RGBA{R: 255, A: 255}

// Labels are the title and axis captions of a chart.
type Labels struct {
	Title string
	X     string
	Y     string
}

// Line is one named series of a chart. A nil Color picks from the default palette.
type Line struct {
	Name   string
	Series *timeseries.Series
	Color  color.Color
}

// Renderer writes PNG charts into a directory.
type Renderer struct {
	dir    string
	width  vg.Length
	height vg.Length
}

// NewRenderer returns a Renderer writing widthIn x heightIn inch images to dir.
func NewRenderer(dir string, widthIn, heightIn float64) *Renderer {
	return &Renderer{
		dir:    dir,
		width:  vg.Length(widthIn) * vg.Inch,
		height: vg.Length(heightIn) * vg.Inch,
	}
}

// Lines draws every line against a date axis and saves the chart as
// <dir>/<name>.png. It returns the written path.
func (r *Renderer) Lines(name string, labels Labels, lines ...Line) (string, error) {
	if name == "" {
		return "", ErrEmptyTitle
	}
	if len(lines) == 0 {
		return "", fmt.Errorf("chart %s: %w", name, ErrNoLines)
	}

	p := plot.New()
	p.Title.Text = labels.Title
	p.X.Label.Text = labels.X
	p.Y.Label.Text = labels.Y
	p.X.Tick.Marker = plot.TimeTicks{Format: "2006-01-02"}
	p.Legend.Top = true
	p.Add(plotter.NewGrid())

	for i, l := range lines {
		pts, err := points(l.Series)
		if err != nil {
			return "", fmt.Errorf("chart %s: line %q: %w", name, l.Name, err)
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return "", fmt.Errorf("chart %s: line %q: %w", name, l.Name, err)
		}
		line.Color = l.Color
		if line.Color == nil {
			line.Color = plotutil.Color(i)
		}
		line.Width = vg.Points(1.5)

		p.Add(line)
		if l.Name != "" {
			p.Legend.Add(l.Name, line)
		}
	}

	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return "", fmt.Errorf("chart %s: %w", name, err)
	}
	path := filepath.Join(r.dir, name+".png")
	if err := p.Save(r.width, r.height, path); err != nil {
		return "", fmt.Errorf("chart %s: save: %w", name, err)
	}
	return path, nil
}

// points maps a series to plot coordinates with Unix seconds on X.
func points(s *timeseries.Series) (plotter.XYs, error) {
	if s == nil || s.Len() == 0 {
		return nil, ErrEmptyLine
	}
	pts := make(plotter.XYs, s.Len())
	for i, v := range s.Values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, ErrNonFinite
		}
		pts[i].X = float64(s.Timestamps[i].Unix())
		pts[i].Y = v
	}
	return pts, nil
}
