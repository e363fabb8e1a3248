package main

import (
	"errors"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

var splitColors = []color.Color{
	color.RGBA{R: 20, G: 80, B: 200, A: 255},
	color.RGBA{R: 230, G: 140, B: 20, A: 255},
	color.RGBA{R: 40, G: 150, B: 60, A: 255},
	color.RGBA{R: 180, G: 40, B: 40, A: 255},
}

// writeClassPlot renders a grouped bar chart of files per class, one bar
// group per class and one bar per split.
func writeClassPlot(path string, stats []splitStats) error {
	classes := classUnion(stats)
	if len(classes) == 0 {
		return errors.New("no split directories with classes to plot")
	}

	p := plot.New()
	p.Title.Text = "Files per class"
	p.Y.Label.Text = "files"
	p.Y.Min = 0

	barWidth := vg.Points(12)
	for i, s := range stats {
		values := make(plotter.Values, len(classes))
		for j, class := range classes {
			values[j] = float64(s.PerClass[class])
		}
		bars, err := plotter.NewBarChart(values, barWidth)
		if err != nil {
			return err
		}
		bars.LineStyle.Width = vg.Length(0)
		bars.Color = splitColors[i%len(splitColors)]
		bars.Offset = barWidth * vg.Length(float64(i)-float64(len(stats)-1)/2)
		p.Add(bars)
		p.Legend.Add(s.Name, bars)
	}
	p.Legend.Top = true
	p.NominalX(classes...)
	p.X.Tick.Label.Rotation = 0.8
	p.X.Tick.Label.XAlign = -1

	width := vg.Points(float64(120 + 18*len(classes)*max(1, len(stats))))
	return p.Save(max(width, 6*vg.Inch), 4*vg.Inch, path)
}
