package report

import (
	"bytes"
	"errors"
	"fmt"
	"image/color"
	"io"
	"math"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/spm.report/internal/telemetry"
)

// ErrNoSpeedData is returned when a trip has no plottable speed sample.
var ErrNoSpeedData = errors.New("no speed samples to plot")

var (
	speedColor = color.RGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff}
	mpsColor   = color.RGBA{R: 0xd6, G: 0x27, B: 0x28, A: 0xff}
)

// SpeedProfilePNG plots speed against time with a horizontal line at mps
// and returns the PNG bytes.
func SpeedProfilePNG(points []telemetry.TripPoint, mps float64) ([]byte, error) {
	pts := make(plotter.XYs, 0, len(points))
	for _, p := range points {
		if math.IsNaN(p.Speed) || math.IsInf(p.Speed, 0) {
			continue
		}
		pts = append(pts, plotter.XY{X: float64(p.Time.Unix()), Y: p.Speed})
	}
	if len(pts) == 0 {
		return nil, ErrNoSpeedData
	}
	loc := points[0].Time.Location()

	p := plot.New()
	p.Title.Text = "Speed Profile"
	p.X.Label.Text = "Time"
	p.Y.Label.Text = "Speed (km/h)"
	p.X.Tick.Marker = plot.TimeTicks{
		Format: "15:04",
		Time:   func(t float64) time.Time { return time.Unix(int64(t), 0).In(loc) },
	}
	p.Y.Min = 0
	p.Add(plotter.NewGrid())

	line, err := plotter.NewLine(pts)
	if err != nil {
		return nil, fmt.Errorf("failed to build speed line: %w", err)
	}
	line.Color = speedColor
	line.Width = vg.Points(1)
	p.Add(line)
	p.Legend.Add("Speed", line)

	mpsLine, err := plotter.NewLine(plotter.XYs{{X: pts[0].X, Y: mps}, {X: pts[len(pts)-1].X, Y: mps}})
	if err != nil {
		return nil, fmt.Errorf("failed to build MPS line: %w", err)
	}
	mpsLine.Color = mpsColor
	mpsLine.Width = vg.Points(1.5)
	mpsLine.Dashes = []vg.Length{vg.Points(6), vg.Points(4)}
	p.Add(mpsLine)
	p.Legend.Add(fmt.Sprintf("MPS %g km/h", mps), mpsLine)

	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10

	wt, err := p.WriterTo(10*vg.Inch, 4*vg.Inch, "png")
	if err != nil {
		return nil, fmt.Errorf("failed to render speed profile: %w", err)
	}
	var buf bytes.Buffer
	if _, err := wt.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to encode speed profile: %w", err)
	}
	return buf.Bytes(), nil
}

// SpeedProfilePage writes an interactive page with the speed profile
// (marked with the MPS) and the cumulative distance of the trip.
func SpeedProfilePage(w io.Writer, points []telemetry.TripPoint, mps float64, subtitle string) error {
	labels := make([]string, len(points))
	speeds := make([]opts.LineData, len(points))
	dists := make([]opts.LineData, len(points))
	for i, p := range points {
		labels[i] = p.Time.Format("2006-01-02 15:04:05")
		if !math.IsNaN(p.Speed) && !math.IsInf(p.Speed, 0) {
			speeds[i] = opts.LineData{Value: p.Speed}
		} else {
			speeds[i] = opts.LineData{Value: nil}
		}
		dists[i] = opts.LineData{Value: math.Round(p.CumDistanceKm*1000) / 1000}
	}

	speed := charts.NewLine()
	speed.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "SPM Speed Analysis", Width: "100%", Height: "520px"}),
		charts.WithTitleOpts(opts.Title{Title: "Speed Profile", Subtitle: subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider", Start: 0, End: 100}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Time", NameLocation: "middle", NameGap: 30}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Speed (km/h)", NameLocation: "middle", NameGap: 40}),
	)
	speed.SetXAxis(labels).AddSeries("Speed", speeds,
		charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}),
		charts.WithMarkLineNameYAxisItemOpts(opts.MarkLineNameYAxisItem{Name: fmt.Sprintf("MPS %g", mps), YAxis: mps}),
	)

	distance := charts.NewLine()
	distance.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "320px"}),
		charts.WithTitleOpts(opts.Title{Title: "Cumulative Distance"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "km", NameLocation: "middle", NameGap: 40}),
	)
	distance.SetXAxis(labels).AddSeries("Distance", dists,
		charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}),
	)

	page := components.NewPage()
	page.PageTitle = "SPM Speed Analysis"
	page.AddCharts(speed, distance)
	return page.Render(w)
}
